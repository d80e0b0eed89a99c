package genes

import (
	"strings"

	"github.com/cognoma/genes/internal/table"
)

const colOtherIDs = "other_ids"

// BuildGeneXrefs extracts a long table of cross-references from the raw
// gene info table: one row per (gene, external identifier). Each dbXrefs
// value is exploded on the field separator and split on its first colon
// into resource and identifier, so "HGNC:HGNC:5" yields resource "HGNC"
// and identifier "HGNC:5".
func BuildGeneXrefs(raw *table.Table) (*table.Table, error) {
	selected, err := raw.Select(
		table.Renamed("GeneID", ColEntrezGeneID),
		table.Renamed("dbXrefs", colOtherIDs),
		table.Renamed("#tax_id", colTaxID),
	)
	if err != nil {
		return nil, err
	}
	filtered, err := dropTaxon(filterTaxon(selected))
	if err != nil {
		return nil, err
	}
	sorted, err := filtered.SortNumeric(ColEntrezGeneID)
	if err != nil {
		return nil, err
	}
	exploded, err := table.Split(sorted, colOtherIDs, FieldSeparator, false)
	if err != nil {
		return nil, err
	}

	out, err := table.New(ColEntrezGeneID, ColResource, ColIdentifier)
	if err != nil {
		return nil, err
	}
	for i := 0; i < exploded.Len(); i++ {
		resource, identifier, _ := strings.Cut(exploded.Value(i, colOtherIDs), ":")
		if err := out.AppendRow(exploded.Value(i, ColEntrezGeneID), resource, identifier); err != nil {
			return nil, err
		}
	}
	return out, nil
}
