// Package genes builds the normalized human gene datasets from the raw NCBI
// tables: the gene catalog, the discontinued-identifier map, the
// chromosome/symbol lookup table, and the cross-reference table. Builders
// are pure table-to-table transformations; the Service composes them into
// one batch run.
package genes

import (
	"strconv"

	"github.com/cognoma/genes/internal/table"
	"github.com/cognoma/genes/pkg/domain"
)

// Canonical output column names shared by builders, exports, and stores.
const (
	ColEntrezGeneID    = "entrez_gene_id"
	ColSymbol          = "symbol"
	ColDescription     = "description"
	ColChromosome      = "chromosome"
	ColGeneType        = "gene_type"
	ColSynonyms        = "synonyms"
	ColAliases         = "aliases"
	ColOldEntrezGeneID = "old_entrez_gene_id"
	ColNewEntrezGeneID = "new_entrez_gene_id"
	ColDate            = "date"
	ColResource        = "resource"
	ColIdentifier      = "identifier"
)

const colTaxID = "tax_id"

// FieldSeparator delimits multi-value fields (chromosome, synonyms,
// dbXrefs) in the source data.
const FieldSeparator = "|"

// BuildGeneCatalog filters and renames the raw gene info table into the
// canonical gene catalog: one row per human gene, sorted by identifier.
// The source is assumed to carry at most one row per identifier within the
// taxon, so no deduplication is applied.
func BuildGeneCatalog(raw *table.Table) (*table.Table, error) {
	selected, err := raw.Select(
		table.Renamed("GeneID", ColEntrezGeneID),
		table.Renamed("Symbol", ColSymbol),
		table.Col(ColDescription),
		table.Col(ColChromosome),
		table.Renamed("type_of_gene", ColGeneType),
		table.Renamed("Synonyms", ColSynonyms),
		table.Renamed("Other_designations", ColAliases),
		table.Renamed("#tax_id", colTaxID),
	)
	if err != nil {
		return nil, err
	}
	filtered, err := dropTaxon(filterTaxon(selected))
	if err != nil {
		return nil, err
	}
	return filtered.SortNumeric(ColEntrezGeneID)
}

// filterTaxon keeps only rows whose tax_id equals the target taxon.
func filterTaxon(t *table.Table) *table.Table {
	return t.Filter(func(r table.Row) bool {
		id, err := strconv.Atoi(r.Get(colTaxID))
		return err == nil && id == domain.TargetTaxonID
	})
}

// dropTaxon removes the tax_id column, keeping the remaining columns in order.
func dropTaxon(t *table.Table) (*table.Table, error) {
	specs := make([]table.ColumnSpec, 0, len(t.Columns())-1)
	for _, name := range t.Columns() {
		if name == colTaxID {
			continue
		}
		specs = append(specs, table.Col(name))
	}
	return t.Select(specs...)
}
