package genes

import (
	"fmt"
	"strconv"

	"github.com/cognoma/genes/internal/table"
)

// BuildHistoryMap filters and renames the raw gene history table into the
// old-identifier to new-identifier mapping, sorted by the retired
// identifier. Rows lacking either identifier are data-cleaning drops, not
// errors; a non-numeric identifier that survives the drop is a hard error.
// Identifiers are never mapped to themselves by construction of the source;
// that invariant is not asserted here.
func BuildHistoryMap(raw *table.Table) (*table.Table, error) {
	selected, err := raw.Select(
		table.Renamed("Discontinued_GeneID", ColOldEntrezGeneID),
		table.Renamed("GeneID", ColNewEntrezGeneID),
		table.Renamed("Discontinue_Date", ColDate),
		table.Renamed("#tax_id", colTaxID),
	)
	if err != nil {
		return nil, err
	}
	filtered, err := dropTaxon(filterTaxon(selected))
	if err != nil {
		return nil, err
	}
	present := filtered.Filter(func(r table.Row) bool {
		return r.Get(ColOldEntrezGeneID) != "" && r.Get(ColNewEntrezGeneID) != ""
	})
	if err := requireNumeric(present, ColNewEntrezGeneID); err != nil {
		return nil, err
	}
	return present.SortNumeric(ColOldEntrezGeneID)
}

// requireNumeric fails when any value of the column does not parse as an
// integer.
func requireNumeric(t *table.Table, column string) error {
	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, column)
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("non-numeric %s value %q", column, v)
		}
	}
	return nil
}
