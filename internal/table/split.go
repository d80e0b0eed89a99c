package table

import (
	"fmt"
	"strings"
)

// Split expands rows whose target column holds a separator-delimited
// multi-value field into one row per value, copying all other columns
// unchanged. Rows whose target column is missing (empty) are dropped
// entirely. When keep is true and a field held more than one value, the
// original combined value is additionally retained as its own row, emitted
// before the split values; a single-value field is never duplicated.
//
// Split is shape-generic: it works for any column and separator, so both
// the chromosome and the synonym fields reuse it.
func Split(t *Table, column, sep string, keep bool) (*Table, error) {
	idx := -1
	for i, name := range t.columns {
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("table: missing required column %q", column)
	}
	if sep == "" {
		return nil, fmt.Errorf("table: empty separator")
	}
	out := t.emptyLike()
	for _, row := range t.rows {
		presplit := row[idx]
		if presplit == "" {
			continue
		}
		values := strings.Split(presplit, sep)
		if keep && len(values) > 1 {
			out.rows = append(out.rows, row)
		}
		for _, value := range values {
			expanded := append([]string(nil), row...)
			expanded[idx] = value
			out.rows = append(out.rows, expanded)
		}
	}
	return out, nil
}
