// Package table implements the small in-memory tabular model the gene
// builders operate on: ordered string columns, string cells, and the pure
// transformations (select/rename, filter, stable sort, ordered
// deduplication, row splitting) the pipeline composes. The empty string is
// the missing-value representation; source markers are normalized before a
// table is constructed.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Table holds tabular data as ordered columns over rows of string cells.
// All transformations return new tables; a Table is never mutated after
// construction beyond AppendRow during initial population.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New constructs an empty table with the given ordered column names.
func New(columns ...string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: at least one column required")
	}
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("table: empty column name at position %d", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", name)
		}
		index[name] = i
	}
	return &Table{columns: append([]string(nil), columns...), index: index}, nil
}

// AppendRow adds one row; the value count must match the column count.
func (t *Table) AppendRow(values ...string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("table: row has %d values, want %d", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), values...))
	return nil
}

// Columns returns a copy of the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, column). Unknown columns and
// out-of-range rows yield the empty string.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row][i]
}

// RowValues returns a copy of the cells of one row in column order.
func (t *Table) RowValues(row int) []string {
	return append([]string(nil), t.rows[row]...)
}

// Row is a read-only view of a single row used by filter predicates.
type Row struct {
	t *Table
	i int
}

// Get returns the row's value in the named column.
func (r Row) Get(column string) string { return r.t.Value(r.i, column) }

// ColumnSpec names a source column and the name it carries in the output.
type ColumnSpec struct {
	Source string
	Target string
}

// Col selects a column under its existing name.
func Col(name string) ColumnSpec { return ColumnSpec{Source: name, Target: name} }

// Renamed selects a source column under a new name.
func Renamed(source, target string) ColumnSpec {
	return ColumnSpec{Source: source, Target: target}
}

// Select produces a table with exactly the requested columns, in order,
// renamed per spec. A missing source column is a hard error: column names
// are the contract with the source files, so selection fails fast instead
// of producing partial output.
func (t *Table) Select(specs ...ColumnSpec) (*Table, error) {
	sources := make([]int, len(specs))
	targets := make([]string, len(specs))
	for i, spec := range specs {
		idx, ok := t.index[spec.Source]
		if !ok {
			return nil, fmt.Errorf("table: missing required column %q", spec.Source)
		}
		sources[i] = idx
		targets[i] = spec.Target
	}
	out, err := New(targets...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		values := make([]string, len(sources))
		for i, src := range sources {
			values[i] = row[src]
		}
		out.rows = append(out.rows, values)
	}
	return out, nil
}

// Filter returns a table containing the rows for which keep returns true,
// preserving order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := t.emptyLike()
	for i, row := range t.rows {
		if keep(Row{t: t, i: i}) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// SortNumeric returns the table stably sorted ascending by the integer
// interpretation of the named column. Any value that does not parse as an
// integer is an error; numeric sort keys are identifier columns whose
// values have already survived validation.
func (t *Table) SortNumeric(column string) (*Table, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("table: missing required column %q", column)
	}
	keys := make([]int, len(t.rows))
	for i, row := range t.rows {
		v, err := strconv.Atoi(row[idx])
		if err != nil {
			return nil, fmt.Errorf("table: non-numeric value %q in column %q", row[idx], column)
		}
		keys[i] = v
	}
	out := t.emptyLike()
	out.rows = append(out.rows, t.rows...)
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })
	for i, src := range order {
		out.rows[i] = t.rows[src]
	}
	return out, nil
}

// SortLex returns the table stably sorted ascending by the named columns,
// comparing string representations column by column.
func (t *Table) SortLex(columns ...string) (*Table, error) {
	indices := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("table: missing required column %q", name)
		}
		indices[i] = idx
	}
	out := t.emptyLike()
	out.rows = append(out.rows, t.rows...)
	sort.SliceStable(out.rows, func(a, b int) bool {
		for _, idx := range indices {
			if out.rows[a][idx] != out.rows[b][idx] {
				return out.rows[a][idx] < out.rows[b][idx]
			}
		}
		return false
	})
	return out, nil
}

// Keep selects the deduplication policy for DropDuplicates.
type Keep int

const (
	// KeepFirst retains the first occurrence of each key, in order.
	KeepFirst Keep = iota
	// KeepNone drops every row whose key occurs more than once.
	KeepNone
)

// DropDuplicates deduplicates rows on the composite key formed by the named
// columns. KeepFirst implements ordered first-occurrence-wins merging;
// KeepNone removes all rows sharing an ambiguous key, including the first.
func (t *Table) DropDuplicates(columns []string, keep Keep) (*Table, error) {
	indices := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("table: missing required column %q", name)
		}
		indices[i] = idx
	}
	key := func(row []string) string {
		parts := make([]string, len(indices))
		for i, idx := range indices {
			parts[i] = row[idx]
		}
		return strings.Join(parts, "\x1f")
	}
	out := t.emptyLike()
	switch keep {
	case KeepFirst:
		seen := make(map[string]struct{}, len(t.rows))
		for _, row := range t.rows {
			k := key(row)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out.rows = append(out.rows, row)
		}
	case KeepNone:
		counts := make(map[string]int, len(t.rows))
		for _, row := range t.rows {
			counts[key(row)]++
		}
		for _, row := range t.rows {
			if counts[key(row)] == 1 {
				out.rows = append(out.rows, row)
			}
		}
	default:
		return nil, fmt.Errorf("table: unknown keep policy %d", keep)
	}
	return out, nil
}

// Append concatenates other onto the receiver. Column names and order must
// match exactly; the receiver's rows come first, which downstream
// first-occurrence deduplication relies on for precedence.
func (t *Table) Append(other *Table) (*Table, error) {
	if len(t.columns) != len(other.columns) {
		return nil, fmt.Errorf("table: append column count mismatch: %d vs %d", len(t.columns), len(other.columns))
	}
	for i, name := range t.columns {
		if other.columns[i] != name {
			return nil, fmt.Errorf("table: append column mismatch at %d: %q vs %q", i, name, other.columns[i])
		}
	}
	out := t.emptyLike()
	out.rows = append(out.rows, t.rows...)
	out.rows = append(out.rows, other.rows...)
	return out, nil
}

func (t *Table) emptyLike() *Table {
	out, _ := New(t.columns...)
	return out
}
