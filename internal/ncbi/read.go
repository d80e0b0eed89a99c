// Package ncbi reads the NCBI gene reference files and retrieves them from
// the public host. Files are tab-delimited text with a header row,
// compressed with gzip, and use "-" as the missing-value marker.
package ncbi

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognoma/genes/internal/table"
)

// MissingMarker is the literal the source files use for absent values. It is
// normalized to the empty string when a table is read.
const MissingMarker = "-"

// maxLineBytes bounds a single source line. Other_designations fields run
// long for heavily aliased genes, well past bufio's default token size.
const maxLineBytes = 4 << 20

// OpenTable reads a tab-delimited file into a table, transparently
// decompressing when the path ends in .gz.
func OpenTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	tbl, err := ReadTable(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tbl, nil
}

// ReadTable parses tab-delimited text with a header row into a table,
// normalizing the missing-value marker to the empty string. Column names
// are taken verbatim from the header (including the leading # on #tax_id).
func ReadTable(r io.Reader) (*table.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty input: no header row")
	}
	header := strings.Split(sc.Text(), "\t")
	tbl, err := table.New(header...)
	if err != nil {
		return nil, err
	}

	line := 1
	for sc.Scan() {
		line++
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: %d fields, want %d", line, len(fields), len(header))
		}
		for i, v := range fields {
			if v == MissingMarker {
				fields[i] = ""
			}
		}
		if err := tbl.AppendRow(fields...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tbl, nil
}
