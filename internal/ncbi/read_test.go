package ncbi

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTableParsesHeaderAndMissingMarker(t *testing.T) {
	src := "#tax_id\tGeneID\tSymbol\n9606\t1\tA1BG\n9606\t2\t-\n"
	tbl, err := ReadTable(strings.NewReader(src))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := tbl.Columns(); got[0] != "#tax_id" || got[2] != "Symbol" {
		t.Fatalf("columns = %v", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if tbl.Value(1, "Symbol") != "" {
		t.Fatalf("missing marker not normalized: %q", tbl.Value(1, "Symbol"))
	}
}

func TestReadTableRejectsRaggedRows(t *testing.T) {
	src := "a\tb\n1\t2\t3\n"
	if _, err := ReadTable(strings.NewReader(src)); err == nil {
		t.Fatalf("expected field count error")
	}
}

func TestReadTableRejectsEmptyInput(t *testing.T) {
	if _, err := ReadTable(strings.NewReader("")); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestOpenTableHandlesGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gene_info.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("GeneID\tSymbol\n1\tA1BG\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	tbl, err := OpenTable(path)
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	if tbl.Len() != 1 || tbl.Value(0, "Symbol") != "A1BG" {
		t.Fatalf("unexpected table contents")
	}
}

func TestOpenTableMissingFile(t *testing.T) {
	if _, err := OpenTable(filepath.Join(t.TempDir(), "absent.gz")); err == nil {
		t.Fatalf("expected open error")
	}
}
