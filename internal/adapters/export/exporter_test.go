package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/cognoma/genes/internal/genes"
	"github.com/cognoma/genes/internal/blob"
	"github.com/cognoma/genes/internal/table"
	"github.com/cognoma/genes/pkg/domain"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("entrez_gene_id", "symbol")
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	if err := tbl.AppendRow("1", "A1BG"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tbl.AppendRow("2", "A2M"); err != nil {
		t.Fatalf("append: %v", err)
	}
	return tbl
}

func readBlob(t *testing.T, store blob.Store, key string) []byte {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	_ = rc.Close()
	return b
}

func TestWriteTable(t *testing.T) {
	store := blob.NewMemory()
	writer := New(store, "")
	tbl := sampleTable(t)

	artifact, err := writer.WriteTable(context.Background(), genes.GenesArtifact, tbl)
	if err != nil {
		t.Fatalf("write table: %v", err)
	}
	if artifact.Key != "genes.tsv" || artifact.Rows != 2 || artifact.ContentType != "text/tab-separated-values" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	got := readBlob(t, store, "genes.tsv")
	want := "entrez_gene_id\tsymbol\n1\tA1BG\n2\tA2M\n"
	if string(got) != want {
		t.Fatalf("tsv mismatch:\n got %q\nwant %q", got, want)
	}
	if artifact.SizeBytes != int64(len(want)) {
		t.Fatalf("size mismatch: %d != %d", artifact.SizeBytes, len(want))
	}
}

func TestWriteTablePrefix(t *testing.T) {
	store := blob.NewMemory()
	writer := New(store, "data")
	artifact, err := writer.WriteTable(context.Background(), genes.UpdaterArtifact, sampleTable(t))
	if err != nil {
		t.Fatalf("write table: %v", err)
	}
	if artifact.Key != "data/updater.tsv" {
		t.Fatalf("unexpected key %q", artifact.Key)
	}
	if _, err := store.Head(context.Background(), "data/updater.tsv"); err != nil {
		t.Fatalf("head: %v", err)
	}
}

func TestWriteTableRerunIdentical(t *testing.T) {
	store := blob.NewMemory()
	writer := New(store, "")
	tbl := sampleTable(t)

	if _, err := writer.WriteTable(context.Background(), genes.GenesArtifact, tbl); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first := readBlob(t, store, "genes.tsv")
	if _, err := writer.WriteTable(context.Background(), genes.GenesArtifact, tbl); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second := readBlob(t, store, "genes.tsv")
	if !bytes.Equal(first, second) {
		t.Fatalf("reruns should produce identical bytes")
	}
}

func TestWriteJSONVersions(t *testing.T) {
	store := blob.NewMemory()
	writer := New(store, "")
	versions := domain.Versions{
		Retrieved: time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC),
		Files: []domain.FileVersion{
			{Path: "gene/DATA/gene_history.gz", Modified: time.Date(2016, 4, 30, 3, 0, 0, 0, time.UTC)},
		},
	}
	artifact, err := writer.WriteJSON(context.Background(), genes.VersionsArtifact, versions)
	if err != nil {
		t.Fatalf("write json: %v", err)
	}
	if artifact.Key != "versions.json" || artifact.ContentType != "application/json" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	got := readBlob(t, store, "versions.json")
	var decoded map[string]string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["retrieved"] == "" || decoded["gene/DATA/gene_history.gz"] == "" {
		t.Fatalf("missing keys in %q", got)
	}
	if got[len(got)-1] != '\n' {
		t.Fatalf("expected trailing newline")
	}
}

func TestWriteJSONUnmarshalable(t *testing.T) {
	store := blob.NewMemory()
	writer := New(store, "")
	if _, err := writer.WriteJSON(context.Background(), "bad.json", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}
