// Package export renders pipeline tables into stored artifacts.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/cognoma/genes/internal/blob/core"
	"github.com/cognoma/genes/internal/genes"
	"github.com/cognoma/genes/internal/table"
)

const (
	tsvContentType  = "text/tab-separated-values"
	jsonContentType = "application/json"
)

// Writer implements genes.ArtifactWriter over a blob store. Payloads are
// rendered fully in memory before any store call, and an existing artifact at
// the same key is deleted first so reruns replace outputs atomically from the
// reader's perspective.
type Writer struct {
	store  core.Store
	prefix string
}

// New constructs a Writer storing artifacts under prefix (may be empty).
func New(store core.Store, prefix string) *Writer {
	return &Writer{store: store, prefix: prefix}
}

// WriteTable renders tbl as a TSV artifact named name.
func (w *Writer) WriteTable(ctx context.Context, name string, tbl *table.Table) (genes.Artifact, error) {
	payload, err := renderTSV(tbl)
	if err != nil {
		return genes.Artifact{}, fmt.Errorf("render %s: %w", name, err)
	}
	return w.put(ctx, name, payload, tsvContentType, tbl.Len())
}

// WriteJSON renders v as a JSON artifact named name.
func (w *Writer) WriteJSON(ctx context.Context, name string, v any) (genes.Artifact, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return genes.Artifact{}, fmt.Errorf("render %s: %w", name, err)
	}
	payload = append(payload, '\n')
	return w.put(ctx, name, payload, jsonContentType, 0)
}

func (w *Writer) put(ctx context.Context, name string, payload []byte, contentType string, rows int) (genes.Artifact, error) {
	key := name
	if w.prefix != "" {
		key = path.Join(w.prefix, name)
	}
	// Blob stores are create-only; drop the previous run's artifact first.
	if _, err := w.store.Delete(ctx, key); err != nil {
		return genes.Artifact{}, fmt.Errorf("delete stale %s: %w", key, err)
	}
	opts := core.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"rows": strconv.Itoa(rows)},
	}
	info, err := w.store.Put(ctx, key, bytes.NewReader(payload), opts)
	if err != nil {
		return genes.Artifact{}, fmt.Errorf("store %s: %w", key, err)
	}
	return genes.Artifact{Key: info.Key, ContentType: contentType, SizeBytes: info.Size, Rows: rows}, nil
}

// renderTSV writes the header then every row, tab separated. Cell values are
// plain strings so csv quoting only engages for embedded tabs or newlines,
// which the upstream readers never produce.
func renderTSV(tbl *table.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = '\t'
	if err := writer.Write(tbl.Columns()); err != nil {
		return nil, err
	}
	for i := 0; i < tbl.Len(); i++ {
		if err := writer.Write(tbl.RowValues(i)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
