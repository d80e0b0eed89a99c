package domain

import "context"

// Counts reports per-table row totals held by a store.
type Counts struct {
	Genes     int `json:"genes"`
	History   int `json:"history"`
	SymbolMap int `json:"symbol_map"`
	Xrefs     int `json:"xrefs"`
}

// GeneStore is a minimal abstraction over durable backends holding the
// derived gene tables. Replace swaps the complete snapshot atomically;
// readers never observe a partially replaced state.
type GeneStore interface {
	Replace(ctx context.Context, snapshot Snapshot) error
	Gene(ctx context.Context, entrezGeneID int) (GeneRecord, bool, error)
	ResolveSymbol(ctx context.Context, chromosome, symbol string) (int, bool, error)
	ResolveHistory(ctx context.Context, oldEntrezGeneID int) (int, bool, error)
	Counts(ctx context.Context) (Counts, error)
	Close() error
}
