// Package memory implements the gene store on in-process maps. It backs the
// SQL stores' read path and serves as the test double.
package memory

import (
	"context"
	"sync"

	"github.com/cognoma/genes/pkg/domain"
)

// Store holds one snapshot of the derived gene tables and serves lookups
// from indexes built at replace time. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	snapshot  domain.Snapshot
	genes     map[int]domain.GeneRecord
	history   map[int]int
	symbolMap map[symbolKey]int
}

type symbolKey struct {
	chromosome string
	symbol     string
}

// NewStore returns an empty in-memory gene store.
func NewStore() *Store {
	s := &Store{}
	s.rebuild(domain.Snapshot{})
	return s
}

// Replace swaps in a full snapshot, discarding any previous state.
func (s *Store) Replace(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild(snapshot)
	return nil
}

// ImportState loads a snapshot, for hydration by the SQL stores at open time.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild(snapshot)
}

// ExportState returns the current snapshot with copied slices.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		Genes:     append([]domain.GeneRecord(nil), s.snapshot.Genes...),
		History:   append([]domain.HistoryRecord(nil), s.snapshot.History...),
		SymbolMap: append([]domain.SymbolLookupEntry(nil), s.snapshot.SymbolMap...),
		Xrefs:     append([]domain.XrefRecord(nil), s.snapshot.Xrefs...),
	}
}

func (s *Store) rebuild(snapshot domain.Snapshot) {
	s.snapshot = snapshot
	s.genes = make(map[int]domain.GeneRecord, len(snapshot.Genes))
	for _, g := range snapshot.Genes {
		s.genes[g.EntrezGeneID] = g
	}
	s.history = make(map[int]int, len(snapshot.History))
	for _, h := range snapshot.History {
		s.history[h.OldEntrezGeneID] = h.NewEntrezGeneID
	}
	s.symbolMap = make(map[symbolKey]int, len(snapshot.SymbolMap))
	for _, e := range snapshot.SymbolMap {
		s.symbolMap[symbolKey{chromosome: e.Chromosome, symbol: e.Symbol}] = e.EntrezGeneID
	}
}

// Gene returns the catalog record for an Entrez identifier.
func (s *Store) Gene(ctx context.Context, entrezGeneID int) (domain.GeneRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genes[entrezGeneID]
	return g, ok, nil
}

// ResolveSymbol maps a (chromosome, symbol) pair to an Entrez identifier.
func (s *Store) ResolveSymbol(ctx context.Context, chromosome, symbol string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.symbolMap[symbolKey{chromosome: chromosome, symbol: symbol}]
	return id, ok, nil
}

// ResolveHistory maps a discontinued Entrez identifier to its replacement.
func (s *Store) ResolveHistory(ctx context.Context, oldEntrezGeneID int) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.history[oldEntrezGeneID]
	return id, ok, nil
}

// Counts reports the size of each derived table.
func (s *Store) Counts(ctx context.Context) (domain.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Counts{
		Genes:     len(s.snapshot.Genes),
		History:   len(s.snapshot.History),
		SymbolMap: len(s.snapshot.SymbolMap),
		Xrefs:     len(s.snapshot.Xrefs),
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

var _ domain.GeneStore = (*Store)(nil)
