// Package sqlite persists the derived gene tables in a SQLite database. The
// in-memory store serves lookups; every successful Replace writes the full
// snapshot through in one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/cognoma/genes/internal/infra/persistence/memory"
	"github.com/cognoma/genes/pkg/domain"
)

var _ domain.GeneStore = (*Store)(nil)

// Store is a SQLite-backed gene store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS genes (
		entrez_gene_id INTEGER PRIMARY KEY,
		symbol TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		chromosome TEXT NOT NULL DEFAULT '',
		gene_type TEXT NOT NULL DEFAULT '',
		synonyms TEXT NOT NULL DEFAULT '',
		aliases TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS gene_history (
		old_entrez_gene_id INTEGER PRIMARY KEY,
		new_entrez_gene_id INTEGER NOT NULL,
		discontinued_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS symbol_map (
		symbol TEXT NOT NULL,
		chromosome TEXT NOT NULL,
		entrez_gene_id INTEGER NOT NULL,
		PRIMARY KEY (symbol, chromosome)
	)`,
	`CREATE TABLE IF NOT EXISTS gene_xrefs (
		entrez_gene_id INTEGER NOT NULL,
		resource TEXT NOT NULL,
		identifier TEXT NOT NULL
	)`,
}

// NewStore opens (or creates) the database at path and hydrates the lookup
// indexes from any previously stored snapshot. An empty path defaults to
// genes.db in the working directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "genes.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ctx := context.Background()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db, path: path}, nil
}

// Replace stores the snapshot in memory for lookups and writes it through to
// SQLite in a single transaction.
func (s *Store) Replace(ctx context.Context, snapshot domain.Snapshot) error {
	if err := s.Store.Replace(ctx, snapshot); err != nil {
		return err
	}
	return s.persist(ctx, snapshot)
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func (s *Store) persist(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, tbl := range []string{"genes", "gene_history", "symbol_map", "gene_xrefs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tbl); err != nil {
			return fmt.Errorf("clear %s: %w", tbl, err)
		}
	}
	for _, g := range snapshot.Genes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genes (entrez_gene_id, symbol, description, chromosome, gene_type, synonyms, aliases) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.EntrezGeneID, g.Symbol, g.Description, g.Chromosome, g.GeneType, g.Synonyms, g.Aliases); err != nil {
			return fmt.Errorf("insert gene %d: %w", g.EntrezGeneID, err)
		}
	}
	for _, h := range snapshot.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gene_history (old_entrez_gene_id, new_entrez_gene_id, discontinued_date) VALUES (?, ?, ?)`,
			h.OldEntrezGeneID, h.NewEntrezGeneID, h.Date); err != nil {
			return fmt.Errorf("insert history %d: %w", h.OldEntrezGeneID, err)
		}
	}
	for _, e := range snapshot.SymbolMap {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbol_map (symbol, chromosome, entrez_gene_id) VALUES (?, ?, ?)`,
			e.Symbol, e.Chromosome, e.EntrezGeneID); err != nil {
			return fmt.Errorf("insert symbol %s/%s: %w", e.Symbol, e.Chromosome, err)
		}
	}
	for _, x := range snapshot.Xrefs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gene_xrefs (entrez_gene_id, resource, identifier) VALUES (?, ?, ?)`,
			x.EntrezGeneID, x.Resource, x.Identifier); err != nil {
			return fmt.Errorf("insert xref %d: %w", x.EntrezGeneID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	rows, err := db.QueryContext(ctx, `SELECT entrez_gene_id, symbol, description, chromosome, gene_type, synonyms, aliases FROM genes ORDER BY entrez_gene_id`)
	if err != nil {
		return snapshot, fmt.Errorf("select genes: %w", err)
	}
	for rows.Next() {
		var g domain.GeneRecord
		if err := rows.Scan(&g.EntrezGeneID, &g.Symbol, &g.Description, &g.Chromosome, &g.GeneType, &g.Synonyms, &g.Aliases); err != nil {
			_ = rows.Close()
			return snapshot, fmt.Errorf("scan gene: %w", err)
		}
		snapshot.Genes = append(snapshot.Genes, g)
	}
	if err := closeRows(rows); err != nil {
		return snapshot, err
	}

	rows, err = db.QueryContext(ctx, `SELECT old_entrez_gene_id, new_entrez_gene_id, discontinued_date FROM gene_history ORDER BY old_entrez_gene_id`)
	if err != nil {
		return snapshot, fmt.Errorf("select history: %w", err)
	}
	for rows.Next() {
		var h domain.HistoryRecord
		if err := rows.Scan(&h.OldEntrezGeneID, &h.NewEntrezGeneID, &h.Date); err != nil {
			_ = rows.Close()
			return snapshot, fmt.Errorf("scan history: %w", err)
		}
		snapshot.History = append(snapshot.History, h)
	}
	if err := closeRows(rows); err != nil {
		return snapshot, err
	}

	rows, err = db.QueryContext(ctx, `SELECT symbol, chromosome, entrez_gene_id FROM symbol_map ORDER BY symbol, chromosome`)
	if err != nil {
		return snapshot, fmt.Errorf("select symbol map: %w", err)
	}
	for rows.Next() {
		var e domain.SymbolLookupEntry
		if err := rows.Scan(&e.Symbol, &e.Chromosome, &e.EntrezGeneID); err != nil {
			_ = rows.Close()
			return snapshot, fmt.Errorf("scan symbol: %w", err)
		}
		snapshot.SymbolMap = append(snapshot.SymbolMap, e)
	}
	if err := closeRows(rows); err != nil {
		return snapshot, err
	}

	rows, err = db.QueryContext(ctx, `SELECT entrez_gene_id, resource, identifier FROM gene_xrefs ORDER BY entrez_gene_id, resource, identifier`)
	if err != nil {
		return snapshot, fmt.Errorf("select xrefs: %w", err)
	}
	for rows.Next() {
		var x domain.XrefRecord
		if err := rows.Scan(&x.EntrezGeneID, &x.Resource, &x.Identifier); err != nil {
			_ = rows.Close()
			return snapshot, fmt.Errorf("scan xref: %w", err)
		}
		snapshot.Xrefs = append(snapshot.Xrefs, x)
	}
	if err := closeRows(rows); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}
