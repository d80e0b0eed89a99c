// Package postgres persists the derived gene tables in Postgres, mirroring
// the SQLite store's write-through design over the in-memory lookups.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/cognoma/genes/internal/infra/persistence/memory"
	"github.com/cognoma/genes/pkg/domain"
)

var _ domain.GeneStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/genes?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a Postgres-backed gene store.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
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

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), applies the schema, and hydrates the lookup indexes from
// any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
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
	return &Store{Store: mem, db: db}, nil
}

// Replace stores the snapshot in memory for lookups and writes it through to
// Postgres in a single transaction.
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
			`INSERT INTO genes (entrez_gene_id, symbol, description, chromosome, gene_type, synonyms, aliases) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.EntrezGeneID, g.Symbol, g.Description, g.Chromosome, g.GeneType, g.Synonyms, g.Aliases); err != nil {
			return fmt.Errorf("insert gene %d: %w", g.EntrezGeneID, err)
		}
	}
	for _, h := range snapshot.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gene_history (old_entrez_gene_id, new_entrez_gene_id, discontinued_date) VALUES ($1, $2, $3)`,
			h.OldEntrezGeneID, h.NewEntrezGeneID, h.Date); err != nil {
			return fmt.Errorf("insert history %d: %w", h.OldEntrezGeneID, err)
		}
	}
	for _, e := range snapshot.SymbolMap {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbol_map (symbol, chromosome, entrez_gene_id) VALUES ($1, $2, $3)`,
			e.Symbol, e.Chromosome, e.EntrezGeneID); err != nil {
			return fmt.Errorf("insert symbol %s/%s: %w", e.Symbol, e.Chromosome, err)
		}
	}
	for _, x := range snapshot.Xrefs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gene_xrefs (entrez_gene_id, resource, identifier) VALUES ($1, $2, $3)`,
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
