package genes

import (
	"fmt"
	"os"

	"github.com/cognoma/genes/internal/infra/persistence/memory"
	"github.com/cognoma/genes/internal/infra/persistence/postgres"
	"github.com/cognoma/genes/internal/infra/persistence/sqlite"
	"github.com/cognoma/genes/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenGeneStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	GENES_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	GENES_SQLITE_PATH: path to sqlite file (default ./genes.db)
//	GENES_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenGeneStore() (domain.GeneStore, error) {
	driver := os.Getenv("GENES_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("GENES_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("GENES_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
