// Package blob re-exports the core storage abstractions and selects a
// backend driver for the pipeline's artifacts.
package blob

import (
	"context"
	"fmt"
	"os"

	"github.com/cognoma/genes/internal/blob/core"
	"github.com/cognoma/genes/internal/infra/blob/fs"
	"github.com/cognoma/genes/internal/infra/blob/memory"
	"github.com/cognoma/genes/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// NewFilesystem constructs a filesystem-backed Store rooted at the provided
// path. Returns Store to encourage call sites to depend on the interface
// instead of concrete implementations.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory constructs an in-memory Store for tests.
func NewMemory() Store {
	return memory.New()
}

// Open selects a Store implementation using environment variables.
//
//	GENES_BLOB_DRIVER: fs|s3|memory (default fs)
//	GENES_BLOB_FS_ROOT: directory root when driver=fs (default ./data)
//	(S3 specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("GENES_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("GENES_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
