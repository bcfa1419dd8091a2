package alarm

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// Repository defines persistence operations for alarm records.
type Repository interface {
	// Put inserts the record or overwrites the one with the same id.
	Put(ctx context.Context, record domain.Record) error
	// Remove deletes the record with the given id. Unknown ids are ignored.
	Remove(ctx context.Context, id string) error
	// GetAll returns every record in insertion order.
	// A corrupt medium yields an empty list.
	GetAll(ctx context.Context) ([]domain.Record, error)
	// Clear deletes every record.
	Clear(ctx context.Context) error
	// ReplaceAll rewrites the store with exactly the given records.
	ReplaceAll(ctx context.Context, records []domain.Record) error
	// Close releases the underlying medium.
	Close() error
}

// upsert returns records with rec inserted or replacing the entry with the same id.
func upsert(records []domain.Record, rec domain.Record) []domain.Record {
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec

			return records
		}
	}

	return append(records, rec)
}

// without returns records minus the entry with the given id.
func without(records []domain.Record, id string) ([]domain.Record, bool) {
	for i := range records {
		if records[i].ID == id {
			return append(records[:i], records[i+1:]...), true
		}
	}

	return records, false
}

// Open returns the store backend selected by the configuration.
//
//nolint:ireturn // Callers only need the Repository contract.
func Open(cfg *config.Config) (Repository, error) {
	if err := os.MkdirAll(cfg.DataDir, config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	switch cfg.Store.Backend {
	case config.StoreBackendSQLite:
		return NewSQLiteRepository(cfg.StorePath())
	default:
		return NewFileRepository(cfg.StorePath()), nil
	}
}
