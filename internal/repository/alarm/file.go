package alarm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/fsutil"
	"github.com/oshokin/reminder/internal/logger"
)

// ScheduledAlarmsKey is the namespaced key holding the alarm list.
const ScheduledAlarmsKey = "scheduled_alarms"

// FileRepository persists alarm records in a JSON document on disk.
// Other top-level keys of the document are preserved across writes.
type FileRepository struct {
	// path is the filesystem location of the JSON document.
	path string
	// mu serializes every read-modify-write cycle.
	mu sync.Mutex
	// readFile reads the document.
	readFile func(name string) ([]byte, error)
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path:     filepath.Clean(path),
		readFile: os.ReadFile,
	}
}

// Put inserts or overwrites the record by id.
func (r *FileRepository) Put(ctx context.Context, record domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, records, err := r.load(ctx)
	if err != nil {
		return err
	}

	return r.store(doc, upsert(records, record))
}

// Remove deletes the record with the given id.
func (r *FileRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, records, err := r.load(ctx)
	if err != nil {
		return err
	}

	records, found := without(records, id)
	if !found {
		return nil
	}

	return r.store(doc, records)
}

// GetAll returns every persisted record in insertion order. An unreadable
// store is logged and reads as empty.
func (r *FileRepository) GetAll(ctx context.Context) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, records, err := r.load(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Failed to read alarm store", "path", r.path, "error", err)

		return nil, nil
	}

	return records, nil
}

// Clear deletes every record.
func (r *FileRepository) Clear(ctx context.Context) error {
	return r.ReplaceAll(ctx, nil)
}

// ReplaceAll rewrites the alarm list with exactly the given records.
func (r *FileRepository) ReplaceAll(ctx context.Context, records []domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, _, err := r.load(ctx)
	if err != nil {
		return err
	}

	return r.store(doc, records)
}

// Close is a no-op for the file backend.
func (r *FileRepository) Close() error {
	return nil
}

// load reads the document. Missing or corrupt content yields an empty list;
// corruption is logged and otherwise absorbed. Any other read failure is
// returned so writers never overwrite a store they could not read.
func (r *FileRepository) load(ctx context.Context) (map[string]json.RawMessage, []domain.Record, error) {
	doc := make(map[string]json.RawMessage)

	contents, err := r.readFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil, nil
		}

		return nil, nil, fmt.Errorf("read alarm store: %w", err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		return doc, nil, nil
	}

	if err = json.Unmarshal(contents, &doc); err != nil {
		logger.WarnKV(ctx, "Alarm store is corrupt, treating as empty",
			"path", r.path,
			"error", fmt.Errorf("%w: %w", domain.ErrPersistenceCorrupt, err))

		return make(map[string]json.RawMessage), nil, nil
	}

	raw, ok := doc[ScheduledAlarmsKey]
	if !ok {
		return doc, nil, nil
	}

	var records []domain.Record
	if err = json.Unmarshal(raw, &records); err != nil {
		logger.WarnKV(ctx, "Alarm list is corrupt, treating as empty",
			"path", r.path,
			"error", fmt.Errorf("%w: %w", domain.ErrPersistenceCorrupt, err))

		return doc, nil, nil
	}

	return doc, records, nil
}

// store encodes the document and swaps it in atomically.
func (r *FileRepository) store(doc map[string]json.RawMessage, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}

	list, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	doc[ScheduledAlarmsKey] = list

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode alarm store: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	if err = fsutil.WriteFileAtomic(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write alarm store: %w", err)
	}

	return nil
}
