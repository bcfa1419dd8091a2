package alarm

import (
	"context"
	"fmt"
	"sync"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/repository/alarm/migration"
)

const (
	upsertQuery = `insert into alarms (id, trigger_at, title, body) values (?, ?, ?, ?)
on conflict (id) do update set
	trigger_at = excluded.trigger_at,
	title      = excluded.title,
	body       = excluded.body`
	deleteQuery    = `delete from alarms where id = ?`
	selectAllQuery = `select id, trigger_at, title, body from alarms order by rowid`
	clearQuery     = `delete from alarms`
)

// SQLiteRepository persists alarm records in a SQLite database, one row per alarm.
// Insertion order is the rowid order; overwriting a record keeps its position.
type SQLiteRepository struct {
	// conn is the single connection every operation runs on.
	conn *sqlite.Conn
	// mu serializes access to conn.
	mu sync.Mutex
}

// NewSQLiteRepository opens (or creates) the database at path and migrates its schema.
// Pass ":memory:" for a throwaway database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, fmt.Errorf("open alarm database: %w", err)
	}

	if err = Migrate(conn, migration.Scripts); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("migrate alarm database: %w", err)
	}

	return &SQLiteRepository{
		conn: conn,
	}, nil
}

// Put inserts or overwrites the record by id.
func (r *SQLiteRepository) Put(ctx context.Context, record domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.interruptOn(ctx)()

	if err := sqlitex.Exec(r.conn, upsertQuery, nil,
		record.ID, record.TriggerAt, record.Title, record.Body); err != nil {
		return fmt.Errorf("put alarm %s: %w", record.ID, err)
	}

	return nil
}

// Remove deletes the record with the given id.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.interruptOn(ctx)()

	if err := sqlitex.Exec(r.conn, deleteQuery, nil, id); err != nil {
		return fmt.Errorf("remove alarm %s: %w", id, err)
	}

	return nil
}

// GetAll returns every persisted record in insertion order.
// An unreadable database is logged and reported as empty.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.interruptOn(ctx)()

	var records []domain.Record

	err := sqlitex.Exec(r.conn, selectAllQuery, func(stmt *sqlite.Stmt) error {
		records = append(records, domain.Record{
			ID:        stmt.ColumnText(0),
			TriggerAt: stmt.ColumnInt64(1),
			Title:     stmt.ColumnText(2),
			Body:      stmt.ColumnText(3),
		})

		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.WarnKV(ctx, "Alarm database is unreadable, treating as empty",
			"error", fmt.Errorf("%w: %w", domain.ErrPersistenceCorrupt, err))

		return nil, nil
	}

	return records, nil
}

// Clear deletes every record.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.interruptOn(ctx)()

	if err := sqlitex.Exec(r.conn, clearQuery, nil); err != nil {
		return fmt.Errorf("clear alarms: %w", err)
	}

	return nil
}

// ReplaceAll rewrites the table with exactly the given records in one savepoint.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []domain.Record) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.interruptOn(ctx)()

	release := sqlitex.Save(r.conn)
	defer release(&err)

	if err = sqlitex.Exec(r.conn, clearQuery, nil); err != nil {
		return fmt.Errorf("clear alarms: %w", err)
	}

	for _, record := range records {
		if err = sqlitex.Exec(r.conn, upsertQuery, nil,
			record.ID, record.TriggerAt, record.Title, record.Body); err != nil {
			return fmt.Errorf("put alarm %s: %w", record.ID, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	err := r.conn.Close()
	r.conn = nil

	if err != nil {
		return fmt.Errorf("close alarm database: %w", err)
	}

	return nil
}

// interruptOn makes running statements abort when ctx is done and returns
// the function that restores the previous interrupt channel.
func (r *SQLiteRepository) interruptOn(ctx context.Context) func() {
	previous := r.conn.SetInterrupt(ctx.Done())

	return func() {
		r.conn.SetInterrupt(previous)
	}
}
