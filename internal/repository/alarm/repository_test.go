package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// backends returns a fresh instance of every Repository implementation.
func backends(t *testing.T) map[string]Repository {
	t.Helper()

	sqliteRepo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "alarms.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, sqliteRepo.Close())
	})

	return map[string]Repository{
		"file":   NewFileRepository(filepath.Join(t.TempDir(), "prefs.json")),
		"sqlite": sqliteRepo,
	}
}

// TestRepository_Contract exercises the shared contract on every backend.
func TestRepository_Contract(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			require.Empty(t, all)

			a := domain.Record{ID: "a", TriggerAt: 100, Title: "A", Body: "first"}
			b := domain.Record{ID: "b", TriggerAt: 200, Title: "B", Body: "second"}

			require.NoError(t, repo.Put(ctx, a))
			require.NoError(t, repo.Put(ctx, b))

			// Overwrite by id keeps a single record and its position.
			a.TriggerAt = 150
			require.NoError(t, repo.Put(ctx, a))

			all, err = repo.GetAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []domain.Record{a, b}, all)

			// Unknown ids are ignored.
			require.NoError(t, repo.Remove(ctx, "missing"))
			require.NoError(t, repo.Remove(ctx, "a"))

			all, err = repo.GetAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []domain.Record{b}, all)

			c := domain.Record{ID: "c", TriggerAt: 300}
			require.NoError(t, repo.ReplaceAll(ctx, []domain.Record{c, b}))

			all, err = repo.GetAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []domain.Record{c, b}, all)

			require.NoError(t, repo.Clear(ctx))

			all, err = repo.GetAll(ctx)
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

// TestRepository_ConcurrentPut keeps every record written by concurrent callers.
func TestRepository_ConcurrentPut(t *testing.T) {
	t.Parallel()

	const writers = 50

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			var wg sync.WaitGroup

			errs := make(chan error, writers)

			for i := range writers {
				wg.Go(func() {
					errs <- repo.Put(ctx, domain.Record{ID: fmt.Sprintf("r%02d", i), TriggerAt: int64(i)})
				})
			}

			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, writers)

			seen := make(map[string]bool, writers)
			for _, record := range all {
				seen[record.ID] = true
			}

			require.Len(t, seen, writers)
		})
	}
}

// TestFileRepository_ReadFailure refuses to write over a store it cannot read,
// while reads still come back empty.
func TestFileRepository_ReadFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.json")

	repo := NewFileRepository(path)
	require.NoError(t, repo.Put(ctx, domain.Record{ID: "keep", TriggerAt: 1}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	errIO := errors.New("input/output error")
	repo.readFile = func(string) ([]byte, error) { return nil, errIO }

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	require.ErrorIs(t, repo.Put(ctx, domain.Record{ID: "new", TriggerAt: 2}), errIO)
	require.ErrorIs(t, repo.Remove(ctx, "keep"), errIO)
	require.ErrorIs(t, repo.Clear(ctx), errIO)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// TestFileRepository_Layout checks the persisted document shape.
func TestFileRepository_Layout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.json")
	repo := NewFileRepository(path)

	require.NoError(t, repo.Put(context.Background(), domain.Record{
		ID:        "r1",
		TriggerAt: 1_700_000_000_000,
		Title:     "Standup",
		Body:      "Room 4",
	}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"scheduled_alarms":[{"id":"r1","triggerAt":1700000000000,"title":"Standup","body":"Room 4"}]}`,
		string(contents))
}

// TestFileRepository_PreservesOtherKeys ensures foreign keys in the document survive writes.
func TestFileRepository_PreservesOtherKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	repo := NewFileRepository(path)
	require.NoError(t, repo.Put(context.Background(), domain.Record{ID: "r1", TriggerAt: 1}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(contents, &doc))
	require.JSONEq(t, `"dark"`, string(doc["theme"]))
	require.Contains(t, doc, ScheduledAlarmsKey)
}

// TestFileRepository_Corrupt verifies corrupt content reads as empty and is recoverable.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, contents := range map[string]string{
		"document": `{not json`,
		"list":     `{"scheduled_alarms":{"id":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "prefs.json")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

			repo := NewFileRepository(path)

			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			require.Empty(t, all)

			// A write replaces the corrupt list.
			require.NoError(t, repo.Put(ctx, domain.Record{ID: "r1", TriggerAt: 5}))

			all, err = repo.GetAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []domain.Record{{ID: "r1", TriggerAt: 5}}, all)
		})
	}
}

// TestFileRepository_Reopen ensures records survive a new repository instance.
func TestFileRepository_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	require.NoError(t, NewFileRepository(path).Put(ctx, domain.Record{ID: "r1", TriggerAt: 7}))

	all, err := NewFileRepository(path).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

// TestMigrate mirrors the schema versioning rules on an in-memory database.
func TestMigrate(t *testing.T) {
	t.Parallel()

	conn, err := sqlite.OpenConn(":memory:", 0)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, conn.Close())
	}()

	// Empty filesystems don't trigger migration.
	fsys := make(fstest.MapFS, 3)
	require.NoError(t, Migrate(conn, fsys))
	require.Equal(t, 0, schemaVersion(t, conn))

	fsys["0000.sql"] = &fstest.MapFile{Data: []byte("create table t1 (a text);")}
	require.NoError(t, Migrate(conn, fsys))
	require.Equal(t, 1, schemaVersion(t, conn))

	fsys["0001.sql"] = &fstest.MapFile{Data: []byte("create table t2 (a text); create table t3 (a text);")}
	require.NoError(t, Migrate(conn, fsys))
	require.Equal(t, 2, schemaVersion(t, conn))

	// Non-SQL files are ignored.
	fsys["0002.txt"] = &fstest.MapFile{Data: []byte("create table t4 (a text);")}
	require.NoError(t, Migrate(conn, fsys))
	require.Equal(t, 2, schemaVersion(t, conn))
}

func schemaVersion(t *testing.T, conn *sqlite.Conn) int {
	t.Helper()

	var version int

	require.NoError(t, sqlitex.Exec(conn, "pragma user_version", func(stmt *sqlite.Stmt) error {
		version = stmt.ColumnInt(0)

		return nil
	}))

	return version
}
