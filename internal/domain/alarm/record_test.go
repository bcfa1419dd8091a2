package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRecord_IsFuture checks the strict comparison used for pruning.
func TestRecord_IsFuture(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)

	require.True(t, Record{TriggerAt: now.UnixMilli() + 1}.IsFuture(now))
	require.False(t, Record{TriggerAt: now.UnixMilli()}.IsFuture(now))
	require.False(t, Record{TriggerAt: now.UnixMilli() - 1}.IsFuture(now))
	require.Equal(t, now, Record{TriggerAt: Millis(now)}.Time())
}

// TestReminder covers both variants and the conversion to a record.
func TestReminder(t *testing.T) {
	t.Parallel()

	none := NoReminder()
	require.False(t, none.IsSet())

	_, ok := none.Record("t", "b")
	require.False(t, ok)

	r := NewReminder(42, "note-7")
	at, ok := r.TriggerAt()
	require.True(t, ok)
	require.Equal(t, int64(42), at)

	rec, ok := r.Record("Title", "Body")
	require.True(t, ok)
	require.Equal(t, Record{ID: "note-7", TriggerAt: 42, Title: "Title", Body: "Body"}, rec)

	generated := NewReminder(1, "")
	require.NotEmpty(t, generated.NotificationID())
	require.NotEqual(t, generated.NotificationID(), NewReminder(1, "").NotificationID())
}
