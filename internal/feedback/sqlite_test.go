package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fb := &Feedback{
		UserID:   "user-1",
		RecordID: "rec-1",
		Band:     "moderate",
		Helpful:  true,
		Rating:   4,
		Notes:    "hydration advice was actionable",
	}

	require.NoError(t, store.Save(ctx, fb))
	assert.NotZero(t, fb.ID)

	got, err := store.Get(ctx, "user-1", "rec-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "moderate", got.Band)
	assert.True(t, got.Helpful)
	assert.Equal(t, 4, got.Rating)
}

func TestSQLiteStore_SaveUpdatesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fb := &Feedback{UserID: "user-1", RecordID: "rec-1", Band: "high", Helpful: false, Rating: 2}
	require.NoError(t, store.Save(ctx, fb))
	firstID := fb.ID

	updated := &Feedback{UserID: "user-1", RecordID: "rec-1", Band: "high", Helpful: true, Rating: 5}
	require.NoError(t, store.Save(ctx, updated))
	assert.Equal(t, firstID, updated.ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.Get(ctx, "user-1", "rec-1")
	require.NoError(t, err)
	assert.True(t, got.Helpful)
	assert.Equal(t, 5, got.Rating)
}

func TestSQLiteStore_GetMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, recordID := range []string{"rec-1", "rec-2", "rec-3"} {
		fb := &Feedback{UserID: "user-1", RecordID: recordID, Band: "stable", Rating: i + 1}
		require.NoError(t, store.Save(ctx, fb))
	}

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Delete(ctx, all[0].ID))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fb := &Feedback{UserID: "user-1", RecordID: "rec-1", Band: "moderate", Helpful: true, Rating: 3}
	require.NoError(t, store.Save(ctx, fb))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.Feedback, 1)
	assert.Equal(t, "rec-1", export.Feedback[0].RecordID)
}
