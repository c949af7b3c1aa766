package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamlabs/recall-go/pkg/storage"
	sqliteStore "github.com/loamlabs/recall-go/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) storage.EntryStore {
	t.Helper()

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "recall_test.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSQLiteClient_WriteAndReadAll(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Write(ctx, &storage.Entry{
		ID:         "1",
		OwnerID:    "test_user",
		Text:       "I love drinking coffee every morning",
		Topics:     []string{"preferences", "food"},
		Confidence: 1.0,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	_, err = store.Write(ctx, &storage.Entry{
		ID:         "2",
		OwnerID:    "other_user",
		Text:       "not visible to test_user",
		Topics:     []string{"general"},
		Confidence: 1.0,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, "I love drinking coffee every morning", entries[0].Text)
	assert.Equal(t, []string{"preferences", "food"}, entries[0].Topics)
	assert.Equal(t, 1.0, entries[0].Confidence)
}

func TestSQLiteClient_WriteUpserts(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Write(ctx, &storage.Entry{
		ID: "1", OwnerID: "test_user", Text: "original",
		Topics: []string{"general"}, Confidence: 1.0,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = store.Write(ctx, &storage.Entry{
		ID: "1", OwnerID: "test_user", Text: "updated",
		Topics: []string{"work"}, Confidence: 0.9,
		CreatedAt: now, UpdatedAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "updated", entries[0].Text)
	assert.Equal(t, []string{"work"}, entries[0].Topics)
	assert.Equal(t, 0.9, entries[0].Confidence)
}

func TestSQLiteClient_Delete(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Write(ctx, &storage.Entry{
		ID: "1", OwnerID: "test_user", Text: "to delete",
		Topics: []string{"general"}, Confidence: 1.0,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted)

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteClient_ProxyFields(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Write(ctx, &storage.Entry{
		ID: "1", OwnerID: "test_user", Text: "booked by the travel agent",
		Topics: []string{"general"}, Confidence: 0.8,
		IsProxy: true, ProxyAgent: "travel_agent",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsProxy)
	assert.Equal(t, "travel_agent", entries[0].ProxyAgent)
}

func TestSQLiteClient_ZeroConfidenceRoundTrip(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Write(ctx, &storage.Entry{
		ID: "1", OwnerID: "test_user", Text: "entirely uncertain fact",
		Topics: []string{"general"}, Confidence: 0.0,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].Confidence,
		"explicit zero confidence must round-trip")
}

func TestSQLiteClient_OrderedByCreation(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"c", "a", "b"} {
		_, err := store.Write(ctx, &storage.Entry{
			ID: id, OwnerID: "test_user", Text: "entry " + id,
			Topics: []string{"general"}, Confidence: 1.0,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := store.ReadAll(ctx, "test_user")
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
	assert.Equal(t, "b", entries[2].ID)
}
