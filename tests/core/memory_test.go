package core_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamlabs/recall-go/pkg/core"
	memstore "github.com/loamlabs/recall-go/pkg/storage/memory"
)

func newTestManager(t *testing.T) *core.Manager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager, err := core.NewManager(core.DefaultConfig(), memstore.NewStore(), core.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return manager
}

func TestNewManagerRequiresStore(t *testing.T) {
	_, err := core.NewManager(core.DefaultConfig(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.SemanticThreshold = 1.5

	_, err := core.NewManager(cfg, memstore.NewStore())

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestAddStoresEntryWithClassifiedTopics(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "My name is Eric and I work as a software engineer.", "user_001")

	require.True(t, result.OK(), "unexpected status %s: %s", result.Status, result.Message)
	require.NotNil(t, result.Entry)
	assert.NotEmpty(t, result.Entry.ID)
	assert.Equal(t, "user_001", result.Entry.OwnerID)
	assert.Contains(t, result.Entry.Topics, "personal_info")
	assert.Contains(t, result.Entry.Topics, "work")
	assert.Equal(t, 1.0, result.Entry.Confidence)
	assert.False(t, result.Entry.CreatedAt.IsZero())
}

func TestAddMergesCallerTopics(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "Standup is at 9am every day", "user_001",
		core.WithTopics("Projects", "projects"))

	require.True(t, result.OK())
	assert.Equal(t, "projects", result.Entry.Topics[0], "caller topics come first, lower-cased and deduplicated")
	assert.Contains(t, result.Entry.Topics, "schedule")
}

func TestAddRejectsExactDuplicate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	first := manager.Add(ctx, "I love pizza with extra cheese", "user_001")
	require.True(t, first.OK())

	second := manager.Add(ctx, "  i LOVE   pizza with extra cheese ", "user_001")

	assert.Equal(t, core.StatusDuplicateExact, second.Status)
	assert.True(t, second.Rejected())
	assert.Equal(t, first.Entry.ID, second.ConflictID)
	assert.Nil(t, second.Entry)

	// The rejection is a no-op: only the first entry is stored.
	entries, err := manager.ListAll(ctx, "user_001")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAddRejectsSemanticDuplicate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	first := manager.Add(ctx, "I love drinking coffee every morning", "user_001")
	require.True(t, first.OK())

	second := manager.Add(ctx, "I love drinking coffee in the morning", "user_001")

	assert.Equal(t, core.StatusDuplicateSemantic, second.Status)
	assert.True(t, second.Rejected())
	assert.Equal(t, first.Entry.ID, second.ConflictID)
	assert.Greater(t, second.Score, 0.65)
	assert.Contains(t, second.Message, "similar")
}

func TestAddValidation(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		result := manager.Add(ctx, "   \t ", "user_001")
		assert.Equal(t, core.StatusContentEmpty, result.Status)
		assert.False(t, result.Rejected())
	})

	t.Run("content too long", func(t *testing.T) {
		result := manager.Add(ctx, strings.Repeat("x", 501), "user_001")
		assert.Equal(t, core.StatusContentTooLong, result.Status)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		result := manager.Add(ctx, "a valid fact", "user_001", core.WithConfidence(1.5))
		assert.Equal(t, core.StatusStorageError, result.Status)
		assert.ErrorIs(t, result.Err, core.ErrInvalidConfidence)
	})

	t.Run("missing owner", func(t *testing.T) {
		result := manager.Add(ctx, "a valid fact", "")
		assert.Equal(t, core.StatusStorageError, result.Status)
		assert.ErrorIs(t, result.Err, core.ErrInvalidOwner)
	})
}

func TestAddZeroConfidenceRoundTrips(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "entirely uncertain fact", "user_001", core.WithConfidence(0))
	require.True(t, result.OK())
	assert.Equal(t, 0.0, result.Entry.Confidence)

	entries, err := manager.ListAll(ctx, "user_001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].Confidence,
		"explicit zero confidence must survive the read path")
}

func TestAddUnlimitedContentLength(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.MaxContentLength = -1

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager, err := core.NewManager(cfg, memstore.NewStore(), core.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	result := manager.Add(context.Background(), strings.Repeat("x", 10_000), "user_001")

	assert.True(t, result.OK(), "a negative limit disables the length check")
}

func TestAddProxyMemory(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "Prefers aisle seats on long flights", "user_001",
		core.WithProxyAgent("travel_agent"), core.WithConfidence(0.8))

	require.True(t, result.OK())
	assert.True(t, result.Entry.IsProxy)
	assert.Equal(t, "travel_agent", result.Entry.ProxyAgent)
	assert.Equal(t, 0.8, result.Entry.Confidence)
}

func TestSearchRanksByBlendedSimilarity(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "I love drinking coffee every morning", "user_001").OK())
	require.True(t, manager.Add(ctx, "My name is Eric and I work as a software engineer.", "user_001").OK())

	matches, err := manager.Search(ctx, "coffee in the morning", "user_001")

	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Entry.Text, "coffee")
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score)
	}
}

func TestSearchRespectsThresholdAndLimit(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "I love drinking coffee every morning", "user_001").OK())
	require.True(t, manager.Add(ctx, "The quarterly report is due on Friday", "user_001").OK())

	// An impossible threshold drops everything.
	matches, err := manager.Search(ctx, "coffee", "user_001", core.WithThreshold(0.99))
	require.NoError(t, err)
	assert.Empty(t, matches)

	// A permissive threshold with a limit of one keeps only the best.
	matches, err = manager.Search(ctx, "coffee in the morning", "user_001",
		core.WithThreshold(0.01), core.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Entry.Text, "coffee")
}

func TestSearchTopicBoost(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "I love drinking coffee every morning", "user_001",
		core.WithTopics("coffee")).OK())

	plain, err := manager.Search(ctx, "coffee in the morning", "user_001")
	require.NoError(t, err)
	require.Len(t, plain, 1)

	boosted, err := manager.Search(ctx, "coffee in the morning", "user_001",
		core.WithTopicBoost(0.2))
	require.NoError(t, err)
	require.Len(t, boosted, 1)

	assert.InDelta(t, plain[0].Score+0.2, boosted[0].Score, 1e-9)
}

func TestOwnerScoping(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "I love drinking coffee every morning", "alice")
	require.True(t, result.OK())

	// Bob sees nothing of Alice's.
	entries, err := manager.ListAll(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, entries)

	matches, err := manager.Search(ctx, "coffee", "bob")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Bob can store the same text without a duplicate verdict.
	bobResult := manager.Add(ctx, "I love drinking coffee every morning", "bob")
	assert.True(t, bobResult.OK())

	// Bob cannot delete Alice's entry, even with a valid ID.
	deleted, err := manager.Delete(ctx, result.Entry.ID, "bob")
	require.NoError(t, err)
	assert.False(t, deleted)

	aliceEntries, err := manager.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceEntries, 1)
}

func TestDelete(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "delete me later", "user_001")
	require.True(t, result.OK())

	deleted, err := manager.Delete(ctx, result.Entry.ID, "user_001")
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again reports false, not an error.
	deleted, err = manager.Delete(ctx, result.Entry.ID, "user_001")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListByTopicAndDeleteByTopic(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "I love drinking coffee every morning", "user_001").OK())
	require.True(t, manager.Add(ctx, "My sister lives in Portland", "user_001").OK())
	require.True(t, manager.Add(ctx, "Standup is at 9am every day", "user_001").OK())

	food, err := manager.ListByTopic(ctx, "user_001", "food")
	require.NoError(t, err)
	require.Len(t, food, 1)
	assert.Contains(t, food[0].Text, "coffee")

	// Topic labels are normalized before matching.
	foodUpper, err := manager.ListByTopic(ctx, "user_001", "  FOOD ")
	require.NoError(t, err)
	assert.Len(t, foodUpper, 1)

	removed, err := manager.DeleteByTopic(ctx, "user_001", "food")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := manager.ListAll(ctx, "user_001")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestDeleteAll(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "first fact", "user_001").OK())
	require.True(t, manager.Add(ctx, "second fact entirely different", "user_001").OK())
	require.True(t, manager.Add(ctx, "belongs to someone else", "user_002").OK())

	removed, err := manager.DeleteAll(ctx, "user_001")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	other, err := manager.ListAll(ctx, "user_002")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestStats(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.True(t, manager.Add(ctx, "I love drinking coffee every morning", "user_001").OK())
	require.True(t, manager.Add(ctx, "My name is Eric and I work as a software engineer.", "user_001").OK())

	// One rejected duplicate.
	dup := manager.Add(ctx, "I love drinking coffee every morning", "user_001")
	require.True(t, dup.Rejected())

	stats, err := manager.Stats(ctx, "user_001")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, int64(1), stats.DuplicateRejections)
	assert.GreaterOrEqual(t, stats.TopicDistribution["preferences"], 1)
	assert.GreaterOrEqual(t, stats.TopicDistribution["work"], 1)
}

func TestUpdateText(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "I love drinking coffee every morning", "user_001")
	require.True(t, result.OK())

	updated := manager.Update(ctx, result.Entry.ID, "user_001",
		core.WithUpdatedText("My name is Eric and I work as a software engineer."))

	require.True(t, updated.OK())
	assert.Contains(t, updated.Entry.Topics, "work")
	assert.NotContains(t, updated.Entry.Topics, "food", "topics are re-classified from the new text")
	assert.False(t, updated.Entry.UpdatedAt.Before(result.Entry.UpdatedAt))
}

func TestUpdateConfidence(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	result := manager.Add(ctx, "Probably lives near the office", "user_001")
	require.True(t, result.OK())

	updated := manager.Update(ctx, result.Entry.ID, "user_001", core.WithUpdatedConfidence(0.4))

	require.True(t, updated.OK())
	assert.Equal(t, 0.4, updated.Entry.Confidence)
	assert.Equal(t, result.Entry.Text, updated.Entry.Text)
}

func TestUpdateNotFound(t *testing.T) {
	manager := newTestManager(t)

	result := manager.Update(context.Background(), "missing-id", "user_001",
		core.WithUpdatedConfidence(0.5))

	assert.Equal(t, core.StatusStorageError, result.Status)
	assert.True(t, errors.Is(result.Err, core.ErrNotFound))
}

func TestOperationsRequireOwner(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	_, err := manager.ListAll(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidOwner)

	_, err = manager.Search(ctx, "anything", "")
	assert.ErrorIs(t, err, core.ErrInvalidOwner)

	_, err = manager.Delete(ctx, "id", "")
	assert.ErrorIs(t, err, core.ErrInvalidOwner)

	_, err = manager.Stats(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidOwner)
}

func TestConcurrentAddAdmitsOnlyOneDuplicate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	const workers = 8
	results := make(chan *core.StorageResult, workers)
	for i := 0; i < workers; i++ {
		go func() {
			results <- manager.Add(ctx, "I love drinking coffee every morning", "user_001")
		}()
	}

	stored := 0
	for i := 0; i < workers; i++ {
		if r := <-results; r.OK() {
			stored++
		}
	}

	assert.Equal(t, 1, stored, "per-owner serialization must admit exactly one copy")

	entries, err := manager.ListAll(ctx, "user_001")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
