package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/loamlabs/recall-go/pkg/intelligence"
	"github.com/loamlabs/recall-go/pkg/storage"
)

// Manager is the semantic memory manager.
//
// It orchestrates admission control, storage, search, and statistics over
// memory entries:
//   - Add runs validation and duplicate detection before persisting
//   - Search ranks entries by the same blended similarity used for dedup
//   - Stats reports totals, topic distribution, and rejection counts
//
// The Manager exclusively owns entry lifecycle; callers never construct or
// mutate entries directly. All operations are scoped strictly to an owner ID.
//
// Mutating calls for the same owner are serialized with a per-owner mutex,
// closing the read-check/insert race that would otherwise admit duplicates
// under concurrent Add calls. The Manager is safe for concurrent use.
//
// Example:
//
//	manager, _ := core.NewManager(core.DefaultConfig(), memstore.NewStore())
//	result := manager.Add(ctx, "I work as a software engineer", "user_001")
//	if result.OK() {
//	    fmt.Println("stored", result.Entry.ID, result.Entry.Topics)
//	}
type Manager struct {
	// cfg is the immutable engine configuration.
	cfg Config

	// store is the injected persistence dependency.
	store storage.EntryStore

	// topics classifies entry text into topic labels.
	topics *intelligence.TopicClassifier

	// dedup gates admission of candidate memories.
	dedup *intelligence.DuplicateDetector

	// intent decides fast-path eligibility for user queries.
	intent *intelligence.IntentClassifier

	// node generates unique entry IDs.
	node *snowflake.Node

	// logger receives structured operational events.
	logger *slog.Logger

	// ownerMu guards owners.
	ownerMu sync.Mutex

	// owners holds one mutex per owner ID to serialize mutating calls.
	owners map[string]*sync.Mutex

	// rejMu guards rejections.
	rejMu sync.Mutex

	// rejections counts duplicate-admission rejections per owner.
	rejections map[string]int64
}

// ManagerOption configures a Manager at construction.
type ManagerOption func(*Manager)

// WithLogger sets the structured logger used for operational events.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a semantic memory manager.
//
// Parameters:
//   - cfg: engine configuration (thresholds, content limits, fast-path
//     confidence). Zero fields fall back to documented defaults.
//   - store: injected persistence dependency. The core never assumes a
//     specific storage engine.
//   - opts: optional Manager options (WithLogger)
//
// Returns a new Manager, or an error if the configuration is invalid.
func NewManager(cfg Config, store storage.EntryStore, opts ...ManagerOption) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, NewMemoryError("NewManager", fmt.Errorf("%w: store is nil", ErrInvalidConfig))
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewManager", err)
	}

	m := &Manager{
		cfg:        cfg,
		store:      store,
		topics:     intelligence.NewTopicClassifier(),
		dedup:      intelligence.NewDuplicateDetector(cfg.SemanticThreshold, cfg.PreferenceThreshold),
		intent:     intelligence.NewIntentClassifierWithConfidence(cfg.FastPathConfidence),
		node:       node,
		owners:     make(map[string]*sync.Mutex),
		rejections: make(map[string]int64),
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m, nil
}

// Config returns the configuration the Manager was constructed with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Add stores a new fact for ownerID after admission control.
//
// The pipeline:
//  1. Validate: empty text is rejected with StatusContentEmpty, text over the
//     configured maximum with StatusContentTooLong, confidence outside
//     [0.0, 1.0] with StatusStorageError. Validation runs before any
//     similarity work.
//  2. Duplicate check: the candidate is compared against every existing entry
//     of the owner. Exact duplicates (normalized text equality) and semantic
//     duplicates (blended similarity at or above the adaptive threshold)
//     become no-op results carrying the conflicting ID and score.
//  3. Topics: the text is auto-classified; caller-supplied topics are merged
//     first, deduplicated, order-preserving.
//  4. Persist: the entry is written through the injected store.
//
// Expected conditions are reported as statuses, never as errors; the caller
// can translate rejections into a calm confirmation.
func (m *Manager) Add(ctx context.Context, text, ownerID string, opts ...AddOption) *StorageResult {
	if ownerID == "" {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "owner id is required",
			Err:     ErrInvalidOwner,
		}
	}

	options := applyAddOptions(opts)

	trimmed := normalizeContent(text)
	if trimmed == "" {
		return &StorageResult{
			Status:  StatusContentEmpty,
			Message: "memory content is empty",
		}
	}
	if m.cfg.MaxContentLength > 0 && len([]rune(trimmed)) > m.cfg.MaxContentLength {
		return &StorageResult{
			Status: StatusContentTooLong,
			Message: fmt.Sprintf("memory content exceeds %d characters (%d)",
				m.cfg.MaxContentLength, len([]rune(trimmed))),
		}
	}
	if options.Confidence < 0 || options.Confidence > 1 {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: fmt.Sprintf("confidence %v out of range", options.Confidence),
			Err:     ErrInvalidConfidence,
		}
	}

	unlock := m.lockOwner(ownerID)
	defer unlock()

	existing, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		m.logger.Warn("memory read failed", "owner", ownerID, "err", err)
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "failed to read existing memories",
			Err:     NewMemoryError("Add", err),
		}
	}

	verdict := m.dedup.Check(trimmed, existingTexts(existing))
	switch verdict.Kind {
	case intelligence.VerdictExactDuplicate:
		m.countRejection(ownerID)
		m.logger.Debug("memory rejected", "owner", ownerID, "verdict", verdict.Kind.String(), "conflict", verdict.OfID)
		return &StorageResult{
			Status:     StatusDuplicateExact,
			Message:    "an identical memory is already stored",
			ConflictID: verdict.OfID,
			Score:      verdict.Score,
		}
	case intelligence.VerdictSemanticDuplicate:
		m.countRejection(ownerID)
		m.logger.Debug("memory rejected", "owner", ownerID, "verdict", verdict.Kind.String(),
			"conflict", verdict.OfID, "score", verdict.Score)
		return &StorageResult{
			Status:     StatusDuplicateSemantic,
			Message:    fmt.Sprintf("a very similar memory is already stored (similarity %.2f)", verdict.Score),
			ConflictID: verdict.OfID,
			Score:      verdict.Score,
		}
	}

	topics := NormalizeTopics(append(append([]string{}, options.Topics...), m.topics.Classify(trimmed)...))

	now := time.Now()
	entry := &MemoryEntry{
		ID:         m.node.Generate().String(),
		OwnerID:    ownerID,
		Text:       trimmed,
		Topics:     topics,
		Confidence: options.Confidence,
		IsProxy:    options.IsProxy,
		ProxyAgent: options.ProxyAgent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := m.store.Write(ctx, toStorageEntry(entry)); err != nil {
		m.logger.Warn("memory write failed", "owner", ownerID, "err", err)
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "failed to persist memory",
			Err:     NewMemoryError("Add", err),
		}
	}

	m.logger.Debug("memory stored", "owner", ownerID, "id", entry.ID, "topics", topics)
	return &StorageResult{
		Status:  StatusSuccess,
		Message: "memory stored",
		Entry:   entry,
	}
}

// Update modifies an existing entry's text and/or confidence.
//
// UpdatedAt is refreshed; when the text changes the topics are re-classified.
// The text is re-validated against the content limits, and confidence against
// its range. Updates bypass duplicate admission: an explicit update is a
// deliberate correction, not a new candidate fact.
func (m *Manager) Update(ctx context.Context, id, ownerID string, opts ...UpdateOption) *StorageResult {
	if ownerID == "" {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "owner id is required",
			Err:     ErrInvalidOwner,
		}
	}

	options := applyUpdateOptions(opts)

	unlock := m.lockOwner(ownerID)
	defer unlock()

	existing, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "failed to read existing memories",
			Err:     NewMemoryError("Update", err),
		}
	}

	var target *storage.Entry
	for _, e := range existing {
		if e.ID == id {
			target = e
			break
		}
	}
	if target == nil {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "memory entry not found",
			Err:     NewMemoryError("Update", ErrNotFound),
		}
	}

	entry := fromStorageEntry(target)

	if options.Text != nil {
		trimmed := normalizeContent(*options.Text)
		if trimmed == "" {
			return &StorageResult{Status: StatusContentEmpty, Message: "memory content is empty"}
		}
		if m.cfg.MaxContentLength > 0 && len([]rune(trimmed)) > m.cfg.MaxContentLength {
			return &StorageResult{
				Status: StatusContentTooLong,
				Message: fmt.Sprintf("memory content exceeds %d characters (%d)",
					m.cfg.MaxContentLength, len([]rune(trimmed))),
			}
		}
		entry.Text = trimmed
		entry.Topics = NormalizeTopics(m.topics.Classify(trimmed))
	}
	if options.Confidence != nil {
		if *options.Confidence < 0 || *options.Confidence > 1 {
			return &StorageResult{
				Status:  StatusStorageError,
				Message: fmt.Sprintf("confidence %v out of range", *options.Confidence),
				Err:     ErrInvalidConfidence,
			}
		}
		entry.Confidence = *options.Confidence
	}

	entry.UpdatedAt = time.Now()

	if _, err := m.store.Write(ctx, toStorageEntry(entry)); err != nil {
		return &StorageResult{
			Status:  StatusStorageError,
			Message: "failed to persist memory",
			Err:     NewMemoryError("Update", err),
		}
	}

	return &StorageResult{
		Status:  StatusSuccess,
		Message: "memory updated",
		Entry:   entry,
	}
}

// Search returns the owner's entries ranked by blended similarity to query,
// descending. Entries scoring below the threshold are dropped. When a topic
// boost is configured, entries whose topic labels appear in the query receive
// the additive bonus before ranking.
func (m *Manager) Search(ctx context.Context, query, ownerID string, opts ...SearchOption) ([]SearchMatch, error) {
	if ownerID == "" {
		return nil, NewMemoryError("Search", ErrInvalidOwner)
	}

	options := applySearchOptions(opts)

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}

	queryTerms := intelligence.KeyTerms(intelligence.NormalizeText(query))

	var matches []SearchMatch
	for _, e := range entries {
		score := intelligence.BlendedSimilarity(query, e.Text)
		if options.TopicBoost > 0 && topicInQuery(e.Topics, queryTerms) {
			score += options.TopicBoost
		}
		if score < options.Threshold {
			continue
		}
		matches = append(matches, SearchMatch{Entry: fromStorageEntry(e), Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if options.Limit > 0 && len(matches) > options.Limit {
		matches = matches[:options.Limit]
	}

	return matches, nil
}

// ListAll returns every entry belonging to ownerID, oldest first.
func (m *Manager) ListAll(ctx context.Context, ownerID string) ([]*MemoryEntry, error) {
	if ownerID == "" {
		return nil, NewMemoryError("ListAll", ErrInvalidOwner)
	}

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return nil, NewMemoryError("ListAll", err)
	}

	return fromStorageEntries(entries), nil
}

// ListByTopic returns the owner's entries tagged with any of the given
// topics.
func (m *Manager) ListByTopic(ctx context.Context, ownerID string, topics ...string) ([]*MemoryEntry, error) {
	if ownerID == "" {
		return nil, NewMemoryError("ListByTopic", ErrInvalidOwner)
	}

	wanted := make(map[string]struct{})
	for _, t := range NormalizeTopics(topics) {
		wanted[t] = struct{}{}
	}

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return nil, NewMemoryError("ListByTopic", err)
	}

	var out []*MemoryEntry
	for _, e := range entries {
		for _, label := range e.Topics {
			if _, ok := wanted[label]; ok {
				out = append(out, fromStorageEntry(e))
				break
			}
		}
	}

	return out, nil
}

// Delete removes a single entry by ID, scoped to ownerID.
//
// Returns true if the entry existed and was removed. Entries belonging to a
// different owner are invisible: deleting them returns false rather than
// leaking across owners.
func (m *Manager) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	if ownerID == "" {
		return false, NewMemoryError("Delete", ErrInvalidOwner)
	}

	unlock := m.lockOwner(ownerID)
	defer unlock()

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return false, NewMemoryError("Delete", err)
	}

	owned := false
	for _, e := range entries {
		if e.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		return false, nil
	}

	deleted, err := m.store.Delete(ctx, id)
	if err != nil {
		return false, NewMemoryError("Delete", err)
	}
	return deleted, nil
}

// DeleteByTopic removes every entry of the owner tagged with any of the given
// topics. Returns the number of entries removed.
func (m *Manager) DeleteByTopic(ctx context.Context, ownerID string, topics ...string) (int, error) {
	if ownerID == "" {
		return 0, NewMemoryError("DeleteByTopic", ErrInvalidOwner)
	}

	matching, err := m.ListByTopic(ctx, ownerID, topics...)
	if err != nil {
		return 0, err
	}

	unlock := m.lockOwner(ownerID)
	defer unlock()

	count := 0
	for _, e := range matching {
		deleted, err := m.store.Delete(ctx, e.ID)
		if err != nil {
			return count, NewMemoryError("DeleteByTopic", err)
		}
		if deleted {
			count++
		}
	}

	return count, nil
}

// DeleteAll removes every entry belonging to ownerID. Returns the number of
// entries removed.
func (m *Manager) DeleteAll(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, NewMemoryError("DeleteAll", ErrInvalidOwner)
	}

	unlock := m.lockOwner(ownerID)
	defer unlock()

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return 0, NewMemoryError("DeleteAll", err)
	}

	count := 0
	for _, e := range entries {
		deleted, err := m.store.Delete(ctx, e.ID)
		if err != nil {
			return count, NewMemoryError("DeleteAll", err)
		}
		if deleted {
			count++
		}
	}

	return count, nil
}

// Stats summarizes the owner's stored memories: total count, entries per
// topic label, and the number of duplicate-admission rejections seen by this
// Manager instance.
func (m *Manager) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	if ownerID == "" {
		return nil, NewMemoryError("Stats", ErrInvalidOwner)
	}

	entries, err := m.store.ReadAll(ctx, ownerID)
	if err != nil {
		return nil, NewMemoryError("Stats", err)
	}

	distribution := make(map[string]int)
	for _, e := range entries {
		for _, label := range NormalizeTopics(e.Topics) {
			distribution[label]++
		}
	}

	m.rejMu.Lock()
	rejections := m.rejections[ownerID]
	m.rejMu.Unlock()

	return &Stats{
		Total:               len(entries),
		TopicDistribution:   distribution,
		DuplicateRejections: rejections,
	}, nil
}

// ClassifyQuery classifies a user query's intent for fast-path routing.
func (m *Manager) ClassifyQuery(query string) intelligence.Classification {
	return m.intent.Classify(query)
}

// ShouldUseFastPath reports whether query can be served directly from the
// memory store without full agent inference.
func (m *Manager) ShouldUseFastPath(query string) bool {
	return m.intent.ShouldUseFastPath(query)
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// lockOwner serializes mutating calls per owner and returns the unlock
// function. Closes the duplicate-check/insert race under concurrent Add.
func (m *Manager) lockOwner(ownerID string) func() {
	m.ownerMu.Lock()
	mu, ok := m.owners[ownerID]
	if !ok {
		mu = &sync.Mutex{}
		m.owners[ownerID] = mu
	}
	m.ownerMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// countRejection increments the owner's duplicate-rejection counter.
func (m *Manager) countRejection(ownerID string) {
	m.rejMu.Lock()
	m.rejections[ownerID]++
	m.rejMu.Unlock()
}

// normalizeContent trims surrounding whitespace from candidate text. Internal
// whitespace is preserved; normalization for comparison happens in the
// intelligence package.
func normalizeContent(text string) string {
	return strings.TrimSpace(text)
}

// existingTexts projects stored entries into the detector's view.
func existingTexts(entries []*storage.Entry) []intelligence.ExistingText {
	out := make([]intelligence.ExistingText, len(entries))
	for i, e := range entries {
		out[i] = intelligence.ExistingText{ID: e.ID, Text: e.Text}
	}
	return out
}

// topicInQuery reports whether any topic label appears among the query terms.
func topicInQuery(topics []string, queryTerms map[string]struct{}) bool {
	for _, label := range topics {
		if _, ok := queryTerms[label]; ok {
			return true
		}
	}
	return false
}
