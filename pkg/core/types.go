package core

import (
	"encoding/json"
	"time"
)

// MemoryEntry represents a single persisted fact with metadata.
//
// An entry contains:
//   - Text: the memory content, bounded length
//   - Topics: topic labels, always a non-empty list
//   - Confidence: how certain the system is about the fact (0.0-1.0)
//   - Provenance: whether a delegated agent produced it (proxy memory)
//
// Entries are created exclusively by the Manager after passing admission
// control; callers never construct or mutate entries directly.
type MemoryEntry struct {
	// ID is the opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// OwnerID identifies the user/namespace; all operations are scoped by it.
	OwnerID string `json:"owner_id"`

	// Text is the memory content.
	Text string `json:"text"`

	// Topics is the ordered set of topic labels. Never empty; defaults to
	// ["general"].
	Topics []string `json:"topics"`

	// Confidence is a float in [0.0, 1.0]. 1.0 means asserted directly by the
	// user, lower values mean inferred or uncertain.
	Confidence float64 `json:"confidence"`

	// IsProxy is true if a delegated agent (not the primary conversational
	// agent) produced this entry.
	IsProxy bool `json:"is_proxy,omitempty"`

	// ProxyAgent names the producing agent when IsProxy is true.
	ProxyAgent string `json:"proxy_agent,omitempty"`

	// CreatedAt is when the entry was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on any mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes an entry while tolerating records produced by an
// older schema that lacked confidence, proxy, or topic fields. Defaults:
// confidence 1.0, is_proxy false, topics ["general"].
func (e *MemoryEntry) UnmarshalJSON(data []byte) error {
	type alias MemoryEntry
	shadow := struct {
		Confidence *float64 `json:"confidence"`
		*alias
	}{
		alias: (*alias)(e),
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	if shadow.Confidence != nil {
		e.Confidence = *shadow.Confidence
	} else {
		e.Confidence = 1.0
	}
	if len(e.Topics) == 0 {
		e.Topics = []string{"general"}
	}
	return nil
}

// StorageStatus identifies the outcome of an admission-controlled write.
type StorageStatus string

const (
	// StatusSuccess means the entry was stored.
	StatusSuccess StorageStatus = "success"

	// StatusDuplicateExact means the text already exists verbatim (after
	// normalization) for this owner. A designed no-op, not an error.
	StatusDuplicateExact StorageStatus = "duplicate_exact"

	// StatusDuplicateSemantic means the text scored at or above the
	// similarity threshold against an existing entry. A designed no-op.
	StatusDuplicateSemantic StorageStatus = "duplicate_semantic"

	// StatusContentEmpty means the text was empty after trimming.
	StatusContentEmpty StorageStatus = "content_empty"

	// StatusContentTooLong means the text exceeded the configured maximum.
	StatusContentTooLong StorageStatus = "content_too_long"

	// StatusStorageError means the persistence layer failed; the caller
	// decides whether to retry.
	StatusStorageError StorageStatus = "storage_error"
)

// StorageResult is the tagged result of an admission-controlled write.
//
// Expected conditions (duplicates, validation failures) are reported as
// statuses with an explanatory message, never as errors. The surrounding
// agent runtime is expected to translate rejection statuses into a calm
// confirmation rather than an error banner.
type StorageResult struct {
	// Status is the outcome of the operation.
	Status StorageStatus `json:"status"`

	// Message is a human-readable explanation of the outcome.
	Message string `json:"message"`

	// Entry is the stored entry on StatusSuccess, nil otherwise.
	Entry *MemoryEntry `json:"entry,omitempty"`

	// ConflictID is the ID of the conflicting entry for duplicate statuses.
	ConflictID string `json:"conflict_id,omitempty"`

	// Score is the similarity score for StatusDuplicateSemantic.
	Score float64 `json:"score,omitempty"`

	// Err carries the underlying cause for StatusStorageError.
	Err error `json:"-"`
}

// OK reports whether the entry was stored.
func (r *StorageResult) OK() bool {
	return r.Status == StatusSuccess
}

// Rejected reports whether admission control turned the write into a no-op
// (duplicate detected). Validation and storage failures are not rejections.
func (r *StorageResult) Rejected() bool {
	return r.Status == StatusDuplicateExact || r.Status == StatusDuplicateSemantic
}

// SearchMatch pairs an entry with its similarity score for ranked search
// results.
type SearchMatch struct {
	// Entry is the matching memory entry.
	Entry *MemoryEntry `json:"entry"`

	// Score is the blended similarity score, plus any topic boost.
	Score float64 `json:"score"`
}

// Stats summarizes one owner's stored memories.
type Stats struct {
	// Total is the number of stored entries.
	Total int `json:"total"`

	// TopicDistribution counts entries per topic label. An entry with
	// multiple topics counts once per label.
	TopicDistribution map[string]int `json:"topic_distribution"`

	// DuplicateRejections is the number of admission rejections observed for
	// this owner since the Manager was constructed. It is an in-process
	// counter, not persisted.
	DuplicateRejections int64 `json:"duplicate_rejections_seen"`
}
