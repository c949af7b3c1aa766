// Package storage provides interfaces and types for memory persistence backends.
//
// It defines the EntryStore interface that all persistence implementations must
// satisfy, along with the persisted entry record and decoding helpers shared by
// the SQL backends.
package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Entry is the persisted representation of a memory.
//
// This type is defined in the storage package to avoid circular dependencies
// with the core package. It mirrors the core.MemoryEntry structure.
type Entry struct {
	// ID is the unique identifier of the entry.
	ID string

	// OwnerID identifies the user/namespace that owns this entry.
	// All store operations are scoped by it.
	OwnerID string

	// Text is the memory content.
	Text string

	// Topics is the list of topic labels. Always a list, never empty.
	Topics []string

	// Confidence is how certain the system is about this memory (0.0-1.0).
	// 1.0 means asserted directly by the user.
	Confidence float64

	// IsProxy is true when a delegated agent produced this entry.
	IsProxy bool

	// ProxyAgent names the producing agent when IsProxy is true.
	ProxyAgent string

	// CreatedAt is when the entry was created.
	CreatedAt time.Time

	// UpdatedAt is when the entry was last modified.
	UpdatedAt time.Time
}

// ApplyDefaults fills in fields that rows written by an older schema may lack.
//
// Older rows can miss topics or proxy fields entirely. Defaults:
//   - Topics: ["general"]
//   - ProxyAgent: cleared unless IsProxy is set
//
// Confidence is deliberately not defaulted here: 0.0 is a legitimate stored
// value and must round-trip exactly. Backends that can observe a missing
// column (NULL) apply the 1.0 default at scan time, where absence and zero
// are still distinguishable.
//
// Backends call this after scanning every row so that callers always observe
// a fully-populated entry regardless of schema age.
func (e *Entry) ApplyDefaults() {
	if len(e.Topics) == 0 {
		e.Topics = []string{"general"}
	}
	if !e.IsProxy {
		e.ProxyAgent = ""
	}
}

// DecodeTopics decodes a stored topics column into a list of labels.
//
// The source system historically stored topics inconsistently: sometimes a
// JSON array, sometimes a bare string, sometimes a comma-joined string. This
// helper accepts all three forms and always returns a list, enforcing the
// list invariant at the read boundary.
func DecodeTopics(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"general"}
	}

	// Preferred form: JSON array of strings.
	if strings.HasPrefix(raw, "[") {
		var topics []string
		if err := json.Unmarshal([]byte(raw), &topics); err == nil {
			return normalizeTopicList(topics)
		}
	}

	// Legacy form: JSON-quoted single string.
	if strings.HasPrefix(raw, "\"") {
		var topic string
		if err := json.Unmarshal([]byte(raw), &topic); err == nil {
			return normalizeTopicList(strings.Split(topic, ","))
		}
	}

	// Legacy form: bare (possibly comma-joined) string.
	return normalizeTopicList(strings.Split(raw, ","))
}

// EncodeTopics encodes a topic list as a JSON array for storage.
func EncodeTopics(topics []string) string {
	topics = normalizeTopicList(topics)
	data, err := json.Marshal(topics)
	if err != nil {
		return `["general"]`
	}
	return string(data)
}

// normalizeTopicList trims entries, drops empties, and falls back to
// ["general"] when nothing survives.
func normalizeTopicList(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{"general"}
	}
	return out
}

// EntryStore defines the interface for memory persistence backends.
//
// All persistence implementations (in-memory, SQLite, PostgreSQL, MySQL) must
// implement this interface. The core never assumes a specific storage engine.
//
// The interface does not serialize writes per owner; callers that need strict
// duplicate-admission correctness under concurrency must serialize mutating
// calls themselves (core.Manager does this with a per-owner mutex).
type EntryStore interface {
	// ReadAll returns every entry belonging to ownerID.
	ReadAll(ctx context.Context, ownerID string) ([]*Entry, error)

	// Write persists an entry and returns its ID.
	//
	// If an entry with the same ID already exists it is replaced (upsert),
	// which is how explicit updates reach the store.
	Write(ctx context.Context, entry *Entry) (string, error)

	// Delete removes an entry by ID.
	//
	// Returns true if an entry was removed, false if no entry with that ID
	// existed. The error is reserved for backend failures.
	Delete(ctx context.Context, id string) (bool, error)

	// Close closes the store and releases resources.
	Close() error
}
