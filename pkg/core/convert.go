package core

import (
	"strings"

	"github.com/loamlabs/recall-go/pkg/storage"
)

// NormalizeTopics enforces the topic-list invariant at every write boundary:
// labels are trimmed, lower-cased, deduplicated (order-preserving), and an
// empty result falls back to ["general"].
//
// The source system stored topics inconsistently as strings vs lists across
// call sites; this is the single normalization function that replaces that.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{"general"}
	}
	return out
}

// toStorageEntry converts a core entry to its persisted representation.
func toStorageEntry(e *MemoryEntry) *storage.Entry {
	return &storage.Entry{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		Text:       e.Text,
		Topics:     NormalizeTopics(e.Topics),
		Confidence: e.Confidence,
		IsProxy:    e.IsProxy,
		ProxyAgent: e.ProxyAgent,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// fromStorageEntry converts a persisted entry to the core representation.
func fromStorageEntry(e *storage.Entry) *MemoryEntry {
	return &MemoryEntry{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		Text:       e.Text,
		Topics:     NormalizeTopics(e.Topics),
		Confidence: e.Confidence,
		IsProxy:    e.IsProxy,
		ProxyAgent: e.ProxyAgent,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// fromStorageEntries converts a slice of persisted entries.
func fromStorageEntries(entries []*storage.Entry) []*MemoryEntry {
	out := make([]*MemoryEntry, len(entries))
	for i, e := range entries {
		out[i] = fromStorageEntry(e)
	}
	return out
}
