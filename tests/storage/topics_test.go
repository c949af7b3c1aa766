package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loamlabs/recall-go/pkg/storage"
)

func TestDecodeTopics(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"json array", `["work","food"]`, []string{"work", "food"}},
		{"json array single", `["general"]`, []string{"general"}},
		{"quoted string", `"work"`, []string{"work"}},
		{"quoted comma-joined string", `"work,food"`, []string{"work", "food"}},
		{"bare string", "work", []string{"work"}},
		{"bare comma-joined string", "work, food", []string{"work", "food"}},
		{"empty column", "", []string{"general"}},
		{"whitespace only", "   ", []string{"general"}},
		{"empty json array", `[]`, []string{"general"}},
		{"comma-joined with blanks", "work,,food,", []string{"work", "food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.DecodeTopics(tt.raw))
		})
	}
}

func TestEncodeTopics(t *testing.T) {
	assert.Equal(t, `["work","food"]`, storage.EncodeTopics([]string{"work", "food"}))
	assert.Equal(t, `["general"]`, storage.EncodeTopics(nil))
	assert.Equal(t, `["general"]`, storage.EncodeTopics([]string{"", "  "}))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	topics := []string{"work", "personal_info", "schedule"}

	decoded := storage.DecodeTopics(storage.EncodeTopics(topics))

	assert.Equal(t, topics, decoded)
}

func TestApplyDefaults(t *testing.T) {
	t.Run("fills missing topics", func(t *testing.T) {
		entry := &storage.Entry{ID: "1", OwnerID: "u", Text: "t"}
		entry.ApplyDefaults()

		assert.Equal(t, []string{"general"}, entry.Topics)
	})

	t.Run("leaves confidence untouched", func(t *testing.T) {
		// 0.0 is a stored value, not an omission; the NULL/missing default
		// belongs to the backends, which can still tell the two apart.
		entry := &storage.Entry{ID: "1", OwnerID: "u", Text: "t", Confidence: 0.0}
		entry.ApplyDefaults()

		assert.Equal(t, 0.0, entry.Confidence)
	})

	t.Run("keeps populated fields", func(t *testing.T) {
		entry := &storage.Entry{
			ID: "1", OwnerID: "u", Text: "t",
			Topics:     []string{"work"},
			Confidence: 0.5,
			IsProxy:    true,
			ProxyAgent: "scheduler",
		}
		entry.ApplyDefaults()

		assert.Equal(t, 0.5, entry.Confidence)
		assert.Equal(t, []string{"work"}, entry.Topics)
		assert.Equal(t, "scheduler", entry.ProxyAgent)
	})

	t.Run("clears orphaned proxy agent", func(t *testing.T) {
		entry := &storage.Entry{ID: "1", OwnerID: "u", Text: "t", ProxyAgent: "scheduler"}
		entry.ApplyDefaults()

		assert.Empty(t, entry.ProxyAgent)
	})
}
