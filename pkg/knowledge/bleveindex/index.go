// Package bleveindex provides a Bleve-backed local knowledge index.
//
// It implements the knowledge.LocalIndex interface with full-text search over
// indexed documents, suitable as the local backend of the knowledge
// coordinator.
package bleveindex

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"

	"github.com/loamlabs/recall-go/pkg/knowledge"
)

// document is the structure indexed in Bleve.
type document struct {
	Text string `json:"text"`
}

// Index wraps a Bleve full-text index as a knowledge.LocalIndex.
type Index struct {
	index bleve.Index
}

// New opens the index at path, creating it if it does not exist.
func New(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("bleveindex: open %s: %w", path, err)
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("bleveindex: create %s: %w", path, err)
		}
	}
	return &Index{index: idx}, nil
}

// NewMemOnly creates an in-memory index, useful for tests and ephemeral
// knowledge bases.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("bleveindex: %w", err)
	}
	return &Index{index: idx}, nil
}

// Add indexes a document under the given ID, replacing any previous document
// with the same ID.
func (i *Index) Add(id, text string) error {
	if err := i.index.Index(id, document{Text: text}); err != nil {
		return fmt.Errorf("bleveindex: index %s: %w", id, err)
	}
	return nil
}

// Remove deletes a document from the index.
func (i *Index) Remove(id string) error {
	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("bleveindex: delete %s: %w", id, err)
	}
	return nil
}

// Search returns up to limit hits for query, best first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]knowledge.LocalHit, error) {
	if limit <= 0 {
		limit = 5
	}

	matchQuery := bleve.NewMatchQuery(query)
	request := bleve.NewSearchRequestOptions(matchQuery, limit, 0, false)
	request.Fields = []string{"text"}

	result, err := i.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("bleveindex: search: %w", err)
	}

	hits := make([]knowledge.LocalHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		text, _ := hit.Fields["text"].(string)
		hits = append(hits, knowledge.LocalHit{
			ID:    hit.ID,
			Text:  text,
			Score: hit.Score,
		})
	}

	return hits, nil
}

// Close closes the underlying Bleve index.
func (i *Index) Close() error {
	return i.index.Close()
}
