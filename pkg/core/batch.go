package core

import "context"

// BatchResult pairs one ingested fact with its admission outcome.
type BatchResult struct {
	// Text is the candidate fact as submitted.
	Text string

	// Result is the admission outcome for this fact.
	Result *StorageResult
}

// BatchSummary aggregates the outcomes of a batch ingestion.
type BatchSummary struct {
	// Results holds one entry per submitted fact, in submission order.
	Results []BatchResult

	// Stored is the number of facts admitted and persisted.
	Stored int

	// Rejected is the number of facts turned away as duplicates.
	Rejected int

	// Failed is the number of facts that hit validation or storage errors.
	Failed int
}

// AddMany ingests a batch of facts for one owner, running the full admission
// pipeline per fact in submission order.
//
// Facts admitted earlier in the batch participate in the duplicate check for
// later ones: submitting the same fact twice in one batch yields Success then
// DuplicateExact, the same as two separate Add calls.
//
// Ingestion stops early only if ctx is cancelled; per-fact failures are
// recorded and the batch continues.
func (m *Manager) AddMany(ctx context.Context, texts []string, ownerID string, opts ...AddOption) *BatchSummary {
	summary := &BatchSummary{
		Results: make([]BatchResult, 0, len(texts)),
	}

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			summary.Results = append(summary.Results, BatchResult{
				Text: text,
				Result: &StorageResult{
					Status:  StatusStorageError,
					Message: "batch cancelled",
					Err:     NewMemoryError("AddMany", err),
				},
			})
			summary.Failed++
			continue
		}

		result := m.Add(ctx, text, ownerID, opts...)
		summary.Results = append(summary.Results, BatchResult{Text: text, Result: result})

		switch {
		case result.OK():
			summary.Stored++
		case result.Rejected():
			summary.Rejected++
		default:
			summary.Failed++
		}
	}

	return summary
}
