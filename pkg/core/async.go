package core

import (
	"context"
	"sync"
)

// AsyncManager provides asynchronous memory operations.
//
// It is a thin adapter over the synchronous Manager: each call runs in its
// own goroutine and delivers its result on a channel. The core logic is not
// duplicated; callers on an event-loop runtime get the same semantics as the
// synchronous surface.
//
// Example:
//
//	async := core.NewAsyncManager(manager)
//	resultChan := async.AddAsync(ctx, "User likes tea", "user_001")
//	result := <-resultChan
//	if !result.OK() {
//	    log.Println(result.Message)
//	}
//	async.Wait()
type AsyncManager struct {
	*Manager
	wg sync.WaitGroup
}

// NewAsyncManager wraps a Manager with the asynchronous surface.
func NewAsyncManager(manager *Manager) *AsyncManager {
	return &AsyncManager{Manager: manager}
}

// AddAsync stores a fact asynchronously.
//
// The operation executes in a separate goroutine and delivers its
// StorageResult on the returned channel, which is then closed.
func (a *AsyncManager) AddAsync(ctx context.Context, text, ownerID string, opts ...AddOption) <-chan *StorageResult {
	resultChan := make(chan *StorageResult, 1)
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		resultChan <- a.Add(ctx, text, ownerID, opts...)
		close(resultChan)
	}()

	return resultChan
}

// AsyncSearchResult contains the result of an asynchronous search operation.
type AsyncSearchResult struct {
	// Matches is the ranked list of matching entries.
	Matches []SearchMatch

	// Error is the error returned by the operation (nil on success).
	Error error
}

// SearchAsync searches memories asynchronously.
func (a *AsyncManager) SearchAsync(ctx context.Context, query, ownerID string, opts ...SearchOption) <-chan *AsyncSearchResult {
	resultChan := make(chan *AsyncSearchResult, 1)
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		matches, err := a.Search(ctx, query, ownerID, opts...)
		resultChan <- &AsyncSearchResult{Matches: matches, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// AsyncListResult contains the result of an asynchronous list operation.
type AsyncListResult struct {
	// Entries is the list of entries.
	Entries []*MemoryEntry

	// Error is the error returned by the operation (nil on success).
	Error error
}

// ListAllAsync lists an owner's memories asynchronously.
func (a *AsyncManager) ListAllAsync(ctx context.Context, ownerID string) <-chan *AsyncListResult {
	resultChan := make(chan *AsyncListResult, 1)
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		entries, err := a.ListAll(ctx, ownerID)
		resultChan <- &AsyncListResult{Entries: entries, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// AsyncDeleteResult contains the result of an asynchronous delete operation.
type AsyncDeleteResult struct {
	// Deleted reports whether an entry was removed.
	Deleted bool

	// Error is the error returned by the operation (nil on success).
	Error error
}

// DeleteAsync deletes a memory asynchronously.
func (a *AsyncManager) DeleteAsync(ctx context.Context, id, ownerID string) <-chan *AsyncDeleteResult {
	resultChan := make(chan *AsyncDeleteResult, 1)
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		deleted, err := a.Delete(ctx, id, ownerID)
		resultChan <- &AsyncDeleteResult{Deleted: deleted, Error: err}
		close(resultChan)
	}()

	return resultChan
}

// Wait blocks until all asynchronous operations have completed.
//
// It should be called before program exit to ensure all operations finish.
func (a *AsyncManager) Wait() {
	a.wg.Wait()
}

// Close waits for all asynchronous operations, then closes the underlying
// Manager.
func (a *AsyncManager) Close() error {
	a.Wait()
	return a.Manager.Close()
}
