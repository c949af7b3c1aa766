// Package knowledge coordinates knowledge queries between a local similarity
// index and an external graph-based retrieval service.
//
// The coordinator owns the routing decision (explicit mode or heuristic), the
// single-fallback policy when a backend fails, and the tagging of results so
// callers can tell which backend answered.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Mode selects the retrieval strategy for a knowledge query.
type Mode string

const (
	// ModeLocal forces the local similarity index.
	ModeLocal Mode = "local"

	// ModeGlobal forces the external graph service, global traversal.
	ModeGlobal Mode = "global"

	// ModeHybrid forces the external graph service, hybrid retrieval.
	ModeHybrid Mode = "hybrid"

	// ModeMix forces the external graph service, mixed retrieval.
	ModeMix Mode = "mix"

	// ModeAuto lets the coordinator choose a backend heuristically.
	ModeAuto Mode = "auto"
)

// Source identifies which backend produced a result.
type Source string

const (
	// SourceLocal is the local similarity index.
	SourceLocal Source = "local"

	// SourceGraph is the external graph retrieval service.
	SourceGraph Source = "graph"
)

// ErrAllBackendsFailed is returned when both the primary and the fallback
// backend fail for a query.
var ErrAllBackendsFailed = errors.New("knowledge query failed on both backends")

// LocalHit is one match from the local similarity index.
type LocalHit struct {
	// ID identifies the indexed document.
	ID string

	// Text is the matched content.
	Text string

	// Score is the index's relevance score.
	Score float64
}

// LocalIndex is the injected local knowledge index.
//
// Implementations: bleveindex.Index (full-text), or any adapter over an
// existing memory store.
type LocalIndex interface {
	// Search returns up to limit hits for query, best first.
	Search(ctx context.Context, query string, limit int) ([]LocalHit, error)
}

// GraphRetriever is the injected external graph-based retrieval service.
//
// Implementations: lightrag.Client.
type GraphRetriever interface {
	// Retrieve answers query using the given retrieval mode.
	Retrieve(ctx context.Context, query string, mode Mode, limit int) (string, error)
}

// Result is a knowledge query answer, tagged with its provenance.
type Result struct {
	// Response is the formatted answer text.
	Response string `json:"response"`

	// Source is the backend that produced the response.
	Source Source `json:"source"`

	// Mode is the retrieval mode that was requested.
	Mode Mode `json:"mode"`

	// Fallback is true when the primary backend failed and the response came
	// from the other one.
	Fallback bool `json:"fallback,omitempty"`

	// FailedPath records which path failed and why when Fallback is true.
	// Failures are never silently swallowed.
	FailedPath string `json:"failed_path,omitempty"`
}

// Label returns the display heading for the result's provenance.
func (r *Result) Label() string {
	if r.Fallback {
		return "Fallback"
	}
	if r.Source == SourceGraph {
		return "LightRAG Knowledge Graph Results"
	}
	return "Local Knowledge Search Results"
}

// relationshipCues route auto-mode queries to the graph service: questions
// about how things connect need graph traversal, not nearest-neighbor lookup.
var relationshipCues = []string{
	"relate", "relationship", "compare", "comparison", "connection",
	"connected", "affect", "impact", "influence", "versus", " vs ",
	"difference between", "interact",
}

// definitionCues route auto-mode queries to the local index: simple factual
// and definition lookups are answered well by similarity search.
var definitionCues = []string{
	"what is", "what are", "who is", "define", "definition of", "meaning of",
}

// DefaultCacheSize bounds the coordinator's query result cache.
const DefaultCacheSize = 128

// DefaultTimeout bounds each backend call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Coordinator routes knowledge queries between the local index and the
// external graph service, with one fallback attempt on failure.
//
// Successful non-fallback results are memoized in a bounded LRU cache keyed
// by (mode, query).
//
// Example:
//
//	graph, _ := lightrag.NewClient(&lightrag.Config{BaseURL: "http://localhost:9621"})
//	coordinator := knowledge.NewCoordinator(localIdx, graph)
//	result, err := coordinator.Query(ctx, "How does caffeine relate to sleep?", knowledge.ModeAuto, 5)
type Coordinator struct {
	// local is the injected local similarity index (may be nil).
	local LocalIndex

	// graph is the injected external retrieval service (may be nil).
	graph GraphRetriever

	// timeout bounds each backend call.
	timeout time.Duration

	// cache memoizes successful results.
	cache *lru.Cache[string, *Result]

	// logger receives routing and fallback events.
	logger *slog.Logger
}

// CoordinatorOption configures a Coordinator at construction.
type CoordinatorOption func(*Coordinator)

// WithTimeout bounds each backend call. Defaults to DefaultTimeout.
func WithTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithCacheSize bounds the query result cache. Defaults to DefaultCacheSize.
func WithCacheSize(size int) CoordinatorOption {
	return func(c *Coordinator) {
		if size > 0 {
			cache, _ := lru.New[string, *Result](size)
			c.cache = cache
		}
	}
}

// NewCoordinator creates a knowledge coordinator over the injected backends.
//
// Either backend may be nil; a nil backend is treated as unavailable and the
// other one serves all queries (tagged Fallback when it was not the routed
// choice).
func NewCoordinator(local LocalIndex, graph GraphRetriever, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		local:   local,
		graph:   graph,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.cache == nil {
		cache, _ := lru.New[string, *Result](DefaultCacheSize)
		c.cache = cache
	}
	return c
}

// Query answers a knowledge question.
//
// Routing:
//   - mode local: local index
//   - mode global, hybrid, mix: external graph service
//   - mode auto: relationship/comparison cues route to the graph service,
//     simple factual/definition cues to the local index, anything else to the
//     graph service
//
// The chosen backend is attempted first; on failure (error, empty result, or
// backend unavailable) the other backend is tried once and the result is
// tagged Fallback, recording which path failed and why. If both fail the
// returned error wraps ErrAllBackendsFailed; low-level network errors are
// never propagated directly.
//
// The backend call respects ctx and the configured timeout.
func (c *Coordinator) Query(ctx context.Context, query string, mode Mode, limit int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("knowledge: empty query")
	}
	if mode == "" {
		mode = ModeAuto
	}
	if limit <= 0 {
		limit = 5
	}

	cacheKey := string(mode) + "|" + strings.ToLower(query)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, nil
	}

	primary := c.determineRouting(query, mode)
	c.logger.Debug("knowledge query routed", "mode", mode, "backend", primary)

	result, primaryErr := c.attempt(ctx, primary, query, mode, limit)
	if primaryErr == nil {
		c.cache.Add(cacheKey, result)
		return result, nil
	}

	fallbackSource := otherSource(primary)
	c.logger.Warn("knowledge backend failed, falling back",
		"failed", primary, "fallback", fallbackSource, "err", primaryErr)

	result, fallbackErr := c.attempt(ctx, fallbackSource, query, mode, limit)
	if fallbackErr == nil {
		result.Fallback = true
		result.FailedPath = fmt.Sprintf("%s: %v", primary, primaryErr)
		return result, nil
	}

	return nil, fmt.Errorf("%w: %s: %v; %s: %v",
		ErrAllBackendsFailed, primary, primaryErr, fallbackSource, fallbackErr)
}

// determineRouting picks the backend for a query.
func (c *Coordinator) determineRouting(query string, mode Mode) Source {
	switch mode {
	case ModeLocal:
		return SourceLocal
	case ModeGlobal, ModeHybrid, ModeMix:
		return SourceGraph
	}

	lowered := " " + strings.ToLower(query) + " "
	for _, cue := range relationshipCues {
		if strings.Contains(lowered, cue) {
			return SourceGraph
		}
	}
	for _, cue := range definitionCues {
		if strings.Contains(lowered, cue) {
			return SourceLocal
		}
	}

	// No cue either way: graph retrieval is the general-purpose path.
	return SourceGraph
}

// attempt runs the query against one backend under the configured timeout.
// An empty response counts as a failure so the caller can fall back.
func (c *Coordinator) attempt(ctx context.Context, source Source, query string, mode Mode, limit int) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch source {
	case SourceLocal:
		if c.local == nil {
			return nil, errors.New("local index unavailable")
		}
		hits, err := c.local.Search(callCtx, query, limit)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return nil, errors.New("no local results")
		}
		return &Result{
			Response: formatLocalHits(hits),
			Source:   SourceLocal,
			Mode:     mode,
		}, nil

	case SourceGraph:
		if c.graph == nil {
			return nil, errors.New("graph service unavailable")
		}
		graphMode := mode
		if graphMode == ModeAuto || graphMode == ModeLocal {
			graphMode = ModeHybrid
		}
		response, err := c.graph.Retrieve(callCtx, query, graphMode, limit)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(response) == "" {
			return nil, errors.New("empty response from graph service")
		}
		return &Result{
			Response: response,
			Source:   SourceGraph,
			Mode:     mode,
		}, nil
	}

	return nil, fmt.Errorf("unknown backend %q", source)
}

// otherSource returns the backend to fall back to.
func otherSource(s Source) Source {
	if s == SourceLocal {
		return SourceGraph
	}
	return SourceLocal
}

// formatLocalHits renders local index hits as a numbered list.
func formatLocalHits(hits []LocalHit) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (score %.2f)", i+1, hit.Text, hit.Score)
	}
	return b.String()
}
