package core

// AddOption is a function type for configuring Add operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type AddOption func(*AddOptions)

// AddOptions contains configuration options for Add operations.
type AddOptions struct {
	// Topics are caller-supplied topic labels. They are merged with the
	// auto-classified topics, deduplicated, order-preserving.
	Topics []string

	// Confidence is how certain the system is about the fact (0.0-1.0).
	// Defaults to 1.0 (asserted directly by the user).
	Confidence float64

	// IsProxy marks the entry as produced by a delegated agent.
	IsProxy bool

	// ProxyAgent names the producing agent when IsProxy is true.
	ProxyAgent string
}

// applyAddOptions applies Add options over the defaults.
func applyAddOptions(opts []AddOption) AddOptions {
	options := AddOptions{Confidence: 1.0}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithTopics supplies topic labels for the new entry. They are merged with
// the auto-classified topics.
//
// Example:
//
//	result := manager.Add(ctx, "Standup is at 9am", "user_001",
//	    core.WithTopics("schedule"))
func WithTopics(topics ...string) AddOption {
	return func(opts *AddOptions) {
		opts.Topics = topics
	}
}

// WithConfidence sets the entry confidence. Values outside [0.0, 1.0] are
// rejected at admission.
//
// Example:
//
//	result := manager.Add(ctx, "Probably lives near the office", "user_001",
//	    core.WithConfidence(0.6))
func WithConfidence(confidence float64) AddOption {
	return func(opts *AddOptions) {
		opts.Confidence = confidence
	}
}

// WithProxyAgent marks the entry as produced by the named delegated agent.
//
// Example:
//
//	result := manager.Add(ctx, "Prefers aisle seats", "user_001",
//	    core.WithProxyAgent("travel_agent"))
func WithProxyAgent(agent string) AddOption {
	return func(opts *AddOptions) {
		opts.IsProxy = true
		opts.ProxyAgent = agent
	}
}

// SearchOption is a function type for configuring Search operations.
type SearchOption func(*SearchOptions)

// SearchOptions contains configuration options for Search operations.
type SearchOptions struct {
	// Limit is the maximum number of results. Defaults to DefaultSearchLimit.
	Limit int

	// Threshold is the minimum blended similarity for a result.
	// Defaults to DefaultSearchThreshold.
	Threshold float64

	// TopicBoost is an additive bonus applied when a query term matches one
	// of the entry's topic labels. Defaults to 0 (no boost).
	TopicBoost float64
}

// applySearchOptions applies Search options over the defaults.
func applySearchOptions(opts []SearchOption) SearchOptions {
	options := SearchOptions{
		Limit:     DefaultSearchLimit,
		Threshold: DefaultSearchThreshold,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithLimit sets the maximum number of search results.
//
// Example:
//
//	matches, _ := manager.Search(ctx, "coffee", "user_001", core.WithLimit(5))
func WithLimit(limit int) SearchOption {
	return func(opts *SearchOptions) {
		opts.Limit = limit
	}
}

// WithThreshold sets the minimum similarity score for search results.
//
// Example:
//
//	matches, _ := manager.Search(ctx, "coffee", "user_001", core.WithThreshold(0.5))
func WithThreshold(threshold float64) SearchOption {
	return func(opts *SearchOptions) {
		opts.Threshold = threshold
	}
}

// WithTopicBoost adds a bonus to entries whose topic labels appear in the
// query.
//
// Example:
//
//	matches, _ := manager.Search(ctx, "work schedule", "user_001",
//	    core.WithTopicBoost(0.1))
func WithTopicBoost(boost float64) SearchOption {
	return func(opts *SearchOptions) {
		opts.TopicBoost = boost
	}
}

// UpdateOption is a function type for configuring Update operations.
type UpdateOption func(*UpdateOptions)

// UpdateOptions contains configuration options for Update operations.
//
// Nil fields are left unchanged.
type UpdateOptions struct {
	// Text replaces the entry text when non-nil. The entry is re-classified.
	Text *string

	// Confidence replaces the entry confidence when non-nil.
	Confidence *float64
}

// applyUpdateOptions applies Update options.
func applyUpdateOptions(opts []UpdateOption) UpdateOptions {
	var options UpdateOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithUpdatedText replaces the entry text. Topic labels are re-classified
// from the new text.
func WithUpdatedText(text string) UpdateOption {
	return func(opts *UpdateOptions) {
		opts.Text = &text
	}
}

// WithUpdatedConfidence replaces the entry confidence.
func WithUpdatedConfidence(confidence float64) UpdateOption {
	return func(opts *UpdateOptions) {
		opts.Confidence = &confidence
	}
}
