package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// DefaultSemanticThreshold is the similarity threshold for ordinary text.
	DefaultSemanticThreshold = 0.8

	// DefaultPreferenceThreshold is the lowered threshold applied when either
	// text contains a preference indicator word.
	DefaultPreferenceThreshold = 0.65

	// DefaultMaxContentLength is the maximum memory text length in characters.
	DefaultMaxContentLength = 500

	// DefaultFastPathConfidence is the strict-mode confidence required for
	// fast-path eligibility.
	DefaultFastPathConfidence = 0.9

	// RelaxedFastPathConfidence is the non-strict-mode confidence.
	RelaxedFastPathConfidence = 0.85

	// DefaultRetrievalTimeout bounds calls to the external knowledge
	// retrieval service.
	DefaultRetrievalTimeout = 30 * time.Second

	// DefaultSearchThreshold is the minimum similarity for search results
	// when the caller does not set one.
	DefaultSearchThreshold = 0.3

	// DefaultSearchLimit is the maximum number of search results when the
	// caller does not set one.
	DefaultSearchLimit = 10
)

// Config is the immutable configuration value object for the memory engine.
//
// It is constructed once at startup and passed into each component's
// constructor; components never read global mutable state.
//
// Example:
//
//	cfg := core.DefaultConfig()
//	cfg.MaxContentLength = 1000
//	manager, _ := core.NewManager(cfg, store)
type Config struct {
	// SemanticThreshold is the duplicate-detection similarity threshold for
	// ordinary text. Default: 0.8.
	SemanticThreshold float64 `json:"semantic_threshold" yaml:"semantic_threshold"`

	// PreferenceThreshold is the lowered duplicate threshold for preference
	// statements. Default: 0.65. Lowering it further increases the documented
	// false-positive rate on preference statements sharing an opening phrase.
	PreferenceThreshold float64 `json:"preference_threshold" yaml:"preference_threshold"`

	// MaxContentLength is the maximum memory text length in characters.
	// Longer content is rejected with StatusContentTooLong. Zero selects the
	// default of 500; a negative value disables the limit entirely.
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length"`

	// FastPathConfidence is the minimum intent confidence for serving a query
	// directly from the memory store. Default: 0.9 (strict), 0.85 when
	// StrictFastPath is false.
	FastPathConfidence float64 `json:"fast_path_confidence" yaml:"fast_path_confidence"`

	// StrictFastPath selects the strict fast-path confidence default.
	// Only consulted when FastPathConfidence is zero. Default: true.
	StrictFastPath bool `json:"strict_fast_path" yaml:"strict_fast_path"`

	// RetrievalTimeout bounds each call to the external knowledge retrieval
	// service. Default: 30s.
	RetrievalTimeout time.Duration `json:"retrieval_timeout" yaml:"retrieval_timeout"`
}

// DefaultConfig returns a Config populated with all documented defaults.
func DefaultConfig() Config {
	return Config{
		SemanticThreshold:   DefaultSemanticThreshold,
		PreferenceThreshold: DefaultPreferenceThreshold,
		MaxContentLength:    DefaultMaxContentLength,
		FastPathConfidence:  DefaultFastPathConfidence,
		StrictFastPath:      true,
		RetrievalTimeout:    DefaultRetrievalTimeout,
	}
}

// Validate checks that all configured values are in range.
func (c Config) Validate() error {
	if c.SemanticThreshold < 0 || c.SemanticThreshold > 1 {
		return fmt.Errorf("%w: semantic_threshold %v out of [0,1]", ErrInvalidConfig, c.SemanticThreshold)
	}
	if c.PreferenceThreshold < 0 || c.PreferenceThreshold > 1 {
		return fmt.Errorf("%w: preference_threshold %v out of [0,1]", ErrInvalidConfig, c.PreferenceThreshold)
	}
	if c.FastPathConfidence < 0 || c.FastPathConfidence > 1 {
		return fmt.Errorf("%w: fast_path_confidence %v out of [0,1]", ErrInvalidConfig, c.FastPathConfidence)
	}
	if c.RetrievalTimeout < 0 {
		return fmt.Errorf("%w: retrieval_timeout must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// withDefaults fills zero values with documented defaults.
func (c Config) withDefaults() Config {
	if c.SemanticThreshold == 0 {
		c.SemanticThreshold = DefaultSemanticThreshold
	}
	if c.PreferenceThreshold == 0 {
		c.PreferenceThreshold = DefaultPreferenceThreshold
	}
	if c.MaxContentLength == 0 {
		c.MaxContentLength = DefaultMaxContentLength
	}
	if c.FastPathConfidence == 0 {
		if c.StrictFastPath {
			c.FastPathConfidence = DefaultFastPathConfidence
		} else {
			c.FastPathConfidence = RelaxedFastPathConfidence
		}
	}
	if c.RetrievalTimeout == 0 {
		c.RetrievalTimeout = DefaultRetrievalTimeout
	}
	return c
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for a .env file (up to 5 directory levels up)
//  2. Loads environment variables from the found file, if any
//  3. Parses environment variables into a Config, falling back to defaults
//
// Supported environment variables:
//   - RECALL_SEMANTIC_THRESHOLD
//   - RECALL_PREFERENCE_THRESHOLD
//   - RECALL_MAX_CONTENT_LENGTH
//   - RECALL_FAST_PATH_CONFIDENCE
//   - RECALL_STRICT_FAST_PATH (true/false)
//   - RECALL_RETRIEVAL_TIMEOUT (Go duration, e.g. "30s")
func LoadConfigFromEnv() (Config, error) {
	loadDotEnv()

	cfg := DefaultConfig()

	if v := os.Getenv("RECALL_SEMANTIC_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RECALL_SEMANTIC_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		cfg.SemanticThreshold = f
	}
	if v := os.Getenv("RECALL_PREFERENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RECALL_PREFERENCE_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		cfg.PreferenceThreshold = f
	}
	if v := os.Getenv("RECALL_MAX_CONTENT_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RECALL_MAX_CONTENT_LENGTH: %v", ErrInvalidConfig, err)
		}
		cfg.MaxContentLength = n
	}
	if v := os.Getenv("RECALL_FAST_PATH_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RECALL_FAST_PATH_CONFIDENCE: %v", ErrInvalidConfig, err)
		}
		cfg.FastPathConfidence = f
	}
	if v := os.Getenv("RECALL_STRICT_FAST_PATH"); v != "" {
		cfg.StrictFastPath = strings.EqualFold(v, "true") || v == "1"
		if !cfg.StrictFastPath && cfg.FastPathConfidence == DefaultFastPathConfidence {
			cfg.FastPathConfidence = RelaxedFastPathConfidence
		}
	}
	if v := os.Getenv("RECALL_RETRIEVAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RECALL_RETRIEVAL_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		cfg.RetrievalTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFromFile loads configuration from a JSON or YAML file, selected
// by extension (.json, .yaml, .yml). Unset fields fall back to defaults.
func LoadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv searches for a .env file up to 5 directory levels above the
// working directory and loads the first one found. Missing files are not an
// error.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
