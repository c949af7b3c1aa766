// Package lightrag provides an HTTP client for a LightRAG-style knowledge
// graph retrieval service.
//
// The service accepts {query, mode, limit} and returns {response}. The client
// implements the knowledge.GraphRetriever interface.
package lightrag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loamlabs/recall-go/pkg/knowledge"
)

// Client is a LightRAG retrieval service client.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// Config is the configuration for the LightRAG client.
//
// BaseURL: service address, defaults to "http://localhost:9621"
// APIKey: bearer token (optional, usually not required for local deployment)
// HTTPClient: custom HTTP client, if nil uses a default client with a
// 30-second timeout
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new LightRAG client.
//
// Args:
//   - cfg: client configuration containing BaseURL, etc. (APIKey is optional)
//
// Returns:
//   - *Client: LightRAG client instance
//   - error: Returns an error if initialization fails
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:9621"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		client:  client,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}, nil
}

// Retrieve answers query using the graph service.
//
// The caller-supplied context bounds the request; cancellation and timeouts
// surface as errors for the coordinator's fallback policy to handle.
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - query: The knowledge question
//   - mode: Retrieval mode passed through to the service (global, hybrid, mix)
//   - limit: Maximum number of knowledge fragments to retrieve
//
// Returns:
//   - string: The retrieval response text
//   - error: Returns an error if the request fails or the response is empty
func (c *Client) Retrieve(ctx context.Context, query string, mode knowledge.Mode, limit int) (string, error) {
	reqBody := map[string]interface{}{
		"query": query,
		"mode":  string(mode),
		"limit": limit,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/query", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("retrieval request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if response.Response == "" {
		return "", errors.New("retrieval failed: empty response from service")
	}

	return response.Response, nil
}
