// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "counsel-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the authority search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableCourtListener controls whether the CourtListener backend is used.
	EnableCourtListener bool `json:"enable_courtlistener" yaml:"enable_courtlistener"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// CourtListenerToken is an optional API token for higher rate limits.
	CourtListenerToken string `json:"courtlistener_token,omitempty" yaml:"courtlistener_token,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// BackendRateLimit is the per-backend client-side request rate in
	// requests per second (default 1).
	BackendRateLimit float64 `json:"backend_rate_limit" yaml:"backend_rate_limit"`

	// RecencyBiasWindow is the time window for boosting recent authorities
	// (default 5 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window"`

	// DiversifyGroups caps consecutive picks from one source+jurisdiction
	// group during diversification. Zero disables the pass.
	DiversifyGroups int `json:"diversify_groups" yaml:"diversify_groups"`
}

// LLMConfig holds settings for the language model provider.
type LLMConfig struct {
	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed non-streaming
	// calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxHistoryTurns caps the number of prior turns sent as context
	// (default 20).
	MaxHistoryTurns int `json:"max_history_turns" yaml:"max_history_turns"`
}

// StoreConfig holds settings for the chat store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxSearchResults is the default cap on message search results (default 20).
	MaxSearchResults int `json:"max_search_results" yaml:"max_search_results"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// RateLimit is the per-client request rate in requests per second
	// (default 5).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the per-client burst capacity (default 10).
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`
}

// SafetyConfig holds settings for the keyword safety analyzer.
type SafetyConfig struct {
	// ExtraBlocklist adds terms to the built-in block category.
	ExtraBlocklist []string `json:"extra_blocklist,omitempty" yaml:"extra_blocklist,omitempty"`

	// ExtraFlaglist adds terms to the built-in flag category.
	ExtraFlaglist []string `json:"extra_flaglist,omitempty" yaml:"extra_flaglist,omitempty"`
}
