// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"net/http"

	"github.com/spf13/viper"

	"github.com/meshintel/counsel-engine/internal/httputil"
	"github.com/meshintel/counsel-engine/internal/llm"
	"github.com/meshintel/counsel-engine/internal/research"
	"github.com/meshintel/counsel-engine/internal/safety"
	"github.com/meshintel/counsel-engine/internal/search"
	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

func setConfigDefaults() {
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.enable_courtlistener", true)
	viper.SetDefault("search.enable_openalex", true)
	viper.SetDefault("search.enable_semantic_scholar", true)
	viper.SetDefault("search.backend_rate_limit", 1.0)
	viper.SetDefault("search.recency_bias_window", "43800h") // ~5 years
	viper.SetDefault("search.diversify_groups", 2)
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.max_history_turns", 20)
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate_limit", 5.0)
	viper.SetDefault("server.rate_burst", 10)
}

func searchConfigFromViper() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: "counsel-engine/" + version,
		},
		MaxResults:            viper.GetInt("search.max_results"),
		EnableCourtListener:   viper.GetBool("search.enable_courtlistener"),
		EnableOpenAlex:        viper.GetBool("search.enable_openalex"),
		EnableSemanticScholar: viper.GetBool("search.enable_semantic_scholar"),
		CourtListenerToken:    secretDefault("courtlistener-api-token", viper.GetString("search.courtlistener_token")),
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("search.semantic_scholar_api_key")),
		OpenAlexEmail:         secretDefault("openalex-email", viper.GetString("search.openalex_email")),
		BackendRateLimit:      viper.GetFloat64("search.backend_rate_limit"),
		RecencyBiasWindow:     viper.GetDuration("search.recency_bias_window"),
		DiversifyGroups:       viper.GetInt("search.diversify_groups"),
	}
}

func llmConfigFromViper() types.LLMConfig {
	return types.LLMConfig{
		Model:           viper.GetString("llm.model"),
		APIKey:          secretDefault("openai-api-key", viper.GetString("llm.api_key")),
		BaseURL:         viper.GetString("llm.base_url"),
		MaxRetries:      viper.GetInt("llm.max_retries"),
		MaxHistoryTurns: viper.GetInt("llm.max_history_turns"),
	}
}

func storeConfigFromViper() types.StoreConfig {
	return types.StoreConfig{
		DataDir:          viper.GetString("store.data_dir"),
		MaxSearchResults: viper.GetInt("store.max_search_results"),
	}
}

func serverConfigFromViper() types.ServerConfig {
	return types.ServerConfig{
		Addr:      viper.GetString("server.addr"),
		RateLimit: viper.GetFloat64("server.rate_limit"),
		RateBurst: viper.GetInt("server.rate_burst"),
	}
}

func safetyConfigFromViper() types.SafetyConfig {
	return types.SafetyConfig{
		ExtraBlocklist: viper.GetStringSlice("safety.extra_blocklist"),
		ExtraFlaglist:  viper.GetStringSlice("safety.extra_flaglist"),
	}
}

// newBackends wires the enabled search backends with shared rate limiting.
func newBackends(cfg types.SearchConfig) []search.Backend {
	client := &http.Client{Timeout: cfg.Timeout}

	var backends []search.Backend
	if cfg.EnableCourtListener {
		backends = append(backends, &search.CourtListenerBackend{
			Client: httputil.NewRateLimitedClient(client, cfg.BackendRateLimit),
			Token:  cfg.CourtListenerToken,
		})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &search.OpenAlexBackend{
			Client: httputil.NewRateLimitedClient(client, cfg.BackendRateLimit),
			Email:  cfg.OpenAlexEmail,
		})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &search.SemanticScholarBackend{
			Client: httputil.NewRateLimitedClient(client, cfg.BackendRateLimit),
			APIKey: cfg.SemanticScholarAPIKey,
		})
	}
	return backends
}

// newEngine assembles the full research engine from config. The caller
// owns the store and must close it.
func newEngine(logw io.Writer) (*research.Engine, *store.Store, error) {
	searchCfg := searchConfigFromViper()
	llmCfg := llmConfigFromViper()

	provider, err := llm.NewOpenAIProvider(llmCfg)
	if err != nil {
		return nil, nil, err
	}

	analyzer, err := safety.NewAnalyzer(safetyConfigFromViper())
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(storeConfigFromViper())
	if err != nil {
		return nil, nil, err
	}

	return &research.Engine{
		Backends:  newBackends(searchCfg),
		SearchCfg: searchCfg,
		LLMCfg:    llmCfg,
		Provider:  provider,
		Analyzer:  analyzer,
		Store:     st,
		Log:       logw,
	}, st, nil
}
