// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meshintel/counsel-engine/pkg/types"
)

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(types.LLMConfig{})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewOpenAIProviderDefaults(t *testing.T) {
	p, err := NewOpenAIProvider(types.LLMConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	if p.model == "" {
		t.Error("default model not applied")
	}
	if p.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", p.maxRetries)
	}
}

func streamServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			fmt.Fprintf(w, `data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", d)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStreamAccumulatesTokens(t *testing.T) {
	ts := streamServer(t, []string{"The rule ", "is clear. ", "[1]"})
	defer ts.Close()

	p, err := NewOpenAIProvider(types.LLMConfig{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	var tokens []string
	full, err := p.Stream(context.Background(), []Message{{Role: "user", Content: "q"}},
		func(tok string) error {
			tokens = append(tokens, tok)
			return nil
		})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if full != "The rule is clear. [1]" {
		t.Errorf("full = %q", full)
	}
	if len(tokens) != 3 {
		t.Errorf("got %d token callbacks, want 3", len(tokens))
	}
}

func TestStreamCallbackErrorAborts(t *testing.T) {
	ts := streamServer(t, []string{"a", "b", "c"})
	defer ts.Close()

	p, err := NewOpenAIProvider(types.LLMConfig{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	wantErr := fmt.Errorf("sink closed")
	_, err = p.Stream(context.Background(), []Message{{Role: "user", Content: "q"}},
		func(string) error { return wantErr })
	if err != wantErr {
		t.Errorf("Stream() error = %v, want callback error returned unwrapped", err)
	}
}
