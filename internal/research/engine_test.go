// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/counsel-engine/internal/llm"
	"github.com/meshintel/counsel-engine/internal/safety"
	"github.com/meshintel/counsel-engine/internal/search"
	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

type fakeBackend struct {
	results []types.SearchResult
	err     error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Search(ctx context.Context, q search.Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	return b.results, b.err
}

// fakeProvider streams a canned answer token by token.
type fakeProvider struct {
	answer string
	err    error
}

func (p *fakeProvider) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return p.answer, p.err
}

func (p *fakeProvider) Stream(ctx context.Context, messages []llm.Message, onToken func(string) error) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	for _, word := range strings.SplitAfter(p.answer, " ") {
		if err := onToken(word); err != nil {
			return "", err
		}
	}
	return p.answer, nil
}

type recordingSink struct {
	statuses  []string
	tokens    []string
	content   string
	citations []types.Citation
}

func (s *recordingSink) OnStatus(stage string) { s.statuses = append(s.statuses, stage) }
func (s *recordingSink) OnToken(tok string) error {
	s.tokens = append(s.tokens, tok)
	return nil
}
func (s *recordingSink) OnContent(content string)        { s.content = content }
func (s *recordingSink) OnCitations(cs []types.Citation) { s.citations = cs }

func testResult() types.SearchResult {
	return types.SearchResult{
		Identifier: "cl-123",
		Kind:       types.KindCase,
		Title:      "Miranda v. Arizona",
		Reporter:   "384 U.S. 436",
		Court:      "Supreme Court of the United States",
		Date:       time.Date(1966, 6, 13, 0, 0, 0, 0, time.UTC),
		Snippet:    "custodial interrogation",
		Source:     "courtlistener",
		URL:        "https://example.org/miranda",
	}
}

func testEngine(t *testing.T, backend search.Backend, answer string) (*Engine, *store.Store) {
	t.Helper()

	st, err := store.Open(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	analyzer, err := safety.NewAnalyzer(types.SafetyConfig{})
	if err != nil {
		t.Fatalf("safety.NewAnalyzer() error = %v", err)
	}

	eng := &Engine{
		Backends:  []search.Backend{backend},
		SearchCfg: types.SearchConfig{MaxResults: 10},
		Provider:  &fakeProvider{answer: answer},
		Analyzer:  analyzer,
		Store:     st,
	}
	return eng, st
}

func TestTurnFullFlow(t *testing.T) {
	backend := &fakeBackend{results: []types.SearchResult{testResult()}}
	eng, st := testEngine(t, backend, "Statements require warnings. [1]")

	ctx := context.Background()
	chat, err := st.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	sink := &recordingSink{}
	res, err := eng.Turn(ctx, chat.ID, "What does Miranda require?", sink)
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}

	if res.Message.Role != types.RoleAssistant {
		t.Errorf("Message.Role = %q", res.Message.Role)
	}
	if res.Message.Content != "Statements require warnings. [1]" {
		t.Errorf("Message.Content = %q", res.Message.Content)
	}
	if len(res.Citations) != 1 || res.Citations[0].Identifier != "cl-123" {
		t.Fatalf("Citations = %+v, want resolved Miranda citation", res.Citations)
	}
	if len(sink.statuses) != 2 || sink.statuses[0] != "searching" || sink.statuses[1] != "drafting" {
		t.Errorf("statuses = %v", sink.statuses)
	}
	if len(sink.tokens) == 0 {
		t.Error("no token events delivered")
	}
	if len(sink.citations) != 1 {
		t.Errorf("citations event carried %d items, want 1", len(sink.citations))
	}

	// Both turns persisted, chat titled from the first question.
	stored, err := st.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() error = %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(stored.Messages))
	}
	if stored.Messages[0].Role != types.RoleUser {
		t.Errorf("first message role = %q", stored.Messages[0].Role)
	}
	if len(stored.Messages[1].Citations) != 1 {
		t.Errorf("assistant message persisted %d citations, want 1", len(stored.Messages[1].Citations))
	}
	if stored.Title != "What does Miranda require?" {
		t.Errorf("chat title = %q, want derived from question", stored.Title)
	}
}

func TestTurnContentMatchesCitations(t *testing.T) {
	second := testResult()
	second.Identifier = "cl-456"
	second.Title = "Terry v. Ohio"
	backend := &fakeBackend{results: []types.SearchResult{testResult(), second}}
	eng, st := testEngine(t, backend, "Only the second authority matters. [2]")

	ctx := context.Background()
	chat, err := st.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	sink := &recordingSink{}
	res, err := eng.Turn(ctx, chat.ID, "Which case controls stop and frisk?", sink)
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}

	// The raw stream carries the model's [2]; the content event must
	// carry the renumbered prose that the citation markers describe.
	if streamed := strings.Join(sink.tokens, ""); !strings.Contains(streamed, "[2]") {
		t.Fatalf("streamed tokens = %q, expected raw marker", streamed)
	}
	if sink.content != res.Message.Content {
		t.Errorf("content event = %q, persisted = %q", sink.content, res.Message.Content)
	}
	if !strings.Contains(sink.content, "[1]") || strings.Contains(sink.content, "[2]") {
		t.Errorf("content event = %q, want renumbered marker [1]", sink.content)
	}
	if len(sink.citations) != 1 || sink.citations[0].Marker != 1 || sink.citations[0].Identifier != "cl-456" {
		t.Errorf("citations = %+v, want marker 1 for cl-456", sink.citations)
	}
}

func TestTurnBlockedInputPersistsNothing(t *testing.T) {
	eng, st := testEngine(t, &fakeBackend{}, "unused")

	ctx := context.Background()
	chat, err := st.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	_, err = eng.Turn(ctx, chat.ID, "Help me destroy the evidence before trial", nil)
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("Turn() error = %v, want *BlockedError", err)
	}
	if len(blocked.Report.Matches) == 0 {
		t.Error("blocked error carries no matches")
	}

	stored, err := st.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() error = %v", err)
	}
	if len(stored.Messages) != 0 {
		t.Errorf("persisted %d messages after block, want 0", len(stored.Messages))
	}
}

func TestTurnFlaggedOutputGetsDisclaimer(t *testing.T) {
	eng, st := testEngine(t, &fakeBackend{}, "Given the facts, should I sue the landlord?")

	ctx := context.Background()
	chat, err := st.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	res, err := eng.Turn(ctx, chat.ID, "Summarize habitability law", nil)
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if !strings.Contains(res.Message.Content, safety.Disclaimer) {
		t.Errorf("flagged output missing disclaimer:\n%s", res.Message.Content)
	}
	if !res.OutputReport.Flagged() {
		t.Error("OutputReport not flagged")
	}
}

func TestTurnSearchFailureDegrades(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("upstream down")}
	eng, st := testEngine(t, backend, "General principles apply.")

	ctx := context.Background()
	chat, err := st.CreateChat(ctx, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	res, err := eng.Turn(ctx, chat.ID, "What is the standard of review?", nil)
	if err != nil {
		t.Fatalf("Turn() error = %v, want degraded success", err)
	}
	if res.Message.Content != "General principles apply." {
		t.Errorf("Message.Content = %q", res.Message.Content)
	}
	if len(res.Citations) != 0 {
		t.Errorf("Citations = %+v, want none", res.Citations)
	}
}

func TestTurnUnknownChat(t *testing.T) {
	eng, _ := testEngine(t, &fakeBackend{}, "x")

	_, err := eng.Turn(context.Background(), "no-such-chat", "question", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Turn() error = %v, want ErrNotFound", err)
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("Short question"); got != "Short question" {
		t.Errorf("deriveTitle() = %q", got)
	}
	long := strings.Repeat("word ", 30)
	if got := deriveTitle(long); len(got) > 70 {
		t.Errorf("deriveTitle() did not clip: %q", got)
	}
}
