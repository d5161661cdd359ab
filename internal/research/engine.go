// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates one research turn: safety-screen the
// question, search for authorities, stream a grounded answer from the
// provider, resolve citation tokens, and persist the exchange.
package research

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meshintel/counsel-engine/internal/cite"
	"github.com/meshintel/counsel-engine/internal/llm"
	"github.com/meshintel/counsel-engine/internal/safety"
	"github.com/meshintel/counsel-engine/internal/search"
	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

// blockedNotice replaces model output that failed the safety screen.
const blockedNotice = "The generated response was withheld because it matched the safety policy."

// defaultChatTitle is the placeholder assigned by the store until the
// first question names the chat.
const defaultChatTitle = "New research"

// EventSink receives turn progress. Tokens carry the provider's raw
// prose; OnContent delivers the final text after citation tokens are
// renumbered and the safety screen has run, so clients must replace the
// accumulated tokens with it. A non-nil OnToken error aborts the stream.
type EventSink interface {
	OnStatus(stage string)
	OnToken(token string) error
	OnContent(content string)
	OnCitations(citations []types.Citation)
}

// nopSink discards all events.
type nopSink struct{}

func (nopSink) OnStatus(string)              {}
func (nopSink) OnToken(string) error         { return nil }
func (nopSink) OnContent(string)             {}
func (nopSink) OnCitations([]types.Citation) {}

// BlockedError reports that the user's question was rejected by the
// safety analyzer before any provider call.
type BlockedError struct {
	Report safety.Report
}

func (e *BlockedError) Error() string {
	terms := make([]string, len(e.Report.Matches))
	for i, m := range e.Report.Matches {
		terms[i] = m.Term
	}
	return fmt.Sprintf("question blocked by safety policy: %s", strings.Join(terms, ", "))
}

// Engine wires the research pipeline together. All fields except Log and
// Analyzer are required; a nil Log discards warnings.
type Engine struct {
	Backends  []search.Backend
	SearchCfg types.SearchConfig
	LLMCfg    types.LLMConfig
	Provider  llm.Provider
	Analyzer  *safety.Analyzer
	Store     *store.Store
	Log       io.Writer
}

// TurnResult is the outcome of one completed research turn.
type TurnResult struct {
	Message      types.Message // persisted assistant message
	Citations    []types.Citation
	InputReport  safety.Report
	OutputReport safety.Report
	Search       search.SearchOutput
}

func (e *Engine) logw() io.Writer {
	if e.Log != nil {
		return e.Log
	}
	return io.Discard
}

// Turn runs a full research turn against an existing chat. The question
// is screened first; a block verdict returns *BlockedError and persists
// nothing. Search failures degrade to an answer without authorities.
func (e *Engine) Turn(ctx context.Context, chatID, question string, sink EventSink) (TurnResult, error) {
	if sink == nil {
		sink = nopSink{}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return TurnResult{}, fmt.Errorf("empty question")
	}

	var result TurnResult
	if e.Analyzer != nil {
		result.InputReport = e.Analyzer.Analyze(question)
		if result.InputReport.Blocked() {
			return result, &BlockedError{Report: result.InputReport}
		}
	}

	chat, err := e.Store.GetChat(ctx, chatID)
	if err != nil {
		return result, fmt.Errorf("loading chat: %w", err)
	}
	history := chat.Messages

	if _, err := e.Store.AppendMessage(ctx, chatID, types.RoleUser, question, nil); err != nil {
		return result, fmt.Errorf("persisting question: %w", err)
	}
	if chat.Title == defaultChatTitle && len(history) == 0 {
		if err := e.Store.RenameChat(ctx, chatID, deriveTitle(question)); err != nil {
			fmt.Fprintf(e.logw(), "Warning: renaming chat: %v\n", err)
		}
	}

	sink.OnStatus("searching")
	out, err := search.Search(ctx, search.Query{FreeText: question}, e.Backends, e.SearchCfg, e.logw())
	if err != nil {
		// Best effort: answer from the model alone.
		fmt.Fprintf(e.logw(), "Warning: authority search failed: %v\n", err)
		out = search.SearchOutput{}
	}
	result.Search = out

	bib := cite.Bibliography(out.Results)
	msgs := llm.BuildResearchMessages(history, out.Results, question, e.LLMCfg.MaxHistoryTurns)

	sink.OnStatus("drafting")
	prose, err := e.Provider.Stream(ctx, msgs, sink.OnToken)
	if err != nil {
		return result, fmt.Errorf("generating answer: %w", err)
	}

	resolved, cited := cite.Resolve(prose, bib)

	if e.Analyzer != nil {
		result.OutputReport = e.Analyzer.Analyze(resolved)
		switch {
		case result.OutputReport.Blocked():
			resolved = blockedNotice
			cited = nil
		case result.OutputReport.Flagged():
			resolved = resolved + "\n\n" + safety.Disclaimer
		}
	}

	msg, err := e.Store.AppendMessage(ctx, chatID, types.RoleAssistant, resolved, cited)
	if err != nil {
		return result, fmt.Errorf("persisting answer: %w", err)
	}
	result.Message = msg
	result.Citations = msg.Citations
	sink.OnContent(msg.Content)
	sink.OnCitations(msg.Citations)

	return result, nil
}

// deriveTitle clips the first question into a chat title.
func deriveTitle(question string) string {
	const maxTitle = 60
	title := strings.Join(strings.Fields(question), " ")
	if len(title) > maxTitle {
		title = strings.TrimSpace(title[:maxTitle]) + "…"
	}
	return title
}
