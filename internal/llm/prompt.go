// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meshintel/counsel-engine/internal/cite"
	"github.com/meshintel/counsel-engine/pkg/types"
)

// systemPrompt instructs the model to ground its prose in the numbered
// authorities and cite them with inline tokens the resolver understands.
const systemPrompt = `You are a legal research assistant. Answer using only the numbered authorities provided in the context block. When a statement relies on an authority, append its citation token, e.g. [2]. Do not invent authorities or citation numbers. State the law neutrally; do not give personalized legal advice.`

// BuildResearchMessages assembles the provider conversation: system
// prompt, capped prior history, the authority context block, and the
// user's question. Authorities are numbered 1..n in bibliography order so
// citation tokens resolve against the same list.
func BuildResearchMessages(history []types.Message, authorities []types.SearchResult, question string, maxHistoryTurns int) []Message {
	msgs := []Message{{Role: openai.ChatMessageRoleSystem, Content: systemPrompt}}

	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 20
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}

	var user strings.Builder
	if len(authorities) > 0 {
		user.WriteString("Authorities:\n")
		for i, r := range authorities {
			fmt.Fprintf(&user, "[%d] %s", i+1, cite.Format(r))
			if r.Snippet != "" {
				fmt.Fprintf(&user, " — %s", clip(r.Snippet, 400))
			}
			user.WriteString("\n")
		}
		user.WriteString("\nQuestion: ")
	}
	user.WriteString(question)

	return append(msgs, Message{Role: openai.ChatMessageRoleUser, Content: user.String()})
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
