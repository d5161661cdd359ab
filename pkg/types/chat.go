// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Chat is a persisted research conversation.
type Chat struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id" yaml:"id"`

	// Title is a short human-readable label, derived from the first user
	// message unless renamed.
	Title string `json:"title" yaml:"title"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Messages holds the conversation turns in chronological order.
	// Populated on single-chat reads, nil on list reads.
	Messages []Message `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Message is a single turn in a chat.
type Message struct {
	ID     string      `json:"id" yaml:"id"`
	ChatID string      `json:"chat_id" yaml:"chat_id"`
	Role   MessageRole `json:"role" yaml:"role"`

	// Content is the message text. Assistant content carries inline
	// citation tokens (e.g. "[1]") resolved against Citations.
	Content string `json:"content" yaml:"content"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Citations lists the authorities cited by an assistant message,
	// ordered by marker number.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Citation links a citation token in assistant prose to its authority.
type Citation struct {
	ID        string `json:"id" yaml:"id"`
	MessageID string `json:"message_id" yaml:"message_id"`

	// Marker is the token number in the prose (1-based, first-use order).
	Marker int `json:"marker" yaml:"marker"`

	// Identifier is the authority's canonical ID at its source.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the case name or article title.
	Title string `json:"title" yaml:"title"`

	// Cite is the formatted citation string.
	Cite string `json:"cite" yaml:"cite"`

	// URL is a stable link to the authority.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source is the backend that supplied the authority.
	Source string `json:"source" yaml:"source"`
}
