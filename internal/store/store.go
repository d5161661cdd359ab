// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists chats, messages, and citations in SQLite.
// Referential integrity is enforced by the schema: deleting a chat
// cascades to its messages and their citations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/counsel-engine/pkg/types"
)

const dbFile = "counsel.db"

// Store manages the chat SQLite database.
type Store struct {
	db               *sql.DB
	maxSearchResults int
}

// Open opens or creates the chat database at cfg.DataDir/counsel.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxSearchResults := cfg.MaxSearchResults
	if maxSearchResults <= 0 {
		maxSearchResults = 20
	}

	s := &Store{db: db, maxSearchResults: maxSearchResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			marker INTEGER NOT NULL,
			identifier TEXT NOT NULL,
			title TEXT,
			cite TEXT,
			url TEXT,
			source TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_message_id ON citations(message_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over message content with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='messages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE messages_fts USING fts5(content, content=messages, content_rowid=rowid)`,
			`CREATE TRIGGER messages_ai AFTER INSERT ON messages BEGIN
				INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER messages_ad AFTER DELETE ON messages BEGIN
				INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER messages_au AFTER UPDATE ON messages BEGIN
				INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// timeFmt keeps a fixed-width fraction so stored timestamps sort
// lexicographically (RFC3339Nano trims trailing zeros and does not).
const timeFmt = "2006-01-02T15:04:05.000000000Z07:00"

// CreateChat inserts a new chat and returns it. An empty title defaults
// to "New research".
func (s *Store) CreateChat(ctx context.Context, title string) (types.Chat, error) {
	if title == "" {
		title = "New research"
	}
	now := time.Now().UTC()
	chat := types.Chat{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.Title, now.Format(timeFmt), now.Format(timeFmt))
	if err != nil {
		return types.Chat{}, fmt.Errorf("inserting chat: %w", err)
	}
	return chat, nil
}

// ErrNotFound is returned when a chat or message does not exist.
var ErrNotFound = fmt.Errorf("not found")

// GetChat returns a chat with its messages and their citations in
// chronological order.
func (s *Store) GetChat(ctx context.Context, chatID string) (types.Chat, error) {
	var chat types.Chat
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, chatID).
		Scan(&chat.ID, &chat.Title, &created, &updated)
	if err == sql.ErrNoRows {
		return types.Chat{}, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return types.Chat{}, fmt.Errorf("querying chat: %w", err)
	}
	chat.CreatedAt, _ = time.Parse(timeFmt, created)
	chat.UpdatedAt, _ = time.Parse(timeFmt, updated)

	messages, err := s.chatMessages(ctx, chatID)
	if err != nil {
		return types.Chat{}, err
	}
	chat.Messages = messages
	return chat, nil
}

func (s *Store) chatMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at FROM messages
		 WHERE chat_id = ? ORDER BY rowid`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		var created string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(timeFmt, created)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	for i := range messages {
		cites, err := s.messageCitations(ctx, messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].Citations = cites
	}
	return messages, nil
}

func (s *Store) messageCitations(ctx context.Context, messageID string) ([]types.Citation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, marker, identifier, title, cite, url, source
		 FROM citations WHERE message_id = ? ORDER BY marker`, messageID)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	var cites []types.Citation
	for rows.Next() {
		var c types.Citation
		var title, cite, url, source sql.NullString
		if err := rows.Scan(&c.ID, &c.MessageID, &c.Marker, &c.Identifier, &title, &cite, &url, &source); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		c.Title = title.String
		c.Cite = cite.String
		c.URL = url.String
		c.Source = source.String
		cites = append(cites, c)
	}
	return cites, rows.Err()
}

// ListChats returns all chats ordered by most recently updated, without
// their messages.
func (s *Store) ListChats(ctx context.Context) ([]types.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	var chats []types.Chat
	for rows.Next() {
		var c types.Chat
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		c.CreatedAt, _ = time.Parse(timeFmt, created)
		c.UpdatedAt, _ = time.Parse(timeFmt, updated)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// RenameChat updates a chat's title.
func (s *Store) RenameChat(ctx context.Context, chatID, title string) error {
	if title == "" {
		return fmt.Errorf("title must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC().Format(timeFmt), chatID)
	if err != nil {
		return fmt.Errorf("renaming chat: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	return nil
}

// DeleteChat removes a chat; messages and citations cascade.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	return nil
}

// AppendMessage inserts a message with its citations in one transaction
// and bumps the chat's updated_at.
func (s *Store) AppendMessage(ctx context.Context, chatID string, role types.MessageRole, content string, citations []types.Citation) (types.Message, error) {
	now := time.Now().UTC()
	msg := types.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Message{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, chatID, string(role), content, now.Format(timeFmt)); err != nil {
		return types.Message{}, fmt.Errorf("inserting message: %w", err)
	}

	for _, c := range citations {
		c.ID = uuid.NewString()
		c.MessageID = msg.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO citations (id, message_id, marker, identifier, title, cite, url, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.MessageID, c.Marker, c.Identifier, c.Title, c.Cite, c.URL, c.Source); err != nil {
			return types.Message{}, fmt.Errorf("inserting citation: %w", err)
		}
		msg.Citations = append(msg.Citations, c)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`,
		now.Format(timeFmt), chatID); err != nil {
		return types.Message{}, fmt.Errorf("touching chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Message{}, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// SearchHit is a message matched by full-text search, with its chat title.
type SearchHit struct {
	types.Message
	ChatTitle string `json:"chat_title"`
}

// SearchMessages runs FTS5 full-text search over message content across
// all chats. Results are ranked by FTS relevance. A zero maxResults uses
// the store default.
func (s *Store) SearchMessages(ctx context.Context, query string, maxResults int) ([]SearchHit, error) {
	match := ftsQuote(query)
	if match == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = s.maxSearchResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.chat_id, m.role, m.content, m.created_at, c.title
		 FROM messages_fts
		 JOIN messages m ON m.rowid = messages_fts.rowid
		 JOIN chats c ON c.id = m.chat_id
		 WHERE messages_fts MATCH ?
		 ORDER BY messages_fts.rank
		 LIMIT ?`, match, maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var created string
		if err := rows.Scan(&h.ID, &h.ChatID, &h.Role, &h.Content, &created, &h.ChatTitle); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		h.CreatedAt, _ = time.Parse(timeFmt, created)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

var ftsTermRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// ftsQuote rewrites a user query into quoted FTS5 terms so input cannot
// carry MATCH syntax: an unbalanced quote or a stray operator becomes a
// literal term instead of a query error. Only alphanumeric runs survive,
// which is what the unicode61 tokenizer would keep anyway.
func ftsQuote(query string) string {
	terms := ftsTermRe.FindAllString(query, -1)
	for i, term := range terms {
		terms[i] = `"` + term + `"`
	}
	return strings.Join(terms, " ")
}
