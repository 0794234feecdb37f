package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/synpt/backend/internal/model/chat"
)

const chatsSchema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	model_name TEXT NOT NULL,
	model_size INTEGER NOT NULL,
	messages   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore implements ChatStore on an embedded SQLite file. Messages are
// stored as a JSON blob per chat; per-message updates are read-modify-write
// inside a transaction, which is safe under the single-writer-per-chat
// assumption.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer; one shared connection serializes callers
	// through database/sql instead of hitting write locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(chatsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func marshalMessages(messages []chat.Message) (string, error) {
	if messages == nil {
		messages = []chat.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	return string(data), nil
}

// Create assigns an id and timestamps and inserts the chat.
func (s *SQLiteStore) Create(ctx context.Context, c chat.Chat) (chat.Chat, error) {
	now := chat.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Messages == nil {
		c.Messages = []chat.Message{}
	}

	messages, err := marshalMessages(c.Messages)
	if err != nil {
		return chat.Chat{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, model_name, model_size, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Model.Name, c.Model.Size, messages, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return chat.Chat{}, fmt.Errorf("insert chat: %w", err)
	}

	return c, nil
}

func scanChat(row interface{ Scan(...any) error }) (chat.Chat, error) {
	var c chat.Chat
	var messages string
	err := row.Scan(&c.ID, &c.Title, &c.Model.Name, &c.Model.Size, &messages, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return chat.Chat{}, err
	}
	if err := json.Unmarshal([]byte(messages), &c.Messages); err != nil {
		return chat.Chat{}, fmt.Errorf("unmarshal messages: %w", err)
	}
	return c, nil
}

// Get returns the chat for id or ErrChatNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (chat.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, model_name, model_size, messages, created_at, updated_at
		FROM chats WHERE id = ?`, id)

	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return chat.Chat{}, fmt.Errorf("get chat %s: %w", id, err)
	}
	return c, nil
}

// List returns all chats, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]chat.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, model_name, model_size, messages, created_at, updated_at
		FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]chat.Chat, 0, 8)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("list chats: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// Update replaces title, model and messages, refreshing updated_at.
func (s *SQLiteStore) Update(ctx context.Context, id string, c chat.Chat) (chat.Chat, error) {
	messages, err := marshalMessages(c.Messages)
	if err != nil {
		return chat.Chat{}, err
	}

	now := chat.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats SET title = ?, model_name = ?, model_size = ?, messages = ?, updated_at = ?
		WHERE id = ?`,
		c.Title, c.Model.Name, c.Model.Size, messages, now, id)
	if err != nil {
		return chat.Chat{}, fmt.Errorf("update chat %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return chat.Chat{}, ErrChatNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes the chat.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// ReplaceMessages swaps the chat's entire message list.
func (s *SQLiteStore) ReplaceMessages(ctx context.Context, id string, messages []chat.Message) error {
	encoded, err := marshalMessages(messages)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE chats SET messages = ?, updated_at = ? WHERE id = ?`,
		encoded, chat.Now(), id)
	if err != nil {
		return fmt.Errorf("replace messages for chat %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// UpdateMessage rewrites one message in place.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, id string, index int, content string, sections []chat.Section, streaming bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	defer tx.Rollback()

	var encoded string
	err = tx.QueryRowContext(ctx, `SELECT messages FROM chats WHERE id = ?`, id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("update message for chat %s: %w", id, err)
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(encoded), &messages); err != nil {
		return fmt.Errorf("unmarshal messages for chat %s: %w", id, err)
	}
	if index < 0 || index >= len(messages) {
		return ErrMessageIndex
	}

	messages[index].Content = content
	messages[index].Sections = sections
	messages[index].IsStreaming = streaming

	updated, err := marshalMessages(messages)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE chats SET messages = ?, updated_at = ? WHERE id = ?`,
		updated, chat.Now(), id); err != nil {
		return fmt.Errorf("update message for chat %s: %w", id, err)
	}

	return tx.Commit()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
