package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// whatsappOwnerID is the placeholder identity stamped on every conversation
// header. The WhatsApp channel has no authenticated user of its own.
const whatsappOwnerID = "whatsapp-bot"

// DefaultHistoryWindow is the number of recent messages fed back to the model.
const DefaultHistoryWindow = 20

// Store persists conversations and messages to PostgreSQL for long-term history.
type Store struct {
	db *sql.DB
}

// NewStore creates a new conversation store.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// MessageRecord represents a message in the database.
type MessageRecord struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}

// UpsertConversation ensures the header row exists; a conflict on id refreshes
// the title and updated_at instead of erroring.
func (s *Store) UpsertConversation(ctx context.Context, id uuid.UUID, title string) error {
	if s == nil || s.db == nil {
		return nil
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			updated_at = EXCLUDED.updated_at
	`, id, title, whatsappOwnerID, now)
	if err != nil {
		return fmt.Errorf("conversation: failed to upsert: %w", err)
	}
	return nil
}

// AppendMessage persists one turn. Messages are insert-only; ordering is by
// creation timestamp.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), conversationID, role, content, time.Now())
	if err != nil {
		return fmt.Errorf("conversation: failed to insert message: %w", err)
	}
	return nil
}

// LoadHistory returns the most recent `limit` messages in ascending creation
// order: the latest window is fetched descending and reversed, so the oldest
// of the recent window comes first.
func (s *Store) LoadHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]MessageRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}
	defer rows.Close()

	var newestFirst []MessageRecord
	for rows.Next() {
		var msg MessageRecord
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			continue
		}
		newestFirst = append(newestFirst, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: failed to read history: %w", err)
	}

	messages := make([]MessageRecord, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		messages = append(messages, newestFirst[i])
	}
	return messages, nil
}
