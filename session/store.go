// Package session persists per-conversation chat history so the chat
// endpoint can thread prior turns into the generation prompt.
package session

import (
	"context"
	"time"
)

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is a conversation keyed by its id.
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	Messages  []Message `bson:"messages" json:"messages"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Store persists sessions. Implementations must be safe for concurrent
// use.
type Store interface {
	// Append adds messages to the session, creating it if needed.
	Append(ctx context.Context, sessionID string, messages ...Message) error
	// History returns up to limit most recent messages, oldest first.
	// A missing session yields an empty history, not an error.
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// Delete removes a session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, sessionID string) error
	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
