package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const SessionCookieName = "voicevibe_session"

// HistoryEntry is one turn of the ephemeral, session-scoped chat log. It is a
// shadow of the durable conversation store and dies with the session.
type HistoryEntry struct {
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the server-tracked authenticated state bound to a client cookie.
type Session struct {
	ID       string         `json:"id"`
	UserID   uuid.UUID      `json:"user_id"`
	Username string         `json:"username"`
	History  []HistoryEntry `json:"history"`
}

// SessionRepository is the server-side session store. Implementations enforce
// the TTL; Save on an existing session resets it.
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, bool, error)
	Delete(ctx context.Context, sessionID string) error
}
