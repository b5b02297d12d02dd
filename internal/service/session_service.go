package service

import (
	"context"
	"time"

	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/pkg/logger"
	"voicevibe-be/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ISessionService interface {
	Start(ctx context.Context, user *entity.User) (string, error)
	Authenticate(ctx context.Context, token string) (*store.Session, error)
	End(ctx context.Context, token string) error

	AppendHistory(ctx context.Context, sessionID, text, role string) error
	History(ctx context.Context, sessionID string) ([]store.HistoryEntry, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// sessionService binds an authenticated user to a cookie token. The cookie
// carries an HS256-signed JWT holding only the session id; all session state
// lives server-side with a flat TTL that is reset on every authenticated hit.
type sessionService struct {
	sessions store.SessionRepository
	secret   []byte
	log      logger.ILogger
}

func NewSessionService(sessions store.SessionRepository, secret string, log logger.ILogger) ISessionService {
	return &sessionService{
		sessions: sessions,
		secret:   []byte(secret),
		log:      log,
	}
}

func (s *sessionService) Start(ctx context.Context, user *entity.User) (string, error) {
	session := &store.Session{
		ID:       uuid.NewString(),
		UserID:   user.Id,
		Username: user.Username,
		History:  []store.HistoryEntry{},
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", apperr.Storage(err)
	}

	claims := jwt.MapClaims{
		"sid": session.ID,
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	s.log.Info("session", "session started", map[string]interface{}{
		"session_id": session.ID,
		"user_id":    user.Id.String(),
	})

	return signed, nil
}

func (s *sessionService) Authenticate(ctx context.Context, token string) (*store.Session, error) {
	sid, err := s.parseToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("unauthorized")
	}

	session, found, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !found {
		return nil, apperr.Unauthorized("unauthorized")
	}

	// Re-save to reset the TTL: a session only dies after a full idle window.
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperr.Storage(err)
	}

	return session, nil
}

// End is idempotent: a garbage or already-expired token is a no-op.
func (s *sessionService) End(ctx context.Context, token string) error {
	sid, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return apperr.Storage(err)
	}
	s.log.Info("session", "session ended", map[string]interface{}{
		"session_id": sid,
	})
	return nil
}

func (s *sessionService) AppendHistory(ctx context.Context, sessionID, text, role string) error {
	session, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return apperr.Storage(err)
	}
	if !found {
		return apperr.Unauthorized("unauthorized")
	}

	session.History = append(session.History, store.HistoryEntry{
		Text:      text,
		Role:      role,
		Timestamp: time.Now().UTC(),
	})
	if err := s.sessions.Save(ctx, session); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *sessionService) History(ctx context.Context, sessionID string) ([]store.HistoryEntry, error) {
	session, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !found {
		return nil, apperr.Unauthorized("unauthorized")
	}
	if session.History == nil {
		return []store.HistoryEntry{}, nil
	}
	return session.History, nil
}

func (s *sessionService) ClearHistory(ctx context.Context, sessionID string) error {
	session, found, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return apperr.Storage(err)
	}
	if !found {
		return apperr.Unauthorized("unauthorized")
	}

	session.History = []store.HistoryEntry{}
	if err := s.sessions.Save(ctx, session); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *sessionService) parseToken(token string) (string, error) {
	if token == "" {
		return "", jwt.ErrTokenMalformed
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", jwt.ErrTokenMalformed
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", jwt.ErrTokenMalformed
	}
	return sid, nil
}
