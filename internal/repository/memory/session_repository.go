package memory

import (
	"context"
	"time"

	"voicevibe-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates an in-process session store. Sessions expire
// after ttl unless re-saved; expired items are purged every 10 minutes.
// Sessions are copied on the way in and out, so callers never share memory
// with the cache; concurrent requests on the same session each work on their
// own copy, same as the redis-backed store.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(_ context.Context, session *store.Session) error {
	r.cache.Set(session.ID, clone(session), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*store.Session, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		return clone(x.(*store.Session)), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func clone(session *store.Session) *store.Session {
	cp := *session
	cp.History = append([]store.HistoryEntry(nil), session.History...)
	return &cp
}
