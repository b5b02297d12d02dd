package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voicevibe-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "voicevibe:session:"

// SessionRepository keeps sessions in Redis so they survive process restarts
// and can be shared by multiple instances.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+session.ID, payload, r.ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, bool, error) {
	payload, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var session store.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, keyPrefix+sessionID).Err()
}
