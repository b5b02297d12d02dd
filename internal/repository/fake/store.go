// Package fake holds an in-memory repository factory used by service and
// HTTP tests. It interprets the subset of query specifications the services
// use, so tests run without a database.
package fake

import (
	"context"
	"sync"

	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/repository/contract"
	"voicevibe-be/internal/repository/specification"
	"voicevibe-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	mu            sync.Mutex
	users         []*entity.User
	conversations []*entity.Conversation
	messages      []*entity.Message

	// ForcedErr, when set, is returned by every repository call. Lets tests
	// exercise storage-failure paths.
	ForcedErr error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Factory() unitofwork.RepositoryFactory {
	return &factory{store: s}
}

// Users returns a snapshot of persisted users.
func (s *Store) Users() []*entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.User(nil), s.users...)
}

func (s *Store) Conversations() []*entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Conversation(nil), s.conversations...)
}

func (s *Store) Messages() []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Message(nil), s.messages...)
}

// AddConversation seeds a conversation directly, bypassing the service layer.
func (s *Store) AddConversation(c *entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.conversations = append(s.conversations, &cp)
}

func (s *Store) AddMessage(m *entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages = append(s.messages, &cp)
}

// factory / unit of work

type factory struct {
	store *Store
}

func (f *factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &uow{store: f.store}
}

type uow struct {
	store *Store
}

func (u *uow) Begin(ctx context.Context) error { return u.store.ForcedErr }
func (u *uow) Commit() error                   { return u.store.ForcedErr }
func (u *uow) Rollback() error                 { return nil }

func (u *uow) UserRepository() contract.UserRepository {
	return &userRepo{store: u.store}
}

func (u *uow) ConversationRepository() contract.ConversationRepository {
	return &conversationRepo{store: u.store}
}

func (u *uow) MessageRepository() contract.MessageRepository {
	return &messageRepo{store: u.store}
}

// query captures the specification subset the services rely on.

type query struct {
	byID             *uuid.UUID
	byUsername       *string
	ownedBy          *uuid.UUID
	byConversationID *uuid.UUID
	orderDesc        bool
	limit            int
}

func buildQuery(specs []specification.Specification) query {
	q := query{}
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			id := sp.ID
			q.byID = &id
		case specification.ByUsername:
			name := sp.Username
			q.byUsername = &name
		case specification.OwnedBy:
			id := sp.UserID
			q.ownedBy = &id
		case specification.ByConversationID:
			id := sp.ConversationID
			q.byConversationID = &id
		case specification.OrderBy:
			q.orderDesc = sp.Desc
		case specification.Limit:
			q.limit = sp.N
		}
	}
	return q
}

// user repository

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	for _, existing := range r.store.users {
		if existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	r.store.users = append(r.store.users, &cp)
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	kept := r.store.users[:0]
	for _, u := range r.store.users {
		if u.Id != id {
			kept = append(kept, u)
		}
	}
	r.store.users = kept
	return nil
}

func (r *userRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return nil, r.store.ForcedErr
	}
	q := buildQuery(specs)
	for _, u := range r.store.users {
		if q.byID != nil && u.Id != *q.byID {
			continue
		}
		if q.byUsername != nil && u.Username != *q.byUsername {
			continue
		}
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *userRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return 0, r.store.ForcedErr
	}
	return int64(len(r.store.users)), nil
}

// conversation repository

type conversationRepo struct {
	store *Store
}

func (r *conversationRepo) matching(q query) []*entity.Conversation {
	var matched []*entity.Conversation
	for _, c := range r.store.conversations {
		if q.byID != nil && c.Id != *q.byID {
			continue
		}
		if q.ownedBy != nil && (c.UserId == nil || *c.UserId != *q.ownedBy) {
			continue
		}
		matched = append(matched, c)
	}
	// Insertion order is creation order; desc just reverses it.
	if q.orderDesc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if q.limit > 0 && len(matched) > q.limit {
		matched = matched[:q.limit]
	}
	return matched
}

func (r *conversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	cp := *conversation
	r.store.conversations = append(r.store.conversations, &cp)
	return nil
}

func (r *conversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	for i, c := range r.store.conversations {
		if c.Id == conversation.Id {
			cp := *conversation
			r.store.conversations[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *conversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	kept := r.store.conversations[:0]
	for _, c := range r.store.conversations {
		if c.Id != id {
			kept = append(kept, c)
		}
	}
	r.store.conversations = kept
	return nil
}

func (r *conversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return nil, r.store.ForcedErr
	}
	matched := r.matching(buildQuery(specs))
	if len(matched) == 0 {
		return nil, nil
	}
	cp := *matched[0]
	return &cp, nil
}

func (r *conversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return nil, r.store.ForcedErr
	}
	matched := r.matching(buildQuery(specs))
	out := make([]*entity.Conversation, len(matched))
	for i, c := range matched {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (r *conversationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return 0, r.store.ForcedErr
	}
	return int64(len(r.matching(buildQuery(specs)))), nil
}

// message repository

type messageRepo struct {
	store *Store
}

func (r *messageRepo) matching(q query) []*entity.Message {
	var matched []*entity.Message
	for _, m := range r.store.messages {
		if q.byID != nil && m.Id != *q.byID {
			continue
		}
		if q.byConversationID != nil && m.ConversationId != *q.byConversationID {
			continue
		}
		matched = append(matched, m)
	}
	if q.orderDesc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if q.limit > 0 && len(matched) > q.limit {
		matched = matched[:q.limit]
	}
	return matched
}

func (r *messageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return r.store.ForcedErr
	}
	cp := *message
	r.store.messages = append(r.store.messages, &cp)
	return nil
}

func (r *messageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return nil, r.store.ForcedErr
	}
	matched := r.matching(buildQuery(specs))
	if len(matched) == 0 {
		return nil, nil
	}
	cp := *matched[0]
	return &cp, nil
}

func (r *messageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return nil, r.store.ForcedErr
	}
	matched := r.matching(buildQuery(specs))
	out := make([]*entity.Message, len(matched))
	for i, m := range matched {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (r *messageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.ForcedErr != nil {
		return 0, r.store.ForcedErr
	}
	return int64(len(r.matching(buildQuery(specs)))), nil
}
