package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voicevibe-be/internal/dto"
	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/pkg/logger"
	"voicevibe-be/internal/repository/specification"
	"voicevibe-be/internal/repository/unitofwork"
	"voicevibe-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	conversationListLimit = 50
	snippetLength         = 160
)

type IChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, message string) (string, error)
	SendVoice(ctx context.Context, userID uuid.UUID, filename string) (transcription string, reply string, err error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*dto.ConversationSummary, error)
	GetConversation(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID) (*dto.ConversationDetail, error)
}

// chatService orchestrates one chat turn: resolve the active conversation,
// persist the user message, invoke the collaborator, persist the reply.
type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.Provider
	timeout    time.Duration
	log        logger.ILogger
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, provider llm.Provider, timeout time.Duration, log logger.ILogger) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		provider:   provider,
		timeout:    timeout,
		log:        log,
	}
}

func (s *chatService) SendMessage(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return "", apperr.Validation("empty message")
	}
	return s.turn(ctx, userID, text)
}

// SendVoice runs the same persistence path as a text turn with a placeholder
// transcription. Real speech-to-text is not implemented.
func (s *chatService) SendVoice(ctx context.Context, userID uuid.UUID, filename string) (string, string, error) {
	transcription := fmt.Sprintf("(transcribed) placeholder for %s", filename)
	reply, err := s.turn(ctx, userID, transcription)
	if err != nil {
		return "", "", err
	}
	return transcription, reply, nil
}

func (s *chatService) turn(ctx context.Context, userID uuid.UUID, text string) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := s.activeConversation(ctx, uow, userID)
	if err != nil {
		return "", err
	}

	sentAt := time.Now()
	reply := s.complete(ctx, text)

	// created_at is the only ordering key and Postgres keeps microseconds; a
	// fallback reply can land in the same microsecond as the user message.
	repliedAt := time.Now()
	if floor := sentAt.Add(time.Microsecond); repliedAt.Before(floor) {
		repliedAt = floor
	}

	// Both writes commit together so a persisted user message always has its
	// reply alongside it.
	if err := uow.Begin(ctx); err != nil {
		return "", apperr.Storage(err)
	}
	defer uow.Rollback()

	userMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           entity.MessageRoleUser,
		Content:        text,
		CreatedAt:      sentAt,
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return "", apperr.Storage(err)
	}

	assistantMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           entity.MessageRoleAssistant,
		Content:        reply,
		CreatedAt:      repliedAt,
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		return "", apperr.Storage(err)
	}

	if err := uow.Commit(); err != nil {
		return "", apperr.Storage(err)
	}

	s.log.Info("chat", "turn processed", map[string]interface{}{
		"conversation_id": conversation.Id.String(),
		"user_id":         userID.String(),
	})

	return reply, nil
}

// complete calls the collaborator under a deadline. The collaborator contract
// never fails a request: on error the user gets an apology string instead.
func (s *chatService) complete(ctx context.Context, text string) string {
	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.provider.Chat(llmCtx, []llm.Message{{Role: entity.MessageRoleUser, Content: text}})
	if err != nil {
		s.log.Error("chat", "llm call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "I'm sorry, the LLM call failed. Please try again."
	}
	return reply
}

// activeConversation returns the user's most recently created conversation,
// creating one when none exists. There is no explicit "new conversation"
// action; this reuse policy is intentional.
func (s *chatService) activeConversation(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if conversation != nil {
		return conversation, nil
	}

	owner := userID
	conversation = &entity.Conversation{
		Id:        uuid.New(),
		UserId:    &owner,
		Title:     entity.DefaultConversationTitle,
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, apperr.Storage(err)
	}

	s.log.Info("chat", "conversation created", map[string]interface{}{
		"conversation_id": conversation.Id.String(),
		"user_id":         userID.String(),
	})

	return conversation, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*dto.ConversationSummary, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: conversationListLimit},
	)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	summaries := make([]*dto.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		last, err := uow.MessageRepository().FindOne(ctx,
			specification.ByConversationID{ConversationID: conversation.Id},
			specification.OrderBy{Field: "created_at", Desc: true},
		)
		if err != nil {
			return nil, apperr.Storage(err)
		}

		snippet := ""
		if last != nil {
			snippet = truncate(last.Content, snippetLength)
		}

		summaries = append(summaries, &dto.ConversationSummary{
			Id:        conversation.Id,
			Title:     conversation.Title,
			CreatedAt: conversation.CreatedAt,
			Snippet:   snippet,
		})
	}

	return summaries, nil
}

func (s *chatService) GetConversation(ctx context.Context, userID uuid.UUID, conversationID uuid.UUID) (*dto.ConversationDetail, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationID})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if conversation == nil {
		return nil, apperr.NotFound("not found")
	}

	// Ownership is enforced; a foreign conversation looks identical to a
	// missing one. Legacy rows without an owner stay readable.
	if conversation.UserId != nil && *conversation.UserId != userID {
		return nil, apperr.NotFound("not found")
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversation.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	detail := &dto.ConversationDetail{
		Id:       conversation.Id,
		Title:    conversation.Title,
		Messages: make([]dto.MessageDTO, len(messages)),
	}
	for i, message := range messages {
		detail.Messages[i] = dto.MessageDTO{
			Role:      message.Role,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		}
	}

	return detail, nil
}

// truncate is rune-safe so a multi-byte character is never split.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
