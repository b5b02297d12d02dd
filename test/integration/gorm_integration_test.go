package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/repository/specification"
	"voicevibe-be/internal/repository/unitofwork"
	"voicevibe-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGormRoundTrip exercises the real repository stack against Postgres.
// Run cmd/migrate first; the test skips when DB_CONNECTION_STRING is unset.
func TestGormRoundTrip(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	sqlDB, _ := gormDB.DB()
	require.NoError(t, sqlDB.Ping())

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	ctx := context.Background()
	uow := uowFactory.NewUnitOfWork(ctx)

	userID := uuid.New()
	user := &entity.User{
		Id:           userID,
		Username:     "integration-" + uuid.NewString(),
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotare",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	defer uow.UserRepository().Delete(context.Background(), userID)

	t.Run("duplicate username rejected", func(t *testing.T) {
		dup := &entity.User{
			Id:           uuid.New(),
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			CreatedAt:    time.Now(),
		}
		err := uow.UserRepository().Create(ctx, dup)
		assert.Error(t, err)
	})

	conversationID := uuid.New()
	owner := userID
	conversation := &entity.Conversation{
		Id:        conversationID,
		UserId:    &owner,
		Title:     entity.DefaultConversationTitle,
		CreatedAt: time.Now(),
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))

	t.Run("transactional turn write", func(t *testing.T) {
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		userMessage := &entity.Message{
			Id:             uuid.New(),
			ConversationId: conversationID,
			Role:           entity.MessageRoleUser,
			Content:        "integration question",
			CreatedAt:      time.Now(),
		}
		require.NoError(t, txUow.MessageRepository().Create(ctx, userMessage))

		assistantMessage := &entity.Message{
			Id:             uuid.New(),
			ConversationId: conversationID,
			Role:           entity.MessageRoleAssistant,
			Content:        "integration answer",
			CreatedAt:      time.Now().Add(time.Millisecond),
		}
		require.NoError(t, txUow.MessageRepository().Create(ctx, assistantMessage))
		require.NoError(t, txUow.Commit())
	})

	t.Run("messages come back in order", func(t *testing.T) {
		messages, err := uow.MessageRepository().FindAll(ctx,
			specification.ByConversationID{ConversationID: conversationID},
			specification.OrderBy{Field: "created_at"},
		)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, entity.MessageRoleUser, messages[0].Role)
		assert.Equal(t, entity.MessageRoleAssistant, messages[1].Role)
	})

	t.Run("owned conversations newest first", func(t *testing.T) {
		conversations, err := uow.ConversationRepository().FindAll(ctx,
			specification.OwnedBy{UserID: userID},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Limit{N: 50},
		)
		require.NoError(t, err)
		require.NotEmpty(t, conversations)
		assert.Equal(t, conversationID, conversations[0].Id)
	})

	t.Run("deleting the user cascades", func(t *testing.T) {
		require.NoError(t, uow.UserRepository().Delete(ctx, userID))

		conversation, err := uow.ConversationRepository().FindOne(ctx,
			specification.ByID{ID: conversationID},
		)
		require.NoError(t, err)
		assert.Nil(t, conversation)

		count, err := uow.MessageRepository().Count(ctx,
			specification.ByConversationID{ConversationID: conversationID},
		)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
