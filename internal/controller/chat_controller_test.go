package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"voicevibe-be/internal/repository/memory"
	"voicevibe-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/chat"},
		{http.MethodPost, "/voice"},
		{http.MethodGet, "/history"},
		{http.MethodGet, "/conversation/123"},
		{http.MethodGet, "/session-history"},
		{http.MethodPost, "/session-history"},
		{http.MethodDelete, "/session-history"},
		{http.MethodPost, "/settings"},
	}
	for _, p := range paths {
		resp, body := doJSON(t, app, p.method, p.path, nil, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", p.method, p.path)
		assert.Equal(t, "unauthorized", body["error"])
	}
}

// flakySessionRepo simulates a session-store outage on reads.
type flakySessionRepo struct {
	store.SessionRepository
	failGet bool
}

func (r *flakySessionRepo) Get(ctx context.Context, sessionID string) (*store.Session, bool, error) {
	if r.failGet {
		return nil, false, errors.New("connection refused")
	}
	return r.SessionRepository.Get(ctx, sessionID)
}

func TestSessionStoreOutageIsNotUnauthorized(t *testing.T) {
	repo := &flakySessionRepo{SessionRepository: memory.NewSessionRepository(time.Hour)}
	app, _ := newTestAppWithSessions(t, repo)
	cookie := registerUser(t, app, "alice")

	repo.failGet = true

	// A store outage with a valid cookie is a server fault, not a bad cookie.
	resp, body := doJSON(t, app, http.MethodPost, "/chat", fiber.Map{"message": "hi"}, cookie)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "storage unavailable", body["error"])
}

func TestChatEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/chat", fiber.Map{"message": "hi"}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fallbackReply("hi"), body["reply"])
}

func TestChatEndpointEmptyMessage(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	for _, payload := range []fiber.Map{{"message": ""}, {"message": "   "}, {}} {
		resp, body := doJSON(t, app, http.MethodPost, "/chat", payload, cookie)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "empty message", body["error"])
	}
}

func TestHistoryEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodGet, "/history", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, body["conversations"])

	_, chatBody := doJSON(t, app, http.MethodPost, "/chat", fiber.Map{"message": "hi"}, cookie)

	resp, body = doJSON(t, app, http.MethodGet, "/history", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	conversations, ok := body["conversations"].([]interface{})
	require.True(t, ok)
	require.Len(t, conversations, 1)

	summary := conversations[0].(map[string]interface{})
	assert.Equal(t, "Conversation", summary["title"])
	assert.NotEmpty(t, summary["id"])
	// The snippet is the latest message, which is the assistant reply.
	assert.Equal(t, chatBody["reply"], summary["snippet"])
}

func TestConversationEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	doJSON(t, app, http.MethodPost, "/chat", fiber.Map{"message": "question"}, cookie)

	_, body := doJSON(t, app, http.MethodGet, "/history", nil, cookie)
	conversations := body["conversations"].([]interface{})
	conversationID := conversations[0].(map[string]interface{})["id"].(string)

	resp, detail := doJSON(t, app, http.MethodGet, "/conversation/"+conversationID, nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, conversationID, detail["id"])

	messages, ok := detail["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "question", first["content"])
	second := messages[1].(map[string]interface{})
	assert.Equal(t, "assistant", second["role"])

	// Another user sees a 404, exactly like a missing conversation.
	otherCookie := registerUser(t, app, "mallory")
	resp, errBody := doJSON(t, app, http.MethodGet, "/conversation/"+conversationID, nil, otherCookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", errBody["error"])

	// A malformed id is also a 404, not a 400.
	resp, errBody = doJSON(t, app, http.MethodGet, "/conversation/not-a-uuid", nil, cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", errBody["error"])
}

func TestSessionHistoryEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodGet, "/session-history", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, body["history"])

	resp, body = doJSON(t, app, http.MethodPost, "/session-history", fiber.Map{"message": "hello"}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = doJSON(t, app, http.MethodPost, "/session-history", fiber.Map{
		"message": "hi back",
		"role":    "assistant",
	}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, "/session-history", nil, cookie)
	history, ok := body["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 2)

	first := history[0].(map[string]interface{})
	assert.Equal(t, "hello", first["text"])
	assert.Equal(t, "user", first["role"]) // defaulted
	second := history[1].(map[string]interface{})
	assert.Equal(t, "assistant", second["role"])

	resp, body = doJSON(t, app, http.MethodDelete, "/session-history", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "cleared", body["status"])

	_, body = doJSON(t, app, http.MethodGet, "/session-history", nil, cookie)
	assert.Empty(t, body["history"])
}

func TestSessionHistoryRejectsEmptyMessage(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/session-history", fiber.Map{"message": ""}, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no message provided", body["error"])
}

func TestVoiceEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doMultipartVoice(t, app, "clip.webm", cookie, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "(transcribed) placeholder for clip.webm", body["transcription"])
	assert.Equal(t, fallbackReply("(transcribed) placeholder for clip.webm"), body["response"])
}

func TestVoiceEndpointNoFile(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doMultipartVoice(t, app, "", cookie, false)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no audio file", body["error"])
}

func TestSettingsEndpointEchoes(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/settings", fiber.Map{"theme": "dark"}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	saved, ok := body["saved"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dark", saved["theme"])
}
