package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"voicevibe-be/internal/pkg/logger"
	"voicevibe-be/internal/pkg/serverutils"
	"voicevibe-be/internal/repository/fake"
	"voicevibe-be/internal/repository/memory"
	"voicevibe-be/internal/service"
	"voicevibe-be/pkg/llm/fallback"
	"voicevibe-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// fallbackReply is what the echo provider answers for a given prompt.
func fallbackReply(prompt string) string {
	return fmt.Sprintf("You said: %s. (Server running in fallback mode; no LLM configured.)", prompt)
}

func newTestApp(t *testing.T) (*fiber.App, *fake.Store) {
	t.Helper()
	return newTestAppWithSessions(t, memory.NewSessionRepository(time.Hour))
}

func newTestAppWithSessions(t *testing.T, sessionRepo store.SessionRepository) (*fiber.App, *fake.Store) {
	t.Helper()

	repos := fake.NewStore()
	log := logger.NewNopLogger()

	sessions := service.NewSessionService(sessionRepo, "test-secret", log)
	auth := service.NewAuthService(repos.Factory(), log)
	chat := service.NewChatService(repos.Factory(), fallback.NewProvider(), time.Minute, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log))

	NewAuthController(auth, sessions, 86400).RegisterRoutes(app)
	NewChatController(chat, sessions, t.TempDir()).RegisterRoutes(app, serverutils.SessionMiddleware(sessions))

	return app, repos
}

// doJSON fires a JSON request at the app and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: store.SessionCookieName, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == store.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}

// registerUser registers a fresh account and returns its session cookie.
func registerUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/register", fiber.Map{
		"username": username,
		"password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "body: %v", body)
	return sessionCookie(t, resp)
}

func doMultipartVoice(t *testing.T, app *fiber.App, filename string, cookie string, withFile bool) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if withFile {
		part, err := writer.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("not really audio"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/voice", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: store.SessionCookieName, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}
