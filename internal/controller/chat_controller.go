package controller

import (
	"os"
	"path/filepath"
	"strings"

	"voicevibe-be/internal/dto"
	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/pkg/serverutils"
	"voicevibe-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, requireAuth fiber.Handler)
	Chat(ctx *fiber.Ctx) error
	Voice(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Conversation(ctx *fiber.Ctx) error
	GetSessionHistory(ctx *fiber.Ctx) error
	AddSessionHistory(ctx *fiber.Ctx) error
	ClearSessionHistory(ctx *fiber.Ctx) error
	Settings(ctx *fiber.Ctx) error
}

type chatController struct {
	chat      service.IChatService
	sessions  service.ISessionService
	uploadDir string
}

func NewChatController(chat service.IChatService, sessions service.ISessionService, uploadDir string) IChatController {
	return &chatController{
		chat:      chat,
		sessions:  sessions,
		uploadDir: uploadDir,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, requireAuth fiber.Handler) {
	r.Post("/chat", requireAuth, c.Chat)
	r.Post("/voice", requireAuth, c.Voice)
	r.Get("/history", requireAuth, c.History)
	r.Get("/conversation/:id", requireAuth, c.Conversation)
	r.Get("/session-history", requireAuth, c.GetSessionHistory)
	r.Post("/session-history", requireAuth, c.AddSessionHistory)
	r.Delete("/session-history", requireAuth, c.ClearSessionHistory)
	r.Post("/settings", requireAuth, c.Settings)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("empty message")
	}

	reply, err := c.chat.SendMessage(ctx.Context(), session.UserID, req.Message)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.ChatResponse{Reply: reply})
}

func (c *chatController) Voice(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	fileHeader, err := ctx.FormFile("audio")
	if err != nil {
		return apperr.Validation("no audio file")
	}

	filename := sanitizeFilename(fileHeader.Filename)
	path := filepath.Join(c.uploadDir, filename)
	if err := ctx.SaveFile(fileHeader, path); err != nil {
		return apperr.Storage(err)
	}
	// Best-effort cleanup; a leftover upload is not worth failing the request.
	defer os.Remove(path)

	transcription, reply, err := c.chat.SendVoice(ctx.Context(), session.UserID, filename)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.VoiceResponse{Transcription: transcription, Response: reply})
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	conversations, err := c.chat.ListConversations(ctx.Context(), session.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.HistoryResponse{Conversations: conversations})
}

func (c *chatController) Conversation(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	conversationID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperr.NotFound("not found")
	}

	detail, err := c.chat.GetConversation(ctx.Context(), session.UserID, conversationID)
	if err != nil {
		return err
	}

	return ctx.JSON(detail)
}

func (c *chatController) GetSessionHistory(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	history, err := c.sessions.History(ctx.Context(), session.ID)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.SessionHistoryResponse{History: history})
}

func (c *chatController) AddSessionHistory(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	var req dto.SessionHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("no message provided")
	}
	if req.Message == "" {
		return apperr.Validation("no message provided")
	}
	role := req.Role
	if role == "" {
		role = entity.MessageRoleUser
	}

	if err := c.sessions.AppendHistory(ctx.Context(), session.ID, req.Message, role); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (c *chatController) ClearSessionHistory(ctx *fiber.Ctx) error {
	session := serverutils.SessionFromCtx(ctx)

	if err := c.sessions.ClearHistory(ctx.Context(), session.ID); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"status": "cleared"})
}

// Settings echoes the payload back. Persisting user settings is not
// implemented.
func (c *chatController) Settings(ctx *fiber.Ctx) error {
	var data map[string]interface{}
	if err := ctx.BodyParser(&data); err != nil {
		data = map[string]interface{}{}
	}
	return ctx.JSON(fiber.Map{"status": "ok", "saved": data})
}

// sanitizeFilename strips any path components from a client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "voice.webm"
	}
	return name
}
