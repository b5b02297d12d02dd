package controller

import (
	"time"

	"voicevibe-be/internal/dto"
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/service"
	"voicevibe-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	CheckAuth(ctx *fiber.Ctx) error
}

type authController struct {
	auth       service.IAuthService
	sessions   service.ISessionService
	ttlSeconds int
}

func NewAuthController(auth service.IAuthService, sessions service.ISessionService, ttlSeconds int) IAuthController {
	return &authController{
		auth:       auth,
		sessions:   sessions,
		ttlSeconds: ttlSeconds,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Post("/register", c.Register)
	r.Post("/login", c.Login)
	r.Get("/logout", c.Logout)
	r.Post("/logout", c.Logout)
	r.Get("/check-auth", c.CheckAuth)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid json body")
	}

	user, err := c.auth.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}

	// Registration logs the user in immediately.
	token, err := c.sessions.Start(ctx.Context(), user)
	if err != nil {
		return err
	}
	c.setSessionCookie(ctx, token)

	return ctx.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		Success: true,
		User:    dto.UserDTO{Id: user.Id, Username: user.Username},
	})
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid json body")
	}

	user, err := c.auth.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}

	token, err := c.sessions.Start(ctx.Context(), user)
	if err != nil {
		return err
	}
	c.setSessionCookie(ctx, token)

	return ctx.JSON(dto.AuthResponse{
		Success: true,
		User:    dto.UserDTO{Id: user.Id, Username: user.Username},
	})
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	token := ctx.Cookies(store.SessionCookieName)
	if err := c.sessions.End(ctx.Context(), token); err != nil {
		return err
	}
	c.clearSessionCookie(ctx)
	return ctx.JSON(fiber.Map{"success": true})
}

func (c *authController) CheckAuth(ctx *fiber.Ctx) error {
	token := ctx.Cookies(store.SessionCookieName)
	session, err := c.sessions.Authenticate(ctx.Context(), token)
	if err != nil {
		return ctx.JSON(dto.CheckAuthResponse{Authenticated: false})
	}

	userID := session.UserID
	return ctx.JSON(dto.CheckAuthResponse{Authenticated: true, UserID: &userID})
}

func (c *authController) setSessionCookie(ctx *fiber.Ctx, token string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     store.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   c.ttlSeconds,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (c *authController) clearSessionCookie(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     store.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
