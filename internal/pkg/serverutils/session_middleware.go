package serverutils

import (
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/service"
	"voicevibe-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

const SessionLocalsKey = "session"

// SessionMiddleware gates a route on a valid session cookie. Authentication
// also refreshes the session TTL, so activity keeps a session alive.
func SessionMiddleware(sessions service.ISessionService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := ctx.Cookies(store.SessionCookieName)
		session, err := sessions.Authenticate(ctx.Context(), token)
		if err != nil {
			switch apperr.KindOf(err) {
			case apperr.KindUnauthorized, apperr.KindInvalidCredentials:
				return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
			default:
				// A session-store outage is a server fault, not a bad cookie.
				return err
			}
		}

		ctx.Locals(SessionLocalsKey, session)
		return ctx.Next()
	}
}

// SessionFromCtx returns the session attached by SessionMiddleware.
func SessionFromCtx(ctx *fiber.Ctx) *store.Session {
	session, _ := ctx.Locals(SessionLocalsKey).(*store.Session)
	return session
}
