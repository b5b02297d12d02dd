package serverutils

import (
	"errors"

	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors returned by handlers into flat JSON
// bodies. Unknown errors become opaque 500s and get logged.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		status := statusFor(apperr.KindOf(err))
		if status == fiber.StatusInternalServerError {
			log.Error("http", "request failed", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ctx.Status(status).JSON(fiber.Map{"error": apperr.MessageOf(err)})
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized, apperr.KindInvalidCredentials:
		return fiber.StatusUnauthorized
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
