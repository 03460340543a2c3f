package serverutils

import (
	"errors"

	"video-summary-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into JSON. Client errors
// keep their message; everything else is logged with its cause and
// answered with GenericErrorMessage.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorBody{Error: "invalid request", Fields: verr.Fields})
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Message))
		}

		log.Error("HTTP", "Request failed", map[string]interface{}{
			"request_id": RequestID(ctx),
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"error":      err,
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(GenericErrorMessage))
	}
}
