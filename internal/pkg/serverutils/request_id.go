package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware stores a request id in Locals and echoes it back.
// A well-formed incoming X-Request-ID is kept.
func RequestIDMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Locals(RequestIDKey, id)
		ctx.Set(RequestIDHeader, id)
		return ctx.Next()
	}
}

func RequestID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(RequestIDKey).(string)
	return id
}
