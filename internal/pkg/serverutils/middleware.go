package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docchat-be/internal/pkg/apperrors"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// response envelope. Typed AppErrors keep their status and code; anything
// else becomes an opaque 500 so internals never leak to clients.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return ctx.Status(appErr.Status).JSON(BaseResponse[any]{
				Success: false,
				Message: appErr.Message,
				Code:    appErr.Code,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
