package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/logging"
	"docvault/internal/service"
)

// errorPayload is the body of every error response.
type errorPayload struct {
	Message   string            `json:"message"`
	Code      string            `json:"code"`
	RequestID string            `json:"request_id"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// writeError writes the error envelope. message must be safe for clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Message:   message,
		Code:      code,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// respondError maps a service error to its HTTP status and envelope.
// Upstream failures are logged in full and reported opaquely.
func respondError(c *fiber.Ctx, err error) error {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(errorPayload{
			Message:   "validation failed",
			Code:      "VALIDATION_ERROR",
			RequestID: middleware.RequestIDFrom(c),
			Errors:    ve.Fields,
		})
	case errors.As(err, &nf):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", nf.Message)
	case errors.Is(err, auth.ErrTokenExpired):
		return writeError(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
	case errors.Is(err, auth.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "forbidden")
	}

	logging.From(c.UserContext()).Error("request_failed",
		zap.String("component", "http"),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return respondError(c, err)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
		case fiber.StatusForbidden:
			return writeError(c, fe.Code, "FORBIDDEN", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "payload too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
