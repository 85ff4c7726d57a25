package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docvault/internal/logging"
)

// Logger writes one access log line per request and places a request-scoped
// logger, tagged with request_id and the active trace_id, in the user context
// for downstream code.
func Logger(base logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqFields := []zap.Field{zap.String("request_id", RequestIDFrom(c))}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			reqFields = append(reqFields, zap.String("trace_id", sc.TraceID().String()))
		}
		reqLogger := base.With(reqFields...)
		c.SetUserContext(logging.With(c.UserContext(), reqLogger))

		err := c.Next()

		status := statusOf(c, err)
		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, zap.Int64("user_id", p.UserID))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			base.Error("http_request", fields...)
		case status >= fiber.StatusBadRequest:
			base.Warn("http_request", fields...)
		default:
			base.Info("http_request", fields...)
		}
		return err
	}
}

// statusOf returns the status the response will carry once the global error
// handler has rendered err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
