package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"documind/internal/logging"
)

// Logger writes one structured line per request with the fields request_id,
// method, path, status and latency (milliseconds); the ts field comes from
// the logger. Server errors log at error level and client errors at warn.
func Logger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		rid := GetRequestID(c)

		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = logger.Error()
		case status >= fiber.StatusBadRequest:
			ev = logger.Warn()
		default:
			ev = logger.Info()
		}
		ev.Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Send()

		return err
	}
}

// LoggerWithWriter logs request lines as JSON to w, stamping ts in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	logger, _ := logging.New(logging.Options{Level: "debug", Writer: w, Location: loc})
	return Logger(logger)
}
