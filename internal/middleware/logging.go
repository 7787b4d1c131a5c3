package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tresh-api/internal/logging"
)

// RequestLogger logs one line per request with method, path, status and
// latency. 5xx responses are logged at error level.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
			}
			if id, ok := UserID(c); ok {
				args = append(args, "user_id", id)
			}
			switch {
			case status >= 500:
				if err != nil {
					args = append(args, "err", err)
				}
				log.Error(req.Context(), "request", args...)
			case status >= 400:
				log.Warn(req.Context(), "request", args...)
			default:
				log.Info(req.Context(), "request", args...)
			}
			return nil
		}
	}
}
