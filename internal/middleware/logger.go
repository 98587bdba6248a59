package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"forumhub/internal/metrics"
)

// ZapLogger logs every request with zap and counts it in the request metric.
// Severity follows the response status: 5xx Error, 4xx Warn, otherwise Info.
func ZapLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			err := next(c)
			if err != nil {
				// Let echo render the error now so the logged status is final.
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch n := res.Status; {
			case n >= http.StatusInternalServerError:
				log.Error("server error", fields...)
			case n >= http.StatusBadRequest:
				log.Warn("client error", fields...)
			default:
				log.Info("request", fields...)
			}

			metrics.IncRequest(req.Method, c.Path(), res.Status)
			return nil
		}
	}
}
