package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/platform/observability"
)

const userIDContextKey = "user_id"

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseToken(raw string) (string, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// resolved user id on the context. Identity resolution happens before any
// storage access.
func requireAuth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			}

			userID, err := parser.ParseToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			}

			c.Set(userIDContextKey, userID)

			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)

	return id
}

// requestLogging emits one structured log line per request and feeds the
// route/status counters.
func requestLogging(logger *zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			elapsed := time.Since(started)
			route := c.Path()
			status := c.Response().Status

			observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			observability.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

			logger.Info().
				Str("method", c.Request().Method).
				Str("route", route).
				Int("status", status).
				Dur("duration", elapsed).
				Msg("request handled")

			return nil
		}
	}
}
