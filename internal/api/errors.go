package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP responses. Validation failures
// echo the offending input back; storage failures are logged with the query
// shape and surface as an opaque server error.
func writeError(c echo.Context, logger *zerolog.Logger, err error) error {
	var validationErr *coreerrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	}

	switch {
	case errors.Is(err, coreerrors.ErrNotFound),
		errors.Is(err, coreerrors.ErrUserNotFound),
		errors.Is(err, coreerrors.ErrPreferencesNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})

	case errors.Is(err, coreerrors.ErrUnauthorized),
		errors.Is(err, coreerrors.ErrInvalidCredentials),
		errors.Is(err, coreerrors.ErrResetTokenNotFound),
		errors.Is(err, coreerrors.ErrResetTokenExpired):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})

	case errors.Is(err, coreerrors.ErrEmailTaken):
		return c.JSON(http.StatusConflict, errorResponse{Error: "email already registered"})
	}

	var queryErr *coreerrors.QueryError
	if errors.As(err, &queryErr) {
		logger.Error().Err(queryErr.Err).Str("query", queryErr.Query).Msg("query failed")

		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")

	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
