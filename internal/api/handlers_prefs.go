package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aipulse/aipulse/internal/storage"
)

type preferencesRequest struct {
	Sources       []string `json:"sources"`
	VideoChannels []string `json:"video_channels"`
	Keywords      []string `json:"keywords"`
}

type preferencesResponse struct {
	Sources       []string `json:"sources"`
	VideoChannels []string `json:"video_channels"`
	Keywords      []string `json:"keywords"`
}

func (s *Server) handleGetPreferences(c echo.Context) error {
	prefs, err := s.db.GetPreferences(c.Request().Context(), userID(c))
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, preferencesResponse{
		Sources:       emptyIfNil(prefs.Sources),
		VideoChannels: emptyIfNil(prefs.VideoChannels),
		Keywords:      emptyIfNil(prefs.Keywords),
	})
}

// handleMergePreferences unions the request's values into the stored sets.
// Posting values that are already stored is a no-op, not an error.
func (s *Server) handleMergePreferences(c echo.Context) error {
	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	id := userID(c)

	err := s.db.MergePreferences(ctx, id, storage.PreferenceUpdate{
		Sources:       req.Sources,
		VideoChannels: req.VideoChannels,
		Keywords:      req.Keywords,
	})
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return s.respondWithPreferences(c, id)
}

// handleDeletePreferences removes the request's values from the stored sets.
// A body naming no values at all wipes every preference field for the user.
func (s *Server) handleDeletePreferences(c echo.Context) error {
	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	id := userID(c)

	err := s.db.SubtractPreferences(ctx, id, storage.PreferenceUpdate{
		Sources:       req.Sources,
		VideoChannels: req.VideoChannels,
		Keywords:      req.Keywords,
	})
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return s.respondWithPreferences(c, id)
}

func (s *Server) respondWithPreferences(c echo.Context, id string) error {
	prefs, err := s.db.GetPreferences(c.Request().Context(), id)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, preferencesResponse{
		Sources:       emptyIfNil(prefs.Sources),
		VideoChannels: emptyIfNil(prefs.VideoChannels),
		Keywords:      emptyIfNil(prefs.Keywords),
	})
}

func (s *Server) handleDashboard(c echo.Context) error {
	limit := intParam(c, "limit", 0)

	payload, err := s.composer.Compose(c.Request().Context(), userID(c), limit)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, payload)
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
