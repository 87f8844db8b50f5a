package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

const minPasswordLength = 8

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateRegistration(req); err != nil {
		return writeError(c, s.logger, err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.db.CreateUser(c.Request().Context(), user); err != nil {
		return writeError(c, s.logger, err)
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusCreated, tokenResponse{Token: token})
}

func validateRegistration(req registerRequest) error {
	if req.Username == "" {
		return coreerrors.NewValidation("username", req.Username, "must not be empty")
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return coreerrors.NewValidation("email", req.Email, "must be a valid email address")
	}

	if len(req.Password) < minPasswordLength {
		return coreerrors.NewValidation("password", "", "must be at least 8 characters")
	}

	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	user, err := s.db.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable.
		if errors.Is(err, coreerrors.ErrUserNotFound) {
			return writeError(c, s.logger, coreerrors.ErrInvalidCredentials)
		}

		return writeError(c, s.logger, err)
	}

	if err := s.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return writeError(c, s.logger, err)
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// handleForgotPassword mints a reset token for the account. The response is
// 202 whether or not the email exists, so the route cannot be used to probe
// for registered addresses. Token delivery is the notifier's job; this
// handler only stores it.
func (s *Server) handleForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	user, err := s.db.GetUserByEmail(c.Request().Context(), req.Email)
	if err == nil {
		token := s.auth.NewResetToken(user.ID)

		if err := s.db.UpsertResetToken(c.Request().Context(), token); err != nil {
			return writeError(c, s.logger, err)
		}

		s.logger.Info().Str("user_id", user.ID).Msg("password reset token issued")
	}

	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if len(req.NewPassword) < minPasswordLength {
		return writeError(c, s.logger,
			coreerrors.NewValidation("new_password", "", "must be at least 8 characters"))
	}

	ctx := c.Request().Context()

	token, err := s.db.GetResetToken(ctx, req.Token)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	if token.Expired(time.Now()) {
		// Consume the stale token so it cannot be retried.
		if err := s.db.DeleteResetToken(ctx, token.UserID); err != nil {
			s.logger.Error().Err(err).Msg("failed to delete expired reset token")
		}

		return writeError(c, s.logger, coreerrors.ErrResetTokenExpired)
	}

	hash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	if err := s.db.UpdatePasswordHash(ctx, token.UserID, hash); err != nil {
		return writeError(c, s.logger, err)
	}

	if err := s.db.DeleteResetToken(ctx, token.UserID); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete consumed reset token")
	}

	return c.NoContent(http.StatusNoContent)
}

// handleDeleteAccount removes the authenticated user. Preferences and reset
// tokens cascade in the schema.
func (s *Server) handleDeleteAccount(c echo.Context) error {
	if err := s.db.DeleteUser(c.Request().Context(), userID(c)); err != nil {
		return writeError(c, s.logger, err)
	}

	return c.NoContent(http.StatusNoContent)
}
