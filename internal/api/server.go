// Package api serves the REST surface: filtered content views, metrics and
// trend aggregations, account management, and the per-user dashboard.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/auth"
	"github.com/aipulse/aipulse/internal/dashboard"
	"github.com/aipulse/aipulse/internal/storage"
)

// Server wires the HTTP surface over storage, auth, and the dashboard
// composer.
type Server struct {
	echo     *echo.Echo
	db       *storage.DB
	auth     *auth.Service
	composer *dashboard.Composer
	logger   *zerolog.Logger
}

// New builds the server and registers all routes.
func New(db *storage.DB, authSvc *auth.Service, composer *dashboard.Composer, logger *zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		db:       db,
		auth:     authSvc,
		composer: composer,
		logger:   logger,
	}

	e.Use(echomiddleware.Recover())
	e.Use(requestLogging(logger))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	s.echo.GET("/readyz", s.handleReady)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")

	v1.GET("/articles", s.handleListArticles)
	v1.GET("/scientific-articles", s.handleListScientificArticles)
	v1.GET("/videos", s.handleListVideos)

	v1.GET("/metrics/articles-by-source", s.handleArticlesBySource)
	v1.GET("/metrics/keyword-frequency", s.handleKeywordFrequency)
	v1.GET("/metrics/ingest-runs", s.handleIngestRuns)

	v1.GET("/trends/keywords", s.handleTrendingKeywords)

	v1.POST("/auth/register", s.handleRegister)
	v1.POST("/auth/login", s.handleLogin)
	v1.POST("/auth/forgot-password", s.handleForgotPassword)
	v1.POST("/auth/reset-password", s.handleResetPassword)

	authed := v1.Group("", requireAuth(s.auth))
	authed.GET("/dashboard", s.handleDashboard)
	authed.GET("/user-preferences", s.handleGetPreferences)
	authed.POST("/user-preferences", s.handleMergePreferences)
	authed.DELETE("/user-preferences", s.handleDeletePreferences)
	authed.DELETE("/auth/account", s.handleDeleteAccount)
}

func (s *Server) handleReady(c echo.Context) error {
	if err := s.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	}

	return c.NoContent(http.StatusOK)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
