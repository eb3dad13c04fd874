package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/tilewright/mosaic/internal/errors"
	"github.com/tilewright/mosaic/internal/platform/config"
	"github.com/tilewright/mosaic/internal/session"
)

// Server is the HTTP collaborator around the mosaic engine: routing,
// multipart upload handling, CORS and session bookkeeping. It contains no
// mosaic logic of its own.
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	sessions  *session.Store
	startTime time.Time
}

func NewServer(cfg *config.Config, sessions *session.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType},
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		sessions:  sessions,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
