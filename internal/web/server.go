// Package web serves the upload and download endpoints and mounts the MCP
// streamable HTTP transport.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/config"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/service"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 10 * time.Second

// maxUploadFiles bounds the body size of one upload request
const maxUploadFiles = 20

// Server is the HTTP surface of the service
type Server struct {
	cfg     *config.Config
	service *service.Service
	echo    *echo.Echo
	logger  *zap.Logger
}

// NewServer builds the router. mcpHandler is mounted at /mcp when not nil.
func NewServer(svc *service.Service, mcpHandler http.Handler, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger).Named("web")
	cfg := svc.Config()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxFileSize*maxUploadFiles, 10)))
	if cfg.Password != "" {
		e.Use(SharedPassword(cfg.Password))
	}

	s := &Server{cfg: cfg, service: svc, echo: e, logger: logger}

	e.GET("/health", s.handleHealth)
	e.POST("/upload", s.handleUpload)
	e.GET("/download-template", s.handleDownloadTemplate)
	e.GET("/download-form/:name", s.handleDownloadForm)
	if mcpHandler != nil {
		e.Any("/mcp", echo.WrapHandler(mcpHandler))
	}
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Address()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
