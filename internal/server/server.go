// Package server builds the echo instance and runs it with graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/paysync/internal/handler"
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Config holds HTTP server settings.
type Config struct {
	Port            uint16
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins enables CORS for browser clients. Empty disables it.
	AllowedOrigins []string

	// Production enables HSTS.
	Production bool
}

// Server wraps an echo instance.
type Server struct {
	echo   *echo.Echo
	config Config
	logger zerolog.Logger
}

// New creates the echo instance with the global middleware chain. Routes
// are registered on Echo() by the caller.
func New(cfg Config, metrics *middleware.Metrics, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.EchoErrorHandler

	security := middleware.DefaultSecurityHeadersConfig()
	if !cfg.Production {
		security.HSTSMaxAge = 0
	}

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			middleware.GetLogger(c.Request().Context(), &logger).Error().
				Err(err).
				Bytes("stack", stack).
				Msg("panic recovered")
			return err
		},
	}))

	chain := []func(http.Handler) http.Handler{
		middleware.WithClientIP(),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		middleware.AccessLog,
	}
	if metrics != nil {
		chain = append(chain, metrics.Middleware)
	}
	chain = append(chain, middleware.SecurityHeaders(security))
	if len(cfg.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.AllowedOrigins))
	}
	for _, fn := range chain {
		e.Use(echo.WrapMiddleware(fn))
	}
	e.Use(renderErrors)

	return &Server{echo: e, config: cfg, logger: logger}
}

// renderErrors writes handler and routing errors inside the middleware
// chain so access logs and metrics see the final status.
func renderErrors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			c.Echo().HTTPErrorHandler(err, c)
		}
		return nil
	}
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx is canceled, then drains in-flight requests for up
// to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := s.echo.Server
	srv.ReadTimeout = s.config.ReadTimeout
	srv.ReadHeaderTimeout = 5 * time.Second
	srv.WriteTimeout = s.config.WriteTimeout
	srv.IdleTimeout = s.config.IdleTimeout

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.logger.Info().Dur("timeout", timeout).Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
