package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"MomentumPull/pkg/http/middleware"
	applogger "MomentumPull/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers a group of routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORS            bool
	MetricsPath     string
	SlowThreshold   time.Duration
	Logger          *applogger.Logger
}

// Server wraps Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	log    *applogger.Logger
}

// NewServer creates a new HTTP server with Echo. Every handler registers its routes.
func NewServer(handlers []Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORS:            true,
		MetricsPath:     "/metrics",
		SlowThreshold:   time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	// Middleware
	e.Use(middleware.Recover(l))
	e.Use(middleware.RequestLogging(l))
	e.Use(middleware.Metrics(l, cfg.SlowThreshold))

	if cfg.CORS {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet,
				http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
			},
		}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return SuccessResponse(c, map[string]string{"status": "ok"})
	})

	for _, h := range handlers {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}

	// Expose Prometheus metrics endpoint for scraping
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{
		echo:   e,
		config: cfg,
		log:    l,
	}
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORS enables/disables CORS.
func WithCORS(enabled bool) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = enabled
	}
}

// WithMetricsPath sets the scrape path; empty disables it.
func WithMetricsPath(path string) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsPath = path
	}
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *ServerConfig) {
		c.Logger = l
	}
}
