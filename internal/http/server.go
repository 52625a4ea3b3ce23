// Package http provides the voicetask HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/auth"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
)

const maxBodySize = "64K"

// Processor is the processInput pipeline.
type Processor interface {
	ProcessInput(ctx context.Context, userID string, req service.Request) (*service.Response, error)
}

// Server provides HTTP endpoints for voicetask.
type Server struct {
	echo      *echo.Echo
	processor Processor
	tokens    auth.TokenValidator
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	limiter   *userLimiter
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	Version        string

	// RateLimit is the per-user token bucket; zero RPS disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Deps are the collaborators the server needs.
type Deps struct {
	Processor Processor
	Tokens    auth.TokenValidator
	Logger    *logging.Logger
	// Telemetry is optional; it feeds /health and the HTTP metrics.
	Telemetry *telemetry.Telemetry
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if deps.Processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token validator cannot be nil")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		processor: deps.Processor,
		tokens:    deps.Tokens,
		logger:    deps.Logger.Named("http"),
		telemetry: deps.Telemetry,
		config:    cfg,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = newUserLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	var metrics *HTTPMetrics
	if deps.Telemetry != nil {
		metrics = NewHTTPMetrics(deps.Telemetry.Meter(httpInstrumentationName), s.logger)
	} else {
		metrics = NewHTTPMetrics(nil, s.logger)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.MetricsMiddleware())
	e.Use(s.requestLogger())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	nlp := v1.Group("/nlp", middleware.BodyLimit(maxBodySize), s.requireAuth, s.rateLimit)
	if s.config.RequestTimeout > 0 {
		nlp.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.RequestTimeout,
		}))
	}
	nlp.POST("/process-input", s.handleProcessInput)
}

// requestLogger logs one line per request with the request ID in context.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := c.Request().Context()
			if logging.ValidID(reqID) {
				ctx = logging.WithRequestID(ctx, reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			err := next(c)
			if err != nil {
				// Let echo write the error so the logged status is final.
				c.Error(err)
			}

			s.logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}
}

// handleHealth reports liveness and telemetry health.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version}
	if s.telemetry != nil && s.telemetry.IsEnabled() {
		h := s.telemetry.Health()
		resp.Telemetry = &h
		if !h.Healthy || h.Degraded {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleProcessInput validates, analyzes and assembles a task draft.
func (s *Server) handleProcessInput(c echo.Context) error {
	ctx := c.Request().Context()
	userID := logging.UserIDFromContext(ctx)

	var req ProcessInputRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid process-input request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	source := task.Source(req.Source)
	if req.Source != "" && !source.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "source must be 'voice' or 'typed'"})
	}

	resp, err := s.processor.ProcessInput(ctx, userID, service.Request{
		Text:   req.InputText,
		Source: source,
		Title:  req.Title,
	})
	if err != nil {
		return s.writeProcessError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) writeProcessError(c echo.Context, err error) error {
	var (
		verr *service.ValidationError
		terr *service.ThrottleError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:    "validation failed",
			Errors:   verr.Errors,
			Warnings: verr.Warnings,
		})
	case errors.As(err, &terr):
		secs := terr.RetryAfterSeconds()
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:             "submitted too soon",
			RetryAfterSeconds: secs,
		})
	default:
		s.logger.Error(c.Request().Context(), "process input failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: service.ErrProcessing.Error()})
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
