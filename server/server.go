// Package server exposes the planner and the executor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/telemetry"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey    = "request_id"
	shutdownTimeout = 10 * time.Second
)

// Planner builds plans. *planner.Planner implements it.
type Planner interface {
	GeneratePlan(ctx context.Context, query string) (*graphplan.Plan, error)
}

// Executor runs plans. *runner.Runner implements it.
type Executor interface {
	Execute(ctx context.Context, plan *graphplan.Plan) ([]graphplan.Record, error)
}

// Server is the HTTP surface.
type Server struct {
	planner  Planner
	executor Executor
	catalog  *catalog.Catalog
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m on /metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server and registers its routes. cat must be the catalog the
// planner classifies against.
func New(p Planner, e Executor, cat *catalog.Catalog, opts ...Option) *Server {
	if cat == nil {
		cat = catalog.Empty()
	}

	s := &Server{
		planner:  p,
		executor: e,
		catalog:  cat,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("graphplan"))
	engine.Use(s.requestID())

	v1 := engine.Group("/v1")
	{
		v1.POST("/plan", s.handlePlan)
		v1.POST("/ask", s.handleAsk)
		v1.GET("/intents", s.handleIntents)
	}

	engine.GET("/healthz", s.handleHealth)

	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.engine = engine

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	return nil
}

// requestID tags each request with the caller's X-Request-ID or a new uuid.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger(c *gin.Context, handler string) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("handler", handler))
}
