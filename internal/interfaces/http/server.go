// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/application/service"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics records request telemetry and serves the exposition endpoint
type Metrics interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
	Handler() http.Handler
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxBulkItems bounds the size of one bulk transition request
	MaxBulkItems int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBulkItems:    500,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config          ServerConfig
	httpServer      *http.Server
	router          *gin.Engine
	workflowService appworkflow.Service
	reportService   service.ReportService
	policy          *policy.Policy
	metrics         Metrics
	logger          Logger
}

// NewServer creates a new HTTP server with the given services.
// metrics may be nil, in which case /metrics is not served.
func NewServer(
	config ServerConfig,
	workflowService appworkflow.Service,
	reportService service.ReportService,
	rolePolicy *policy.Policy,
	metrics Metrics,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.MaxBulkItems <= 0 {
		config.MaxBulkItems = DefaultServerConfig().MaxBulkItems
	}
	if rolePolicy == nil {
		rolePolicy = policy.Default()
	}

	router := gin.New()

	server := &Server{
		config:          config,
		router:          router,
		workflowService: workflowService,
		reportService:   reportService,
		policy:          rolePolicy,
		metrics:         metrics,
		logger:          logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(s.loggingMiddleware())

	if s.metrics != nil {
		s.router.Use(s.metricsMiddleware())
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"actor_role", c.GetHeader(HeaderActorRole),
		)
	}
}

// metricsMiddleware records request counts and latency by route template
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.workflowService, s.reportService, s.policy, s.config.MaxBulkItems, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// API routes
	api := s.router.Group("/api")
	{
		// Workflow definition
		api.GET("/workflow/states", handlers.ListStates)
		api.GET("/workflow/states/:state/transitions", handlers.ListTransitions)
		api.GET("/workflow/states/:state/classification", handlers.ClassifyState)

		// Articles
		api.POST("/articles", handlers.CreateArticle)
		api.GET("/articles", handlers.ListArticles)
		api.GET("/articles/:id", handlers.GetArticle)
		api.GET("/articles/:id/history", handlers.GetHistory)
		api.POST("/articles/:id/transitions", handlers.ApplyTransition)
		api.POST("/articles/bulk/transitions", handlers.ApplyBulk)

		// Reports
		api.GET("/reports/status", handlers.StatusReport)
		api.GET("/reports/status.xlsx", handlers.ExportStatusReport)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
