package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/killallgit/highlight-api/internal/api/handlers"
	"github.com/killallgit/highlight-api/internal/database"
	"github.com/killallgit/highlight-api/pkg/config"
)

// Server represents the HTTP server
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	db         *database.DB
	asker      handlers.Asker
}

// Engine returns the server's gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// NewServer creates a new HTTP server
func NewServer(addr string, db *database.DB, asker handlers.Asker) *Server {
	// Set Gin mode based on environment
	if config.GetString("environment") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	server := &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:           addr,
			Handler:        engine,
			ReadTimeout:    config.GetDuration("server.read_timeout"),
			WriteTimeout:   config.GetDuration("server.write_timeout"),
			IdleTimeout:    30 * time.Second,
			MaxHeaderBytes: config.GetInt("server.max_header_bytes"),
		},
		db:    db,
		asker: asker,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware - must be first
	s.engine.Use(gin.Recovery())

	// Logger middleware
	s.engine.Use(gin.Logger())

	// CORS middleware
	s.engine.Use(s.corsMiddleware())

	// Request size limiting middleware
	s.engine.Use(s.requestSizeLimitMiddleware())

	// Rate limiting middleware
	s.engine.Use(s.rateLimitMiddleware())
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.engine.GET("/health", s.healthHandler)

	// Version endpoint
	s.engine.GET("/", s.versionHandler)

	// API v1 routes
	v1 := s.engine.Group("/api/v1")
	{
		askHandler := handlers.NewAskHandler(s.asker)
		v1.POST("/ask", askHandler.HandleAsk)
	}

	// 404 handler
	s.engine.NoRoute(s.notFoundHandler)
}

// corsMiddleware returns CORS middleware
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// requestSizeLimitMiddleware returns request size limiting middleware
func (s *Server) requestSizeLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Limit request body size to 1MB for API endpoints
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPatch {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1024*1024) // 1MB limit
		}
		c.Next()
	}
}

// rateLimitMiddleware returns a server-wide rate limiting middleware. Query
// answering fans out to the embedding model, so unbounded request rates are
// not acceptable.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	rps := config.GetInt("server.rate_limit_rps")
	if rps <= 0 {
		rps = 10
	}
	burst := config.GetInt("server.rate_limit_burst")
	if burst <= 0 {
		burst = 2 * rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}

// healthHandler handles health check requests
func (s *Server) healthHandler(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  s.getDatabaseStatus(),
	}

	c.JSON(http.StatusOK, response)
}

// getDatabaseStatus returns the database status
func (s *Server) getDatabaseStatus() gin.H {
	if s.db == nil {
		return gin.H{
			"status": "not configured",
		}
	}

	if err := s.db.HealthCheck(); err != nil {
		return gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	return gin.H{
		"status": "healthy",
	}
}

// versionHandler handles version requests
func (s *Server) versionHandler(c *gin.Context) {
	response := gin.H{
		"name":        "Highlight API",
		"version":     "1.0.0",
		"description": "Video highlight extraction and retrieval API",
	}

	c.JSON(http.StatusOK, response)
}

// notFoundHandler handles 404 responses
func (s *Server) notFoundHandler(c *gin.Context) {
	response := gin.H{
		"status":  "error",
		"message": "Resource not found",
	}

	c.JSON(http.StatusNotFound, response)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
