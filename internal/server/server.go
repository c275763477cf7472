// Package server exposes parse and learn over HTTP for the review UI.
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"docparse/internal/async"
	"docparse/internal/entity"
	"docparse/internal/ocr"
	"docparse/internal/parser"
	"docparse/internal/template"
)

// Server wires the core components to the HTTP surface.
type Server struct {
	parser *parser.Parser
	learnQ async.Queue
	store  *template.Store
	source ocr.FragmentSource // nil when no local OCR engine is configured
	owner  entity.OwnerIdentity
	logger *slog.Logger
}

// New builds the server. owner is the configured document owner, used when a
// request does not carry its own owner identity.
func New(p *parser.Parser, learnQ async.Queue, store *template.Store, source ocr.FragmentSource, owner entity.OwnerIdentity, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{parser: p, learnQ: learnQ, store: store, source: source, owner: owner, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/parse", s.parse)
		v1.POST("/parse/image", s.parseImage)
		v1.POST("/learn", s.learn)
		v1.GET("/templates/:key", s.getTemplate)
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
