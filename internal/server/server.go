// Package server exposes a local storage root over the results API the
// Remote backend speaks: POST /v1/results to ingest a record document,
// GET /v1/results/{id} to fetch it back. Useful for self-hosting the
// results service and for exercising the wire contract in tests.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/confident-ai/deepeval-go/internal/storage"
	"github.com/confident-ai/deepeval-go/pkg/schema"
	"github.com/confident-ai/deepeval-go/pkg/types"
)

const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// Server serves the results API over one local storage root.
type Server struct {
	store  *storage.Local
	engine *gin.Engine
	group  singleflight.Group
}

// New builds a server. The API key is the bearer credential clients
// must present; an empty key is a configuration error.
func New(store *storage.Local, apiKey string) (*Server, error) {
	if apiKey == "" {
		return nil, &storage.ConfigError{Reason: "results service requires an API key"}
	}

	s := &Server{store: store}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := engine.Group("/v1", bearerAuth(apiKey))
	v1.POST("/results", s.handleSave)
	v1.GET("/results/:id", s.handleLoad)

	s.engine = engine
	return s, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func bearerAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleSave(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}

	violations, err := schema.ValidateRecord(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document: " + err.Error()})
		return
	}
	if len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "schema violations", "violations": violations})
		return
	}

	var rec types.EvaluationRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decode record: " + err.Error()})
		return
	}

	id, err := s.store.Import(&rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result_id": id})
}

func (s *Server) handleLoad(c *gin.Context) {
	id := c.Param("id")

	// Concurrent loads of the same identifier share one disk read.
	doc, err, _ := s.group.Do(id, func() (any, error) {
		return s.store.ReadDocument(id)
	})
	if err != nil {
		var nf *storage.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", doc.([]byte))
}
