// Package server exposes the conversational agent over HTTP: a REST chat
// endpoint, a websocket chat channel, the knowledge-store projection and the
// metrics endpoint.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"savor/internal/agent"
	"savor/internal/knowledge"
	"savor/internal/metrics"
)

// Server owns the router and the live sessions. Each session processes one
// turn at a time; the knowledge store is shared across all of them.
type Server struct {
	router    *gin.Engine
	agent     *agent.Agent
	store     *knowledge.Store
	collector *metrics.Collector
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry serializes turns on one session.
type sessionEntry struct {
	mu      sync.Mutex
	session *agent.Session
}

func New(a *agent.Agent, store *knowledge.Store, collector *metrics.Collector, log *zap.Logger) *Server {
	s := &Server{
		router:    gin.Default(),
		agent:     a,
		store:     store,
		collector: collector,
		log:       log,
		sessions:  make(map[string]*sessionEntry),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(cors.Default())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{})))
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.GET("/knowledge", s.handleKnowledge)
	}
}

// Router returns the gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	State     string `json:"state"`
}

// handleChat processes one conversation turn. A missing session id starts a
// new conversation.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	entry := s.session(req.SessionID)
	entry.mu.Lock()
	reply := s.agent.HandleMessage(c.Request.Context(), entry.session, req.Message)
	state := entry.session.State
	entry.mu.Unlock()

	c.JSON(http.StatusOK, chatResponse{
		SessionID: entry.session.ID,
		Reply:     reply,
		State:     string(state),
	})
}

// handleKnowledge serves the knowledge store as a node/edge projection.
func (s *Server) handleKnowledge(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Graph())
}

// session returns the entry for an id, creating a fresh session when the id
// is unknown or empty.
func (s *Server) session(id string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if entry, ok := s.sessions[id]; ok {
			return entry
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	entry := &sessionEntry{session: agent.NewSession(id, agent.DefaultUserID)}
	s.sessions[id] = entry
	s.log.Info("session started", zap.String("session", id))
	return entry
}

// Serve runs the HTTP server until the context is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
