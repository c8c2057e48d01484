package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"survivor/internal/config"
	"survivor/internal/game"

	"github.com/go-chi/chi/v5"
)

const (
	statsExportInterval = time.Second
	shutdownTimeout     = 5 * time.Second
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      *game.Engine
	cfg         config.ServerConfig
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	exporter    statsExporter
	httpServer  *http.Server
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine *game.Engine, cfg config.ServerConfig) *Server {
	s := &Server{
		engine:   engine,
		cfg:      cfg,
		wsHub:    NewWebSocketHub(NewOriginPolicy(cfg.CORSOrigins)),
		stopChan: make(chan struct{}),
	}
	s.httpServer = &http.Server{ReadHeaderTimeout: 5 * time.Second}

	s.rateLimiter = NewIPRateLimiter(RateLimitFromServer(cfg))

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	s.setupWebSocketRoutes()
	s.httpServer.Handler = s.router

	return s
}

// setupWebSocketRoutes adds routes that need the hub instance.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
}

// Start begins the HTTP server AND starts background workers.
// It blocks until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.cfg.BroadcastRate)
	go s.exportLoop()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("📡 Snapshots: ws://localhost%s/ws (add ?format=msgpack for binary)", addr)

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) exportLoop() {
	ticker := time.NewTicker(statsExportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.exporter.Export(s.engine.Stats())
		}
	}
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(engine, cfg.Server)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub so tests can run it without Start.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers and the listener.
func (s *Server) Stop() {
	s.stopOnce.Do(s.shutdown)
}

func (s *Server) shutdown() {
	close(s.stopChan)
	s.wsHub.Stop()
	s.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API server shutdown: %v", err)
	}
	log.Println("🛑 API server stopped")
}
