package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/reelpost/api/controllers"
	"github.com/moyoez/reelpost/api/middlewares"
	"github.com/moyoez/reelpost/api/models"
	"github.com/moyoez/reelpost/api/notifyhub"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// Server is the local control API: start, watch and cancel upload runs.
type Server struct {
	port   int
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer creates the control server and binds the run registry to cfg.
func NewServer(cfg types.AppConfig) *Server {
	models.SetAppConfig(cfg)
	if models.GetNotifyHub() == nil {
		models.SetNotifyHub(notifyhub.New())
	}
	return &Server{port: cfg.ControlPort}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.POST("/upload", controllers.UserStartUpload)    // Start a run, returns its id
		self.GET("/runs", controllers.UserRunsList)          // All live runs
		self.GET("/runs/:id", controllers.UserRunStatus)     // State, progress and outcome of one run
		self.GET("/runs/:id/qr-code", controllers.RunQRCode) // QR PNG of a completed run's playlist
		self.POST("/cancel", controllers.UserCancelRun)      // Cooperative cancel by runId
		if hub := models.GetNotifyHub(); hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(hub))
		}
	}
	return engine
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

// Start serves the control API on localhost until Shutdown is called.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting control API on http://%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown cancels every live run, waits for them to finish within ctx and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	entries := models.ListRuns()
	for _, entry := range entries {
		entry.Orchestrator.Cancel()
	}
	for _, entry := range entries {
		select {
		case <-entry.Done():
		case <-ctx.Done():
			tool.DefaultLogger.Warnf("[Server] Run %s still finishing at shutdown", entry.Orchestrator.RunID())
		}
	}
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
