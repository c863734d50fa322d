// Package server exposes evaluation runs over HTTP: listing past runs,
// fetching analysis, triggering new harness runs, and streaming run events
// over websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bioeval/internal/analysis"
	"bioeval/internal/config"
	"bioeval/internal/harness"
	"bioeval/internal/logging"
)

// Server is the HTTP front end over the evaluation pipeline.
type Server struct {
	cfg     *config.Config
	runner  *harness.Runner
	hub     *Hub
	metrics *Metrics
	logger  logging.Logger

	engine     *gin.Engine
	httpServer *http.Server

	mu         sync.Mutex
	runActive  bool
	currentRun string
}

// New creates a server over the given configuration.
func New(cfg *config.Config, logger logging.Logger) *Server {
	logger = logging.OrNop(logger)

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowWebSockets = true
	engine.Use(cors.New(corsConfig))

	s := &Server{
		cfg:     cfg,
		runner:  harness.NewRunner(logger),
		hub:     NewHub(logger),
		metrics: DefaultMetrics(),
		logger:  logger,
		engine:  engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/api/health", s.handleHealth)
	s.engine.GET("/api/runs", s.handleListRuns)
	s.engine.GET("/api/runs/:name/analysis", s.handleAnalysis)
	s.engine.POST("/api/runs", s.handleStartRun)
	s.engine.GET("/ws", s.handleWebsocket)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins serving and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening on %s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the server, allowing in-flight requests to finish.
func (s *Server) Shutdown() error {
	s.hub.Close()
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the gin engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.Lock()
	active := s.runActive
	current := s.currentRun
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"run_active":  active,
		"current_run": current,
		"ws_clients":  s.hub.ClientCount(),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := harness.ListRuns(s.cfg.Harness.ResultsDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleAnalysis(c *gin.Context) {
	name := c.Param("name")
	runDir := filepath.Join(s.cfg.Harness.ResultsDir, name)

	samplesPath, err := harness.FindLatestSamples(runDir)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	summary, err := analysis.Analyze(samplesPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": name, "samples_file": samplesPath, "summary": summary})
}

type startRunRequest struct {
	Model      string `json:"model"`
	OutputName string `json:"output_name"`
}

// handleStartRun launches a harness run in the background. Only one run may
// be active at a time: the harness saturates the GPU, so queueing a second
// run behind it would only produce confusing partial output.
func (s *Server) handleStartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv := harness.NewInvocation(s.cfg.Harness, req.Model, req.OutputName)

	s.mu.Lock()
	if s.runActive {
		current := s.currentRun
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already active", "current_run": current})
		return
	}
	s.runActive = true
	s.currentRun = inv.OutputName
	s.mu.Unlock()

	go s.executeRun(inv)

	c.JSON(http.StatusAccepted, gin.H{
		"run":     inv.OutputName,
		"model":   inv.Model,
		"command": inv.CommandLine(),
	})
}

func (s *Server) executeRun(inv harness.Invocation) {
	defer func() {
		s.mu.Lock()
		s.runActive = false
		s.currentRun = ""
		s.mu.Unlock()
	}()

	s.metrics.RunStarted()
	defer s.metrics.RunFinished()

	s.hub.Broadcast(Event{Type: "run_started", Run: inv.OutputName, Message: inv.Model})

	start := time.Now()
	err := s.runner.Run(context.Background(), inv)
	code := harness.ExitCode(err)
	duration := time.Since(start)

	status := "success"
	if code != 0 {
		status = "failure"
	}
	s.metrics.ObserveRun(status, duration)

	event := Event{Type: "run_finished", Run: inv.OutputName, ExitCode: &code}
	if err != nil {
		event.Message = err.Error()
		s.logger.Error("Run %s failed: %v", inv.OutputName, err)
	} else {
		s.logger.Info("Run %s finished in %s", inv.OutputName, duration.Round(time.Second))
	}
	s.hub.Broadcast(event)
}

func (s *Server) handleWebsocket(c *gin.Context) {
	if err := s.hub.Subscribe(c.Writer, c.Request); err != nil {
		s.logger.Warn("Websocket upgrade failed: %v", err)
	}
}
