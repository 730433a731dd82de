// Package server provides HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"budgettool/src/app/http/handler"
	"budgettool/src/app/middleware"
	"budgettool/src/core/ports"
	"budgettool/src/core/usecase"
	"budgettool/src/infra/config"
	"budgettool/src/infra/metrics"
)

// Deps are the collaborators the server is wired with.
type Deps struct {
	// Repo serves the data endpoints.
	Repo ports.BudgetRepository

	// Sessions hands out one database lease per data request.
	Sessions middleware.Leaser

	// Pool reports lease counters on /health/detailed. Optional.
	Pool handler.PoolStats

	// Checks are pinged by /health/detailed, keyed by component name.
	Checks map[string]ports.ExternalService

	// Registry backs /metrics. When nil, /metrics is not mounted.
	Registry *prometheus.Registry
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	router *gin.Engine
	http   *http.Server
	deps   Deps

	// Handlers
	healthHandler *handler.HealthHandler
	dataHandler   *handler.DataHandler
}

// New creates a new Server with all dependencies wired up.
func New(cfg *config.Config, log *slog.Logger, deps Deps) *Server {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	healthService := usecase.NewHealthService(log, deps.Checks)
	budgetService := usecase.NewBudgetService(deps.Repo, log)

	s := &Server{
		cfg:           cfg,
		log:           log,
		router:        router,
		deps:          deps,
		healthHandler: handler.NewHealthHandler(healthService, deps.Pool),
		dataHandler:   handler.NewDataHandler(budgetService),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures global middleware.
// Logging and Metrics sit outside Recovery so a recovered panic is
// recorded with its 500 status.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logging(s.log))
	if s.deps.Registry != nil {
		s.router.Use(middleware.Metrics(metrics.NewHTTP(s.deps.Registry)))
	}
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.Timer())
	s.router.Use(middleware.CORS())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.GET("/", handler.Root)
	s.router.GET("/version", handler.VersionInfo)
	s.router.GET("/health", s.healthHandler.Health)
	s.router.GET("/health/detailed", s.healthHandler.DetailedHealth)

	if s.deps.Registry != nil {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.deps.Registry)))
	}

	// Every data route holds one lease for the life of the request.
	session := middleware.PostgresSession(s.deps.Sessions)

	data := s.router.Group("/data", session)
	{
		data.GET("/accounts", s.dataHandler.Accounts)
		data.GET("/categories", s.dataHandler.Categories)
		data.GET("/transactions", s.dataHandler.Transactions)
		data.GET("/budgets", s.dataHandler.Budgets)
		data.GET("/budget-periods", s.dataHandler.BudgetPeriods)
	}

	categories := s.router.Group("/categories", session)
	{
		categories.GET("/all", s.dataHandler.Categories)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":       "NOT_FOUND",
				"message":    "The requested resource was not found",
				"request_id": middleware.GetRequestID(c),
			},
		})
	})
}

// setupHTTPServer configures the underlying HTTP server.
func (s *Server) setupHTTPServer() {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT/SIGTERM.
func (s *Server) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("starting HTTP server",
			"addr", s.cfg.Server.Addr(),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		s.log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server. In-flight requests finish and
// release their leases before it returns.
func (s *Server) Shutdown() error {
	s.log.Info("shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("server stopped gracefully")
	return nil
}

// Router returns the Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// WaitForReady waits until the server is ready to accept connections.
// Useful for integration tests.
func (s *Server) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", s.cfg.Server.Addr()))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}
