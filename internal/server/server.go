// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/hivetool/apiaryhub/api"
	"github.com/hivetool/apiaryhub/api/middleware"
	"github.com/hivetool/apiaryhub/internal/cache"
	"github.com/hivetool/apiaryhub/internal/config"
	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/hubservice"
	"github.com/hivetool/apiaryhub/internal/monitoring"
	"github.com/hivetool/apiaryhub/internal/repository/postgres"
	"github.com/hivetool/apiaryhub/internal/repository/timescale"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	router     *api.Router
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	charts     *cache.ChartCache
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	s.charts = cache.NewChartCache(s.config.Redis)
	s.hubservice = initializeHubService(s.config, s.charts)
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})

	// Set up cleanup event handlers
	s.setupCleanupHandlers()

	// Setup routes
	s.router = api.NewRouter(s.hubservice, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
		IngestRole:   s.config.Keycloak.IngestRole,
	})
	s.router.Resources().SetHealthCheck(s.handleHealth())

	handler := handlers.CombinedLoggingHandler(os.Stdout, s.router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(handler)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if err := s.charts.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing chart cache: %v", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupCleanupHandlers() {
	// Handle apiary deletion events
	s.hubservice.Cleanup.OnCleanup("apiary.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] Apiary %s and all associated data deleted", id)
		s.monitoring.RecordEvent("apiary_deletion", map[string]string{
			"apiary_id": id,
		})
	})

	// Handle device deletion events
	s.hubservice.Cleanup.OnCleanup("device.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] Device %s and its datapoint series deleted", id)
		s.monitoring.RecordEvent("device_deletion", map[string]string{
			"device_id": id,
		})
	})
}

// initializeHubService creates and configures the hub service
func initializeHubService(cfg *config.Config, charts *cache.ChartCache) *hubservice.HubService {
	// Initialize database connections
	tsdb := initTimescaleDB(cfg.Database.TimescaleDB)
	appDB := initAppDB(cfg.Database.AppDB)

	if err := postgres.InitSchema(appDB); err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize app schema: %v", err)
	}

	// Initialize repositories
	apiaries := postgres.NewApiaryRepository(appDB)
	members := postgres.NewMemberRepository(appDB)
	devices := postgres.NewDeviceRepository(appDB)

	datapoints, err := timescale.NewDatapointRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize datapoint repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := charts.Ping(ctx); err != nil {
		// Degrades to uncached chart reads, not fatal.
		nuts.L.Warnf("[Server] Chart cache unavailable: %v", err)
	}

	// Create and return hub service
	return hubservice.New(apiaries, members, devices, datapoints, charts, cfg.Overview.OnlineThreshold)
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	// NewTimescaleDB verifies the extension as part of connecting.
	wrappedDB, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return wrappedDB
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	return wrappedDB
}
