package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/catalogadmin/internal"
	"github.com/DukeRupert/catalogadmin/internal/handler"
	"github.com/DukeRupert/catalogadmin/internal/metrics"
	"github.com/DukeRupert/catalogadmin/internal/middleware"
	"github.com/DukeRupert/catalogadmin/internal/remote"
	"github.com/DukeRupert/catalogadmin/internal/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Extra validation rules are optional; a broken file is fatal so a typo
	// never silently disables a rule.
	var ruleSpecs []validation.RuleSpec
	if cfg.ValidationRulesFile != "" {
		ruleSpecs, err = validation.LoadRuleFile(cfg.ValidationRulesFile)
		if err != nil {
			return fmt.Errorf("validation rules failed to load: %w", err)
		}
		logger.Info("Validation rules loaded", "path", cfg.ValidationRulesFile, "count", len(ruleSpecs))
	}

	// Initialize catalog API client
	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.CatalogAPIURL,
		Token:   cfg.CatalogAPIToken,
		Timeout: cfg.CatalogAPITimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("catalog client initialization failed: %w", err)
	}

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		TemplatesDir: cfg.TemplatesDir,
		Logger:       logger,
		IsDev:        cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize middleware
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(cfg.HSTSEnabled)
	actorMw := middleware.NewActorMiddleware(cfg.RoleHeader, cfg.TenantHeader, logger)
	csrfMw := middleware.NewCSRFMiddleware(!cfg.IsDevelopment(), logger)
	writeLimiter := middleware.NewWriteLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow, logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("Metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler(handler.CatalogHandlerConfig{
		Catalog:   remote.NewCatalogService(client),
		Companies: remote.NewCompanyService(client),
		Renderer:  renderer,
		Rules:     ruleSpecs,
		PageSize:  cfg.DefaultPageSize,
		Logger:    logger,
	})

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	if cfg.StaticDir != "" {
		staticFS := http.FileServer(http.Dir(cfg.StaticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Catalog routes (actor and CSRF token required)
	catalogHandler.RegisterRoutes(mux, middleware.Stack(actorMw.RequireActor, csrfMw.Protect, writeLimiter.Limit))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/catalog", http.StatusSeeOther)
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopSweeper := make(chan struct{})
	go writeLimiter.Run(cfg.WriteRateWindow, stopSweeper)
	defer close(stopSweeper)

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "catalog_api", cfg.CatalogAPIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
