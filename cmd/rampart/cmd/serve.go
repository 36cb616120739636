package cmd

import (
	"context"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/adapter/inbound/admin"
	"github.com/rampart-sh/rampart/internal/adapter/inbound/http"
	"github.com/rampart-sh/rampart/internal/config"
	"github.com/rampart-sh/rampart/internal/domain/identity"
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
	"github.com/rampart-sh/rampart/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rate limit server",
	Long: `Start the rampart rate limit server.

The server exposes:
  POST /v1/check/{category}  one rate limit decision per call
  GET  /health               liveness
  GET  /metrics              Prometheus metrics
  /admin/api/*               operational API (localhost or bearer token)

Examples:
  # Start with config file settings
  rampart serve

  # Start in development mode (debug logging, built-in salt)
  rampart serve --dev

  # Start with a specific config file
  rampart --config /path/to/rampart.yaml serve`,
	RunE: runServe,
}

var devMode bool

func init() {
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging, built-in salt)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration (without validation, so CLI flags can override first)
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override dev mode from CLI flag
	if devMode {
		cfg.DevMode = true
	}

	// Apply dev defaults (fills salt and debug logging in dev mode)
	cfg.SetDevDefaults()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Create signal context for graceful shutdown.
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop() // Restore default: next Ctrl+C = immediate exit.
	}()

	// Priority: DevMode=true -> debug, otherwise use configured log_level
	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug // DevMode always forces debug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	return run(ctx, cfg, logger)
}

// run wires all components together and blocks until shutdown.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.DevMode {
		logger.Warn("DEV MODE ENABLED - using built-in hash salt, do not use in production")
	}

	// ===== Domain state =====
	policies, err := buildPolicyTable(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build policy table: %w", err)
	}

	hasher, err := identity.NewHasher(cfg.Identity.HashSalt)
	if err != nil {
		return fmt.Errorf("failed to create identity hasher: %w", err)
	}

	store := ratelimit.NewBucketStore()
	violations := violation.NewLog(cfg.Violations.MaxEntries)
	limiter := ratelimit.NewLimiter(policies, store, hasher, violations, nil, logger)
	statsService := service.NewStatsService()

	// ===== Background sweeper =====
	sweeper := service.NewSweeper(store, violations, nil, logger, service.SweeperConfig{
		Interval:           parseDurationOr(cfg.Cleanup.Interval, service.DefaultSweepInterval, "cleanup.interval", logger),
		BucketMaxAge:       parseDurationOr(cfg.Cleanup.BucketMaxAge, service.DefaultBucketMaxAge, "cleanup.bucket_max_age", logger),
		ViolationRetention: parseDurationOr(cfg.Violations.Retention, service.DefaultViolationRetention, "violations.retention", logger),
	})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// ===== HTTP surface =====
	registry := prometheus.NewRegistry()
	metrics := http.NewMetrics(registry)
	healthChecker := http.NewHealthChecker(store, violations, sweeper, Version)
	handler := http.NewHandler(limiter, statsService, metrics, healthChecker, logger)

	apiHandler := admin.NewAPIHandler(
		admin.WithConfig(cfg),
		admin.WithBucketStore(store),
		admin.WithViolationLog(violations),
		admin.WithStatsService(statsService),
		admin.WithLogger(logger),
		admin.WithBuildInfo(&admin.BuildInfo{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
		}),
	)

	mux := stdhttp.NewServeMux()
	handler.Routes(mux, registry)
	mux.Handle("/admin/api/", apiHandler.Routes())

	chain := http.RequestIDMiddleware(logger)(http.MetricsMiddleware(metrics)(mux))

	srv := &stdhttp.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           chain,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("rampart starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"http_addr", cfg.Server.HTTPAddr,
		"categories", len(policies.Categories()),
		"violation_log_max", cfg.Violations.MaxEntries,
	)
	printBanner(Version, cfg.Server.HTTPAddr, cfg.DevMode, policies.Categories())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
		return err
	}

	logger.Info("rampart stopped")
	return nil
}

// buildPolicyTable converts the configured categories into a policy table.
// An empty categories list falls back to the built-in defaults.
func buildPolicyTable(cfg *config.Config, logger *slog.Logger) (*ratelimit.PolicyTable, error) {
	if len(cfg.Categories) == 0 {
		logger.Info("no categories configured, using defaults")
		return ratelimit.NewPolicyTable(ratelimit.DefaultPolicies())
	}

	policies := make([]ratelimit.Policy, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		d, err := time.ParseDuration(c.RefillEvery)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("category %q: invalid refill_every %q", c.Name, c.RefillEvery)
		}
		policies = append(policies, ratelimit.Policy{
			Name:            c.Name,
			Capacity:        c.Capacity,
			RefillPerSecond: 1.0 / d.Seconds(),
		})
	}
	return ratelimit.NewPolicyTable(policies)
}

// parseDurationOr parses a duration string, falling back to def with a
// warning for empty or invalid values.
func parseDurationOr(raw string, def time.Duration, field string, logger *slog.Logger) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "field", field, "value", raw, "default", def)
		return def
	}
	return d
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printBanner prints a formatted startup banner to stderr with version,
// addresses, mode, and the active categories.
func printBanner(version, httpAddr string, devMode bool, categories []string) {
	const (
		reset  = "\033[0m"
		bold   = "\033[1m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		dim    = "\033[2m"
	)

	baseURL := fmt.Sprintf("http://localhost%s", httpAddr)
	if !strings.HasPrefix(httpAddr, ":") {
		baseURL = fmt.Sprintf("http://%s", httpAddr)
	}

	modeStr := green + "production" + reset
	if devMode {
		modeStr = yellow + "development" + reset + dim + " (built-in salt)" + reset
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  %s%s Rampart %s%s\n", bold, cyan, version, reset)
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "  %-12s %s/v1/check/{category}\n", "Check:", baseURL)
	fmt.Fprintf(os.Stderr, "  %-12s %s/admin/api/\n", "Admin API:", baseURL)
	fmt.Fprintf(os.Stderr, "  %-12s %s/metrics\n", "Metrics:", baseURL)
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Mode:", modeStr)
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Categories:", strings.Join(categories, ", "))
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "\n")
}
