// Package main provides the entry point for the Jarviz API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jarviz-io/jarviz-api/internal/api"
	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/config"
	"github.com/jarviz-io/jarviz-api/internal/controller"
	"github.com/jarviz-io/jarviz-api/internal/geo"
	"github.com/jarviz-io/jarviz-api/internal/logging"
	"github.com/jarviz-io/jarviz-api/internal/metrics"
	"github.com/jarviz-io/jarviz-api/internal/notify"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

const (
	version               = "2026.10.1"
	serverShutdownTimeout = 30 * time.Second
	tokenCleanupInterval  = time.Hour
)

// components holds everything the server needs. closers run in reverse order on shutdown.
type components struct {
	logger        *slog.Logger
	logLevel      *slog.LevelVar
	store         *storage.SQLExecutor
	tokens        storage.TokenStore
	mainRouter    http.Handler
	metricsRouter http.Handler
	closers       []io.Closer
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func main() {
	if len(os.Args) > 1 && os.Args[1] == "health" {
		addr := os.Getenv("HEALTH_URL")
		if addr == "" {
			addr = "http://localhost:8080/health"
		}
		os.Exit(doHealthCheck(addr))
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := initializeComponents(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			c.logger.Error("failed to release resources", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupExpiredTokens(ctx, c.logger, c.tokens, tokenCleanupInterval)

	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           c.metricsRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		c.logger.Info("metrics listening", "addr", cfg.MetricsListenAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics server failed", "error", err)
		}
	}()
	defer metricsServer.Close() //nolint:errcheck

	c.logger.Info("starting Jarviz API",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"database_driver", cfg.DatabaseDriver,
	)
	return startServerAndWaitForShutdown(c.logger, createServer(cfg, c.mainRouter))
}

// initializeComponents builds the logger, store, services and routers from cfg.
func initializeComponents(cfg *config.Config) (*components, error) {
	logger, level, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	c := &components{logger: logger, logLevel: level}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Init(reg); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.HandlerFor(reg))
	c.metricsRouter = metricsMux

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, storage.Config{Driver: cfg.DatabaseDriver, URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.store = store
	c.closers = append(c.closers, store)

	c.tokens = storage.NewSQLTokenStore(store)
	if cfg.RedisAddr != "" {
		client, err := storage.NewRedis(ctx, storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, client)
		c.tokens = storage.NewRedisTokenStore(client)
	}

	var locator geo.Locator
	if cfg.GeoIPDBPath != "" {
		mm, err := geo.OpenMaxMind(cfg.GeoIPDBPath)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, closerFunc(mm.Close))
		locator = mm
	}

	tokenService := auth.NewTokenService(c.tokens)
	bootstrap := auth.NewBootstrapService(c.tokens, cfg.AdminMasterKey)
	authn := auth.NewAuthenticator(tokenService, bootstrap, logger)

	clients := controller.NewClientController(store, controller.ClientSchema())
	h := api.NewHandler(api.Deps{
		Billing:  controller.NewBillingController(store, controller.BillingSchema()),
		Sessions: controller.NewCallSessionController(store, controller.CallSessionSchema()),
		Clients:  clients,
		Accounts: controller.NewAccountService(clients, tokenService, newMailer(cfg, logger), locator, cfg.TokenTTL),
		Store:    store,
		Logger:   logger,
		LogLevel: level,
		TokenTTL: cfg.TokenTTL,
	})
	c.mainRouter = h.NewRouter(authn, cfg.MaxBodyBytes)

	if bootstrap.Enabled() {
		logger.Info("admin master key configured, accepted until the first admin token is issued")
	}
	return c, nil
}

// newMailer sends through Mailgun when an API key is configured and logs mail otherwise.
func newMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	if cfg.MailgunAPIKey == "" {
		logger.Warn("MAILGUN_API_KEY not set, mail will be logged instead of sent")
		return notify.NewLogMailer(logger)
	}

	opts := []notify.Option{
		notify.WithFrom(cfg.MailFrom),
		notify.WithHTTPClient(&http.Client{
			Timeout:   30 * time.Second,
			Transport: &notify.LoggingTransport{Transport: http.DefaultTransport, Logger: logger},
		}),
	}
	if cfg.MailgunBaseURL != "" {
		opts = append(opts, notify.WithBaseURL(cfg.MailgunBaseURL))
	}
	return notify.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, opts...)
}

// cleanupExpiredTokens removes expired tokens every interval until ctx is done.
func cleanupExpiredTokens(ctx context.Context, logger *slog.Logger, tokens storage.TokenStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Warn("failed to delete expired tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("deleted expired tokens", "count", n)
			}
		}
	}
}

func createServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// startServerAndWaitForShutdown serves until SIGINT or SIGTERM and then shuts down gracefully.
func startServerAndWaitForShutdown(logger *slog.Logger, server *http.Server) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Server shut down gracefully")
	return nil
}

// doHealthCheck requests url and returns the process exit code: 0 for 200 OK, 1 otherwise.
func doHealthCheck(url string) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url) //nolint:noctx
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "health check failed: status %d\n", resp.StatusCode)
		return 1
	}
	return 0
}
