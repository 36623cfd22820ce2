package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/chatrelay/internal/adapter/backend"
	"github.com/xiaot623/chatrelay/internal/auth"
	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/logging"
	"github.com/xiaot623/chatrelay/internal/policy"
	"github.com/xiaot623/chatrelay/internal/repository"
	"github.com/xiaot623/chatrelay/internal/service"
	transport "github.com/xiaot623/chatrelay/internal/transport/http"
)

const (
	sessionSweepInterval = 5 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("relay stopped with error")
	}
	logger.Info().Msg("relay stopped")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Int("port", cfg.HTTPPort).
		Str("backend_url", cfg.BackendURL).
		Str("session_backend", cfg.SessionBackend).
		Str("chunking", cfg.StreamChunking).
		Msg("starting relay")

	// Initialize stores
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	var sessions repository.SessionStore = db
	if cfg.SessionBackend == config.SessionBackendRedis {
		rs, err := repository.NewRedisSessionStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis session store: %w", err)
		}
		defer rs.Close()
		sessions = rs
	}

	// Initialize backend client
	chatBackend := backend.NewChatBackend(cfg.RelayMode, backend.Options{
		BaseURL:     cfg.BackendURL,
		AuthURL:     cfg.AuthURL,
		CitationURL: cfg.CitationURL,
		Timeout:     cfg.BackendTimeout,
	}, logger)

	signer, err := auth.NewSigner([]byte(cfg.AuthSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize signer: %w", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Initialize service
	svc := service.New(chatBackend, sessions, db, signer, policyEngine, cfg, logger)
	server := transport.NewServer(svc, cfg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		svc.RunSessionSweeper(gctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down relay")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to shutdown http server gracefully")
		}
		return nil
	})

	return g.Wait()
}
