package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"nextext/auth"
	"nextext/contract"
	"nextext/domain"
	"nextext/infrastructure/api"
	"nextext/infrastructure/grpc"
	"nextext/infrastructure/ws"
	"nextext/internal"
	"nextext/moderation"
	"nextext/observability"
	"nextext/repositories"
	"nextext/repositories/sqlite"
	"nextext/runtime"
	"nextext/runtime/workers"
	"nextext/services"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets every deferred close run.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	users, messages, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing store...")
		if err := closeStore(); err != nil {
			logger.Error("Store closing failed", "error", err)
		}
	}()

	var gateway contract.IMessageGateway = messages
	if words := config.CensoredWordList(); len(words) > 0 {
		char, _ := internal.CharacterRune(config.CharReplacement)
		moderator, err := moderation.NewModerator(words, char, logger)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
		}
		gateway = moderation.NewCensoringGateway(messages, moderator, logger)
	}

	// 3. Messaging core
	registry := runtime.NewRegistry(logger, config.DeliveryTimeout)
	monitor := observability.NewMonitor(logger, func() (int, int) {
		stats := registry.Stats()
		return stats.Users, stats.Connections
	})
	tokens := auth.NewTokenService(config.JWTSecret, config.AccessTokenDuration)
	authenticator := auth.NewAuthenticator(logger, tokens, users)

	handler := ws.NewHandler(logger, authenticator, registry, gateway,
		domain.NewFrameParser(config.MaxContentLength), monitor,
		ws.Settings{
			BufferSize:     config.ConnectionBufferSize,
			WriteTimeout:   config.WriteTimeout,
			PongWait:       config.PongWait,
			PingPeriod:     config.PingPeriod,
			PersistTimeout: config.PersistTimeout,
			MaxFrameBytes:  config.MaxFrameBytes,
			AllowedOrigins: config.AllowedOrigins(),
		})

	deps := api.Dependencies{
		Auth:           services.NewAuthService(logger, users, tokens),
		Users:          services.NewUserService(users),
		Chat:           services.NewChatService(users, gateway, registry),
		Validator:      authenticator,
		WebSocket:      handler,
		AllowedOrigins: config.AllowedOrigins(),
	}
	if config.DebugStats {
		deps.Stats = func() any { return monitor.Snapshot() }
	}
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           api.NewRouter(logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Background workers
	errChan := make(chan error, 2)
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(workers.NewTelemetryWorker(logger, config.MetricInterval, monitor))
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	if config.GrpcHealthPort > 0 {
		health := grpc.NewHealthServer(logger)
		go func() {
			if err := health.Run(ctx, config.GrpcHealthPort); err != nil {
				errChan <- err
			}
		}()
	}

	// 5. HTTP & websocket server
	go func() {
		logger.Info("Starting chat server", "address", server.Addr, "store", config.StoreDriver, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		logger.Error("Server failure, shutting down", "error", err)
		code = exitRuntime
	}

	// 7. Graceful shutdown: close live sessions, stop accepting, then drain workers
	logger.Info("Shutting down gracefully...")
	handler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, err
}

// openStore opens the configured backend and returns its repositories with a single close function.
func openStore(ctx context.Context, config internal.Config, logger *slog.Logger) (contract.IUserRepository, contract.IMessageGateway, func() error, error) {
	switch config.StoreDriver {
	case internal.DriverSQLite:
		store, err := sqlite.Open(config.SQLiteDSN, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite opening failed: %w", err)
		}
		return store.Users(), store.Messages(), store.Close, nil
	default:
		db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		users, err := repositories.NewUserRepository(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		messages, err := repositories.NewMessageRepository(db, logger)
		if err != nil {
			_ = users.Close()
			_ = db.Close()
			return nil, nil, nil, err
		}
		closeAll := func() error {
			return errors.Join(messages.Close(), users.Close(), db.Close())
		}
		return users, messages, closeAll, nil
	}
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
