package main

import (
	"chat-relay/api"
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/notification"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env is fine: the environment alone is enough.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, RelayMapper)
	}

	chatRepository := repositories.NewChatRepository(db, logger)
	messageRepository := repositories.NewMessageRepository(db, logger, config.SyncHistoryLimit)
	accountRepository := repositories.NewAccountRepository(db, logger)
	tokenRepository := repositories.NewTokenRepository(db, logger)
	friendshipRepository := repositories.NewFriendshipRepository(db, logger)

	// 3. Notifications
	var moderator *moderation.Moderator
	if words := config.Words(); len(words) > 0 {
		if moderator, err = moderation.NewModerator(words, censoredChar, logger); err != nil {
			return exitConfig, fmt.Errorf("moderator error: %w", err)
		}
	}
	dispatcher := notification.NewDispatcher(config.PushQueueSize, moderator, logger)

	pusher, closePusher, err := buildPusher(ctx, config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer closePusher()

	healthServer := health.NewServer()
	probes := []workers.Probe{
		{Name: "badger", Check: func(context.Context) error {
			if db.IsClosed() {
				return errors.New("badger closed")
			}
			return nil
		}},
		{Name: "push-queue", Check: dispatcher.Probe},
	}
	if redisPusher, ok := pusher.(*notification.RedisPusher); ok {
		probes = append(probes, workers.Probe{Name: "redis", Check: redisPusher.Ping})
	}

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	for i := 0; i < config.PushWorkers; i++ {
		sup.Add(workers.NewPushWorker(dispatcher.Jobs(), tokenRepository, pusher, config.PushTimeout, logger))
	}
	sup.Add(workers.NewHealthWorker(logger, healthServer, config.HealthInterval, config.HealthInterval/2, probes...))
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Run(ctx)
	}()

	// 4. Services
	registry := runtime.NewRegistry()
	verifier := auth.NewVerifier(config.JwtSecret, config.JwtIssuer, config.AuthTokenDuration)
	identityService := services.NewIdentityService(verifier, accountRepository, logger)
	chatLocks := services.NewChatLocks()
	chatService := services.NewChatService(chatRepository, friendshipRepository, chatLocks, logger)
	tokenService := services.NewTokenService(tokenRepository, logger)
	deliveryService := services.NewDeliveryService(
		chatRepository, messageRepository, accountRepository,
		registry, dispatcher, chatLocks, config.SinkTimeout, logger,
	)

	// 5. Websocket gateway & REST surface
	gw := gateway.NewGateway(identityService, registry, deliveryService,
		config.ConnectionBufferSize, config.SinkTimeout, logger)
	wsServer := gateway.NewServer(ctx, gw, gateway.ServerConfig{
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		MaxMessageSize: config.MaxMessageSize,
	}, logger)
	handlers := api.NewHandlers(chatService, deliveryService, tokenService, logger)
	router := api.NewRouter(handlers, identityService, wsServer.Handle, logger)

	httpServer := &http.Server{
		Addr:              config.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 6. gRPC health endpoint
	listener, err := net.Listen("tcp", config.GrpcAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GrpcAddress(), err)
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		logger.Info("Starting gRPC health server", "address", config.GrpcAddress())
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		logger.Error("Server failed", "error", err)
		code = exitRuntime
		stop()
	}

	// 8. Graceful shutdown
	// Cancelling ctx already closed every websocket connection.
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP shutdown incomplete", "error", shutdownErr)
	}
	grpcServer.GracefulStop()
	// The supervisor follows ctx.
	<-supervisorDone
	logger.Info("Program stopped cleanly", "still_connected", registry.Count())

	return code, err
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

// buildPusher sends notifications to Redis when REDIS_ADDR is set and only
// logs them otherwise.
func buildPusher(ctx context.Context, config internal.Config, logger *slog.Logger) (contract.IPusher, func(), error) {
	if config.RedisAddr == "" {
		logger.Info("No REDIS_ADDR, push notifications are only logged")
		return notification.NewLogPusher(logger), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: config.RedisAddr, Password: config.RedisPassword})
	pusher := notification.NewRedisPusher(client, config.RedisPushList, logger)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pusher.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
	}
	return pusher, func() { _ = client.Close() }, nil
}

// RelayMapper labels Badger entries in the debug inspector.
func RelayMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.Type, row.Detail = repositories.Describe(key, val)
	return row
}
