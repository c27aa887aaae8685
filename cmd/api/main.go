package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"matchmate/internal/adapter/api"
	"matchmate/internal/adapter/api/handler"
	apimiddleware "matchmate/internal/adapter/api/middleware"
	"matchmate/internal/adapter/api/router"
	"matchmate/internal/adapter/repository"
	domainrepo "matchmate/internal/domain/repository"
	"matchmate/internal/domain/service"
	"matchmate/internal/infrastructure/firebase"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/internal/infrastructure/ratelimit"
	"matchmate/internal/infrastructure/scheduler"
	"matchmate/internal/infrastructure/storage"
	"matchmate/internal/infrastructure/telemetry"
	"matchmate/internal/infrastructure/websocket"
	"matchmate/internal/usecase"
	"matchmate/pkg/config"
	"matchmate/pkg/logger"
	"matchmate/pkg/response"
)

type repositories struct {
	users     domainrepo.UserRepository
	queue     domainrepo.QueueRepository
	matches   domainrepo.MatchRepository
	messages  domainrepo.MessageRepository
	interests domainrepo.InterestRepository
	close     func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeLogger, err := logger.Init(ctx, logger.Options{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		ProjectID: cfg.FirebaseProject,
	})
	if err != nil {
		logger.Error("Failed to initialize logging: %v", err)
		os.Exit(1)
	}
	defer closeLogger()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to initialize tracing: %v", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	var opts []option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			logger.Error("Service account file is not readable: %s", cfg.ServiceAccountPath)
			os.Exit(1)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	} else {
		logger.Info("Using application default credentials")
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase: %v", err)
		os.Exit(1)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Error("Failed to initialize Firebase Auth: %v", err)
		os.Exit(1)
	}
	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, !cfg.IsDevelopment())

	repos, err := newRepositories(ctx, cfg, opts)
	if err != nil {
		logger.Error("Failed to initialize %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	defer repos.close()

	var photos service.PhotoStorage
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Error("Failed to initialize Cloud Storage: %v", err)
			os.Exit(1)
		}
		defer storageClient.Close()
		photos = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET is not set, photo uploads are disabled")
	}

	rateLimiter := ratelimit.NewRateLimiter(
		ratelimit.WithPolicy(ratelimit.ActionQueueWrite, ratelimit.Policy{Every: cfg.QueueWriteInterval, Burst: 1}),
	)

	queueUseCase := usecase.NewQueueUseCase(repos.queue, rateLimiter, cfg.QueueAutoReleaseAfter)
	interestUseCase := usecase.NewInterestUseCase(repos.interests)
	userUseCase := usecase.NewUserUseCase(repos.users, interestUseCase, queueUseCase, photos, cfg.MaxInterests)
	matchUseCase := usecase.NewMatchUseCase(repos.matches, repos.queue, repos.users, queueUseCase, rateLimiter, usecase.MatchConfig{
		MaxQueryInterests:   cfg.MaxQueryInterests,
		CandidateFetchLimit: cfg.CandidateFetchLimit,
		AutoMatchAttempts:   cfg.AutoMatchAttempts,
	})
	chatUseCase := usecase.NewChatUseCase(repos.matches, repos.messages, repos.users, rateLimiter, cfg.MessagePageSize)

	sched, err := scheduler.New(ctx)
	if err != nil {
		logger.Error("Failed to create scheduler: %v", err)
		os.Exit(1)
	}
	if cfg.QueueAutoReleaseAfter > 0 {
		if err := sched.AddQueueRelease(cfg.QueueReleaseSweep, queueUseCase); err != nil {
			logger.Error("Failed to schedule queue release: %v", err)
			os.Exit(1)
		}
	}
	if err := sched.AddBucketCleanup(10*time.Minute, time.Hour, rateLimiter); err != nil {
		logger.Error("Failed to schedule rate limit cleanup: %v", err)
		os.Exit(1)
	}
	sched.Start()

	wsManager := websocket.NewManager(chatUseCase, queueUseCase)

	handler.Setup(interestUseCase, userUseCase, queueUseCase, matchUseCase, chatUseCase)
	handler.SetupHealthHandler(cfg.StoreBackend)
	if cfg.IsDevelopment() {
		handler.SetupDevTokenHandler(firebaseAuthClient, repos.users)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = api.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(apimiddleware.CloudTrace(cfg.FirebaseProject))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.Metrics)
	e.Use(apimiddleware.RateLimit(20, 40))

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(repos.users)

	router.Setup(e, authMiddleware, adminMiddleware)
	router.SetupDevRouter(e, cfg.Environment)
	router.SetupWebSocketRouter(e, handler.NewWebSocketHandler(wsManager, nil), authMiddleware)

	go func() {
		logger.Info("Starting server on port %s (store: %s)", cfg.ServerPort, cfg.StoreBackend)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	wsManager.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		logger.Error("Scheduler shutdown failed: %v", err)
	}
}

func newRepositories(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (*repositories, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("Using the in-process store, data is lost on restart")
		store := memstore.New()
		return &repositories{
			users:     repository.NewMemoryUserRepository(store),
			queue:     repository.NewMemoryQueueRepository(store),
			matches:   repository.NewMemoryMatchRepository(store),
			messages:  repository.NewMemoryMessageRepository(store),
			interests: repository.NewMemoryInterestRepository(store),
			close:     func() error { return nil },
		}, nil
	}

	client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:     repository.NewFirestoreUserRepository(client),
		queue:     repository.NewFirestoreQueueRepository(client),
		matches:   repository.NewFirestoreMatchRepository(client, cfg.TransactionMaxAttempts),
		messages:  repository.NewFirestoreMessageRepository(client),
		interests: repository.NewFirestoreInterestRepository(client),
		close:     client.Close,
	}, nil
}
