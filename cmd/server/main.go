package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/caseboard/api/handler"
	"github.com/fastygo/caseboard/internal/config"
	"github.com/fastygo/caseboard/internal/infrastructure/buffer"
	"github.com/fastygo/caseboard/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/caseboard/internal/infrastructure/redis"
	"github.com/fastygo/caseboard/internal/infrastructure/store"
	"github.com/fastygo/caseboard/internal/middleware"
	"github.com/fastygo/caseboard/internal/router"
	"github.com/fastygo/caseboard/internal/services"
	"github.com/fastygo/caseboard/internal/services/lifecycle"
	"github.com/fastygo/caseboard/pkg/httpcontext"
	"github.com/fastygo/caseboard/pkg/logger"
	redisRepo "github.com/fastygo/caseboard/repository/redis"
	"github.com/fastygo/caseboard/usecase"
	"github.com/fastygo/caseboard/usecase/access"
	authUC "github.com/fastygo/caseboard/usecase/auth"
	taskUC "github.com/fastygo/caseboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   cfg.Logger.Output,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx := manager.Listen(context.Background())

	stores, err := store.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("task store unavailable", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	manager.RegisterCloser(stores.Driver, stores.Close)

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient.Close)

	var (
		outbox    *buffer.Outbox
		sizer     monitor.OutboxSizer
		publisher usecase.EventPublisher
	)
	if cfg.Events.Enabled {
		outbox, err = buffer.Open(cfg.Events.OutboxPath, "")
		if err != nil {
			zapLogger.Fatal("failed to open event outbox", zap.Error(err))
		}
		manager.RegisterCloser("outbox", outbox.Close)
		sizer = outbox
	}

	mon := monitor.New(stores.Driver, stores.Pinger, redisClient, sizer, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	if outbox != nil {
		processor := services.NewEventProcessor(
			outbox,
			redisInfra.NewEventChannel(redisClient, cfg.Events.Channel),
			mon,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Events.SyncInterval,
				BatchSize:  cfg.Events.BatchSize,
				MaxRetries: cfg.Events.MaxRetries,
				Retention:  cfg.Events.Retention,
			},
		)
		processor.Start()
		manager.Register("event_processor", func(ctx context.Context) error {
			processor.Stop(ctx)
			return nil
		})
		publisher = services.NewEventBridge(processor)
	}

	revocations := redisRepo.NewRevocationRepository(redisClient, cfg.Redis.RevocationTTL)
	policy := access.New(stores.Directory, zapLogger)

	authUseCase := authUC.New(stores.Directory, revocations, zapLogger)
	taskUseCase := taskUC.New(stores.Tasks, stores.Directory, policy, publisher, zapLogger)
	ledger := taskUC.NewLedger(stores.Tasks, policy, publisher, zapLogger)

	tokens, err := middleware.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		zapLogger.Fatal("invalid jwt configuration", zap.Error(err))
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ledger, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(tokens, authUseCase, cfg.Context.RequestTimeout, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", stores.Driver),
			zap.Bool("events", cfg.Events.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
