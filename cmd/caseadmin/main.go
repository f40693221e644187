package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fastygo/caseboard/internal/admin"
	"github.com/fastygo/caseboard/internal/config"
	"github.com/fastygo/caseboard/internal/infrastructure/store"
	"github.com/fastygo/caseboard/internal/middleware"
	"github.com/fastygo/caseboard/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return admin.ExitFailure
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: "console",
		Output:   "stderr",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		return admin.ExitFailure
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	stores, err := store.Open(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Error("task store unavailable", zap.Error(err))
		return admin.ExitFailure
	}
	defer stores.Close()

	tokens, err := middleware.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		zapLogger.Error("invalid jwt configuration", zap.Error(err))
		return admin.ExitFailure
	}

	return admin.Run(ctx, os.Args[1:], admin.Deps{
		Directory: stores.Directory,
		Tokens:    tokens,
		TokenTTL:  cfg.JWT.TokenTTL,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
}
