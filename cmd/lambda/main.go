package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.opentelemetry.io/otel"

	"github.com/photomarathon/pipeline/internal/app"
	"github.com/photomarathon/pipeline/internal/config"
	"github.com/photomarathon/pipeline/internal/logger"
	otelpipeline "github.com/photomarathon/pipeline/internal/otel"
	"github.com/photomarathon/pipeline/internal/types"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/cmd/lambda")

func run(ctx context.Context) int {
	cfg, err := config.GetConfig()
	if err != nil {
		logger.Logger.Error("failed to load config", "error", err)
		return types.ExitInvalidInput
	}
	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	shutdown, err := otelpipeline.SetupOTelSDK(ctx, "photopipeline-lambda", cfg.Logging.UseOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	}
	defer func() {
		if fail := shutdown(ctx); fail != nil {
			logger.Logger.Warn("no clean shutdown for otel", "error", fail)
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Logger.Error("failed to initialize pipeline", "error", err)
		return types.ExitErrored
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Logger.Warn("failed to close pipeline resources", "error", err)
		}
	}()

	lambda.StartWithOptions(newSQSHandler(a.Dispatcher).Handle, lambda.WithEnableSIGTERM(func() {
		logger.Logger.Info("lambda runtime is shutting down")
	}))

	return types.ExitNormal
}

func main() {
	logger.InitSlog(slog.LevelInfo)
	os.Exit(run(context.Background()))
}
