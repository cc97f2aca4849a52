package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/photomarathon/pipeline/cmd/worker/cmds"
	"github.com/photomarathon/pipeline/internal/logger"
	otelpipeline "github.com/photomarathon/pipeline/internal/otel"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/cmd/worker")

func runApp(ctx context.Context) int {
	useOTLP, err := strconv.ParseBool(os.Getenv("USE_OTLP"))
	if err != nil {
		logger.Logger.Debug("USE_OTLP env var is unset or invalid", "error", err)
		useOTLP = false
	}

	shutdown, err := otelpipeline.SetupOTelSDK(ctx, "photopipeline-worker", useOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	}
	defer func() {
		// ctx may already be cancelled by a signal
		fail := shutdown(context.WithoutCancel(ctx))
		if fail != nil {
			logger.Logger.Warn("no clean shutdown for otel", "error", fail)
		}
	}()

	ctx, span := tracer.Start(ctx, "Worker", trace.WithNewRoot())
	defer span.End()

	err = cmds.Execute(ctx)
	if err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)

		var ee workererrors.ExitError
		if errors.As(err, &ee) {
			return ee.Code
		}
		return types.ExitErrored
	}

	return types.ExitNormal
}

func main() {
	logger.InitSlog(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runApp(ctx)
	stop()

	os.Exit(code)
}
