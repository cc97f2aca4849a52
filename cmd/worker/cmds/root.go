package cmds

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/photomarathon/pipeline/internal/app"
	"github.com/photomarathon/pipeline/internal/config"
	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/cmd/worker/cmds")

var rootCmd = &cobra.Command{
	Use:           "worker",
	Short:         "Processes uploaded marathon photos",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadApp reads the config and wires the pipeline. Config problems exit as invalid input.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
	}

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, workererrors.ExitErrorWrap(types.ExitErrored, err)
	}

	return a, nil
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(); err != nil {
		logger.Logger.WarnContext(ctx, "failed to close pipeline resources", "error", err)
	}
}
