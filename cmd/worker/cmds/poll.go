package cmds

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/migrations"
	"github.com/photomarathon/pipeline/internal/routes"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

// pause after a failed poll so a broken queue does not spin
const pollBackoff = 5 * time.Second

var skipMigrations bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the uploads queue and process object notifications until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "pollCmd")
		defer span.End()

		a, err := loadApp(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to initialize pipeline")
			return err
		}
		defer closeApp(ctx, a)

		if !skipMigrations {
			if err := migrations.Up(ctx, a.DB); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to migrate database")
				return workererrors.ExitErrorWrap(types.ExitErrored, err)
			}
		}

		uploads, err := a.UploadsQueue()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to initialize uploads queue")
			return workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
		}

		sqlDB, err := a.DB.DB()
		if err != nil {
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		server := &http.Server{
			Addr:              a.Config.ListenAddress,
			Handler:           routes.BuildEcho(logger.Logger, "photopipeline-worker", sqlDB),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Logger.InfoContext(gctx, "serving health and metrics", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Duration(a.Config.GracefulShutdownSecs)*time.Second,
			)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			logger.Logger.InfoContext(gctx, "polling uploads queue",
				"batchSize", a.Config.Worker.BatchSize,
				"concurrency", a.Config.Worker.Concurrency,
			)
			for gctx.Err() == nil {
				err := uploads.Dequeue(gctx, a.Config.Worker.MessageTimeout, a.Dispatcher)
				if err == nil || gctx.Err() != nil {
					continue
				}

				logger.Logger.ErrorContext(gctx, "failed to poll uploads queue", "error", err)
				select {
				case <-gctx.Done():
				case <-time.After(pollBackoff):
				}
			}
			return nil
		})

		err = g.Wait()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "worker stopped with an error")
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		logger.Logger.InfoContext(ctx, "worker stopped")
		span.SetStatus(codes.Ok, "worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not migrate the database on startup")
}
