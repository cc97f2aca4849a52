package cmds

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/photomarathon/pipeline/internal/config"
	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/migrations"
	"github.com/photomarathon/pipeline/internal/store"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

func openDB(ctx context.Context) (*gorm.DB, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
	}
	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, workererrors.ExitErrorWrap(types.ExitErrored, err)
	}
	return db, nil
}

func closeDB(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		logger.Logger.WarnContext(ctx, "failed to close database", "error", err)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the database to the latest schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateCmd")
		defer span.End()

		db, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB(ctx, db)

		if err := migrations.Up(ctx, db); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to migrate")
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		span.SetStatus(codes.Ok, "migrated")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateDownCmd")
		defer span.End()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(ctx, db)

		if err := migrations.Down(ctx, db); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to roll back")
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(ctx, db)

		version, err := migrations.Version(ctx, db)
		if err != nil {
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
}
