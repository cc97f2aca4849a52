package cmds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/photomarathon/pipeline/internal/audit"
	"github.com/photomarathon/pipeline/internal/dispatch"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var processKeys []string

type itemReport struct {
	Key     string              `json:"key"`
	Skipped bool                `json:"skipped,omitempty"`
	Codes   []workererrors.Code `json:"codes,omitempty"`
}

type batchReport struct {
	Items     []itemReport `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
}

func toBatchReport(r dispatch.Report) batchReport {
	out := batchReport{
		Items:     make([]itemReport, 0, len(r.Items)),
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
	}
	for _, item := range r.Items {
		ir := itemReport{Key: item.Key, Skipped: item.Skipped}
		if item.Err != nil {
			ir.Codes, _ = workererrors.Classify(item.Err)
		}
		out.Items = append(out.Items, ir)
	}
	return out
}

// Exits 0 when every key succeeded or was skipped, 2 when some failed and 1 when all failed
func reportExitCode(r dispatch.Report) int {
	switch {
	case r.Failed == 0:
		return types.ExitNormal
	case r.Failed == len(r.Items):
		return types.ExitErrored
	default:
		return types.ExitPartialFailure
	}
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process object keys directly, bypassing the queue",
	Long: `
Runs the pipeline for each --key and prints a JSON report on stdout.
- Exits with 0 if every key was processed or skipped.
- Exits with 2 if some keys failed.
- Exits with 1 if every key failed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "processCmd")
		defer span.End()

		span.SetAttributes(attribute.StringSlice("keys", processKeys))

		// stdout carries the report
		audit.SetOutput(os.Stderr)

		a, err := loadApp(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to initialize pipeline")
			return err
		}
		defer closeApp(ctx, a)

		report := a.Dispatcher.Dispatch(ctx, processKeys)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toBatchReport(report)); err != nil {
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		code := reportExitCode(report)
		if code != types.ExitNormal {
			err := fmt.Errorf("%d of %d keys failed", report.Failed, len(report.Items))
			span.RecordError(err)
			span.SetStatus(codes.Error, "keys failed")
			return workererrors.ExitErrorWrap(code, err)
		}

		span.SetStatus(codes.Ok, "processed keys")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringArrayVar(&processKeys, "key", nil, "Object key of an original, repeatable (required)")
	if err := processCmd.MarkFlagRequired("key"); err != nil {
		panic(errors.Join(errors.New("failed to mark key flag required"), err))
	}
}
