package logger

import (
	"io"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

var LogLevel = new(slog.LevelVar)

var otelHandler = slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))

// JSON logger on stderr, records carry the trace and span ids of the active span
var Logger = New(os.Stderr)

func New(w io.Writer) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: LogLevel})
	return slog.New(otelHandler(jsonHandler))
}

func InitSlog(level slog.Level) {
	slog.SetDefault(Logger)
	LogLevel.Set(level)
}
