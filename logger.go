package framesource

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with framesource-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRun adds the run id every record of one Source carries.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// WithSlot adds a slot field to the logger.
func (l *Logger) WithSlot(slot uint) *Logger {
	return &Logger{
		Logger: l.Logger.With("slot", slot),
	}
}

// WithFile adds a file field to the logger.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}

// LogConfigure logs the outcome of New.
func (l *Logger) LogConfigure(ctx context.Context, files int, entries uint64, columns []string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "configure failed",
			"files", files,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "configured",
			"files", files,
			"entries", entries,
			"columns", columns,
		)
	}
}

// LogMissingColumns warns about allow-listed columns discovery did not find.
func (l *Logger) LogMissingColumns(ctx context.Context, missing []string) {
	if len(missing) == 0 {
		return
	}
	l.WarnContext(ctx, "allow-listed columns not found",
		"columns", missing,
	)
}

// LogClaim logs one GetEntryRanges installment.
func (l *Logger) LogClaim(ranges []EntryRange, remaining int) {
	if len(ranges) == 0 {
		l.Debug("entry ranges exhausted")
		return
	}
	l.Debug("entry ranges claimed",
		"count", len(ranges),
		"first", ranges[0].First,
		"last", ranges[len(ranges)-1].Last,
		"remaining", remaining,
	)
}

// LogSlot logs the opening of a slot bracket on a logger from WithSlot.
func (l *Logger) LogSlot(ctx context.Context, first uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "slot open failed",
			"first", first,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "slot opened",
			"first", first,
		)
	}
}

// LogSeek logs a failed SetEntry. Successful seeks are not logged.
func (l *Logger) LogSeek(ctx context.Context, entry uint64, err error) {
	l.ErrorContext(ctx, "seek failed",
		"entry", entry,
		"error", err,
	)
}
