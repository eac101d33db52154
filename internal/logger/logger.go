// Package logger builds the process-wide slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// New returns a logger and installs it as the slog default.
//
//	development → text, Debug and up
//	production  → JSON, Info and up
//
// With a Sentry DSN, Error records are also sent to Sentry. A DSN that fails
// to initialise is reported on stdout and otherwise ignored.
func New(isDev bool, sentryDSN string) *slog.Logger {
	logger := slog.New(build(os.Stdout, isDev, sentryDSN))
	slog.SetDefault(logger)
	return logger
}

// Flush waits for buffered Sentry events. Call it before the process exits.
func Flush() {
	sentry.Flush(2 * time.Second)
}

func build(w io.Writer, isDev bool, sentryDSN string) slog.Handler {
	var base slog.Handler
	if isDev {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	if sentryDSN == "" {
		return base
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
		slog.New(base).Warn("sentry disabled", slog.String("error", err.Error()))
		return base
	}

	return slogmulti.Fanout(
		base,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)
}
