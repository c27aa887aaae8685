package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"cloud.google.com/go/logging"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatCloud = "cloud"

	logID = "matchmate"
)

type ctxKey struct{}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

type Options struct {
	Format    string
	Level     string
	ProjectID string
	Output    io.Writer
}

// Init installs the process logger. The returned func flushes and closes any
// remote sink and must be called on shutdown.
func Init(ctx context.Context, opts Options) (func() error, error) {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	closer := func() error { return nil }
	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = NewCloudLoggingHandler(out, level)
	case FormatCloud:
		client, err := logging.NewClient(ctx, opts.ProjectID)
		if err != nil {
			return closer, fmt.Errorf("failed to create logging client: %w", err)
		}
		handler = newCloudClientHandler(client.Logger(logID), level)
		closer = client.Close
	default:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
	return closer, nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	return current.Load()
}

func Info(format string, v ...interface{}) {
	L().Info(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	L().Debug(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	L().Warn(fmt.Sprintf(format, v...))
}

// WithLogger stores a request-scoped logger on ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With derives a logger carrying args from the one on ctx and stores it back.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L()
}
