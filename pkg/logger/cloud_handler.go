package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/logging"
)

type traceKey struct{}

// WithTrace attaches a Cloud Trace id that handlers copy onto each entry.
func WithTrace(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

func TraceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, _ := ctx.Value(traceKey{}).(string)
	return trace
}

// CloudLoggingHandler writes one JSON object per record in the structured
// format Cloud Run and Cloud Functions pick up from stdout.
type CloudLoggingHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
}

func NewCloudLoggingHandler(out io.Writer, level slog.Level) *CloudLoggingHandler {
	return &CloudLoggingHandler{mu: &sync.Mutex{}, out: out, level: level}
}

func (h *CloudLoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := map[string]any{
		"severity": severity(r.Level).String(),
		"time":     r.Time.Format(time.RFC3339Nano),
		"message":  r.Message,
	}
	if trace := TraceFromContext(ctx); trace != "" {
		entry["logging.googleapis.com/trace"] = trace
	}
	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(data)
	return err
}

func (h *CloudLoggingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CloudLoggingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CloudLoggingHandler{mu: h.mu, out: h.out, level: h.level, attrs: merged}
}

// WithGroup is a no-op; groups are flattened.
func (h *CloudLoggingHandler) WithGroup(_ string) slog.Handler {
	return h
}

// cloudClientHandler ships records through the Cloud Logging API instead of stdout.
type cloudClientHandler struct {
	logger *logging.Logger
	level  slog.Level
	attrs  []slog.Attr
}

func newCloudClientHandler(l *logging.Logger, level slog.Level) *cloudClientHandler {
	return &cloudClientHandler{logger: l, level: level}
}

func (h *cloudClientHandler) Handle(ctx context.Context, r slog.Record) error {
	payload := map[string]any{"message": r.Message}
	for _, attr := range h.attrs {
		payload[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		payload[attr.Key] = attr.Value.Any()
		return true
	})

	h.logger.Log(logging.Entry{
		Timestamp: r.Time,
		Severity:  severity(r.Level),
		Payload:   payload,
		Trace:     TraceFromContext(ctx),
	})
	return nil
}

func (h *cloudClientHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *cloudClientHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &cloudClientHandler{logger: h.logger, level: h.level, attrs: merged}
}

func (h *cloudClientHandler) WithGroup(_ string) slog.Handler {
	return h
}

func severity(level slog.Level) logging.Severity {
	switch {
	case level >= slog.LevelError:
		return logging.Error
	case level >= slog.LevelWarn:
		return logging.Warning
	case level >= slog.LevelInfo:
		return logging.Info
	default:
		return logging.Debug
	}
}
