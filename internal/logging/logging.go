// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Setup installs the default logger: JSON in production, text elsewhere,
// debug level in development.
func Setup(env string) {
	slog.SetDefault(New(os.Stdout, env))
}

// New builds a logger writing to w.
func New(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "development" || env == "dev" {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewContextHandler(h))
}

// Fields are request-scoped attributes added to every record logged with
// the carrying context.
type Fields struct {
	RequestID         string
	ClientID          string
	Visitor           string
	VisitorConfidence float64
}

type fieldsKey struct{}

// WithFields returns a context carrying f.
func WithFields(ctx context.Context, f Fields) context.Context {
	return context.WithValue(ctx, fieldsKey{}, f)
}

// FieldsFrom returns the fields stored in ctx.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

// ContextHandler enriches records with Fields from the context.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

// Handle adds the context fields and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	f := FieldsFrom(ctx)
	if f.RequestID != "" {
		r.AddAttrs(slog.String("request_id", f.RequestID))
	}
	if f.ClientID != "" {
		r.AddAttrs(slog.String("client_id", f.ClientID))
	}
	if f.Visitor != "" {
		r.AddAttrs(slog.String("visitor", f.Visitor))
		if f.VisitorConfidence > 0 {
			r.AddAttrs(slog.Float64("visitor_confidence", f.VisitorConfidence))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
