package logging

import (
	"context"
	"log/slog"
)

// renameHandler applies replaceAttr to handlers that take no HandlerOptions.
type renameHandler struct {
	slog.Handler
}

func (h *renameHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(replaceAttr(nil, a))
		return true
	})
	return h.Handler.Handle(ctx, out)
}

func (h *renameHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	renamed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		renamed[i] = replaceAttr(nil, a)
	}
	return &renameHandler{Handler: h.Handler.WithAttrs(renamed)}
}

func (h *renameHandler) WithGroup(name string) slog.Handler {
	return &renameHandler{Handler: h.Handler.WithGroup(name)}
}
