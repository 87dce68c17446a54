package logging

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var levelBackground = map[slog.Level]string{
	slog.LevelError: "lightpink",
	slog.LevelWarn:  "lightyellow",
	slog.LevelInfo:  "#e6fee6",
	slog.LevelDebug: "#eee",
}

func background(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return levelBackground[slog.LevelError]
	case level >= slog.LevelWarn:
		return levelBackground[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return levelBackground[slog.LevelInfo]
	default:
		return levelBackground[slog.LevelDebug]
	}
}

// HTMLHandler writes each record as a monospace block coloured by level.
type HTMLHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*HTMLHandler)(nil)

func NewHTMLHandler(w io.Writer, level slog.Leveler) *HTMLHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &HTMLHandler{mu: &sync.Mutex{}, w: w, level: level, attrs: nil, group: ""}
}

func (h *HTMLHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *HTMLHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w,
		"<div style=\"font-family:monospace;background:%s;color:black\"><pre>%s</pre></div>\n",
		background(r.Level), html.EscapeString(b.String()))
	return err //nolint:wrapcheck
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value.Resolve())
}

func (h *HTMLHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &h2
}

func (h *HTMLHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	h2.group = name
	return &h2
}
