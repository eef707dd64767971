// Package slogutil provides the slog handler and logger plumbing used across
// recordbook.
package slogutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"recordbook/internal/errors"
)

// shortIDLength is how much of a UUID id attr is printed.
const shortIDLength = 8

// LineHandler writes one line per record:
// TIMESTAMP [level] Message | key=value key=value
//
// Engine ids (dbId, messageId) that are UUIDs print shortened, SQL text
// (sql, query) prints on one line, and a *errors.QueryError value prints as
// its error followed by a query attr.
type LineHandler struct {
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// NewLineHandler creates a new line handler.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString(r.Time.UTC().Format(time.RFC3339))
	buf.WriteString(" [")
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.resolveAttr(a))
		return true
	})

	if len(attrs) > 0 {
		buf.WriteString(" |")
		for _, a := range attrs {
			if a.Key == "" {
				continue
			}
			h.appendAttr(&buf, a)
		}
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, h.resolveAttr(a))
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new handler with the given group name added.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	clone := *h
	clone.groups = newGroups
	return &clone
}

// resolveAttr prefixes the key with the open groups, e.g. "engine.dbId".
func (h *LineHandler) resolveAttr(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return slog.Attr{Key: key, Value: a.Value}
}

func (h *LineHandler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	v := a.Value.Resolve()
	name := a.Key
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	text := ""
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			var queryErr *errors.QueryError
			if stderrors.As(err, &queryErr) {
				writeAttr(buf, a.Key, queryErr.DatabaseError.Error())
				writeAttr(buf, strings.TrimSuffix(a.Key, name)+"query", oneLine(queryErr.Query))
				return
			}
			text = err.Error()
		}
	}
	if text == "" {
		text = formatValue(v)
	}

	switch name {
	case "dbId", "messageId":
		text = shortID(text)
	case "sql", "query":
		text = oneLine(text)
	}
	writeAttr(buf, a.Key, text)
}

func writeAttr(buf *bytes.Buffer, key, text string) {
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(text)
}

// shortID keeps the first block of a UUID; other ids print unchanged.
func shortID(id string) string {
	if _, err := uuid.Parse(id); err != nil || len(id) < shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// oneLine collapses runs of whitespace, newlines included.
func oneLine(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindGroup:
		var b bytes.Buffer
		b.WriteByte('{')
		for i, a := range v.Group() {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(a.Key)
			b.WriteByte('=')
			b.WriteString(formatValue(a.Value))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprint(v.Any())
	}
}
