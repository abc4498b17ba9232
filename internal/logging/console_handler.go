package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleHandler renders one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO pipeline[audio_fallback]: stage applied reason="one conversion"
//
// The component and stage attributes become the line prefix instead of
// key=value pairs.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool
	color     bool

	component string
	stage     string
	group     string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{
		mu:        &sync.Mutex{},
		out:       w,
		level:     lvl,
		addSource: addSource,
		color:     isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	component, stage := h.component, h.stage
	fields := make([]field, 0, len(h.fields)+record.NumAttrs())
	fields = append(fields, h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = h.collect(fields, h.group, attr, &component, &stage)
		return true
	})

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	var b strings.Builder
	b.WriteString(when.Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(h.levelText(record.Level))
	b.WriteByte(' ')
	b.WriteString(prefix(component, stage))

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(render(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = next.collect(next.fields, next.group, attr, &next.component, &next.stage)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.fields = append([]field(nil), h.fields...)
	next.group = joinKey(h.group, name)
	return &next
}

// collect flattens attr into dst, lifting top-level component and stage
// attributes into the line prefix. The first value seen wins.
func (h *consoleHandler) collect(dst []field, group string, attr slog.Attr, component, stage *string) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = joinKey(group, attr.Key)
		}
		for _, a := range attr.Value.Group() {
			dst = h.collect(dst, inner, a, component, stage)
		}
		return dst
	}
	if group == "" {
		switch attr.Key {
		case FieldComponent:
			if *component == "" {
				*component = plain(attr.Value)
			}
			return dst
		case FieldStage:
			if *stage == "" {
				*stage = plain(attr.Value)
			}
			return dst
		}
	}
	key := joinKey(group, attr.Key)
	if key == "" {
		return dst
	}
	return append(dst, field{key: key, value: attr.Value})
}

func (h *consoleHandler) levelText(level slog.Level) string {
	var text, code string
	switch {
	case level >= slog.LevelError:
		text, code = "ERROR", "31"
	case level >= slog.LevelWarn:
		text, code = "WARN ", "33"
	case level >= slog.LevelInfo:
		text, code = "INFO ", "32"
	default:
		text, code = "DEBUG", "90"
	}
	if !h.color {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

func prefix(component, stage string) string {
	switch {
	case component != "" && stage != "":
		return component + "[" + stage + "]: "
	case component != "":
		return component + ": "
	case stage != "":
		return "[" + stage + "]: "
	default:
		return ""
	}
}

func joinKey(group, key string) string {
	switch {
	case group == "":
		return key
	case key == "":
		return group
	default:
		return group + "." + key
	}
}

// plain renders v without quoting.
func plain(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func render(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if list, ok := v.Any().([]string); ok {
			return quoteIfNeeded(strings.Join(list, ","))
		}
	}
	return quoteIfNeeded(plain(v))
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '"' || r == '=' || r == 0x7f {
			return strconv.Quote(s)
		}
	}
	return s
}
