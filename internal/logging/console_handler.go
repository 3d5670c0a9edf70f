package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiCyan   = "\x1b[36m"
)

type consoleHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	attrs  []slog.Attr
	groups []string
	color  bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	color := false
	if file, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return &consoleHandler{writer: w, level: lvl, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	attrs := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	var component, jobID, scene, stage string
	filtered := attrs[:0]
	for _, attr := range attrs {
		switch attr.Key {
		case FieldComponent:
			if component == "" {
				component = attr.Value.String()
			}
		case FieldJobID:
			if jobID == "" {
				jobID = attr.Value.String()
			}
		case FieldScene:
			if scene == "" {
				scene = attr.Value.String()
			}
		case FieldStage:
			if stage == "" {
				stage = attr.Value.String()
			}
			filtered = append(filtered, attr)
		default:
			filtered = append(filtered, attr)
		}
	}

	var buf bytes.Buffer
	buf.Grow(192 + len(filtered)*24)

	buf.WriteString(h.dim(timestamp.Format("15:04:05")))
	buf.WriteByte(' ')
	buf.WriteString(h.levelLabel(record.Level))
	if subject := formatSubject(component, jobID, scene); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(h.colorize(ansiCyan, subject))
	}
	buf.WriteByte(' ')
	buf.WriteString(strings.TrimSpace(record.Message))
	for _, attr := range filtered {
		if attr.Key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(h.dim(attr.Key + "=" + attr.Value.String()))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &consoleHandler{writer: h.writer, level: h.level, color: h.color}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	clone.groups = append([]string(nil), h.groups...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := &consoleHandler{writer: h.writer, level: h.level, color: h.color, attrs: h.attrs}
	clone.groups = append(append([]string(nil), h.groups...), name)
	return clone
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize(ansiRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.colorize(ansiYellow, "WARN ")
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return h.dim("DEBUG")
	}
}

func (h *consoleHandler) colorize(code, text string) string {
	if !h.color {
		return text
	}
	return code + text + ansiReset
}

func (h *consoleHandler) dim(text string) string {
	return h.colorize(ansiDim, text)
}

// formatSubject builds the component/job/scene subject string used in console output.
func formatSubject(component, jobID, scene string) string {
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	if jobID != "" {
		short := jobID
		if len(short) > 8 {
			short = short[:8]
		}
		parts = append(parts, "job "+short)
	}
	if scene != "" {
		parts = append(parts, "scene "+scene)
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " ") + "]"
}
