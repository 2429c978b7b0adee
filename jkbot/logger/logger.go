package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
	TypeHTTP    LogType = "HTTP"
	TypeJob     LogType = "JOB"
)

var (
	levelColors = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgMagenta),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
	}
	frameColor = color.New(color.FgWhite)
)

// internalAttrs are folded into the message instead of printed as key=value.
var internalAttrs = []string{"type", "name", "user_name", "status", "error", "error_location"}

// disgo's gateway and rest clients are chatty at debug level.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

type CustomHandler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// NewHandler builds the console handler. A nil writer means stdout.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *CustomHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &CustomHandler{out: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Setup installs the process-wide default logger. Format "json" switches
// to slog's JSON handler for log shippers; anything else gets the console
// handler.
func Setup(level slog.Level, addSource bool, format string) {
	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}
	if strings.EqualFold(format, "json") {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
		return
	}
	slog.SetDefault(slog.New(NewHandler(nil, opts)))
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(slices.Clip(h.attrs), attrs...)
	return &c
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(slices.Clip(h.groups), name)
	return &c
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	attrs := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	message := r.Message
	if r.Level >= slog.LevelError {
		if location := errorLocation(attrs, &r, h.opts.AddSource); location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
	}
	if details := attrValue(attrs, "error"); details != "" {
		message = fmt.Sprintf("%s: %s", message, details)
	}

	cmdName, userName := attrValue(attrs, "name"), attrValue(attrs, "user_name")
	if cmdName != "" && userName != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, cmdName, userName)
	}
	if status := attrValue(attrs, "status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}

	var extra strings.Builder
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		if slices.Contains(internalAttrs, a.Key) {
			continue
		}
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		fmt.Fprintf(&extra, " %s=%v", key, a.Value)
	}

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	line := fmt.Sprintf("%s %s %s %s%s",
		frameColor.Sprintf("[JKBot] [%s]", timestamp.Format("15:04:05")),
		frameColor.Sprint("[")+levelColor(r.Level).Sprint(r.Level.String())+frameColor.Sprint("]"),
		frameColor.Sprintf("[%s]", logType(attrs)),
		message,
		extra.String(),
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return levelColors[slog.LevelError]
	case level >= slog.LevelWarn:
		return levelColors[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return levelColors[slog.LevelInfo]
	default:
		return levelColors[slog.LevelDebug]
	}
}

func shouldSkipLog(r *slog.Record) bool {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(attrs []slog.Attr) LogType {
	switch attrValue(attrs, "type") {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "error":
		return TypeError
	case "http":
		return TypeHTTP
	case "job":
		return TypeJob
	default:
		return TypeSystem
	}
}

func attrValue(attrs []slog.Attr, key string) string {
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == key {
			return attrs[i].Value.String()
		}
	}
	return ""
}

func errorLocation(attrs []slog.Attr, r *slog.Record, addSource bool) string {
	if location := attrValue(attrs, "error_location"); location != "" {
		return location
	}
	if !addSource || r.PC == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}
