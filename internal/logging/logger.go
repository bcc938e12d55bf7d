package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"asciireel/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	outputWriter, err := openWriters(
		defaultSlice(opts.OutputPaths, []string{"stderr"}),
		defaultSlice(opts.ErrorOutputPaths, []string{"stderr"}),
	)
	if err != nil {
		return nil, err
	}

	handler, err := newFormatHandler(opts.Format, outputWriter, levelVar, opts.Development || level <= slog.LevelDebug)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// ConfigOption adjusts how NewFromConfig routes output.
type ConfigOption func(*configOptions)

type configOptions struct {
	console io.Writer
	now     func() time.Time
}

// WithoutConsole keeps log records off the terminal. Playback uses it so log
// lines never land on top of rendered frames.
func WithoutConsole() ConfigOption {
	return func(o *configOptions) { o.console = nil }
}

// WithConsole routes console output to w instead of stderr.
func WithConsole(w io.Writer) ConfigOption {
	return func(o *configOptions) { o.console = w }
}

// NewFromConfig creates a logger that writes to the console in the configured
// format and appends JSON records to the daily log file in the log directory.
func NewFromConfig(cfg *config.Config, options ...ConfigOption) (*slog.Logger, error) {
	settings := configOptions{console: os.Stderr, now: time.Now}
	for _, opt := range options {
		opt(&settings)
	}
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	level := parseLevel(cfg.Logging.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := level <= slog.LevelDebug

	var handlers []slog.Handler
	if settings.console != nil {
		handler, err := newFormatHandler(cfg.Logging.Format, settings.console, levelVar, addSource)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, handler)
	}
	if cfg.Paths.LogDir != "" {
		logPath := LogFilePath(cfg.Paths.LogDir, settings.now())
		writer, err := openWriters([]string{logPath}, nil)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, newJSONHandler(writer, levelVar, addSource))
	}
	return slog.New(TeeHandler(handlers...)), nil
}

// LogFilePath returns the log file that records written at ts belong to.
func LogFilePath(dir string, ts time.Time) string {
	return filepath.Join(dir, "asciireel-"+ts.Format("20060102")+".log")
}

func newFormatHandler(format string, w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newPrettyHandler(w, lvl, addSource), nil
	case "json":
		return newJSONHandler(w, lvl, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		cp := make([]string, len(fallback))
		copy(cp, fallback)
		return cp
	}
	cp := make([]string, len(value))
	copy(cp, value)
	return cp
}

func openWriters(outputPaths []string, errorPaths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	combined := append([]string{}, outputPaths...)
	combined = append(combined, errorPaths...)

	for _, path := range combined {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
