package logger

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	level     slog.Level
	json      bool
	output    io.Writer
	attrs     []slog.Attr
	addSource bool
}

// Option is a functional option for configuring the logger factory.
type Option func(*config)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithJSONFormatter switches the handler to JSON output.
func WithJSONFormatter() Option {
	return func(c *config) {
		c.json = true
	}
}

// WithTextFormatter switches the handler to human-readable text output.
func WithTextFormatter() Option {
	return func(c *config) {
		c.json = false
	}
}

// WithOutput sets the log destination. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds a static attribute to every log record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithSource includes the source file and line in log records.
func WithSource() Option {
	return func(c *config) {
		c.addSource = true
	}
}

// WithDevelopment configures a text logger at debug level tagged with the app name.
func WithDevelopment(app string) Option {
	return func(c *config) {
		c.json = false
		c.level = slog.LevelDebug
		c.attrs = append(c.attrs, slog.String("app", app), slog.String("env", "development"))
	}
}

// WithStaging configures a JSON logger at info level tagged with the app name.
func WithStaging(app string) Option {
	return func(c *config) {
		c.json = true
		c.level = slog.LevelInfo
		c.attrs = append(c.attrs, slog.String("app", app), slog.String("env", "staging"))
	}
}

// WithProduction configures a JSON logger at info level tagged with the app name.
func WithProduction(app string) Option {
	return func(c *config) {
		c.json = true
		c.level = slog.LevelInfo
		c.attrs = append(c.attrs, slog.String("app", app), slog.String("env", "production"))
	}
}

// New creates a configured *slog.Logger. Without options it produces a text
// logger at info level writing to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.addSource,
	}

	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops all records. Used as the default for
// components whose callers did not supply a logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
