// Package logger builds the service's kratos logger on top of zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"clinicflow/subscription-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger output. It mirrors the log section of the service config.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or text
	Output     string // stdout, stderr, file, both (stdout + file)
	FilePath   string
	MaxSize    int // megabytes before rotation
	MaxAge     int // days to keep rotated files
	MaxBackups int
	Compress   bool
}

var _ log.Logger = (*Logger)(nil)

// Logger adapts zerolog to the kratos log.Logger interface.
type Logger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewLogger creates a logger from cfg. A nil cfg logs info and above as JSON to stdout.
func NewLogger(cfg *Config) *Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	w, closer := selectWriter(cfg)
	if strings.EqualFold(cfg.Format, "text") {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	}
	return &Logger{
		zl:     zerolog.New(w).Level(ParseLevel(cfg.Level)),
		closer: closer,
	}
}

// NewFromConf creates a logger from the log section of the service config.
func NewFromConf(c *conf.Log) *Logger {
	if c == nil {
		return NewLogger(nil)
	}
	return NewLogger(&Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	})
}

func selectWriter(cfg *Config) (io.Writer, io.Closer) {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stderr":
		return os.Stderr, nil
	case "file":
		f := rollingFile(cfg)
		return f, f
	case "both":
		f := rollingFile(cfg)
		return io.MultiWriter(os.Stdout, f), f
	default:
		return os.Stdout, nil
	}
}

func rollingFile(cfg *Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}

// ParseLevel maps a config level to zerolog; unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Log implements log.Logger.
func (l *Logger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var event *zerolog.Event
	switch level {
	case log.LevelDebug:
		event = l.zl.Debug()
	case log.LevelWarn:
		event = l.zl.Warn()
	case log.LevelError:
		event = l.zl.Error()
	case log.LevelFatal:
		// WithLevel logs at fatal without exiting; kratos handles the exit.
		event = l.zl.WithLevel(zerolog.FatalLevel)
	default:
		event = l.zl.Info()
	}

	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		event = event.Interface(key, keyvals[i+1])
	}
	event.Send()
	return nil
}

// Close releases the rotating file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
