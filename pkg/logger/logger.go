package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/slgirgis/horizonscale/pkg/config"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
//
// Logs go to stderr: the CLI prints leaderboard and risk tables on stdout
// and the two streams must not interleave.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger from config.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	zlog := zerolog.New(newOutput(cfg.LogFormat)).
		With().
		Timestamp().
		Str("service", "horizonscale").
		Str("env", cfg.Env).
		Logger()

	return &Logger{zlog: zlog}
}

// newOutput selects the writer for the configured format.
// "console"/"pretty" are for local development; everything else is JSON.
func newOutput(format string) io.Writer {
	switch format {
	case "console", "pretty":
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	default:
		return os.Stderr
	}
}

// parseLogLevel converts a config string to a zerolog level, defaulting to
// info for anything unrecognized.
func parseLogLevel(levelStr string) zerolog.Level {
	normalized := strings.ToLower(strings.TrimSpace(levelStr))
	if normalized == "warning" {
		normalized = "warn"
	}

	level, err := zerolog.ParseLevel(normalized)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Component returns a child logger tagged with a component name.
// 엔진 구성요소(partitioner, pool, tournament, ...)별 로거 생성용
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// WithField returns a child logger with one additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger with multiple additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) {
	l.zlog.Fatal().Msg(msg)
}
