package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tradeLog/internal/ports"
)

// LogLevel defines the logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string level to LogLevel.
func ParseLevel(levelStr string) LogLevel {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo // Default to Info
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logger configuration.
type Config struct {
	Level  LogLevel
	Pretty bool      // Human readable console output instead of JSON
	Output io.Writer // Defaults to os.Stderr
}

// ZeroLogger implements the ports.Logger interface on top of zerolog.
type ZeroLogger struct {
	log zerolog.Logger
}

var _ ports.Logger = (*ZeroLogger)(nil)

// New creates a structured logger.
func New(cfg Config) *ZeroLogger {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return &ZeroLogger{
		log: zerolog.New(out).Level(cfg.Level.zerolog()).With().Timestamp().Logger(),
	}
}

// With returns a child logger that adds component=name to every entry.
func (l *ZeroLogger) With(component string) *ZeroLogger {
	return &ZeroLogger{log: l.log.With().Str("component", component).Logger()}
}

func (l *ZeroLogger) write(ctx context.Context, e *zerolog.Event, msg string, fields []map[string]interface{}) {
	if e == nil {
		return // level disabled
	}
	if id := ports.OperationID(ctx); id != "" {
		e = e.Str("op_id", id)
	}
	if len(fields) > 0 && fields[0] != nil {
		e = e.Fields(fields[0])
	}
	e.Msg(msg)
}

// Debug logs a message at Debug level.
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, l.log.Debug(), msg, fields)
}

// Info logs a message at Info level.
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, l.log.Info(), msg, fields)
}

// Warn logs a message at Warning level.
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, l.log.Warn(), msg, fields)
}

// Error logs an error message at Error level.
func (l *ZeroLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.write(ctx, l.log.Error().Err(err), msg, fields)
}
