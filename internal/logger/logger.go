// Package logger owns the process-wide zap logger. Components take a named
// child with Named and never configure sinks themselves.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the process logger. It is nil until Init or Setup runs.
	Log *zap.Logger
	// Sugar wraps Log for printf-style calls.
	Sugar *zap.SugaredLogger

	level = zap.NewAtomicLevel()
)

// Rotation configures the rotating log file. An empty Path disables it.
type Rotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps three compressed 50MB backups for a week.
func DefaultRotation(path string) Rotation {
	return Rotation{Path: path, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
}

// Options selects the sinks of the process logger.
type Options struct {
	Level string
	// Console receives coloured human-readable output; nil disables it.
	Console io.Writer
	File    Rotation
	// JSON switches the file sink to JSON lines.
	JSON bool
}

// Init logs to stdout and, when logFile is set, to a rotating file.
func Init(levelName, logFile string) error {
	o := Options{Level: levelName, Console: os.Stdout}
	if logFile != "" {
		o.File = DefaultRotation(logFile)
	}
	_, err := Setup(o)
	return err
}

// Setup replaces the process logger.
func Setup(o Options) (*zap.Logger, error) {
	if err := SetLevel(o.Level); err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if o.Console != nil {
		enc := zapcore.NewConsoleEncoder(encoderConfig(zapcore.TimeEncoderOfLayout("15:04:05"), zapcore.CapitalColorLevelEncoder))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(o.Console), level))
	}
	if o.File.Path != "" {
		w := &lumberjack.Logger{
			Filename:   o.File.Path,
			MaxSize:    o.File.MaxSizeMB,
			MaxBackups: o.File.MaxBackups,
			MaxAge:     o.File.MaxAgeDays,
			Compress:   o.File.Compress,
			LocalTime:  true,
		}
		cfg := encoderConfig(zapcore.ISO8601TimeEncoder, zapcore.CapitalLevelEncoder)
		var enc zapcore.Encoder
		if o.JSON {
			enc = zapcore.NewJSONEncoder(cfg)
		} else {
			enc = zapcore.NewConsoleEncoder(cfg)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), level))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()
	return Log, nil
}

func encoderConfig(t zapcore.TimeEncoder, l zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       t,
		EncodeLevel:      l,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
}

// SetLevel changes the level of every sink at runtime. An empty name means
// info.
func SetLevel(name string) error {
	if name == "" {
		level.SetLevel(zapcore.InfoLevel)
		return nil
	}
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	level.SetLevel(l)
	return nil
}

// Level returns the current level.
func Level() zapcore.Level { return level.Level() }

// InitNop installs a logger that discards everything.
func InitNop() {
	Log = zap.NewNop()
	Sugar = Log.Sugar()
}

// Named returns a child logger for a component, or a no-op logger before
// Init.
func Named(name string) *zap.Logger {
	if Log == nil {
		return zap.NewNop().Named(name)
	}
	return Log.Named(name)
}

// Sync flushes buffered entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Info and Error log on the root logger with the caller of the wrapper.
func Info(msg string, fields ...zap.Field)  { root().Info(msg, fields...) }
func Error(msg string, fields ...zap.Field) { root().Error(msg, fields...) }

func root() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.WithOptions(zap.AddCallerSkip(1))
}
