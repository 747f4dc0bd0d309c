// Package logger provides structured logging for mochibot.
// Console output is always on; when an output path is configured a rotated
// JSON file (lumberjack) is written alongside it.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the log level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	// LevelFatal logs then calls os.Exit(1).
	LevelFatal Level = "fatal"
)

// Config represents logger configuration.
type Config struct {
	// Level is the minimum log level.
	Level Level

	// OutputPath is the rotated log file. Empty means console only.
	OutputPath string

	// MaxSize is the size in megabytes before rotation.
	MaxSize int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// MaxAge is the number of days to keep rotated files.
	MaxAge int
	// Compress gzips rotated files.
	Compress bool

	// Development switches the console to a colored, human-readable encoder.
	Development bool

	EnableCaller     bool
	EnableStacktrace bool
}

// DefaultConfig returns the logger configuration used when nothing is set.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Level:            LevelInfo,
		OutputPath:       filepath.Join(homeDir, ".mochibot", "logs", "mochibot.log"),
		MaxSize:          50,
		MaxBackups:       5,
		MaxAge:           14,
		Compress:         true,
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// Logger wraps zap.Logger.
type Logger struct {
	*zap.Logger
	config *Config
}

// New creates a logger from cfg.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := encoderConfig()
	consoleCfg := encCfg
	var console zapcore.Encoder
	if cfg.Development {
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		console = zapcore.NewConsoleEncoder(consoleCfg)
	} else {
		console = zapcore.NewJSONEncoder(consoleCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(os.Stdout), level),
	}

	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.OutputPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotator),
			level,
		))
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...), opts...),
		config: cfg,
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: &Config{Level: LevelError}}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), config: l.config}
}

// WithFields returns a child logger carrying fields on every entry.
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), config: l.config}
}

// Sugar returns a sugared logger.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.Logger.Sugar()
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// ParseLevel converts a Level to a zapcore.Level. An empty level means info.
func ParseLevel(level Level) (zapcore.Level, error) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	case LevelFatal:
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
