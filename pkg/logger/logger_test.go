package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[Level]zapcore.Level{
		LevelDebug: zapcore.DebugLevel,
		LevelInfo:  zapcore.InfoLevel,
		"":         zapcore.InfoLevel,
		LevelWarn:  zapcore.WarnLevel,
		LevelError: zapcore.ErrorLevel,
		LevelFatal: zapcore.FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mochibot.log")

	log, err := New(&Config{
		Level:      LevelInfo,
		OutputPath: path,
		MaxSize:    1,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	log.WithFields(zap.String("component", "test")).Info("hello file")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello file"`) {
		t.Fatalf("log file missing entry, got:\n%s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Fatalf("log file missing field, got:\n%s", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNopDiscards(t *testing.T) {
	log := NewNop().Named("router")
	log.Error("ignored")
}
