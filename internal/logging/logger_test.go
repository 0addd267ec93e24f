package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}

	for input, want := range tests {
		if got := LevelFromString(input); got != want {
			t.Errorf("LevelFromString(%q): expected %v, got %v", input, want, got)
		}
	}
}

func TestNewLogger_WritesFileSink(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(&Config{Level: zapcore.InfoLevel, Format: "json", LogDir: dir})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	logger.Info("estimate completed", String("mode", "text"))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "foodlog.log"))
	if err != nil {
		t.Fatalf("Expected log file, got %v", err)
	}
	if !strings.Contains(string(data), `"mode":"text"`) {
		t.Errorf("Expected mode field in log file, got %s", string(data))
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core)).With(String("route", "/vision"))

	logger.Warn("upload failed")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["route"] != "/vision" {
		t.Errorf("Expected route field, got %v", entries[0].ContextMap())
	}
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	logger.Named("child").Error("ignored")
}
