package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/hourlog/internal/constants"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: false, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := LogDir(configDir)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("debug message")
	Info("info message")
	Warn("warning message", "entry", 7)
	Error("error message")

	data, err := os.ReadFile(filepath.Join(logDir, constants.LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "debug message") || strings.Contains(content, "info message") {
		t.Errorf("non-debug logger wrote below warn level: %q", content)
	}
	if !strings.Contains(content, "warning message") {
		t.Errorf("log file missing warning: %q", content)
	}
}

func TestInitDebugMode(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: true, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("debug line")

	data, err := os.ReadFile(filepath.Join(LogDir(configDir), constants.LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "debug line") {
		t.Errorf("debug logger did not record debug message: %q", string(data))
	}
}

func TestNamed(t *testing.T) {
	configDir := t.TempDir()

	l, err := Named(Config{ConfigDir: configDir}, constants.ServerLogFileName, "web")
	if err != nil {
		t.Fatalf("Named() error: %v", err)
	}
	l.Info("request completed", "status", 200)

	data, err := os.ReadFile(filepath.Join(LogDir(configDir), constants.ServerLogFileName))
	if err != nil {
		t.Fatalf("failed to read server log: %v", err)
	}
	if !strings.Contains(string(data), "request completed") {
		t.Errorf("server log missing message: %q", string(data))
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// Must not panic
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}
