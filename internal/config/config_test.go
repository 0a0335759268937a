package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Store:         "/tmp/hourlog/hourlog.db",
		OllamaURL:     "http://localhost:11434",
		OllamaModel:   "llama3.2",
		OllamaTimeout: 30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid sqlite config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid postgres config",
			mutate:  func(c *Config) { c.Store = "postgres://me@localhost:5432/hourlog" },
			wantErr: false,
		},
		{
			name:        "empty store",
			mutate:      func(c *Config) { c.Store = "  " },
			wantErr:     true,
			errorString: "store location cannot be empty",
		},
		{
			name:        "bad ollama scheme",
			mutate:      func(c *Config) { c.OllamaURL = "ftp://localhost:11434" },
			wantErr:     true,
			errorString: "invalid Ollama URL scheme 'ftp'",
		},
		{
			name:        "empty model",
			mutate:      func(c *Config) { c.OllamaModel = "" },
			wantErr:     true,
			errorString: "Ollama model cannot be empty",
		},
		{
			name:        "zero timeout",
			mutate:      func(c *Config) { c.OllamaTimeout = 0 },
			wantErr:     true,
			errorString: "must be positive",
		},
		{
			name:        "huge timeout",
			mutate:      func(c *Config) { c.OllamaTimeout = time.Hour },
			wantErr:     true,
			errorString: "must be at most 10 minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.config/hourlog/hourlog.db", filepath.Join(home, ".config/hourlog/hourlog.db")},
		{"~", home},
		{"/abs/path.db", "/abs/path.db"},
		{"relative.db", "relative.db"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDataDir(t *testing.T) {
	cfg := Config{Store: "/var/data/hourlog/work.db"}
	if got := cfg.DataDir(); got != "/var/data/hourlog" {
		t.Errorf("DataDir() = %q, want /var/data/hourlog", got)
	}

	remote := Config{Store: "mysql://me@tcp(localhost:3306)/hourlog"}
	if got := remote.DataDir(); got != ExpandPath("~/.config/hourlog") {
		t.Errorf("DataDir() for remote = %q", got)
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		store string
		want  bool
	}{
		{"postgres://localhost/db", true},
		{"postgresql://localhost/db", true},
		{"mysql://me@tcp(localhost:3306)/db", true},
		{"keyring", true},
		{"~/.config/hourlog/hourlog.db", false},
		{"./hourlog.db", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.store); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.store, got, tt.want)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "HOURLOG_TEST_MODEL=mistral\nHOURLOG_TEST_KEEP=fromfile\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("HOURLOG_TEST_KEEP", "fromenv")
	os.Unsetenv("HOURLOG_TEST_MODEL")
	t.Cleanup(func() { os.Unsetenv("HOURLOG_TEST_MODEL") })

	loaded := LoadEnv(filepath.Join(dir, "missing.env"), envFile)
	if len(loaded) != 1 || loaded[0] != envFile {
		t.Fatalf("LoadEnv() loaded = %v, want [%s]", loaded, envFile)
	}

	if got := os.Getenv("HOURLOG_TEST_MODEL"); got != "mistral" {
		t.Errorf("HOURLOG_TEST_MODEL = %q, want mistral", got)
	}
	if got := os.Getenv("HOURLOG_TEST_KEEP"); got != "fromenv" {
		t.Errorf("existing variable overwritten: got %q", got)
	}
}
