package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/hourlog/internal/constants"
)

// Config is the resolved runtime configuration shared by every command.
type Config struct {
	// Store is the raw store selector: a sqlite path, a postgres URL,
	// a mysql:// DSN or "keyring".
	Store string
	Debug bool

	OllamaURL     string
	OllamaModel   string
	OllamaTimeout time.Duration
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped and variables that are already set win over file values.
func LoadEnv(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join(ExpandPath(constants.DefaultConfigDir), ".env")}
	}

	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// IsRemote reports whether the store selector points at a database server
// rather than a local sqlite file.
func IsRemote(store string) bool {
	return IsPostgres(store) || IsMySQL(store) || store == constants.KeyringConfigValue
}

func IsPostgres(store string) bool {
	return strings.HasPrefix(store, "postgres://") || strings.HasPrefix(store, "postgresql://")
}

func IsMySQL(store string) bool {
	return strings.HasPrefix(store, "mysql://")
}

// DataDir is where logs, backups and the server lockfile live. For a sqlite
// store that is the database's directory; remote stores use the default
// config directory.
func (c *Config) DataDir() string {
	if c.Store == "" || IsRemote(c.Store) {
		return ExpandPath(constants.DefaultConfigDir)
	}
	return filepath.Dir(ExpandPath(c.Store))
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.Store) == "" {
		errors = append(errors, "store location cannot be empty")
	}

	if u, err := url.Parse(c.OllamaURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid Ollama URL '%s': %v", c.OllamaURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid Ollama URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if strings.TrimSpace(c.OllamaModel) == "" {
		errors = append(errors, "Ollama model cannot be empty")
	}

	if c.OllamaTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid Ollama timeout %v: must be positive", c.OllamaTimeout))
	} else if c.OllamaTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid Ollama timeout %v: must be at most 10 minutes", c.OllamaTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
