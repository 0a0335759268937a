package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/hourlog/internal/backup"
	"github.com/julianstephens/hourlog/internal/config"
	"github.com/julianstephens/hourlog/internal/extract"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/storage/sqlite"
)

// Context is handed to every command's Run method.
type Context struct {
	Store  storage.Provider
	Config *config.Config

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
	// Extract defaults to the configured Ollama client.
	Extract ExtractFunc
}

// ExtractFunc turns free text into a candidate entry.
type ExtractFunc func(ctx context.Context, message string, customers []string, today time.Time) (models.Candidate, error)

func (c *Context) Out() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) ErrOut() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out(), args...)
}

// Clock returns the current time.
func (c *Context) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// SQLiteStore returns the store when it is a local sqlite file.
func (c *Context) SQLiteStore() (*sqlite.Store, bool) {
	s, ok := c.Store.(*sqlite.Store)
	return s, ok
}

// Extractor returns Extract, or an Ollama client built from the configuration.
func (c *Context) Extractor() ExtractFunc {
	if c.Extract != nil {
		return c.Extract
	}
	if c.Config == nil {
		return extract.New("", "", 0).Extract
	}
	return extract.New(c.Config.OllamaURL, c.Config.OllamaModel, c.Config.OllamaTimeout).Extract
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Remote stores are backed up by their server and are skipped.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.SQLiteStore(); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FormatRawHours renders hours the way they were entered: the shortest
// exact form, always with a fractional part ("2" becomes "2.0").
func FormatRawHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
