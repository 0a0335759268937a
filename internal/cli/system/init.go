package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing sqlite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		s, ok := ctx.SQLiteStore()
		if !ok {
			return fmt.Errorf("--force is only supported for local sqlite storage")
		}
		dbPath := s.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release the file handle
			if err := s.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
			// The closed handle cannot be reused.
			fresh := sqlite.NewStore(dbPath)
			ctx.Store = fresh
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized hourlog storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
