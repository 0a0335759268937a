package transfers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/transfer"
	"github.com/julianstephens/hourlog/internal/validation"
)

type ExportCmd struct {
	From     string `help:"Start date (YYYY-MM-DD), inclusive."`
	To       string `help:"End date (YYYY-MM-DD), inclusive."`
	Customer string `help:"Filter by customer." short:"c"`
	Output   string `help:"Output file, or - for stdout." short:"o" default:"${export_file}"`
}

func (c *ExportCmd) Validate() error {
	for _, d := range []string{c.From, c.To} {
		if d != "" && !validation.IsDate(d) {
			return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", d)
		}
	}
	return nil
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Store.GetEntries(models.EntryFilter{From: c.From, To: c.To, Customer: c.Customer})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Println("No entries to export.")
		return nil
	}

	output := c.Output
	if output == "" {
		output = constants.DefaultExportFile
	}

	if output == "-" {
		return transfer.Write(ctx.Out(), entries)
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := transfer.Write(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	ctx.Printf("Exported %d entries to %s\n", len(entries), output)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"CSV file to import." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}

	rows, rowErrors := transfer.Parse(transfer.StripBOM(data))
	for _, msg := range rowErrors {
		fmt.Fprintln(ctx.ErrOut(), msg)
	}
	if len(rows) == 0 {
		if len(rowErrors) == 0 {
			ctx.Println("No rows to import.")
		}
		return nil
	}

	ctx.PerformAutomaticBackup()

	imported, skipped, err := ctx.Store.ImportEntries(rows)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("Imported entries", "file", filepath.Base(c.File), "imported", imported, "skipped", skipped, "rejected", len(rowErrors))

	ctx.Printf("Imported %d entries, skipped %d duplicates.\n", imported, skipped)
	return nil
}
