package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
	"github.com/julianstephens/hourlog/internal/validation"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" name:"db-path" help:"Show database path."`
	DumpEntry DebugDumpEntryCmd `cmd:"" help:"Dump an entry as JSON."`
	DumpMonth DebugDumpMonthCmd `cmd:"" help:"Dump a month's entries and totals as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(b))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpEntryCmd struct {
	ID int64 `arg:"" help:"ID of the entry to dump."`
}

func (cmd *DebugDumpEntryCmd) Run(ctx *cli.Context) error {
	e, err := ctx.Store.GetEntry(cmd.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("entry %d not found", cmd.ID)
		}
		return fmt.Errorf("failed to get entry: %w", err)
	}
	return printJSON(ctx, e)
}

type DebugDumpMonthCmd struct {
	Month string `arg:"" help:"Month to dump (YYYY-MM or 'current')."`
}

func (cmd *DebugDumpMonthCmd) Run(ctx *cli.Context) error {
	month := cmd.Month
	if month == "current" {
		month = ctx.Clock().Format(constants.MonthFormat)
	}
	if !validation.IsMonth(month) {
		return fmt.Errorf("invalid month format: %s (expected YYYY-MM or 'current')", month)
	}

	from, to, err := report.MonthRange(month)
	if err != nil {
		return err
	}
	entries, err := ctx.Store.GetEntries(models.EntryFilter{From: from, To: to})
	if err != nil {
		return fmt.Errorf("failed to get entries: %w", err)
	}
	totals, err := ctx.Store.GetMonthlySummary(month)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}

	return printJSON(ctx, struct {
		Key     string      `json:"key"`
		Label   string      `json:"label"`
		Entries interface{} `json:"entries"`
		Totals  interface{} `json:"totals"`
		Total   float64     `json:"total"`
	}{
		Key:     month,
		Label:   sqlstore.MonthLabel(month),
		Entries: entries,
		Totals:  totals,
		Total:   report.SumTotals(totals),
	})
}
