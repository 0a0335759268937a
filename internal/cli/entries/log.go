package entries

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/tui/forms"
)

type LogCmd struct {
	Text []string `arg:"" help:"Free-text description of the work, e.g. \"2h on the Acme migration yesterday\"."`
	Yes  bool     `help:"Save without asking for confirmation." short:"y"`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	message := strings.TrimSpace(strings.Join(c.Text, " "))
	if message == "" {
		return fmt.Errorf("nothing to log")
	}

	managed, err := storage.ManagedNames(ctx.Store)
	if err != nil {
		logger.Warn("Failed to load customers for extraction", "error", err)
	}
	customers, err := ctx.Store.GetDistinctCustomers()
	if err != nil {
		logger.Warn("Failed to load customer suggestions", "error", err)
	}

	cand, err := ctx.Extractor()(context.Background(), message, managed, ctx.Clock())
	if err != nil {
		return err
	}

	fields := forms.FromCandidate(cand)
	if !c.Yes {
		if err := forms.NewEntryForm("Review extracted entry", &fields, customers).Run(); err != nil {
			return fmt.Errorf("entry form cancelled: %w", err)
		}
		confirmed := true
		if err := forms.NewConfirmForm("Save this entry?", forms.Summary(fields), &confirmed).Run(); err != nil {
			return fmt.Errorf("confirmation cancelled: %w", err)
		}
		if !confirmed {
			ctx.Println("Nothing saved.")
			return nil
		}
	}

	e, err := Persist(ctx, fields.Candidate())
	if err != nil {
		return err
	}
	ctx.Printf("Added: %s | %s | %sh | %s\n", e.Date, e.Customer, cli.FormatRawHours(e.Hours), e.Description)
	return nil
}
