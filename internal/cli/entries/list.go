package entries

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
	"github.com/julianstephens/hourlog/internal/validation"
)

type ListCmd struct {
	Today    bool   `help:"Show today's entries."`
	Date     string `help:"Show entries for a specific date (YYYY-MM-DD)." short:"d"`
	From     string `help:"Start date (YYYY-MM-DD), inclusive."`
	To       string `help:"End date (YYYY-MM-DD), inclusive."`
	Customer string `help:"Filter by customer." short:"c"`
}

func (c *ListCmd) Validate() error {
	for _, d := range []string{c.Date, c.From, c.To} {
		if d != "" && !validation.IsDate(d) {
			return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", d)
		}
	}
	return nil
}

// Filter resolves --today and --date into an inclusive range.
func (c *ListCmd) Filter(ctx *cli.Context) models.EntryFilter {
	from, to := c.From, c.To
	date := c.Date
	if c.Today {
		date = ctx.Clock().Format(constants.DateFormat)
	}
	if date != "" {
		from, to = date, date
	}
	return models.EntryFilter{From: from, To: to, Customer: c.Customer}
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Store.GetEntries(c.Filter(ctx))
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		ctx.Println("No entries found.")
		return nil
	}

	r := report.Build(entries)
	for _, day := range r.Days {
		ctx.Println(day.Date)
		for _, e := range day.Entries {
			ctx.Printf("  %-20s %5.1fh  %s\n", e.Customer, e.Hours, e.Description)
		}
		ctx.Printf("  %s\n", strings.Repeat("-", 40))
		ctx.Printf("  Total: %sh\n", report.FormatHours(day.Total))
		ctx.Println()
	}

	if r.ShowGrandTotal {
		ctx.Printf("Grand total: %sh\n", report.FormatHours(r.Total))
	}
	return nil
}
