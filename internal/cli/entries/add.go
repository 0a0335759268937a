package entries

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/errors"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/tui/forms"
	"github.com/julianstephens/hourlog/internal/validation"
)

type AddCmd struct {
	Description string `arg:"" optional:"" help:"What was done."`
	Customer    string `help:"Customer name." short:"c"`
	Hours       string `help:"Hours worked, e.g. 1.5."`
	Date        string `help:"Date (YYYY-MM-DD), defaults to today." short:"d"`
}

func (c *AddCmd) Validate() error {
	if c.Date != "" && !validation.IsDate(c.Date) {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", c.Date)
	}
	return nil
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	fields := forms.EntryFields{
		Date:        c.Date,
		Customer:    c.Customer,
		Hours:       c.Hours,
		Description: c.Description,
	}

	// Prompt for whatever was not given on the command line
	if strings.TrimSpace(fields.Customer) == "" || strings.TrimSpace(fields.Hours) == "" || strings.TrimSpace(fields.Description) == "" {
		if fields.Date == "" {
			fields.Date = ctx.Clock().Format(constants.DateFormat)
		}
		customers, err := ctx.Store.GetDistinctCustomers()
		if err != nil {
			logger.Warn("Failed to load customer suggestions", "error", err)
		}
		if err := forms.NewEntryForm("New entry", &fields, customers).Run(); err != nil {
			return fmt.Errorf("entry form cancelled: %w", err)
		}
	}

	e, err := Persist(ctx, fields.Candidate())
	if err != nil {
		return err
	}

	ctx.Printf("Added: %s | %s | %sh | %s\n", e.Date, e.Customer, cli.FormatRawHours(e.Hours), e.Description)
	return nil
}

// Persist validates a candidate, fills in today's date when it has none and
// stores it.
func Persist(ctx *cli.Context, c models.Candidate) (models.Entry, error) {
	res := validation.ValidateEntry(c)
	if !res.Valid() {
		return models.Entry{}, errors.Invalid(res.Messages())
	}

	e := res.Entry
	e.Date = validation.DefaultDate(e.Date, ctx.Clock())

	id, err := ctx.Store.AddEntry(e.Date, e.Customer, e.Hours, e.Description)
	if err != nil {
		return models.Entry{}, err
	}
	e.ID = id
	logger.Debug("Entry added", "id", id, "date", e.Date, "customer", e.Customer)
	return e, nil
}
