package entries

import (
	"errors"
	"fmt"

	"github.com/julianstephens/hourlog/internal/cli"
	hlerrors "github.com/julianstephens/hourlog/internal/errors"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/tui/forms"
	"github.com/julianstephens/hourlog/internal/validation"
)

type EditCmd struct {
	ID          int64    `arg:"" help:"Entry ID to edit."`
	Date        *string  `help:"New date (YYYY-MM-DD)." short:"d"`
	Customer    *string  `help:"New customer." short:"c"`
	Hours       *float64 `help:"New hours."`
	Description *string  `help:"New description."`
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	current, err := ctx.Store.GetEntry(c.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("entry %d not found", c.ID)
	}
	if err != nil {
		return err
	}

	fields := forms.FromEntry(current)
	if c.Date != nil {
		fields.Date = *c.Date
	}
	if c.Customer != nil {
		fields.Customer = *c.Customer
	}
	if c.Hours != nil {
		fields.Hours = cli.FormatRawHours(*c.Hours)
	}
	if c.Description != nil {
		fields.Description = *c.Description
	}

	updated, err := applyEdit(ctx, c.ID, fields.Candidate())
	if err != nil {
		return err
	}

	ctx.Printf("Updated entry %d: %s | %s | %sh | %s\n",
		c.ID, updated.Date, updated.Customer, cli.FormatRawHours(updated.Hours), updated.Description)
	return nil
}

// applyEdit validates the merged fields and writes them back. An edit
// never clears the date.
func applyEdit(ctx *cli.Context, id int64, cand models.Candidate) (models.Entry, error) {
	res := validation.ValidateEntry(cand)
	if !res.Valid() {
		return models.Entry{}, hlerrors.Invalid(res.Messages())
	}
	e := res.Entry
	e.Date = validation.DefaultDate(e.Date, ctx.Clock())

	err := ctx.Store.UpdateEntry(id, e.Date, e.Customer, e.Hours, e.Description)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Entry{}, fmt.Errorf("entry %d not found", id)
	}
	if err != nil {
		return models.Entry{}, err
	}
	e.ID = id
	return e, nil
}

type DeleteCmd struct {
	ID int64 `arg:"" help:"Entry ID to delete."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.DeleteEntry(c.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted entry %d.\n", c.ID)
	return nil
}
