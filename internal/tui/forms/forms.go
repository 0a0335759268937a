// Package forms builds the huh forms shared by the terminal UI and the
// interactive CLI commands.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/validation"
)

// EntryFields is the editable state behind an entry form.
type EntryFields struct {
	Date        string
	Customer    string
	Hours       string
	Description string
}

// FromEntry fills the fields from a stored entry.
func FromEntry(e models.Entry) EntryFields {
	return EntryFields{
		Date:        e.Date,
		Customer:    e.Customer,
		Hours:       strconv.FormatFloat(e.Hours, 'f', -1, 64),
		Description: e.Description,
	}
}

// FromCandidate fills the fields from an extracted or partially typed entry.
func FromCandidate(c models.Candidate) EntryFields {
	return EntryFields{
		Date:        c.Date,
		Customer:    c.Customer,
		Hours:       c.Hours,
		Description: c.Description,
	}
}

func (f EntryFields) Candidate() models.Candidate {
	return models.Candidate{
		Date:        f.Date,
		Customer:    f.Customer,
		Hours:       f.Hours,
		Description: f.Description,
	}
}

// CustomerHint lists the first few known customers for a field description.
func CustomerHint(customers []string) string {
	if len(customers) == 0 {
		return ""
	}
	if len(customers) > constants.RecentCustomerHint {
		customers = customers[:constants.RecentCustomerHint]
	}
	return "Known: " + strings.Join(customers, ", ")
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || validation.IsDate(s) {
		return nil
	}
	return errors.New(validation.MsgDateBadFormat)
}

func validateCustomer(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(validation.MsgCustomerRequired)
	}
	return nil
}

func validateHours(s string) error {
	_, err := validation.ParseHours(s)
	switch {
	case errors.Is(err, validation.ErrHoursNotANumber):
		return errors.New(validation.MsgHoursNotANumber)
	case errors.Is(err, validation.ErrHoursNotPositive):
		return errors.New(validation.MsgHoursNotPositive)
	}
	return nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(validation.MsgDescriptionRequired)
	}
	return nil
}

// NewEntryForm edits f in place. Known customers are offered as
// completions on the customer field.
func NewEntryForm(title string, f *EntryFields, customers []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Date (YYYY-MM-DD, blank for today)").
				Value(&f.Date).
				Validate(validateDate),
			huh.NewInput().
				Title("Customer").
				Description(CustomerHint(customers)).
				Suggestions(customers).
				Value(&f.Customer).
				Validate(validateCustomer),
			huh.NewInput().
				Title("Hours").
				Value(&f.Hours).
				Validate(validateHours),
			huh.NewInput().
				Title("Description").
				Value(&f.Description).
				Validate(validateDescription),
		),
	)
}

// NewConfirmForm asks a yes/no question.
func NewConfirmForm(title, description string, confirmed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(confirmed),
		),
	)
}

// Summary renders fields on one line for confirmation prompts.
func Summary(f EntryFields) string {
	date := f.Date
	if strings.TrimSpace(date) == "" {
		date = "(today)"
	}
	return fmt.Sprintf("%s | %s | %sh | %s", date, f.Customer, f.Hours, f.Description)
}
