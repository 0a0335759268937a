package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
)

// Field names a candidate entry field.
type Field string

const (
	FieldDate        Field = "date"
	FieldCustomer    Field = "customer"
	FieldHours       Field = "hours"
	FieldDescription Field = "description"
)

// Code classifies why a field was rejected.
type Code string

const (
	CodeRequired    Code = "required"
	CodeNotANumber  Code = "not_a_number"
	CodeNotPositive Code = "not_positive"
	CodeBadFormat   Code = "bad_format"
)

const (
	MsgCustomerRequired    = "Customer is required."
	MsgDescriptionRequired = "Description is required."
	MsgHoursNotANumber     = "Hours must be a number."
	MsgHoursNotPositive    = "Hours must be positive."
	MsgDateBadFormat       = "Date must be in YYYY-MM-DD format."
)

var (
	ErrHoursNotANumber  = errors.New("hours is not a number")
	ErrHoursNotPositive = errors.New("hours is not positive")
)

// FieldError is one rejected field of a candidate entry.
type FieldError struct {
	Field   Field
	Code    Code
	Message string
}

// Result is the outcome of validating a single candidate. Entry is only
// meaningful when Valid returns true.
type Result struct {
	Entry  models.Entry
	Errors []FieldError
}

// Valid returns true if no field was rejected
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Has reports whether the given field was rejected.
func (r *Result) Has(field Field) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Messages returns the human-readable messages in detection order.
func (r *Result) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// FormatReport returns a human-readable report of all rejected fields
func (r *Result) FormatReport() string {
	if r.Valid() {
		return "Entry is valid."
	}

	report := "Entry is invalid:\n"
	for _, e := range r.Errors {
		report += fmt.Sprintf("- %s\n", e.Message)
	}
	return report
}

func (r *Result) add(field Field, code Code, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: msg})
}

// ValidateEntry normalizes and checks a candidate entry. Every applicable
// error is collected. An empty date is left empty; substituting today is the
// caller's decision (see DefaultDate).
func ValidateEntry(c models.Candidate) Result {
	var r Result

	date := strings.TrimSpace(c.Date)
	customer := strings.TrimSpace(c.Customer)
	description := strings.TrimSpace(c.Description)

	if customer == "" {
		r.add(FieldCustomer, CodeRequired, MsgCustomerRequired)
	}
	if description == "" {
		r.add(FieldDescription, CodeRequired, MsgDescriptionRequired)
	}

	hours, err := ParseHours(c.Hours)
	switch {
	case errors.Is(err, ErrHoursNotANumber):
		r.add(FieldHours, CodeNotANumber, MsgHoursNotANumber)
	case errors.Is(err, ErrHoursNotPositive):
		r.add(FieldHours, CodeNotPositive, MsgHoursNotPositive)
	}

	if date != "" && !IsDate(date) {
		r.add(FieldDate, CodeBadFormat, MsgDateBadFormat)
	}

	r.Entry = models.Entry{
		Date:        date,
		Customer:    customer,
		Hours:       hours,
		Description: description,
	}
	return r
}

// ParseHours parses a real number of hours. NaN and infinities are treated
// as not a number.
func ParseHours(raw string) (float64, error) {
	h, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, ErrHoursNotANumber
	}
	if h <= 0 {
		return h, ErrHoursNotPositive
	}
	return h, nil
}

// IsDate reports whether s is a calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	if len(s) != len(constants.DateFormat) {
		return false
	}
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// IsMonth reports whether s is a month key in YYYY-MM form.
func IsMonth(s string) bool {
	if len(s) != len(constants.MonthFormat) {
		return false
	}
	_, err := time.Parse(constants.MonthFormat, s)
	return err == nil
}

// DefaultDate returns date, or today's date when date is blank.
func DefaultDate(date string, now time.Time) string {
	if d := strings.TrimSpace(date); d != "" {
		return d
	}
	return now.Format(constants.DateFormat)
}

// ValidateRow checks one transfer-format data row. rowNum counts the header
// as row 1. At most one message is returned per row; a rejected row yields a
// zero ImportRow.
func ValidateRow(rowNum int, fields map[string]string) (models.ImportRow, []string) {
	date := strings.TrimSpace(fields["date"])
	customer := strings.TrimSpace(fields["customer"])
	description := strings.TrimSpace(fields["description"])

	if date == "" || customer == "" || description == "" {
		return models.ImportRow{}, []string{fmt.Sprintf("Row %d: date, customer, and description are required.", rowNum)}
	}

	rawHours := fields["hours"]
	hours, err := ParseHours(rawHours)
	if err != nil {
		return models.ImportRow{}, []string{fmt.Sprintf("Row %d: invalid hours value '%s'.", rowNum, rawHours)}
	}

	if !IsDate(date) {
		return models.ImportRow{}, []string{fmt.Sprintf("Row %d: invalid date value '%s'.", rowNum, date)}
	}

	return models.ImportRow{
		Date:        date,
		Customer:    customer,
		Hours:       hours,
		Description: description,
		CreatedAt:   strings.TrimSpace(fields["created_at"]),
	}, nil
}
