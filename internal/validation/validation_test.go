package validation

import (
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/hourlog/internal/models"
)

func TestValidateEntry_Valid(t *testing.T) {
	result := ValidateEntry(models.Candidate{
		Date:        " 2024-03-05 ",
		Customer:    "  Acme ",
		Hours:       " 2.5",
		Description: " Fixed the build ",
	})

	if !result.Valid() {
		t.Fatalf("expected valid result, got %v", result.Messages())
	}

	want := models.Entry{Date: "2024-03-05", Customer: "Acme", Hours: 2.5, Description: "Fixed the build"}
	if result.Entry != want {
		t.Errorf("Entry = %+v, want %+v", result.Entry, want)
	}
}

func TestValidateEntry_CollectsAllErrors(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.Candidate
		want      []string
		fields    []Field
	}{
		{
			name:      "everything missing",
			candidate: models.Candidate{},
			want:      []string{MsgCustomerRequired, MsgDescriptionRequired, MsgHoursNotANumber},
			fields:    []Field{FieldCustomer, FieldDescription, FieldHours},
		},
		{
			name:      "whitespace only fields",
			candidate: models.Candidate{Customer: "   ", Hours: "1", Description: "\t"},
			want:      []string{MsgCustomerRequired, MsgDescriptionRequired},
			fields:    []Field{FieldCustomer, FieldDescription},
		},
		{
			name:      "zero hours",
			candidate: models.Candidate{Customer: "A", Hours: "0", Description: "d"},
			want:      []string{MsgHoursNotPositive},
			fields:    []Field{FieldHours},
		},
		{
			name:      "negative hours",
			candidate: models.Candidate{Customer: "A", Hours: "-1.5", Description: "d"},
			want:      []string{MsgHoursNotPositive},
			fields:    []Field{FieldHours},
		},
		{
			name:      "non numeric hours",
			candidate: models.Candidate{Customer: "A", Hours: "two", Description: "d"},
			want:      []string{MsgHoursNotANumber},
			fields:    []Field{FieldHours},
		},
		{
			name:      "nan hours",
			candidate: models.Candidate{Customer: "A", Hours: "NaN", Description: "d"},
			want:      []string{MsgHoursNotANumber},
			fields:    []Field{FieldHours},
		},
		{
			name:      "malformed date",
			candidate: models.Candidate{Date: "05/03/2024", Customer: "A", Hours: "1", Description: "d"},
			want:      []string{MsgDateBadFormat},
			fields:    []Field{FieldDate},
		},
		{
			name:      "impossible date",
			candidate: models.Candidate{Date: "2024-02-30", Customer: "A", Hours: "1", Description: "d"},
			want:      []string{MsgDateBadFormat},
			fields:    []Field{FieldDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEntry(tt.candidate)
			if result.Valid() {
				t.Fatal("expected invalid result")
			}
			if got := result.Messages(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Messages() = %v, want %v", got, tt.want)
			}
			for _, f := range tt.fields {
				if !result.Has(f) {
					t.Errorf("expected field %q to be rejected", f)
				}
			}
		})
	}
}

func TestValidateEntry_EmptyDateIsLeftToCaller(t *testing.T) {
	result := ValidateEntry(models.Candidate{Customer: "A", Hours: "1", Description: "d"})
	if !result.Valid() {
		t.Fatalf("expected valid result, got %v", result.Messages())
	}
	if result.Entry.Date != "" {
		t.Errorf("Date = %q, want empty", result.Entry.Date)
	}
}

func TestFormatReport(t *testing.T) {
	valid := ValidateEntry(models.Candidate{Customer: "A", Hours: "1", Description: "d"})
	if got := valid.FormatReport(); got != "Entry is valid." {
		t.Errorf("FormatReport() = %q", got)
	}

	invalid := ValidateEntry(models.Candidate{Customer: "A", Hours: "x", Description: "d"})
	want := "Entry is invalid:\n- Hours must be a number.\n"
	if got := invalid.FormatReport(); got != want {
		t.Errorf("FormatReport() = %q, want %q", got, want)
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr error
	}{
		{"1", 1, nil},
		{" 0.25 ", 0.25, nil},
		{"1e1", 10, nil},
		{"0", 0, ErrHoursNotPositive},
		{"-3", -3, ErrHoursNotPositive},
		{"", 0, ErrHoursNotANumber},
		{"abc", 0, ErrHoursNotANumber},
		{"Inf", 0, ErrHoursNotANumber},
	}
	for _, tt := range tests {
		got, err := ParseHours(tt.raw)
		if err != tt.wantErr {
			t.Errorf("ParseHours(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHours(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDefaultDate(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.Local)
	if got := DefaultDate("", now); got != "2024-03-09" {
		t.Errorf("DefaultDate(\"\") = %q, want 2024-03-09", got)
	}
	if got := DefaultDate("  ", now); got != "2024-03-09" {
		t.Errorf("DefaultDate(blank) = %q, want 2024-03-09", got)
	}
	if got := DefaultDate("2023-12-31", now); got != "2023-12-31" {
		t.Errorf("DefaultDate(date) = %q, want 2023-12-31", got)
	}
}

func TestIsMonth(t *testing.T) {
	for _, s := range []string{"2024-03", "1999-12"} {
		if !IsMonth(s) {
			t.Errorf("IsMonth(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"2024-3", "2024-13", "2024-03-01", "march"} {
		if IsMonth(s) {
			t.Errorf("IsMonth(%q) = true, want false", s)
		}
	}
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name    string
		row     int
		fields  map[string]string
		want    models.ImportRow
		wantMsg string
	}{
		{
			name: "valid row with created_at",
			row:  2,
			fields: map[string]string{
				"date": " 2024-01-02 ", "customer": " Acme", "hours": "1.5",
				"description": "Call ", "created_at": " 2024-01-02T09:00:00 ",
			},
			want: models.ImportRow{Date: "2024-01-02", Customer: "Acme", Hours: 1.5, Description: "Call", CreatedAt: "2024-01-02T09:00:00"},
		},
		{
			name:   "valid row without created_at",
			row:    3,
			fields: map[string]string{"date": "2024-01-02", "customer": "Acme", "hours": "2", "description": "Call"},
			want:   models.ImportRow{Date: "2024-01-02", Customer: "Acme", Hours: 2, Description: "Call"},
		},
		{
			name:    "missing description",
			row:     4,
			fields:  map[string]string{"date": "2024-01-02", "customer": "Acme", "hours": "2", "description": " "},
			wantMsg: "Row 4: date, customer, and description are required.",
		},
		{
			name:    "missing date reported once even with bad hours",
			row:     5,
			fields:  map[string]string{"customer": "Acme", "hours": "abc", "description": "x"},
			wantMsg: "Row 5: date, customer, and description are required.",
		},
		{
			name:    "non numeric hours",
			row:     6,
			fields:  map[string]string{"date": "2024-01-02", "customer": "Acme", "hours": "abc", "description": "x"},
			wantMsg: "Row 6: invalid hours value 'abc'.",
		},
		{
			name:    "non positive hours",
			row:     7,
			fields:  map[string]string{"date": "2024-01-02", "customer": "Acme", "hours": "-2", "description": "x"},
			wantMsg: "Row 7: invalid hours value '-2'.",
		},
		{
			name:    "bad date",
			row:     8,
			fields:  map[string]string{"date": "02.01.2024", "customer": "Acme", "hours": "1", "description": "x"},
			wantMsg: "Row 8: invalid date value '02.01.2024'.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msgs := ValidateRow(tt.row, tt.fields)
			if tt.wantMsg != "" {
				if len(msgs) != 1 || msgs[0] != tt.wantMsg {
					t.Fatalf("messages = %v, want [%s]", msgs, tt.wantMsg)
				}
				if got != (models.ImportRow{}) {
					t.Errorf("rejected row returned %+v, want zero value", got)
				}
				return
			}
			if len(msgs) != 0 {
				t.Fatalf("unexpected messages: %v", msgs)
			}
			if got != tt.want {
				t.Errorf("row = %+v, want %+v", got, tt.want)
			}
		})
	}
}
