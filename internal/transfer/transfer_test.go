package transfer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/julianstephens/hourlog/internal/models"
)

func TestSerialize(t *testing.T) {
	entries := []models.Entry{
		{ID: 7, Date: "2024-03-01", Customer: "Acme, Inc.", Hours: 2.5, Description: `said "hi"`, CreatedAt: "2024-03-01T10:00:00"},
		{ID: 8, Date: "2024-03-02", Customer: "Globex", Hours: 1, Description: "plain", CreatedAt: "2024-03-02T11:00:00"},
	}

	got, err := Serialize(entries)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	want := "date,customer,hours,description,created_at\n" +
		"2024-03-01,\"Acme, Inc.\",2.5,\"said \"\"hi\"\"\",2024-03-01T10:00:00\n" +
		"2024-03-02,Globex,1,plain,2024-03-02T11:00:00\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerializeEmptyWritesHeader(t *testing.T) {
	got, err := Serialize(nil)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got != "date,customer,hours,description,created_at\n" {
		t.Errorf("Serialize(nil) = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	entries := []models.Entry{
		{Date: "2024-03-01", Customer: "Acme, Inc.", Hours: 0.1, Description: "multi\nline", CreatedAt: "2024-03-01T10:00:00"},
		{Date: "2024-03-02", Customer: "Globex", Hours: 12.75, Description: `quote "inside"`, CreatedAt: "2024-03-02T11:00:00"},
		{Date: "2024-03-03", Customer: "Initech", Hours: 3, Description: "no timestamp"},
	}

	text, err := Serialize(entries)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	rows, msgs := Parse(text)
	if len(msgs) != 0 {
		t.Fatalf("Parse() messages = %v, want none", msgs)
	}
	if len(rows) != len(entries) {
		t.Fatalf("Parse() returned %d rows, want %d", len(rows), len(entries))
	}
	for i, e := range entries {
		want := models.ImportRow{Date: e.Date, Customer: e.Customer, Hours: e.Hours, Description: e.Description, CreatedAt: e.CreatedAt}
		if rows[i] != want {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want)
		}
	}
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{MsgEmpty}},
		{"whitespace only", "  \n\n", []string{MsgEmpty}},
		{"missing columns sorted", "date,notes\n2024-03-01,x\n", []string{"Missing required columns: customer, description, hours."}},
		{"missing one", "Date,Customer,Hours\n", []string{"Missing required columns: description."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, msgs := Parse(tt.text)
			if len(rows) != 0 {
				t.Errorf("Parse() rows = %v, want none", rows)
			}
			if !reflect.DeepEqual(msgs, tt.want) {
				t.Errorf("Parse() messages = %v, want %v", msgs, tt.want)
			}
		})
	}
}

func TestParseHeaderIsCaseInsensitive(t *testing.T) {
	text := " DATE , Customer,HOURS,Description,Extra\n2024-03-01, Acme ,1.5, work ,ignored\n"
	rows, msgs := Parse(text)
	if len(msgs) != 0 {
		t.Fatalf("Parse() messages = %v", msgs)
	}
	want := []models.ImportRow{{Date: "2024-03-01", Customer: "Acme", Hours: 1.5, Description: "work"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Parse() rows = %+v, want %+v", rows, want)
	}
}

func TestParseIsolatesMalformedRows(t *testing.T) {
	text := strings.Join([]string{
		"date,customer,hours,description,created_at",
		"2024-03-01,Acme,2,good,",
		",Acme,2,missing date,",
		"2024-03-02,Acme,abc,bad hours,",
		"2024-03-03,Acme,-1,negative,",
		"2024-03-04,Acme,1",
		"2024-03-05,Globex,3,also good,2024-03-05T09:00:00",
	}, "\n")

	rows, msgs := Parse(text)

	wantMsgs := []string{
		"Row 3: date, customer, and description are required.",
		"Row 4: invalid hours value 'abc'.",
		"Row 5: invalid hours value '-1'.",
		"Row 6: date, customer, and description are required.",
	}
	if !reflect.DeepEqual(msgs, wantMsgs) {
		t.Errorf("Parse() messages = %v, want %v", msgs, wantMsgs)
	}

	if len(rows) != 2 {
		t.Fatalf("Parse() accepted %d rows, want 2", len(rows))
	}
	if rows[0].Description != "good" || rows[1].CreatedAt != "2024-03-05T09:00:00" {
		t.Errorf("Parse() rows = %+v", rows)
	}
}

func TestParseStrayQuotes(t *testing.T) {
	text := strings.Join([]string{
		"date,customer,hours,description",
		"2024-01-01,Acme,1,ok one",
		`2024-01-02,Acme,2,fixed the "login" bug`,
		"2024-01-03,Acme,3,ok three",
	}, "\n")

	rows, msgs := Parse(text)
	if len(msgs) != 0 {
		t.Errorf("Parse() messages = %v, want none", msgs)
	}
	if len(rows) != 3 {
		t.Fatalf("Parse() accepted %d rows, want 3", len(rows))
	}
	if rows[1].Description != `fixed the "login" bug` {
		t.Errorf("description = %q", rows[1].Description)
	}
}

func TestParseUnterminatedQuoteStaysInItsRow(t *testing.T) {
	text := "date,customer,hours,description\n2024-03-01,Acme,1,first\n2024-03-02,\"Acme,1,x\n"

	rows, msgs := Parse(text)
	if len(rows) != 1 || rows[0].Description != "first" {
		t.Errorf("Parse() rows = %+v, want the first row only", rows)
	}
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "Row 3: ") {
		t.Errorf("Parse() messages = %v", msgs)
	}
}

func TestStripBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,customer,hours,description\n")...)
	if got := StripBOM(raw); got != "date,customer,hours,description\n" {
		t.Errorf("StripBOM() = %q", got)
	}
	if got := StripBOM([]byte("plain")); got != "plain" {
		t.Errorf("StripBOM() without BOM = %q", got)
	}
}
