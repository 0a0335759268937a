package models

type Entry struct {
	ID          int64   `json:"id" db:"id"`
	Date        string  `json:"date" db:"date"` // YYYY-MM-DD format
	Customer    string  `json:"customer" db:"customer"`
	Hours       float64 `json:"hours" db:"hours"`
	Description string  `json:"description" db:"description"`
	CreatedAt   string  `json:"created_at" db:"created_at"` // YYYY-MM-DDTHH:MM:SS, set once on insert
}

// EntryFilter narrows an entry query. Empty fields are not applied.
type EntryFilter struct {
	From     string // inclusive, YYYY-MM-DD
	To       string // inclusive, YYYY-MM-DD
	Customer string // exact match
}

// ImportRow is a validated transfer-format row ready to be stored.
type ImportRow struct {
	Date        string  `json:"date"`
	Customer    string  `json:"customer"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at,omitempty"` // empty when the source had none
}

// Candidate holds raw, unvalidated entry fields as typed or extracted.
type Candidate struct {
	Date        string `json:"date"`
	Customer    string `json:"customer"`
	Hours       string `json:"hours"`
	Description string `json:"description"`
}
