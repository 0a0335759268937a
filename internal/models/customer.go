package models

// Customer is an entry in the managed pre-selection list. It is advisory
// only: entries reference customers by name, never by id.
type Customer struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

// Month is a calendar month that has at least one entry.
type Month struct {
	Key   string `json:"key" db:"month_key"` // YYYY-MM
	Label string `json:"label"`              // e.g. "March 2024"
}

// CustomerTotal is the hour sum for one customer in a period.
type CustomerTotal struct {
	Customer string  `json:"customer" db:"customer"`
	Hours    float64 `json:"hours" db:"total_hours"`
}
