// Package storagetest holds a behavioral suite that every storage provider
// must pass.
package storagetest

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
)

// Store is the subset of the provider surface the suite drives.
type Store interface {
	AddEntry(date, customer string, hours float64, description string) (int64, error)
	GetEntries(filter models.EntryFilter) ([]models.Entry, error)
	GetEntry(id int64) (models.Entry, error)
	UpdateEntry(id int64, date, customer string, hours float64, description string) error
	DeleteEntry(id int64) error
	GetDistinctCustomers() ([]string, error)
	GetManagedCustomers() ([]models.Customer, error)
	AddCustomer(name string) error
	RemoveCustomer(name string) error
	GetMonths() ([]models.Month, error)
	GetMonthlySummary(monthKey string) ([]models.CustomerTotal, error)
	ImportEntries(rows []models.ImportRow) (imported, skipped int, err error)
	SetClock(now func() time.Time)
}

// Run executes the suite. newStore must return an initialized, empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("AddAndGetEntry", func(t *testing.T) { testAddAndGetEntry(t, newStore(t)) })
	t.Run("FilterAndOrder", func(t *testing.T) { testFilterAndOrder(t, newStore(t)) })
	t.Run("UpdateEntry", func(t *testing.T) { testUpdateEntry(t, newStore(t)) })
	t.Run("DeleteEntry", func(t *testing.T) { testDeleteEntry(t, newStore(t)) })
	t.Run("Customers", func(t *testing.T) { testCustomers(t, newStore(t)) })
	t.Run("MonthsAndSummary", func(t *testing.T) { testMonthsAndSummary(t, newStore(t)) })
	t.Run("ImportDedup", func(t *testing.T) { testImportDedup(t, newStore(t)) })
	t.Run("CaseSensitivity", func(t *testing.T) { testCaseSensitivity(t, newStore(t)) })
}

func mustAdd(t *testing.T, s Store, date, customer string, hours float64, description string) int64 {
	t.Helper()
	id, err := s.AddEntry(date, customer, hours, description)
	if err != nil {
		t.Fatalf("AddEntry(%s, %s) error = %v", date, customer, err)
	}
	return id
}

func testAddAndGetEntry(t *testing.T, s Store) {
	fixed := time.Date(2024, 3, 15, 9, 30, 5, 0, time.Local)
	s.SetClock(func() time.Time { return fixed })

	id := mustAdd(t, s, "2024-03-15", "Acme", 2.5, "Pipeline work, phase \"two\"")
	if id <= 0 {
		t.Fatalf("AddEntry() id = %d, want positive", id)
	}

	got, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	want := models.Entry{
		ID:          id,
		Date:        "2024-03-15",
		Customer:    "Acme",
		Hours:       2.5,
		Description: "Pipeline work, phase \"two\"",
		CreatedAt:   "2024-03-15T09:30:05",
	}
	if got != want {
		t.Errorf("GetEntry() = %+v, want %+v", got, want)
	}

	second := mustAdd(t, s, "2024-03-15", "Acme", 1, "More")
	if second <= id {
		t.Errorf("second id %d not greater than first %d", second, id)
	}

	if _, err := s.GetEntry(id + 1000); !errors.Is(err, sqlstore.ErrNotFound) {
		t.Errorf("GetEntry(missing) error = %v, want ErrNotFound", err)
	}
}

func testFilterAndOrder(t *testing.T, s Store) {
	a := mustAdd(t, s, "2024-03-01", "Acme", 1, "a")
	b := mustAdd(t, s, "2024-03-02", "Globex", 2, "b")
	c := mustAdd(t, s, "2024-03-02", "Acme", 3, "c")
	d := mustAdd(t, s, "2024-04-10", "Acme", 4, "d")

	ids := func(entries []models.Entry) []int64 {
		out := []int64{}
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.EntryFilter
		want   []int64
	}{
		{"no filter", models.EntryFilter{}, []int64{d, c, b, a}},
		{"inclusive range", models.EntryFilter{From: "2024-03-01", To: "2024-03-02"}, []int64{c, b, a}},
		{"from only", models.EntryFilter{From: "2024-03-02"}, []int64{d, c, b}},
		{"to only", models.EntryFilter{To: "2024-03-01"}, []int64{a}},
		{"customer", models.EntryFilter{Customer: "Acme"}, []int64{d, c, a}},
		{"customer is exact", models.EntryFilter{Customer: "acme"}, []int64{}},
		{"all filters", models.EntryFilter{From: "2024-03-02", To: "2024-03-31", Customer: "Acme"}, []int64{c}},
		{"empty range", models.EntryFilter{From: "2025-01-01"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.GetEntries(tt.filter)
			if err != nil {
				t.Fatalf("GetEntries() error = %v", err)
			}
			if got := ids(entries); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetEntries(%+v) ids = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func testUpdateEntry(t *testing.T, s Store) {
	id := mustAdd(t, s, "2024-03-01", "Acme", 1, "draft")
	before, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}

	if err := s.UpdateEntry(id, "2024-03-05", "Globex", 4.25, "final"); err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}

	after, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	want := models.Entry{ID: id, Date: "2024-03-05", Customer: "Globex", Hours: 4.25, Description: "final", CreatedAt: before.CreatedAt}
	if after != want {
		t.Errorf("after update = %+v, want %+v", after, want)
	}

	// Writing identical values still finds the row.
	if err := s.UpdateEntry(id, "2024-03-05", "Globex", 4.25, "final"); err != nil {
		t.Errorf("UpdateEntry() with unchanged values error = %v", err)
	}

	if err := s.UpdateEntry(id+1000, "2024-03-05", "Globex", 1, "x"); !errors.Is(err, sqlstore.ErrNotFound) {
		t.Errorf("UpdateEntry(missing) error = %v, want ErrNotFound", err)
	}
}

func testDeleteEntry(t *testing.T, s Store) {
	id := mustAdd(t, s, "2024-03-01", "Acme", 1, "gone soon")

	if err := s.DeleteEntry(id); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if _, err := s.GetEntry(id); !errors.Is(err, sqlstore.ErrNotFound) {
		t.Errorf("GetEntry() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteEntry(id); err != nil {
		t.Errorf("DeleteEntry() twice error = %v, want nil", err)
	}
}

func testCustomers(t *testing.T, s Store) {
	mustAdd(t, s, "2024-03-01", "Zeta", 1, "x")
	mustAdd(t, s, "2024-03-02", "Acme", 1, "x")
	mustAdd(t, s, "2024-03-03", "Zeta", 1, "x")

	distinct, err := s.GetDistinctCustomers()
	if err != nil {
		t.Fatalf("GetDistinctCustomers() error = %v", err)
	}
	if want := []string{"Acme", "Zeta"}; !reflect.DeepEqual(distinct, want) {
		t.Errorf("GetDistinctCustomers() = %v, want %v", distinct, want)
	}

	for _, name := range []string{"Initech", "Acme", "Initech"} {
		if err := s.AddCustomer(name); err != nil {
			t.Fatalf("AddCustomer(%q) error = %v", name, err)
		}
	}

	names := func() []string {
		t.Helper()
		managed, err := s.GetManagedCustomers()
		if err != nil {
			t.Fatalf("GetManagedCustomers() error = %v", err)
		}
		out := []string{}
		for _, c := range managed {
			out = append(out, c.Name)
		}
		return out
	}

	if got, want := names(), []string{"Acme", "Initech"}; !reflect.DeepEqual(got, want) {
		t.Errorf("managed customers = %v, want %v", got, want)
	}

	if err := s.RemoveCustomer("Acme"); err != nil {
		t.Fatalf("RemoveCustomer() error = %v", err)
	}
	if err := s.RemoveCustomer("Nobody"); err != nil {
		t.Errorf("RemoveCustomer(missing) error = %v, want nil", err)
	}
	if got, want := names(), []string{"Initech"}; !reflect.DeepEqual(got, want) {
		t.Errorf("managed customers after remove = %v, want %v", got, want)
	}

	// Removing a managed customer never touches entries.
	entries, err := s.GetEntries(models.EntryFilter{Customer: "Acme"})
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries for removed customer = %d, want 1", len(entries))
	}
}

func testMonthsAndSummary(t *testing.T, s Store) {
	mustAdd(t, s, "2024-02-28", "Acme", 8, "feb")
	mustAdd(t, s, "2024-03-01", "Globex", 1.5, "mar")
	mustAdd(t, s, "2024-03-15", "Acme", 2, "mar")
	mustAdd(t, s, "2024-03-31", "Acme", 0.5, "mar")
	mustAdd(t, s, "2024-04-01", "Acme", 3, "apr")

	months, err := s.GetMonths()
	if err != nil {
		t.Fatalf("GetMonths() error = %v", err)
	}
	wantMonths := []models.Month{
		{Key: "2024-04", Label: "April 2024"},
		{Key: "2024-03", Label: "March 2024"},
		{Key: "2024-02", Label: "February 2024"},
	}
	if !reflect.DeepEqual(months, wantMonths) {
		t.Errorf("GetMonths() = %v, want %v", months, wantMonths)
	}

	summary, err := s.GetMonthlySummary("2024-03")
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	wantSummary := []models.CustomerTotal{
		{Customer: "Acme", Hours: 2.5},
		{Customer: "Globex", Hours: 1.5},
	}
	if !reflect.DeepEqual(summary, wantSummary) {
		t.Errorf("GetMonthlySummary() = %v, want %v", summary, wantSummary)
	}

	empty, err := s.GetMonthlySummary("2023-01")
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("GetMonthlySummary(no entries) = %v, want empty", empty)
	}
}

func testImportDedup(t *testing.T, s Store) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	s.SetClock(func() time.Time { return fixed })

	mustAdd(t, s, "2024-03-01", "Acme", 1, "existing")

	x := models.ImportRow{Date: "2024-03-02", Customer: "Acme", Hours: 2, Description: "new", CreatedAt: "2024-03-02T18:00:00"}
	batch := []models.ImportRow{
		{Date: "2024-03-01", Customer: "Acme", Hours: 1, Description: "existing", CreatedAt: "1999-01-01T00:00:00"},
		x,
		x,
		{Date: "2024-03-03", Customer: "Globex", Hours: 3, Description: "no timestamp"},
	}

	imported, skipped, err := s.ImportEntries(batch)
	if err != nil {
		t.Fatalf("ImportEntries() error = %v", err)
	}
	if imported != 2 || skipped != 2 {
		t.Errorf("ImportEntries() = (%d, %d), want (2, 2)", imported, skipped)
	}

	entries, err := s.GetEntries(models.EntryFilter{})
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entry count = %d, want 3", len(entries))
	}
	if entries[0].CreatedAt != "2024-05-01T12:00:00" {
		t.Errorf("row without created_at got %q, want current time", entries[0].CreatedAt)
	}
	if entries[1].CreatedAt != x.CreatedAt {
		t.Errorf("supplied created_at = %q, want %q", entries[1].CreatedAt, x.CreatedAt)
	}

	imported, skipped, err = s.ImportEntries(batch)
	if err != nil {
		t.Fatalf("second ImportEntries() error = %v", err)
	}
	if imported != 0 || skipped != len(batch) {
		t.Errorf("second ImportEntries() = (%d, %d), want (0, %d)", imported, skipped, len(batch))
	}

	imported, skipped, err = s.ImportEntries(nil)
	if err != nil || imported != 0 || skipped != 0 {
		t.Errorf("ImportEntries(nil) = (%d, %d, %v), want (0, 0, nil)", imported, skipped, err)
	}
}

// Customer and description comparisons are exact on every backend. Result
// order for case variants depends on the server collation, so only counts
// are checked.
func testCaseSensitivity(t *testing.T, s Store) {
	mustAdd(t, s, "2024-03-01", "Acme", 1, "x")

	imported, skipped, err := s.ImportEntries([]models.ImportRow{
		{Date: "2024-03-01", Customer: "ACME", Hours: 1, Description: "x"},
		{Date: "2024-03-01", Customer: "Acme", Hours: 1, Description: "X"},
	})
	if err != nil {
		t.Fatalf("ImportEntries() error = %v", err)
	}
	if imported != 2 || skipped != 0 {
		t.Errorf("ImportEntries() = (%d, %d), want (2, 0)", imported, skipped)
	}

	got, err := s.GetEntries(models.EntryFilter{Customer: "Acme"})
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filter Acme matched %d entries, want 2", len(got))
	}
	for _, e := range got {
		if e.Customer != "Acme" {
			t.Errorf("filter Acme matched customer %q", e.Customer)
		}
	}

	names, err := s.GetDistinctCustomers()
	if err != nil {
		t.Fatalf("GetDistinctCustomers() error = %v", err)
	}
	if len(names) != 2 {
		t.Errorf("distinct customers = %v, want Acme and ACME", names)
	}

	totals, err := s.GetMonthlySummary("2024-03")
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if len(totals) != 2 {
		t.Errorf("monthly summary = %+v, want one row per spelling", totals)
	}

	if err := s.AddCustomer("Acme"); err != nil {
		t.Fatalf("AddCustomer() error = %v", err)
	}
	if err := s.AddCustomer("acme"); err != nil {
		t.Fatalf("AddCustomer(acme) error = %v", err)
	}
	managed, err := s.GetManagedCustomers()
	if err != nil {
		t.Fatalf("GetManagedCustomers() error = %v", err)
	}
	if len(managed) != 2 {
		t.Errorf("managed customers = %+v, want Acme and acme", managed)
	}
}
