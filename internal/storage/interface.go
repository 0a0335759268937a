package storage

import (
	"github.com/julianstephens/hourlog/internal/migration"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
)

var (
	ErrNotFound       = sqlstore.ErrNotFound
	ErrNotInitialized = sqlstore.ErrNotInitialized
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping() error
	Migrate(logFn func(string)) (int, error)
	Runner() (*migration.Runner, error)

	// Entries
	AddEntry(date, customer string, hours float64, description string) (int64, error)
	GetEntries(filter models.EntryFilter) ([]models.Entry, error)
	// GetEntry returns ErrNotFound when id does not exist.
	GetEntry(id int64) (models.Entry, error)
	// UpdateEntry returns ErrNotFound when id does not exist.
	UpdateEntry(id int64, date, customer string, hours float64, description string) error
	DeleteEntry(id int64) error

	// Customers
	GetDistinctCustomers() ([]string, error)
	GetManagedCustomers() ([]models.Customer, error)
	AddCustomer(name string) error
	RemoveCustomer(name string) error

	// Reporting
	GetMonths() ([]models.Month, error)
	GetMonthlySummary(monthKey string) ([]models.CustomerTotal, error)

	// Transfer
	ImportEntries(rows []models.ImportRow) (imported, skipped int, err error)

	// Utils
	GetConfigPath() string
}

// ManagedNames returns the names of the preselected customers, the list
// handed to the extractor.
func ManagedNames(p Provider) ([]string, error) {
	managed, err := p.GetManagedCustomers()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(managed))
	for _, c := range managed {
		names = append(names, c.Name)
	}
	return names, nil
}
