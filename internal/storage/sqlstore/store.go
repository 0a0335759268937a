// Package sqlstore implements every entry and customer query once over
// sqlx. Queries are written with ? placeholders and rebound for the
// connected driver; the few statements that differ between databases come
// from the Dialect.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/migration"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/migrations"
)

var (
	// ErrNotFound is returned when an entry id does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrNotInitialized is returned when the store has not been loaded.
	ErrNotInitialized = errors.New("storage not initialized, run 'hourlog init' first")
)

// Dialect captures the statements that cannot be shared verbatim.
type Dialect struct {
	Driver migration.Driver
	// InsertIgnoreCustomer inserts (name, created_at) and silently does
	// nothing when the name already exists.
	InsertIgnoreCustomer string
	// Returning selects RETURNING id over LastInsertId.
	Returning bool
}

var (
	SQLite = Dialect{
		Driver:               migration.DriverSQLite,
		InsertIgnoreCustomer: "INSERT OR IGNORE INTO customers (name, created_at) VALUES (?, ?)",
	}
	Postgres = Dialect{
		Driver:               migration.DriverPostgres,
		InsertIgnoreCustomer: "INSERT INTO customers (name, created_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING",
		Returning:            true,
	}
	MySQL = Dialect{
		Driver:               migration.DriverMySQL,
		InsertIgnoreCustomer: "INSERT IGNORE INTO customers (name, created_at) VALUES (?, ?)",
	}
)

const entryColumns = "id, date, customer, hours, description, created_at"

// Store is safe for concurrent use; every call acquires and releases its
// own connection from the pool.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

// SetClock overrides the creation timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) timestamp() string {
	return s.now().Format(constants.TimestampFormat)
}

// Runner returns a migration runner over this driver's embedded migrations.
func (s *Store) Runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, string(s.dialect.Driver))
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.dialect.Driver, err)
	}
	return migration.NewRunner(s.db.DB, subFS, s.dialect.Driver), nil
}

// Migrate applies pending migrations and returns how many ran.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	runner, err := s.Runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

// ValidateSchema fails when the database is newer than this binary.
func (s *Store) ValidateSchema() error {
	runner, err := s.Runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func (s *Store) Ping() error {
	var one int
	return s.db.Get(&one, "SELECT 1")
}

func (s *Store) insertEntry(q sqlx.Ext, date, customer string, hours float64, description, createdAt string) (int64, error) {
	query := "INSERT INTO entries (date, customer, hours, description, created_at) VALUES (?, ?, ?, ?, ?)"
	if s.dialect.Returning {
		var id int64
		err := sqlx.Get(q, &id, q.Rebind(query+" RETURNING id"), date, customer, hours, description, createdAt)
		return id, err
	}

	res, err := q.Exec(q.Rebind(query), date, customer, hours, description, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddEntry persists a new entry stamped with the current time.
func (s *Store) AddEntry(date, customer string, hours float64, description string) (int64, error) {
	id, err := s.insertEntry(s.db, date, customer, hours, description, s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("failed to add entry: %w", err)
	}
	return id, nil
}

// GetEntries returns entries matching every set filter, newest first.
func (s *Store) GetEntries(filter models.EntryFilter) ([]models.Entry, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.From != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.Customer != "" {
		where = append(where, "customer = ?")
		args = append(args, filter.Customer)
	}

	query := "SELECT " + entryColumns + " FROM entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	entries := []models.Entry{}
	if err := s.db.Select(&entries, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, nil
}

func (s *Store) GetEntry(id int64) (models.Entry, error) {
	var e models.Entry
	err := s.db.Get(&e, s.db.Rebind("SELECT "+entryColumns+" FROM entries WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return e, nil
}

// UpdateEntry replaces the mutable fields. id and created_at never change.
func (s *Store) UpdateEntry(id int64, date, customer string, hours float64, description string) error {
	res, err := s.db.Exec(
		s.db.Rebind("UPDATE entries SET date = ?, customer = ?, hours = ?, description = ? WHERE id = ?"),
		date, customer, hours, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry. Unknown ids are not an error.
func (s *Store) DeleteEntry(id int64) error {
	if _, err := s.db.Exec(s.db.Rebind("DELETE FROM entries WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	return nil
}

// GetDistinctCustomers lists customer names found on entries, ascending.
func (s *Store) GetDistinctCustomers() ([]string, error) {
	names := []string{}
	if err := s.db.Select(&names, "SELECT DISTINCT customer FROM entries ORDER BY customer ASC"); err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	return names, nil
}

func (s *Store) GetManagedCustomers() ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := s.db.Select(&customers, "SELECT id, name, created_at FROM customers ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("failed to query managed customers: %w", err)
	}
	return customers, nil
}

// AddCustomer adds name to the managed list. Duplicates are ignored.
func (s *Store) AddCustomer(name string) error {
	if _, err := s.db.Exec(s.db.Rebind(s.dialect.InsertIgnoreCustomer), name, s.timestamp()); err != nil {
		return fmt.Errorf("failed to add customer %q: %w", name, err)
	}
	return nil
}

func (s *Store) RemoveCustomer(name string) error {
	if _, err := s.db.Exec(s.db.Rebind("DELETE FROM customers WHERE name = ?"), name); err != nil {
		return fmt.Errorf("failed to remove customer %q: %w", name, err)
	}
	return nil
}

// GetMonths lists the months that have entries, most recent first.
func (s *Store) GetMonths() ([]models.Month, error) {
	var keys []string
	err := s.db.Select(&keys, "SELECT DISTINCT SUBSTR(date, 1, 7) AS month_key FROM entries ORDER BY month_key DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query months: %w", err)
	}

	months := make([]models.Month, 0, len(keys))
	for _, k := range keys {
		months = append(months, models.Month{Key: k, Label: MonthLabel(k)})
	}
	return months, nil
}

// MonthLabel renders "2024-03" as "March 2024". Unparseable keys are
// returned unchanged.
func MonthLabel(key string) string {
	t, err := time.Parse(constants.MonthFormat, key)
	if err != nil {
		return key
	}
	return t.Format(constants.MonthLabelFormat)
}

// GetMonthlySummary sums hours per customer for one YYYY-MM month.
func (s *Store) GetMonthlySummary(monthKey string) ([]models.CustomerTotal, error) {
	totals := []models.CustomerTotal{}
	err := s.db.Select(&totals, s.db.Rebind(`
		SELECT customer, SUM(hours) AS total_hours
		FROM entries
		WHERE SUBSTR(date, 1, 7) = ?
		GROUP BY customer
		ORDER BY customer ASC`), monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize month %s: %w", monthKey, err)
	}
	return totals, nil
}

// ImportEntries inserts rows that do not already exist, comparing date,
// customer, hours and description. Rows are checked one at a time inside a
// single transaction, so a repeated row within the batch is skipped after
// its first copy is inserted.
func (s *Store) ImportEntries(rows []models.ImportRow) (imported, skipped int, err error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	dupQuery := tx.Rebind(`
		SELECT COUNT(*) FROM entries
		WHERE date = ? AND customer = ? AND hours = ? AND description = ?`)

	for _, r := range rows {
		var n int
		if err = tx.Get(&n, dupQuery, r.Date, r.Customer, r.Hours, r.Description); err != nil {
			return 0, 0, fmt.Errorf("failed to check for duplicate: %w", err)
		}
		if n > 0 {
			skipped++
			continue
		}

		createdAt := r.CreatedAt
		if createdAt == "" {
			createdAt = s.timestamp()
		}
		if _, err = s.insertEntry(tx, r.Date, r.Customer, r.Hours, r.Description, createdAt); err != nil {
			return 0, 0, fmt.Errorf("failed to import entry: %w", err)
		}
		imported++
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return imported, skipped, nil
}
