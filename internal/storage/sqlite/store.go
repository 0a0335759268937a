package sqlite

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store is the local single-file provider.
type Store struct {
	*sqlstore.Store
	path string
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// DSN turns a file path into a sqlite URI with the given query, escaping
// characters such as ? and # that would otherwise end the path.
func DSN(path string, query string) string {
	dsn := "file:" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
	if query != "" {
		dsn += "?" + query
	}
	return dsn
}

func (s *Store) open() error {
	db, err := sqlx.Open("sqlite", DSN(s.path, "_pragma=busy_timeout(5000)"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the web server's handlers.
	db.SetMaxOpenConns(1)
	s.Store = sqlstore.New(db, sqlstore.SQLite)
	return nil
}

// Init creates the database file and applies migrations. Safe to call on
// an existing store.
func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.Store == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if _, err := s.Migrate(func(msg string) {
		logger.Debug(msg)
	}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.Store != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return sqlstore.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.ValidateSchema()
}

func (s *Store) Close() error {
	if s.Store != nil {
		return s.DB().Close()
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}
