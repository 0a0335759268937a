package mysql

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
)

const Scheme = "mysql://"

var (
	ErrInvalidDSN          = errors.New("invalid MySQL DSN")
	ErrEmbeddedCredentials = errors.New("MySQL DSN must not contain a password; store it with 'hourlog keyring set' instead")
)

type Store struct {
	*sqlstore.Store
	cfg *gomysql.Config
}

// ParseDSN accepts "mysql://user@tcp(host:3306)/db?opts" or a bare
// go-sql-driver DSN.
func ParseDSN(dsn string) (*gomysql.Config, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(dsn), Scheme)
	if raw == "" {
		return nil, fmt.Errorf("%w: DSN cannot be empty", ErrInvalidDSN)
	}
	cfg, err := gomysql.ParseDSN(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrInvalidDSN)
	}
	return cfg, nil
}

// ValidateDSN rejects DSNs that embed a password.
func ValidateDSN(dsn string) error {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return err
	}
	if cfg.Passwd != "" {
		return ErrEmbeddedCredentials
	}
	return nil
}

// New builds a store from a DSN. Migrations need multiStatements and
// UpdateEntry relies on found-rows semantics, so both are forced on.
func New(dsn string) (*Store, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	return &Store{cfg: cfg}, nil
}

func (s *Store) open() error {
	db, err := sqlx.Open("mysql", s.cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	s.Store = sqlstore.New(db, sqlstore.MySQL)
	return nil
}

func (s *Store) Init() error {
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
	return "mysql"
}
