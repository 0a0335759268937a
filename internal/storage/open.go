package storage

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hourlog/internal/config"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/keyring"
	"github.com/julianstephens/hourlog/internal/storage/mysql"
	"github.com/julianstephens/hourlog/internal/storage/postgres"
	"github.com/julianstephens/hourlog/internal/storage/sqlite"
)

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
	_ Provider = (*mysql.Store)(nil)
)

// Open picks a provider for the store selector: a postgres URL, a
// mysql:// DSN, "keyring" (connection string read from the OS keyring) or
// otherwise a sqlite file path. The returned store is not yet loaded.
func Open(store string) (Provider, error) {
	store = strings.TrimSpace(store)

	if store == constants.KeyringConfigValue {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		return openRemote(connStr, true)
	}

	if config.IsPostgres(store) || config.IsMySQL(store) {
		return openRemote(store, false)
	}

	return sqlite.NewStore(config.ExpandPath(store)), nil
}

// openRemote builds a server-backed provider. Passwords are only accepted
// from the keyring.
func openRemote(connStr string, trusted bool) (Provider, error) {
	switch {
	case config.IsMySQL(connStr):
		if !trusted {
			if err := mysql.ValidateDSN(connStr); err != nil {
				return nil, err
			}
		}
		return mysql.New(connStr)
	case config.IsPostgres(connStr) || trusted:
		if !trusted {
			if _, err := postgres.ValidateConnString(connStr); err != nil {
				return nil, err
			}
		}
		return postgres.New(connStr), nil
	}
	return nil, fmt.Errorf("unsupported connection string")
}
