//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/julianstephens/hourlog/internal/storage/storagetest"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "hourlog_test",
			"POSTGRES_USER":     "hourlog",
			"POSTGRES_PASSWORD": "secret",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://hourlog:secret@%s:%s/hourlog_test?sslmode=disable", host, port.Port())
}

func TestStore_Integration(t *testing.T) {
	connStr := startPostgres(t)

	storagetest.Run(t, func(t *testing.T) storagetest.Store {
		store := New(connStr)
		if err := store.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		// The suite expects an empty store on every subtest.
		if _, err := store.DB().Exec("TRUNCATE entries, customers RESTART IDENTITY"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestInitIsIdempotent_Integration(t *testing.T) {
	connStr := startPostgres(t)

	for i := 0; i < 2; i++ {
		store := New(connStr)
		if err := store.Init(); err != nil {
			t.Fatalf("Init() #%d error = %v", i+1, err)
		}
		store.Close()
	}

	store := New(connStr)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer store.Close()

	runner, err := store.Runner()
	if err != nil {
		t.Fatalf("Runner() error = %v", err)
	}
	pending, err := runner.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending migrations after init = %d, want 0", len(pending))
	}
}
