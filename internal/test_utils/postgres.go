package test_utils

import (
	"context"
	"database/sql"
	"testing"

	"github.com/klokku/planner/internal/config"
	"github.com/klokku/planner/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// SetupPostgresDB starts a disposable Postgres container and applies all migrations. The test is
// skipped in -short mode or when no container runtime is available.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("planner"),
		postgres.WithUsername("test_planner"),
		postgres.WithPassword("test_planner"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg := config.Database{
		Driver: database.DriverPostgres,
		Host:   host,
		Port:   port.Int(),
		User:   "test_planner",
		Pass:   "test_planner",
		Name:   "planner",
		Schema: "planner",
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := database.Migrate(db, cfg); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return db
}
