//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"water-app-go/internal/config"
	"water-app-go/internal/db"
	"water-app-go/pkg/logger"
)

type PostgresContainer struct {
	DSN string
	DB  *gorm.DB
}

// NewPostgresContainer starts Postgres and applies the embedded migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("water_app"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	gormDB, err := db.NewPostgres(ctx, config.DBConfig{DSN: dsn}, logger.Discard())
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gormDB) })

	if err := db.Migrate(gormDB, logger.Discard()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &PostgresContainer{DSN: dsn, DB: gormDB}
}

// Truncate empties every application table between tests.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	err := p.DB.Exec("TRUNCATE users, properties, families, invitations, registrations").Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
