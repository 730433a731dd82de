// Package dbtest starts throwaway PostgreSQL servers for integration tests.
package dbtest

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"budgettool/src/infra/config"
)

const (
	Image    = "postgres:16-alpine"
	Database = "budget"
	User     = "budget_app"
	Password = "budget_pw"
)

var (
	once     sync.Once
	shared   *config.PostgresConfig
	startErr error
)

// RequirePostgres returns the coordinates of a shared test server, starting
// it on first use. It skips the test in -short mode or when Docker is
// unavailable, and exports the coordinates as postgres_* environment
// variables so credential resolution finds them.
func RequirePostgres(t *testing.T) *config.PostgresConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		shared, startErr = start(context.Background())
	})
	if startErr != nil {
		t.Skipf("postgres container unavailable: %v", startErr)
	}

	t.Setenv("postgres_db", shared.Database)
	t.Setenv("postgres_host", shared.Host)
	t.Setenv("postgres_port", strconv.Itoa(shared.Port))
	t.Setenv("postgres_user", shared.User)
	t.Setenv("postgres_password", shared.Password)

	cfg := *shared
	return &cfg
}

func start(ctx context.Context) (*config.PostgresConfig, error) {
	ctr, err := postgres.Run(ctx,
		Image,
		postgres.WithDatabase(Database),
		postgres.WithUsername(User),
		postgres.WithPassword(Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, err
	}

	return &config.PostgresConfig{
		Database: Database,
		Host:     host,
		Port:     port.Int(),
		User:     User,
		Password: Password,
	}, nil
}

// Exec runs setup statements on a dedicated connection, outside any pool.
// It fails the test on error.
func Exec(t *testing.T, cfg *config.PostgresConfig, stmts ...string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DSN("disable"))
	require.NoError(t, err)
	defer conn.Close(ctx)

	for _, s := range stmts {
		_, err := conn.Exec(ctx, s)
		require.NoError(t, err, s)
	}
}
