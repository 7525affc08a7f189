package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-payment/internal/logger"
)

func TestRunnerMissingDirectory(t *testing.T) {
	r := NewRunner(nil, "./does-not-exist", logger.New(io.Discard))
	assert.ErrorContains(t, r.Up(), "migrations directory does not exist")
}

func TestRunnerAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres migration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "payment_user",
				"POSTGRES_PASSWORD": "payment_pass",
				"POSTGRES_DB":       "payments",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://payment_user:payment_pass@%s:%s/payments?sslmode=disable", host, port.Port())

	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	runner := NewRunner(migrationDB, "../../../migrations", logger.New(io.Discard))
	defer runner.Close()

	require.NoError(t, runner.Up())
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// a second run is a no-op
	require.NoError(t, runner.Up())

	check, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer check.Close()

	_, err = check.ExecContext(ctx, `INSERT INTO payment_methods (id, name, merchant_account, hmac_key, api_key, return_url)
		VALUES ('adyen', 'Adyen', 'ShopECOM', 'AA', 'key', '/return')`)
	require.NoError(t, err)
	insert := `INSERT INTO payments (payment_id, reference_id, order_id, payment_method_id, amount, currency)
		VALUES ($1, 'R1', 'order-1', 'adyen', 19.99, 'EUR')`
	_, err = check.ExecContext(ctx, insert, "p1")
	require.NoError(t, err)
	_, err = check.ExecContext(ctx, insert, "p2")
	assert.Error(t, err, "reference_id is unique")

	require.NoError(t, runner.Steps(-1))
	version, _, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, runner.Down())
	version, _, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}
