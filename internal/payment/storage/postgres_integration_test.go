package storage_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/storage"
)

// TestPostgresIntegration races status updates against a real Postgres.
func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
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
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	defer pgContainer.Terminate(ctx)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://payment_user:payment_pass@%s:%s/payments?sslmode=disable", host, port.Port())
	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	createSchema(t, bunDB)
	store := storage.NewBunStore(bunDB, logger.New(io.Discard))
	defer store.Close()

	require.NoError(t, store.SavePaymentMethod(ctx, testMethod()))
	require.NoError(t, store.CreatePayment(ctx, newPayment("R1")))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := store.GetPaymentByReference(ctx, "R1")
			if err != nil {
				results <- err
				return
			}
			p.Status = models.StatusAuthorized
			p.TransactionID = fmt.Sprintf("PSP%d", i)
			results <- store.UpdatePayment(ctx, p)
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, storage.ErrConcurrentUpdate):
			conflicts++
		}
	}

	stored, err := store.GetPaymentByReference(ctx, "R1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ok, 1)
	assert.Equal(t, workers, ok+conflicts)
	assert.Equal(t, int64(ok), stored.Version)
	assert.Equal(t, models.StatusAuthorized, stored.Status)
}
