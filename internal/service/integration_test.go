package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/txprocessor/internal/config"
	"github.com/finledger/txprocessor/internal/db"
	"github.com/finledger/txprocessor/internal/models"
	"github.com/finledger/txprocessor/internal/repository"
)

// setupIntegration connects to the database configured through the
// environment and wires a real orchestrator over it. Skipped when DB_HOST is
// not set so the unit suite stays runnable without infrastructure.
func setupIntegration(t *testing.T) (*db.DB, *TransactionService) {
	t.Helper()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping database integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}
	database := db.NewTestDB(sqlDB)

	sqlBytes, err := db.MigrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}
	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}
	if _, err := database.ExecContext(context.Background(),
		"TRUNCATE outbox_messages, transactions, accounts, customers CASCADE"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	lock := repository.NewAccountLock(cfg.Engine.LockTimeout)
	svc := NewTransactionService(database, lock, cfg.Engine, testLogger())

	return database, svc
}

func seedLedgerAccount(t *testing.T, database *db.DB, balance int64) *models.Account {
	t.Helper()

	ctx := context.Background()

	customer := models.NewCustomer("client-" + uuid.NewString())
	require.NoError(t, repository.NewCustomerRepository(database).Add(ctx, customer))

	account, err := models.NewAccount(customer.ID, 0)
	require.NoError(t, err)
	account.BalanceCents = balance
	require.NoError(t, repository.NewAccountRepository(database).Add(ctx, account))

	return account
}

func countTransactions(t *testing.T, database *db.DB, referenceID string) int {
	t.Helper()

	var n int
	err := database.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM transactions WHERE reference_id = $1", referenceID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestProcessTransaction_OppositeTransfersConcurrently(t *testing.T) {
	database, svc := setupIntegration(t)
	ctx := context.Background()

	accountA := seedLedgerAccount(t, database, 5000)
	accountB := seedLedgerAccount(t, database, 5000)

	aToB := TransactionCommand{
		AccountID:            accountA.ID,
		DestinationAccountID: &accountB.ID,
		Operation:            "transfer",
		Currency:             "USD",
		ReferenceID:          "xfer-a-to-b",
		AmountCents:          1000,
	}
	bToA := TransactionCommand{
		AccountID:            accountB.ID,
		DestinationAccountID: &accountA.ID,
		Operation:            "transfer",
		Currency:             "USD",
		ReferenceID:          "xfer-b-to-a",
		AmountCents:          2000,
	}

	// Opposite directions between the same pair: lock ordering must let
	// both complete instead of deadlocking.
	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i, cmd := range []TransactionCommand{aToB, bToA} {
		wg.Add(1)
		go func(i int, cmd TransactionCommand) {
			defer wg.Done()
			results[i], errs[i] = svc.ProcessTransaction(ctx, cmd)
		}(i, cmd)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "success", results[i].Status)
	}

	accounts := repository.NewAccountRepository(database)
	finalA, err := accounts.GetByID(ctx, accountA.ID)
	require.NoError(t, err)
	finalB, err := accounts.GetByID(ctx, accountB.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(6000), finalA.BalanceCents)
	assert.Equal(t, int64(4000), finalB.BalanceCents)

	assert.Equal(t, 2, countTransactions(t, database, "xfer-a-to-b"))
	assert.Equal(t, 2, countTransactions(t, database, "xfer-b-to-a"))
}

func TestProcessTransaction_ConcurrentDuplicateReference(t *testing.T) {
	database, svc := setupIntegration(t)
	ctx := context.Background()

	account := seedLedgerAccount(t, database, 5000)

	cmd := TransactionCommand{
		AccountID:   account.ID,
		Operation:   "credit",
		Currency:    "USD",
		ReferenceID: "order-race-1",
		AmountCents: 1000,
	}

	const workers = 5

	var wg sync.WaitGroup
	results := make([]*Result, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ProcessTransaction(ctx, cmd)
		}(i)
	}
	wg.Wait()

	// Everyone gets the winner's outcome; the credit applies exactly once.
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "success", results[i].Status)
		assert.Equal(t, results[0].TransactionID, results[i].TransactionID)
	}

	final, err := repository.NewAccountRepository(database).GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), final.BalanceCents)

	assert.Equal(t, 1, countTransactions(t, database, "order-race-1"))
}
