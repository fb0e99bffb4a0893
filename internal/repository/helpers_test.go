package repository

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/finledger/txprocessor/internal/config"
	"github.com/finledger/txprocessor/internal/db"
	"github.com/finledger/txprocessor/internal/models"
)

// setupTestDB connects to the database configured through the environment.
// Tests that need it are skipped when DB_HOST is not set so the unit suite
// stays runnable without infrastructure.
func setupTestDB(t *testing.T) *db.DB {
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

	runMigrations(t, database)
	truncateTables(t, database)

	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return database
}

func runMigrations(t *testing.T, database *db.DB) {
	t.Helper()

	sqlBytes, err := db.MigrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(),
		"TRUNCATE outbox_messages, transactions, accounts, customers CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// seedAccount persists a customer and an active account owned by it.
func seedAccount(t *testing.T, database *db.DB, balance, creditLimit int64) *models.Account {
	t.Helper()

	ctx := context.Background()

	customer := models.NewCustomer("test-client-" + t.Name())
	if err := NewCustomerRepository(database).Add(ctx, customer); err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}

	account, err := models.NewAccount(customer.ID, creditLimit)
	if err != nil {
		t.Fatalf("failed to build account: %v", err)
	}
	account.BalanceCents = balance

	if err := NewAccountRepository(database).Add(ctx, account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	return account
}
