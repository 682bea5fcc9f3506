//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fincore/platform/internal/app"
	"github.com/fincore/platform/internal/infra"
	"github.com/fincore/platform/internal/projection"
	"github.com/fincore/platform/internal/provider"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestWebhookSecret signs every webhook the suite sends, so signature
// verification is exercised on each delivery.
const TestWebhookSecret = "integration-test-signing-secret"

const testDBName = "fincore_test"

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	t      *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

// The suite expects a throwaway Postgres on localhost:5435; FINCORE_TEST_*
// variables point it somewhere else on CI.
func testSetting(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN(dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testSetting("FINCORE_TEST_PGUSER", "postgres"),
		testSetting("FINCORE_TEST_PGPASSWORD", "postgres"),
		testSetting("FINCORE_TEST_PGHOST", "localhost"),
		testSetting("FINCORE_TEST_PGPORT", "5435"),
		dbName)
}

// ensureTestDB creates the test database on first run. A plain connection
// is enough; this runs exactly once per process.
func ensureTestDB(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, testDSN("postgres"))
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", testDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+testDBName); err != nil {
		return fmt.Errorf("create test db: %w", err)
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if poolErr = ensureTestDB(ctx); poolErr != nil {
			return
		}

		// Same runner the api binary uses; it walks up from the test
		// working directory to db/migrations.
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := infra.RunMigrations(testDSN(testDBName), quiet); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		sharedPool, poolErr = pgxpool.New(ctx, testDSN(testDBName))
		if poolErr != nil {
			poolErr = fmt.Errorf("create pool: %w", poolErr)
		}
	})

	if poolErr != nil {
		t.Fatalf("initialize test database: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by
// the real router and test DB. Webhook deliveries go out signed with
// TestWebhookSecret.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := app.NewRouter(app.RouterDeps{
		Pool:   pool,
		Logger: logger,
		Cache:  projection.NewInMemoryStore(),
		Sender: provider.NewWebhookSender(5*time.Second, TestWebhookSecret),
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server: server,
		Pool:   pool,
		t:      t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	env.CleanAll()

	return env
}
