//go:build integration

package testutil

import (
	"context"
	"strings"
	"time"
)

var allTables = []string{
	"outbox_messages",
	"queue_messages",
	"ledger_entries",
	"domain_events",
	"webhook_subscriptions",
	"deposit_accounts",
	"loan_accounts",
}

// CleanAll empties every table in one statement. A failed truncate fails
// the test rather than leaking state into the next one.
func (env *TestEnv) CleanAll() {
	env.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmt := "TRUNCATE TABLE " + strings.Join(allTables, ", ") + " CASCADE"
	if _, err := env.Pool.Exec(ctx, stmt); err != nil {
		env.t.Fatalf("clean database: %v", err)
	}
}
