// Copyright 2025 Certen Protocol
//
// PostgresStore is the durable nullifier store, used when a validator
// must survive restarts without forgetting already-spent nullifiers.
// Built on the shared database client's connection pool rather than
// opening its own *sql.DB.

package nullifier

import (
	"context"
	"fmt"

	"github.com/certen/independant-validator/pkg/database"
)

// PostgresStore backs Store with the pof_nullifiers table.
type PostgresStore struct {
	client *database.Client
}

// NewPostgresStore wraps an already-connected database client. Run
// client.MigrateUp before first use so the pof_nullifiers table exists.
func NewPostgresStore(client *database.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

// CheckAndInsert implements Store using an INSERT ... ON CONFLICT DO
// NOTHING, reporting whether the row was newly inserted via the
// driver's reported row count — a single round trip, no separate
// SELECT-then-INSERT race window.
func (s *PostgresStore) CheckAndInsert(scopeID, policyID, nullifierHex string) (bool, error) {
	ctx := context.Background()
	result, err := s.client.ExecContext(ctx, `
		INSERT INTO pof_nullifiers (scope_id, policy_id, nullifier)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope_id, policy_id, nullifier) DO NOTHING
	`, scopeID, policyID, nullifierHex)
	if err != nil {
		return false, fmt.Errorf("nullifier: insert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("nullifier: rows affected: %w", err)
	}
	return n == 1, nil
}

var _ Store = (*PostgresStore)(nil)
