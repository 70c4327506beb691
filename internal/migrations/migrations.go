// Package migrations implements the schema_migrations bookkeeping table
// that backs apply's idempotent replay guarantee: a step is only ever
// executed once, identified by a stable hash of its own forward SQL.
package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"

	"github.com/pgdeclare/pgdeclare/ir"
)

// TableName is the bookkeeping table's unqualified name.
const TableName = "schema_migrations"

// StepID returns a stable identifier for a step's forward SQL. Two steps
// with byte-identical SQL (e.g. the same plan applied twice) get the same
// id, which is what makes replay idempotent.
func StepID(forwardSQL string) string {
	sum := sha256.Sum256([]byte(forwardSQL))
	return fmt.Sprintf("%x", sum)
}

// qualifiedTable returns schema_migrations qualified to schema, quoting
// both identifiers.
func qualifiedTable(schema string) string {
	if schema == "" {
		return ir.QuoteIdentifier(TableName)
	}
	return ir.QuoteIdentifier(schema) + "." + ir.QuoteIdentifier(TableName)
}

// EnsureTable creates schema_migrations in schema if it does not already
// exist, per spec: "(id TEXT PRIMARY KEY, name TEXT NOT NULL, applied_at
// TIMESTAMPTZ NOT NULL DEFAULT now())".
func EnsureTable(ctx context.Context, tx *sql.Tx, schema string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, qualifiedTable(schema))

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", TableName, err)
	}
	return nil
}

// Applied reports which of the given ids are already recorded in
// schema_migrations, so the caller can skip them on replay.
func Applied(ctx context.Context, tx *sql.Tx, schema string, ids []string) (map[string]bool, error) {
	applied := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return applied, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("SELECT id FROM %s WHERE id IN (%s)", qualifiedTable(schema), joinComma(placeholders))
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", TableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", TableName, err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// Record inserts a row marking id (named name for human-readable auditing)
// as applied.
func Record(ctx context.Context, tx *sql.Tx, schema, id, name string) error {
	query := fmt.Sprintf("INSERT INTO %s (id, name) VALUES ($1, $2)", qualifiedTable(schema))
	if _, err := tx.ExecContext(ctx, query, id, name); err != nil {
		return fmt.Errorf("failed to record migration step %q: %w", name, err)
	}
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
