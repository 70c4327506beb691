package queries

import (
	"context"
	"database/sql"
)

const getExtensionsForSchema = `
SELECT
	e.extname AS extension_name,
	n.nspname AS schema_name,
	e.extversion AS extension_version
FROM pg_catalog.pg_extension e
JOIN pg_catalog.pg_namespace n ON n.oid = e.extnamespace
WHERE n.nspname = $1
`

// ExtensionRow is one installed extension row.
type ExtensionRow struct {
	ExtensionName    sql.NullString
	SchemaName       sql.NullString
	ExtensionVersion sql.NullString
}

// GetExtensionsForSchema returns extensions installed into the given schema,
// per spec.md §4.3: "schema resolved to the first element of extnamespace".
func (q *Queries) GetExtensionsForSchema(ctx context.Context, schemaName sql.NullString) ([]ExtensionRow, error) {
	rows, err := q.db.QueryContext(ctx, getExtensionsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExtensionRow
	for rows.Next() {
		var r ExtensionRow
		if err := rows.Scan(&r.ExtensionName, &r.SchemaName, &r.ExtensionVersion); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
