package queries

import (
	"context"
	"database/sql"
)

const getSchema = `
SELECT nspname
FROM pg_catalog.pg_namespace
WHERE nspname = $1
`

// GetSchema confirms the target schema exists and returns its name.
func (q *Queries) GetSchema(ctx context.Context, schemaName sql.NullString) (string, error) {
	var name string
	err := q.db.QueryRowContext(ctx, getSchema, schemaName).Scan(&name)
	return name, err
}

const getTablesForSchema = `
SELECT
	n.nspname AS table_schema,
	c.relname AS table_name,
	CASE c.relkind
		WHEN 'r' THEN 'BASE TABLE'
		WHEN 'p' THEN 'BASE TABLE'
		WHEN 'v' THEN 'VIEW'
		WHEN 'm' THEN 'VIEW'
		ELSE 'BASE TABLE'
	END AS table_type,
	obj_description(c.oid, 'pg_class') AS table_comment
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
  AND c.relispartition = false
  AND NOT EXISTS (
	SELECT 1 FROM pg_catalog.pg_depend d
	WHERE d.objid = c.oid AND d.deptype = 'e'
  )
ORDER BY c.relname
`

// GetTablesForSchema returns ordinary and partitioned tables owned by a schema,
// excluding partition children and extension-owned relations.
func (q *Queries) GetTablesForSchema(ctx context.Context, schemaName sql.NullString) ([]TableRow, error) {
	rows, err := q.db.QueryContext(ctx, getTablesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TableRow
	for rows.Next() {
		var r TableRow
		if err := rows.Scan(&r.TableSchema, &r.TableName, &r.TableType, &r.TableComment); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
