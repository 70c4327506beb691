package queries

import (
	"context"
	"database/sql"
)

const getViewsForSchema = `
SELECT
	n.nspname AS table_schema,
	c.relname AS table_name,
	obj_description(c.oid, 'pg_class') AS view_comment,
	pg_get_viewdef(c.oid, true) AS view_definition,
	(c.relkind = 'm') AS is_materialized
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('v', 'm')
  AND NOT EXISTS (
	SELECT 1 FROM pg_catalog.pg_depend d
	WHERE d.objid = c.oid AND d.deptype = 'e'
  )
ORDER BY c.relname
`

// GetViewsForSchema returns both plain and materialized views in the schema.
func (q *Queries) GetViewsForSchema(ctx context.Context, schemaName sql.NullString) ([]ViewRow, error) {
	rows, err := q.db.QueryContext(ctx, getViewsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ViewRow
	for rows.Next() {
		var r ViewRow
		if err := rows.Scan(&r.TableSchema, &r.TableName, &r.ViewComment, &r.ViewDefinition, &r.IsMaterialized); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
