package queries

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

const getIndexesForSchema = `
SELECT
	n.nspname AS schemaname,
	t.relname AS tablename,
	ic.relname AS indexname,
	ix.indisunique AS is_unique,
	ix.indisprimary AS is_primary,
	(ix.indpred IS NOT NULL) AS is_partial,
	(ix.indexprs IS NOT NULL) AS has_expressions,
	am.amname AS method,
	obj_description(ic.oid, 'pg_class') AS index_comment,
	pg_get_expr(ix.indpred, ix.indrelid, true) AS partial_predicate,
	ARRAY(
		SELECT pg_get_indexdef(ix.indexrelid, k + 1, true)
		FROM generate_subscripts(ix.indkey, 1) AS k
		ORDER BY k
	) AS column_definitions,
	ARRAY(
		SELECT CASE WHEN (ix.indoption[k] & 1) = 1 THEN 'DESC' ELSE 'ASC' END
		FROM generate_subscripts(ix.indkey, 1) AS k
		ORDER BY k
	) AS column_directions,
	ARRAY(
		SELECT COALESCE(opc.opcname, '')
		FROM generate_subscripts(ix.indclass, 1) AS k
		LEFT JOIN pg_catalog.pg_opclass opc ON opc.oid = ix.indclass[k]
		ORDER BY k
	) AS column_opclasses
FROM pg_catalog.pg_index ix
JOIN pg_catalog.pg_class ic ON ic.oid = ix.indexrelid
JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
JOIN pg_catalog.pg_am am ON am.oid = ic.relam
WHERE n.nspname = $1
  AND NOT EXISTS (
	SELECT 1 FROM pg_catalog.pg_constraint con
	WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
	  AND con.conname <> ic.relname
  )
ORDER BY t.relname, ic.relname
`

// GetIndexesForSchema returns every index (including those backing a
// materialized view) defined in the schema, with per-column definitions,
// sort directions, and operator classes already unpacked into arrays.
func (q *Queries) GetIndexesForSchema(ctx context.Context, schemaName sql.NullString) ([]IndexRow, error) {
	rows, err := q.db.QueryContext(ctx, getIndexesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []IndexRow
	for rows.Next() {
		var r IndexRow
		if err := rows.Scan(
			&r.Schemaname, &r.Tablename, &r.Indexname, &r.IsUnique, &r.IsPrimary,
			&r.IsPartial, &r.HasExpressions, &r.Method, &r.IndexComment, &r.PartialPredicate,
			pq.Array(&r.ColumnDefinitions), pq.Array(&r.ColumnDirections), pq.Array(&r.ColumnOpclasses),
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
