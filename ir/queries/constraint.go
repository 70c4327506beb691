package queries

import (
	"context"
	"database/sql"
)

const getConstraintsForSchema = `
SELECT
	n.nspname AS table_schema,
	t.relname AS table_name,
	con.conname AS constraint_name,
	CASE con.contype
		WHEN 'p' THEN 'PRIMARY KEY'
		WHEN 'u' THEN 'UNIQUE'
		WHEN 'f' THEN 'FOREIGN KEY'
		WHEN 'c' THEN 'CHECK'
		WHEN 'x' THEN 'EXCLUSION'
	END AS constraint_type,
	a.attname AS column_name,
	fn.nspname AS foreign_table_schema,
	ft.relname AS foreign_table_name,
	fa.attname AS foreign_column_name,
	col.ordinality AS foreign_ordinal_position,
	CASE con.confdeltype
		WHEN 'a' THEN 'NO ACTION' WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE'
		WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT'
	END AS delete_rule,
	CASE con.confupdtype
		WHEN 'a' THEN 'NO ACTION' WHEN 'r' THEN 'RESTRICT' WHEN 'c' THEN 'CASCADE'
		WHEN 'n' THEN 'SET NULL' WHEN 'd' THEN 'SET DEFAULT'
	END AS update_rule,
	con.condeferrable AS deferrable,
	con.condeferred AS initially_deferred,
	CASE WHEN con.contype = 'c' THEN pg_get_constraintdef(con.oid, true) END AS check_clause,
	con.convalidated AS is_valid
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_class t ON t.oid = con.conrelid
JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
LEFT JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS ck(attnum, ordinality) ON true
LEFT JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = ck.attnum
LEFT JOIN pg_catalog.pg_class ft ON ft.oid = con.confrelid
LEFT JOIN pg_catalog.pg_namespace fn ON fn.oid = ft.relnamespace
LEFT JOIN LATERAL unnest(con.confkey) WITH ORDINALITY AS col(attnum, ordinality) ON ck.ordinality = col.ordinality
LEFT JOIN pg_catalog.pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = col.attnum
WHERE n.nspname = $1
ORDER BY t.relname, con.conname, ck.ordinality
`

// GetConstraintsForSchema returns one row per (constraint, column) pair for every
// table constraint in the schema; foreign-key rows additionally carry the
// referenced table/column.
func (q *Queries) GetConstraintsForSchema(ctx context.Context, schemaName sql.NullString) ([]ConstraintRow, error) {
	rows, err := q.db.QueryContext(ctx, getConstraintsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ConstraintRow
	for rows.Next() {
		var r ConstraintRow
		if err := rows.Scan(
			&r.TableSchema, &r.TableName, &r.ConstraintName, &r.ConstraintType, &r.ColumnName,
			&r.ForeignTableSchema, &r.ForeignTableName, &r.ForeignColumnName, &r.ForeignOrdinalPosition,
			&r.DeleteRule, &r.UpdateRule, &r.Deferrable, &r.InitiallyDeferred,
			&r.CheckClause, &r.IsValid,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
