package queries

import (
	"context"
	"database/sql"
)

const getTriggersForSchema = `
SELECT
	n.nspname AS trigger_schema,
	tg.tgname AS trigger_name,
	c.relname AS event_object_table,
	tg.tgtype AS trigger_type,
	pg_get_triggerdef(tg.oid, true) AS trigger_definition,
	fn.nspname AS function_schema,
	p.proname AS function_name,
	NULL::text AS old_table,
	NULL::text AS new_table,
	obj_description(tg.oid, 'pg_trigger') AS trigger_comment,
	tg.tgconstraint AS trigger_constraint_oid,
	tg.tgdeferrable AS trigger_deferrable,
	tg.tginitdeferred AS trigger_initdeferred
FROM pg_catalog.pg_trigger tg
JOIN pg_catalog.pg_class c ON c.oid = tg.tgrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_proc p ON p.oid = tg.tgfoid
JOIN pg_catalog.pg_namespace fn ON fn.oid = p.pronamespace
WHERE n.nspname = $1
  AND NOT tg.tgisinternal
ORDER BY c.relname, tg.tgname
`

// GetTriggersForSchema returns every user-defined trigger (including
// constraint triggers) on tables in the schema.
func (q *Queries) GetTriggersForSchema(ctx context.Context, schemaName sql.NullString) ([]TriggerRow, error) {
	rows, err := q.db.QueryContext(ctx, getTriggersForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TriggerRow
	for rows.Next() {
		var r TriggerRow
		if err := rows.Scan(
			&r.TriggerSchema, &r.TriggerName, &r.EventObjectTable, &r.TriggerType, &r.TriggerDefinition,
			&r.FunctionSchema, &r.FunctionName, &r.OldTable, &r.NewTable, &r.TriggerComment,
			&r.TriggerConstraintOid, &r.TriggerDeferrable, &r.TriggerInitdeferred,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
