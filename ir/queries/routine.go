package queries

import (
	"context"
	"database/sql"
)

const getFunctionsForSchema = `
SELECT
	n.nspname AS routine_schema,
	p.proname AS routine_name,
	obj_description(p.oid, 'pg_proc') AS function_comment,
	pg_get_function_arguments(p.oid) AS function_signature,
	pg_get_functiondef(p.oid) AS routine_definition,
	format_type(p.prorettype, null) AS data_type,
	l.lanname AS external_language,
	p.provolatile AS volatility,
	p.proisstrict AS is_strict,
	p.prosecdef AS is_security_definer,
	p.proleakproof AS is_leakproof,
	p.proparallel AS parallel_mode,
	(SELECT setting FROM unnest(p.proconfig) AS cfg(setting) WHERE cfg.setting LIKE 'search_path=%' LIMIT 1) AS search_path
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_language l ON l.oid = p.prolang
WHERE n.nspname = $1
  AND p.prokind = 'f'
ORDER BY p.proname
`

// GetFunctionsForSchema returns every ordinary function in the schema.
func (q *Queries) GetFunctionsForSchema(ctx context.Context, schemaName sql.NullString) ([]FunctionRow, error) {
	rows, err := q.db.QueryContext(ctx, getFunctionsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FunctionRow
	for rows.Next() {
		var r FunctionRow
		if err := rows.Scan(
			&r.RoutineSchema, &r.RoutineName, &r.FunctionComment, &r.FunctionSignature,
			&r.RoutineDefinition, &r.DataType, &r.ExternalLanguage, &r.Volatility,
			&r.IsStrict, &r.IsSecurityDefiner, &r.IsLeakproof, &r.ParallelMode, &r.SearchPath,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getProceduresForSchema = `
SELECT
	n.nspname AS routine_schema,
	p.proname AS routine_name,
	obj_description(p.oid, 'pg_proc') AS procedure_comment,
	pg_get_function_arguments(p.oid) AS procedure_signature,
	pg_get_functiondef(p.oid) AS routine_definition,
	l.lanname AS external_language
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_language l ON l.oid = p.prolang
WHERE n.nspname = $1
  AND p.prokind = 'p'
ORDER BY p.proname
`

// GetProceduresForSchema returns every procedure in the schema.
func (q *Queries) GetProceduresForSchema(ctx context.Context, schemaName sql.NullString) ([]ProcedureRow, error) {
	rows, err := q.db.QueryContext(ctx, getProceduresForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProcedureRow
	for rows.Next() {
		var r ProcedureRow
		if err := rows.Scan(
			&r.RoutineSchema, &r.RoutineName, &r.ProcedureComment,
			&r.ProcedureSignature, &r.RoutineDefinition, &r.ExternalLanguage,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getAggregatesForSchema = `
SELECT
	n.nspname AS aggregate_schema,
	p.proname AS aggregate_name,
	obj_description(p.oid, 'pg_proc') AS aggregate_comment,
	format_type(p.prorettype, null) AS aggregate_return_type,
	transfn.proname AS transition_function,
	transfnn.nspname AS transition_function_schema,
	format_type(agg.aggtranstype, null) AS state_type,
	agg.agginitval AS initial_condition,
	finalfn.proname AS final_function,
	finalfnn.nspname AS final_function_schema
FROM pg_catalog.pg_aggregate agg
JOIN pg_catalog.pg_proc p ON p.oid = agg.aggfnoid
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
LEFT JOIN pg_catalog.pg_proc transfn ON transfn.oid = agg.aggtransfn
LEFT JOIN pg_catalog.pg_namespace transfnn ON transfnn.oid = transfn.pronamespace
LEFT JOIN pg_catalog.pg_proc finalfn ON finalfn.oid = agg.aggfinalfn
LEFT JOIN pg_catalog.pg_namespace finalfnn ON finalfnn.oid = finalfn.pronamespace
WHERE n.nspname = $1
ORDER BY p.proname
`

// GetAggregatesForSchema returns every user-defined aggregate in the schema.
func (q *Queries) GetAggregatesForSchema(ctx context.Context, schemaName sql.NullString) ([]AggregateRow, error) {
	rows, err := q.db.QueryContext(ctx, getAggregatesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AggregateRow
	for rows.Next() {
		var r AggregateRow
		if err := rows.Scan(
			&r.AggregateSchema, &r.AggregateName, &r.AggregateComment, &r.AggregateReturnType,
			&r.TransitionFunction, &r.TransitionFunctionSchema, &r.StateType,
			&r.InitialCondition, &r.FinalFunction, &r.FinalFunctionSchema,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
