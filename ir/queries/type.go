package queries

import (
	"context"
	"database/sql"
)

const getTypesForSchema = `
SELECT
	n.nspname AS type_schema,
	t.typname AS type_name,
	CASE t.typtype
		WHEN 'e' THEN 'enum'
		WHEN 'c' THEN 'composite'
	END AS type_kind,
	obj_description(t.oid, 'pg_type') AS type_comment
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
  AND t.typtype IN ('e', 'c')
  AND t.typname NOT LIKE '\_%'
  AND NOT EXISTS (
	SELECT 1 FROM pg_catalog.pg_class c
	WHERE c.oid = t.typrelid AND c.relkind <> 'c'
  )
ORDER BY t.typname
`

// GetTypesForSchema returns enum and composite types in the schema.
func (q *Queries) GetTypesForSchema(ctx context.Context, schemaName sql.NullString) ([]TypeRow, error) {
	rows, err := q.db.QueryContext(ctx, getTypesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TypeRow
	for rows.Next() {
		var r TypeRow
		if err := rows.Scan(&r.TypeSchema, &r.TypeName, &r.TypeKind, &r.TypeComment); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getDomainsForSchema = `
SELECT
	n.nspname AS domain_schema,
	t.typname AS domain_name,
	format_type(t.typbasetype, t.typtypmod) AS base_type,
	t.typnotnull AS not_null,
	t.typdefault AS default_value,
	obj_description(t.oid, 'pg_type') AS domain_comment
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
  AND t.typtype = 'd'
ORDER BY t.typname
`

// GetDomainsForSchema returns domain types in the schema.
func (q *Queries) GetDomainsForSchema(ctx context.Context, schemaName sql.NullString) ([]DomainRow, error) {
	rows, err := q.db.QueryContext(ctx, getDomainsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DomainRow
	for rows.Next() {
		var r DomainRow
		if err := rows.Scan(&r.DomainSchema, &r.DomainName, &r.BaseType, &r.NotNull, &r.DefaultValue, &r.DomainComment); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getDomainConstraintsForSchema = `
SELECT
	n.nspname AS domain_schema,
	t.typname AS domain_name,
	con.conname AS constraint_name,
	pg_get_constraintdef(con.oid, true) AS constraint_definition
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_type t ON t.oid = con.contypid
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
  AND t.typtype = 'd'
ORDER BY t.typname, con.conname
`

// GetDomainConstraintsForSchema returns the CHECK and NOT NULL constraints attached to domains in the schema.
func (q *Queries) GetDomainConstraintsForSchema(ctx context.Context, schemaName sql.NullString) ([]DomainConstraintRow, error) {
	rows, err := q.db.QueryContext(ctx, getDomainConstraintsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DomainConstraintRow
	for rows.Next() {
		var r DomainConstraintRow
		if err := rows.Scan(&r.DomainSchema, &r.DomainName, &r.ConstraintName, &r.ConstraintDefinition); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getEnumValuesForSchema = `
SELECT
	n.nspname AS type_schema,
	t.typname AS type_name,
	e.enumlabel AS enum_value
FROM pg_catalog.pg_enum e
JOIN pg_catalog.pg_type t ON t.oid = e.enumtypid
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname = $1
ORDER BY t.typname, e.enumsortorder
`

// GetEnumValuesForSchema returns every enum label, in declared order, for enum types in the schema.
func (q *Queries) GetEnumValuesForSchema(ctx context.Context, schemaName sql.NullString) ([]EnumValueRow, error) {
	rows, err := q.db.QueryContext(ctx, getEnumValuesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EnumValueRow
	for rows.Next() {
		var r EnumValueRow
		if err := rows.Scan(&r.TypeSchema, &r.TypeName, &r.EnumValue); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getCompositeTypeColumnsForSchema = `
SELECT
	n.nspname AS type_schema,
	t.typname AS type_name,
	a.attname AS column_name,
	format_type(a.atttypid, a.atttypmod) AS column_type,
	a.attnum AS column_position
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
JOIN pg_catalog.pg_class c ON c.oid = t.typrelid
JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid
WHERE n.nspname = $1
  AND t.typtype = 'c'
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY t.typname, a.attnum
`

// GetCompositeTypeColumnsForSchema returns ordered attributes for composite types in the schema.
func (q *Queries) GetCompositeTypeColumnsForSchema(ctx context.Context, schemaName sql.NullString) ([]CompositeTypeColumnRow, error) {
	rows, err := q.db.QueryContext(ctx, getCompositeTypeColumnsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CompositeTypeColumnRow
	for rows.Next() {
		var r CompositeTypeColumnRow
		if err := rows.Scan(&r.TypeSchema, &r.TypeName, &r.ColumnName, &r.ColumnType, &r.ColumnPosition); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
