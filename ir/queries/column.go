package queries

import (
	"context"
	"database/sql"
)

const getColumnsForSchema = `
SELECT
	n.nspname AS table_schema,
	c.relname AS table_name,
	a.attname AS column_name,
	col_description(c.oid, a.attnum) AS column_comment,
	format_type(a.atttypid, a.atttypmod) AS resolved_type,
	a.attnum AS ordinal_position,
	CASE WHEN a.attnotnull THEN 'NO' ELSE 'YES' END AS is_nullable,
	a.attgenerated AS attgenerated,
	(SELECT pg_get_expr(ad.adbin, ad.adrelid)
	 FROM pg_catalog.pg_attrdef ad
	 WHERE ad.adrelid = a.attrelid AND ad.adnum = a.attnum AND a.attgenerated = 's') AS generated_expr,
	(SELECT pg_get_expr(ad.adbin, ad.adrelid)
	 FROM pg_catalog.pg_attrdef ad
	 WHERE ad.adrelid = a.attrelid AND ad.adnum = a.attnum AND a.attgenerated = '') AS column_default,
	information_schema._pg_char_max_length(a.atttypid, a.atttypmod) AS character_maximum_length,
	information_schema._pg_numeric_precision(a.atttypid, a.atttypmod) AS numeric_precision,
	information_schema._pg_numeric_scale(a.atttypid, a.atttypmod) AS numeric_scale,
	CASE WHEN a.attidentity <> '' THEN 'YES' ELSE 'NO' END AS is_identity,
	CASE a.attidentity WHEN 'a' THEN 'ALWAYS' WHEN 'd' THEN 'BY DEFAULT' ELSE '' END AS identity_generation,
	COALESCE((SELECT seqcycle FROM pg_catalog.pg_sequence s
		JOIN pg_catalog.pg_depend dep ON dep.objid = s.seqrelid
		WHERE dep.refobjid = c.oid AND dep.refobjsubid = a.attnum), false)::text AS identity_cycle_raw,
	(SELECT s.seqstart FROM pg_catalog.pg_sequence s
		JOIN pg_catalog.pg_depend dep ON dep.objid = s.seqrelid
		WHERE dep.refobjid = c.oid AND dep.refobjsubid = a.attnum) AS identity_start,
	(SELECT s.seqincrement FROM pg_catalog.pg_sequence s
		JOIN pg_catalog.pg_depend dep ON dep.objid = s.seqrelid
		WHERE dep.refobjid = c.oid AND dep.refobjsubid = a.attnum) AS identity_increment,
	(SELECT s.seqmax FROM pg_catalog.pg_sequence s
		JOIN pg_catalog.pg_depend dep ON dep.objid = s.seqrelid
		WHERE dep.refobjid = c.oid AND dep.refobjsubid = a.attnum) AS identity_maximum,
	(SELECT s.seqmin FROM pg_catalog.pg_sequence s
		JOIN pg_catalog.pg_depend dep ON dep.objid = s.seqrelid
		WHERE dep.refobjid = c.oid AND dep.refobjsubid = a.attnum) AS identity_minimum
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY c.relname, a.attnum
`

// GetColumnsForSchema returns column definitions for every ordinary table in a schema.
func (q *Queries) GetColumnsForSchema(ctx context.Context, schemaName sql.NullString) ([]ColumnRow, error) {
	rows, err := q.db.QueryContext(ctx, getColumnsForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ColumnRow
	for rows.Next() {
		var r ColumnRow
		var identityCycleRaw string
		if err := rows.Scan(
			&r.TableSchema, &r.TableName, &r.ColumnName, &r.ColumnComment,
			&r.ResolvedType, &r.OrdinalPosition, &r.IsNullable, &r.Attgenerated,
			&r.GeneratedExpr, &r.ColumnDefault,
			&r.CharacterMaximumLength, &r.NumericPrecision, &r.NumericScale,
			&r.IsIdentity, &r.IdentityGeneration, &identityCycleRaw,
			&r.IdentityStart, &r.IdentityIncrement, &r.IdentityMaximum, &r.IdentityMinimum,
		); err != nil {
			return nil, err
		}
		if identityCycleRaw == "true" {
			r.IdentityCycle = "YES"
		} else {
			r.IdentityCycle = "NO"
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getPartitionedTablesForSchema = `
SELECT
	n.nspname AS table_schema,
	c.relname AS table_name,
	CASE p.partstrat WHEN 'r' THEN 'RANGE' WHEN 'l' THEN 'LIST' WHEN 'h' THEN 'HASH' END AS partition_strategy,
	pg_get_partkeydef(c.oid) AS partition_key
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_partitioned_table p ON p.partrelid = c.oid
WHERE n.nspname = $1
`

// GetPartitionedTablesForSchema returns the partition strategy and key for each partitioned table.
func (q *Queries) GetPartitionedTablesForSchema(ctx context.Context, schemaName sql.NullString) ([]PartitionedTableRow, error) {
	rows, err := q.db.QueryContext(ctx, getPartitionedTablesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PartitionedTableRow
	for rows.Next() {
		var r PartitionedTableRow
		if err := rows.Scan(&r.TableSchema, &r.TableName, &r.PartitionStrategy, &r.PartitionKey); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getPartitionChildren = `
SELECT
	cn.nspname AS child_schema,
	c.relname AS child_table,
	p.relname AS parent_table
FROM pg_catalog.pg_inherits i
JOIN pg_catalog.pg_class c ON c.oid = i.inhrelid
JOIN pg_catalog.pg_class p ON p.oid = i.inhparent
JOIN pg_catalog.pg_namespace cn ON cn.oid = c.relnamespace
WHERE c.relispartition
`

// GetPartitionChildren returns every partition's parent table across all schemas.
func (q *Queries) GetPartitionChildren(ctx context.Context) ([]PartitionChildRow, error) {
	rows, err := q.db.QueryContext(ctx, getPartitionChildren)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PartitionChildRow
	for rows.Next() {
		var r PartitionChildRow
		if err := rows.Scan(&r.ChildSchema, &r.ChildTable, &r.ParentTable); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
