package queries

import (
	"context"
	"database/sql"
)

const getDefaultPrivilegesForSchema = `
SELECT
	owner.rolname AS owner_role,
	CASE def.defaclobjtype
		WHEN 'r' THEN 'TABLE' WHEN 'S' THEN 'SEQUENCE' WHEN 'f' THEN 'FUNCTION'
		WHEN 'T' THEN 'TYPE' WHEN 'n' THEN 'SCHEMA'
	END AS object_type,
	grantee.rolname AS grantee,
	acl.privilege_type AS privilege_type,
	acl.is_grantable AS is_grantable
FROM pg_catalog.pg_default_acl def
JOIN pg_catalog.pg_namespace n ON n.oid = def.defaclnamespace
JOIN pg_catalog.pg_roles owner ON owner.oid = def.defaclrole
CROSS JOIN LATERAL aclexplode(def.defaclacl) AS acl(grantor, grantee, privilege_type, is_grantable)
JOIN pg_catalog.pg_roles grantee ON grantee.oid = acl.grantee
WHERE n.nspname = $1
`

// GetDefaultPrivilegesForSchema returns the ALTER DEFAULT PRIVILEGES entries
// recorded for a schema, one row per (owner-role, object-type, grantee, privilege).
func (q *Queries) GetDefaultPrivilegesForSchema(ctx context.Context, schemaName sql.NullString) ([]DefaultPrivilegeRow, error) {
	rows, err := q.db.QueryContext(ctx, getDefaultPrivilegesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DefaultPrivilegeRow
	for rows.Next() {
		var r DefaultPrivilegeRow
		if err := rows.Scan(&r.OwnerRole, &r.ObjectType, &r.Grantee, &r.PrivilegeType, &r.IsGrantable); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getObjectPrivilegesForSchema = `
SELECT
	c.relname AS object_name,
	CASE c.relkind
		WHEN 'r' THEN 'TABLE' WHEN 'p' THEN 'TABLE'
		WHEN 'v' THEN 'VIEW' WHEN 'm' THEN 'VIEW'
		WHEN 'S' THEN 'SEQUENCE'
	END AS object_type,
	grantee.rolname AS grantee,
	acl.privilege_type AS privilege_type,
	acl.is_grantable AS is_grantable
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
CROSS JOIN LATERAL aclexplode(c.relacl) AS acl(grantor, grantee, privilege_type, is_grantable)
JOIN pg_catalog.pg_roles grantee ON grantee.oid = acl.grantee
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p', 'v', 'm', 'S')
  AND c.relowner <> acl.grantee
`

// ObjectPrivilegeRow is one (object, grantee, privilege) row for a direct
// table/view/sequence level GRANT, excluding the implicit owner grant.
type ObjectPrivilegeRow struct {
	ObjectName    sql.NullString
	ObjectType    sql.NullString
	Grantee       sql.NullString
	PrivilegeType sql.NullString
	IsGrantable   sql.NullBool
}

// GetObjectPrivilegesForSchema returns direct GRANTs on tables, views, and
// sequences in a schema, one row per (object, grantee, privilege).
func (q *Queries) GetObjectPrivilegesForSchema(ctx context.Context, schemaName sql.NullString) ([]ObjectPrivilegeRow, error) {
	rows, err := q.db.QueryContext(ctx, getObjectPrivilegesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ObjectPrivilegeRow
	for rows.Next() {
		var r ObjectPrivilegeRow
		if err := rows.Scan(&r.ObjectName, &r.ObjectType, &r.Grantee, &r.PrivilegeType, &r.IsGrantable); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getColumnPrivilegesForSchema = `
SELECT
	c.relname AS table_name,
	a.attname AS column_name,
	grantee.rolname AS grantee,
	acl.privilege_type AS privilege_type,
	acl.is_grantable AS is_grantable
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
CROSS JOIN LATERAL aclexplode(a.attacl) AS acl(grantor, grantee, privilege_type, is_grantable)
JOIN pg_catalog.pg_roles grantee ON grantee.oid = acl.grantee
WHERE n.nspname = $1
  AND a.attnum > 0
  AND NOT a.attisdropped
  AND a.attacl IS NOT NULL
`

// ColumnPrivilegeRow is one (table, column, grantee, privilege) row for a
// column-level GRANT (GRANT ... (col1, col2) ON t TO role).
type ColumnPrivilegeRow struct {
	TableName     sql.NullString
	ColumnName    sql.NullString
	Grantee       sql.NullString
	PrivilegeType sql.NullString
	IsGrantable   sql.NullBool
}

// GetColumnPrivilegesForSchema returns column-level GRANTs in a schema, one
// row per (table, column, grantee, privilege).
func (q *Queries) GetColumnPrivilegesForSchema(ctx context.Context, schemaName sql.NullString) ([]ColumnPrivilegeRow, error) {
	rows, err := q.db.QueryContext(ctx, getColumnPrivilegesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ColumnPrivilegeRow
	for rows.Next() {
		var r ColumnPrivilegeRow
		if err := rows.Scan(&r.TableName, &r.ColumnName, &r.Grantee, &r.PrivilegeType, &r.IsGrantable); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
