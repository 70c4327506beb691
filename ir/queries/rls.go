package queries

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

const getRLSTablesForSchema = `
SELECT
	n.nspname AS schemaname,
	c.relname AS tablename,
	c.relforcerowsecurity AS rowforced
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
  AND c.relrowsecurity = true
`

// GetRLSTablesForSchema returns tables in the schema with row-level security enabled.
func (q *Queries) GetRLSTablesForSchema(ctx context.Context, schemaName string) ([]RLSTableRow, error) {
	rows, err := q.db.QueryContext(ctx, getRLSTablesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RLSTableRow
	for rows.Next() {
		var r RLSTableRow
		if err := rows.Scan(&r.Schemaname, &r.Tablename, &r.Rowforced); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getRLSPoliciesForSchema = `
SELECT
	n.nspname AS schemaname,
	c.relname AS tablename,
	pol.polname AS policyname,
	CASE pol.polcmd
		WHEN 'r' THEN 'SELECT' WHEN 'a' THEN 'INSERT' WHEN 'w' THEN 'UPDATE'
		WHEN 'd' THEN 'DELETE' WHEN '*' THEN 'ALL'
	END AS cmd,
	CASE WHEN pol.polpermissive THEN 'PERMISSIVE' ELSE 'RESTRICTIVE' END AS permissive,
	ARRAY(SELECT rolname FROM pg_catalog.pg_roles WHERE oid = ANY(pol.polroles)) AS roles,
	pg_get_expr(pol.polqual, pol.polrelid, true) AS qual,
	pg_get_expr(pol.polwithcheck, pol.polrelid, true) AS with_check
FROM pg_catalog.pg_policy pol
JOIN pg_catalog.pg_class c ON c.oid = pol.polrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
ORDER BY c.relname, pol.polname
`

// GetRLSPoliciesForSchema returns every row-level security policy defined on tables in the schema.
func (q *Queries) GetRLSPoliciesForSchema(ctx context.Context, schemaName sql.NullString) ([]RLSPolicyRow, error) {
	rows, err := q.db.QueryContext(ctx, getRLSPoliciesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RLSPolicyRow
	for rows.Next() {
		var r RLSPolicyRow
		if err := rows.Scan(
			&r.Schemaname, &r.Tablename, &r.Policyname, &r.Cmd, &r.Permissive,
			pq.Array(&r.Roles), &r.Qual, &r.WithCheck,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
