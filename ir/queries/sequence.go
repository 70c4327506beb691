package queries

import (
	"context"
	"database/sql"
)

const getSequencesForSchema = `
SELECT
	n.nspname AS sequence_schema,
	c.relname AS sequence_name,
	format_type(s.seqtypid, null) AS data_type,
	s.seqstart AS start_value,
	s.seqmin AS minimum_value,
	s.seqmax AS maximum_value,
	s.seqincrement AS increment,
	s.seqcycle AS cycle_option,
	s.seqcache AS cache_size,
	dep.refobjname AS owned_by_table,
	dep.refcolname AS owned_by_column
FROM pg_catalog.pg_sequence s
JOIN pg_catalog.pg_class c ON c.oid = s.seqrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN LATERAL (
	SELECT rc.relname AS refobjname, ra.attname AS refcolname
	FROM pg_catalog.pg_depend d
	JOIN pg_catalog.pg_class rc ON rc.oid = d.refobjid
	JOIN pg_catalog.pg_attribute ra ON ra.attrelid = d.refobjid AND ra.attnum = d.refobjsubid
	WHERE d.objid = c.oid AND d.deptype = 'a'
	LIMIT 1
) dep ON true
WHERE n.nspname = $1
ORDER BY c.relname
`

// GetSequencesForSchema returns every sequence in the schema along with the
// table/column it is owned by, when applicable.
func (q *Queries) GetSequencesForSchema(ctx context.Context, schemaName sql.NullString) ([]SequenceRow, error) {
	rows, err := q.db.QueryContext(ctx, getSequencesForSchema, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SequenceRow
	for rows.Next() {
		var r SequenceRow
		if err := rows.Scan(
			&r.SequenceSchema, &r.SequenceName, &r.DataType,
			&r.StartValue, &r.MinimumValue, &r.MaximumValue, &r.Increment,
			&r.CycleOption, &r.CacheSize, &r.OwnedByTable, &r.OwnedByColumn,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
