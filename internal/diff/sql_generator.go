package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgdeclare/pgdeclare/ir"
)

// SQLGeneratorService renders a DDLDiff into the ordered sequence of
// statements that takes a database from its current state to the declared
// one: drops first (in reverse dependency order), then creates (in
// dependency order), then in-place modifications.
type SQLGeneratorService struct {
	includeComments bool
	targetSchema    string
}

// NewSQLGeneratorService creates a new SQL generator service
func NewSQLGeneratorService(includeComments bool, targetSchema string) *SQLGeneratorService {
	return &SQLGeneratorService{
		includeComments: includeComments,
		targetSchema:    targetSchema,
	}
}

// GenerateMigrationSQL generates SQL from the DDL differences following the proper dependency order
func (s *SQLGeneratorService) GenerateMigrationSQL(diff *DDLDiff) string {
	w := NewSQLWriterWithComments(s.includeComments)

	// Write header comments
	if s.includeComments {
		s.writeHeader(w)
	}

	s.generateDropSQL(w, diff)
	s.generateCreateSQL(w, diff)
	s.generateModifySQL(w, diff)

	return w.String()
}

// writeHeader writes the SQL header comments
func (s *SQLGeneratorService) writeHeader(w *SQLWriter) {
	w.WriteString("--\n")
	w.WriteString("-- PostgreSQL database migration\n")
	w.WriteString("--\n")
	w.WriteString("\n")
}

// byName sorts a slice of named entities by name, without mutating the
// diff's own ordering.
func byName[T any](items []T, nameOf func(T) string) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return nameOf(sorted[i]) < nameOf(sorted[j])
	})
	return sorted
}

// emitDropStatements writes one DROP statement per name, sorted, in the
// uniform "DROP <KEYWORD> IF EXISTS <name> CASCADE;" shape most object kinds
// share.
func (s *SQLGeneratorService) emitDropStatements(w *SQLWriter, objectType, keyword string, names []string, schemaOf func(string) string) {
	sortedNames := make([]string, len(names))
	copy(sortedNames, names)
	sort.Strings(sortedNames)

	for _, name := range sortedNames {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP %s IF EXISTS %s CASCADE;", keyword, name)
		w.WriteStatementWithComment(objectType, name, schemaOf(name), "", sql, s.targetSchema)
	}
}

// generateDropSQL generates DROP statements in reverse dependency order
func (s *SQLGeneratorService) generateDropSQL(w *SQLWriter, diff *DDLDiff) {
	s.generateDropPoliciesSQL(w, diff.DroppedPolicies)
	s.generateDropTriggersSQL(w, diff.DroppedTriggers)
	s.generateDropIndexesSQL(w, diff.DroppedIndexes)
	s.generateDropFunctionsSQL(w, diff.DroppedFunctions)
	s.generateDropViewsSQL(w, diff.DroppedViews)
	s.generateDropTablesSQL(w, diff.DroppedTables)
	s.generateDropTypesSQL(w, diff.DroppedTypes)
	s.generateDropExtensionsSQL(w, diff.DroppedExtensions)
	s.generateDropSchemasSQL(w, diff.DroppedSchemas)
}

// generateCreateSQL generates CREATE statements in dependency order
func (s *SQLGeneratorService) generateCreateSQL(w *SQLWriter, diff *DDLDiff) {
	s.generateCreateSchemasSQL(w, diff.AddedSchemas)
	s.generateCreateExtensionsSQL(w, diff.AddedExtensions)
	s.generateCreateTypesSQL(w, diff.AddedTypes)
	s.generateCreateTablesSQL(w, diff.AddedTables)
	s.generateCreateViewsSQL(w, diff.AddedViews)
	s.generateCreateFunctionsSQL(w, diff.AddedFunctions)
	s.generateCreateIndexesSQL(w, diff.AddedIndexes)
	s.generateCreateTriggersSQL(w, diff.AddedTriggers)
	s.generateCreatePoliciesSQL(w, diff.AddedPolicies)
}

// generateModifySQL generates ALTER statements
func (s *SQLGeneratorService) generateModifySQL(w *SQLWriter, diff *DDLDiff) {
	s.generateModifySchemasSQL(w, diff.ModifiedSchemas)
	s.generateModifyTypesSQL(w, diff.ModifiedTypes)
	s.generateModifyTablesSQL(w, diff.ModifiedTables)
	s.generateModifyViewsSQL(w, diff.ModifiedViews)
	s.generateModifyFunctionsSQL(w, diff.ModifiedFunctions)
	s.generateModifyTriggersSQL(w, diff.ModifiedTriggers)
	s.generateRLSChangesSQL(w, diff.RLSChanges)
	s.generateModifyPoliciesSQL(w, diff.ModifiedPolicies)
}

// generateDropSchemasSQL generates DROP SCHEMA statements
func (s *SQLGeneratorService) generateDropSchemasSQL(w *SQLWriter, schemas []*ir.Schema) {
	names := make([]string, len(schemas))
	for i, schema := range schemas {
		names[i] = schema.Name
	}
	s.emitDropStatements(w, "SCHEMA", "SCHEMA", names, func(string) string { return "" })
}

// generateCreateSchemasSQL generates CREATE SCHEMA statements
func (s *SQLGeneratorService) generateCreateSchemasSQL(w *SQLWriter, schemas []*ir.Schema) {
	for _, schema := range byName(schemas, func(sc *ir.Schema) string { return sc.Name }) {
		// Skip creating the target schema if we're doing a schema-specific dump
		if schema.Name == s.targetSchema {
			continue
		}
		if sql := schema.GenerateSQL(); sql != "" {
			w.WriteDDLSeparator()
			w.WriteStatementWithComment("SCHEMA", schema.Name, "", "", sql, s.targetSchema)
		}
	}
}

// generateModifySchemasSQL generates ALTER SCHEMA statements
func (s *SQLGeneratorService) generateModifySchemasSQL(w *SQLWriter, diffs []*SchemaDiff) {
	for _, diff := range diffs {
		if diff.Old.Owner != diff.New.Owner {
			w.WriteDDLSeparator()
			sql := fmt.Sprintf("ALTER SCHEMA %s OWNER TO %s;", diff.New.Name, diff.New.Owner)
			w.WriteStatementWithComment("SCHEMA", diff.New.Name, "", "", sql, s.targetSchema)
		}
	}
}

// generateDropExtensionsSQL generates DROP EXTENSION statements. Extensions
// don't cascade on drop the way tables/types/views do: dropping one never
// implies dropping unrelated objects, only what the extension itself owns.
func (s *SQLGeneratorService) generateDropExtensionsSQL(w *SQLWriter, extensions []*ir.Extension) {
	for _, ext := range byName(extensions, func(e *ir.Extension) string { return e.Name }) {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP EXTENSION IF EXISTS %s;", ext.Name)
		w.WriteStatementWithComment("EXTENSION", ext.Name, ext.Schema, "", sql, s.targetSchema)
	}
}

// generateCreateExtensionsSQL generates CREATE EXTENSION statements
func (s *SQLGeneratorService) generateCreateExtensionsSQL(w *SQLWriter, extensions []*ir.Extension) {
	for _, ext := range byName(extensions, func(e *ir.Extension) string { return e.Name }) {
		w.WriteDDLSeparator()
		w.WriteStatementWithComment("EXTENSION", ext.Name, ext.Schema, "", ext.GenerateSQL(), s.targetSchema)
	}
}

// generateDropTypesSQL generates DROP TYPE statements
func (s *SQLGeneratorService) generateDropTypesSQL(w *SQLWriter, types []*ir.Type) {
	bySchema := make(map[string]string, len(types))
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
		bySchema[t.Name] = t.Schema
	}
	s.emitDropStatements(w, "TYPE", "TYPE", names, func(name string) string { return bySchema[name] })
}

// generateCreateTypesSQL generates CREATE TYPE statements, with domains
// sorted after all other type kinds (domains may reference the types being
// created alongside them).
func (s *SQLGeneratorService) generateCreateTypesSQL(w *SQLWriter, types []*ir.Type) {
	sortedTypes := byName(types, func(t *ir.Type) string { return t.Name })
	sort.SliceStable(sortedTypes, func(i, j int) bool {
		iIsDomain := sortedTypes[i].Kind == ir.TypeKindDomain
		jIsDomain := sortedTypes[j].Kind == ir.TypeKindDomain
		return iIsDomain != jIsDomain && !iIsDomain
	})

	for _, typeObj := range sortedTypes {
		w.WriteDDLSeparator()
		sql := typeObj.GenerateSQLWithOptions(false, s.targetSchema)

		objectType := "TYPE"
		if typeObj.Kind == ir.TypeKindDomain {
			objectType = "DOMAIN"
		}

		w.WriteStatementWithComment(objectType, typeObj.Name, typeObj.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyTypesSQL writes, for each enum-to-enum type change, a
// placeholder SQL comment in place of ALTER TYPE ... ADD VALUE statements;
// other type changes produce no output.
func (s *SQLGeneratorService) generateModifyTypesSQL(w *SQLWriter, diffs []*TypeDiff) {
	for _, diff := range diffs {
		// Only enums gain values in place; other kind changes require a rebuild.
		if diff.Old.Kind == ir.TypeKindEnum && diff.New.Kind == ir.TypeKindEnum {
			w.WriteDDLSeparator()
			sql := fmt.Sprintf("-- ALTER TYPE %s ADD VALUE statements would go here", diff.New.Name)
			w.WriteStatementWithComment("TYPE", diff.New.Name, diff.New.Schema, "", sql, s.targetSchema)
		}
	}
}

// generateDropTablesSQL generates DROP TABLE statements
func (s *SQLGeneratorService) generateDropTablesSQL(w *SQLWriter, tables []*ir.Table) {
	bySchema := make(map[string]string, len(tables))
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
		bySchema[t.Name] = t.Schema
	}
	s.emitDropStatements(w, "TABLE", "TABLE", names, func(name string) string { return bySchema[name] })
}

// generateCreateTablesSQL generates CREATE TABLE statements
func (s *SQLGeneratorService) generateCreateTablesSQL(w *SQLWriter, tables []*ir.Table) {
	for _, table := range byName(tables, func(t *ir.Table) string { return t.Name }) {
		w.WriteDDLSeparator()
		sql := table.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("TABLE", table.Name, table.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyTablesSQL generates ALTER TABLE statements
func (s *SQLGeneratorService) generateModifyTablesSQL(w *SQLWriter, diffs []*TableDiff) {
	for _, diff := range diffs {
		statements := diff.GenerateMigrationSQL()
		for _, stmt := range statements {
			w.WriteDDLSeparator()
			w.WriteStatementWithComment("TABLE", diff.Table.Name, diff.Table.Schema, "", stmt, s.targetSchema)
		}
	}
}

// generateDropViewsSQL generates DROP VIEW statements
func (s *SQLGeneratorService) generateDropViewsSQL(w *SQLWriter, views []*ir.View) {
	bySchema := make(map[string]string, len(views))
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
		bySchema[v.Name] = v.Schema
	}
	s.emitDropStatements(w, "VIEW", "VIEW", names, func(name string) string { return bySchema[name] })
}

// generateCreateViewsSQL generates CREATE VIEW statements
func (s *SQLGeneratorService) generateCreateViewsSQL(w *SQLWriter, views []*ir.View) {
	for _, view := range byName(views, func(v *ir.View) string { return v.Name }) {
		w.WriteDDLSeparator()
		sql := view.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("VIEW", view.Name, view.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyViewsSQL generates ALTER VIEW statements
func (s *SQLGeneratorService) generateModifyViewsSQL(w *SQLWriter, diffs []*ViewDiff) {
	for _, diff := range diffs {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s;", diff.New.Name, diff.New.Definition)
		w.WriteStatementWithComment("VIEW", diff.New.Name, diff.New.Schema, "", sql, s.targetSchema)
	}
}

// generateDropFunctionsSQL generates DROP FUNCTION statements
func (s *SQLGeneratorService) generateDropFunctionsSQL(w *SQLWriter, functions []*ir.Function) {
	for _, function := range byName(functions, func(f *ir.Function) string { return f.Name }) {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP FUNCTION IF EXISTS %s(%s) CASCADE;", function.Name, function.Arguments)
		w.WriteStatementWithComment("FUNCTION", function.Name, function.Schema, "", sql, s.targetSchema)
	}
}

// generateCreateFunctionsSQL generates CREATE FUNCTION statements
func (s *SQLGeneratorService) generateCreateFunctionsSQL(w *SQLWriter, functions []*ir.Function) {
	for _, function := range byName(functions, func(f *ir.Function) string { return f.Name }) {
		w.WriteDDLSeparator()
		sql := function.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("FUNCTION", function.Name, function.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyFunctionsSQL generates CREATE OR REPLACE FUNCTION statements
func (s *SQLGeneratorService) generateModifyFunctionsSQL(w *SQLWriter, diffs []*FunctionDiff) {
	for _, diff := range diffs {
		w.WriteDDLSeparator()
		sql := diff.New.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("FUNCTION", diff.New.Name, diff.New.Schema, "", sql, s.targetSchema)
	}
}

// generateDropIndexesSQL generates DROP INDEX statements
func (s *SQLGeneratorService) generateDropIndexesSQL(w *SQLWriter, indexes []*ir.Index) {
	for _, index := range byName(indexes, func(i *ir.Index) string { return i.Name }) {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP INDEX IF EXISTS %s;", index.Name)
		w.WriteStatementWithComment("INDEX", index.Name, index.Schema, "", sql, s.targetSchema)
	}
}

// generateCreateIndexesSQL generates CREATE INDEX statements; primary key
// indexes are skipped since those are emitted alongside their constraint.
func (s *SQLGeneratorService) generateCreateIndexesSQL(w *SQLWriter, indexes []*ir.Index) {
	for _, index := range byName(indexes, func(i *ir.Index) string { return i.Name }) {
		if index.IsPrimary {
			continue
		}

		w.WriteDDLSeparator()
		sql := index.Definition
		if !strings.HasSuffix(sql, ";") {
			sql += ";"
		}
		w.WriteStatementWithComment("INDEX", index.Name, index.Schema, "", sql, s.targetSchema)
	}
}

// generateDropTriggersSQL generates DROP TRIGGER statements
func (s *SQLGeneratorService) generateDropTriggersSQL(w *SQLWriter, triggers []*ir.Trigger) {
	for _, trigger := range byName(triggers, func(t *ir.Trigger) string { return t.Name }) {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;", trigger.Name, trigger.Table)
		w.WriteStatementWithComment("TRIGGER", trigger.Name, trigger.Schema, "", sql, s.targetSchema)
	}
}

// generateCreateTriggersSQL generates CREATE TRIGGER statements
func (s *SQLGeneratorService) generateCreateTriggersSQL(w *SQLWriter, triggers []*ir.Trigger) {
	for _, trigger := range byName(triggers, func(t *ir.Trigger) string { return t.Name }) {
		w.WriteDDLSeparator()
		sql := trigger.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("TRIGGER", trigger.Name, trigger.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyTriggersSQL generates ALTER TRIGGER statements
func (s *SQLGeneratorService) generateModifyTriggersSQL(w *SQLWriter, diffs []*TriggerDiff) {
	for _, diff := range diffs {
		w.WriteDDLSeparator()
		sql := diff.New.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("TRIGGER", diff.New.Name, diff.New.Schema, "", sql, s.targetSchema)
	}
}

// generateDropPoliciesSQL generates DROP POLICY statements
func (s *SQLGeneratorService) generateDropPoliciesSQL(w *SQLWriter, policies []*ir.RLSPolicy) {
	for _, policy := range byName(policies, func(p *ir.RLSPolicy) string { return p.Name }) {
		w.WriteDDLSeparator()
		sql := fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s;", policy.Name, policy.Table)
		w.WriteStatementWithComment("POLICY", policy.Name, policy.Schema, "", sql, s.targetSchema)
	}
}

// generateCreatePoliciesSQL generates CREATE POLICY statements
func (s *SQLGeneratorService) generateCreatePoliciesSQL(w *SQLWriter, policies []*ir.RLSPolicy) {
	for _, policy := range byName(policies, func(p *ir.RLSPolicy) string { return p.Name }) {
		w.WriteDDLSeparator()
		sql := policy.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("POLICY", policy.Name, policy.Schema, "", sql, s.targetSchema)
	}
}

// generateModifyPoliciesSQL generates ALTER POLICY statements
func (s *SQLGeneratorService) generateModifyPoliciesSQL(w *SQLWriter, diffs []*PolicyDiff) {
	for _, diff := range diffs {
		w.WriteDDLSeparator()
		sql := diff.New.GenerateSQLWithOptions(false, s.targetSchema)
		w.WriteStatementWithComment("POLICY", diff.New.Name, diff.New.Schema, "", sql, s.targetSchema)
	}
}

// generateRLSChangesSQL generates ENABLE/DISABLE ROW LEVEL SECURITY statements
func (s *SQLGeneratorService) generateRLSChangesSQL(w *SQLWriter, changes []*RLSChange) {
	for _, change := range changes {
		w.WriteDDLSeparator()
		action := "DISABLE"
		if change.Enabled {
			action = "ENABLE"
		}
		sql := fmt.Sprintf("ALTER TABLE %s %s ROW LEVEL SECURITY;", change.Table.Name, action)
		w.WriteStatementWithComment("TABLE", change.Table.Name, change.Table.Schema, "", sql, s.targetSchema)
	}
}