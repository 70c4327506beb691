package diff

import "github.com/pgdeclare/pgdeclare/ir"

// SQLCollector accumulates the ordered PlanSteps needed to recreate an
// entire schema from scratch, for consumption by the dump command.
type SQLCollector struct {
	steps []PlanStep
}

// NewSQLCollector creates an empty SQLCollector.
func NewSQLCollector() *SQLCollector {
	return &SQLCollector{steps: []PlanStep{}}
}

// GetSteps returns the collected steps in dependency order.
func (c *SQLCollector) GetSteps() []PlanStep {
	return c.steps
}

// add appends the statements of a single Diff as PlanSteps.
func (c *SQLCollector) add(d Diff) {
	objectType := diffTypeToObjectType(d.Type)
	for _, stmt := range d.Statements {
		c.steps = append(c.steps, PlanStep{
			SQL:          stmt.SQL,
			ObjectType:   objectType,
			Operation:    d.Operation.String(),
			ObjectPath:   d.Path,
			SourceChange: d.Source,
		})
	}
}

// CollectDumpSQL generates CREATE statements for every object in schemaIR,
// in dependency order, by diffing against an empty schema, and appends the
// resulting steps to collector.
func CollectDumpSQL(schemaIR *ir.IR, targetSchema string, collector *SQLCollector) {
	diffs := GenerateMigration(ir.NewIR(), schemaIR, targetSchema)
	for _, d := range diffs {
		collector.add(d)
	}
}

// diffTypeToObjectType maps a DiffType to the coarse object-type taxonomy
// the dump command uses to group generated files (table/view/index/...).
func diffTypeToObjectType(t DiffType) string {
	switch t {
	case DiffTypeTable, DiffTypeTableRLS, DiffTypeTableColumn:
		return "TABLE"
	case DiffTypeTableIndex, DiffTypeMaterializedViewIndex:
		return "INDEX"
	case DiffTypeTableTrigger, DiffTypeViewTrigger:
		return "TRIGGER"
	case DiffTypeTablePolicy:
		return "POLICY"
	case DiffTypeTableConstraint:
		return "CONSTRAINT"
	case DiffTypeTableComment, DiffTypeTableColumnComment, DiffTypeTableIndexComment,
		DiffTypeViewComment, DiffTypeMaterializedViewComment, DiffTypeMaterializedViewIndexComment,
		DiffTypeComment:
		return "COMMENT"
	case DiffTypeView:
		return "VIEW"
	case DiffTypeMaterializedView:
		return "MATERIALIZED VIEW"
	case DiffTypeFunction:
		return "FUNCTION"
	case DiffTypeProcedure:
		return "PROCEDURE"
	case DiffTypeSequence:
		return "SEQUENCE"
	case DiffTypeType:
		return "TYPE"
	case DiffTypeDomain:
		return "DOMAIN"
	case DiffTypeDefaultPrivilege, DiffTypePrivilege, DiffTypeColumnPrivilege, DiffTypeRevokedDefaultPrivilege:
		return "PRIVILEGE"
	case DiffTypeExtension:
		return "EXTENSION"
	case DiffTypeRule:
		return "RULE"
	case DiffTypeCollation:
		return "COLLATION"
	case DiffTypeEventTrigger:
		return "EVENT TRIGGER"
	case DiffTypeRole:
		return "ROLE"
	case DiffTypeTablespace:
		return "TABLESPACE"
	case DiffTypePublication:
		return "PUBLICATION"
	case DiffTypeSubscription:
		return "SUBSCRIPTION"
	case DiffTypeForeignDataWrapper:
		return "FOREIGN DATA WRAPPER"
	case DiffTypeForeignServer:
		return "FOREIGN SERVER"
	case DiffTypeForeignTable:
		return "FOREIGN TABLE"
	default:
		return "UNKNOWN"
	}
}
