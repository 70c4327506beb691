package queries

import "database/sql"

type TableRow struct {
	TableSchema  string
	TableName    string
	TableType    string
	TableComment sql.NullString
}

type ColumnRow struct {
	TableSchema            string
	TableName              string
	ColumnName             string
	ColumnComment          sql.NullString
	ResolvedType           string
	OrdinalPosition         int
	IsNullable              string
	Attgenerated            string
	GeneratedExpr           sql.NullString
	ColumnDefault           sql.NullString
	CharacterMaximumLength  sql.NullInt64
	NumericPrecision        sql.NullInt64
	NumericScale            sql.NullInt64
	IsIdentity              string
	IdentityGeneration      string
	IdentityCycle           string
	IdentityStart           sql.NullInt64
	IdentityIncrement       sql.NullInt64
	IdentityMaximum         sql.NullInt64
	IdentityMinimum         sql.NullInt64
}

type PartitionedTableRow struct {
	TableSchema       string
	TableName         string
	PartitionStrategy sql.NullString
	PartitionKey      sql.NullString
}

type PartitionChildRow struct {
	ChildSchema string
	ChildTable  string
	ParentTable string
}

type ConstraintRow struct {
	TableSchema             string
	TableName               string
	ConstraintName          string
	ConstraintType          sql.NullString
	ColumnName              sql.NullString
	ForeignTableSchema      sql.NullString
	ForeignTableName        sql.NullString
	ForeignColumnName       sql.NullString
	ForeignOrdinalPosition  sql.NullInt32
	DeleteRule              sql.NullString
	UpdateRule              sql.NullString
	Deferrable              bool
	InitiallyDeferred       bool
	CheckClause             sql.NullString
	IsValid                 bool
}

type IndexRow struct {
	Schemaname       string
	Tablename        string
	Indexname        string
	IsUnique         bool
	IsPrimary        bool
	IsPartial        sql.NullBool
	HasExpressions   sql.NullBool
	Method           string
	IndexComment     sql.NullString
	PartialPredicate sql.NullString
	ColumnDefinitions []string
	ColumnDirections  []string
	ColumnOpclasses   []string
}

type SequenceRow struct {
	SequenceSchema sql.NullString
	SequenceName   sql.NullString
	DataType       string
	StartValue     sql.NullInt64
	MinimumValue   sql.NullInt64
	MaximumValue   sql.NullInt64
	Increment      sql.NullInt64
	CycleOption    sql.NullBool
	CacheSize      sql.NullInt64
	OwnedByTable   sql.NullString
	OwnedByColumn  sql.NullString
}

type FunctionRow struct {
	RoutineSchema     string
	RoutineName       string
	FunctionComment   sql.NullString
	FunctionSignature string
	RoutineDefinition string
	DataType          string
	ExternalLanguage  string
	Volatility        string
	IsStrict          bool
	IsSecurityDefiner bool
	IsLeakproof       bool
	ParallelMode      string
	SearchPath        sql.NullString
}

type ProcedureRow struct {
	RoutineSchema      string
	RoutineName        string
	ProcedureComment   sql.NullString
	ProcedureSignature string
	RoutineDefinition  string
	ExternalLanguage   string
}

type AggregateRow struct {
	AggregateSchema          string
	AggregateName            string
	AggregateComment         sql.NullString
	AggregateReturnType      string
	TransitionFunction       string
	TransitionFunctionSchema string
	StateType                string
	InitialCondition         string
	FinalFunction            string
	FinalFunctionSchema      string
}

type ViewRow struct {
	TableSchema    string
	TableName      string
	ViewComment    sql.NullString
	ViewDefinition sql.NullString
	IsMaterialized sql.NullBool
}

type TriggerRow struct {
	TriggerSchema        string
	TriggerName          string
	EventObjectTable     string
	TriggerType          int16
	TriggerDefinition    sql.NullString
	FunctionSchema       string
	FunctionName         string
	OldTable             sql.NullString
	NewTable             sql.NullString
	TriggerComment       sql.NullString
	TriggerConstraintOid interface{}
	TriggerDeferrable    bool
	TriggerInitdeferred  bool
}

type RLSTableRow struct {
	Schemaname string
	Tablename  string
	Rowforced  bool
}

type RLSPolicyRow struct {
	Schemaname sql.NullString
	Tablename  sql.NullString
	Policyname sql.NullString
	Cmd        sql.NullString
	Permissive sql.NullString
	Roles      []string
	Qual       sql.NullString
	WithCheck  sql.NullString
}

type TypeRow struct {
	TypeSchema  string
	TypeName    string
	TypeKind    sql.NullString
	TypeComment sql.NullString
}

type DomainRow struct {
	DomainSchema  string
	DomainName    string
	BaseType      string
	NotNull       bool
	DefaultValue  sql.NullString
	DomainComment sql.NullString
}

type DomainConstraintRow struct {
	DomainSchema         string
	DomainName           string
	ConstraintName       string
	ConstraintDefinition string
}

type EnumValueRow struct {
	TypeSchema string
	TypeName   string
	EnumValue  string
}

type CompositeTypeColumnRow struct {
	TypeSchema     string
	TypeName       string
	ColumnName     string
	ColumnType     sql.NullString
	ColumnPosition int
}

type DefaultPrivilegeRow struct {
	OwnerRole     sql.NullString
	ObjectType    sql.NullString
	Grantee       sql.NullString
	PrivilegeType sql.NullString
	IsGrantable   sql.NullBool
}
