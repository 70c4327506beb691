package ir

import (
	"strings"
	"sync"
)

// IR represents the complete database schema intermediate representation
type IR struct {
	Metadata Metadata           `json:"metadata"`
	Schemas  map[string]*Schema `json:"schemas"` // schema_name -> Schema

	// Cluster-wide entities: not namespaced by schema (spec.md §3 "structurally
	// parallel" entities), so they live on the IR rather than on a Schema.
	Roles                map[string]*Role                `json:"roles,omitempty"`
	Tablespaces          map[string]*Tablespace           `json:"tablespaces,omitempty"`
	EventTriggers        map[string]*EventTrigger         `json:"event_triggers,omitempty"`
	Publications         map[string]*Publication          `json:"publications,omitempty"`
	Subscriptions        map[string]*Subscription         `json:"subscriptions,omitempty"`
	ForeignDataWrappers  map[string]*ForeignDataWrapper    `json:"foreign_data_wrappers,omitempty"`
	ForeignServers       map[string]*ForeignServer         `json:"foreign_servers,omitempty"`

	mu sync.RWMutex // Protects concurrent access to Schemas
}

// Metadata contains information about the schema dump
type Metadata struct {
	DatabaseVersion string `json:"database_version"`
}

// Schema represents a single database schema (namespace)
type Schema struct {
	Name  string `json:"name"`
	Owner string `json:"owner"` // Schema owner
	// Note: Indexes, Triggers, and RLS Policies are stored at table level (Table.Indexes, Table.Triggers, Table.Policies)
	Tables            map[string]*Table     `json:"tables"`                       // table_name -> Table
	Views             map[string]*View      `json:"views"`                        // view_name -> View
	Functions         map[string]*Function  `json:"functions"`                    // function_name -> Function
	Procedures        map[string]*Procedure `json:"procedures"`                   // procedure_name -> Procedure
	Aggregates        map[string]*Aggregate `json:"aggregates"`                   // aggregate_name -> Aggregate
	Sequences         map[string]*Sequence  `json:"sequences"`                    // sequence_name -> Sequence
	Types             map[string]*Type      `json:"types"`                        // type_name -> Type
	Extensions        map[string]*Extension `json:"extensions,omitempty"`         // extension_name -> Extension
	DefaultPrivileges []*DefaultPrivilege   `json:"default_privileges,omitempty"` // Default privileges for future objects
	Privileges        []*Privilege          `json:"privileges,omitempty"`         // Direct GRANTs on objects in this schema
	ColumnPrivileges  []*ColumnPrivilege    `json:"column_privileges,omitempty"`  // Column-level GRANTs on tables in this schema
	RevokedDefaultPrivileges []*RevokedDefaultPrivilege `json:"revoked_default_privileges,omitempty"` // Explicit REVOKEs overriding implicit default grants
	Rules              map[string]*Rule              `json:"rules,omitempty"`               // "table.rule_name" -> Rule
	Collations         map[string]*Collation         `json:"collations,omitempty"`          // collation_name -> Collation
	ForeignTables      map[string]*ForeignTable      `json:"foreign_tables,omitempty"`      // table_name -> ForeignTable
	mu                sync.RWMutex          // Protects concurrent access to all maps
}

// Cluster-wide (non-schema-scoped) entities live directly on the IR, since
// PostgreSQL roles, tablespaces, event triggers, publications, subscriptions,
// foreign servers, and foreign-data wrappers are not namespaced by schema.

// LikeClause represents a LIKE clause in CREATE TABLE statement
type LikeClause struct {
	SourceSchema string `json:"source_schema"`
	SourceTable  string `json:"source_table"`
	Options      string `json:"options"` // e.g., "INCLUDING ALL" or "INCLUDING DEFAULTS EXCLUDING INDEXES"
}

// Table represents a database table
type Table struct {
	Schema            string                 `json:"schema"`
	Name              string                 `json:"name"`
	Type              TableType              `json:"type"` // BASE_TABLE, VIEW, etc.
	IsExternal        bool                   `json:"is_external,omitempty"` // True if table is externally managed (e.g., in ignored schemas)
	Columns           []*Column              `json:"columns"`
	Constraints       map[string]*Constraint `json:"constraints"` // constraint_name -> Constraint
	Indexes           map[string]*Index      `json:"indexes"`     // index_name -> Index
	Triggers          map[string]*Trigger    `json:"triggers"`    // trigger_name -> Trigger
	RLSEnabled        bool                   `json:"rls_enabled"`
	RLSForced         bool                   `json:"rls_forced"`
	Policies          map[string]*RLSPolicy  `json:"policies"` // policy_name -> RLSPolicy
	Dependencies      []TableDependency      `json:"dependencies"`
	Comment           string                 `json:"comment,omitempty"`
	IsPartitioned     bool                   `json:"is_partitioned"`
	PartitionStrategy string                 `json:"partition_strategy,omitempty"` // RANGE, LIST, HASH
	PartitionKey      string                 `json:"partition_key,omitempty"`      // Column(s) used for partitioning
	LikeClauses       []LikeClause           `json:"like_clauses,omitempty"`       // LIKE clauses in CREATE TABLE
}

// Column represents a table column
type Column struct {
	Name           string    `json:"name"`
	Position       int       `json:"position"` // ordinal_position
	DataType       string    `json:"data_type"`
	IsNullable     bool      `json:"is_nullable"`
	DefaultValue   *string   `json:"default_value,omitempty"`
	MaxLength      *int      `json:"max_length,omitempty"`
	Precision      *int      `json:"precision,omitempty"`
	Scale          *int      `json:"scale,omitempty"`
	Comment        string    `json:"comment,omitempty"`
	Identity       *Identity `json:"identity,omitempty"`
	GeneratedExpr  *string   `json:"generated_expr,omitempty"`  // Expression for generated columns
	IsGenerated    bool      `json:"is_generated,omitempty"`    // True if this is a generated column
}

// Identity represents PostgreSQL identity column configuration
type Identity struct {
	Generation string `json:"generation,omitempty"` // "ALWAYS" or "BY DEFAULT"
	Start      *int64 `json:"start,omitempty"`
	Increment  *int64 `json:"increment,omitempty"`
	Maximum    *int64 `json:"maximum,omitempty"`
	Minimum    *int64 `json:"minimum,omitempty"`
	Cycle      bool   `json:"cycle,omitempty"`
}

// TableType represents different types of table objects
type TableType string

const (
	TableTypeBase TableType = "BASE_TABLE"
	TableTypeView TableType = "VIEW"
	TableTypeTemp TableType = "TEMPORARY"
)

// DependencyType represents different types of database object dependencies
type DependencyType string

const (
	DependencyTypeTable    DependencyType = "TABLE"
	DependencyTypeView     DependencyType = "VIEW"
	DependencyTypeFunction DependencyType = "FUNCTION"
	DependencyTypeSequence DependencyType = "SEQUENCE"
)

// TableDependency represents a dependency between database objects
type TableDependency struct {
	Schema string         `json:"schema"`
	Name   string         `json:"name"`
	Type   DependencyType `json:"type"`
}

// View represents a database view
type View struct {
	Schema       string            `json:"schema"`
	Name         string            `json:"name"`
	Definition   string            `json:"definition"`
	Comment      string            `json:"comment,omitempty"`
	Materialized bool              `json:"materialized,omitempty"`
	Indexes      map[string]*Index `json:"indexes,omitempty"` // For materialized views only
}

// Function represents a database function
type Function struct {
	Schema            string       `json:"schema"`
	Name              string       `json:"name"`
	Definition        string       `json:"definition"`
	ReturnType        string       `json:"return_type"`
	Language          string       `json:"language"`
	Parameters        []*Parameter `json:"parameters,omitempty"`
	Comment           string       `json:"comment,omitempty"`
	Volatility        string       `json:"volatility,omitempty"`          // IMMUTABLE, STABLE, VOLATILE
	IsStrict          bool         `json:"is_strict,omitempty"`           // STRICT or null behavior
	IsSecurityDefiner bool         `json:"is_security_definer,omitempty"` // SECURITY DEFINER
	IsLeakproof       bool         `json:"is_leakproof,omitempty"`        // LEAKPROOF
	Parallel          string       `json:"parallel,omitempty"`            // SAFE, UNSAFE, RESTRICTED
	SearchPath        string       `json:"search_path,omitempty"`         // SET search_path value
}

// GetArguments returns the function arguments string (types only) for function identification.
// This is built dynamically from the Parameters array to ensure it uses normalized types.
// Per PostgreSQL DROP FUNCTION syntax, only input parameters are included (IN, INOUT, VARIADIC).
func (f *Function) GetArguments() string {
	if len(f.Parameters) == 0 {
		return ""
	}

	var argTypes []string
	for _, param := range f.Parameters {
		// Include only input parameter modes for DROP FUNCTION compatibility
		// Exclude OUT and TABLE mode parameters (they're part of return signature)
		if param.Mode == "" || param.Mode == "IN" || param.Mode == "INOUT" || param.Mode == "VARIADIC" {
			argTypes = append(argTypes, param.DataType)
		}
	}

	return strings.Join(argTypes, ", ")
}

// Parameter represents a function parameter
type Parameter struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	Mode         string  `json:"mode"` // IN, OUT, INOUT
	Position     int     `json:"position"`
	DefaultValue *string `json:"default_value,omitempty"`
}

// Sequence represents a database sequence
type Sequence struct {
	Schema        string `json:"schema"`
	Name          string `json:"name"`
	DataType      string `json:"data_type"`
	StartValue    int64  `json:"start_value"`
	MinValue      *int64 `json:"min_value,omitempty"`
	MaxValue      *int64 `json:"max_value,omitempty"`
	Increment     int64  `json:"increment"`
	CycleOption   bool   `json:"cycle_option"`
	Cache         *int64 `json:"cache,omitempty"`
	OwnedByTable  string `json:"owned_by_table,omitempty"`
	OwnedByColumn string `json:"owned_by_column,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// Constraint represents a table constraint
type Constraint struct {
	Schema            string              `json:"schema"`
	Table             string              `json:"table"`
	Name              string              `json:"name"`
	Type              ConstraintType      `json:"type"`
	Columns           []*ConstraintColumn `json:"columns"`
	ReferencedSchema  string              `json:"referenced_schema,omitempty"`
	ReferencedTable   string              `json:"referenced_table,omitempty"`
	ReferencedColumns []*ConstraintColumn `json:"referenced_columns,omitempty"`
	CheckClause       string              `json:"check_clause,omitempty"`
	DeleteRule        string              `json:"delete_rule,omitempty"`
	UpdateRule        string              `json:"update_rule,omitempty"`
	Deferrable        bool                `json:"deferrable,omitempty"`
	InitiallyDeferred bool                `json:"initially_deferred,omitempty"`
	IsValid           bool                `json:"is_valid,omitempty"`
	Comment           string              `json:"comment,omitempty"`
}

// ConstraintColumn represents a column within a constraint with its position
type ConstraintColumn struct {
	Name     string `json:"name"`
	Position int    `json:"position"` // ordinal_position within the constraint
}

// ConstraintType represents different types of database constraints
type ConstraintType string

const (
	ConstraintTypePrimaryKey ConstraintType = "PRIMARY_KEY"
	ConstraintTypeUnique     ConstraintType = "UNIQUE"
	ConstraintTypeForeignKey ConstraintType = "FOREIGN_KEY"
	ConstraintTypeCheck      ConstraintType = "CHECK"
	ConstraintTypeExclusion  ConstraintType = "EXCLUSION"
)

// Index represents a database index
type Index struct {
	Schema       string         `json:"schema"`
	Table        string         `json:"table"`
	Name         string         `json:"name"`
	Type         IndexType      `json:"type"`
	Method       string         `json:"method"` // btree, hash, gin, gist, etc.
	Columns      []*IndexColumn `json:"columns"`
	IsPartial    bool           `json:"is_partial"`      // has a WHERE clause
	IsExpression bool           `json:"is_expression"`   // functional/expression index
	Where        string         `json:"where,omitempty"` // partial index condition
	Comment      string         `json:"comment,omitempty"`
}

// IndexColumn represents a column within an index
type IndexColumn struct {
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Direction string `json:"direction,omitempty"` // ASC, DESC
	Operator  string `json:"operator,omitempty"`  // operator class
}

// IndexType represents different types of database indexes
type IndexType string

const (
	IndexTypeRegular IndexType = "REGULAR"
	IndexTypePrimary IndexType = "PRIMARY"
	IndexTypeUnique  IndexType = "UNIQUE"
)

// Trigger represents a database trigger
type Trigger struct {
	Schema            string         `json:"schema"`
	Table             string         `json:"table"`
	Name              string         `json:"name"`
	Timing            TriggerTiming  `json:"timing"` // BEFORE, AFTER, INSTEAD OF
	Events            []TriggerEvent `json:"events"` // INSERT, UPDATE, DELETE
	Level             TriggerLevel   `json:"level"`  // ROW, STATEMENT
	Function          string         `json:"function"`
	Condition         string         `json:"condition,omitempty"` // WHEN condition
	Comment           string         `json:"comment,omitempty"`
	IsConstraint      bool           `json:"is_constraint,omitempty"`       // Whether this is a constraint trigger
	Deferrable        bool           `json:"deferrable,omitempty"`          // Can be deferred until end of transaction
	InitiallyDeferred bool           `json:"initially_deferred,omitempty"`  // Whether deferred by default
	OldTable          string         `json:"old_table,omitempty"`           // REFERENCING OLD TABLE AS name
	NewTable          string         `json:"new_table,omitempty"`           // REFERENCING NEW TABLE AS name
}

// TriggerTiming represents the timing of trigger execution
type TriggerTiming string

const (
	TriggerTimingBefore    TriggerTiming = "BEFORE"
	TriggerTimingAfter     TriggerTiming = "AFTER"
	TriggerTimingInsteadOf TriggerTiming = "INSTEAD_OF"
)

// TriggerEvent represents the event that triggers the trigger
type TriggerEvent string

const (
	TriggerEventInsert   TriggerEvent = "INSERT"
	TriggerEventUpdate   TriggerEvent = "UPDATE"
	TriggerEventDelete   TriggerEvent = "DELETE"
	TriggerEventTruncate TriggerEvent = "TRUNCATE"
)

// TriggerLevel represents the level at which the trigger fires
type TriggerLevel string

const (
	TriggerLevelRow       TriggerLevel = "ROW"
	TriggerLevelStatement TriggerLevel = "STATEMENT"
)


// RLSPolicy represents a Row Level Security policy
type RLSPolicy struct {
	Schema     string        `json:"schema"`
	Table      string        `json:"table"`
	Name       string        `json:"name"`
	Command    PolicyCommand `json:"command"` // SELECT, INSERT, UPDATE, DELETE, ALL
	Permissive bool          `json:"permissive"`
	Roles      []string      `json:"roles,omitempty"`
	Using      string        `json:"using,omitempty"`      // USING expression
	WithCheck  string        `json:"with_check,omitempty"` // WITH CHECK expression
	Comment    string        `json:"comment,omitempty"`
}

// PolicyCommand represents the command for which the policy applies
type PolicyCommand string

const (
	PolicyCommandAll    PolicyCommand = "ALL"
	PolicyCommandSelect PolicyCommand = "SELECT"
	PolicyCommandInsert PolicyCommand = "INSERT"
	PolicyCommandUpdate PolicyCommand = "UPDATE"
	PolicyCommandDelete PolicyCommand = "DELETE"
)

// TypeKind represents the kind of PostgreSQL type
type TypeKind string

const (
	TypeKindEnum       TypeKind = "ENUM"
	TypeKindComposite  TypeKind = "COMPOSITE"
	TypeKindDomain     TypeKind = "DOMAIN"
	TypeKindRange      TypeKind = "RANGE"
	TypeKindMultirange TypeKind = "MULTIRANGE"
	TypeKindBase       TypeKind = "BASE"
)

// TypeColumn represents a column in a composite type
type TypeColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Position int    `json:"position"`
}

// DomainConstraint represents a constraint on a domain
type DomainConstraint struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Type represents a PostgreSQL user-defined type
type Type struct {
	Schema      string              `json:"schema"`
	Name        string              `json:"name"`
	Kind        TypeKind            `json:"kind"`
	Comment     string              `json:"comment,omitempty"`
	EnumValues  []string            `json:"enum_values,omitempty"` // For ENUM types
	Columns     []*TypeColumn       `json:"columns,omitempty"`     // For composite types
	BaseType    string              `json:"base_type,omitempty"`   // For DOMAIN types
	NotNull     bool                `json:"not_null,omitempty"`    // For DOMAIN types
	Default     string              `json:"default,omitempty"`     // For DOMAIN types
	Constraints []*DomainConstraint `json:"constraints,omitempty"` // For DOMAIN types

	// RANGE type attributes (spec.md §3: "subtype + collation + subtype-diff + canonical")
	RangeSubtype     string `json:"range_subtype,omitempty"`
	RangeCollation   string `json:"range_collation,omitempty"`
	RangeSubtypeDiff string `json:"range_subtype_diff,omitempty"`
	RangeCanonical   string `json:"range_canonical,omitempty"`

	// MULTIRANGE type attributes (spec.md §3: "range type")
	MultirangeOf string `json:"multirange_of,omitempty"`

	// BASE type attributes (spec.md §3: internal-length, alignment, storage,
	// category, element, delimiter, collatable)
	BaseInternalLength int    `json:"base_internal_length,omitempty"`
	BaseAlignment      string `json:"base_alignment,omitempty"`
	BaseStorage        string `json:"base_storage,omitempty"`
	BaseCategory       string `json:"base_category,omitempty"`
	BaseInputFunc      string `json:"base_input_func,omitempty"`
	BaseOutputFunc     string `json:"base_output_func,omitempty"`
	BaseElement        string `json:"base_element,omitempty"`
	BaseDelimiter      string `json:"base_delimiter,omitempty"`
	BaseCollatable     bool   `json:"base_collatable,omitempty"`
}

// Aggregate represents a database aggregate function
type Aggregate struct {
	Schema                   string `json:"schema"`
	Name                     string `json:"name"`
	ReturnType               string `json:"return_type"`
	TransitionFunction       string `json:"transition_function"`
	TransitionFunctionSchema string `json:"transition_function_schema,omitempty"`
	StateType                string `json:"state_type"`
	InitialCondition         string `json:"initial_condition,omitempty"`
	FinalFunction            string `json:"final_function,omitempty"`
	FinalFunctionSchema      string `json:"final_function_schema,omitempty"`
	Comment                  string `json:"comment,omitempty"`
}

// Procedure represents a database procedure
type Procedure struct {
	Schema     string       `json:"schema"`
	Name       string       `json:"name"`
	Definition string       `json:"definition"`
	Language   string       `json:"language"`
	Parameters []*Parameter `json:"parameters,omitempty"`
	Comment    string       `json:"comment,omitempty"`
}

// GetArguments returns the procedure arguments string (types only) for procedure identification.
// This is built dynamically from the Parameters array to ensure it uses normalized types.
// Per PostgreSQL DROP PROCEDURE syntax, only input parameters are included (IN, INOUT, VARIADIC).
func (p *Procedure) GetArguments() string {
	if len(p.Parameters) == 0 {
		return ""
	}

	var argTypes []string
	for _, param := range p.Parameters {
		// Include only input parameter modes for DROP PROCEDURE compatibility
		// Exclude OUT and TABLE mode parameters (they're part of return signature)
		if param.Mode == "" || param.Mode == "IN" || param.Mode == "INOUT" || param.Mode == "VARIADIC" {
			argTypes = append(argTypes, param.DataType)
		}
	}

	return strings.Join(argTypes, ", ")
}

// DefaultPrivilegeObjectType represents the object type for default privileges
type DefaultPrivilegeObjectType string

const (
	DefaultPrivilegeObjectTypeTables    DefaultPrivilegeObjectType = "TABLES"
	DefaultPrivilegeObjectTypeSequences DefaultPrivilegeObjectType = "SEQUENCES"
	DefaultPrivilegeObjectTypeFunctions DefaultPrivilegeObjectType = "FUNCTIONS"
	DefaultPrivilegeObjectTypeTypes     DefaultPrivilegeObjectType = "TYPES"
)

// DefaultPrivilege represents an ALTER DEFAULT PRIVILEGES setting
type DefaultPrivilege struct {
	OwnerRole       string                     `json:"owner_role"`        // Role whose future objects this applies to
	ObjectType      DefaultPrivilegeObjectType `json:"object_type"`       // TABLES, SEQUENCES, FUNCTIONS, TYPES
	Grantee         string                     `json:"grantee"`           // Role name or "PUBLIC"
	Privileges      []string                   `json:"privileges"`        // SELECT, INSERT, UPDATE, etc.
	WithGrantOption bool                       `json:"with_grant_option"` // Can grantee grant to others?
}

// GetObjectName returns a unique identifier for the default privilege
func (d *DefaultPrivilege) GetObjectName() string {
	return d.OwnerRole + ":" + string(d.ObjectType) + ":" + d.Grantee
}

// PrivilegeObjectType represents the kind of object a GRANT/REVOKE targets
type PrivilegeObjectType string

const (
	PrivilegeObjectTypeTable     PrivilegeObjectType = "TABLE"
	PrivilegeObjectTypeView      PrivilegeObjectType = "VIEW"
	PrivilegeObjectTypeSequence  PrivilegeObjectType = "SEQUENCE"
	PrivilegeObjectTypeFunction  PrivilegeObjectType = "FUNCTION"
	PrivilegeObjectTypeProcedure PrivilegeObjectType = "PROCEDURE"
	PrivilegeObjectTypeType      PrivilegeObjectType = "TYPE"
)

// Privilege represents a GRANT of one or more privileges on an object to a grantee
type Privilege struct {
	ObjectType      PrivilegeObjectType `json:"object_type"`
	ObjectName      string              `json:"object_name"`
	Grantee         string              `json:"grantee"` // Role name or "PUBLIC"
	Privileges      []string            `json:"privileges"`
	WithGrantOption bool                `json:"with_grant_option"`
}

// GetObjectKey returns a unique identifier for the (object, grantee) pair,
// used to find the matching privilege across a diff regardless of grant
// option.
func (p *Privilege) GetObjectKey() string {
	return string(p.ObjectType) + ":" + p.ObjectName + ":" + p.Grantee
}

// GetFullKey returns a unique identifier that also distinguishes grant
// option, so that a grantee holding both a plain grant and a
// WITH GRANT OPTION grant on the same object (via different roles'
// defaults) do not collide.
func (p *Privilege) GetFullKey() string {
	if p.WithGrantOption {
		return p.GetObjectKey() + ":grantable"
	}
	return p.GetObjectKey() + ":plain"
}

// ColumnPrivilege represents a GRANT of privileges on specific columns of a table
type ColumnPrivilege struct {
	TableName       string   `json:"table_name"`
	Columns         []string `json:"columns"`
	Grantee         string   `json:"grantee"`
	Privileges      []string `json:"privileges"`
	WithGrantOption bool     `json:"with_grant_option"`
}

// GetObjectKey returns a unique identifier for the column privilege grant
func (c *ColumnPrivilege) GetObjectKey() string {
	return c.TableName + ":" + strings.Join(c.Columns, ",") + ":" + c.Grantee
}

// RevokedDefaultPrivilege represents an explicit REVOKE in ALTER DEFAULT
// PRIVILEGES, overriding the implicit default grants Postgres assigns to the
// object owner and (for some object types) PUBLIC.
type RevokedDefaultPrivilege struct {
	ObjectType PrivilegeObjectType `json:"object_type"`
	ObjectName string              `json:"object_name"`
	Grantee    string              `json:"grantee"`
	Privileges []string            `json:"privileges"`
}

// GetObjectKey returns a unique identifier for the revoked default privilege
func (r *RevokedDefaultPrivilege) GetObjectKey() string {
	return string(r.ObjectType) + ":" + r.ObjectName + ":" + r.Grantee
}

// Extension represents an installed Postgres extension
type Extension struct {
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Version string `json:"version"`
	Cascade bool   `json:"cascade,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// GetObjectName returns the extension's name
func (e *Extension) GetObjectName() string { return e.Name }

// Rule represents a PostgreSQL query rewrite rule (CREATE RULE)
type Rule struct {
	Schema      string   `json:"schema"`
	Name        string   `json:"name"`
	Table       string   `json:"table"`
	Event       string   `json:"event"` // SELECT, INSERT, UPDATE, DELETE
	Instead     bool     `json:"instead,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	Actions     []string `json:"actions,omitempty"` // ordered action statements; NOTIFY is a no-op rule
	Comment     string   `json:"comment,omitempty"`
}

// GetObjectName returns a qualified identity usable as a map key (a rule name
// is only unique per table, not per schema).
func (r *Rule) GetObjectName() string { return r.Table + "." + r.Name }

// Collation represents a PostgreSQL collation (CREATE COLLATION)
type Collation struct {
	Schema      string `json:"schema"`
	Name        string `json:"name"`
	Locale      string `json:"locale,omitempty"`
	LcCollate   string `json:"lc_collate,omitempty"`
	LcCtype     string `json:"lc_ctype,omitempty"`
	Provider    string `json:"provider,omitempty"` // libc, icu, builtin
	Deterministic bool `json:"deterministic"`
	Comment     string `json:"comment,omitempty"`
}

func (c *Collation) GetObjectName() string { return c.Name }

// EventTrigger represents a PostgreSQL event trigger (CREATE EVENT TRIGGER)
type EventTrigger struct {
	Name     string   `json:"name"`
	Event    string   `json:"event"` // ddl_command_start, ddl_command_end, table_rewrite, sql_drop
	Tags     []string `json:"tags,omitempty"`
	Function string   `json:"function"`
	Enabled  string   `json:"enabled,omitempty"` // O(rigin, default), D(isabled), R(eplica), A(lways)
	Comment  string    `json:"comment,omitempty"`
}

// GetObjectName returns the event trigger's name. Event triggers are not
// schema-scoped in PostgreSQL.
func (e *EventTrigger) GetObjectName() string { return e.Name }

// Role represents a PostgreSQL role (CREATE ROLE)
type Role struct {
	Name            string   `json:"name"`
	Superuser       bool     `json:"superuser,omitempty"`
	CreateDB        bool     `json:"createdb,omitempty"`
	CreateRole      bool     `json:"createrole,omitempty"`
	Login           bool     `json:"login,omitempty"`
	Replication     bool     `json:"replication,omitempty"`
	ConnectionLimit int      `json:"connection_limit,omitempty"`
	MemberOf        []string `json:"member_of,omitempty"`
	Comment         string   `json:"comment,omitempty"`
}

func (r *Role) GetObjectName() string { return r.Name }

// Tablespace represents a PostgreSQL tablespace (CREATE TABLESPACE)
type Tablespace struct {
	Name    string            `json:"name"`
	Owner   string            `json:"owner,omitempty"`
	Location string           `json:"location"`
	Options map[string]string `json:"options,omitempty"`
	Comment string            `json:"comment,omitempty"`
}

func (t *Tablespace) GetObjectName() string { return t.Name }

// Publication represents a PostgreSQL logical-replication publication
// (CREATE PUBLICATION)
type Publication struct {
	Name      string   `json:"name"`
	Tables    []string `json:"tables,omitempty"` // empty + AllTables means FOR ALL TABLES
	AllTables bool     `json:"all_tables,omitempty"`
	Insert    bool     `json:"insert"`
	Update    bool     `json:"update"`
	Delete    bool     `json:"delete"`
	Truncate  bool     `json:"truncate"`
	Comment   string   `json:"comment,omitempty"`
}

func (p *Publication) GetObjectName() string { return p.Name }

// Subscription represents a PostgreSQL logical-replication subscription
// (CREATE SUBSCRIPTION)
type Subscription struct {
	Name        string   `json:"name"`
	Connection  string   `json:"connection"`
	Publications []string `json:"publications,omitempty"`
	Enabled     bool     `json:"enabled"`
	Comment     string   `json:"comment,omitempty"`
}

func (s *Subscription) GetObjectName() string { return s.Name }

// ForeignDataWrapper represents a PostgreSQL foreign-data wrapper
// (CREATE FOREIGN DATA WRAPPER)
type ForeignDataWrapper struct {
	Name        string            `json:"name"`
	Handler     string            `json:"handler,omitempty"`
	Validator   string            `json:"validator,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
	Comment     string            `json:"comment,omitempty"`
}

func (f *ForeignDataWrapper) GetObjectName() string { return f.Name }

// ForeignServer represents a PostgreSQL foreign server (CREATE SERVER)
type ForeignServer struct {
	Name      string            `json:"name"`
	Wrapper   string            `json:"wrapper"` // owning ForeignDataWrapper name
	Type      string            `json:"type,omitempty"`
	Version   string            `json:"version,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
	Comment   string            `json:"comment,omitempty"`
}

func (f *ForeignServer) GetObjectName() string { return f.Name }

// ForeignTable represents a PostgreSQL foreign table (CREATE FOREIGN TABLE)
type ForeignTable struct {
	Schema  string            `json:"schema"`
	Name    string            `json:"name"`
	Server  string            `json:"server"` // owning ForeignServer name
	Columns []*Column         `json:"columns"`
	Options map[string]string `json:"options,omitempty"`
	Comment string            `json:"comment,omitempty"`
}

func (f *ForeignTable) GetObjectName() string { return f.Name }

// NewIR creates a new empty catalog IR
func NewIR() *IR {
	return &IR{
		Schemas:             make(map[string]*Schema),
		Roles:               make(map[string]*Role),
		Tablespaces:         make(map[string]*Tablespace),
		EventTriggers:       make(map[string]*EventTrigger),
		Publications:        make(map[string]*Publication),
		Subscriptions:       make(map[string]*Subscription),
		ForeignDataWrappers: make(map[string]*ForeignDataWrapper),
		ForeignServers:      make(map[string]*ForeignServer),
	}
}

// GetSchema retrieves a schema by name with thread safety.
// Returns the schema and true if found, or nil and false if not found.
func (c *IR) GetSchema(name string) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	schema, ok := c.Schemas[name]
	return schema, ok
}

// CreateSchema creates a new schema with the given name.
// If the schema already exists, it returns the existing schema.
func (c *IR) CreateSchema(name string) *Schema {
	return c.getOrCreateSchema(name)
}

// GetOrCreateSchema gets or creates a database schema by name with thread safety.
// This is an exported version of the internal getOrCreateSchema method.
func (c *IR) GetOrCreateSchema(name string) *Schema {
	return c.getOrCreateSchema(name)
}

// getOrCreateSchema gets or creates a database schema by name (internal method)
func (c *IR) getOrCreateSchema(name string) *Schema {
	c.mu.Lock()
	defer c.mu.Unlock()

	if schema, exists := c.Schemas[name]; exists {
		return schema
	}

	schema := &Schema{
		Name:       name,
		Tables:     make(map[string]*Table),
		Views:      make(map[string]*View),
		Functions:  make(map[string]*Function),
		Procedures: make(map[string]*Procedure),
		Aggregates: make(map[string]*Aggregate),
		Sequences:  make(map[string]*Sequence),
		Types:      make(map[string]*Type),
		Extensions: make(map[string]*Extension),
		Rules:         make(map[string]*Rule),
		Collations:    make(map[string]*Collation),
		ForeignTables: make(map[string]*ForeignTable),
	}
	c.Schemas[name] = schema
	return schema
}

// Thread-safe getter and setter methods for Schema

// GetTable retrieves a table from the schema with thread safety
func (s *Schema) GetTable(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.Tables[name]
	return table, ok
}

// SetTable sets a table in the schema with thread safety
func (s *Schema) SetTable(name string, table *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables[name] = table
}

// GetView retrieves a view from the schema with thread safety
func (s *Schema) GetView(name string) (*View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.Views[name]
	return view, ok
}

// SetView sets a view in the schema with thread safety
func (s *Schema) SetView(name string, view *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Views[name] = view
}

// GetFunction retrieves a function from the schema with thread safety
func (s *Schema) GetFunction(name string) (*Function, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	function, ok := s.Functions[name]
	return function, ok
}

// SetFunction sets a function in the schema with thread safety
func (s *Schema) SetFunction(name string, function *Function) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Functions[name] = function
}

// GetProcedure retrieves a procedure from the schema with thread safety
func (s *Schema) GetProcedure(name string) (*Procedure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	procedure, ok := s.Procedures[name]
	return procedure, ok
}

// SetProcedure sets a procedure in the schema with thread safety
func (s *Schema) SetProcedure(name string, procedure *Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Procedures[name] = procedure
}

// GetAggregate retrieves an aggregate from the schema with thread safety
func (s *Schema) GetAggregate(name string) (*Aggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aggregate, ok := s.Aggregates[name]
	return aggregate, ok
}

// SetAggregate sets an aggregate in the schema with thread safety
func (s *Schema) SetAggregate(name string, aggregate *Aggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Aggregates[name] = aggregate
}

// GetSequence retrieves a sequence from the schema with thread safety
func (s *Schema) GetSequence(name string) (*Sequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sequence, ok := s.Sequences[name]
	return sequence, ok
}

// SetSequence sets a sequence in the schema with thread safety
func (s *Schema) SetSequence(name string, sequence *Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sequences[name] = sequence
}

// GetType retrieves a type from the schema with thread safety
func (s *Schema) GetType(name string) (*Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	typ, ok := s.Types[name]
	return typ, ok
}

// SetType sets a type in the schema with thread safety
func (s *Schema) SetType(name string, typ *Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Types[name] = typ
}

// GetExtension retrieves an extension from the schema with thread safety
func (s *Schema) GetExtension(name string) (*Extension, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext, ok := s.Extensions[name]
	return ext, ok
}

// SetExtension sets an extension in the schema with thread safety
func (s *Schema) SetExtension(name string, ext *Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Extensions == nil {
		s.Extensions = make(map[string]*Extension)
	}
	s.Extensions[name] = ext
}

// GetObjectName implementations for DiffSource interface
func (t *Table) GetObjectName() string      { return t.Name }
func (c *Column) GetObjectName() string     { return c.Name }
func (c *Constraint) GetObjectName() string { return c.Name }
func (i *Index) GetObjectName() string      { return i.Name }
func (t *Trigger) GetObjectName() string    { return t.Name }
func (p *RLSPolicy) GetObjectName() string  { return p.Name }
func (f *Function) GetObjectName() string   { return f.Name }
func (p *Procedure) GetObjectName() string  { return p.Name }
func (v *View) GetObjectName() string       { return v.Name }
func (s *Sequence) GetObjectName() string   { return s.Name }
func (t *Type) GetObjectName() string       { return t.Name }

