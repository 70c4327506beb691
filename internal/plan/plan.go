package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pgdeclare/pgdeclare/internal/color"
	"github.com/pgdeclare/pgdeclare/internal/diff"
	"github.com/pgdeclare/pgdeclare/internal/fingerprint"
	"github.com/pgdeclare/pgdeclare/internal/version"
)

// DirectiveType represents the different types of directives
type DirectiveType string

const (
	DirectiveTypeWait DirectiveType = "wait"
)

// String returns the string representation of DirectiveType
func (dt DirectiveType) String() string {
	return string(dt)
}

// Directive represents a special directive for execution (wait, assert, etc.)
type Directive struct {
	Type    DirectiveType `json:"type"`    // DirectiveTypeWait, etc.
	Message string        `json:"message"` // Auto-generated descriptive message
}

// Step represents a single execution step with SQL and optional directive
type Step struct {
	SQL       string     `json:"sql"`
	Directive *Directive `json:"directive,omitempty"`
	// Metadata for summary generation
	Type      string `json:"type,omitempty"`      // e.g., "table", "index"
	Operation string `json:"operation,omitempty"` // e.g., "create", "alter", "drop"
	Path      string `json:"path,omitempty"`      // e.g., "public.users"
}

// ExecutionGroup represents a group of steps that should be executed together
type ExecutionGroup struct {
	Steps []Step `json:"steps"`
}

// Plan represents the migration plan between two DDL states
type Plan struct {
	// Version information
	Version         string `json:"version"`
	PgschemaVersion string `json:"pgschema_version"`

	// When the plan was created
	CreatedAt time.Time `json:"created_at"`

	// Source database fingerprint when plan was created
	SourceFingerprint *fingerprint.SchemaFingerprint `json:"source_fingerprint,omitempty"`

	// Groups is the ordered list of execution groups
	Groups []ExecutionGroup `json:"groups"`

	// SourceDiffs stores original diff information for summary calculation
	// This field is only serialized in debug mode
	SourceDiffs []diff.Diff `json:"source_diffs,omitempty"`
}

// PlanSummary provides counts of changes by type
type PlanSummary struct {
	Total   int                    `json:"total"`
	Add     int                    `json:"add"`
	Change  int                    `json:"change"`
	Destroy int                    `json:"destroy"`
	ByType  map[string]TypeSummary `json:"by_type"`
}

// TypeSummary provides counts for a specific object type
type TypeSummary struct {
	Add     int `json:"add"`
	Change  int `json:"change"`
	Destroy int `json:"destroy"`
}

// Type represents the database object types in dependency order
type Type string

const (
	TypeSchema           Type = "schemas"
	TypeType             Type = "types"
	TypeFunction         Type = "functions"
	TypeProcedure        Type = "procedures"
	TypeSequence         Type = "sequences"
	TypeTable            Type = "tables"
	TypeView             Type = "views"
	TypeMaterializedView Type = "materialized views"
	TypeIndex            Type = "indexes"
	TypeTrigger          Type = "triggers"
	TypePolicy           Type = "policies"
	TypeColumn           Type = "columns"
	TypeRLS              Type = "rls"
)

// SQLFormat represents the different output formats for SQL generation
type SQLFormat string

const (
	// SQLFormatRaw outputs just the raw SQL statements without additional formatting
	SQLFormatRaw SQLFormat = "raw"
	// Human-readable format with comments
	SQLFormatHuman SQLFormat = "human"
)

// getObjectOrder returns the dependency order for database objects
func getObjectOrder() []Type {
	return []Type{
		TypeSchema,
		TypeType,
		TypeFunction,
		TypeProcedure,
		TypeSequence,
		TypeTable,
		TypeView,
		TypeMaterializedView,
		TypeIndex,
		TypeTrigger,
		TypePolicy,
		TypeColumn,
		TypeRLS,
	}
}

// ========== PUBLIC METHODS ==========

// groupDiffs groups diffs into execution groups, using online rewrites where one exists
func groupDiffs(diffs []diff.Diff) []ExecutionGroup {
	if len(diffs) == 0 {
		return nil
	}

	var groups []ExecutionGroup
	var transactionalSteps []Step

	// Track newly created tables to avoid concurrent rewrites for their indexes
	newlyCreatedTables := make(map[string]bool)
	for _, d := range diffs {
		if d.Type == diff.DiffTypeTable && d.Operation == diff.DiffOperationCreate {
			// Extract table name from path (schema.table)
			newlyCreatedTables[d.Path] = true
		}
	}

	// Track newly created materialized views to avoid concurrent rewrites for their indexes
	newlyCreatedMaterializedViews := make(map[string]bool)
	for _, d := range diffs {
		if d.Type == diff.DiffTypeMaterializedView && d.Operation == diff.DiffOperationCreate {
			// Extract materialized view name from path (schema.materialized_view)
			newlyCreatedMaterializedViews[d.Path] = true
		}
	}

	// Convert diffs to steps
	for _, d := range diffs {
		// Try to generate online rewrites for this diff
		rewriteSteps := generateRewrite(d, newlyCreatedTables, newlyCreatedMaterializedViews)

		if len(rewriteSteps) > 0 {
			// For operations with rewrites, create one step per rewrite statement
			for _, rewriteStep := range rewriteSteps {
				step := Step{
					SQL:       rewriteStep.SQL,
					Type:      d.Type.String(),
					Operation: d.Operation.String(),
					Path:      d.Path,
					Directive: rewriteStep.Directive,
				}

				// Check if this step needs isolation (has directive or cannot run in transaction)
				needsIsolation := step.Directive != nil || !rewriteStep.CanRunInTransaction

				if needsIsolation {
					// Flush any pending transactional steps
					if len(transactionalSteps) > 0 {
						groups = append(groups, ExecutionGroup{Steps: transactionalSteps})
						transactionalSteps = nil
					}

					// Add this step in its own group
					groups = append(groups, ExecutionGroup{Steps: []Step{step}})
				} else {
					// Accumulate transactional steps
					transactionalSteps = append(transactionalSteps, step)
				}
			}
		} else {
			// For operations without rewrites, create one step per canonical statement
			for _, stmt := range d.Statements {
				step := Step{
					SQL:       stmt.SQL,
					Type:      d.Type.String(),
					Operation: d.Operation.String(),
					Path:      d.Path,
				}
				// Canonical statements don't have directives
				transactionalSteps = append(transactionalSteps, step)
			}
		}
	}

	// Flush remaining transactional steps
	if len(transactionalSteps) > 0 {
		groups = append(groups, ExecutionGroup{Steps: transactionalSteps})
	}

	return groups
}

// NewPlan creates a new plan from a list of diffs with online operations enabled
func NewPlan(diffs []diff.Diff) *Plan {
	// Use environment variable for timestamp if provided, otherwise use current time
	createdAt := time.Now().Truncate(time.Second)
	if testTime := os.Getenv("PGSCHEMA_TEST_TIME"); testTime != "" {
		if parsedTime, err := time.Parse(time.RFC3339, testTime); err == nil {
			createdAt = parsedTime
		}
	}

	plan := &Plan{
		Version:         version.PlanFormat(),
		PgschemaVersion: version.App(),
		CreatedAt:       createdAt,
		Groups:          groupDiffs(diffs),
		SourceDiffs:     diffs,
	}

	return plan
}

// NewPlanWithFingerprint creates a new plan from diffs and includes source fingerprint
func NewPlanWithFingerprint(diffs []diff.Diff, sourceFingerprint *fingerprint.SchemaFingerprint) *Plan {
	plan := NewPlan(diffs)
	plan.SourceFingerprint = sourceFingerprint
	return plan
}

// HasAnyChanges checks if the plan contains any changes by examining the groups
func (p *Plan) HasAnyChanges() bool {
	for _, g := range p.Groups {
		if len(g.Steps) > 0 {
			return true
		}
	}
	return false
}

// HumanColored returns a human-readable summary of the plan with color support
func (p *Plan) HumanColored(enableColor bool) string {
	c := color.New(enableColor)
	var summary strings.Builder

	// Calculate summary from diffs
	summaryData := p.calculateSummaryFromSteps()

	if summaryData.Total == 0 {
		summary.WriteString("No changes detected.\n")
		return summary.String()
	}

	// Write header with overall summary (colored like Terraform)
	summary.WriteString(c.FormatPlanHeader(summaryData.Add, summaryData.Change, summaryData.Destroy) + "\n\n")

	// Write summary by type with colors
	summary.WriteString(c.Bold("Summary by type:") + "\n")
	for _, objType := range getObjectOrder() {
		objTypeStr := string(objType)
		if typeSummary, exists := summaryData.ByType[objTypeStr]; exists && (typeSummary.Add > 0 || typeSummary.Change > 0 || typeSummary.Destroy > 0) {
			line := c.FormatSummaryLine(objTypeStr, typeSummary.Add, typeSummary.Change, typeSummary.Destroy)
			summary.WriteString(line + "\n")
		}
	}
	summary.WriteString("\n")

	// Detailed changes by type with symbols
	for _, objType := range getObjectOrder() {
		objTypeStr := string(objType)
		if typeSummary, exists := summaryData.ByType[objTypeStr]; exists && (typeSummary.Add > 0 || typeSummary.Change > 0 || typeSummary.Destroy > 0) {
			// Capitalize first letter for display
			displayName := strings.ToUpper(objTypeStr[:1]) + objTypeStr[1:]
			p.writeDetailedChangesFromSteps(&summary, displayName, objTypeStr, c)
		}
	}

	// Add DDL section if there are changes
	if summaryData.Total > 0 {
		summary.WriteString(c.Bold("DDL to be executed:") + "\n")
		summary.WriteString(strings.Repeat("-", 50) + "\n\n")
		migrationSQL := p.ToSQL(SQLFormatHuman)
		if migrationSQL != "" {
			summary.WriteString(migrationSQL)
			if !strings.HasSuffix(migrationSQL, "\n") {
				summary.WriteString("\n")
			}
		} else {
			summary.WriteString("-- No DDL statements generated\n")
		}
	}

	return summary.String()
}

// ToSQL returns the SQL statements with formatting based on the specified format
func (p *Plan) ToSQL(format SQLFormat) string {
	// Build SQL output from groups
	var sqlOutput strings.Builder

	for groupIdx, group := range p.Groups {
		// Add transaction group comment for human-readable format
		if format == SQLFormatHuman && len(p.Groups) > 1 {
			sqlOutput.WriteString(fmt.Sprintf("-- Transaction Group #%d\n", groupIdx+1))
		}

		for stepIdx, step := range group.Steps {
			if step.Directive != nil {
				// Handle directive statements
				sqlOutput.WriteString(fmt.Sprintf("-- pgschema:%s\n", step.Directive.Type.String()))
				sqlOutput.WriteString(step.SQL)
				sqlOutput.WriteString("\n")
			} else {
				// Handle regular SQL statements
				sqlOutput.WriteString(step.SQL)
				sqlOutput.WriteString("\n")
			}

			// Add blank line between steps except for the last one in the last group
			if stepIdx < len(group.Steps)-1 || groupIdx < len(p.Groups)-1 {
				sqlOutput.WriteString("\n")
			}
		}
	}

	return sqlOutput.String()
}

// ToJSON returns the plan as structured JSON with only changed statements
func (p *Plan) ToJSON() (string, error) {
	return p.ToJSONWithDebug(false)
}

// ToJSONWithDebug returns the plan as structured JSON with optional source field inclusion
func (p *Plan) ToJSONWithDebug(includeSource bool) (string, error) {
	var buf strings.Builder
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	// Create a copy of the plan to control SourceDiffs serialization
	planCopy := *p
	if !includeSource {
		// Clear SourceDiffs in normal mode to keep JSON clean
		planCopy.SourceDiffs = nil
	}

	if err := encoder.Encode(&planCopy); err != nil {
		return "", fmt.Errorf("failed to marshal plan to JSON: %w", err)
	}

	// Remove the trailing newline that encoder.Encode adds
	result := buf.String()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result, nil
}

// FromJSON creates a Plan from JSON data
func FromJSON(jsonData []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(jsonData, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan JSON: %w", err)
	}
	return &plan, nil
}

// ========== PRIVATE METHODS ==========

// calculateSummaryFromSteps calculates summary statistics from the plan diffs
func (p *Plan) calculateSummaryFromSteps() PlanSummary {
	summary := PlanSummary{
		ByType: make(map[string]TypeSummary),
	}

	// For tables, we need to group by table path to avoid counting duplicates
	// For other object types, count each operation individually

	// Track table operations by table path
	tableOperations := make(map[string]string) // table_path -> operation

	// Track tables that have sub-resource changes (these should be counted as modified)
	tablesWithSubResources := make(map[string]bool) // table_path -> true

	// Track view operations by view path (regular views only)
	viewOperations := make(map[string]string) // view_path -> operation

	// Track views that have sub-resource changes (these should be counted as modified)
	viewsWithSubResources := make(map[string]bool) // view_path -> true

	// Track materialized view operations by path
	materializedViewOperations := make(map[string]string) // materialized_view_path -> operation

	// Track materialized views that have sub-resource changes
	materializedViewsWithSubResources := make(map[string]bool) // materialized_view_path -> true

	// Track non-table/non-view/non-materialized-view operations
	nonTableOperations := make(map[string][]string) // objType -> []operations

	// Use source diffs for summary calculation if available,
	// otherwise use steps metadata (for plans loaded from JSON)
	var dataToProcess []struct {
		Type      string
		Operation string
		Path      string
	}

	if len(p.SourceDiffs) > 0 {
		// Use SourceDiffs (for freshly generated plans)
		for _, diff := range p.SourceDiffs {
			dataToProcess = append(dataToProcess, struct {
				Type      string
				Operation string
				Path      string
			}{
				Type:      diff.Type.String(),
				Operation: diff.Operation.String(),
				Path:      diff.Path,
			})
		}
	} else {
		// Use Steps metadata (for plans loaded from JSON)
		for _, group := range p.Groups {
			for _, step := range group.Steps {
				if step.Type != "" && step.Operation != "" && step.Path != "" {
					dataToProcess = append(dataToProcess, struct {
						Type      string
						Operation string
						Path      string
					}{
						Type:      step.Type,
						Operation: step.Operation,
						Path:      step.Path,
					})
				}
			}
		}
	}

	// First pass: identify all views and materialized views to distinguish them from tables
	viewPaths := make(map[string]bool)
	materializedViewPaths := make(map[string]bool)
	for _, step := range dataToProcess {
		stepObjTypeStr := step.Type
		if !strings.HasSuffix(stepObjTypeStr, "s") {
			stepObjTypeStr += "s"
		}
		if stepObjTypeStr == "views" {
			viewPaths[step.Path] = true
		} else if stepObjTypeStr == "materialized_views" {
			materializedViewPaths[step.Path] = true
		} else if strings.HasPrefix(step.Type, "view.") {
			// For view sub-resources, extract the parent view path
			parentPath := extractTablePathFromSubResource(step.Path, step.Type)
			if parentPath != "" {
				viewPaths[parentPath] = true
			}
		} else if strings.HasPrefix(step.Type, "materialized_view.") {
			// For materialized view sub-resources, extract the parent path
			parentPath := extractTablePathFromSubResource(step.Path, step.Type)
			if parentPath != "" {
				materializedViewPaths[parentPath] = true
			}
		}
	}

	for _, step := range dataToProcess {
		// Normalize object type to match the expected format (add 's' for plural)
		stepObjTypeStr := step.Type
		if !strings.HasSuffix(stepObjTypeStr, "s") {
			stepObjTypeStr += "s"
		}

		if stepObjTypeStr == "tables" {
			// For tables, track unique table paths and their primary operation
			tableOperations[step.Path] = step.Operation
		} else if stepObjTypeStr == "views" {
			// For views, track unique view paths and their primary operation
			viewOperations[step.Path] = step.Operation
		} else if stepObjTypeStr == "materialized_views" {
			// For materialized views, track unique paths and their primary operation
			materializedViewOperations[step.Path] = step.Operation
		} else if isSubResource(step.Type) {
			// For sub-resources, check if parent is a view, materialized view, or table
			parentPath := extractTablePathFromSubResource(step.Path, step.Type)
			if parentPath != "" {
				if materializedViewPaths[parentPath] {
					// Parent is a materialized view
					materializedViewsWithSubResources[parentPath] = true
				} else if viewPaths[parentPath] {
					// Parent is a view
					viewsWithSubResources[parentPath] = true
				} else {
					// Parent is a table
					tablesWithSubResources[parentPath] = true
				}
			}
		} else {
			// For non-table/non-view objects, track each operation
			nonTableOperations[stepObjTypeStr] = append(nonTableOperations[stepObjTypeStr], step.Operation)
		}
	}

	// Tables/views/materialized views are counted once per unique path: a
	// path with only sub-resource changes still counts as a single "alter"
	// of its parent rather than one entry per sub-resource.
	summary.tally("tables", withSubResourceDefault(tableOperations, tablesWithSubResources, "alter"))
	summary.tally("views", withSubResourceDefault(viewOperations, viewsWithSubResources, "alter"))
	summary.tally("materialized views", withSubResourceDefault(materializedViewOperations, materializedViewsWithSubResources, "alter"))

	// Every other object kind counts each operation individually.
	for objType, operations := range nonTableOperations {
		summary.tally(objType, operations)
	}

	summary.Total = summary.Add + summary.Change + summary.Destroy
	return summary
}

// withSubResourceDefault merges direct operations with paths that only have
// sub-resource changes, assigning defaultOp to any such path not already
// present.
func withSubResourceDefault(operations map[string]string, withSubResources map[string]bool, defaultOp string) []string {
	merged := make(map[string]string, len(operations))
	for path, op := range operations {
		merged[path] = op
	}
	for path := range withSubResources {
		if _, alreadyCounted := merged[path]; !alreadyCounted {
			merged[path] = defaultOp
		}
	}
	ops := make([]string, 0, len(merged))
	for _, op := range merged {
		ops = append(ops, op)
	}
	return ops
}

// tally adds one count per operation ("create"/"alter"/"drop") to both the
// per-type and overall summary totals.
func (summary *PlanSummary) tally(objType string, operations []string) {
	if len(operations) == 0 {
		return
	}
	stats := summary.ByType[objType]
	for _, operation := range operations {
		switch operation {
		case "create":
			stats.Add++
			summary.Add++
		case "alter":
			stats.Change++
			summary.Change++
		case "drop":
			stats.Destroy++
			summary.Destroy++
		}
	}
	summary.ByType[objType] = stats
}

// writeDetailedChangesFromSteps writes detailed changes from plan diffs
func (p *Plan) writeDetailedChangesFromSteps(summary *strings.Builder, displayName, objType string, c *color.Color) {
	fmt.Fprintf(summary, "%s:\n", c.Bold(displayName))

	switch objType {
	case "tables":
		// Tables group by path, with an online-rebuild annotation for concurrent index replacement.
		p.writeGroupedChanges(summary, c, "tables", "table.", diff.DiffTypeTableIndex.String())
	case "views":
		p.writeGroupedChanges(summary, c, "views", "view.", "")
	case "materialized views":
		p.writeGroupedChanges(summary, c, "materialized_views", "materialized_view.", diff.DiffTypeMaterializedViewIndex.String())
	default:
		p.writeNonTableChanges(summary, objType, c)
	}

	summary.WriteString("\n")
}

type subResourceChange struct {
	operation string
	path      string
	subType   string
}

// symbolForOperation maps a diff operation ("create"/"alter"/"drop") to its
// plan display symbol, defaulting to "change" for anything else.
func symbolForOperation(c *color.Color, operation string) string {
	switch operation {
	case "create":
		return c.PlanSymbol("add")
	case "alter":
		return c.PlanSymbol("change")
	case "drop":
		return c.PlanSymbol("destroy")
	default:
		return c.PlanSymbol("change")
	}
}

// writeGroupedChanges handles table/view/materialized-view output, which all
// share the same shape: group every change by the owning object's path so
// sub-resource changes (indexes, policies, columns, comments) are shown
// nested under their parent instead of as independent top-level entries.
// normalizedType is the pluralized, underscore-joined ir type string (e.g.
// "materialized_views"); prefix is the sub-resource type prefix (e.g.
// "table."); concurrentRebuildType, when non-empty, is the DiffType whose
// "alter" operation gets the "(... - concurrent rebuild)" annotation instead
// of the ordinary one.
func (p *Plan) writeGroupedChanges(summary *strings.Builder, c *color.Color, normalizedType, prefix, concurrentRebuildType string) {
	operations := make(map[string]string) // path -> operation
	subResources := make(map[string][]subResourceChange)
	seenOperations := make(map[string]bool) // "path.operation.subType" -> true

	for _, step := range p.SourceDiffs {
		stepObjTypeStr := step.Type.String()
		if !strings.HasSuffix(stepObjTypeStr, "s") {
			stepObjTypeStr += "s"
		}

		switch {
		case stepObjTypeStr == normalizedType:
			operations[step.Path] = step.Operation.String()
		case isSubResource(step.Type.String()) && strings.HasPrefix(step.Type.String(), prefix):
			parentPath := extractTablePathFromSubResource(step.Path, step.Type.String())
			if parentPath == "" {
				continue
			}
			operationKey := step.Path + "." + step.Operation.String() + "." + step.Type.String()
			if seenOperations[operationKey] {
				continue
			}
			seenOperations[operationKey] = true
			subResources[parentPath] = append(subResources[parentPath], subResourceChange{
				operation: step.Operation.String(),
				path:      step.Path,
				subType:   step.Type.String(),
			})
		}
	}

	allPaths := make(map[string]bool, len(operations)+len(subResources))
	for path := range operations {
		allPaths[path] = true
	}
	for path := range subResources {
		allPaths[path] = true
	}

	sortedPaths := make([]string, 0, len(allPaths))
	for path := range allPaths {
		sortedPaths = append(sortedPaths, path)
	}
	sort.Strings(sortedPaths)

	for _, path := range sortedPaths {
		symbol := c.PlanSymbol("change") // sub-resource-only changes always read as a modification
		if operation, hasDirectChange := operations[path]; hasDirectChange {
			symbol = symbolForOperation(c, operation)
		}

		fmt.Fprintf(summary, "  %s %s\n", symbol, getLastPathComponent(path))

		subResourceList, exists := subResources[path]
		if !exists {
			continue
		}

		sort.Slice(subResourceList, func(i, j int) bool {
			if subResourceList[i].subType != subResourceList[j].subType {
				return subResourceList[i].subType < subResourceList[j].subType
			}
			return subResourceList[i].path < subResourceList[j].path
		})

		for _, subRes := range subResourceList {
			displaySubType := strings.TrimPrefix(subRes.subType, prefix)

			if concurrentRebuildType != "" && subRes.subType == concurrentRebuildType && subRes.operation == diff.DiffOperationAlter.String() {
				fmt.Fprintf(summary, "    %s %s (%s - concurrent rebuild)\n", c.PlanSymbol("change"), getLastPathComponent(subRes.path), displaySubType)
				continue
			}

			fmt.Fprintf(summary, "    %s %s (%s)\n", symbolForOperation(c, subRes.operation), getLastPathComponent(subRes.path), displaySubType)
		}
	}
}

// writeNonTableChanges handles non-table objects with the original logic
func (p *Plan) writeNonTableChanges(summary *strings.Builder, objType string, c *color.Color) {
	// Collect changes for this object type
	var changes []struct {
		operation string
		path      string
	}

	// Use source diffs for summary calculation
	for _, step := range p.SourceDiffs {
		// Normalize object type
		stepObjTypeStr := step.Type.String()
		if !strings.HasSuffix(stepObjTypeStr, "s") {
			stepObjTypeStr += "s"
		}

		if stepObjTypeStr == objType {
			changes = append(changes, struct {
				operation string
				path      string
			}{
				operation: step.Operation.String(),
				path:      step.Path,
			})
		}
	}

	// Sort changes by path for consistent output
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].path < changes[j].path
	})

	// Write changes with appropriate symbols
	for _, change := range changes {
		fmt.Fprintf(summary, "  %s %s\n", symbolForOperation(c, change.operation), getLastPathComponent(change.path))
	}
}

// isSubResource checks if the given type is a sub-resource of tables, views, or materialized views
func isSubResource(objType string) bool {
	return (strings.HasPrefix(objType, "table.") && objType != "table") ||
		(strings.HasPrefix(objType, "view.") && objType != "view") ||
		(strings.HasPrefix(objType, "materialized_view.") && objType != "materialized_view")
}

// getLastPathComponent extracts the last component from a dot-separated path
func getLastPathComponent(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return path
}

// extractTablePathFromSubResource extracts the parent table, view, or
// materialized view path from a sub-resource path. The path format is the
// same for all three parents: "schema.parent.resource_name" -> "schema.parent"
// for indexes/policies/columns, "schema.parent" -> "schema.parent" unchanged
// for parent-level changes (comments, and RLS for tables specifically).
func extractTablePathFromSubResource(subResourcePath, subResourceType string) string {
	var prefix string
	switch {
	case strings.HasPrefix(subResourceType, "table."):
		prefix = "table."
	case strings.HasPrefix(subResourceType, "view."):
		prefix = "view."
	case strings.HasPrefix(subResourceType, "materialized_view."):
		prefix = "materialized_view."
	default:
		return ""
	}

	if subResourceType == prefix+"comment" || (prefix == "table." && subResourceType == "table.rls") {
		return subResourcePath
	}

	parts := strings.Split(subResourcePath, ".")
	switch {
	case len(parts) >= 3:
		return parts[0] + "." + parts[1]
	case len(parts) == 2:
		return subResourcePath
	default:
		return ""
	}
}
