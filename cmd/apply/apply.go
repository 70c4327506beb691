package apply

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	planCmd "github.com/pgdeclare/pgdeclare/cmd/plan"
	"github.com/pgdeclare/pgdeclare/cmd/util"
	"github.com/pgdeclare/pgdeclare/internal/fingerprint"
	"github.com/pgdeclare/pgdeclare/internal/migrations"
	"github.com/pgdeclare/pgdeclare/internal/plan"
	"github.com/pgdeclare/pgdeclare/internal/postgres"
	"github.com/pgdeclare/pgdeclare/internal/version"
	"github.com/pgdeclare/pgdeclare/ir"
	"github.com/spf13/cobra"
)

var (
	applyHost            string
	applyPort            int
	applyDB              string
	applyUser            string
	applyPassword        string
	applySchema          string
	applyFile            string
	applyPlan            string
	applyAutoApprove     bool
	applyNoColor         bool
	applyLockTimeout     string
	applyApplicationName string

	// Plan database connection flags (optional - for using external database instead of embedded postgres)
	applyPlanDBHost     string
	applyPlanDBPort     int
	applyPlanDBDatabase string
	applyPlanDBUser     string
	applyPlanDBPassword string
)

var ApplyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Apply migration plan to update a database schema",
	Long:         "Apply a migration plan to update a database schema. Either provide a desired state file (--file) to generate and apply a plan, or provide a pre-generated plan file (--plan) to execute directly.",
	RunE:         RunApply,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVarsAndConnectionAndApp(&applyDB, &applyUser, &applyHost, &applyPort, &applyApplicationName),
}

func init() {
	// Target database connection flags
	ApplyCmd.Flags().StringVar(&applyHost, "host", "localhost", "Database server host (env: PGHOST)")
	ApplyCmd.Flags().IntVar(&applyPort, "port", 5432, "Database server port (env: PGPORT)")
	ApplyCmd.Flags().StringVar(&applyDB, "db", "", "Database name (required) (env: PGDATABASE)")
	ApplyCmd.Flags().StringVar(&applyUser, "user", "", "Database user name (required) (env: PGUSER)")
	ApplyCmd.Flags().StringVar(&applyPassword, "password", "", "Database password (optional, can also use PGPASSWORD env var)")
	ApplyCmd.Flags().StringVar(&applySchema, "schema", "public", "Schema name")

	// Desired state schema file flag
	ApplyCmd.Flags().StringVar(&applyFile, "file", "", "Path to desired state SQL schema file")

	// Plan file flag
	ApplyCmd.Flags().StringVar(&applyPlan, "plan", "", "Path to plan JSON file")

	// Apply behavior flags
	ApplyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply changes without prompting for approval")
	ApplyCmd.Flags().BoolVar(&applyNoColor, "no-color", false, "Disable colored output")
	ApplyCmd.Flags().StringVar(&applyLockTimeout, "lock-timeout", "", "Maximum time to wait for database locks (e.g., 30s, 5m, 1h)")
	ApplyCmd.Flags().StringVar(&applyApplicationName, "application-name", "pgdeclare", "Application name for database connection (visible in pg_stat_activity) (env: PGAPPNAME)")

	// Plan database connection flags (optional - for using external database instead of embedded postgres when using --file)
	ApplyCmd.Flags().StringVar(&applyPlanDBHost, "plan-host", "", "Plan database host (env: PGSCHEMA_PLAN_HOST). If provided, uses external database instead of embedded postgres for validating desired state schema")
	ApplyCmd.Flags().IntVar(&applyPlanDBPort, "plan-port", 5432, "Plan database port (env: PGSCHEMA_PLAN_PORT)")
	ApplyCmd.Flags().StringVar(&applyPlanDBDatabase, "plan-db", "", "Plan database name (env: PGSCHEMA_PLAN_DB)")
	ApplyCmd.Flags().StringVar(&applyPlanDBUser, "plan-user", "", "Plan database user (env: PGSCHEMA_PLAN_USER)")
	ApplyCmd.Flags().StringVar(&applyPlanDBPassword, "plan-password", "", "Plan database password (env: PGSCHEMA_PLAN_PASSWORD)")

	// Mark file and plan as mutually exclusive
	ApplyCmd.MarkFlagsMutuallyExclusive("file", "plan")
}

// ApplyConfig holds configuration for apply execution
type ApplyConfig struct {
	Host            string
	Port            int
	DB              string
	User            string
	Password        string
	Schema          string
	File            string     // Desired state file (optional, used with embeddedPG)
	Plan            *plan.Plan // Pre-generated plan (optional, alternative to File)
	AutoApprove     bool
	NoColor         bool
	Quiet           bool // Suppress plan display and progress messages (useful for tests)
	LockTimeout     string
	ApplicationName string
}

// ApplyMigration applies a migration plan to update a database schema.
// The caller must provide either:
// - A pre-generated plan in config.Plan, OR
// - A desired state file in config.File with a non-nil provider instance
//
// If config.File is provided, provider is used to generate the plan.
// The caller is responsible for managing the provider lifecycle (creation and cleanup).
func ApplyMigration(config *ApplyConfig, provider postgres.DesiredStateProvider) error {
	var migrationPlan *plan.Plan
	var err error

	// Either use provided plan or generate from file
	if config.Plan != nil {
		migrationPlan = config.Plan
	} else if config.File != "" {
		// Generate plan from file (requires provider)
		if provider == nil {
			return fmt.Errorf("provider is required when generating plan from file")
		}

		planConfig := &planCmd.PlanConfig{
			Host:            config.Host,
			Port:            config.Port,
			DB:              config.DB,
			User:            config.User,
			Password:        config.Password,
			Schema:          config.Schema,
			File:            config.File,
			ApplicationName: config.ApplicationName,
		}

		// Generate plan using shared logic
		migrationPlan, err = planCmd.GeneratePlan(planConfig, provider)
		if err != nil {
			return err
		}
	} else {
		return fmt.Errorf("either config.Plan or config.File must be provided")
	}

	// Load ignore configuration for fingerprint validation
	ignoreConfig, err := util.LoadIgnoreFileWithStructure()
	if err != nil {
		return fmt.Errorf("failed to load .pgschemaignore: %w", err)
	}

	// Validate schema fingerprint if plan has one
	if migrationPlan.SourceFingerprint != nil {
		err := validateSchemaFingerprint(migrationPlan, config.Host, config.Port, config.DB, config.User, config.Password, config.Schema, config.ApplicationName, ignoreConfig)
		if err != nil {
			return err
		}
	}

	// Check if there are any changes to apply by examining the plan diffs
	if !migrationPlan.HasAnyChanges() {
		fmt.Println("No changes to apply. Database schema is already up to date.")
		return nil
	}

	// Display the plan (unless quiet mode is enabled)
	if !config.Quiet {
		fmt.Print(migrationPlan.HumanColored(!config.NoColor))
	}

	// Prompt for approval if not auto-approved
	if !config.AutoApprove {
		fmt.Print("\nDo you want to apply these changes? (yes/no): ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "yes" && response != "y" {
			fmt.Println("Apply cancelled.")
			return nil
		}
	}

	// Apply the changes
	if !config.Quiet {
		fmt.Println("\nApplying changes...")
	}

	// Build database connection for applying changes
	connConfig := &util.ConnectionConfig{
		Host:            config.Host,
		Port:            config.Port,
		Database:        config.DB,
		User:            config.User,
		Password:        config.Password,
		SSLMode:         "prefer",
		ApplicationName: config.ApplicationName,
	}

	conn, err := util.Connect(connConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	ctx := context.Background()

	// Set lock timeout before executing changes
	if config.LockTimeout != "" {
		lockTimeoutSQL := fmt.Sprintf("SET lock_timeout = '%s'", config.LockTimeout)
		_, err = util.ExecContextWithLogging(ctx, conn, lockTimeoutSQL, "set lock timeout")
		if err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	// Set search_path to target schema for unqualified table references
	if config.Schema != "" && config.Schema != "public" {
		quotedSchema := ir.QuoteIdentifier(config.Schema)
		searchPathSQL := fmt.Sprintf("SET search_path TO %s, public", quotedSchema)
		_, err = util.ExecContextWithLogging(ctx, conn, searchPathSQL, "set search_path to target schema")
		if err != nil {
			return fmt.Errorf("failed to set search_path to target schema '%s': %w", config.Schema, err)
		}
		fmt.Printf("Set search_path to: %s, public\n", quotedSchema)
	}

	// Generate SQL statements from the plan
	sqlStatements := migrationPlan.ToSQL(plan.SQLFormatRaw)

	// Skip execution if no changes
	if strings.TrimSpace(sqlStatements) == "-- No changes detected" || strings.TrimSpace(sqlStatements) == "-- No DDL statements generated" {
		fmt.Println("No SQL statements to execute.")
		return nil
	}

	bookkeepingSchema := config.Schema
	if bookkeepingSchema == "" {
		bookkeepingSchema = "public"
	}
	if err := ensureMigrationsTable(ctx, conn, bookkeepingSchema); err != nil {
		return err
	}

	// Execute by groups with wait directive support. Each group is already
	// an isolation boundary computed by plan.groupDiffs: groups that can run
	// in a transaction are applied atomically with schema_migrations
	// bookkeeping; groups containing a directive or a statement that cannot
	// run in a transaction (e.g. CREATE INDEX CONCURRENTLY) execute outside
	// one, with bookkeeping recorded right after each statement succeeds.
	for i, group := range migrationPlan.Groups {
		if !config.Quiet {
			fmt.Printf("\nExecuting group %d/%d...\n", i+1, len(migrationPlan.Groups))
		}

		err = executeGroup(ctx, conn, group, i+1, bookkeepingSchema, config.Quiet)
		if err != nil {
			return err
		}
	}

	if !config.Quiet {
		fmt.Println("Changes applied successfully!")
	}
	return nil
}

// ensureMigrationsTable creates schema_migrations if it doesn't already
// exist, in its own short transaction so a subsequent failure mid-plan
// still leaves the bookkeeping table (but no migration rows) behind.
func ensureMigrationsTable(ctx context.Context, conn *sql.DB, schema string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema_migrations setup: %w", err)
	}
	if err := migrations.EnsureTable(ctx, tx, schema); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema_migrations setup: %w", err)
	}
	return nil
}

// RunApply executes the apply command logic. Exported for testing.
func RunApply(cmd *cobra.Command, args []string) error {
	// Validate that either --file or --plan is provided
	if applyFile == "" && applyPlan == "" {
		return fmt.Errorf("either --file or --plan must be specified")
	}

	// Derive final password: use provided password or check environment variable
	finalPassword := applyPassword
	if finalPassword == "" {
		if envPassword := os.Getenv("PGPASSWORD"); envPassword != "" {
			finalPassword = envPassword
		}
	}

	// Auto-detect schema from dump file if --schema was not explicitly set
	effectiveSchema := applySchema
	if !cmd.Flags().Changed("schema") && applyFile != "" {
		if detected, err := util.DetectSchemaFromFile(applyFile); err == nil && detected != "" {
			effectiveSchema = detected
			fmt.Fprintf(os.Stderr, "Auto-detected schema '%s' from dump file\n", detected)
		}
	}

	// Build configuration
	config := &ApplyConfig{
		Host:            applyHost,
		Port:            applyPort,
		DB:              applyDB,
		User:            applyUser,
		Password:        finalPassword,
		Schema:          effectiveSchema,
		AutoApprove:     applyAutoApprove,
		NoColor:         applyNoColor,
		LockTimeout:     applyLockTimeout,
		ApplicationName: applyApplicationName,
	}

	var provider postgres.DesiredStateProvider
	var err error

	// If using --plan flag, load plan from JSON file
	if applyPlan != "" {
		planData, err := os.ReadFile(applyPlan)
		if err != nil {
			return fmt.Errorf("failed to read plan file: %w", err)
		}

		migrationPlan, err := plan.FromJSON(planData)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}

		// Validate that the plan was generated by the same pgschema version
		currentVersion := version.App()
		if migrationPlan.PgschemaVersion != currentVersion {
			return fmt.Errorf("plan version mismatch: plan was generated by pgschema version %s, but current version is %s. Please regenerate the plan with the current version", migrationPlan.PgschemaVersion, currentVersion)
		}

		// Validate that the plan format version is supported (forward compatibility)
		supportedPlanVersion := version.PlanFormat()
		if migrationPlan.Version != supportedPlanVersion {
			return fmt.Errorf("unsupported plan format version: plan uses format version %s, but this pgschema version only supports format version %s. Please upgrade pgschema to apply this plan", migrationPlan.Version, supportedPlanVersion)
		}

		config.Plan = migrationPlan
	} else {
		// Using --file flag, will need desired state provider
		config.File = applyFile

		// Apply environment variables to plan database flags (only needed for File Mode)
		util.ApplyPlanDBEnvVars(cmd, &applyPlanDBHost, &applyPlanDBDatabase, &applyPlanDBUser, &applyPlanDBPassword, &applyPlanDBPort)

		// Validate plan database flags if plan-host is provided
		if err := util.ValidatePlanDBFlags(applyPlanDBHost, applyPlanDBDatabase, applyPlanDBUser); err != nil {
			return err
		}

		// Derive final plan database password
		finalPlanPassword := applyPlanDBPassword
		if finalPlanPassword == "" {
			if envPassword := os.Getenv("PGSCHEMA_PLAN_PASSWORD"); envPassword != "" {
				finalPlanPassword = envPassword
			}
		}

		// Create desired state provider (embedded postgres or external database)
		planConfig := &planCmd.PlanConfig{
			Host:            applyHost,
			Port:            applyPort,
			DB:              applyDB,
			User:            applyUser,
			Password:        finalPassword,
			Schema:          applySchema,
			File:            applyFile,
			ApplicationName: applyApplicationName,
			// Plan database configuration
			PlanDBHost:     applyPlanDBHost,
			PlanDBPort:     applyPlanDBPort,
			PlanDBDatabase: applyPlanDBDatabase,
			PlanDBUser:     applyPlanDBUser,
			PlanDBPassword: finalPlanPassword,
		}
		provider, err = planCmd.CreateDesiredStateProvider(planConfig)
		if err != nil {
			return err
		}
		defer provider.Stop()
	}

	// Apply the migration
	return ApplyMigration(config, provider)
}

// validateSchemaFingerprint validates that the current database schema matches the expected fingerprint
func validateSchemaFingerprint(migrationPlan *plan.Plan, host string, port int, db, user, password, schema, applicationName string, ignoreConfig *ir.IgnoreConfig) error {
	// Get current state from target database with ignore config
	// This ensures ignored objects are excluded from fingerprint calculation
	currentStateIR, err := util.GetIRFromDatabase(host, port, db, user, password, schema, applicationName, ignoreConfig)
	if err != nil {
		return fmt.Errorf("failed to get current database state for fingerprint validation: %w", err)
	}

	// Compute current fingerprint
	currentFingerprint, err := fingerprint.ComputeFingerprint(currentStateIR, schema)
	if err != nil {
		return fmt.Errorf("failed to compute current fingerprint: %w", err)
	}

	// Compare with expected fingerprint
	if err := fingerprint.Compare(migrationPlan.SourceFingerprint, currentFingerprint); err != nil {
		return fmt.Errorf("%w\n\nTo resolve this issue:\n1. Regenerate the plan with current database state: pgschema plan ...\n2. Review the new plan to ensure it's still correct\n3. Apply the new plan: pgschema apply ...", err)
	}

	return nil
}

// executeGroup executes all steps in a group, handling directives separately from SQL statements
func executeGroup(ctx context.Context, conn *sql.DB, group plan.ExecutionGroup, groupNum int, schema string, quiet bool) error {
	// Check if this group has directives or a CONCURRENTLY statement, which
	// PostgreSQL refuses to run inside a transaction block
	runIndividually := false

	for _, step := range group.Steps {
		if step.Directive != nil || strings.Contains(strings.ToUpper(step.SQL), " CONCURRENTLY ") {
			runIndividually = true
			break
		}
	}

	if !runIndividually {
		// Transaction-safe group - run every step plus its schema_migrations bookkeeping in one transaction
		return executeGroupConcatenated(ctx, conn, group, groupNum, schema, quiet)
	} else {
		// Directives or non-transactional statements - execute statements individually, outside a transaction
		return executeGroupIndividually(ctx, conn, group, groupNum, schema, quiet)
	}
}

// executeGroupConcatenated runs every step of the group, plus its
// schema_migrations bookkeeping, inside a single transaction: per spec, "open
// a single transaction, execute every forward statement in order, record
// each applied step in schema_migrations, commit. If any statement fails,
// roll back the entire transaction." Steps whose id is already recorded are
// skipped, which is what makes re-applying the same plan a no-op.
func executeGroupConcatenated(ctx context.Context, conn *sql.DB, group plan.ExecutionGroup, groupNum int, schema string, quiet bool) error {
	ids := make([]string, len(group.Steps))
	for i, step := range group.Steps {
		ids[i] = migrations.StepID(step.SQL)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for group %d: %w", groupNum, err)
	}
	defer tx.Rollback()

	applied, err := migrations.Applied(ctx, tx, schema, ids)
	if err != nil {
		return fmt.Errorf("failed to check schema_migrations for group %d: %w", groupNum, err)
	}

	executed := 0
	for i, step := range group.Steps {
		if applied[ids[i]] {
			continue
		}

		if !quiet {
			fmt.Printf("  Executing: %s\n", truncateSQL(step.SQL, 80))
		}

		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("failed to execute statement in group %d, step %d: %w", groupNum, i+1, err)
		}

		name := step.Path
		if name == "" {
			name = fmt.Sprintf("group %d step %d", groupNum, i+1)
		}
		if err := migrations.Record(ctx, tx, schema, ids[i], name); err != nil {
			return fmt.Errorf("failed to record schema_migrations row for group %d, step %d: %w", groupNum, i+1, err)
		}
		executed++
	}

	if !quiet {
		fmt.Printf("  %d statement(s) executed, %d already applied\n", executed, len(group.Steps)-executed)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group %d: %w", groupNum, err)
	}
	return nil
}

// executeGroupIndividually executes statements individually without an
// enclosing transaction (directives, and statements like CREATE INDEX
// CONCURRENTLY that Postgres refuses to run inside one). Each successful
// statement is still recorded in schema_migrations, in its own short
// transaction, so a later replay of the same plan still skips it.
func executeGroupIndividually(ctx context.Context, conn *sql.DB, group plan.ExecutionGroup, groupNum int, schema string, quiet bool) error {
	for stepIdx, step := range group.Steps {
		if step.Directive != nil {
			// Handle directive execution
			err := executeDirective(ctx, conn, step.Directive, step.SQL)
			if err != nil {
				return fmt.Errorf("directive failed in group %d, step %d: %w", groupNum, stepIdx+1, err)
			}
			continue
		}

		id := migrations.StepID(step.SQL)
		alreadyApplied, err := stepAlreadyApplied(ctx, conn, schema, id)
		if err != nil {
			return fmt.Errorf("failed to check schema_migrations for group %d, step %d: %w", groupNum, stepIdx+1, err)
		}
		if alreadyApplied {
			continue
		}

		// Execute regular SQL statement
		if !quiet {
			fmt.Printf("  Executing: %s\n", truncateSQL(step.SQL, 80))
		}

		_, err = util.ExecContextWithLogging(ctx, conn, step.SQL, fmt.Sprintf("execute statement in group %d, step %d", groupNum, stepIdx+1))
		if err != nil {
			return fmt.Errorf("failed to execute statement in group %d, step %d: %w", groupNum, stepIdx+1, err)
		}

		name := step.Path
		if name == "" {
			name = fmt.Sprintf("group %d step %d", groupNum, stepIdx+1)
		}
		if err := recordStepApplied(ctx, conn, schema, id, name); err != nil {
			return fmt.Errorf("failed to record schema_migrations row for group %d, step %d: %w", groupNum, stepIdx+1, err)
		}
	}
	return nil
}

// stepAlreadyApplied and recordStepApplied wrap the migrations package's
// tx-scoped helpers in their own single-statement transaction, for the
// non-transactional execution path where there is no enclosing tx to join.
func stepAlreadyApplied(ctx context.Context, conn *sql.DB, schema, id string) (bool, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	applied, err := migrations.Applied(ctx, tx, schema, []string{id})
	if err != nil {
		return false, err
	}
	return applied[id], tx.Commit()
}

func recordStepApplied(ctx context.Context, conn *sql.DB, schema, id, name string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrations.Record(ctx, tx, schema, id, name); err != nil {
		return err
	}
	return tx.Commit()
}

// truncateSQL truncates a SQL statement for display purposes
func truncateSQL(sql string, maxLen int) string {
	// Remove extra whitespace and newlines
	cleaned := strings.ReplaceAll(strings.TrimSpace(sql), "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")

	// Collapse multiple spaces into single spaces
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}

	if len(cleaned) <= maxLen {
		return cleaned
	}

	return cleaned[:maxLen-3] + "..."
}
