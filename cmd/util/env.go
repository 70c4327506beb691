package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// PreRunEWithEnvVars creates a PreRunE function that validates required database connection parameters
// It checks environment variables if the corresponding flags weren't explicitly set
func PreRunEWithEnvVars(dbPtr, userPtr *string) func(*cobra.Command, []string) error {
	return PreRunEWithEnvVarsAndConnection(dbPtr, userPtr, nil, nil)
}

// PreRunEWithEnvVarsAndConnection creates a PreRunE function that validates database connection parameters
// It checks environment variables if the corresponding flags weren't explicitly set
// This version also handles optional host, port, and application name parameters
func PreRunEWithEnvVarsAndConnection(dbPtr, userPtr *string, hostPtr *string, portPtr *int) func(*cobra.Command, []string) error {
	return PreRunEWithEnvVarsAndConnectionAndApp(dbPtr, userPtr, hostPtr, portPtr, nil)
}

// PreRunEWithEnvVarsAndConnectionAndApp creates a PreRunE function that validates database connection parameters
// It checks environment variables if the corresponding flags weren't explicitly set
// This version handles all optional connection parameters including application name
func PreRunEWithEnvVarsAndConnectionAndApp(dbPtr, userPtr *string, hostPtr *string, portPtr *int, appNamePtr *string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Check if required values are available from environment variables
		if GetEnvWithDefault("PGDATABASE", "") != "" && !cmd.Flags().Changed("db") {
			*dbPtr = GetEnvWithDefault("PGDATABASE", "")
		}
		if GetEnvWithDefault("PGUSER", "") != "" && !cmd.Flags().Changed("user") {
			*userPtr = GetEnvWithDefault("PGUSER", "")
		}

		// Check optional host and port if pointers provided
		if hostPtr != nil && GetEnvWithDefault("PGHOST", "") != "" && !cmd.Flags().Changed("host") {
			*hostPtr = GetEnvWithDefault("PGHOST", "")
		}
		if portPtr != nil && GetEnvIntWithDefault("PGPORT", 0) != 0 && !cmd.Flags().Changed("port") {
			*portPtr = GetEnvIntWithDefault("PGPORT", 0)
		}

		// Check optional application name if pointer provided
		if appNamePtr != nil && GetEnvWithDefault("PGAPPNAME", "") != "" && !cmd.Flags().Changed("application-name") {
			*appNamePtr = GetEnvWithDefault("PGAPPNAME", "")
		}

		// Now validate that we have the required values
		if *dbPtr == "" {
			return fmt.Errorf("database name is required (use --db flag or PGDATABASE environment variable)")
		}
		if *userPtr == "" {
			return fmt.Errorf("database user is required (use --user flag or PGUSER environment variable)")
		}

		return nil
	}
}

// ApplyPlanDBEnvVars fills in plan-database connection flags from their
// PGSCHEMA_PLAN_* environment variables when the corresponding flag wasn't
// explicitly set on the command line.
func ApplyPlanDBEnvVars(cmd *cobra.Command, hostPtr, databasePtr, userPtr, passwordPtr *string, portPtr *int) {
	if GetEnvWithDefault("PGSCHEMA_PLAN_HOST", "") != "" && !cmd.Flags().Changed("plan-host") {
		*hostPtr = GetEnvWithDefault("PGSCHEMA_PLAN_HOST", "")
	}
	if GetEnvIntWithDefault("PGSCHEMA_PLAN_PORT", 0) != 0 && !cmd.Flags().Changed("plan-port") {
		*portPtr = GetEnvIntWithDefault("PGSCHEMA_PLAN_PORT", 0)
	}
	if GetEnvWithDefault("PGSCHEMA_PLAN_DB", "") != "" && !cmd.Flags().Changed("plan-db") {
		*databasePtr = GetEnvWithDefault("PGSCHEMA_PLAN_DB", "")
	}
	if GetEnvWithDefault("PGSCHEMA_PLAN_USER", "") != "" && !cmd.Flags().Changed("plan-user") {
		*userPtr = GetEnvWithDefault("PGSCHEMA_PLAN_USER", "")
	}
	if GetEnvWithDefault("PGSCHEMA_PLAN_PASSWORD", "") != "" && !cmd.Flags().Changed("plan-password") {
		*passwordPtr = GetEnvWithDefault("PGSCHEMA_PLAN_PASSWORD", "")
	}
}

// ValidatePlanDBFlags validates that, when an external plan database is
// requested (plan-host set), its required companion flags are also set.
func ValidatePlanDBFlags(host, database, user string) error {
	if host == "" {
		return nil
	}
	if database == "" {
		return fmt.Errorf("plan database name is required when --plan-host is set (use --plan-db flag or PGSCHEMA_PLAN_DB environment variable)")
	}
	if user == "" {
		return fmt.Errorf("plan database user is required when --plan-host is set (use --plan-user flag or PGSCHEMA_PLAN_USER environment variable)")
	}
	return nil
}