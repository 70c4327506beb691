package cmd

import (
	"fmt"

	"github.com/pgdeclare/pgdeclare/internal/version"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of pgschema",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgschema v%s@%s %s %s\n", version.App(), GitCommit, platform(), BuildDate)
	},
}

// GitCommit, BuildDate and platform() are declared in root.go.
