package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionFile string

// Build-time variables set via ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Version returns the current version of pgschema
func Version() string {
	return strings.TrimSpace(versionFile)
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetBuildDate returns the git commit date
func GetBuildDate() string {
	return BuildDate
}

// Platform returns the OS/architecture combination
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// App returns the application's own version, for stamping dump headers and
// migration plans so they can be checked against the pgschema binary that
// applies them.
func App() string {
	return Version()
}

// planFormatVersion is the schema of the serialized migration plan (the JSON
// produced by `plan` and consumed by `apply --plan`). It changes only when
// the Plan struct's on-disk shape changes, independently of the app version.
const planFormatVersion = "1"

// PlanFormat returns the migration plan format version.
func PlanFormat() string {
	return planFormatVersion
}
