package ir

import (
	"path/filepath"
	"strings"
)

// IgnoreConfig represents the configuration for ignoring database objects
// when parsing or introspecting a schema.
type IgnoreConfig struct {
	Tables     []string `toml:"tables,omitempty"`
	Views      []string `toml:"views,omitempty"`
	Functions  []string `toml:"functions,omitempty"`
	Procedures []string `toml:"procedures,omitempty"`
	Types      []string `toml:"types,omitempty"`
	Sequences  []string `toml:"sequences,omitempty"`
}

// ShouldIgnoreTable checks if a table should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreTable(tableName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(tableName, c.Tables)
}

// ShouldIgnoreView checks if a view should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreView(viewName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(viewName, c.Views)
}

// ShouldIgnoreFunction checks if a function should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreFunction(functionName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(functionName, c.Functions)
}

// ShouldIgnoreProcedure checks if a procedure should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreProcedure(procedureName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(procedureName, c.Procedures)
}

// ShouldIgnoreType checks if a type should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreType(typeName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(typeName, c.Types)
}

// ShouldIgnoreSequence checks if a sequence should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreSequence(sequenceName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(sequenceName, c.Sequences)
}

// shouldIgnore checks if a name should be ignored based on the patterns.
// Patterns support wildcards (*) and negation (!). Negation patterns take
// precedence over inclusion patterns.
func (c *IgnoreConfig) shouldIgnore(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	matched := false

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchPattern(pattern, name) {
			matched = true
			break
		}
	}

	for _, pattern := range patterns {
		if !strings.HasPrefix(pattern, "!") {
			continue
		}
		negPattern := pattern[1:]
		if matchPattern(negPattern, name) {
			return false
		}
	}

	return matched
}

// matchPattern matches a glob-style pattern against a string.
func matchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return matched
}
