package diff

import (
	"fmt"
	"sort"

	"github.com/pgdeclare/pgdeclare/ir"
)

// generateCreateExtensionsSQL generates CREATE EXTENSION statements for new extensions
func generateCreateExtensionsSQL(extensions []*ir.Extension, targetSchema string, collector *diffCollector) {
	sorted := make([]*ir.Extension, len(extensions))
	copy(sorted, extensions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, ext := range sorted {
		context := &diffContext{
			Type:                DiffTypeExtension,
			Operation:           DiffOperationCreate,
			Path:                fmt.Sprintf("extensions.%s", ext.Name),
			Source:              ext,
			CanRunInTransaction: true,
		}
		collector.collect(context, generateCreateExtensionSQL(ext))
	}
}

// generateDropExtensionsSQL generates DROP EXTENSION statements for removed extensions
func generateDropExtensionsSQL(extensions []*ir.Extension, targetSchema string, collector *diffCollector) {
	sorted := make([]*ir.Extension, len(extensions))
	copy(sorted, extensions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, ext := range sorted {
		context := &diffContext{
			Type:                DiffTypeExtension,
			Operation:           DiffOperationDrop,
			Path:                fmt.Sprintf("extensions.%s", ext.Name),
			Source:              ext,
			CanRunInTransaction: true,
		}
		collector.collect(context, fmt.Sprintf("DROP EXTENSION IF EXISTS %s;", ext.Name))
	}
}

// generateCreateExtensionSQL renders a single CREATE EXTENSION statement.
func generateCreateExtensionSQL(ext *ir.Extension) string {
	stmt := fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", ext.Name)
	if ext.Schema != "" {
		stmt += fmt.Sprintf(" WITH SCHEMA %s", ext.Schema)
	}
	if ext.Version != "" {
		stmt += fmt.Sprintf(" VERSION '%s'", ext.Version)
	}
	if ext.Cascade {
		stmt += " CASCADE"
	}
	return stmt + ";"
}
