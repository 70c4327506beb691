package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgdeclare/pgdeclare/ir"
)

// diffByKey computes the added/dropped sets between two maps keyed by a
// stable identity string, without attempting to detect in-place
// modification. Every entity kind wired through this file has no
// meaningfully expressible ALTER in this engine (spec.md §4.4: "for kinds
// where alter is not meaningfully expressible... the emitted forward plan
// is drop + create"), so a changed value surfaces as one drop and one
// create rather than a dedicated modify path.
func diffByKey[V any](old, new map[string]*V) (added, dropped []*V) {
	for key, v := range new {
		if _, exists := old[key]; !exists {
			added = append(added, v)
		}
	}
	for key, v := range old {
		if _, exists := new[key]; !exists {
			dropped = append(dropped, v)
		}
	}
	return added, dropped
}

func quoteOptionsClause(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s '%s'", k, options[k]))
	}
	return " OPTIONS (" + strings.Join(parts, ", ") + ")"
}

// --- Rule ---

func generateCreateRulesSQL(rules []*ir.Rule, targetSchema string, collector *diffCollector) {
	sortByName(rules, func(r *ir.Rule) string { return r.GetObjectName() })
	for _, r := range rules {
		stmt := fmt.Sprintf("CREATE RULE %s AS ON %s TO %s", quoteIdentifier(r.Name), r.Event, qualifyName(r.Schema, r.Table))
		if r.Condition != "" {
			stmt += fmt.Sprintf(" WHERE %s", r.Condition)
		}
		if r.Instead {
			stmt += " DO INSTEAD"
		} else {
			stmt += " DO"
		}
		if len(r.Actions) == 0 {
			stmt += " NOTHING;"
		} else if len(r.Actions) == 1 {
			stmt += " " + r.Actions[0] + ";"
		} else {
			stmt += " (" + strings.Join(r.Actions, "; ") + ");"
		}
		collector.collect(&diffContext{Type: DiffTypeRule, Operation: DiffOperationCreate, Path: fmt.Sprintf("rules.%s.%s", r.Table, r.Name), Source: r, CanRunInTransaction: true}, stmt)
	}
}

func generateDropRulesSQL(rules []*ir.Rule, targetSchema string, collector *diffCollector) {
	sortByName(rules, func(r *ir.Rule) string { return r.GetObjectName() })
	for _, r := range rules {
		stmt := fmt.Sprintf("DROP RULE IF EXISTS %s ON %s;", quoteIdentifier(r.Name), qualifyName(r.Schema, r.Table))
		collector.collect(&diffContext{Type: DiffTypeRule, Operation: DiffOperationDrop, Path: fmt.Sprintf("rules.%s.%s", r.Table, r.Name), Source: r, CanRunInTransaction: true}, stmt)
	}
}

// --- Collation ---

func generateCreateCollationsSQL(collations []*ir.Collation, targetSchema string, collector *diffCollector) {
	sortByName(collations, func(c *ir.Collation) string { return c.Name })
	for _, c := range collations {
		var opts []string
		if c.Provider != "" {
			opts = append(opts, fmt.Sprintf("PROVIDER = %s", c.Provider))
		}
		if c.Locale != "" {
			opts = append(opts, fmt.Sprintf("LOCALE = '%s'", c.Locale))
		} else {
			if c.LcCollate != "" {
				opts = append(opts, fmt.Sprintf("LC_COLLATE = '%s'", c.LcCollate))
			}
			if c.LcCtype != "" {
				opts = append(opts, fmt.Sprintf("LC_CTYPE = '%s'", c.LcCtype))
			}
		}
		if c.Deterministic {
			opts = append(opts, "DETERMINISTIC = true")
		}
		stmt := fmt.Sprintf("CREATE COLLATION %s (%s);", qualifyName(c.Schema, c.Name), strings.Join(opts, ", "))
		collector.collect(&diffContext{Type: DiffTypeCollation, Operation: DiffOperationCreate, Path: fmt.Sprintf("collations.%s", c.Name), Source: c, CanRunInTransaction: true}, stmt)
	}
}

func generateDropCollationsSQL(collations []*ir.Collation, targetSchema string, collector *diffCollector) {
	sortByName(collations, func(c *ir.Collation) string { return c.Name })
	for _, c := range collations {
		stmt := fmt.Sprintf("DROP COLLATION IF EXISTS %s;", qualifyName(c.Schema, c.Name))
		collector.collect(&diffContext{Type: DiffTypeCollation, Operation: DiffOperationDrop, Path: fmt.Sprintf("collations.%s", c.Name), Source: c, CanRunInTransaction: true}, stmt)
	}
}

// --- EventTrigger ---

func generateCreateEventTriggersSQL(triggers []*ir.EventTrigger, targetSchema string, collector *diffCollector) {
	sortByName(triggers, func(t *ir.EventTrigger) string { return t.Name })
	for _, t := range triggers {
		stmt := fmt.Sprintf("CREATE EVENT TRIGGER %s ON %s", quoteIdentifier(t.Name), t.Event)
		if len(t.Tags) > 0 {
			quoted := make([]string, len(t.Tags))
			for i, tag := range t.Tags {
				quoted[i] = fmt.Sprintf("'%s'", tag)
			}
			stmt += fmt.Sprintf(" WHEN TAG IN (%s)", strings.Join(quoted, ", "))
		}
		stmt += fmt.Sprintf(" EXECUTE FUNCTION %s();", t.Function)
		collector.collect(&diffContext{Type: DiffTypeEventTrigger, Operation: DiffOperationCreate, Path: fmt.Sprintf("event_triggers.%s", t.Name), Source: t, CanRunInTransaction: true}, stmt)

		if t.Enabled != "" && t.Enabled != "O" {
			mode := map[string]string{"D": "DISABLE", "R": "ENABLE REPLICA", "A": "ENABLE ALWAYS"}[t.Enabled]
			if mode != "" {
				alter := fmt.Sprintf("ALTER EVENT TRIGGER %s %s;", quoteIdentifier(t.Name), mode)
				collector.collect(&diffContext{Type: DiffTypeEventTrigger, Operation: DiffOperationAlter, Path: fmt.Sprintf("event_triggers.%s", t.Name), Source: t, CanRunInTransaction: true}, alter)
			}
		}
	}
}

func generateDropEventTriggersSQL(triggers []*ir.EventTrigger, targetSchema string, collector *diffCollector) {
	sortByName(triggers, func(t *ir.EventTrigger) string { return t.Name })
	for _, t := range triggers {
		stmt := fmt.Sprintf("DROP EVENT TRIGGER IF EXISTS %s;", quoteIdentifier(t.Name))
		collector.collect(&diffContext{Type: DiffTypeEventTrigger, Operation: DiffOperationDrop, Path: fmt.Sprintf("event_triggers.%s", t.Name), Source: t, CanRunInTransaction: true}, stmt)
	}
}

// --- Role ---

func generateCreateRolesSQL(roles []*ir.Role, targetSchema string, collector *diffCollector) {
	sortByName(roles, func(r *ir.Role) string { return r.Name })
	for _, r := range roles {
		var opts []string
		if r.Superuser {
			opts = append(opts, "SUPERUSER")
		}
		if r.CreateDB {
			opts = append(opts, "CREATEDB")
		}
		if r.CreateRole {
			opts = append(opts, "CREATEROLE")
		}
		if r.Login {
			opts = append(opts, "LOGIN")
		}
		if r.Replication {
			opts = append(opts, "REPLICATION")
		}
		if r.ConnectionLimit != 0 {
			opts = append(opts, fmt.Sprintf("CONNECTION LIMIT %d", r.ConnectionLimit))
		}
		stmt := fmt.Sprintf("CREATE ROLE %s", quoteIdentifier(r.Name))
		if len(opts) > 0 {
			stmt += " WITH " + strings.Join(opts, " ")
		}
		stmt += ";"
		collector.collect(&diffContext{Type: DiffTypeRole, Operation: DiffOperationCreate, Path: fmt.Sprintf("roles.%s", r.Name), Source: r, CanRunInTransaction: true}, stmt)

		for _, group := range r.MemberOf {
			grant := fmt.Sprintf("GRANT %s TO %s;", quoteIdentifier(group), quoteIdentifier(r.Name))
			collector.collect(&diffContext{Type: DiffTypeRole, Operation: DiffOperationAlter, Path: fmt.Sprintf("roles.%s.membership.%s", r.Name, group), Source: r, CanRunInTransaction: true}, grant)
		}
	}
}

func generateDropRolesSQL(roles []*ir.Role, targetSchema string, collector *diffCollector) {
	sortByName(roles, func(r *ir.Role) string { return r.Name })
	for _, r := range roles {
		stmt := fmt.Sprintf("DROP ROLE IF EXISTS %s;", quoteIdentifier(r.Name))
		collector.collect(&diffContext{Type: DiffTypeRole, Operation: DiffOperationDrop, Path: fmt.Sprintf("roles.%s", r.Name), Source: r, CanRunInTransaction: true}, stmt)
	}
}

// --- Tablespace ---

func generateCreateTablespacesSQL(tablespaces []*ir.Tablespace, targetSchema string, collector *diffCollector) {
	sortByName(tablespaces, func(t *ir.Tablespace) string { return t.Name })
	for _, t := range tablespaces {
		stmt := fmt.Sprintf("CREATE TABLESPACE %s", quoteIdentifier(t.Name))
		if t.Owner != "" {
			stmt += fmt.Sprintf(" OWNER %s", quoteIdentifier(t.Owner))
		}
		stmt += fmt.Sprintf(" LOCATION '%s';", t.Location)
		collector.collect(&diffContext{Type: DiffTypeTablespace, Operation: DiffOperationCreate, Path: fmt.Sprintf("tablespaces.%s", t.Name), Source: t, CanRunInTransaction: false}, stmt)
	}
}

func generateDropTablespacesSQL(tablespaces []*ir.Tablespace, targetSchema string, collector *diffCollector) {
	sortByName(tablespaces, func(t *ir.Tablespace) string { return t.Name })
	for _, t := range tablespaces {
		stmt := fmt.Sprintf("DROP TABLESPACE IF EXISTS %s;", quoteIdentifier(t.Name))
		collector.collect(&diffContext{Type: DiffTypeTablespace, Operation: DiffOperationDrop, Path: fmt.Sprintf("tablespaces.%s", t.Name), Source: t, CanRunInTransaction: false}, stmt)
	}
}

// --- Publication ---

func generateCreatePublicationsSQL(pubs []*ir.Publication, targetSchema string, collector *diffCollector) {
	sortByName(pubs, func(p *ir.Publication) string { return p.Name })
	for _, p := range pubs {
		stmt := fmt.Sprintf("CREATE PUBLICATION %s", quoteIdentifier(p.Name))
		if p.AllTables || len(p.Tables) == 0 {
			stmt += " FOR ALL TABLES"
		} else {
			stmt += " FOR TABLE " + strings.Join(p.Tables, ", ")
		}
		var actions []string
		if p.Insert {
			actions = append(actions, "insert")
		}
		if p.Update {
			actions = append(actions, "update")
		}
		if p.Delete {
			actions = append(actions, "delete")
		}
		if p.Truncate {
			actions = append(actions, "truncate")
		}
		if len(actions) > 0 {
			stmt += fmt.Sprintf(" WITH (publish = '%s')", strings.Join(actions, ", "))
		}
		stmt += ";"
		collector.collect(&diffContext{Type: DiffTypePublication, Operation: DiffOperationCreate, Path: fmt.Sprintf("publications.%s", p.Name), Source: p, CanRunInTransaction: true}, stmt)
	}
}

func generateDropPublicationsSQL(pubs []*ir.Publication, targetSchema string, collector *diffCollector) {
	sortByName(pubs, func(p *ir.Publication) string { return p.Name })
	for _, p := range pubs {
		stmt := fmt.Sprintf("DROP PUBLICATION IF EXISTS %s;", quoteIdentifier(p.Name))
		collector.collect(&diffContext{Type: DiffTypePublication, Operation: DiffOperationDrop, Path: fmt.Sprintf("publications.%s", p.Name), Source: p, CanRunInTransaction: true}, stmt)
	}
}

// --- Subscription ---

func generateCreateSubscriptionsSQL(subs []*ir.Subscription, targetSchema string, collector *diffCollector) {
	sortByName(subs, func(s *ir.Subscription) string { return s.Name })
	for _, s := range subs {
		stmt := fmt.Sprintf("CREATE SUBSCRIPTION %s CONNECTION '%s' PUBLICATION %s", quoteIdentifier(s.Name), s.Connection, strings.Join(s.Publications, ", "))
		if !s.Enabled {
			stmt += " WITH (enabled = false)"
		}
		stmt += ";"
		collector.collect(&diffContext{Type: DiffTypeSubscription, Operation: DiffOperationCreate, Path: fmt.Sprintf("subscriptions.%s", s.Name), Source: s, CanRunInTransaction: false}, stmt)
	}
}

func generateDropSubscriptionsSQL(subs []*ir.Subscription, targetSchema string, collector *diffCollector) {
	sortByName(subs, func(s *ir.Subscription) string { return s.Name })
	for _, s := range subs {
		stmt := fmt.Sprintf("DROP SUBSCRIPTION IF EXISTS %s;", quoteIdentifier(s.Name))
		collector.collect(&diffContext{Type: DiffTypeSubscription, Operation: DiffOperationDrop, Path: fmt.Sprintf("subscriptions.%s", s.Name), Source: s, CanRunInTransaction: false}, stmt)
	}
}

// --- ForeignDataWrapper / ForeignServer / ForeignTable ---

func generateCreateForeignDataWrappersSQL(fdws []*ir.ForeignDataWrapper, targetSchema string, collector *diffCollector) {
	sortByName(fdws, func(f *ir.ForeignDataWrapper) string { return f.Name })
	for _, f := range fdws {
		stmt := fmt.Sprintf("CREATE FOREIGN DATA WRAPPER %s", quoteIdentifier(f.Name))
		if f.Handler != "" {
			stmt += fmt.Sprintf(" HANDLER %s", f.Handler)
		}
		if f.Validator != "" {
			stmt += fmt.Sprintf(" VALIDATOR %s", f.Validator)
		}
		stmt += quoteOptionsClause(f.Options) + ";"
		collector.collect(&diffContext{Type: DiffTypeForeignDataWrapper, Operation: DiffOperationCreate, Path: fmt.Sprintf("foreign_data_wrappers.%s", f.Name), Source: f, CanRunInTransaction: true}, stmt)
	}
}

func generateDropForeignDataWrappersSQL(fdws []*ir.ForeignDataWrapper, targetSchema string, collector *diffCollector) {
	sortByName(fdws, func(f *ir.ForeignDataWrapper) string { return f.Name })
	for _, f := range fdws {
		stmt := fmt.Sprintf("DROP FOREIGN DATA WRAPPER IF EXISTS %s;", quoteIdentifier(f.Name))
		collector.collect(&diffContext{Type: DiffTypeForeignDataWrapper, Operation: DiffOperationDrop, Path: fmt.Sprintf("foreign_data_wrappers.%s", f.Name), Source: f, CanRunInTransaction: true}, stmt)
	}
}

func generateCreateForeignServersSQL(servers []*ir.ForeignServer, targetSchema string, collector *diffCollector) {
	sortByName(servers, func(s *ir.ForeignServer) string { return s.Name })
	for _, s := range servers {
		stmt := fmt.Sprintf("CREATE SERVER %s", quoteIdentifier(s.Name))
		if s.Type != "" {
			stmt += fmt.Sprintf(" TYPE '%s'", s.Type)
		}
		if s.Version != "" {
			stmt += fmt.Sprintf(" VERSION '%s'", s.Version)
		}
		stmt += fmt.Sprintf(" FOREIGN DATA WRAPPER %s", s.Wrapper)
		stmt += quoteOptionsClause(s.Options) + ";"
		collector.collect(&diffContext{Type: DiffTypeForeignServer, Operation: DiffOperationCreate, Path: fmt.Sprintf("foreign_servers.%s", s.Name), Source: s, CanRunInTransaction: true}, stmt)
	}
}

func generateDropForeignServersSQL(servers []*ir.ForeignServer, targetSchema string, collector *diffCollector) {
	sortByName(servers, func(s *ir.ForeignServer) string { return s.Name })
	for _, s := range servers {
		stmt := fmt.Sprintf("DROP SERVER IF EXISTS %s;", quoteIdentifier(s.Name))
		collector.collect(&diffContext{Type: DiffTypeForeignServer, Operation: DiffOperationDrop, Path: fmt.Sprintf("foreign_servers.%s", s.Name), Source: s, CanRunInTransaction: true}, stmt)
	}
}

func generateCreateForeignTablesSQL(tables []*ir.ForeignTable, targetSchema string, collector *diffCollector) {
	sortByName(tables, func(t *ir.ForeignTable) string { return t.Name })
	for _, t := range tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = fmt.Sprintf("%s %s", quoteIdentifier(c.Name), c.DataType)
		}
		stmt := fmt.Sprintf("CREATE FOREIGN TABLE %s (%s) SERVER %s", qualifyName(t.Schema, t.Name), strings.Join(cols, ", "), t.Server)
		stmt += quoteOptionsClause(t.Options) + ";"
		collector.collect(&diffContext{Type: DiffTypeForeignTable, Operation: DiffOperationCreate, Path: fmt.Sprintf("foreign_tables.%s", t.Name), Source: t, CanRunInTransaction: true}, stmt)
	}
}

func generateDropForeignTablesSQL(tables []*ir.ForeignTable, targetSchema string, collector *diffCollector) {
	sortByName(tables, func(t *ir.ForeignTable) string { return t.Name })
	for _, t := range tables {
		stmt := fmt.Sprintf("DROP FOREIGN TABLE IF EXISTS %s;", qualifyName(t.Schema, t.Name))
		collector.collect(&diffContext{Type: DiffTypeForeignTable, Operation: DiffOperationDrop, Path: fmt.Sprintf("foreign_tables.%s", t.Name), Source: t, CanRunInTransaction: true}, stmt)
	}
}

func sortByName[V any](items []*V, key func(*V) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}

func qualifyName(schema, name string) string {
	if schema == "" || schema == "public" {
		return quoteIdentifier(name)
	}
	return quoteIdentifier(schema) + "." + quoteIdentifier(name)
}
