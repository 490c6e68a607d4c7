package generator

import (
	"fmt"
	"strings"
	"time"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/schema"
)

// MigrationKind selects which sections a migration document contains.
type MigrationKind string

const (
	KindSchema MigrationKind = "schema"
	KindData   MigrationKind = "data"
	KindBoth   MigrationKind = "both"
)

// ParseKind validates a migration kind name.
func ParseKind(s string) (MigrationKind, error) {
	switch k := MigrationKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSchema, KindData, KindBoth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown migration type %q (expected schema, data or both)", s)
	}
}

func (k MigrationKind) IncludesSchema() bool { return k == KindSchema || k == KindBoth }
func (k MigrationKind) IncludesData() bool { return k == KindData || k == KindBoth }

type Options struct {
	Kind       MigrationKind
	IncludeRLS bool
}

// Document is the output of one generation call. Skipped policies belong to
// this document only.
type Document struct {
	SQL                   string
	SkippedPolicies       []SkippedPolicy
	SkippedInsertPolicies []SkippedPolicy
}

// NeedsManualAction reports whether the document lists policies a human must create.
func (d *Document) NeedsManualAction() bool {
	return len(d.SkippedInsertPolicies) > 0
}

// Generator assembles migration documents. It holds no per-run state, so a
// single Generator may serve concurrent runs.
type Generator struct {
	d   dialect.Dialect
	now func() time.Time
}

func New(d dialect.Dialect) *Generator {
	return &Generator{d: d, now: time.Now}
}

// WithClock returns a copy of g that stamps documents with now().
func (g *Generator) WithClock(now func() time.Time) *Generator {
	return &Generator{d: g.d, now: now}
}

const banner = "-- ============================================\n"

// Generate builds the full migration document. data may be nil when no rows
// were fetched; tables without rows are left out of the data section.
func (g *Generator) Generate(tables []*schema.Table, policies []*schema.Policy, data map[string][]schema.Row, opts Options) *Document {
	doc := &Document{}
	var sb strings.Builder

	sb.WriteString(banner)
	sb.WriteString("-- SUPABASE MIGRATION FILE\n")
	fmt.Fprintf(&sb, "-- Generated: %s\n", g.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "-- Migration Type: %s\n", opts.Kind)
	fmt.Fprintf(&sb, "-- Tables: %d\n", len(tables))
	if opts.IncludeRLS {
		fmt.Fprintf(&sb, "-- RLS Policies: %d\n", len(policies))
	}
	sb.WriteString(banner)

	if opts.Kind.IncludesSchema() && len(tables) > 0 {
		section(&sb, "SCHEMA MIGRATION")
		for _, t := range tables {
			fmt.Fprintf(&sb, "-- Table: %s\n", t.Name)
			sb.WriteString(g.CreateTableSQL(t))
			sb.WriteString("\n\n")
		}

		if opts.IncludeRLS && len(policies) > 0 {
			g.writePolicies(&sb, doc, policies)
		}
	}

	if opts.Kind.IncludesData() && hasRows(tables, data) {
		section(&sb, "DATA MIGRATION")
		for _, t := range tables {
			rows := data[t.Name]
			if len(rows) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "-- Data for table: %s (%d rows)\n", t.Name, len(rows))
			sb.WriteString(g.InsertDataSQL(t, rows))
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("-- Migration completed\n")
	doc.SQL = sb.String()
	return doc
}

func (g *Generator) writePolicies(sb *strings.Builder, doc *Document, policies []*schema.Policy) {
	section(sb, "ROW LEVEL SECURITY POLICIES")

	type tableKey struct{ schema, table string }
	var order []tableKey
	grouped := make(map[tableKey][]*schema.Policy)
	for _, p := range policies {
		k := tableKey{g.d.GetSchemaName(p.Schema), p.Table}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], p)
	}

	for _, k := range order {
		fmt.Fprintf(sb, "-- Enable RLS on %s\n", k.table)
		sb.WriteString(g.EnableRLSSQL(k.schema, k.table))
		sb.WriteString("\n\n")

		for _, p := range grouped[k] {
			stmt, skipped := g.PolicySQL(p)
			if skipped != nil {
				doc.SkippedPolicies = append(doc.SkippedPolicies, *skipped)
				if skipped.Command == schema.PolicyCommandInsert {
					doc.SkippedInsertPolicies = append(doc.SkippedInsertPolicies, *skipped)
				}
			}
			fmt.Fprintf(sb, "-- Policy: %s\n", p.Name)
			sb.WriteString(stmt)
			sb.WriteString("\n\n")
		}
	}

	if len(doc.SkippedInsertPolicies) > 0 {
		writeManualActions(sb, doc.SkippedInsertPolicies)
	}
}

func writeManualActions(sb *strings.Builder, skipped []SkippedPolicy) {
	sb.WriteString("\n" + banner)
	sb.WriteString("-- IMPORTANT: MANUAL ACTION REQUIRED\n")
	sb.WriteString(banner)
	sb.WriteString("-- The following INSERT policies could not be migrated automatically:\n")
	sb.WriteString("-- the source catalog did not expose a usable expression for them.\n")
	sb.WriteString("--\n")
	sb.WriteString("-- YOU MUST MANUALLY CREATE THESE POLICIES:\n")
	sb.WriteString(banner + "\n")

	for _, p := range skipped {
		fmt.Fprintf(sb, "-- Policy: %q on table %q\n", p.Name, p.Table)
		sb.WriteString("-- To create this policy:\n")
		sb.WriteString("-- 1. Open the target project's dashboard: Authentication > Policies\n")
		fmt.Fprintf(sb, "-- 2. Find the %q table\n", p.Table)
		sb.WriteString("-- 3. Click \"New Policy\"\n")
		sb.WriteString("-- 4. Select \"For INSERT operations\"\n")
		fmt.Fprintf(sb, "-- 5. Name it: %q\n", p.Name)
		if strings.TrimSpace(p.Check) != "" && p.Check != "undefined" {
			fmt.Fprintf(sb, "-- 6. Set the WITH CHECK expression to: %s\n\n", CleanPolicyExpression(p.Check))
		} else {
			sb.WriteString("-- 6. Set the WITH CHECK expression based on your source project's policy\n")
			sb.WriteString("--    (Check your source project to see what the WITH CHECK clause should be)\n\n")
		}
	}

	sb.WriteString(banner)
	fmt.Fprintf(sb, "-- Total INSERT policies requiring manual creation: %d\n", len(skipped))
	sb.WriteString(banner + "\n")
}

// CreateTableSQL renders an idempotent CREATE TABLE statement on one line.
func (g *Generator) CreateTableSQL(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		if c.Name == "" {
			panic(fmt.Sprintf("generator: table %s has a column without a name", t.Name))
		}
		def := g.d.QuoteIdent(c.Name) + " " + g.d.MapType(c.AbstractType)
		if !c.Nullable {
			def += " NOT NULL"
		}
		// DEFAULT NULL restates the implicit default and is left out.
		if c.Default != nil && !c.Default.IsNull() {
			def += " DEFAULT " + dialect.Literal(*c.Default)
		}
		defs = append(defs, def)
	}

	if pk := t.PrimaryKey(); len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+g.quoteList(pk)+")")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", g.d.QualifiedName(t.SchemaName, t.Name), strings.Join(defs, ", "))
}

// InsertDataSQL renders one multi-row INSERT for a table. Columns missing
// from a row are written as NULL.
func (g *Generator) InsertDataSQL(t *schema.Table, rows []schema.Row) string {
	if len(rows) == 0 {
		return ""
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		vals := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			v, ok := row[c.Name]
			if !ok {
				v = dialect.Null()
			}
			vals[j] = dialect.Literal(v)
		}
		values[i] = "  (" + strings.Join(vals, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s)\nVALUES\n%s\nON CONFLICT DO NOTHING;",
		g.d.QualifiedName(t.SchemaName, t.Name), g.quoteList(cols), strings.Join(values, ",\n"))
}

func (g *Generator) quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = g.d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func section(sb *strings.Builder, title string) {
	sb.WriteString("\n" + banner)
	sb.WriteString("-- " + title + "\n")
	sb.WriteString(banner + "\n")
}

func hasRows(tables []*schema.Table, data map[string][]schema.Row) bool {
	for _, t := range tables {
		if len(data[t.Name]) > 0 {
			return true
		}
	}
	return false
}
