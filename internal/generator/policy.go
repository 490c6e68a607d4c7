package generator

import (
	"fmt"
	"strings"

	"supabase-clone/internal/schema"
)

// SkippedPolicy is a policy that could not be turned into a usable statement.
type SkippedPolicy struct {
	Name    string
	Schema  string
	Table   string
	Command schema.PolicyCommand
	Check   string
}

// CleanPolicyExpression strips one enclosing pair of parentheses, as
// pg_policies wraps every predicate in one. "(a) AND (b)" is left alone
// because its first parenthesis closes before the end.
func CleanPolicyExpression(expression string) string {
	trimmed := strings.TrimSpace(expression)
	if !strings.HasPrefix(trimmed, "(") || !strings.HasSuffix(trimmed, ")") {
		return trimmed
	}

	depth := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i < len(trimmed)-1 {
			return trimmed
		}
	}
	return strings.TrimSpace(trimmed[1 : len(trimmed)-1])
}

// isUndefined reports whether a predicate is missing for generation purposes.
func isUndefined(expr string) bool {
	t := strings.TrimSpace(expr)
	return t == "" || t == "undefined"
}

// PolicySQL renders one policy. A policy without a usable USING predicate is
// returned as a comment block together with its SkippedPolicy record.
func (g *Generator) PolicySQL(p *schema.Policy) (string, *SkippedPolicy) {
	table := g.d.QualifiedName(p.Schema, p.Table)
	name := g.d.QuoteIdent(p.Name)
	isInsert := p.Command == schema.PolicyCommandInsert

	if isUndefined(p.Definition) {
		skipped := &SkippedPolicy{Name: p.Name, Schema: p.Schema, Table: p.Table, Command: p.Command, Check: p.Check}

		var sb strings.Builder
		fmt.Fprintf(&sb, "-- SKIPPED: %q on %q - USING clause is undefined\n", p.Name, p.Table)
		if isInsert {
			sb.WriteString("-- This is an INSERT-only policy. See the MANUAL ACTION REQUIRED section below.")
		} else {
			fmt.Fprintf(&sb, "-- The source returned no USING expression for this FOR %s policy; recreate it by hand.", p.Command)
		}
		return sb.String(), skipped
	}

	using := CleanPolicyExpression(p.Definition)
	check := ""
	if !isUndefined(p.Check) {
		check = CleanPolicyExpression(p.Check)
	}

	// Policies have no IF NOT EXISTS form, so re-runs drop first.
	var sb strings.Builder
	fmt.Fprintf(&sb, "DROP POLICY IF EXISTS %s ON %s;\n", name, table)
	fmt.Fprintf(&sb, "CREATE POLICY %s\n", name)
	fmt.Fprintf(&sb, "  ON %s\n", table)
	fmt.Fprintf(&sb, "  FOR %s", p.Command)

	if !isInsert || using != "" {
		fmt.Fprintf(&sb, "\n  USING (%s)", using)
	}
	if check != "" && check != "undefined" {
		fmt.Fprintf(&sb, "\n  WITH CHECK (%s)", check)
	}
	sb.WriteString(";")
	return sb.String(), nil
}

// EnableRLSSQL turns on row level security for a table.
func (g *Generator) EnableRLSSQL(schemaName, table string) string {
	return fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY;", g.d.QualifiedName(schemaName, table))
}
