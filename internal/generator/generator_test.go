package generator_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/generator"
	"supabase-clone/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

func newGenerator() *generator.Generator {
	return generator.New(&dialect.PostgresDialect{}).WithClock(fixedClock)
}

func usersTable() *schema.Table {
	def := dialect.ParseDefault("NULL")
	return &schema.Table{
		SchemaName: "public",
		Name:       "users",
		Columns: []*schema.Column{
			{Name: "id", AbstractType: "uuid", Nullable: false},
			{Name: "email", AbstractType: "string", Nullable: true, Default: &def},
		},
	}
}

func TestGenerate_UsersScenario(t *testing.T) {
	policies := []*schema.Policy{
		{Schema: "public", Table: "users", Name: "read own", Command: schema.PolicyCommandSelect, Definition: "(auth.uid() = id)"},
	}

	doc := newGenerator().Generate([]*schema.Table{usersTable()}, policies, nil,
		generator.Options{Kind: generator.KindSchema, IncludeRLS: true})

	assert.Contains(t, doc.SQL, `CREATE TABLE IF NOT EXISTS "public"."users" ("id" UUID NOT NULL, "email" TEXT)`)
	assert.Contains(t, doc.SQL, "USING (auth.uid() = id)")
	assert.Contains(t, doc.SQL, `ALTER TABLE "public"."users" ENABLE ROW LEVEL SECURITY;`)
	assert.NotContains(t, doc.SQL, "MANUAL ACTION REQUIRED")
	assert.False(t, doc.NeedsManualAction())

	assert.Contains(t, doc.SQL, "-- Generated: 2026-10-17T12:00:00Z\n")
	assert.Contains(t, doc.SQL, "-- Migration Type: schema\n")
	assert.Contains(t, doc.SQL, "-- Tables: 1\n")
	assert.Contains(t, doc.SQL, "-- RLS Policies: 1\n")
	assert.True(t, strings.HasSuffix(doc.SQL, "-- Migration completed\n"))
}

func TestGenerate_SkippedInsertPolicies(t *testing.T) {
	policies := []*schema.Policy{
		{Schema: "public", Table: "users", Name: "read", Command: schema.PolicyCommandSelect, Definition: "(true)"},
		{Schema: "public", Table: "users", Name: "signup", Command: schema.PolicyCommandInsert},
		{Schema: "public", Table: "posts", Name: "write post", Command: schema.PolicyCommandInsert, Definition: "undefined", Check: "(auth.uid() = author)"},
		{Schema: "public", Table: "posts", Name: "purge", Command: schema.PolicyCommandDelete},
	}
	tables := []*schema.Table{usersTable(), {SchemaName: "public", Name: "posts", Columns: []*schema.Column{{Name: "author", AbstractType: "uuid"}}}}

	doc := newGenerator().Generate(tables, policies, nil, generator.Options{Kind: generator.KindBoth, IncludeRLS: true})

	require.Len(t, doc.SkippedInsertPolicies, 2)
	require.Len(t, doc.SkippedPolicies, 3)
	assert.True(t, doc.NeedsManualAction())

	for _, name := range []string{"signup", "write post"} {
		assert.Equal(t, 1, strings.Count(doc.SQL, fmt.Sprintf("-- SKIPPED: %q", name)), name)
		assert.Equal(t, 1, strings.Count(doc.SQL, fmt.Sprintf("-- Policy: %q on table", name)), name)
	}

	// non-INSERT skips are commented but not listed for manual creation
	assert.Equal(t, 1, strings.Count(doc.SQL, `-- SKIPPED: "purge"`))
	assert.NotContains(t, doc.SQL, `-- Policy: "purge" on table`)

	assert.Equal(t, 1, strings.Count(doc.SQL, "-- IMPORTANT: MANUAL ACTION REQUIRED"))
	assert.Equal(t, 2, strings.Count(doc.SQL, `on table "`))
	assert.Contains(t, doc.SQL, "-- Total INSERT policies requiring manual creation: 2\n")
	assert.Contains(t, doc.SQL, "-- 6. Set the WITH CHECK expression to: auth.uid() = author\n")

	// one ENABLE per table that owns policies, in catalog order
	usersAt := strings.Index(doc.SQL, `ALTER TABLE "public"."users" ENABLE`)
	postsAt := strings.Index(doc.SQL, `ALTER TABLE "public"."posts" ENABLE`)
	assert.True(t, usersAt > 0 && postsAt > usersAt)
	assert.Equal(t, 2, strings.Count(doc.SQL, "ENABLE ROW LEVEL SECURITY"))

	// the manual block comes after every policy statement
	assert.Greater(t, strings.Index(doc.SQL, "-- IMPORTANT: MANUAL ACTION REQUIRED"), strings.LastIndex(doc.SQL, "-- SKIPPED:"))
}

func TestGenerate_ZeroTables(t *testing.T) {
	for _, kind := range []generator.MigrationKind{generator.KindSchema, generator.KindData, generator.KindBoth} {
		doc := newGenerator().Generate(nil, nil, map[string][]schema.Row{}, generator.Options{Kind: kind})

		assert.NotContains(t, doc.SQL, "CREATE TABLE")
		assert.NotContains(t, doc.SQL, "INSERT INTO")
		assert.Contains(t, doc.SQL, "-- Tables: 0\n")
		assert.True(t, strings.HasSuffix(doc.SQL, "-- Migration completed\n"))
		for _, line := range strings.Split(strings.TrimSpace(doc.SQL), "\n") {
			assert.True(t, strings.HasPrefix(line, "--"), "unexpected line %q", line)
		}
	}
}

func TestGenerate_NoSkipStateLeaksBetweenCalls(t *testing.T) {
	g := newGenerator()
	tables := []*schema.Table{usersTable()}
	opts := generator.Options{Kind: generator.KindSchema, IncludeRLS: true}

	first := g.Generate(tables, []*schema.Policy{
		{Schema: "public", Table: "users", Name: "legacy_insert", Command: schema.PolicyCommandInsert},
	}, nil, opts)
	require.True(t, first.NeedsManualAction())

	second := g.Generate(tables, []*schema.Policy{
		{Schema: "public", Table: "users", Name: "read", Command: schema.PolicyCommandSelect, Definition: "(true)"},
	}, nil, opts)

	assert.False(t, second.NeedsManualAction())
	assert.Empty(t, second.SkippedPolicies)
	assert.NotContains(t, second.SQL, "legacy_insert")
	assert.NotContains(t, second.SQL, "MANUAL ACTION REQUIRED")

	// the first document is unaffected by the second call
	assert.Len(t, first.SkippedInsertPolicies, 1)
}

func TestGenerate_RLSOnlyWhenRequested(t *testing.T) {
	policies := []*schema.Policy{{Schema: "public", Table: "users", Name: "read", Command: schema.PolicyCommandSelect, Definition: "(true)"}}

	doc := newGenerator().Generate([]*schema.Table{usersTable()}, policies, nil, generator.Options{Kind: generator.KindSchema})

	assert.NotContains(t, doc.SQL, "ROW LEVEL SECURITY")
	assert.NotContains(t, doc.SQL, "-- RLS Policies")
}

func TestGenerate_DataSection(t *testing.T) {
	tables := []*schema.Table{
		usersTable(),
		{SchemaName: "public", Name: "empty", Columns: []*schema.Column{{Name: "x", AbstractType: "integer"}}},
	}
	data := map[string][]schema.Row{
		"users": {
			{"id": dialect.Text("6f1c"), "email": dialect.Text("O'Brien@example.com")},
			{"id": dialect.Text("7a2d")},
		},
		"empty": {},
	}

	doc := newGenerator().Generate(tables, nil, data, generator.Options{Kind: generator.KindData})

	assert.NotContains(t, doc.SQL, "CREATE TABLE")
	assert.Contains(t, doc.SQL, "-- Data for table: users (2 rows)\n")
	assert.Contains(t, doc.SQL, "INSERT INTO \"public\".\"users\" (\"id\", \"email\")\nVALUES\n"+
		"  ('6f1c', 'O''Brien@example.com'),\n"+
		"  ('7a2d', NULL)\n"+
		"ON CONFLICT DO NOTHING;")
	assert.NotContains(t, doc.SQL, `"public"."empty"`)
}

func TestGenerate_SchemaKindIgnoresRows(t *testing.T) {
	data := map[string][]schema.Row{"users": {{"id": dialect.Text("1")}}}

	doc := newGenerator().Generate([]*schema.Table{usersTable()}, nil, data, generator.Options{Kind: generator.KindSchema})

	assert.NotContains(t, doc.SQL, "INSERT INTO")
}

func TestCreateTableSQL_DefaultsAndPrimaryKey(t *testing.T) {
	created := dialect.ParseDefault("now()")
	status := dialect.ParseDefault("pending")
	count := dialect.ParseDefault("0")
	table := &schema.Table{
		SchemaName: "app",
		Name:       "Orders",
		Columns: []*schema.Column{
			{Name: "id", AbstractType: "bigint", IsPK: true},
			{Name: "created_at", AbstractType: "timestamp", Nullable: true, Default: &created},
			{Name: "status", AbstractType: "string", Default: &status},
			{Name: "count", AbstractType: "integer", Default: &count},
			{Name: "meta", AbstractType: "object", Nullable: true},
		},
	}

	got := newGenerator().CreateTableSQL(table)

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "app"."Orders" (`+
		`"id" BIGINT NOT NULL, `+
		`"created_at" TIMESTAMPTZ DEFAULT now(), `+
		`"status" TEXT NOT NULL DEFAULT 'pending', `+
		`"count" INTEGER NOT NULL DEFAULT 0, `+
		`"meta" JSONB, `+
		`PRIMARY KEY ("id"));`, got)
}

func TestCreateTableSQL_PanicsOnUnnamedColumn(t *testing.T) {
	table := &schema.Table{Name: "broken", Columns: []*schema.Column{{AbstractType: "string"}}}
	assert.Panics(t, func() { newGenerator().CreateTableSQL(table) })
}

func TestInsertDataSQL_FakeRows(t *testing.T) {
	faker := gofakeit.New(42)
	table := &schema.Table{
		SchemaName: "public",
		Name:       "people",
		Columns: []*schema.Column{
			{Name: "name", AbstractType: "string"},
			{Name: "age", AbstractType: "integer"},
			{Name: "active", AbstractType: "boolean"},
			{Name: "bio", AbstractType: "string", Nullable: true},
		},
	}

	var rows []schema.Row
	var names []string
	for i := 0; i < 25; i++ {
		name := faker.LastName() + "'" + faker.FirstName()
		names = append(names, name)
		rows = append(rows, schema.Row{
			"name":   dialect.Text(name),
			"age":    dialect.Number(fmt.Sprint(faker.Number(18, 90))),
			"active": dialect.Bool(faker.Bool()),
			"bio":    dialect.Null(),
		})
	}

	got := newGenerator().InsertDataSQL(table, rows)

	assert.Equal(t, 25, strings.Count(got, "\n  ("))
	for _, name := range names {
		assert.Contains(t, got, dialect.QuoteLiteral(name))
		assert.Contains(t, dialect.QuoteLiteral(name), "''")
	}
	assert.Equal(t, "", newGenerator().InsertDataSQL(table, nil))
}

func TestParseKind(t *testing.T) {
	k, err := generator.ParseKind(" Both ")
	require.NoError(t, err)
	assert.Equal(t, generator.KindBoth, k)
	assert.True(t, k.IncludesData())
	assert.True(t, k.IncludesSchema())

	_, err = generator.ParseKind("everything")
	assert.Error(t, err)
}
