package dialect_test

import (
	"testing"

	"supabase-clone/internal/dialect"
)

func TestMapType(t *testing.T) {
	d := dialect.GetDialect("postgres")

	tests := map[string]string{
		"string":    "TEXT",
		"integer":   "INTEGER",
		"number":    "NUMERIC",
		"numeric":   "NUMERIC",
		"boolean":   "BOOLEAN",
		"array":     "JSONB",
		"object":    "JSONB",
		"uuid":      "UUID",
		"UUID":      "UUID",
		"timestamp": "TIMESTAMPTZ",
		"date":      "DATE",
		"time":      "TIME",
		"bigint":    "BIGINT",
		"unknown":   "TEXT",
		"geography": "TEXT",
	}
	for in, want := range tests {
		if got := d.MapType(in); got != want {
			t.Errorf("MapType(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	d := &dialect.PostgresDialect{}

	tests := map[string]string{
		"int4":        "integer",
		"int8":        "bigint",
		"timestamptz": "timestamp",
		"jsonb":       "object",
		"_text":       "array",
		"varchar":     "string",
		"tsvector":    "unknown",
	}
	for in, want := range tests {
		if got := d.NormalizeType(in); got != want {
			t.Errorf("NormalizeType(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestQualifiedName(t *testing.T) {
	d := &dialect.PostgresDialect{}

	if got := d.QualifiedName("", "users"); got != `"public"."users"` {
		t.Errorf("unexpected qualified name: %s", got)
	}
	if got := d.QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("unexpected quoted identifier: %s", got)
	}
}

func TestGetDialect_Unknown(t *testing.T) {
	if d := dialect.GetDialect("oracle"); d != nil {
		t.Errorf("expected nil dialect for oracle, got %T", d)
	}
}
