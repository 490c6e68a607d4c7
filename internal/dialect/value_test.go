package dialect_test

import (
	"encoding/json"
	"testing"

	"supabase-clone/internal/dialect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDefault(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"now()", "now()"},
		{"gen_random_uuid()", "gen_random_uuid()"},
		{"5", "5"},
		{"3.14", "3.14"},
		{"-2", "-2"},
		{"0", "0"},
		{"false", "false"},
		{"true", "true"},
		{"TRUE", "TRUE"},
		{"NULL", "NULL"},
		{"null", "null"},
		{"hello", "'hello'"},
		{"'quoted'", "'quoted'"},
		{`"ident"`, `"ident"`},
		{"'active'::text", "'active'::text"},
		{"  padded  ", "'padded'"},
		{"NaN", "'NaN'"},
		{"Infinity", "'Infinity'"},
		{"0x1F", "'0x1F'"},
		{"0x1Fp0", "'0x1Fp0'"},
		{"1_000", "'1_000'"},
		{"-2.5", "-2.5"},
		{"1e3", "1e3"},
		{"it's", "'it''s'"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, dialect.FormatDefault(tt.raw))
		})
	}
}

func TestParseDefaultKinds(t *testing.T) {
	assert.Equal(t, dialect.KindExpr, dialect.ParseDefault("now()").Kind)
	assert.Equal(t, dialect.KindNumber, dialect.ParseDefault("0").Kind)
	assert.Equal(t, dialect.KindBool, dialect.ParseDefault("false").Kind)
	assert.Equal(t, dialect.KindNull, dialect.ParseDefault("NULL").Kind)
	assert.Equal(t, dialect.KindText, dialect.ParseDefault("pending").Kind)
}

func TestValueFromJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		kind     dialect.Kind
		expected string
	}{
		{"string with quote", `"O'Brien"`, dialect.KindText, `'O''Brien'`},
		{"null", `null`, dialect.KindNull, `NULL`},
		{"object", `{"a": 1}`, dialect.KindJSON, `'{"a":1}'`},
		{"array", `[1, "x's"]`, dialect.KindJSON, `'[1,"x''s"]'`},
		{"integer", `42`, dialect.KindNumber, `42`},
		{"float", `-1.5e3`, dialect.KindNumber, `-1.5e3`},
		{"bool", `true`, dialect.KindBool, `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := dialect.ValueFromJSON(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.expected, dialect.Literal(v))
		})
	}
}

func TestValueFromJSON_Invalid(t *testing.T) {
	_, err := dialect.ValueFromJSON(json.RawMessage(`{"a":`))
	assert.Error(t, err)
}

func TestLiteral_EmptyValueIsNull(t *testing.T) {
	var v dialect.Value
	assert.Equal(t, "NULL", dialect.Literal(v))
}
