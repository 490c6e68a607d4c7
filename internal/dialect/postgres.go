package dialect

import (
	"strings"

	"github.com/lib/pq"
)

type PostgresDialect struct{}

// typeMap resolves abstract column types to PostgreSQL types.
var typeMap = map[string]string{
	"string":    "TEXT",
	"integer":   "INTEGER",
	"number":    "NUMERIC",
	"numeric":   "NUMERIC",
	"boolean":   "BOOLEAN",
	"array":     "JSONB",
	"object":    "JSONB",
	"uuid":      "UUID",
	"timestamp": "TIMESTAMPTZ",
	"date":      "DATE",
	"time":      "TIME",
	"bigint":    "BIGINT",
	"serial":    "SERIAL",
	"bigserial": "BIGSERIAL",
}

func (d *PostgresDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *PostgresDialect) GetColumnsQuery(schema string) string {
	return `SELECT
    c.table_name,
    c.column_name,
    c.udt_name,
    c.is_nullable,
    c.column_default,
    (SELECT 'PRI' FROM information_schema.table_constraints tc
     JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
     WHERE tc.constraint_type = 'PRIMARY KEY'
     AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name LIMIT 1) AS COLUMN_KEY
FROM information_schema.columns c
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`
}

func (d *PostgresDialect) GetForeignKeysQuery(schema string) string {
	return `SELECT kcu.table_name, kcu.constraint_name, kcu.column_name, ccu.table_name AS referenced_table_name, ccu.column_name AS referenced_column_name FROM information_schema.key_column_usage kcu JOIN information_schema.constraint_column_usage ccu ON kcu.constraint_name = ccu.constraint_name JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name WHERE kcu.table_schema = $1 AND tc.constraint_type = 'FOREIGN KEY'`
}

func (d *PostgresDialect) GetPoliciesQuery(schema string) string {
	return `SELECT schemaname::text, tablename::text, policyname::text, cmd::text, qual::text, with_check::text FROM pg_policies WHERE schemaname = $1 ORDER BY tablename, policyname`
}

// MapType is the single authority for the final SQL type of a column.
// Lookup is case-insensitive; anything unknown becomes TEXT.
func (d *PostgresDialect) MapType(abstractType string) string {
	if t, ok := typeMap[strings.ToLower(strings.TrimSpace(abstractType))]; ok {
		return t
	}
	return "TEXT"
}

// NormalizeType converts a catalog udt_name into the abstract type vocabulary
// shared with the OpenAPI builder.
func (d *PostgresDialect) NormalizeType(udtName string) string {
	t := strings.ToLower(udtName)
	if strings.HasPrefix(t, "_") {
		return "array"
	}
	switch t {
	case "int4", "int2", "integer", "smallint":
		return "integer"
	case "int8", "bigint":
		return "bigint"
	case "numeric", "decimal", "float4", "float8", "money":
		return "numeric"
	case "bool", "boolean":
		return "boolean"
	case "uuid":
		return "uuid"
	case "timestamp", "timestamptz":
		return "timestamp"
	case "date":
		return "date"
	case "time", "timetz":
		return "time"
	case "json", "jsonb":
		return "object"
	case "text", "varchar", "bpchar", "char", "name", "citext":
		return "string"
	default:
		return "unknown"
	}
}

// QuoteIdent always quotes, so mixed-case and reserved names survive the trip.
func (d *PostgresDialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) QualifiedName(schema, name string) string {
	return d.QuoteIdent(d.GetSchemaName(schema)) + "." + d.QuoteIdent(name)
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}
