package dialect

// Dialect abstracts database-specific catalog queries and SQL rendering.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	GetTablesQuery(schema string) string
	GetColumnsQuery(schema string) string
	GetForeignKeysQuery(schema string) string
	GetPoliciesQuery(schema string) string

	// Type Mapping
	MapType(abstractType string) string
	NormalizeType(udtName string) string

	// Identifiers
	QuoteIdent(name string) string
	QualifiedName(schema, name string) string
	GetSchemaName(input string) string
}

// GetDialect returns the Dialect for a driver name. Supabase projects only
// run PostgreSQL, so every known alias resolves to the same implementation.
func GetDialect(driver string) Dialect {
	switch driver {
	case "postgres", "postgresql", "pq", "":
		return &PostgresDialect{}
	default:
		return nil
	}
}

// Ensure interface implementation
var _ Dialect = (*PostgresDialect)(nil)
