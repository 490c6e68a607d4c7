package schema

import (
	"strings"

	"supabase-clone/internal/dialect"
)

type Table struct {
	SchemaName   string
	Name         string
	Columns      []*Column
	Constraints  []*Constraint
	Indexes      []*Index
	Policies     []*Policy
	ForeignKeys  []*ForeignKey
	Dependencies []string // referenced tables, used for ordering
}

type Column struct {
	Name         string
	AbstractType string         // loose hint such as "uuid" or "string"; dialect.MapType decides the SQL type
	Nullable     bool
	Default      *dialect.Value // nil when the column has no default
	IsPK         bool
}

type Constraint struct {
	Name       string
	Type       string
	Definition string
}

type Index struct {
	Name       string
	Definition string
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// PolicyCommand is the command a row level security policy applies to.
type PolicyCommand string

const (
	PolicyCommandAll    PolicyCommand = "ALL"
	PolicyCommandSelect PolicyCommand = "SELECT"
	PolicyCommandInsert PolicyCommand = "INSERT"
	PolicyCommandUpdate PolicyCommand = "UPDATE"
	PolicyCommandDelete PolicyCommand = "DELETE"
)

// Policy is one row of pg_policies. Definition is the USING predicate and
// Check the WITH CHECK predicate; either may be empty when absent.
type Policy struct {
	Schema     string
	Table      string
	Name       string
	Command    PolicyCommand
	Definition string
	Check      string
}

// Row maps column names to values for one table row.
type Row map[string]dialect.Value

type StorageBucket struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    *int64   `json:"file_size_limit,omitempty"`
	AllowedMimeTypes []string `json:"allowed_mime_types,omitempty"`
}

// PrimaryKey returns the primary key column names in column order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.IsPK {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// NormalizeCommand upper-cases a catalog command, mapping unknown values to ALL.
func NormalizeCommand(cmd string) PolicyCommand {
	switch c := PolicyCommand(strings.ToUpper(strings.TrimSpace(cmd))); c {
	case PolicyCommandSelect, PolicyCommandInsert, PolicyCommandUpdate, PolicyCommandDelete, PolicyCommandAll:
		return c
	default:
		return PolicyCommandAll
	}
}
