package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"supabase-clone/internal/dialect"
)

// openAPIDoc is the part of the PostgREST OpenAPI description we read.
type openAPIDoc struct {
	Definitions json.RawMessage `json:"definitions"`
}

type definition struct {
	Required   []string        `json:"required"`
	Properties json.RawMessage `json:"properties"`
}

type property struct {
	Type        string          `json:"type"`
	Format      string          `json:"format"`
	Default     json.RawMessage `json:"default"`
	Description string          `json:"description"`
}

var (
	pkMarker = regexp.MustCompile(`<pk/>`)
	fkMarker = regexp.MustCompile(`<fk table='([^']+)' column='([^']+)'/>`)
)

// formatTypes maps OpenAPI format hints to abstract types. A hint found here
// overrides the declared JSON type.
var formatTypes = map[string]string{
	"uuid":                        "uuid",
	"timestamp":                   "timestamp",
	"date-time":                   "timestamp",
	"timestamp with time zone":    "timestamp",
	"timestamp without time zone": "timestamp",
	"date":                        "date",
	"time":                        "time",
	"time with time zone":         "time",
	"time without time zone":      "time",
	"int4":                        "integer",
	"integer":                     "integer",
	"int2":                        "integer",
	"smallint":                    "integer",
	"int8":                        "bigint",
	"bigint":                      "bigint",
	"numeric":                     "numeric",
	"decimal":                     "numeric",
	"json":                        "object",
	"jsonb":                       "object",
}

// BuildFromOpenAPI converts a PostgREST OpenAPI description into tables.
// Tables and columns keep document order before dependency sorting. A
// document without definitions yields no tables and no error.
func BuildFromOpenAPI(doc []byte, schemaName string) ([]*Table, error) {
	if schemaName == "" {
		schemaName = "public"
	}

	var api openAPIDoc
	if err := json.Unmarshal(doc, &api); err != nil {
		return nil, fmt.Errorf("%w: failed to parse API description: %v", ErrSourceUnavailable, err)
	}

	var tables []*Table
	err := eachMember(api.Definitions, func(tableName string, raw json.RawMessage) error {
		var def definition
		if err := json.Unmarshal(raw, &def); err != nil || !isObject(def.Properties) {
			// Not a table-shaped definition; PostgREST also lists RPC payloads here.
			return nil
		}

		required := make(map[string]bool, len(def.Required))
		for _, name := range def.Required {
			required[name] = true
		}

		t := &Table{SchemaName: schemaName, Name: tableName, Dependencies: []string{}}
		err := eachMember(def.Properties, func(colName string, praw json.RawMessage) error {
			var p property
			if err := json.Unmarshal(praw, &p); err != nil {
				return fmt.Errorf("table %s column %s: %w", tableName, colName, err)
			}

			col := &Column{
				Name:         colName,
				AbstractType: resolveType(p),
				Nullable:     !required[colName],
				Default:      defaultValue(p.Default),
				IsPK:         pkMarker.MatchString(p.Description),
			}
			t.Columns = append(t.Columns, col)

			if m := fkMarker.FindStringSubmatch(p.Description); m != nil {
				t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{Column: colName, RefTable: m[1], RefColumn: m[2]})
			}
			return nil
		})
		if err != nil {
			return err
		}

		if pk := t.PrimaryKey(); len(pk) > 0 {
			t.Constraints = append(t.Constraints, &Constraint{
				Name: tableName + "_pkey",
				Type: "PRIMARY KEY",
			})
		}
		tables = append(tables, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse API description: %v", ErrSourceUnavailable, err)
	}

	linkDependencies(tables)
	return SortTablesByFKCount(tables), nil
}

// resolveType applies the precedence: format hint, declared type, "unknown".
func resolveType(p property) string {
	if t, ok := formatTypes[p.Format]; ok {
		return t
	}
	if p.Type != "" {
		return p.Type
	}
	return "unknown"
}

// defaultValue turns an OpenAPI default (string, number, bool or null) into
// a classified value.
func defaultValue(raw json.RawMessage) *dialect.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var token string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &token); err != nil {
			return nil
		}
	case '{', '[':
		v, err := dialect.ValueFromJSON(raw)
		if err != nil {
			return nil
		}
		return &v
	default:
		token = string(raw)
	}

	if token == "" {
		return nil
	}
	v := dialect.ParseDefault(token)
	return &v
}

// linkDependencies keeps only foreign keys that point at known tables.
func linkDependencies(tables []*Table) {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.Name] = true
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable != t.Name && known[fk.RefTable] && !slices.Contains(t.Dependencies, fk.RefTable) {
				t.Dependencies = append(t.Dependencies, fk.RefTable)
			}
		}
	}
}

// eachMember walks a JSON object in document order. A missing or null
// object is treated as empty.
func eachMember(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("member %s: %w", strconv.Quote(key), err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
