package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/logger"
)

// ---------------------------------------------------------------------
// 1. Catalog Analysis Logic
// ---------------------------------------------------------------------

// Analyze reads tables, columns and foreign keys straight from the catalog.
// It produces the same model as BuildFromOpenAPI, with real column types.
func Analyze(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) ([]*Table, error) {
	target := d.GetSchemaName(schemaName)

	tableMap := make(map[string]*Table)
	var tables []*Table

	// --- Step 1: Fetch Tables ---
	rows, err := db.QueryContext(ctx, d.GetTablesQuery(target), target)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tables: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		t := &Table{SchemaName: target, Name: name, Dependencies: []string{}}
		tableMap[name] = t
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	// --- Step 2: Fetch Columns ---
	colRows, err := db.QueryContext(ctx, d.GetColumnsQuery(target), target)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query columns: %v", ErrSourceUnavailable, err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var tName, cName, udt, isNull, cDefault, cKey sql.NullString
		if err := colRows.Scan(&tName, &cName, &udt, &isNull, &cDefault, &cKey); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}

		t, ok := tableMap[tName.String]
		if !ok {
			continue
		}

		col := &Column{
			Name:         cName.String,
			AbstractType: d.NormalizeType(udt.String),
			Nullable:     isNull.String == "YES",
			IsPK:         strings.Contains(cKey.String, "PRI"),
		}

		// Sequence-backed integers become serial types; the sequence itself
		// does not exist on a fresh target.
		if cDefault.Valid && strings.Contains(strings.ToLower(cDefault.String), "nextval(") {
			switch col.AbstractType {
			case "integer":
				col.AbstractType = "serial"
			case "bigint":
				col.AbstractType = "bigserial"
			}
		} else if cDefault.Valid && strings.TrimSpace(cDefault.String) != "" {
			v := dialect.ParseDefault(cDefault.String)
			col.Default = &v
		}
		t.Columns = append(t.Columns, col)
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	for _, t := range tables {
		if len(t.PrimaryKey()) > 0 {
			t.Constraints = append(t.Constraints, &Constraint{Name: t.Name + "_pkey", Type: "PRIMARY KEY"})
		}
	}

	// --- Step 3: Fetch Foreign Keys ---
	fkRows, err := db.QueryContext(ctx, d.GetForeignKeysQuery(target), target)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query foreign keys: %v", ErrSourceUnavailable, err)
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var tName, cConst, cName, rTable, rCol sql.NullString
		if err := fkRows.Scan(&tName, &cConst, &cName, &rTable, &rCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		if !tName.Valid || !rTable.Valid {
			continue
		}
		if t, ok := tableMap[tName.String]; ok {
			t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
				Column:    cName.String,
				RefTable:  rTable.String,
				RefColumn: rCol.String,
			})
		}
	}
	if err := fkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	linkDependencies(tables)
	return SortTablesByFKCount(tables), nil
}

// AnalyzePolicies reads row level security policies from pg_policies.
func AnalyzePolicies(ctx context.Context, db *sql.DB, d dialect.Dialect, schemaName string) ([]*Policy, error) {
	target := d.GetSchemaName(schemaName)

	rows, err := db.QueryContext(ctx, d.GetPoliciesQuery(target), target)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query policies: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var policies []*Policy
	for rows.Next() {
		var sName, tName, pName, cmd, qual, check sql.NullString
		if err := rows.Scan(&sName, &tName, &pName, &cmd, &qual, &check); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, &Policy{
			Schema:     sName.String,
			Table:      tName.String,
			Name:       pName.String,
			Command:    NormalizeCommand(cmd.String),
			Definition: qual.String,
			Check:      check.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}
	return policies, nil
}

// ---------------------------------------------------------------------
// 2. Sorting Algorithm (Topological / Greedy)
// ---------------------------------------------------------------------

// SortTablesByFKCount sorts tables by dependency order.
// It handles circular dependencies by using a scoring system.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: Add tables whose dependencies are fully satisfied
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}

			allDepsProcessed := true
			for _, depName := range t.Dependencies {
				if !processed[depName] {
					allDepsProcessed = false
					break
				}
			}

			if allDepsProcessed {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}

		// Pass 2: If no table added, we have a cycle. Break it using heuristic score.
		if !added {
			var bestTable *Table
			bestScore := -999999

			for _, t := range tables {
				if processed[t.Name] {
					continue
				}

				// Penalty: unprocessed FKs. Bonus: participation in a cycle.
				score := 0
				unprocessedDeps := 0
				for _, dep := range t.Dependencies {
					if !processed[dep] {
						unprocessedDeps++
					}
				}
				score -= (unprocessedDeps * 100)

				if isCircular(t, tables, processed) {
					score += 500
				}

				// Tie-breaker: Name (Deterministic)
				if score > bestScore {
					bestScore = score
					bestTable = t
				} else if score == bestScore {
					if bestTable == nil || t.Name > bestTable.Name {
						bestTable = t
					}
				}
			}

			if bestTable == nil {
				logger.Get().Error("deadlock in table sorting, remaining tables cannot be sorted")
				break
			}
			sorted = append(sorted, bestTable)
			processed[bestTable.Name] = true
			logger.Get().Debug("breaking circular dependency", "table", bestTable.Name, "score", bestScore)
		}
	}

	return sorted
}

// isCircular reports whether one of t's pending dependencies depends on t.
func isCircular(t *Table, tables []*Table, processed map[string]bool) bool {
	for _, depName := range t.Dependencies {
		if processed[depName] {
			continue
		}
		for _, cand := range tables {
			if cand.Name != depName {
				continue
			}
			for _, candDep := range cand.Dependencies {
				if candDep == t.Name {
					return true
				}
			}
			break
		}
	}
	return false
}
