package cmd

import (
	"fmt"
	"path/filepath"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/generator"
	"supabase-clone/internal/logger"
	"supabase-clone/internal/output"
	"supabase-clone/internal/schema"
	"supabase-clone/internal/source"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	openAPIFile  string
	policiesFile string
	dataDir      string
	genType      string
	genRLS       bool
	genOutDir    string
	genStdout    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a migration file from a saved OpenAPI document",
	Long: `Generate builds the same migration document as clone, but from files:
the OpenAPI JSON served at /rest/v1/, an optional get_policies() result and
an optional directory of <table>.json row arrays.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := generator.ParseKind(genType)
		if err != nil {
			return err
		}

		doc, err := afero.ReadFile(AppFs, openAPIFile)
		if err != nil {
			return fmt.Errorf("failed to read OpenAPI document: %w", err)
		}
		tables, err := schema.BuildFromOpenAPI(doc, "public")
		if err != nil {
			return err
		}
		logger.Get().Info("schema loaded", "file", openAPIFile, "tables", len(tables))

		var policies []*schema.Policy
		if policiesFile != "" {
			raw, err := afero.ReadFile(AppFs, policiesFile)
			if err != nil {
				return fmt.Errorf("failed to read policies file: %w", err)
			}
			if policies, err = source.DecodePolicies(raw, "public"); err != nil {
				return err
			}
		}

		data, err := loadDataDir(AppFs, dataDir, tables)
		if err != nil {
			return err
		}

		gen := generator.New(dialect.GetDialect("postgres"))
		result := gen.Generate(tables, policies, data, generator.Options{Kind: kind, IncludeRLS: genRLS})

		if genStdout {
			fmt.Fprint(cmd.OutOrStdout(), result.SQL)
			return nil
		}

		out := GetOutputConfig()
		if genOutDir != "" {
			out.Dir = genOutDir
		}
		path, err := output.NewFileSink(AppFs, out.Dir, out.Prefix).Save(string(kind), result.SQL)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Migration file written: %s (%d tables, %d policies)\n", path, len(tables), len(policies))
		if result.NeedsManualAction() {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %d INSERT policies require manual creation. See the MANUAL ACTION REQUIRED section.\n",
				len(result.SkippedInsertPolicies))
		}
		return nil
	},
}

// loadDataDir reads <table>.json for every table that has one. Missing files
// mean the table has no rows.
func loadDataDir(fs afero.Fs, dir string, tables []*schema.Table) (map[string][]schema.Row, error) {
	if dir == "" {
		return nil, nil
	}

	data := make(map[string][]schema.Row)
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".json")
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !exists {
			logger.Get().Debug("no data file for table", "table", t.Name)
			continue
		}
		raw, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows, err := source.DecodeRows(t.Name, raw)
		if err != nil {
			return nil, err
		}
		data[t.Name] = rows
	}
	return data, nil
}

func init() {
	RootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&openAPIFile, "openapi", "f", "", "OpenAPI JSON file saved from /rest/v1/")
	generateCmd.Flags().StringVar(&policiesFile, "policies", "", "JSON file with get_policies() rows")
	generateCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of <table>.json row arrays")
	generateCmd.Flags().StringVar(&genType, "type", "schema", "migration type: schema, data or both")
	generateCmd.Flags().BoolVar(&genRLS, "rls", true, "include row level security policies")
	generateCmd.Flags().StringVar(&genOutDir, "output-dir", "", "directory for the migration file (overrides output.dir)")
	generateCmd.Flags().BoolVar(&genStdout, "stdout", false, "print the document instead of writing a file")
	generateCmd.MarkFlagRequired("openapi")
}
