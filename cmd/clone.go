package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supabase-clone/internal/clone"
	"supabase-clone/internal/dialect"
	"supabase-clone/internal/generator"
	"supabase-clone/internal/logger"
	"supabase-clone/internal/output"
	"supabase-clone/internal/source"
	"supabase-clone/internal/storage"

	"github.com/fatih/color"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	noStorage bool
	restOnly  bool
)

var stepIndex = map[clone.Step]int{
	clone.StepValidation:   1,
	clone.StepSchema:       2,
	clone.StepRLS:          3,
	clone.StepData:         4,
	clone.StepMigration:    5,
	clone.StepStorage:      6,
	clone.StepInstructions: 7,
	clone.StepComplete:     8,
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Read the source project and write a migration file for the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := GetProjectConfig("source")
		if err != nil {
			return err
		}
		dst, err := GetProjectConfig("target")
		if err != nil {
			return err
		}
		migration, kind, err := GetMigrationConfig()
		if err != nil {
			return err
		}
		out := GetOutputConfig()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		timeout := httpTimeout()
		srcClient := source.NewClient(src.APIURL(), src.ServiceKey, timeout)
		rest := source.NewRESTReader(srcClient, "public")

		var reader clone.SourceReader = rest
		if dsn := src.CatalogDSN(); dsn != "" && !restOnly {
			// connects lazily so an unreachable database fails the schema step, not the run
			catalog := source.ConnectCatalog(dsn, "public", rest)
			defer catalog.Close()
			reader = catalog
			fmt.Printf("🔌 Reading schema from the database catalog (%s)\n", src.Ref)
		}

		opts := []clone.Option{
			clone.WithSink(output.NewFileSink(AppFs, out.Dir, out.Prefix)),
		}
		if !noStorage {
			target := storage.NewWriter(source.NewClient(dst.APIURL(), dst.ServiceKey, timeout))
			opts = append(opts, clone.WithBuckets(storage.NewCloner(rest, target)))
		}

		fmt.Printf("🚀 Cloning %s -> %s (type: %s, RLS: %v)\n", src.Ref, dst.Ref, kind, migration.IncludeRLS)
		start := time.Now()

		// Progress Bar
		var mu sync.Mutex
		current := "starting"
		uiprogress.Start()
		bar := uiprogress.AddBar(len(stepIndex)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Cloning: "
		})
		bar.AppendFunc(func(b *uiprogress.Bar) string {
			mu.Lock()
			defer mu.Unlock()
			return current
		})

		opts = append(opts, clone.WithProgress(func(p clone.Progress) {
			logger.Get().Debug("progress", "step", p.Step, "status", p.Status, "message", p.Message)
			mu.Lock()
			current = p.Message
			mu.Unlock()
			if p.Status == clone.StatusCompleted || p.Status == clone.StatusError {
				bar.Set(stepIndex[p.Step])
			}
		}))

		orchestrator := clone.New(reader, generator.New(dialect.GetDialect("postgres")), opts...)
		result := orchestrator.Run(ctx, clone.Options{
			Source:     src.Credentials(),
			Target:     dst.Credentials(),
			Kind:       kind,
			IncludeRLS: migration.IncludeRLS,
		})

		bar.Set(len(stepIndex))
		uiprogress.Stop()

		printReport(result, time.Since(start))

		if !result.Success {
			return fmt.Errorf("clone finished with %d error(s)", len(result.IssuesOf(clone.SeverityError)))
		}
		return nil
	},
}

func printReport(result *clone.Result, elapsed time.Duration) {
	success := color.New(color.FgGreen, color.Bold)
	failure := color.New(color.FgRed, color.Bold)
	warning := color.New(color.FgYellow, color.Bold)
	info := color.New(color.FgCyan)

	fmt.Println("\n📊 Summary Report:")
	for _, p := range result.Steps {
		if p.Status != clone.StatusCompleted && p.Status != clone.StatusError {
			continue
		}
		if p.Status == clone.StatusError {
			failure.Printf("[!] %-13s : %s\n", p.Step, p.Message)
			fmt.Printf("    └ Error: %s\n", p.Error)
			continue
		}
		success.Printf("[✓] %-13s", p.Step)
		fmt.Printf(" : %s\n", p.Message)
	}

	if doc := result.Document; doc != nil && len(doc.SkippedPolicies) > 0 {
		fmt.Println("\n⏭️  Skipped policies:")
		for _, s := range doc.SkippedPolicies {
			fmt.Printf("    - %s on %s (%s)\n", s.Name, s.Table, s.Command)
		}
	}

	if len(result.Issues) > 0 {
		fmt.Println("\n📝 Notes:")
		for _, i := range result.Issues {
			switch i.Severity {
			case clone.SeverityError:
				failure.Printf("  ERROR   ")
			case clone.SeverityWarning:
				warning.Printf("  WARNING ")
			default:
				info.Printf("  INFO    ")
			}
			fmt.Println(i.Message)
		}
	}

	fmt.Println("--------------------------------------------------")
	if result.Success {
		success.Printf("Clone Done! Time Elapsed: %s\n", elapsed.Round(time.Millisecond))
	} else {
		failure.Printf("Clone finished with errors. Time Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}
}

func init() {
	RootCmd.AddCommand(cloneCmd)

	f := cloneCmd.Flags()
	f.String("source-ref", "", "source project ref")
	f.String("source-key", "", "source service role key")
	f.String("source-url", "", "source API URL (default https://<ref>.supabase.co)")
	f.String("source-db-password", "", "source database password; schema and policies are then read from the catalog")
	f.String("target-ref", "", "target project ref")
	f.String("target-key", "", "target service role key")
	f.String("target-url", "", "target API URL (default https://<ref>.supabase.co)")
	f.String("type", "", "migration type: schema, data or both")
	f.Bool("rls", true, "include row level security policies")
	f.String("output-dir", "", "directory for the migration file")
	f.BoolVar(&noStorage, "no-storage", false, "skip cloning storage bucket configuration")
	f.BoolVar(&restOnly, "rest-only", false, "read schema and policies over REST even when a database password is configured")

	viper.BindPFlag("source.ref", f.Lookup("source-ref"))
	viper.BindPFlag("source.service_key", f.Lookup("source-key"))
	viper.BindPFlag("source.url", f.Lookup("source-url"))
	viper.BindPFlag("source.db_password", f.Lookup("source-db-password"))
	viper.BindPFlag("target.ref", f.Lookup("target-ref"))
	viper.BindPFlag("target.service_key", f.Lookup("target-key"))
	viper.BindPFlag("target.url", f.Lookup("target-url"))
	viper.BindPFlag("migration.type", f.Lookup("type"))
	viper.BindPFlag("migration.include_rls", f.Lookup("rls"))
	viper.BindPFlag("output.dir", f.Lookup("output-dir"))
}
