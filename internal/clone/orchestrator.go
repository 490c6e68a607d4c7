package clone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supabase-clone/internal/generator"
	"supabase-clone/internal/logger"
	"supabase-clone/internal/schema"
	"supabase-clone/internal/storage"
)

// SourceReader is the read side of a clone: schema, policies and rows.
type SourceReader interface {
	FetchSchema(ctx context.Context) ([]*schema.Table, error)
	FetchPolicies(ctx context.Context) ([]*schema.Policy, error)
	FetchTableData(ctx context.Context, table string) ([]schema.Row, error)
}

type BucketCloner interface {
	CloneBuckets(ctx context.Context, onProgress func(string)) (*storage.Report, error)
}

// DocumentSink persists the generated migration document.
type DocumentSink interface {
	Save(kind, sql string) (string, error)
}

// Credentials identify one project side. Only the service key is required.
type Credentials struct {
	Ref        string
	ServiceKey string
}

type Options struct {
	Source     Credentials
	Target     Credentials
	Kind       generator.MigrationKind
	IncludeRLS bool
}

// Orchestrator runs the clone phases in order. Phase failures are recorded
// and the run goes on; only missing credentials stop it.
type Orchestrator struct {
	source     SourceReader
	buckets    BucketCloner
	sink       DocumentSink
	gen        *generator.Generator
	onProgress func(Progress)
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithBuckets enables the storage phase.
func WithBuckets(b BucketCloner) Option { return func(o *Orchestrator) { o.buckets = b } }

func WithSink(s DocumentSink) Option { return func(o *Orchestrator) { o.sink = s } }

func WithProgress(fn func(Progress)) Option { return func(o *Orchestrator) { o.onProgress = fn } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func New(source SourceReader, gen *generator.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{source: source, gen: gen, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the state of one Run call.
type run struct {
	*Orchestrator
	result *Result
}

func (r *run) report(step Step, status Status, message string, err error) {
	p := Progress{Step: step, Status: status, Message: message, At: r.now()}
	if err != nil {
		p.Error = err.Error()
	}
	r.result.Steps = append(r.result.Steps, p)
	if r.onProgress != nil {
		r.onProgress(p)
	}
}

func (r *run) issue(sev Severity, step Step, message string) {
	r.result.Issues = append(r.result.Issues, Issue{Severity: sev, Step: step, Message: message})
}

// fail records a step error and the matching issue.
func (r *run) fail(step Step, message string, err error) {
	r.report(step, StatusError, message, err)
	r.issue(SeverityError, step, fmt.Sprintf("%s: %v", stepLabel(step), err))
	logger.Get().Error(message, "step", step, "error", err)
}

// Run performs one clone. The returned Result always carries the full
// transcript; Success is true only when no step reported an error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *Result {
	r := &run{Orchestrator: o, result: &Result{}}

	r.report(StepValidation, StatusInProgress, "Validating credentials...", nil)
	if err := validate(opts); err != nil {
		r.fail(StepValidation, "Process failed", err)
		return r.result
	}
	r.report(StepValidation, StatusCompleted, "Credentials validated", nil)

	var tablesRes stepResult[[]*schema.Table]
	schemaFetched := false
	var policies []*schema.Policy

	if opts.Kind.IncludesSchema() {
		tablesRes = r.schemaStep(ctx, StepSchema)
		schemaFetched = !tablesRes.Failed()

		tables := tablesRes.OrElse(nil)
		if opts.IncludeRLS && len(tables) > 0 {
			policies = r.rlsStep(ctx).OrElse(nil)
		}
	}

	var data map[string][]schema.Row
	if opts.Kind.IncludesData() {
		if !schemaFetched {
			r.report(StepData, StatusInProgress, "Fetching schema for data export...", nil)
			tablesRes = r.fetchTables(ctx, StepData)
			if tablesRes.Failed() {
				r.fail(StepData, "Data fetch failed", tablesRes.err)
			}
		}
		if tables := tablesRes.OrElse(nil); len(tables) > 0 {
			data = r.dataStep(ctx, tables).OrElse(nil)
		}
	}

	if tables := tablesRes.OrElse(nil); len(tables) > 0 {
		r.migrationStep(tables, policies, data, opts)
	}

	if r.buckets != nil {
		r.storageStep(ctx)
	} else {
		r.report(StepStorage, StatusCompleted, "Storage cloning skipped (disabled)", nil)
	}

	if len(r.result.IssuesOf(SeverityWarning))+len(r.result.IssuesOf(SeverityInfo)) > 0 {
		r.report(StepInstructions, StatusCompleted, "Manual steps required - see details below", nil)
	}

	r.report(StepComplete, StatusCompleted, "Analysis completed!", nil)
	r.result.Success = !r.result.hasStepError()
	return r.result
}

func validate(opts Options) error {
	var missing []string
	if strings.TrimSpace(opts.Source.ServiceKey) == "" {
		missing = append(missing, "source")
	}
	if strings.TrimSpace(opts.Target.ServiceKey) == "" {
		missing = append(missing, "target")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: service role keys are required for both projects (missing: %s)",
			schema.ErrCredentialsMissing, strings.Join(missing, ", "))
	}
	return nil
}

// fetchTables reads the schema and reports what it found under step.
func (r *run) fetchTables(ctx context.Context, step Step) stepResult[[]*schema.Table] {
	r.report(step, StatusInProgress, "Fetching source schema...", nil)
	tables, err := r.source.FetchSchema(ctx)
	if err != nil {
		return failed[[]*schema.Table](err)
	}

	r.report(step, StatusInProgress, fmt.Sprintf("Found %d tables in source project", len(tables)), nil)
	if len(tables) == 0 {
		r.report(step, StatusInProgress, "No tables found to clone", nil)
	} else {
		names := make([]string, len(tables))
		for i, t := range tables {
			names[i] = t.Name
		}
		r.report(step, StatusInProgress, "Schema information retrieved: "+strings.Join(names, ", "), nil)
	}
	return ok(tables)
}

func (r *run) schemaStep(ctx context.Context, step Step) stepResult[[]*schema.Table] {
	r.report(step, StatusInProgress, "Analyzing source schema...", nil)
	res := r.fetchTables(ctx, step)
	if res.Failed() {
		r.fail(step, "Schema analysis failed", res.err)
		return res
	}

	if n := len(res.value); n > 0 {
		r.report(step, StatusCompleted, fmt.Sprintf("Found %d tables", n), nil)
	} else {
		r.report(step, StatusCompleted, "No tables found in source project", nil)
	}
	return res
}

func (r *run) rlsStep(ctx context.Context) stepResult[[]*schema.Policy] {
	r.report(StepRLS, StatusInProgress, "Fetching RLS policies...", nil)
	policies, err := r.source.FetchPolicies(ctx)

	switch {
	case errors.Is(err, schema.ErrPolicyFetchUnsupported):
		logger.Get().Warn("RLS policies cannot be fetched automatically", "error", err)
		r.report(StepRLS, StatusCompleted, "No RLS policies found (or unable to fetch them)", nil)
		r.issue(SeverityInfo, StepRLS, "RLS policies could not be fetched automatically. "+
			"Create the get_policies() helper in the source project (see the policy-helper command) or copy policies manually.")
		return ok[[]*schema.Policy](nil)
	case err != nil:
		r.fail(StepRLS, "RLS fetch failed", err)
		return failed[[]*schema.Policy](err)
	}

	r.report(StepRLS, StatusCompleted, fmt.Sprintf("Found %d RLS policies", len(policies)), nil)
	return ok(policies)
}

// dataStep fetches rows one table at a time in listing order. A table that
// cannot be read is exported empty with a warning.
func (r *run) dataStep(ctx context.Context, tables []*schema.Table) stepResult[map[string][]schema.Row] {
	r.report(StepData, StatusInProgress, "Fetching table data...", nil)

	data := make(map[string][]schema.Row, len(tables))
	total := 0
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			r.fail(StepData, "Data fetch failed", err)
			return failed[map[string][]schema.Row](err)
		}

		r.report(StepData, StatusInProgress, fmt.Sprintf("Fetching data from %s...", t.Name), nil)
		rows, err := r.source.FetchTableData(ctx, t.Name)
		if err != nil {
			logger.Get().Warn("could not fetch table data (continuing...)", "table", t.Name, "error", err)
			r.issue(SeverityWarning, StepData, fmt.Sprintf("Data for table %s was not exported: %v", t.Name, err))
			rows = nil
		}
		data[t.Name] = rows
		total += len(rows)
		r.report(StepData, StatusInProgress, fmt.Sprintf("Fetched %d rows from %s", len(rows), t.Name), nil)
	}

	r.report(StepData, StatusCompleted, fmt.Sprintf("Fetched %d total rows from %d tables", total, len(tables)), nil)
	return ok(data)
}

func (r *run) migrationStep(tables []*schema.Table, policies []*schema.Policy, data map[string][]schema.Row, opts Options) {
	r.report(StepMigration, StatusInProgress, "Generating migration file...", nil)

	doc := r.gen.Generate(tables, policies, data, generator.Options{Kind: opts.Kind, IncludeRLS: opts.IncludeRLS})
	r.result.Document = doc

	if r.sink == nil {
		r.report(StepMigration, StatusCompleted, "Migration document generated", nil)
	} else {
		path, err := r.sink.Save(string(opts.Kind), doc.SQL)
		if err != nil {
			r.fail(StepMigration, "Migration generation failed", err)
			return
		}
		r.result.MigrationPath = path
		r.report(StepMigration, StatusCompleted, "Migration file saved: "+path, nil)
		r.issue(SeverityInfo, StepMigration, "Migration SQL file has been saved to "+path+". Run it in your target project's SQL Editor.")
	}

	if doc.NeedsManualAction() {
		r.issue(SeverityWarning, StepMigration, fmt.Sprintf(
			"IMPORTANT: %d INSERT policies require manual creation. See instructions in the migration file.",
			len(doc.SkippedInsertPolicies)))
	}
}

func (r *run) storageStep(ctx context.Context) {
	r.report(StepStorage, StatusInProgress, "Cloning storage buckets...", nil)

	report, err := r.buckets.CloneBuckets(ctx, func(msg string) {
		r.report(StepStorage, StatusInProgress, msg, nil)
	})
	if err != nil {
		r.fail(StepStorage, "Storage cloning failed", err)
		return
	}
	r.result.Storage = report

	for _, f := range report.Failures {
		r.issue(SeverityWarning, StepStorage, fmt.Sprintf("Bucket %s was not created: %v", f.Bucket, f.Err))
	}
	r.report(StepStorage, StatusCompleted, fmt.Sprintf("Storage bucket configurations created (%d of %d)",
		len(report.Created), report.Found), nil)
}

func stepLabel(s Step) string {
	switch s {
	case StepRLS:
		return "RLS"
	case StepValidation:
		return "Validation"
	default:
		str := string(s)
		return strings.ToUpper(str[:1]) + str[1:]
	}
}
