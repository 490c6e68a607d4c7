package clone

import (
	"supabase-clone/internal/generator"
	"supabase-clone/internal/storage"
)

// Result is the outcome of one clone run.
type Result struct {
	Success bool
	Steps   []Progress
	Issues  []Issue

	// MigrationPath is where the document was saved, if a sink was configured.
	MigrationPath string
	Document      *generator.Document
	Storage       *storage.Report
}

// Errors returns every issue message in emission order, regardless of severity.
func (r *Result) Errors() []string {
	out := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		out = append(out, i.Message)
	}
	return out
}

// IssuesOf filters issues by severity, keeping their order.
func (r *Result) IssuesOf(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// LastStatus returns the final status reported for a step, or pending if
// the step never ran.
func (r *Result) LastStatus(step Step) Status {
	status := StatusPending
	for _, p := range r.Steps {
		if p.Step == step {
			status = p.Status
		}
	}
	return status
}

func (r *Result) hasStepError() bool {
	for _, p := range r.Steps {
		if p.Status == StatusError {
			return true
		}
	}
	return false
}
