package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialsMissing means a required project secret is absent. It is
	// the only failure that aborts a whole clone run.
	ErrCredentialsMissing = errors.New("credentials missing")

	// ErrSourceUnavailable means the source project could not be read or
	// returned something that could not be parsed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrPolicyFetchUnsupported means the source lacks the get_policies helper.
	ErrPolicyFetchUnsupported = errors.New("policy fetch unsupported")

	// ErrStorageCloneFailed means a single bucket could not be re-created.
	ErrStorageCloneFailed = errors.New("storage clone failed")
)

// APIError is a non-2xx response from a Supabase endpoint.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d - %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrSourceUnavailable
}
