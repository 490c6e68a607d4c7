package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/logger"
	"supabase-clone/internal/schema"
)

// RESTReader reads a project through PostgREST and the storage API.
type RESTReader struct {
	client     *Client
	schemaName string
}

func NewRESTReader(client *Client, schemaName string) *RESTReader {
	if schemaName == "" {
		schemaName = "public"
	}
	return &RESTReader{client: client, schemaName: schemaName}
}

// FetchSchema downloads the OpenAPI description at /rest/v1/ and builds the
// table model from it.
func (r *RESTReader) FetchSchema(ctx context.Context) ([]*schema.Table, error) {
	var doc []byte
	if err := r.client.Do(ctx, http.MethodGet, "/rest/v1/", nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch tables from source project: %w", err)
	}
	return schema.BuildFromOpenAPI(doc, r.schemaName)
}

// policyRow accepts both the pg_policies column names returned by the helper
// function and the shorter aliases some hand-written helpers use.
type policyRow struct {
	SchemaName string  `json:"schemaname"`
	TableName  string  `json:"tablename"`
	Table      string  `json:"table"`
	PolicyName string  `json:"policyname"`
	Name       string  `json:"name"`
	Cmd        string  `json:"cmd"`
	Command    string  `json:"command"`
	Qual       *string `json:"qual"`
	Definition *string `json:"definition"`
	Using      *string `json:"using"`
	WithCheck  *string `json:"with_check"`
	Check      *string `json:"check"`
}

func (p policyRow) toPolicy(defaultSchema string) *schema.Policy {
	return &schema.Policy{
		Schema:     firstNonEmpty(p.SchemaName, defaultSchema),
		Table:      firstNonEmpty(p.TableName, p.Table),
		Name:       firstNonEmpty(p.PolicyName, p.Name),
		Command:    schema.NormalizeCommand(firstNonEmpty(p.Cmd, p.Command)),
		Definition: firstExpr(p.Qual, p.Definition, p.Using),
		Check:      firstExpr(p.WithCheck, p.Check),
	}
}

// FetchPolicies calls the get_policies helper. A missing helper yields
// schema.ErrPolicyFetchUnsupported so callers can degrade to no policies.
func (r *RESTReader) FetchPolicies(ctx context.Context) ([]*schema.Policy, error) {
	var body []byte
	err := r.client.Do(ctx, http.MethodPost, "/rest/v1/rpc/get_policies", map[string]any{}, &body)
	if err != nil {
		var apiErr *schema.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: get_policies helper not found", schema.ErrPolicyFetchUnsupported)
		}
		return nil, err
	}
	return DecodePolicies(body, r.schemaName)
}

// DecodePolicies parses the JSON array returned by get_policies (or saved
// from it). Rows without a schema get defaultSchema.
func DecodePolicies(data []byte, defaultSchema string) ([]*schema.Policy, error) {
	var rows []policyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding policies: %v", schema.ErrSourceUnavailable, err)
	}

	policies := make([]*schema.Policy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, row.toPolicy(defaultSchema))
	}
	return policies, nil
}

// FetchTableData returns every row PostgREST serves for a table, classified
// into dialect values.
func (r *RESTReader) FetchTableData(ctx context.Context, table string) ([]schema.Row, error) {
	var body []byte
	path := "/rest/v1/" + url.PathEscape(table) + "?select=*"
	if err := r.client.Do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, fmt.Errorf("could not fetch data for table %s: %w", table, err)
	}

	rows, err := DecodeRows(table, body)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("fetched table data", "table", table, "rows", len(rows))
	return rows, nil
}

// DecodeRows parses a JSON array of row objects.
func DecodeRows(table string, data []byte) ([]schema.Row, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding rows of %s: %v", schema.ErrSourceUnavailable, table, err)
	}

	rows := make([]schema.Row, 0, len(raw))
	for i, cells := range raw {
		row := make(schema.Row, len(cells))
		for col, cell := range cells {
			v, err := dialect.ValueFromJSON(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: table %s row %d column %s: %v", schema.ErrSourceUnavailable, table, i, col, err)
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchBuckets lists the storage buckets of the project.
func (r *RESTReader) FetchBuckets(ctx context.Context) ([]schema.StorageBucket, error) {
	var buckets []schema.StorageBucket
	if err := r.client.Do(ctx, http.MethodGet, "/storage/v1/bucket", nil, &buckets); err != nil {
		return nil, fmt.Errorf("failed to fetch storage buckets: %w", err)
	}
	return buckets, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstExpr picks the first predicate present; JSON null and the text "null"
// both count as absent.
func firstExpr(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" && *v != "null" {
			return *v
		}
	}
	return ""
}
