package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"

	_ "github.com/lib/pq"

	"supabase-clone/internal/dialect"
	"supabase-clone/internal/logger"
	"supabase-clone/internal/schema"
)

// DatabaseDSN builds the direct connection string of a hosted project.
func DatabaseDSN(ref, password string) string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword("postgres", password),
		Host:     fmt.Sprintf("db.%s.supabase.co:5432", ref),
		Path:     "/postgres",
		RawQuery: "sslmode=require",
	}
	return u.String()
}

// CatalogReader reads schema and policies from the system catalog over a
// direct database connection. Rows and buckets still go through REST, since
// the service role key sees them the same way the REST reader does.
type CatalogReader struct {
	dsn        string
	once       sync.Once
	db         *sql.DB
	connErr    error
	d          dialect.Dialect
	schemaName string
	rest       *RESTReader
}

// OpenCatalog connects with lib/pq and verifies the connection.
func OpenCatalog(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open catalog connection: %v", schema.ErrSourceUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to source database: %v", schema.ErrSourceUnavailable, err)
	}
	return db, nil
}

// NewCatalogReader wraps an already open connection.
func NewCatalogReader(db *sql.DB, schemaName string, rest *RESTReader) *CatalogReader {
	c := &CatalogReader{
		db:         db,
		d:          dialect.GetDialect("postgres"),
		schemaName: schemaName,
		rest:       rest,
	}
	c.once.Do(func() {})
	return c
}

// ConnectCatalog returns a reader that dials dsn on first use. A connection
// failure surfaces from FetchSchema/FetchPolicies as schema.ErrSourceUnavailable
// and is not retried.
func ConnectCatalog(dsn, schemaName string, rest *RESTReader) *CatalogReader {
	return &CatalogReader{
		dsn:        dsn,
		d:          dialect.GetDialect("postgres"),
		schemaName: schemaName,
		rest:       rest,
	}
}

func (c *CatalogReader) conn(ctx context.Context) (*sql.DB, error) {
	c.once.Do(func() {
		c.db, c.connErr = OpenCatalog(ctx, c.dsn)
		if c.connErr != nil {
			logger.Get().Warn("catalog connection failed", "error", c.connErr)
		}
	})
	return c.db, c.connErr
}

func (c *CatalogReader) FetchSchema(ctx context.Context) ([]*schema.Table, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := schema.Analyze(ctx, db, c.d, c.schemaName)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("catalog schema analyzed", "tables", len(tables))
	return tables, nil
}

// FetchPolicies reads pg_policies directly; no helper function is needed.
func (c *CatalogReader) FetchPolicies(ctx context.Context) ([]*schema.Policy, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	return schema.AnalyzePolicies(ctx, db, c.d, c.schemaName)
}

func (c *CatalogReader) FetchTableData(ctx context.Context, table string) ([]schema.Row, error) {
	return c.rest.FetchTableData(ctx, table)
}

func (c *CatalogReader) FetchBuckets(ctx context.Context) ([]schema.StorageBucket, error) {
	return c.rest.FetchBuckets(ctx)
}

func (c *CatalogReader) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
