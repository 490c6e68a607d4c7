package storage

import (
	"context"
	"fmt"

	"supabase-clone/internal/logger"
	"supabase-clone/internal/schema"
)

// BucketSource lists the buckets to copy.
type BucketSource interface {
	FetchBuckets(ctx context.Context) ([]schema.StorageBucket, error)
}

// BucketFailure records one bucket that could not be created.
type BucketFailure struct {
	Bucket string
	Err    error
}

// Report summarizes one CloneBuckets run.
type Report struct {
	Found    int
	Created  []string
	Failures []BucketFailure
}

func (r *Report) OK() bool { return len(r.Failures) == 0 }

// Cloner copies bucket configuration from a source to a target Writer.
type Cloner struct {
	source BucketSource
	target *Writer
}

func NewCloner(source BucketSource, target *Writer) *Cloner {
	return &Cloner{source: source, target: target}
}

// CloneBuckets lists the source buckets and creates each on the target in
// listing order. A listing failure is returned as an error; a failing bucket
// is recorded in the report and the loop moves on.
func (c *Cloner) CloneBuckets(ctx context.Context, onProgress func(string)) (*Report, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}

	onProgress("Fetching storage buckets...")
	buckets, err := c.source.FetchBuckets(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Found: len(buckets)}
	onProgress(fmt.Sprintf("Found %d storage buckets to clone", len(buckets)))

	for _, b := range buckets {
		onProgress("Creating bucket: " + b.Name)
		if err := c.target.CreateBucket(ctx, b); err != nil {
			logger.Get().Warn("could not create bucket (continuing...)", "bucket", b.Name, "error", err)
			report.Failures = append(report.Failures, BucketFailure{Bucket: b.Name, Err: err})
			continue
		}
		report.Created = append(report.Created, b.Name)
	}

	onProgress("Storage buckets cloning completed")
	return report, nil
}
