package storage

import (
	"context"
	"fmt"
	"net/http"

	"supabase-clone/internal/schema"
	"supabase-clone/internal/source"
)

// Writer re-creates bucket configuration on the target project. Objects
// inside buckets are not copied.
type Writer struct {
	client *source.Client
}

func NewWriter(client *source.Client) *Writer {
	return &Writer{client: client}
}

type createBucketRequest struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    *int64   `json:"file_size_limit,omitempty"`
	AllowedMimeTypes []string `json:"allowed_mime_types,omitempty"`
}

// CreateBucket posts one bucket to /storage/v1/bucket on the target.
func (w *Writer) CreateBucket(ctx context.Context, b schema.StorageBucket) error {
	req := createBucketRequest{
		ID:               b.ID,
		Name:             b.Name,
		Public:           b.Public,
		FileSizeLimit:    b.FileSizeLimit,
		AllowedMimeTypes: b.AllowedMimeTypes,
	}
	if req.ID == "" {
		req.ID = b.Name
	}
	if err := w.client.Do(ctx, http.MethodPost, "/storage/v1/bucket", req, nil); err != nil {
		return fmt.Errorf("%w: bucket %s: %v", schema.ErrStorageCloneFailed, b.Name, err)
	}
	return nil
}
