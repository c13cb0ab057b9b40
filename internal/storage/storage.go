package storage

import (
	"context"
	"io"
)

// ObjectInfo represents metadata for a stored file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the operations the upload archive needs: uploaded
// usage CSVs are archived under a key and can be listed and read back for
// re-ingestion.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, key string, data []byte) error
}
