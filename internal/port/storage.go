package port

import (
	"context"
	"io"
)

// UploadInput encapsulates the parameters needed to store an artifact.
type UploadInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage abstracts artifact storage. Rendered outputs are written once
// under a generated key and read back for download.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}
