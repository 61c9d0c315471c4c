package adapter

import (
	"context"
	"io"
)

type UploadResult struct {
	URL string
}

// ObjectUploader copies a locally held resource into remote object storage.
// Re-uploading under a new name is safe.
type ObjectUploader interface {
	Upload(ctx context.Context, localHandle, targetName, bucket string) (UploadResult, error)
}

// PhotoSource opens the bytes behind a local resource handle (for the bot, a
// Telegram file id).
type PhotoSource interface {
	Open(ctx context.Context, handle string) (body io.ReadCloser, contentType string, err error)
}
