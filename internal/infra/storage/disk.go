package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
)

var _ adapter.ObjectUploader = (*DiskBucket)(nil)

// DiskBucket stores objects under dir/<bucket>/<name>. Used in -dev mode.
type DiskBucket struct {
	dir    string
	source adapter.PhotoSource
}

func NewDiskBucket(dir string, source adapter.PhotoSource) *DiskBucket {
	return &DiskBucket{dir: dir, source: source}
}

func (b *DiskBucket) Upload(ctx context.Context, handle, name, bucket string) (adapter.UploadResult, error) {
	if strings.ContainsAny(name, `/\`) || strings.ContainsAny(bucket, `/\`) {
		return adapter.UploadResult{}, fmt.Errorf("invalid object name %q/%q", bucket, name)
	}
	body, _, err := b.source.Open(ctx, handle)
	if err != nil {
		return adapter.UploadResult{}, err
	}
	defer body.Close()

	dir := filepath.Join(b.dir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return adapter.UploadResult{}, err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return adapter.UploadResult{}, err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return adapter.UploadResult{}, err
	}
	if err := f.Close(); err != nil {
		return adapter.UploadResult{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return adapter.UploadResult{URL: "file://" + filepath.ToSlash(abs)}, nil
}

func (b *DiskBucket) Probe(ctx context.Context, bucket string) error {
	return os.MkdirAll(filepath.Join(b.dir, bucket), 0o755)
}
