package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
)

var _ adapter.ObjectUploader = (*Uploader)(nil)

// Uploader writes objects through a Supabase-compatible storage REST API:
// POST {base}/object/{bucket}/{name}, served publicly at
// {base}/object/public/{bucket}/{name}.
type Uploader struct {
	base   string
	apiKey string
	source adapter.PhotoSource
	client *http.Client
}

func NewUploader(baseURL, apiKey string, source adapter.PhotoSource, client *http.Client) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		source: source,
		client: client,
	}
}

func (u *Uploader) Upload(ctx context.Context, handle, name, bucket string) (adapter.UploadResult, error) {
	body, contentType, err := u.source.Open(ctx, handle)
	if err != nil {
		return adapter.UploadResult{}, err
	}
	defer body.Close()

	target := fmt.Sprintf("%s/object/%s/%s", u.base, url.PathEscape(bucket), url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return adapter.UploadResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("apikey", u.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := u.client.Do(req)
	if err != nil {
		return adapter.UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return adapter.UploadResult{}, fmt.Errorf("upload %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return adapter.UploadResult{URL: u.PublicURL(bucket, name)}, nil
}

func (u *Uploader) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", u.base, url.PathEscape(bucket), url.PathEscape(name))
}

// Probe checks that the bucket is reachable; used by the connectivity monitor.
func (u *Uploader) Probe(ctx context.Context, bucket string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/bucket/%s", u.base, url.PathEscape(bucket)), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("apikey", u.apiKey)
	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("storage probe: status %d", resp.StatusCode)
	}
	return nil
}
