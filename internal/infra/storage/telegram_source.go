package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
)

var _ adapter.PhotoSource = (*TelegramPhotoSource)(nil)

// FileLinker resolves a Telegram file id to a download URL. *tgbotapi.BotAPI
// satisfies it.
type FileLinker interface {
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramPhotoSource opens photos the user sent to the bot.
type TelegramPhotoSource struct {
	linker FileLinker
	client *http.Client
}

func NewTelegramPhotoSource(linker FileLinker, client *http.Client) *TelegramPhotoSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramPhotoSource{linker: linker, client: client}
}

func (s *TelegramPhotoSource) Open(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	url, err := s.linker.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve telegram file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download telegram file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("download telegram file: status %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = "image/jpeg"
	}
	return resp.Body, ct, nil
}
