package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/security"
)

// Ensure the adapter implements the port interface.
var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo keeps registration drafts as JSON under reg_draft:<tgID>. When a
// sealer is set the JSON is encrypted, since drafts carry phone numbers and
// birth dates.
type DraftRepo struct {
	client RedisClient
	sealer *security.Sealer
	ttl    time.Duration
}

func NewDraftRepo(client RedisClient, sealer *security.Sealer, ttl time.Duration) *DraftRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftRepo{client: client, sealer: sealer, ttl: ttl}
}

func draftKey(tgID int64) string {
	return fmt.Sprintf("reg_draft:%d", tgID)
}

func (r *DraftRepo) SaveDraft(ctx context.Context, tgID int64, d registration.Draft) error {
	key := draftKey(tgID)
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	payload := string(data)
	if r.sealer != nil {
		if payload, err = r.sealer.Seal(data, []byte(key)); err != nil {
			return fmt.Errorf("seal draft: %w", err)
		}
	}
	return r.client.Set(ctx, key, payload, r.ttl)
}

func (r *DraftRepo) GetDraft(ctx context.Context, tgID int64) (*registration.Draft, error) {
	key := draftKey(tgID)
	payload, err := r.client.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoDraft
	}
	if err != nil {
		return nil, err
	}

	data := []byte(payload)
	if r.sealer != nil {
		if data, err = r.sealer.Open(payload, []byte(key)); err != nil {
			return nil, fmt.Errorf("open draft: %w", err)
		}
	}
	var d registration.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (r *DraftRepo) ClearDraft(ctx context.Context, tgID int64) error {
	return r.client.Del(ctx, draftKey(tgID))
}
