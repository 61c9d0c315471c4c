package repository

import (
	"context"

	"telegram-dating-onboarding/internal/domain/registration"
)

// DraftRepository keeps the in-progress registration of each Telegram user.
// GetDraft returns domain.ErrNoDraft when nothing is stored.
type DraftRepository interface {
	SaveDraft(ctx context.Context, tgID int64, d registration.Draft) error
	GetDraft(ctx context.Context, tgID int64) (*registration.Draft, error)
	ClearDraft(ctx context.Context, tgID int64) error
}
