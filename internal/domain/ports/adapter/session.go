package adapter

import (
	"context"
	"time"

	"telegram-dating-onboarding/internal/domain/model"
)

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// SessionSink receives a freshly created user and establishes the
// authenticated session for the rest of the application.
type SessionSink interface {
	Establish(ctx context.Context, u *model.User) (*Session, error)
}
