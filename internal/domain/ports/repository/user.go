package repository

import (
	"context"

	"telegram-dating-onboarding/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserRepository is the relational record store for finished registrations.
type UserRepository interface {
	// Create inserts u and returns the stored record.
	Create(ctx context.Context, tx Tx, u *model.User) (*model.User, error)
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	ExistsByPhone(ctx context.Context, tx Tx, phone string) (bool, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
