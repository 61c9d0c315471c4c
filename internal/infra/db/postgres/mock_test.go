//go:build !integration

package postgres

import (
	"context"

	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/repository"
)

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
type mockInnerUserRepo struct {
	CreateFunc           func(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error)
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	ExistsByPhoneFunc    func(ctx context.Context, tx repository.Tx, phone string) (bool, error)
	CountUsersFunc       func(ctx context.Context, tx repository.Tx) (int, error)
}

func (m *mockInnerUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error) {
	return m.CreateFunc(ctx, tx, u)
}
func (m *mockInnerUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	return m.FindByTelegramIDFunc(ctx, tx, tgID)
}
func (m *mockInnerUserRepo) ExistsByPhone(ctx context.Context, tx repository.Tx, phone string) (bool, error) {
	return m.ExistsByPhoneFunc(ctx, tx, phone)
}
func (m *mockInnerUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountUsersFunc(ctx, tx)
}
