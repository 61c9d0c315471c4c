package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/infra/metrics"
	red "telegram-dating-onboarding/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches registered users by Telegram ID. Only hits are
// cached: a user that is not registered yet may finish the wizard any moment.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient) repository.UserRepository {
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func userTgKey(tgID int64) string { return fmt.Sprintf("user:tgid:%d", tgID) }

func (d *userRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error) {
	_ = d.cache.Del(ctx, userTgKey(u.TelegramID))
	return d.inner.Create(ctx, tx, u)
}

func (d *userRepoCacheDecorator) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	key := userTgKey(tgID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var user model.User
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncProfileCacheLookup("hit")
			return &user, nil
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		metrics.IncProfileCacheLookup("error")
	}

	metrics.IncProfileCacheLookup("miss")
	user, err := d.inner.FindByTelegramID(ctx, tx, tgID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if b, err := json.Marshal(user); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return user, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) ExistsByPhone(ctx context.Context, tx repository.Tx, phone string) (bool, error) {
	return d.inner.ExistsByPhone(ctx, tx, phone)
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}
