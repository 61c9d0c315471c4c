package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	red "telegram-dating-onboarding/internal/infra/redis"

	"github.com/golang-jwt/jwt/v5"
)

var _ adapter.SessionSink = (*JWTSessionSink)(nil)

var ErrInvalidToken = errors.New("invalid session token")

type SessionClaims struct {
	TelegramID int64 `json:"tg_id"`
	jwt.RegisteredClaims
}

// JWTSessionSink mints an HS256 session token for a newly registered user and
// records it in the session store under session:<tgID>.
type JWTSessionSink struct {
	secret []byte
	ttl    time.Duration
	store  *red.SessionStore
	now    func() time.Time
}

func NewJWTSessionSink(secret string, ttl time.Duration, store *red.SessionStore) *JWTSessionSink {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &JWTSessionSink{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

func (s *JWTSessionSink) Establish(ctx context.Context, u *model.User) (*adapter.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := SessionClaims{
		TelegramID: u.TelegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        strconv.FormatInt(now.UnixNano(), 36),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	if s.store != nil {
		if err := s.store.Put(ctx, u.TelegramID, red.StoredSession{Token: signed, UserID: u.ID, ExpiresAt: exp}); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}
	return &adapter.Session{Token: signed, UserID: u.ID, ExpiresAt: exp}, nil
}

// Parse validates a token minted by Establish.
func (s *JWTSessionSink) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
