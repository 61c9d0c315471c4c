package auth

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner issues the OAuth state parameter. The state is a short-lived
// JWT that carries the Telegram user id, so the callback knows whose draft to
// update without server-side storage.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type stateClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

const statePurpose = "oauth_state"

func (s *StateSigner) Sign(tgID int64) (string, error) {
	now := s.now()
	claims := stateClaims{
		Purpose: statePurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(tgID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the Telegram user id carried by state.
func (s *StateSigner) Verify(state string) (int64, error) {
	claims := &stateClaims{}
	tkn, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid || claims.Purpose != statePurpose {
		return 0, ErrInvalidState
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidState
	}
	return id, nil
}

// LoginLinks builds the link the bot hands out for Google sign-in. It points
// at this service's /auth/google/login, which redirects to the consent screen.
type LoginLinks struct {
	publicURL string
	signer    *StateSigner
}

func NewLoginLinks(publicURL string, signer *StateSigner) *LoginLinks {
	return &LoginLinks{publicURL: strings.TrimRight(publicURL, "/"), signer: signer}
}

func (l *LoginLinks) LoginLink(tgID int64) (string, error) {
	state, err := l.signer.Sign(tgID)
	if err != nil {
		return "", err
	}
	return l.publicURL + "/auth/google/login?state=" + url.QueryEscape(state), nil
}
