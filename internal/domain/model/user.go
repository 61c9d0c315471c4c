package model

import (
	"strings"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/registration"

	"github.com/google/uuid"
)

// User is the persisted dating profile created when the wizard finishes.
type User struct {
	ID           string
	TelegramID   int64
	PhoneNumber  string
	FirstName    string
	LastName     string
	Gender       string
	InterestedIn []string
	Location     *registration.Location
	Hobbies      []string
	Biography    string
	BirthDate    time.Time
	Photos       []string
	ProfilePhoto string

	IsGoogleSignup bool
	GoogleID       string
	Email          string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserFromDraft combines the collected draft fields with the uploaded
// photo URLs. The first URL becomes the profile photo.
func NewUserFromDraft(tgID int64, d registration.Draft, photoURLs []string, now time.Time) (*User, error) {
	if tgID <= 0 || d.BirthDate == nil || len(photoURLs) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:             uuid.NewString(),
		TelegramID:     tgID,
		PhoneNumber:    d.PhoneNumber,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Gender:         string(d.Gender),
		InterestedIn:   append([]string(nil), d.InterestedIn...),
		Hobbies:        append([]string(nil), d.Hobbies...),
		Biography:      d.Biography,
		BirthDate:      *d.BirthDate,
		Photos:         append([]string(nil), photoURLs...),
		ProfilePhoto:   photoURLs[0],
		IsGoogleSignup: d.IsGoogleSignup,
		GoogleID:       d.GoogleID,
		Email:          d.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if d.Location != nil {
		loc := *d.Location
		u.Location = &loc
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
