//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/registration"
)

func TestNewUserFromDraft(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1995, 5, 17, 0, 0, 0, 0, time.UTC)
	draft := registration.Draft{
		Step:         registration.StepPhotos,
		PhoneNumber:  "+15551234567",
		FirstName:    "Ana",
		LastName:     "Lopez",
		Gender:       registration.GenderFemale,
		InterestedIn: []string{registration.InterestMale},
		Location:     &registration.Location{Latitude: 40.4, Longitude: -3.7, City: "Madrid"},
		Hobbies:      []string{"music", "travel"},
		BirthDate:    &birth,
	}

	t.Run("should build a user with the first photo as profile photo", func(t *testing.T) {
		u, err := NewUserFromDraft(42, draft, []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if u.ID == "" {
			t.Error("expected an id")
		}
		if u.ProfilePhoto != "https://cdn/1.jpg" {
			t.Errorf("unexpected profile photo %q", u.ProfilePhoto)
		}
		if u.Location == nil || u.Location.City != "Madrid" {
			t.Errorf("location not copied: %+v", u.Location)
		}
		if !u.CreatedAt.Equal(now) || !u.UpdatedAt.Equal(now) {
			t.Error("timestamps not set")
		}
		if u.FullName() != "Ana Lopez" {
			t.Errorf("unexpected full name %q", u.FullName())
		}
	})

	t.Run("should fail without photos", func(t *testing.T) {
		if _, err := NewUserFromDraft(42, draft, nil, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should fail without a birth date", func(t *testing.T) {
		d := draft.Clone()
		d.BirthDate = nil
		if _, err := NewUserFromDraft(42, d, []string{"u"}, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
