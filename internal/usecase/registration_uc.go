package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RegistrationUseCase = (*registrationUC)(nil)

// DefaultLockTTL covers a finalize that exhausts every upload retry.
const DefaultLockTTL = 11 * time.Minute

// RegistrationUseCase drives the eight-step sign-up wizard. Every mutating
// call returns the draft as stored after the call, or the untouched draft's
// error when validation fails.
type RegistrationUseCase interface {
	Start(ctx context.Context, tgID int64, phone string) (*registration.Draft, error)
	Current(ctx context.Context, tgID int64) (*registration.Draft, error)

	SubmitNames(ctx context.Context, tgID int64, fullName string) (*registration.Draft, error)
	UseFederatedName(ctx context.Context, tgID int64) (*registration.Draft, error)
	SelectGender(ctx context.Context, tgID int64, value string) (*registration.Draft, error)
	SelectInterest(ctx context.Context, tgID int64, value string) (*registration.Draft, error)
	ShareLocation(ctx context.Context, tgID int64, loc registration.Location) (*registration.Draft, error)
	SkipLocation(ctx context.Context, tgID int64) (*registration.Draft, error)
	ToggleHobby(ctx context.Context, tgID int64, hobby string) (*registration.Draft, error)
	ConfirmHobbies(ctx context.Context, tgID int64) (*registration.Draft, error)
	SubmitBiography(ctx context.Context, tgID int64, text string) (*registration.Draft, error)
	SkipBiography(ctx context.Context, tgID int64) (*registration.Draft, error)
	SubmitBirthDate(ctx context.Context, tgID int64, input string) (*registration.Draft, error)
	AddPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error)
	RemovePhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error)
	MakeMainPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error)
	ConfirmPhotos(ctx context.Context, tgID int64) (*Completion, error)

	GoBack(ctx context.Context, tgID int64) (*registration.Draft, error)
	Cancel(ctx context.Context, tgID int64) error
	AdoptFederatedIdentity(ctx context.Context, tgID int64, id adapter.FederatedIdentity) (*registration.Draft, error)
}

// DraftFinalizer is the terminal step of the wizard.
type DraftFinalizer interface {
	Finalize(ctx context.Context, tgID int64, d registration.Draft) (*Completion, error)
}

type registrationUC struct {
	drafts    repository.DraftRepository
	users     repository.UserRepository
	locker    adapter.Locker
	finalizer DraftFinalizer
	lockTTL   time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

func NewRegistrationUseCase(
	drafts repository.DraftRepository,
	users repository.UserRepository,
	locker adapter.Locker,
	finalizer DraftFinalizer,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *registrationUC {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &registrationUC{
		drafts:    drafts,
		users:     users,
		locker:    locker,
		finalizer: finalizer,
		lockTTL:   lockTTL,
		now:       time.Now,
		log:       logger,
	}
}

// WithNow overrides the clock used for the age check.
func (r *registrationUC) WithNow(now func() time.Time) *registrationUC {
	r.now = now
	return r
}

func lockKey(tgID int64) string { return fmt.Sprintf("reg_lock:%d", tgID) }

// withLock runs fn while holding the per-user busy flag.
func (r *registrationUC) withLock(ctx context.Context, tgID int64, fn func(ctx context.Context) error) error {
	token, err := r.locker.TryLock(ctx, lockKey(tgID), r.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return domain.ErrBusy
		}
		return fmt.Errorf("acquire registration lock: %w", err)
	}
	defer func() {
		if err := r.locker.Unlock(context.WithoutCancel(ctx), lockKey(tgID), token); err != nil {
			r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to release registration lock")
		}
	}()
	return fn(ctx)
}

// mutate loads the draft, checks it sits on step (0 means any step), applies
// fn and stores the result. The stored draft is left alone when fn fails.
func (r *registrationUC) mutate(ctx context.Context, tgID int64, step registration.Step, fn func(d registration.Draft) (registration.Draft, error)) (*registration.Draft, error) {
	var out *registration.Draft
	err := r.withLock(ctx, tgID, func(ctx context.Context) error {
		d, err := r.drafts.GetDraft(ctx, tgID)
		if err != nil {
			return err
		}
		if err := requirePhone(d); err != nil {
			return err
		}
		if step != 0 && d.Step != step {
			return fmt.Errorf("%w: draft is on %s, not %s", domain.ErrWrongStep, d.Step, step)
		}
		next, err := fn(*d)
		if err != nil {
			return err
		}
		if err := r.drafts.SaveDraft(ctx, tgID, next); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		out = &next
		return nil
	})
	return out, err
}

// requirePhone treats a draft without a phone number as not started. A
// federated sign-in can create such a draft before /start was sent.
func requirePhone(d *registration.Draft) error {
	if d.PhoneNumber == "" {
		return fmt.Errorf("%w: phone number not shared yet", domain.ErrNoDraft)
	}
	return nil
}

func advance(d registration.Draft, actions ...registration.Action) registration.Draft {
	for _, a := range actions {
		d = registration.Reduce(d, a)
	}
	return registration.Reduce(d, registration.AdvanceStep{})
}

func (r *registrationUC) Start(ctx context.Context, tgID int64, phone string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.Start")()

	if tgID <= 0 || phone == "" {
		return nil, domain.ErrInvalidArgument
	}
	registered, err := r.isRegistered(ctx, tgID, phone)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, domain.ErrAlreadyRegistered
	}

	var out *registration.Draft
	err = r.withLock(ctx, tgID, func(ctx context.Context) error {
		d := registration.NewDraft()
		// A federated identity adopted before the phone was shared survives the restart.
		if prev, err := r.drafts.GetDraft(ctx, tgID); err == nil && prev.IsGoogleSignup {
			d = registration.Reduce(d, registration.AdoptFederatedIdentity{
				GoogleID:     prev.GoogleID,
				Email:        &prev.Email,
				FirstName:    nonEmpty(prev.FirstName),
				LastName:     nonEmpty(prev.LastName),
				ProfilePhoto: &prev.ProfilePhoto,
			})
		} else if err != nil && !errors.Is(err, domain.ErrNoDraft) {
			return err
		}
		d = registration.Reduce(d, registration.SetPhoneNumber{Value: phone})
		if err := r.drafts.SaveDraft(ctx, tgID, d); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		out = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Int64("tg_id", tgID).Str("phone", logging.Redact(phone, false)).Msg("registration started")
	return out, nil
}

func (r *registrationUC) isRegistered(ctx context.Context, tgID int64, phone string) (bool, error) {
	u, err := r.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	if err == nil && !u.IsZero() {
		return true, nil
	}
	exists, err := r.users.ExistsByPhone(ctx, repository.NoTX, phone)
	if err != nil {
		return false, fmt.Errorf("lookup phone: %w", err)
	}
	return exists, nil
}

func (r *registrationUC) Current(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.Current")()
	return r.drafts.GetDraft(ctx, tgID)
}

func (r *registrationUC) SubmitNames(ctx context.Context, tgID int64, fullName string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SubmitNames")()
	return r.mutate(ctx, tgID, registration.StepNames, func(d registration.Draft) (registration.Draft, error) {
		first, last, err := registration.ValidateNames(registration.SplitFullName(fullName))
		if err != nil {
			return d, err
		}
		return advance(d, registration.SetNames{FirstName: first, LastName: last}), nil
	})
}

// UseFederatedName accepts the name shared by the identity provider. The
// prefill is computed from the draft, so it reflects the latest adoption.
func (r *registrationUC) UseFederatedName(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.UseFederatedName")()
	return r.mutate(ctx, tgID, registration.StepNames, func(d registration.Draft) (registration.Draft, error) {
		first, last, ok := d.FederatedName()
		if !ok {
			return d, domain.NewValidationError(int(registration.StepNames), "no federated name available", domain.ErrInvalidArgument)
		}
		return advance(d, registration.SetNames{FirstName: first, LastName: last}), nil
	})
}

func (r *registrationUC) SelectGender(ctx context.Context, tgID int64, value string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SelectGender")()
	return r.mutate(ctx, tgID, registration.StepGender, func(d registration.Draft) (registration.Draft, error) {
		g, err := registration.ParseGender(value)
		if err != nil {
			return d, err
		}
		return advance(d, registration.SetGender{Value: g}), nil
	})
}

func (r *registrationUC) SelectInterest(ctx context.Context, tgID int64, value string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SelectInterest")()
	return r.mutate(ctx, tgID, registration.StepInterestedIn, func(d registration.Draft) (registration.Draft, error) {
		in, err := registration.ParseInterest(value)
		if err != nil {
			return d, err
		}
		return advance(d, registration.SetInterestedIn{Values: []string{in}}), nil
	})
}

func (r *registrationUC) ShareLocation(ctx context.Context, tgID int64, loc registration.Location) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.ShareLocation")()
	return r.mutate(ctx, tgID, registration.StepLocation, func(d registration.Draft) (registration.Draft, error) {
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return d, domain.NewValidationError(int(registration.StepLocation), "coordinates out of range", domain.ErrInvalidArgument)
		}
		l := loc
		return advance(d, registration.SetLocation{Value: &l}), nil
	})
}

func (r *registrationUC) SkipLocation(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SkipLocation")()
	return r.mutate(ctx, tgID, registration.StepLocation, func(d registration.Draft) (registration.Draft, error) {
		return advance(d), nil
	})
}

// ToggleHobby does not advance. At the limit a new selection is refused with
// ErrHobbyLimit and the stored set stays as it was.
func (r *registrationUC) ToggleHobby(ctx context.Context, tgID int64, hobby string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.ToggleHobby")()
	return r.mutate(ctx, tgID, registration.StepHobbies, func(d registration.Draft) (registration.Draft, error) {
		next, err := registration.ToggleHobby(d.Hobbies, hobby)
		if err != nil {
			return d, err
		}
		return registration.Reduce(d, registration.SetHobbies{Values: next}), nil
	})
}

func (r *registrationUC) ConfirmHobbies(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.ConfirmHobbies")()
	return r.mutate(ctx, tgID, registration.StepHobbies, func(d registration.Draft) (registration.Draft, error) {
		if err := registration.ValidateHobbies(d.Hobbies); err != nil {
			return d, err
		}
		return advance(d), nil
	})
}

func (r *registrationUC) SubmitBiography(ctx context.Context, tgID int64, text string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SubmitBiography")()
	return r.mutate(ctx, tgID, registration.StepBiography, func(d registration.Draft) (registration.Draft, error) {
		return advance(d, registration.SetBiography{Value: registration.CapBiography(text)}), nil
	})
}

func (r *registrationUC) SkipBiography(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SkipBiography")()
	return r.mutate(ctx, tgID, registration.StepBiography, func(d registration.Draft) (registration.Draft, error) {
		return advance(d), nil
	})
}

func (r *registrationUC) SubmitBirthDate(ctx context.Context, tgID int64, input string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.SubmitBirthDate")()
	return r.mutate(ctx, tgID, registration.StepBirthDate, func(d registration.Draft) (registration.Draft, error) {
		day, month, year := registration.SplitBirthDate(input)
		bd, err := registration.ValidateBirthDate(day, month, year, r.now())
		if err != nil {
			return d, err
		}
		return advance(d, registration.SetBirthDate{Value: &bd}), nil
	})
}

func (r *registrationUC) AddPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.AddPhoto")()
	return r.mutate(ctx, tgID, registration.StepPhotos, func(d registration.Draft) (registration.Draft, error) {
		if handle == "" {
			return d, domain.ErrInvalidArgument
		}
		if len(d.Photos) >= registration.MaxPhotos {
			return d, domain.ErrPhotoLimit
		}
		for _, p := range d.Photos {
			if p.URI == handle {
				return d, nil
			}
		}
		return registration.Reduce(d, registration.AddPhoto{Photo: registration.Photo{URI: handle, OrderIndex: len(d.Photos)}}), nil
	})
}

func (r *registrationUC) RemovePhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.RemovePhoto")()
	return r.mutate(ctx, tgID, registration.StepPhotos, func(d registration.Draft) (registration.Draft, error) {
		return registration.Reduce(d, registration.RemovePhoto{URI: handle}), nil
	})
}

// MakeMainPhoto moves handle to position 0; the others keep their relative order.
func (r *registrationUC) MakeMainPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.MakeMainPhoto")()
	return r.mutate(ctx, tgID, registration.StepPhotos, func(d registration.Draft) (registration.Draft, error) {
		idx := -1
		for i, p := range d.Photos {
			if p.URI == handle {
				idx = i
				break
			}
		}
		if idx < 0 {
			return d, domain.ErrNotFound
		}
		photos := make([]registration.Photo, 0, len(d.Photos))
		photos = append(photos, d.Photos[idx])
		photos = append(photos, d.Photos[:idx]...)
		photos = append(photos, d.Photos[idx+1:]...)
		for i := range photos {
			photos[i].OrderIndex = i
		}
		return registration.Reduce(d, registration.ReorderPhotos{Photos: photos}), nil
	})
}

// ConfirmPhotos runs the finalize sequence. The busy flag is held for the
// whole sequence; the draft is cleared only after the record was created.
func (r *registrationUC) ConfirmPhotos(ctx context.Context, tgID int64) (*Completion, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.ConfirmPhotos")()

	var out *Completion
	err := r.withLock(ctx, tgID, func(ctx context.Context) error {
		d, err := r.drafts.GetDraft(ctx, tgID)
		if err != nil {
			return err
		}
		if err := requirePhone(d); err != nil {
			return err
		}
		if d.Step != registration.StepPhotos {
			return fmt.Errorf("%w: draft is on %s, not %s", domain.ErrWrongStep, d.Step, registration.StepPhotos)
		}
		if err := registration.ValidatePhotoCount(len(d.Photos)); err != nil {
			return err
		}
		c, err := r.finalizer.Finalize(ctx, tgID, *d)
		if err != nil {
			return err
		}
		if err := r.drafts.ClearDraft(ctx, tgID); err != nil {
			r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear draft after registration")
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *registrationUC) GoBack(ctx context.Context, tgID int64) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.GoBack")()
	return r.mutate(ctx, tgID, 0, func(d registration.Draft) (registration.Draft, error) {
		return registration.Reduce(d, registration.RetreatStep{}), nil
	})
}

func (r *registrationUC) Cancel(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(r.log, "RegistrationUC.Cancel")()
	return r.withLock(ctx, tgID, func(ctx context.Context) error {
		return r.drafts.ClearDraft(ctx, tgID)
	})
}

// AdoptFederatedIdentity is not bound to a step. Without a draft it stores a
// fresh one so the identity is waiting once the phone number arrives.
func (r *registrationUC) AdoptFederatedIdentity(ctx context.Context, tgID int64, id adapter.FederatedIdentity) (*registration.Draft, error) {
	defer logging.TraceDuration(r.log, "RegistrationUC.AdoptFederatedIdentity")()

	if id.Subject == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *registration.Draft
	err := r.withLock(ctx, tgID, func(ctx context.Context) error {
		d, err := r.drafts.GetDraft(ctx, tgID)
		if errors.Is(err, domain.ErrNoDraft) {
			fresh := registration.NewDraft()
			d, err = &fresh, nil
		}
		if err != nil {
			return err
		}
		next := registration.Reduce(*d, registration.AdoptFederatedIdentity{
			GoogleID:     id.Subject,
			Email:        id.Email,
			FirstName:    id.FirstName,
			LastName:     id.LastName,
			ProfilePhoto: id.ProfilePhoto,
		})
		if err := r.drafts.SaveDraft(ctx, tgID, next); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info().Int64("tg_id", tgID).Str("provider", id.Provider).Msg("federated identity adopted")
	return out, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

