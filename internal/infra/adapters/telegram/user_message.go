package telegram

import (
	"errors"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/usecase"
)

// UserMessage picks the translation key (and its arguments) shown for err.
// Unrecognised errors map to err_generic.
func UserMessage(err error) (string, []interface{}) {
	var upload *domain.UploadError
	if errors.As(err, &upload) {
		return "err_upload", []interface{}{upload.Index}
	}

	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrAlreadyExists):
		return "already_registered", nil
	case errors.Is(err, domain.ErrBusy):
		return "err_busy", nil
	case errors.Is(err, domain.ErrNoDraft):
		return "err_no_draft", nil
	case errors.Is(err, domain.ErrWrongStep):
		return "err_wrong_step", nil
	case errors.Is(err, domain.ErrUnderage):
		return "err_birthdate_invalid", nil
	case errors.Is(err, domain.ErrHobbyLimit):
		return "err_hobby_limit", nil
	case errors.Is(err, domain.ErrPhotoLimit):
		return "err_photo_limit", nil
	case errors.Is(err, domain.ErrPhotoCount):
		return "err_photo_count", nil
	case errors.Is(err, domain.ErrSubmitTimeout):
		return "err_submit_timeout", nil
	case errors.Is(err, domain.ErrNoConnectivity):
		return "err_no_connectivity", nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		switch registration.Step(ve.Step) {
		case registration.StepNames:
			return "err_names", nil
		case registration.StepGender, registration.StepInterestedIn:
			return "err_selection", nil
		case registration.StepLocation:
			return "err_location", nil
		case registration.StepHobbies:
			return "err_hobby_min", nil
		case registration.StepBirthDate:
			return "err_birthdate_invalid", nil
		case registration.StepPhotos:
			return "err_photo_count", nil
		}
	}

	if usecase.IsConnectivityError(err) {
		return "err_no_connectivity", nil
	}
	return "err_generic", nil
}

// finalizeMessage is UserMessage for the terminal step, where anything
// without a specific message is reported as a connection problem.
func finalizeMessage(err error) (string, []interface{}) {
	key, args := UserMessage(err)
	if key == "err_generic" {
		return "err_no_connectivity", nil
	}
	return key, args
}
