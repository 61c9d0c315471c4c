package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/logging"
	"telegram-dating-onboarding/internal/infra/metrics"
)

// callback is what a handler needs from a pressed inline button.
type callback struct {
	ChatID    int64
	TgID      int64
	MessageID int
	Data      string
}

type cbHandler func(ctx context.Context, cb callback) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbUseGoogleName: r.useGoogleNameCBRoute,
		cbHobbiesDone:   r.hobbiesDoneCBRoute,
		cbSkipBio:       r.skipBioCBRoute,
		cbPhotosDone:    r.photosDoneCBRoute,
		cbBack:          r.backCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: cbGenderPrefix, Fn: r.genderPrefixCBRoute},
		{Prefix: cbInterestPrefix, Fn: r.interestPrefixCBRoute},
		{Prefix: cbHobbyPrefix, Fn: r.hobbyPrefixCBRoute},
		{Prefix: cbPhotoMainPrefix, Fn: r.photoMainPrefixCBRoute},
		{Prefix: cbPhotoDelPrefix, Fn: r.photoDelPrefixCBRoute},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	cb := callback{ChatID: query.From.ID, TgID: query.From.ID, Data: strings.TrimSpace(query.Data)}
	if query.Message != nil && query.Message.Chat != nil {
		cb.ChatID = query.Message.Chat.ID
		cb.MessageID = query.Message.MessageID
	}

	if !r.allow(ctx, cb.ChatID, cb.TgID, "cb") {
		return nil
	}

	if fn, ok := r.cbRoutes()[cb.Data]; ok {
		return fn(ctx, cb)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(cb.Data, pr.Prefix) {
			return pr.Fn(ctx, cb)
		}
	}
	logging.With(ctx, r.log).Warn().Str("data", cb.Data).Msg("unknown callback data")
	return nil
}

func (r *RealTelegramBotAdapter) useGoogleNameCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.UseFederatedName(ctx, cb.TgID)
	return r.respond(ctx, cb.ChatID, registration.StepNames, d, err)
}

func (r *RealTelegramBotAdapter) hobbiesDoneCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.ConfirmHobbies(ctx, cb.TgID)
	if err != nil {
		return r.fail(ctx, cb.ChatID, registration.StepHobbies, err)
	}
	return r.showStep(ctx, cb.ChatID, d)
}

func (r *RealTelegramBotAdapter) skipBioCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.SkipBiography(ctx, cb.TgID)
	return r.respond(ctx, cb.ChatID, registration.StepBiography, d, err)
}

func (r *RealTelegramBotAdapter) backCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.GoBack(ctx, cb.TgID)
	return r.respond(ctx, cb.ChatID, 0, d, err)
}

// photosDoneCBRoute runs the finalize sequence. On failure the draft is kept
// and the photo step is shown again so the user can retry.
func (r *RealTelegramBotAdapter) photosDoneCBRoute(ctx context.Context, cb callback) error {
	if err := r.sendText(ctx, cb.ChatID, r.translator.T("finalizing")); err != nil {
		return err
	}

	start := time.Now()
	c, err := r.reg.ConfirmPhotos(ctx, cb.TgID)
	if err != nil {
		key, args := finalizeMessage(err)
		metrics.IncStepRejected(registration.StepPhotos.String(), strings.TrimPrefix(key, "err_"))
		logging.With(ctx, r.log).Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("finalize failed")
		if err := r.sendText(ctx, cb.ChatID, r.translator.T(key, args...)); err != nil {
			return err
		}
		if errors.Is(err, domain.ErrBusy) {
			return nil
		}
		if d, cerr := r.reg.Current(ctx, cb.TgID); cerr == nil {
			return r.showStep(ctx, cb.ChatID, d)
		}
		return nil
	}

	logging.With(ctx, r.log).Info().Str("user_id", c.User.ID).Dur("elapsed", time.Since(start)).Msg("registration completed")
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      cb.ChatID,
		Text:        r.translator.T("registration_complete", c.User.FirstName),
		ReplyMarkup: &adapter.ReplyMarkup{Remove: true},
	})
}

func (r *RealTelegramBotAdapter) genderPrefixCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.SelectGender(ctx, cb.TgID, strings.TrimPrefix(cb.Data, cbGenderPrefix))
	return r.respond(ctx, cb.ChatID, registration.StepGender, d, err)
}

func (r *RealTelegramBotAdapter) interestPrefixCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.SelectInterest(ctx, cb.TgID, strings.TrimPrefix(cb.Data, cbInterestPrefix))
	return r.respond(ctx, cb.ChatID, registration.StepInterestedIn, d, err)
}

// hobbyPrefixCBRoute updates the hobby keyboard in place. A refused toggle
// only produces the warning; the keyboard stays as it is.
func (r *RealTelegramBotAdapter) hobbyPrefixCBRoute(ctx context.Context, cb callback) error {
	d, err := r.reg.ToggleHobby(ctx, cb.TgID, strings.TrimPrefix(cb.Data, cbHobbyPrefix))
	if err != nil {
		return r.fail(ctx, cb.ChatID, registration.StepHobbies, err)
	}
	if cb.MessageID == 0 {
		return r.showStep(ctx, cb.ChatID, d)
	}
	text, markup := r.prompts.render(*d)
	return r.editMessage(ctx, cb.ChatID, cb.MessageID, text, markup)
}

func (r *RealTelegramBotAdapter) photoMainPrefixCBRoute(ctx context.Context, cb callback) error {
	handle, err := r.photoHandle(ctx, cb.TgID, strings.TrimPrefix(cb.Data, cbPhotoMainPrefix))
	if err != nil {
		return r.respond(ctx, cb.ChatID, registration.StepPhotos, nil, err)
	}
	d, err := r.reg.MakeMainPhoto(ctx, cb.TgID, handle)
	return r.respond(ctx, cb.ChatID, registration.StepPhotos, d, err)
}

func (r *RealTelegramBotAdapter) photoDelPrefixCBRoute(ctx context.Context, cb callback) error {
	handle, err := r.photoHandle(ctx, cb.TgID, strings.TrimPrefix(cb.Data, cbPhotoDelPrefix))
	if err != nil {
		return r.respond(ctx, cb.ChatID, registration.StepPhotos, nil, err)
	}
	d, err := r.reg.RemovePhoto(ctx, cb.TgID, handle)
	return r.respond(ctx, cb.ChatID, registration.StepPhotos, d, err)
}

// photoHandle resolves the 1-based position shown on the buttons to the
// photo's handle. File ids do not fit into callback data.
func (r *RealTelegramBotAdapter) photoHandle(ctx context.Context, tgID int64, position string) (string, error) {
	n, err := strconv.Atoi(position)
	if err != nil {
		return "", domain.NewValidationError(int(registration.StepPhotos), "bad photo position", domain.ErrInvalidArgument)
	}
	d, err := r.reg.Current(ctx, tgID)
	if err != nil {
		return "", err
	}
	if d.Step != registration.StepPhotos {
		return "", fmt.Errorf("%w: draft is on %s", domain.ErrWrongStep, d.Step)
	}
	if n < 1 || n > len(d.Photos) {
		return "", domain.NewValidationError(int(registration.StepPhotos), "photo position out of range", domain.ErrInvalidArgument)
	}
	return d.Photos[n-1].URI, nil
}
