package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-dating-onboarding/internal/config"
	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/i18n"
	"telegram-dating-onboarding/internal/infra/logging"
	"telegram-dating-onboarding/internal/infra/metrics"
	red "telegram-dating-onboarding/internal/infra/redis"
	"telegram-dating-onboarding/internal/infra/worker"
	"telegram-dating-onboarding/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// GoogleLinker hands out the sign-in link for a Telegram user.
type GoogleLinker interface {
	LoginLink(tgID int64) (string, error)
}

// RealTelegramBotAdapter renders the registration wizard as a bot
// conversation and feeds the user's answers to the registration use case.
type RealTelegramBotAdapter struct {
	bot         BotClient
	cfg         *config.BotConfig
	reg         usecase.RegistrationUseCase
	users       usecase.UserUseCase
	translator  *i18n.Translator
	prompts     stepRenderer
	rateLimiter *red.RateLimiter
	sendLimiter *rate.Limiter
	google      GoogleLinker
	log         *zerolog.Logger

	pool          *worker.KeyedPool
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	bot BotClient,
	reg usecase.RegistrationUseCase,
	users usecase.UserUseCase,
	translator *i18n.Translator,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if bot == nil {
		return nil, errors.New("bot client is nil")
	}
	if reg == nil || users == nil {
		return nil, errors.New("use cases are required")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}
	l := logger.With().Str("component", "telegram").Logger()

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = 1
	}

	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		reg:         reg,
		users:       users,
		translator:  translator,
		prompts:     stepRenderer{t: translator},
		rateLimiter: rateLimiter,
		sendLimiter: rate.NewLimiter(limit, burst),
		log:         &l,
		pool:        worker.NewKeyedPool(cfg.Workers, 32, &l),
	}, nil
}

// WithGoogle enables the /google command.
func (r *RealTelegramBotAdapter) WithGoogle(g GoogleLinker) *RealTelegramBotAdapter {
	r.google = g
	return r
}

// StartPolling receives updates until ctx is cancelled. Updates of one user
// are handled one at a time, in the order Telegram delivered them.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.pool.Start(ctx)
	r.log.Info().Int("workers", r.cfg.Workers).Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			r.pool.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				r.pool.Stop()
				return nil
			}
			key := senderID(update)
			if key == 0 {
				continue
			}
			if err := r.pool.Submit(key, func(ctx context.Context) error {
				return r.handleUpdate(ctx, update)
			}); err != nil {
				r.log.Warn().Err(err).Int64("tg_id", key).Int("update_id", update.UpdateID).Msg("dropping update")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage implements adapter.TelegramBotAdapter. Outgoing messages share
// one throttle so the bot stays under the Bot API's global limit.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if err := r.sendLimiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	if params.ReplyMarkup != nil {
		if markup := toTelegramMarkup(*params.ReplyMarkup); markup != nil {
			msg.ReplyMarkup = markup
		}
	}
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncSendFailure()
		return err
	}
	return nil
}

// editMessage replaces the text and inline keyboard of a message the bot sent.
func (r *RealTelegramBotAdapter) editMessage(ctx context.Context, chatID int64, messageID int, text string, markup *adapter.ReplyMarkup) error {
	if err := r.sendLimiter.Wait(ctx); err != nil {
		return err
	}
	var kb tgbotapi.InlineKeyboardMarkup
	if markup != nil {
		kb = inlineKeyboard(markup.Buttons)
	}
	if _, err := r.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)); err != nil {
		metrics.IncSendFailure()
		return err
	}
	return nil
}

func (r *RealTelegramBotAdapter) sendText(ctx context.Context, chatID int64, text string) error {
	return r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
}

// NotifyFederated tells the user their Google account was linked and shows
// where the wizard stands now.
func (r *RealTelegramBotAdapter) NotifyFederated(ctx context.Context, tgID int64, d *registration.Draft) error {
	who := d.Email
	if first, last, ok := d.FederatedName(); ok {
		who = strings.TrimSpace(first + " " + last)
	}
	if err := r.sendText(ctx, tgID, r.translator.T("google_adopted", who)); err != nil {
		return err
	}
	return r.resume(ctx, tgID, d)
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	tgID := senderID(update)
	if tgID == 0 {
		return nil
	}
	// Only private chats, where the chat id is the user's id.
	if m := update.Message; m != nil && (m.Chat == nil || !m.Chat.IsPrivate()) {
		return nil
	}
	ctx = logging.WithTgID(logging.WithTraceID(ctx, ulid.Make().String()), tgID)

	switch {
	case update.CallbackQuery != nil:
		metrics.IncTelegramUpdate("callback")
		return r.handleQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		metrics.IncTelegramUpdate("command")
		return r.handleCommand(ctx, update.Message)
	case update.Message != nil:
		metrics.IncTelegramUpdate("message")
		return r.handleMessage(ctx, update.Message)
	}
	return nil
}

// allow applies the per-user rate limit for bucket. A limiter failure lets
// the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, chatID, tgID int64, bucket string) bool {
	if r.rateLimiter == nil || r.cfg.CommandLimit <= 0 {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgID, bucket), r.cfg.CommandLimit, r.cfg.CommandWindow)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
		_ = r.sendText(ctx, chatID, r.translator.T("err_rate_limited"))
	}
	return ok
}

func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if !r.allow(ctx, message.Chat.ID, message.From.ID, "/"+message.Command()) {
		return nil
	}
	if fn, ok := r.commandRoutes()[message.Command()]; ok {
		return fn(ctx, message)
	}
	return r.sendText(ctx, message.Chat.ID, r.translator.T("help"))
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if !r.allow(ctx, message.Chat.ID, message.From.ID, "msg") {
		return nil
	}
	switch {
	case message.Contact != nil:
		return r.handleContact(ctx, message)
	case message.Location != nil:
		d, err := r.reg.ShareLocation(ctx, message.From.ID, registration.Location{
			Latitude:  message.Location.Latitude,
			Longitude: message.Location.Longitude,
		})
		return r.respond(ctx, message.Chat.ID, registration.StepLocation, d, err)
	case len(message.Photo) > 0:
		d, err := r.reg.AddPhoto(ctx, message.From.ID, largestPhoto(message.Photo))
		return r.respond(ctx, message.Chat.ID, registration.StepPhotos, d, err)
	case strings.TrimSpace(message.Text) != "":
		return r.handleText(ctx, message)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleContact(ctx context.Context, message *tgbotapi.Message) error {
	if message.Contact.UserID != message.From.ID {
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:      message.Chat.ID,
			Text:        r.translator.T("contact_not_own"),
			ReplyMarkup: r.prompts.contactKeyboard(),
		})
	}
	d, err := r.reg.Start(ctx, message.From.ID, message.Contact.PhoneNumber)
	if err == nil {
		metrics.IncRegistrationStarted()
	}
	return r.respond(ctx, message.Chat.ID, 0, d, err)
}

// handleText routes free text by the step the draft is on.
func (r *RealTelegramBotAdapter) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID, tgID := message.Chat.ID, message.From.ID
	text := strings.TrimSpace(message.Text)

	d, err := r.reg.Current(ctx, tgID)
	if err != nil {
		return r.fail(ctx, chatID, 0, err)
	}
	if d.PhoneNumber == "" {
		return r.resume(ctx, chatID, d)
	}

	step := d.Step
	switch step {
	case registration.StepNames:
		d, err = r.reg.SubmitNames(ctx, tgID, text)
	case registration.StepLocation:
		switch text {
		case r.translator.T("btn_skip"):
			d, err = r.reg.SkipLocation(ctx, tgID)
		case r.translator.T("btn_back"):
			d, err = r.reg.GoBack(ctx, tgID)
		default:
			return r.showStep(ctx, chatID, d)
		}
	case registration.StepBiography:
		d, err = r.reg.SubmitBiography(ctx, tgID, text)
	case registration.StepBirthDate:
		d, err = r.reg.SubmitBirthDate(ctx, tgID, text)
	default:
		if err := r.sendText(ctx, chatID, r.translator.T("err_wrong_step")); err != nil {
			return err
		}
		return r.showStep(ctx, chatID, d)
	}
	return r.respond(ctx, chatID, step, d, err)
}

// respond reports err and re-prompts, or renders the step d is on after a
// successful action.
func (r *RealTelegramBotAdapter) respond(ctx context.Context, chatID int64, step registration.Step, d *registration.Draft, err error) error {
	if err != nil {
		if err := r.fail(ctx, chatID, step, err); err != nil {
			return err
		}
		if errors.Is(err, domain.ErrBusy) {
			return nil
		}
		if current, cerr := r.reg.Current(ctx, chatID); cerr == nil {
			return r.showStep(ctx, chatID, current)
		}
		return nil
	}
	return r.showStep(ctx, chatID, d)
}

// fail replies with the localized message for err.
func (r *RealTelegramBotAdapter) fail(ctx context.Context, chatID int64, step registration.Step, err error) error {
	key, args := UserMessage(err)
	if key == "err_generic" {
		logging.With(ctx, r.log).Error().Err(err).Str("step", step.String()).Msg("registration action failed")
	} else {
		metrics.IncStepRejected(step.String(), strings.TrimPrefix(key, "err_"))
		logging.With(ctx, r.log).Debug().Err(err).Str("step", step.String()).Msg("registration action rejected")
	}
	return r.sendText(ctx, chatID, r.translator.T(key, args...))
}

// resume shows the welcome prompt until the phone number is known, and the
// current step afterwards.
func (r *RealTelegramBotAdapter) resume(ctx context.Context, chatID int64, d *registration.Draft) error {
	if d == nil || d.PhoneNumber == "" {
		return r.sendWelcome(ctx, chatID)
	}
	return r.showStep(ctx, chatID, d)
}

func (r *RealTelegramBotAdapter) showStep(ctx context.Context, chatID int64, d *registration.Draft) error {
	if d == nil {
		return nil
	}
	text, markup := r.prompts.render(*d)
	return r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup})
}

func (r *RealTelegramBotAdapter) sendWelcome(ctx context.Context, chatID int64) error {
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        r.translator.T("start_welcome"),
		ReplyMarkup: r.prompts.contactKeyboard(),
	})
}

// largestPhoto picks the highest resolution variant Telegram offers.
func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID
}

func toTelegramMarkup(m adapter.ReplyMarkup) interface{} {
	switch {
	case m.Remove:
		return tgbotapi.NewRemoveKeyboard(true)
	case len(m.Buttons) == 0:
		return nil
	case m.IsInline:
		return inlineKeyboard(m.Buttons)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Buttons))
	for _, row := range m.Buttons {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			switch {
			case btn.RequestContact:
				r = append(r, tgbotapi.NewKeyboardButtonContact(btn.Text))
			case btn.RequestLocation:
				r = append(r, tgbotapi.NewKeyboardButtonLocation(btn.Text))
			default:
				r = append(r, tgbotapi.NewKeyboardButton(btn.Text))
			}
		}
		rows = append(rows, r)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func inlineKeyboard(buttons [][]adapter.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		rows = append(rows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
