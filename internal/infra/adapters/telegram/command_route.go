package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleStartCommand,
		"status":  r.handleStatusCommand,
		"back":    r.handleBackCommand,
		"cancel":  r.handleCancelCommand,
		"google":  r.handleGoogleCommand,
		"privacy": r.handlePrivacyCommand,
		"help":    r.handleHelpCommand,
	}
}

// handleStartCommand resumes a registration in progress, or asks for the
// phone number to begin one.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	u, err := r.users.GetByTelegramID(ctx, message.From.ID)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, 0, err)
	}
	if u != nil {
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:      message.Chat.ID,
			Text:        r.translator.T("already_registered"),
			ReplyMarkup: &adapter.ReplyMarkup{Remove: true},
		})
	}

	d, err := r.reg.Current(ctx, message.From.ID)
	if err != nil && !errors.Is(err, domain.ErrNoDraft) {
		return r.fail(ctx, message.Chat.ID, 0, err)
	}
	return r.resume(ctx, message.Chat.ID, d)
}

// handleStatusCommand re-sends the prompt of the current step.
func (r *RealTelegramBotAdapter) handleStatusCommand(ctx context.Context, message *tgbotapi.Message) error {
	d, err := r.reg.Current(ctx, message.From.ID)
	if errors.Is(err, domain.ErrNoDraft) {
		if u, uerr := r.users.GetByTelegramID(ctx, message.From.ID); uerr == nil && u != nil {
			return r.sendText(ctx, message.Chat.ID, r.translator.T("already_registered"))
		}
		return r.sendText(ctx, message.Chat.ID, r.translator.T("status_none"))
	}
	if err != nil {
		return r.fail(ctx, message.Chat.ID, 0, err)
	}
	return r.resume(ctx, message.Chat.ID, d)
}

func (r *RealTelegramBotAdapter) handleBackCommand(ctx context.Context, message *tgbotapi.Message) error {
	d, err := r.reg.GoBack(ctx, message.From.ID)
	return r.respond(ctx, message.Chat.ID, 0, d, err)
}

func (r *RealTelegramBotAdapter) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) error {
	if err := r.reg.Cancel(ctx, message.From.ID); err != nil {
		return r.fail(ctx, message.Chat.ID, 0, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      message.Chat.ID,
		Text:        r.translator.T("cancelled"),
		ReplyMarkup: &adapter.ReplyMarkup{Remove: true},
	})
}

func (r *RealTelegramBotAdapter) handleGoogleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if r.google == nil {
		return r.sendText(ctx, message.Chat.ID, r.translator.T("google_disabled"))
	}
	link, err := r.google.LoginLink(message.From.ID)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, 0, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: message.Chat.ID,
		Text:   r.translator.T("google_login"),
		ReplyMarkup: &adapter.ReplyMarkup{
			IsInline: true,
			Buttons:  [][]adapter.Button{{{Text: r.translator.T("btn_google"), URL: link}}},
		},
	})
}

func (r *RealTelegramBotAdapter) handlePrivacyCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendText(ctx, message.Chat.ID, r.translator.Policy())
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendText(ctx, message.Chat.ID, r.translator.T("help"))
}
