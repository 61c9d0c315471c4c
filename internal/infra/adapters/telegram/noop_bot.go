package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs messages instead of sending them. It stands in for the
// bot when no token is configured in dev mode.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "noop_telegram").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := b.log.Info().Int64("chat_id", params.ChatID).Str("text", params.Text)
	if params.ReplyMarkup != nil {
		ev = ev.Int("button_rows", len(params.ReplyMarkup.Buttons)).Bool("inline", params.ReplyMarkup.IsInline)
	}
	ev.Msg("send message")
	return nil
}

func (b *NoopBotAdapter) NotifyFederated(ctx context.Context, tgID int64, d *registration.Draft) error {
	b.log.Info().Int64("chat_id", tgID).Str("step", d.Step.String()).Msg("federated identity linked")
	return nil
}

func (b *NoopBotAdapter) StartPolling(ctx context.Context) error {
	b.log.Info().Msg("telegram disabled, not polling")
	<-ctx.Done()
	return nil
}
