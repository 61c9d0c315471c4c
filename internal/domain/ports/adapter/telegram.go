// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Button is a keyboard button. Inline buttons use Data or URL; reply keyboard
// buttons may request the user's contact or location instead.
type Button struct {
	Text            string
	Data            string
	URL             string
	RequestContact  bool
	RequestLocation bool
}

type ReplyMarkup struct {
	Buttons  [][]Button
	IsInline bool
	// Remove hides a previously shown reply keyboard.
	Remove bool
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ReplyMarkup *ReplyMarkup
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
