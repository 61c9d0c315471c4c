//go:build !integration

package telegram

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-dating-onboarding/internal/config"
	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/i18n"
	red "telegram-dating-onboarding/internal/infra/redis"
	"telegram-dating-onboarding/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}
	return tr
}

// ---- Fake BotClient ----

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	SendErr  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return tgbotapi.Message{}, f.SendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeBot) StopReceivingUpdates() {}

// texts returns the text of every plain message sent so far.
func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeBot) lastMessage() (tgbotapi.MessageConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return m, true
		}
	}
	return tgbotapi.MessageConfig{}, false
}

// ---- Mock RegistrationUseCase ----

type draftFn func(ctx context.Context, tgID int64, arg string) (*registration.Draft, error)

type MockRegistrationUC struct {
	CurrentFunc        func(ctx context.Context, tgID int64) (*registration.Draft, error)
	StartFunc          func(ctx context.Context, tgID int64, phone string) (*registration.Draft, error)
	ShareLocationFunc  func(ctx context.Context, tgID int64, loc registration.Location) (*registration.Draft, error)
	ConfirmPhotosFunc  func(ctx context.Context, tgID int64) (*usecase.Completion, error)
	AdoptFederatedFunc func(ctx context.Context, tgID int64, id adapter.FederatedIdentity) (*registration.Draft, error)
	CancelFunc         func(ctx context.Context, tgID int64) error
	Ops                map[string]draftFn
	Calls              []string
	Args               []string
}

var _ usecase.RegistrationUseCase = (*MockRegistrationUC)(nil)

func newMockRegistrationUC() *MockRegistrationUC {
	return &MockRegistrationUC{Ops: map[string]draftFn{}}
}

func (m *MockRegistrationUC) op(ctx context.Context, name string, tgID int64, arg string) (*registration.Draft, error) {
	m.Calls = append(m.Calls, name)
	m.Args = append(m.Args, arg)
	if fn, ok := m.Ops[name]; ok {
		return fn(ctx, tgID, arg)
	}
	return nil, domain.ErrNoDraft
}

func (m *MockRegistrationUC) Start(ctx context.Context, tgID int64, phone string) (*registration.Draft, error) {
	m.Calls = append(m.Calls, "Start")
	m.Args = append(m.Args, phone)
	if m.StartFunc != nil {
		return m.StartFunc(ctx, tgID, phone)
	}
	return nil, domain.ErrNoDraft
}

func (m *MockRegistrationUC) Current(ctx context.Context, tgID int64) (*registration.Draft, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, tgID)
	}
	return nil, domain.ErrNoDraft
}

func (m *MockRegistrationUC) SubmitNames(ctx context.Context, tgID int64, fullName string) (*registration.Draft, error) {
	return m.op(ctx, "SubmitNames", tgID, fullName)
}

func (m *MockRegistrationUC) UseFederatedName(ctx context.Context, tgID int64) (*registration.Draft, error) {
	return m.op(ctx, "UseFederatedName", tgID, "")
}

func (m *MockRegistrationUC) SelectGender(ctx context.Context, tgID int64, value string) (*registration.Draft, error) {
	return m.op(ctx, "SelectGender", tgID, value)
}

func (m *MockRegistrationUC) SelectInterest(ctx context.Context, tgID int64, value string) (*registration.Draft, error) {
	return m.op(ctx, "SelectInterest", tgID, value)
}

func (m *MockRegistrationUC) ShareLocation(ctx context.Context, tgID int64, loc registration.Location) (*registration.Draft, error) {
	m.Calls = append(m.Calls, "ShareLocation")
	m.Args = append(m.Args, "")
	if m.ShareLocationFunc != nil {
		return m.ShareLocationFunc(ctx, tgID, loc)
	}
	return nil, domain.ErrNoDraft
}

func (m *MockRegistrationUC) SkipLocation(ctx context.Context, tgID int64) (*registration.Draft, error) {
	return m.op(ctx, "SkipLocation", tgID, "")
}

func (m *MockRegistrationUC) ToggleHobby(ctx context.Context, tgID int64, hobby string) (*registration.Draft, error) {
	return m.op(ctx, "ToggleHobby", tgID, hobby)
}

func (m *MockRegistrationUC) ConfirmHobbies(ctx context.Context, tgID int64) (*registration.Draft, error) {
	return m.op(ctx, "ConfirmHobbies", tgID, "")
}

func (m *MockRegistrationUC) SubmitBiography(ctx context.Context, tgID int64, text string) (*registration.Draft, error) {
	return m.op(ctx, "SubmitBiography", tgID, text)
}

func (m *MockRegistrationUC) SkipBiography(ctx context.Context, tgID int64) (*registration.Draft, error) {
	return m.op(ctx, "SkipBiography", tgID, "")
}

func (m *MockRegistrationUC) SubmitBirthDate(ctx context.Context, tgID int64, input string) (*registration.Draft, error) {
	return m.op(ctx, "SubmitBirthDate", tgID, input)
}

func (m *MockRegistrationUC) AddPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	return m.op(ctx, "AddPhoto", tgID, handle)
}

func (m *MockRegistrationUC) RemovePhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	return m.op(ctx, "RemovePhoto", tgID, handle)
}

func (m *MockRegistrationUC) MakeMainPhoto(ctx context.Context, tgID int64, handle string) (*registration.Draft, error) {
	return m.op(ctx, "MakeMainPhoto", tgID, handle)
}

func (m *MockRegistrationUC) ConfirmPhotos(ctx context.Context, tgID int64) (*usecase.Completion, error) {
	m.Calls = append(m.Calls, "ConfirmPhotos")
	m.Args = append(m.Args, "")
	if m.ConfirmPhotosFunc != nil {
		return m.ConfirmPhotosFunc(ctx, tgID)
	}
	return nil, domain.ErrNoDraft
}

func (m *MockRegistrationUC) GoBack(ctx context.Context, tgID int64) (*registration.Draft, error) {
	return m.op(ctx, "GoBack", tgID, "")
}

func (m *MockRegistrationUC) Cancel(ctx context.Context, tgID int64) error {
	m.Calls = append(m.Calls, "Cancel")
	m.Args = append(m.Args, "")
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, tgID)
	}
	return nil
}

func (m *MockRegistrationUC) AdoptFederatedIdentity(ctx context.Context, tgID int64, id adapter.FederatedIdentity) (*registration.Draft, error) {
	m.Calls = append(m.Calls, "AdoptFederatedIdentity")
	m.Args = append(m.Args, id.Subject)
	if m.AdoptFederatedFunc != nil {
		return m.AdoptFederatedFunc(ctx, tgID, id)
	}
	return nil, domain.ErrNoDraft
}

// ---- Mock UserUseCase ----

type MockUserUC struct {
	GetByTelegramIDFunc func(ctx context.Context, tgID int64) (*model.User, error)
}

var _ usecase.UserUseCase = (*MockUserUC)(nil)

func (m *MockUserUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	if m.GetByTelegramIDFunc != nil {
		return m.GetByTelegramIDFunc(ctx, tgID)
	}
	return nil, nil
}

func (m *MockUserUC) Count(ctx context.Context) (int, error) { return 0, nil }

// ---- helpers ----

type testLinker struct{ link string }

func (l testLinker) LoginLink(int64) (string, error) { return l.link, nil }

const testTgID int64 = 4242

func newTestAdapter(t *testing.T, reg *MockRegistrationUC, users *MockUserUC) (*RealTelegramBotAdapter, *fakeBot) {
	t.Helper()
	bot := &fakeBot{}
	cfg := &config.BotConfig{Workers: 2, CommandLimit: 100, CommandWindow: time.Minute}
	a, err := NewRealTelegramBotAdapter(cfg, bot, reg, users, newTestTranslator(t), red.NewRateLimiter(red.NewMemoryClient()), newTestLogger())
	if err != nil {
		t.Fatalf("NewRealTelegramBotAdapter: %v", err)
	}
	return a, bot
}

func privateChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: testTgID, Type: "private"}
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testTgID},
		Chat:      privateChat(),
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		n := len(text)
		for i, c := range text {
			if c == ' ' {
				n = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: testTgID},
		Message: &tgbotapi.Message{MessageID: 99, Chat: privateChat()},
		Data:    data,
	}}
}

func draftAt(step registration.Step) *registration.Draft {
	d := registration.NewDraft()
	d.Step = step
	d.PhoneNumber = "+491512345678"
	return &d
}

func returning(d *registration.Draft, err error) draftFn {
	return func(context.Context, int64, string) (*registration.Draft, error) { return d, err }
}
