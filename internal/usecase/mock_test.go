//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/domain/registration"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock DraftRepository ----

type MockDraftRepo struct {
	mu     sync.Mutex
	drafts map[int64]registration.Draft

	SaveDraftFunc func(ctx context.Context, tgID int64, d registration.Draft) error
	Saves         int
}

var _ repository.DraftRepository = (*MockDraftRepo)(nil)

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{drafts: make(map[int64]registration.Draft)}
}

func (m *MockDraftRepo) SaveDraft(ctx context.Context, tgID int64, d registration.Draft) error {
	if m.SaveDraftFunc != nil {
		return m.SaveDraftFunc(ctx, tgID, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[tgID] = d.Clone()
	m.Saves++
	return nil
}

func (m *MockDraftRepo) GetDraft(ctx context.Context, tgID int64) (*registration.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[tgID]
	if !ok {
		return nil, domain.ErrNoDraft
	}
	c := d.Clone()
	return &c, nil
}

func (m *MockDraftRepo) ClearDraft(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, tgID)
	return nil
}

// Seed stores d directly, bypassing the use case.
func (m *MockDraftRepo) Seed(tgID int64, d registration.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[tgID] = d.Clone()
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	byTG    map[int64]*model.User
	phones  map[string]bool
	Created []*model.User

	CreateFunc func(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byTG: make(map[int64]*model.User), phones: make(map[string]bool)}
}

func (m *MockUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error) {
	m.mu.Lock()
	m.Created = append(m.Created, u)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTG[u.TelegramID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	m.byTG[u.TelegramID] = u
	m.phones[u.PhoneNumber] = true
	return u, nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byTG[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepo) ExistsByPhone(ctx context.Context, tx repository.Tx, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phones[phone], nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byTG), nil
}

func (m *MockUserRepo) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	Calls     int
	Committed int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if err := fn(ctx, "tx-handle"); err != nil {
		return err
	}
	m.Committed++
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
	seq  int
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker { return &MockLocker{held: make(map[string]string)} }

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", domain.ErrBusy
	}
	m.seq++
	tok := fmt.Sprintf("tok-%d", m.seq)
	m.held[key] = tok
	return tok, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

// Hold marks key as taken by someone else.
func (m *MockLocker) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = "other"
}

// ---- Mock ConnectivityObserver ----

type MockConnectivity struct{ Up bool }

var _ adapter.ConnectivityObserver = (*MockConnectivity)(nil)

func (m *MockConnectivity) Connected() bool { return m.Up }

func (m *MockConnectivity) Subscribe(fn func(bool)) func() { return func() {} }

// ---- Mock ObjectUploader ----

type UploadCall struct {
	Handle, Name, Bucket string
}

type MockUploader struct {
	mu    sync.Mutex
	Calls []UploadCall

	UploadFunc func(ctx context.Context, handle, name, bucket string) (adapter.UploadResult, error)
}

var _ adapter.ObjectUploader = (*MockUploader)(nil)

func (m *MockUploader) Upload(ctx context.Context, handle, name, bucket string) (adapter.UploadResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, UploadCall{Handle: handle, Name: name, Bucket: bucket})
	m.mu.Unlock()
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, handle, name, bucket)
	}
	return adapter.UploadResult{URL: "https://cdn.test/" + bucket + "/" + name}, nil
}

// ---- Mock SessionSink ----

type MockSessionSink struct {
	Established []*model.User

	EstablishFunc func(ctx context.Context, u *model.User) (*adapter.Session, error)
}

var _ adapter.SessionSink = (*MockSessionSink)(nil)

func (m *MockSessionSink) Establish(ctx context.Context, u *model.User) (*adapter.Session, error) {
	m.Established = append(m.Established, u)
	if m.EstablishFunc != nil {
		return m.EstablishFunc(ctx, u)
	}
	return &adapter.Session{Token: "token-" + u.ID, UserID: u.ID}, nil
}

// ---- Recording Sleeper ----

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return ctx.Err()
}

// =============================
// Fixtures
// =============================

func completedDraft(photos ...string) registration.Draft {
	bd := time.Date(1995, 3, 14, 0, 0, 0, 0, time.UTC)
	d := registration.Draft{
		Step:         registration.StepPhotos,
		PhoneNumber:  "+49 151 2345 6789",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Gender:       registration.GenderFemale,
		InterestedIn: []string{registration.InterestBoth},
		Hobbies:      []string{"reading", "travel"},
		Biography:    "hi",
		BirthDate:    &bd,
	}
	for i, p := range photos {
		d.Photos = append(d.Photos, registration.Photo{URI: p, OrderIndex: i})
	}
	return d
}
