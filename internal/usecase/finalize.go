package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/logging"
	"telegram-dating-onboarding/internal/infra/metrics"
	"telegram-dating-onboarding/internal/retry"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultUploadAttempts = 3
	DefaultUploadDelay    = 2 * time.Second
	DefaultSubmitTimeout  = 10 * time.Second
	DefaultPhotoBucket    = "profile-photos"
)

type FinalizeConfig struct {
	Bucket        string
	Upload        retry.Policy
	SubmitTimeout time.Duration
}

func (c FinalizeConfig) withDefaults() FinalizeConfig {
	if c.Bucket == "" {
		c.Bucket = DefaultPhotoBucket
	}
	if c.Upload.Attempts <= 0 {
		c.Upload.Attempts = DefaultUploadAttempts
	}
	if c.Upload.Delay <= 0 {
		c.Upload.Delay = DefaultUploadDelay
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	return c
}

// Completion is the signal emitted when the wizard's terminal step succeeds.
type Completion struct {
	User    *model.User
	Session *adapter.Session
}

// Finalizer runs the terminal step: upload every photo, then create the user
// record, then hand it to the session sink.
type Finalizer struct {
	conn     adapter.ConnectivityObserver
	uploader adapter.ObjectUploader
	users    repository.UserRepository
	sessions adapter.SessionSink
	tx       repository.TransactionManager
	cfg      FinalizeConfig
	log      *zerolog.Logger

	now   func() time.Time
	sleep retry.Sleeper
}

func NewFinalizer(
	conn adapter.ConnectivityObserver,
	uploader adapter.ObjectUploader,
	users repository.UserRepository,
	sessions adapter.SessionSink,
	cfg FinalizeConfig,
	logger *zerolog.Logger,
) *Finalizer {
	l := logger.With().Str("component", "Finalizer").Logger()
	return &Finalizer{
		conn:     conn,
		uploader: uploader,
		users:    users,
		sessions: sessions,
		cfg:      cfg.withDefaults(),
		log:      &l,
		now:      time.Now,
		sleep:    retry.SleepContext,
	}
}

// WithClock overrides time and backoff waits; used by tests.
func (f *Finalizer) WithClock(now func() time.Time, sleep retry.Sleeper) *Finalizer {
	if now != nil {
		f.now = now
	}
	if sleep != nil {
		f.sleep = sleep
	}
	return f
}

// WithTransactions makes the phone uniqueness check and the insert share one
// transaction.
func (f *Finalizer) WithTransactions(tm repository.TransactionManager) *Finalizer {
	f.tx = tm
	return f
}

// Finalize never modifies d. On failure nothing is rolled back and the caller
// keeps the draft so the whole step can be retried.
func (f *Finalizer) Finalize(ctx context.Context, tgID int64, d registration.Draft) (*Completion, error) {
	defer logging.TraceDuration(f.log, "Finalizer.Finalize")()

	start := time.Now()
	c, err := f.finalize(ctx, tgID, d)
	metrics.ObserveFinalize(time.Since(start))
	metrics.IncRegistrationCompleted(outcome(err))
	return c, err
}

func outcome(err error) string {
	var upErr *domain.UploadError
	switch {
	case err == nil:
		return "succeeded"
	case errors.As(err, &upErr):
		return "upload_failed"
	case IsConnectivityError(err):
		return "offline"
	default:
		return "failed"
	}
}

func (f *Finalizer) finalize(ctx context.Context, tgID int64, d registration.Draft) (*Completion, error) {
	if f.conn == nil || !f.conn.Connected() {
		return nil, domain.ErrNoConnectivity
	}
	if err := registration.ValidatePhotoCount(len(d.Photos)); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(d.Photos))
	uploaded := make([]string, 0, len(d.Photos))
	for i, p := range d.Photos {
		var url, name string
		err := retry.Do(ctx, f.cfg.Upload, f.sleep, func(ctx context.Context, attempt int) error {
			name = PhotoObjectName(d.PhoneNumber, i, f.now())
			res, err := f.uploader.Upload(ctx, p.URI, name, f.cfg.Bucket)
			if err != nil {
				metrics.IncPhotoUpload("failed")
				f.log.Warn().Err(err).Int("photo", i+1).Int("attempt", attempt).Msg("photo upload failed")
				return err
			}
			metrics.IncPhotoUpload("succeeded")
			url = res.URL
			return nil
		})
		if err != nil {
			var exhausted *retry.ExhaustedError
			if errors.As(err, &exhausted) {
				err = exhausted.Last
			}
			f.reportOrphans(tgID, uploaded)
			return nil, &domain.UploadError{Index: i + 1, Err: err}
		}
		urls = append(urls, url)
		uploaded = append(uploaded, name)
	}

	u, err := model.NewUserFromDraft(tgID, d, urls, f.now())
	if err != nil {
		f.reportOrphans(tgID, uploaded)
		return nil, fmt.Errorf("build user: %w", err)
	}

	created, err := retry.WithTimeout(ctx, f.cfg.SubmitTimeout, domain.ErrSubmitTimeout, func(ctx context.Context) (*model.User, error) {
		return f.submit(ctx, u)
	})
	if err != nil {
		f.reportOrphans(tgID, uploaded)
		return nil, classifySubmitError(err)
	}

	out := &Completion{User: created}
	if f.sessions != nil {
		sess, err := f.sessions.Establish(ctx, created)
		if err != nil {
			// The record exists; the user can still sign in later.
			f.log.Error().Err(err).Str("user_id", created.ID).Msg("failed to establish session")
		} else {
			out.Session = sess
		}
	}
	f.log.Info().Str("user_id", created.ID).Int64("tg_id", tgID).Int("photos", len(urls)).Msg("registration finalized")
	return out, nil
}

func (f *Finalizer) submit(ctx context.Context, u *model.User) (*model.User, error) {
	if f.tx == nil {
		return f.users.Create(ctx, repository.NoTX, u)
	}
	var created *model.User
	err := f.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		taken, err := f.users.ExistsByPhone(ctx, tx, u.PhoneNumber)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrAlreadyExists
		}
		created, err = f.users.Create(ctx, tx, u)
		return err
	})
	return created, err
}

// reportOrphans logs objects left behind by an aborted finalize. They are not
// deleted.
func (f *Finalizer) reportOrphans(tgID int64, names []string) {
	if len(names) == 0 {
		return
	}
	metrics.AddOrphanedObjects(len(names))
	f.log.Warn().Int64("tg_id", tgID).Strs("objects", names).Str("bucket", f.cfg.Bucket).Msg("uploaded photos orphaned")
}

// PhotoObjectName derives the remote file name from the phone number, the
// photo position and the current time.
func PhotoObjectName(phone string, position int, now time.Time) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if digits == "" {
		digits = "anon"
	}
	return fmt.Sprintf("%s_%d_%d.jpg", digits, position, now.UnixMilli())
}

var connectivityMarkers = []string{"network", "timeout", "connection"}

// IsConnectivityError reports whether err looks like a network problem rather
// than a rejected submission.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNoConnectivity) || errors.Is(err, domain.ErrSubmitTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connectivityMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func classifySubmitError(err error) error {
	if errors.Is(err, domain.ErrSubmitTimeout) {
		return err
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", domain.ErrNoConnectivity, err)
	}
	return fmt.Errorf("create user: %w", err)
}
