package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-dating-onboarding/internal/domain"
	"telegram-dating-onboarding/internal/domain/model"
	"telegram-dating-onboarding/internal/domain/ports/repository"
	"telegram-dating-onboarding/internal/domain/registration"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

const uniqueViolation = "23505"

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `
  id, telegram_id, phone_number, first_name, last_name, gender, interested_in,
  latitude, longitude, city, country, hobbies, biography, birth_date,
  photos, profile_photo, is_google_signup, google_id, email, created_at, updated_at`

// Create inserts u. A duplicate Telegram ID, phone number or Google ID is
// reported as domain.ErrAlreadyExists.
func (r *PostgresUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) (*model.User, error) {
	q := `INSERT INTO users (` + userColumns + `
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) RETURNING ` + userColumns + `;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var lat, lon *float64
	var city, country *string
	if u.Location != nil {
		lat, lon = &u.Location.Latitude, &u.Location.Longitude
		city, country = nullable(u.Location.City), nullable(u.Location.Country)
	}
	row := ex.QueryRow(ctx, q,
		u.ID, u.TelegramID, u.PhoneNumber, u.FirstName, u.LastName, u.Gender, nonNil(u.InterestedIn),
		lat, lon, city, country, nonNil(u.Hobbies), u.Biography, u.BirthDate,
		nonNil(u.Photos), u.ProfilePhoto, u.IsGoogleSignup, nullable(u.GoogleID), nullable(u.Email), u.CreatedAt, u.UpdatedAt,
	)
	out, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(ex.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, tgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepo) ExistsByPhone(ctx context.Context, tx repository.Tx, phone string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := ex.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE phone_number=$1);`, phone).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists by phone: %w", err)
	}
	return ok, nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u               model.User
		lat, lon        *float64
		city, country   *string
		googleID, email *string
	)
	if err := row.Scan(
		&u.ID, &u.TelegramID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Gender, &u.InterestedIn,
		&lat, &lon, &city, &country, &u.Hobbies, &u.Biography, &u.BirthDate,
		&u.Photos, &u.ProfilePhoto, &u.IsGoogleSignup, &googleID, &email, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		u.Location = &registration.Location{Latitude: *lat, Longitude: *lon, City: deref(city), Country: deref(country)}
	}
	u.GoogleID, u.Email = deref(googleID), deref(email)
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
