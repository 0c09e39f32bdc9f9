package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/5v5games/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("email is already registered")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListByBirthdayDates отбирает пользователей, у которых MM-DD дня
	// рождения попадает в переданный набор.
	ListByBirthdayDates(ctx context.Context, monthDays []string) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone_number, birthdate, gender, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PhoneNumber, user.Birthdate, user.Gender,
		user.PasswordHash, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrUserEmailConflict
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, name, email, phone_number, birthdate, gender, password_hash, is_admin, created_at
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone_number, birthdate, gender, password_hash, is_admin, created_at
		FROM users
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) ListByBirthdayDates(ctx context.Context, monthDays []string) ([]*models.User, error) {
	query := `
		SELECT id, name, email, phone_number, birthdate, gender, password_hash, is_admin, created_at
		FROM users
		WHERE birthdate IS NOT NULL
		  AND TO_CHAR(TO_DATE(birthdate, 'YYYY-MM-DD'), 'MM-DD') = ANY($1::text[])
		ORDER BY TO_CHAR(TO_DATE(birthdate, 'YYYY-MM-DD'), 'MM-DD')`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(monthDays))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u := &models.User{}
		if scanErr := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Birthdate, &u.Gender,
			&u.PasswordHash, &u.IsAdmin, &u.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresUserRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Birthdate, &u.Gender,
		&u.PasswordHash, &u.IsAdmin, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
