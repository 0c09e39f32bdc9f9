package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5v5games/booking-system/models"
)

var ErrReservationNotFound = errors.New("reservation not found")

type ReservationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, res *models.Reservation) error
	// LockByID держит эксклюзивную блокировку строки до конца транзакции,
	// чтобы reject/cancel одного бронирования сериализовались.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListByUser(ctx context.Context, userID int) ([]*models.Reservation, error)
	ListAll(ctx context.Context) ([]*models.Reservation, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Reservation, error)
	Count(ctx context.Context) (int, error)
	TotalEarnings(ctx context.Context) (float64, error)
}

type postgresReservationRepository struct {
	db *sql.DB
}

func NewPostgresReservationRepository(db *sql.DB) ReservationRepository {
	return &postgresReservationRepository{db: db}
}

func (r *postgresReservationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresReservationRepository) Create(ctx context.Context, exec SQLExecutor, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (user_id, field_id, slot_date, start_time, end_time, booking_type, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		res.UserID, res.FieldID, res.SlotDate, res.StartTime, res.EndTime,
		res.BookingType, res.SessionID,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *postgresReservationRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Reservation, error) {
	query := `
		SELECT id, user_id, field_id, slot_date, start_time, end_time, booking_type, session_id, created_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE`

	res := &models.Reservation{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.UserID, &res.FieldID, &res.SlotDate, &res.StartTime,
		&res.EndTime, &res.BookingType, &res.SessionID, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresReservationRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrReservationNotFound)
}

func (r *postgresReservationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Reservation, error) {
	query := `
		SELECT
			r.id, r.user_id, r.field_id, r.slot_date, r.start_time, r.end_time,
			r.booking_type, r.session_id, r.created_at,
			f.name, f.price_per_hour
		FROM reservations r
		LEFT JOIN fields f ON r.field_id = f.id
		WHERE r.user_id = $1
		ORDER BY r.slot_date DESC, r.start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanList(rows, false)
}

func (r *postgresReservationRepository) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	query := `
		SELECT
			r.id, r.user_id, r.field_id, r.slot_date, r.start_time, r.end_time,
			r.booking_type, r.session_id, r.created_at,
			f.name, f.price_per_hour, u.name
		FROM reservations r
		JOIN fields f ON r.field_id = f.id
		JOIN users u ON r.user_id = u.id
		ORDER BY r.slot_date DESC, r.start_time DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanList(rows, true)
}

func (r *postgresReservationRepository) ListRecent(ctx context.Context, limit int) ([]*models.Reservation, error) {
	query := `
		SELECT
			r.id, r.user_id, r.field_id, r.slot_date, r.start_time, r.end_time,
			r.booking_type, r.session_id, r.created_at,
			f.name, f.price_per_hour, u.name
		FROM reservations r
		JOIN fields f ON r.field_id = f.id
		JOIN users u ON r.user_id = u.id
		ORDER BY r.slot_date DESC, r.start_time DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanList(rows, true)
}

func (r *postgresReservationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresReservationRepository) TotalEarnings(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(f.price_per_hour), 0)
		FROM reservations r
		JOIN fields f ON r.field_id = f.id`

	var total float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresReservationRepository) scanList(rows *sql.Rows, withUser bool) ([]*models.Reservation, error) {
	reservations := make([]*models.Reservation, 0)
	for rows.Next() {
		var res models.Reservation
		dest := []interface{}{
			&res.ID, &res.UserID, &res.FieldID, &res.SlotDate, &res.StartTime,
			&res.EndTime, &res.BookingType, &res.SessionID, &res.CreatedAt,
			&res.FieldName, &res.FieldPrice,
		}
		if withUser {
			dest = append(dest, &res.UserName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}
