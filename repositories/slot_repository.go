package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/5v5games/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrSlotNotFound = errors.New("availability slot not found")
	// Слот уже занят (или уже свободен при освобождении): решает первый
	// закоммитившийся.
	ErrSlotConflict    = errors.New("availability slot is already reserved")
	ErrSlotAlreadyFree = errors.New("availability slot not found or already free")
	// Строка слота заблокирована конкурентной транзакцией; NOWAIT не ждёт.
	ErrSlotLocked       = errors.New("availability slot is locked by a concurrent request")
	ErrSlotFieldInvalid = errors.New("slot references an unknown field")
)

type SlotTime struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ListSlotsFilter struct {
	FieldID *int
	Date    *string
}

type SlotRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, fieldID int, date string, slots []SlotTime) error
	ListFree(ctx context.Context, fieldID int, date string) ([]*models.AvailabilitySlot, error)
	ListWithDetails(ctx context.Context, filter ListSlotsFilter) ([]*models.AvailabilitySlot, error)
	GetDate(ctx context.Context, slotID int) (string, error)

	// LockByID читает слот под эксклюзивной блокировкой строки; блокировка
	// держится до конца транзакции exec.
	LockByID(ctx context.Context, exec SQLExecutor, slotID int) (*models.AvailabilitySlot, error)
	// LockReservedByTimeNowait проверяет, занят ли конкретный интервал,
	// не ожидая чужих блокировок (fail fast).
	LockReservedByTimeNowait(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime string) (bool, error)
	// LockFreeSlotNowait находит свободный слот поля на дату: точное время,
	// если задано, иначе самый ранний свободный слот дня.
	LockFreeSlotNowait(ctx context.Context, exec SQLExecutor, fieldID int, date string, startTime *string) (*models.AvailabilitySlot, error)

	Reserve(ctx context.Context, exec SQLExecutor, slotID int, userID int, resType models.BookingType) error
	ReserveByTime(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime string, userID int, resType models.BookingType) error
	Release(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime, endTime string) error

	Update(ctx context.Context, exec SQLExecutor, slot *models.AvailabilitySlot) error
	Delete(ctx context.Context, slotID int) error
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSlotRepository) CreateBatch(ctx context.Context, exec SQLExecutor, fieldID int, date string, slots []SlotTime) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO availability_slots (field_id, slot_date, start_time, end_time)
		VALUES ($1, $2, $3, $4)`

	for _, s := range slots {
		if _, err := executor.ExecContext(ctx, query, fieldID, date, s.Start, s.End); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrSlotFieldInvalid
			}
			return fmt.Errorf("failed to insert slot %s-%s: %w", s.Start, s.End, err)
		}
	}
	return nil
}

func (r *postgresSlotRepository) ListFree(ctx context.Context, fieldID int, date string) ([]*models.AvailabilitySlot, error) {
	query := `
		SELECT id, field_id, slot_date, start_time, end_time, is_reserved, reservation_type, user_id, created_at
		FROM availability_slots
		WHERE field_id = $1 AND slot_date = $2 AND is_reserved = FALSE
		ORDER BY start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, fieldID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows, false)
}

func (r *postgresSlotRepository) ListWithDetails(ctx context.Context, filter ListSlotsFilter) ([]*models.AvailabilitySlot, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			s.id, s.field_id, s.slot_date, s.start_time, s.end_time,
			s.is_reserved, s.reservation_type, s.user_id, s.created_at,
			u.name, f.name, f.price_per_hour
		FROM availability_slots s
		LEFT JOIN users u ON s.user_id = u.id
		LEFT JOIN fields f ON s.field_id = f.id`)

	args := []interface{}{}
	conditions := []string{}
	if filter.FieldID != nil {
		args = append(args, *filter.FieldID)
		conditions = append(conditions, fmt.Sprintf("s.field_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("s.slot_date = $%d", len(args)))
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY s.slot_date DESC, s.start_time ASC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows, true)
}

func (r *postgresSlotRepository) GetDate(ctx context.Context, slotID int) (string, error) {
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT slot_date FROM availability_slots WHERE id = $1`, slotID,
	).Scan(&date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSlotNotFound
		}
		return "", err
	}
	return date, nil
}

func (r *postgresSlotRepository) LockByID(ctx context.Context, exec SQLExecutor, slotID int) (*models.AvailabilitySlot, error) {
	query := `
		SELECT id, field_id, slot_date, start_time, end_time, is_reserved, reservation_type, user_id, created_at
		FROM availability_slots
		WHERE id = $1
		FOR UPDATE`

	s := &models.AvailabilitySlot{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, slotID).Scan(
		&s.ID, &s.FieldID, &s.SlotDate, &s.StartTime, &s.EndTime,
		&s.IsReserved, &s.ReservationType, &s.UserID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, handleLockError(err)
	}
	return s, nil
}

func (r *postgresSlotRepository) LockReservedByTimeNowait(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime string) (bool, error) {
	query := `
		SELECT id
		FROM availability_slots
		WHERE field_id = $1 AND slot_date = $2 AND start_time = $3 AND is_reserved = TRUE
		FOR UPDATE NOWAIT`

	var id int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, fieldID, date, startTime).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, handleLockError(err)
	}
	return true, nil
}

func (r *postgresSlotRepository) LockFreeSlotNowait(ctx context.Context, exec SQLExecutor, fieldID int, date string, startTime *string) (*models.AvailabilitySlot, error) {
	executor := r.getExecutor(exec)

	var row *sql.Row
	if startTime != nil {
		query := `
			SELECT id, field_id, slot_date, start_time, end_time
			FROM availability_slots
			WHERE field_id = $1 AND slot_date = $2 AND start_time = $3 AND is_reserved = FALSE
			FOR UPDATE NOWAIT`
		row = executor.QueryRowContext(ctx, query, fieldID, date, *startTime)
	} else {
		query := `
			SELECT id, field_id, slot_date, start_time, end_time
			FROM availability_slots
			WHERE field_id = $1 AND slot_date = $2 AND is_reserved = FALSE
			ORDER BY start_time ASC
			LIMIT 1
			FOR UPDATE NOWAIT`
		row = executor.QueryRowContext(ctx, query, fieldID, date)
	}

	s := &models.AvailabilitySlot{}
	err := row.Scan(&s.ID, &s.FieldID, &s.SlotDate, &s.StartTime, &s.EndTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, handleLockError(err)
	}
	return s, nil
}

func (r *postgresSlotRepository) Reserve(ctx context.Context, exec SQLExecutor, slotID int, userID int, resType models.BookingType) error {
	query := `
		UPDATE availability_slots
		SET is_reserved = TRUE, reservation_type = $1, user_id = $2
		WHERE id = $3 AND is_reserved = FALSE`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, resType, userID, slotID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSlotConflict)
}

func (r *postgresSlotRepository) ReserveByTime(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime string, userID int, resType models.BookingType) error {
	query := `
		UPDATE availability_slots
		SET is_reserved = TRUE, reservation_type = $1, user_id = $2
		WHERE field_id = $3 AND slot_date = $4 AND start_time = $5 AND is_reserved = FALSE`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, resType, userID, fieldID, date, startTime)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSlotConflict)
}

func (r *postgresSlotRepository) Release(ctx context.Context, exec SQLExecutor, fieldID int, date, startTime, endTime string) error {
	query := `
		UPDATE availability_slots
		SET is_reserved = FALSE, user_id = NULL, reservation_type = NULL
		WHERE field_id = $1 AND slot_date = $2 AND start_time = $3 AND end_time = $4 AND is_reserved = TRUE`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, fieldID, date, startTime, endTime)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSlotAlreadyFree)
}

func (r *postgresSlotRepository) Update(ctx context.Context, exec SQLExecutor, s *models.AvailabilitySlot) error {
	query := `
		UPDATE availability_slots
		SET start_time = $1, end_time = $2, slot_date = $3, field_id = $4
		WHERE id = $5`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.StartTime, s.EndTime, s.SlotDate, s.FieldID, s.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrSlotFieldInvalid
		}
		return err
	}
	return checkAffectedRows(result, ErrSlotNotFound)
}

func (r *postgresSlotRepository) Delete(ctx context.Context, slotID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_slots WHERE id = $1`, slotID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSlotNotFound)
}

func scanSlots(rows *sql.Rows, withDetails bool) ([]*models.AvailabilitySlot, error) {
	slots := make([]*models.AvailabilitySlot, 0)
	for rows.Next() {
		var s models.AvailabilitySlot
		dest := []interface{}{
			&s.ID, &s.FieldID, &s.SlotDate, &s.StartTime, &s.EndTime,
			&s.IsReserved, &s.ReservationType, &s.UserID, &s.CreatedAt,
		}
		if withDetails {
			dest = append(dest, &s.UserName, &s.FieldName, &s.FieldPrice)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		slots = append(slots, &s)
	}
	return slots, rows.Err()
}

// 55P03 lock_not_available возвращается запросами с NOWAIT.
func handleLockError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "55P03" {
		return ErrSlotLocked
	}
	return err
}
