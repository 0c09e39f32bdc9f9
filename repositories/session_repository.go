package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrSessionNotFound       = errors.New("team session not found or inactive")
	ErrSessionCodeConflict   = errors.New("session invitation code conflict")
	ErrSessionInvalidRef     = errors.New("session references an unknown field or user")
	ErrSessionMemberConflict = errors.New("user already in this team session")
	ErrSessionMemberNotFound = errors.New("player not found in this session")
)

type SessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, session *models.TeamSession) error
	GetActiveByCode(ctx context.Context, code string) (*models.TeamSession, error)
	// LockActiveByCode сериализует все мутации одной сессии: join, удаление
	// игрока, confirm и submit держат блокировку до конца транзакции.
	LockActiveByCode(ctx context.Context, exec SQLExecutor, code string) (*models.TeamSession, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, sessionID int, status models.SessionStatus) error

	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	RemoveMember(ctx context.Context, exec SQLExecutor, sessionID, userID int) error
	IsMember(ctx context.Context, exec SQLExecutor, sessionID, userID int) (bool, error)
	ListMembers(ctx context.Context, sessionID int) ([]*models.TeamMember, error)
	CountByDesignation(ctx context.Context, exec SQLExecutor, sessionID int, designation models.TeamDesignation) (int, error)
	CountsAB(ctx context.Context, exec SQLExecutor, sessionID int) (teamA int, teamB int, err error)

	CancelStaleActive(ctx context.Context, olderThan time.Time) (int64, error)
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSessionRepository) Create(ctx context.Context, exec SQLExecutor, s *models.TeamSession) error {
	query := `
		INSERT INTO team_sessions (invitation_code, creator_id, field_id, slot_date, start_time, end_time, booking_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		s.InvitationCode, s.CreatorID, s.FieldID, s.SlotDate,
		s.StartTime, s.EndTime, s.BookingType,
	).Scan(&s.ID, &s.Status, &s.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrSessionCodeConflict
			case "23503":
				return ErrSessionInvalidRef
			}
		}
		return fmt.Errorf("failed to create team session: %w", err)
	}
	return nil
}

const sessionColumns = `id, invitation_code, creator_id, booking_type, field_id, slot_date, start_time, end_time, status, created_at`

func (r *postgresSessionRepository) GetActiveByCode(ctx context.Context, code string) (*models.TeamSession, error) {
	query := `
		SELECT ts.id, ts.invitation_code, ts.creator_id, ts.booking_type, ts.field_id,
		       ts.slot_date, ts.start_time, ts.end_time, ts.status, ts.created_at,
		       f.name, f.location, f.price_per_hour
		FROM team_sessions ts
		JOIN fields f ON ts.field_id = f.id
		WHERE ts.invitation_code = $1 AND ts.status = 'active'`

	s := &models.TeamSession{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&s.ID, &s.InvitationCode, &s.CreatorID, &s.BookingType, &s.FieldID,
		&s.SlotDate, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt,
		&s.FieldName, &s.FieldLocation, &s.FieldPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSessionRepository) LockActiveByCode(ctx context.Context, exec SQLExecutor, code string) (*models.TeamSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM team_sessions
		WHERE invitation_code = $1 AND status = 'active'
		FOR UPDATE`

	s := &models.TeamSession{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, code).Scan(
		&s.ID, &s.InvitationCode, &s.CreatorID, &s.BookingType, &s.FieldID,
		&s.SlotDate, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSessionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, sessionID int, status models.SessionStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE team_sessions SET status = $1 WHERE id = $2`, status, sessionID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

// CancelStaleActive отменяет активные сессии, которые так и не дошли до
// подтверждения брони. Вызывается планировщиком.
func (r *postgresSessionRepository) CancelStaleActive(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE team_sessions SET status = $1 WHERE status = $2 AND created_at < $3`,
		models.SessionCancelled, models.SessionActive, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale sessions: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresSessionRepository) AddMember(ctx context.Context, exec SQLExecutor, m *models.TeamMember) error {
	query := `
		INSERT INTO team_members (session_id, user_id, team_designation)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.SessionID, m.UserID, m.TeamDesignation,
	).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSessionMemberConflict
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) RemoveMember(ctx context.Context, exec SQLExecutor, sessionID, userID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM team_members WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSessionMemberNotFound)
}

func (r *postgresSessionRepository) IsMember(ctx context.Context, exec SQLExecutor, sessionID, userID int) (bool, error) {
	var id int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT id FROM team_members WHERE session_id = $1 AND user_id = $2`, sessionID, userID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *postgresSessionRepository) ListMembers(ctx context.Context, sessionID int) ([]*models.TeamMember, error) {
	query := `
		SELECT tm.id, tm.session_id, tm.user_id, tm.team_designation, tm.joined_at, u.name
		FROM team_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.session_id = $1
		ORDER BY tm.joined_at`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if scanErr := rows.Scan(
			&m.ID, &m.SessionID, &m.UserID, &m.TeamDesignation, &m.JoinedAt, &m.PlayerName,
		); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *postgresSessionRepository) CountByDesignation(ctx context.Context, exec SQLExecutor, sessionID int, designation models.TeamDesignation) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members WHERE session_id = $1 AND team_designation = $2`,
		sessionID, designation,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresSessionRepository) CountsAB(ctx context.Context, exec SQLExecutor, sessionID int) (int, int, error) {
	query := `
		SELECT team_designation, COUNT(*)
		FROM team_members
		WHERE session_id = $1
		GROUP BY team_designation`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var teamA, teamB int
	for rows.Next() {
		var designation models.TeamDesignation
		var count int
		if scanErr := rows.Scan(&designation, &count); scanErr != nil {
			return 0, 0, scanErr
		}
		switch designation {
		case models.TeamA:
			teamA = count
		case models.TeamB:
			teamB = count
		}
	}
	return teamA, teamB, rows.Err()
}
