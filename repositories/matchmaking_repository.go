package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5v5games/booking-system/models"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound   = errors.New("matchmaking request not found")
	ErrRequestInvalidRef = errors.New("matchmaking request references an unknown field or user")
)

type MatchmakingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, req *models.MatchmakingRequest) error
	// LockByID держит блокировку до конца транзакции, чтобы два админа
	// не одобрили одну заявку дважды.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchmakingRequest, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error
	ListByType(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error)
	ListSuggestions(ctx context.Context) ([]*models.MatchSuggestion, error)
	CountPending(ctx context.Context) (int, error)
}

type postgresMatchmakingRepository struct {
	db *sql.DB
}

func NewPostgresMatchmakingRepository(db *sql.DB) MatchmakingRepository {
	return &postgresMatchmakingRepository{db: db}
}

func (r *postgresMatchmakingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchmakingRepository) Create(ctx context.Context, exec SQLExecutor, req *models.MatchmakingRequest) error {
	query := `
		INSERT INTO matchmaking_requests (user_id, field_id, slot_date, start_time, end_time, request_type, players_needed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		req.UserID, req.FieldID, req.SlotDate, req.StartTime, req.EndTime,
		req.RequestType, req.PlayersNeeded,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrRequestInvalidRef
		}
		return fmt.Errorf("failed to create matchmaking request: %w", err)
	}
	return nil
}

func (r *postgresMatchmakingRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchmakingRequest, error) {
	query := `
		SELECT id, user_id, field_id, slot_date, start_time, end_time, request_type, status, players_needed, created_at
		FROM matchmaking_requests
		WHERE id = $1
		FOR UPDATE`

	req := &models.MatchmakingRequest{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.FieldID, &req.SlotDate, &req.StartTime,
		&req.EndTime, &req.RequestType, &req.Status, &req.PlayersNeeded, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *postgresMatchmakingRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE matchmaking_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

func (r *postgresMatchmakingRepository) ListByType(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error) {
	query := `
		SELECT mr.id, mr.user_id, mr.field_id, mr.slot_date, mr.start_time, mr.end_time,
		       mr.request_type, mr.status, mr.players_needed, mr.created_at,
		       u.name, f.name
		FROM matchmaking_requests mr
		JOIN users u ON mr.user_id = u.id
		JOIN fields f ON mr.field_id = f.id
		WHERE mr.request_type = $1
		ORDER BY mr.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, requestType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.MatchmakingRequest, 0)
	for rows.Next() {
		var req models.MatchmakingRequest
		if scanErr := rows.Scan(
			&req.ID, &req.UserID, &req.FieldID, &req.SlotDate, &req.StartTime,
			&req.EndTime, &req.RequestType, &req.Status, &req.PlayersNeeded,
			&req.CreatedAt, &req.UserName, &req.FieldName,
		); scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

// ListSuggestions соединяет ожидающие заявки "игрок ищет команду" с заявками
// "команда ищет игроков" по одному полю и дню. Только чтение: автоматического
// матча нет, пары разбирает админ вручную.
func (r *postgresMatchmakingRepository) ListSuggestions(ctx context.Context) ([]*models.MatchSuggestion, error) {
	query := `
		SELECT
			t.id, t.user_id, team_user.name, team_user.phone_number, t.players_needed,
			p.id, p.user_id, player_user.name,
			t.slot_date, f.name
		FROM matchmaking_requests p
		INNER JOIN matchmaking_requests t
			ON p.slot_date = t.slot_date
			AND p.field_id = t.field_id
		INNER JOIN users player_user ON p.user_id = player_user.id
		INNER JOIN users team_user ON t.user_id = team_user.id
		INNER JOIN fields f ON p.field_id = f.id
		WHERE p.request_type = 'players_looking_for_team'
			AND t.request_type = 'team_looking_for_players'
			AND p.status = 'pending'
			AND t.status = 'pending'`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := make([]*models.MatchSuggestion, 0)
	for rows.Next() {
		var s models.MatchSuggestion
		if scanErr := rows.Scan(
			&s.TeamRequestID, &s.TeamUserID, &s.TeamUserName, &s.TeamPhoneNumber, &s.TeamPlayersNeeded,
			&s.PlayerRequestID, &s.PlayerUserID, &s.PlayerUserName,
			&s.SlotDate, &s.FieldName,
		); scanErr != nil {
			return nil, scanErr
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

func (r *postgresMatchmakingRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matchmaking_requests WHERE status = 'pending'`,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
