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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentInvalidField = errors.New("tournament references an unknown field")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UpdateImageKey(ctx context.Context, tournamentID int, imageKey *string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, field_id, tournament_date, prize, description, image_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.FieldID, t.TournamentDate, t.Prize, t.Description, t.ImageKey,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTournamentInvalidField
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT t.id, t.name, t.field_id, t.tournament_date, t.prize, t.description,
		       t.image_key, t.created_at, f.name, f.location
		FROM tournaments t
		JOIN fields f ON t.field_id = f.id
		WHERE t.id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.FieldID, &t.TournamentDate, &t.Prize, &t.Description,
		&t.ImageKey, &t.CreatedAt, &t.FieldName, &t.FieldLocation,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT t.id, t.name, t.field_id, t.tournament_date, t.prize, t.description,
		       t.image_key, t.created_at, f.name, f.location
		FROM tournaments t
		JOIN fields f ON t.field_id = f.id
		ORDER BY t.tournament_date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.FieldID, &t.TournamentDate, &t.Prize, &t.Description,
			&t.ImageKey, &t.CreatedAt, &t.FieldName, &t.FieldLocation,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateImageKey(ctx context.Context, tournamentID int, imageKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET image_key = $1 WHERE id = $2`, imageKey, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament image key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
