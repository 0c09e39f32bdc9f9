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
	ErrTeamNotFound        = errors.New("tournament team not found")
	ErrTeamCodeConflict    = errors.New("team invitation code conflict")
	ErrTeamCaptainConflict = errors.New("captain already has a team in this tournament")
	ErrTeamMemberConflict  = errors.New("user already in team")
	ErrTeamMemberNotFound  = errors.New("player not found or cannot be removed")
	ErrTeamInvalidRef      = errors.New("team references an unknown tournament or user")
)

type TournamentTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.TournamentTeam) error
	FindByTournamentAndCaptain(ctx context.Context, exec SQLExecutor, tournamentID, captainID int) (*models.TournamentTeam, error)
	GetByCode(ctx context.Context, code string) (*models.TournamentTeam, error)
	// LockByCode сериализует join/remove/confirm для одной команды.
	LockByCode(ctx context.Context, exec SQLExecutor, code string) (*models.TournamentTeam, error)
	// LockForConfirm дополнительно сверяет турнир и капитана и отдаёт
	// текущий размер состава под той же блокировкой.
	LockForConfirm(ctx context.Context, exec SQLExecutor, code string, tournamentID, captainID int) (*models.TournamentTeam, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, teamID int, status models.TeamStatus) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error)

	AddMember(ctx context.Context, exec SQLExecutor, member *models.TournamentTeamMember) error
	// RemoveNonCaptain удаляет участника только если он не капитан:
	// капитанская строка неуязвима на уровне запроса.
	RemoveNonCaptain(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	CountMembers(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	ListMembers(ctx context.Context, teamID int) ([]*models.TournamentTeamMember, error)
}

type postgresTournamentTeamRepository struct {
	db *sql.DB
}

func NewPostgresTournamentTeamRepository(db *sql.DB) TournamentTeamRepository {
	return &postgresTournamentTeamRepository{db: db}
}

func (r *postgresTournamentTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentTeamRepository) Create(ctx context.Context, exec SQLExecutor, t *models.TournamentTeam) error {
	query := `
		INSERT INTO tournament_teams (tournament_id, team_name, captain_id, invitation_code, status)
		VALUES ($1, $2, $3, $4, 'forming')
		RETURNING id, status, registration_date`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.TournamentID, t.TeamName, t.CaptainID, t.InvitationCode,
	).Scan(&t.ID, &t.Status, &t.RegistrationDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "tournament_teams_invitation_code_key" {
					return ErrTeamCodeConflict
				}
				return ErrTeamCaptainConflict
			case "23503":
				return ErrTeamInvalidRef
			}
		}
		return fmt.Errorf("failed to create tournament team: %w", err)
	}
	return nil
}

func (r *postgresTournamentTeamRepository) FindByTournamentAndCaptain(ctx context.Context, exec SQLExecutor, tournamentID, captainID int) (*models.TournamentTeam, error) {
	query := `
		SELECT id, tournament_id, team_name, captain_id, invitation_code, status, registration_date
		FROM tournament_teams
		WHERE tournament_id = $1 AND captain_id = $2`

	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, captainID))
}

func (r *postgresTournamentTeamRepository) GetByCode(ctx context.Context, code string) (*models.TournamentTeam, error) {
	query := `
		SELECT id, tournament_id, team_name, captain_id, invitation_code, status, registration_date
		FROM tournament_teams
		WHERE invitation_code = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *postgresTournamentTeamRepository) LockByCode(ctx context.Context, exec SQLExecutor, code string) (*models.TournamentTeam, error) {
	query := `
		SELECT id, tournament_id, team_name, captain_id, invitation_code, status, registration_date
		FROM tournament_teams
		WHERE invitation_code = $1
		FOR UPDATE`

	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, code))
}

func (r *postgresTournamentTeamRepository) LockForConfirm(ctx context.Context, exec SQLExecutor, code string, tournamentID, captainID int) (*models.TournamentTeam, error) {
	query := `
		SELECT tt.id, tt.tournament_id, tt.team_name, tt.captain_id, tt.invitation_code, tt.status, tt.registration_date,
		       (SELECT COUNT(*) FROM tournament_team_members ttm WHERE ttm.team_id = tt.id)
		FROM tournament_teams tt
		WHERE tt.invitation_code = $1 AND tt.tournament_id = $2 AND tt.captain_id = $3
		FOR UPDATE OF tt`

	t := &models.TournamentTeam{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, code, tournamentID, captainID).Scan(
		&t.ID, &t.TournamentID, &t.TeamName, &t.CaptainID, &t.InvitationCode,
		&t.Status, &t.RegistrationDate, &t.MemberCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentTeamRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, teamID int, status models.TeamStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE tournament_teams SET status = $1 WHERE id = $2`, status, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTournamentTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error) {
	query := `
		SELECT tt.id, tt.tournament_id, tt.team_name, tt.captain_id, tt.invitation_code,
		       tt.status, tt.registration_date, u.name
		FROM tournament_teams tt
		JOIN users u ON tt.captain_id = u.id
		WHERE tt.tournament_id = $1
		ORDER BY tt.registration_date ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.TournamentTeam, 0)
	for rows.Next() {
		var t models.TournamentTeam
		if scanErr := rows.Scan(
			&t.ID, &t.TournamentID, &t.TeamName, &t.CaptainID, &t.InvitationCode,
			&t.Status, &t.RegistrationDate, &t.CaptainName,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (r *postgresTournamentTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, m *models.TournamentTeamMember) error {
	query := `
		INSERT INTO tournament_team_members (team_id, user_id, user_name, is_captain)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TeamID, m.UserID, m.UserName, m.IsCaptain,
	).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamMemberConflict
		}
		return fmt.Errorf("failed to add tournament team member: %w", err)
	}
	return nil
}

func (r *postgresTournamentTeamRepository) RemoveNonCaptain(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM tournament_team_members WHERE team_id = $1 AND user_id = $2 AND is_captain = FALSE`,
		teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTournamentTeamRepository) CountMembers(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_team_members WHERE team_id = $1`, teamID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTournamentTeamRepository) ListMembers(ctx context.Context, teamID int) ([]*models.TournamentTeamMember, error) {
	query := `
		SELECT id, team_id, user_id, user_name, is_captain, joined_at
		FROM tournament_team_members
		WHERE team_id = $1
		ORDER BY is_captain DESC, joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.TournamentTeamMember, 0)
	for rows.Next() {
		var m models.TournamentTeamMember
		if scanErr := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.UserName, &m.IsCaptain, &m.JoinedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *postgresTournamentTeamRepository) scanOne(row *sql.Row) (*models.TournamentTeam, error) {
	t := &models.TournamentTeam{}
	err := row.Scan(
		&t.ID, &t.TournamentID, &t.TeamName, &t.CaptainID, &t.InvitationCode,
		&t.Status, &t.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}
