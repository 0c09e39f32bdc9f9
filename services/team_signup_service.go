package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
)

const (
	teamCodeLength = 16 // 32 символа в hex

	maxTournamentTeamSize = 8
	minTournamentTeamSize = 6
)

type CreateTeamInput struct {
	TournamentID int
	TeamName     string
	CaptainID    int
	CaptainName  string
}

// CreateTeamResult отличает свежесозданную команду от уже существующей:
// повторный create того же капитана возвращает прежний код приглашения.
type CreateTeamResult struct {
	Team            *models.TournamentTeam `json:"team"`
	AlreadyExisting bool                   `json:"already_existing"`
}

type TeamHub struct {
	Team       *models.TournamentTeam         `json:"team"`
	Tournament *models.Tournament             `json:"tournament"`
	Players    []*models.TournamentTeamMember `json:"players"`
}

// TeamSignupService регистрирует команды на турниры: сбор состава по коду
// приглашения, лимит 8 игроков, подтверждение регистрации от 6.
type TeamSignupService interface {
	Create(ctx context.Context, input CreateTeamInput) (*CreateTeamResult, error)
	GetHub(ctx context.Context, invitationCode string) (*TeamHub, error)
	Join(ctx context.Context, invitationCode string, userID int, userName string) error
	RemovePlayer(ctx context.Context, invitationCode string, actingUserID, targetUserID int) error
	ConfirmRegistration(ctx context.Context, invitationCode string, tournamentID, captainID int) (*models.TournamentTeam, error)
	ListTeams(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error)
}

type teamSignupService struct {
	db             *sql.DB
	teamRepo       repositories.TournamentTeamRepository
	tournamentRepo repositories.TournamentRepository
}

func NewTeamSignupService(
	db *sql.DB,
	teamRepo repositories.TournamentTeamRepository,
	tournamentRepo repositories.TournamentRepository,
) TeamSignupService {
	return &teamSignupService{
		db:             db,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *teamSignupService) Create(ctx context.Context, input CreateTeamInput) (*CreateTeamResult, error) {
	if input.TeamName == "" {
		return nil, ErrTeamNameRequired
	}

	code, err := generateInvitationCode(teamCodeLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCodeGeneration, err)
	}

	var result *CreateTeamResult
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, findErr := s.teamRepo.FindByTournamentAndCaptain(ctx, tx, input.TournamentID, input.CaptainID)
		if findErr != nil && !errors.Is(findErr, repositories.ErrTeamNotFound) {
			return fmt.Errorf("failed to check existing team: %w", findErr)
		}
		if existing != nil {
			result = &CreateTeamResult{Team: existing, AlreadyExisting: true}
			return nil
		}

		team := &models.TournamentTeam{
			TournamentID:   input.TournamentID,
			TeamName:       input.TeamName,
			CaptainID:      input.CaptainID,
			InvitationCode: code,
		}
		if createErr := s.teamRepo.Create(ctx, tx, team); createErr != nil {
			switch {
			case errors.Is(createErr, repositories.ErrTeamCaptainConflict):
				// Гонка двух create одного капитана: второй видит команду первого.
				raced, refindErr := s.teamRepo.FindByTournamentAndCaptain(ctx, tx, input.TournamentID, input.CaptainID)
				if refindErr != nil {
					return fmt.Errorf("failed to load racing team: %w", refindErr)
				}
				result = &CreateTeamResult{Team: raced, AlreadyExisting: true}
				return nil
			case errors.Is(createErr, repositories.ErrTeamInvalidRef):
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to create tournament team: %w", createErr)
		}

		captain := &models.TournamentTeamMember{
			TeamID:    team.ID,
			UserID:    input.CaptainID,
			UserName:  input.CaptainName,
			IsCaptain: true,
		}
		if addErr := s.teamRepo.AddMember(ctx, tx, captain); addErr != nil {
			return fmt.Errorf("failed to add captain to team: %w", addErr)
		}

		result = &CreateTeamResult{Team: team}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *teamSignupService) GetHub(ctx context.Context, invitationCode string) (*TeamHub, error) {
	team, err := s.teamRepo.GetByCode(ctx, invitationCode)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team by code: %w", err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, team.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", team.TournamentID, err)
	}

	players, err := s.teamRepo.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return &TeamHub{Team: team, Tournament: tournament, Players: players}, nil
}

func (s *teamSignupService) Join(ctx context.Context, invitationCode string, userID int, userName string) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		team, err := s.teamRepo.LockByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to lock team %s: %w", invitationCode, err)
		}

		if team.Status != models.TeamForming {
			return ErrTeamNotForming
		}

		count, err := s.teamRepo.CountMembers(ctx, tx, team.ID)
		if err != nil {
			return fmt.Errorf("failed to count team members: %w", err)
		}
		if count >= maxTournamentTeamSize {
			return ErrTeamFull
		}

		member := &models.TournamentTeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			UserName: userName,
		}
		if addErr := s.teamRepo.AddMember(ctx, tx, member); addErr != nil {
			if errors.Is(addErr, repositories.ErrTeamMemberConflict) {
				return ErrAlreadyInTeam
			}
			return fmt.Errorf("failed to join team: %w", addErr)
		}
		return nil
	})
}

func (s *teamSignupService) RemovePlayer(ctx context.Context, invitationCode string, actingUserID, targetUserID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		team, err := s.teamRepo.LockByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to lock team %s: %w", invitationCode, err)
		}

		if team.CaptainID != actingUserID {
			return ErrCaptainActionForbidden
		}

		if err := s.teamRepo.RemoveNonCaptain(ctx, tx, team.ID, targetUserID); err != nil {
			if errors.Is(err, repositories.ErrTeamMemberNotFound) {
				return ErrPlayerNotInTeam
			}
			return fmt.Errorf("failed to remove player %d: %w", targetUserID, err)
		}
		return nil
	})
}

func (s *teamSignupService) ConfirmRegistration(ctx context.Context, invitationCode string, tournamentID, captainID int) (*models.TournamentTeam, error) {
	var team *models.TournamentTeam
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.teamRepo.LockForConfirm(ctx, tx, invitationCode, tournamentID, captainID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to lock team %s: %w", invitationCode, err)
		}

		if locked.MemberCount < minTournamentTeamSize {
			return ErrNotEnoughPlayers
		}

		if err := s.teamRepo.UpdateStatus(ctx, tx, locked.ID, models.TeamRegistered); err != nil {
			return fmt.Errorf("failed to register team %d: %w", locked.ID, err)
		}
		locked.Status = models.TeamRegistered
		team = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamSignupService) ListTeams(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error) {
	return s.teamRepo.ListByTournament(ctx, tournamentID)
}
