package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"golang.org/x/sync/errgroup"
)

type DirectMatchmakingInput struct {
	UserID   int
	FieldID  int
	SlotID   *int
	SlotDate *string
}

// CategorizedRequests собирает сводку пула для админки: заявки по типам плюс
// кандидатные пары. Собирается параллельно.
type CategorizedRequests struct {
	TeamLookingForPlayers []*models.MatchmakingRequest `json:"team_looking_for_players"`
	TeamVsTeam            []*models.MatchmakingRequest `json:"team_vs_team"`
	PlayersLookingForTeam []*models.MatchmakingRequest `json:"players_looking_for_team"`
	PotentialMatches      []*models.MatchSuggestion    `json:"potential_matches"`
}

type MatchmakingService interface {
	// SubmitDirect ставит одиночного игрока в пул. Дата берётся из слота,
	// если указан slotID, иначе из slotDate; время не фиксируется.
	SubmitDirect(ctx context.Context, input DirectMatchmakingInput) (*models.MatchmakingRequest, error)
	Suggestions(ctx context.Context) ([]*models.MatchSuggestion, error)
	Categorized(ctx context.Context) (*CategorizedRequests, error)
	Reject(ctx context.Context, requestID int) error
}

type matchmakingService struct {
	matchmakingRepo repositories.MatchmakingRepository
	slotRepo        repositories.SlotRepository
}

func NewMatchmakingService(
	matchmakingRepo repositories.MatchmakingRepository,
	slotRepo repositories.SlotRepository,
) MatchmakingService {
	return &matchmakingService{
		matchmakingRepo: matchmakingRepo,
		slotRepo:        slotRepo,
	}
}

func (s *matchmakingService) SubmitDirect(ctx context.Context, input DirectMatchmakingInput) (*models.MatchmakingRequest, error) {
	var effectiveDate string
	switch {
	case input.SlotID != nil:
		date, err := s.slotRepo.GetDate(ctx, *input.SlotID)
		if err != nil {
			if errors.Is(err, repositories.ErrSlotNotFound) {
				return nil, ErrSlotNotFound
			}
			return nil, fmt.Errorf("failed to resolve slot %d: %w", *input.SlotID, err)
		}
		effectiveDate = date
	case input.SlotDate != nil:
		if err := validateDate(*input.SlotDate); err != nil {
			return nil, err
		}
		effectiveDate = *input.SlotDate
	default:
		return nil, ErrValidationFailed
	}

	request := &models.MatchmakingRequest{
		UserID:        input.UserID,
		FieldID:       input.FieldID,
		SlotDate:      effectiveDate,
		RequestType:   models.BookingPlayersLookingForTeam,
		PlayersNeeded: playersNeededForPool(models.BookingPlayersLookingForTeam, 1),
	}
	if err := s.matchmakingRepo.Create(ctx, nil, request); err != nil {
		if errors.Is(err, repositories.ErrRequestInvalidRef) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to create matchmaking request: %w", err)
	}
	return request, nil
}

func (s *matchmakingService) Suggestions(ctx context.Context) ([]*models.MatchSuggestion, error) {
	return s.matchmakingRepo.ListSuggestions(ctx)
}

func (s *matchmakingService) Categorized(ctx context.Context) (*CategorizedRequests, error) {
	result := &CategorizedRequests{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.matchmakingRepo.ListByType(gCtx, models.BookingTeamLookingForPlayers)
		if err != nil {
			return fmt.Errorf("failed to list team_looking_for_players requests: %w", err)
		}
		result.TeamLookingForPlayers = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.matchmakingRepo.ListByType(gCtx, models.BookingTeamVsTeam)
		if err != nil {
			return fmt.Errorf("failed to list team_vs_team requests: %w", err)
		}
		result.TeamVsTeam = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.matchmakingRepo.ListByType(gCtx, models.BookingPlayersLookingForTeam)
		if err != nil {
			return fmt.Errorf("failed to list players_looking_for_team requests: %w", err)
		}
		result.PlayersLookingForTeam = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.matchmakingRepo.ListSuggestions(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list match suggestions: %w", err)
		}
		result.PotentialMatches = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *matchmakingService) Reject(ctx context.Context, requestID int) error {
	err := s.matchmakingRepo.UpdateStatus(ctx, nil, requestID, models.RequestRejected)
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return ErrRequestNotFound
	}
	return err
}
