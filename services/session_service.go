package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
)

const (
	sessionCodeLength = 8 // Длина кода в байтах (16 символов в hex)

	// Лимиты составов. Игра идёт 5x5 или 6x6, мини-команда до 5 человек.
	maxSinglePlayers     = 5
	minPlayersPerSide    = 6
	minPlayersForMatch   = 6 // team_vs_team: команда целиком
	minPlayersForPartial = 3 // team_looking_for_players: костяк команды

	fullMatchSize = 12 // 6v6
	miniTeamSize  = 5

	// Сессии без подтверждённой брони отменяются планировщиком.
	staleSessionAge = 48 * time.Hour
)

var ErrSessionCodeGeneration = errors.New("failed to generate unique invitation code")

func generateInvitationCode(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

type InitiateSessionInput struct {
	UserID      int
	FieldID     int
	SlotDate    string
	StartTime   *string
	EndTime     *string
	BookingType models.BookingType
}

type SessionDetails struct {
	Session *models.TeamSession  `json:"session"`
	Members []*models.TeamMember `json:"members"`
}

// SessionService управляет жизненным циклом сессий набора команды:
// создание по коду приглашения, вход/выход игроков и финализация,
// которая превращает сессию либо в бронирование, либо в заявку
// матчмейкинга. Все мутации идут под FOR UPDATE на строке сессии.
type SessionService interface {
	Initiate(ctx context.Context, input InitiateSessionInput) (*models.TeamSession, error)
	Get(ctx context.Context, invitationCode string) (*SessionDetails, error)
	Join(ctx context.Context, invitationCode string, userID int, designation models.TeamDesignation) error
	RemovePlayer(ctx context.Context, invitationCode string, actingUserID, targetUserID int) error
	ConfirmBooking(ctx context.Context, invitationCode string, actingUserID int) (*models.Reservation, error)
	SubmitMatchmaking(ctx context.Context, invitationCode string, actingUserID, currentPlayers int) (*models.MatchmakingRequest, error)
	CancelStale(ctx context.Context) (int64, error)
}

type sessionService struct {
	db              *sql.DB
	sessionRepo     repositories.SessionRepository
	slotRepo        repositories.SlotRepository
	reservationRepo repositories.ReservationRepository
	matchmakingRepo repositories.MatchmakingRepository
}

func NewSessionService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	slotRepo repositories.SlotRepository,
	reservationRepo repositories.ReservationRepository,
	matchmakingRepo repositories.MatchmakingRepository,
) SessionService {
	return &sessionService{
		db:              db,
		sessionRepo:     sessionRepo,
		slotRepo:        slotRepo,
		reservationRepo: reservationRepo,
		matchmakingRepo: matchmakingRepo,
	}
}

func (s *sessionService) Initiate(ctx context.Context, input InitiateSessionInput) (*models.TeamSession, error) {
	switch input.BookingType {
	case models.BookingTwoTeamsReady, models.BookingTeamVsTeam, models.BookingTeamLookingForPlayers:
	default:
		return nil, ErrInvalidBookingType
	}
	if err := validateDate(input.SlotDate); err != nil {
		return nil, err
	}
	if input.StartTime != nil {
		if err := validateTime(*input.StartTime); err != nil {
			return nil, err
		}
	}
	if input.EndTime != nil {
		if err := validateTime(*input.EndTime); err != nil {
			return nil, err
		}
	}

	code, err := generateInvitationCode(sessionCodeLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCodeGeneration, err)
	}

	session := &models.TeamSession{
		InvitationCode: code,
		CreatorID:      input.UserID,
		BookingType:    input.BookingType,
		FieldID:        input.FieldID,
		SlotDate:       input.SlotDate,
	}
	// Конкретный интервал фиксируется только для two_teams_ready; остальные
	// типы матчатся по дню и получают время при одобрении заявки.
	if input.BookingType == models.BookingTwoTeamsReady {
		session.StartTime = input.StartTime
		session.EndTime = input.EndTime
	}

	creatorDesignation := models.TeamSingle
	if input.BookingType == models.BookingTwoTeamsReady {
		creatorDesignation = models.TeamA
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if session.StartTime != nil {
			reserved, lockErr := s.slotRepo.LockReservedByTimeNowait(ctx, tx, input.FieldID, input.SlotDate, *session.StartTime)
			if lockErr != nil {
				if errors.Is(lockErr, repositories.ErrSlotLocked) {
					return ErrSlotBusy
				}
				return fmt.Errorf("failed to check slot availability: %w", lockErr)
			}
			if reserved {
				return ErrSlotTaken
			}
		}

		if createErr := s.sessionRepo.Create(ctx, tx, session); createErr != nil {
			switch {
			case errors.Is(createErr, repositories.ErrSessionCodeConflict):
				return ErrSessionCodeGeneration
			case errors.Is(createErr, repositories.ErrSessionInvalidRef):
				return ErrFieldNotFound
			}
			return fmt.Errorf("failed to create team session: %w", createErr)
		}

		member := &models.TeamMember{
			SessionID:       session.ID,
			UserID:          input.UserID,
			TeamDesignation: creatorDesignation,
		}
		if addErr := s.sessionRepo.AddMember(ctx, tx, member); addErr != nil {
			return fmt.Errorf("failed to add session creator as member: %w", addErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, invitationCode string) (*SessionDetails, error) {
	session, err := s.sessionRepo.GetActiveByCode(ctx, invitationCode)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", invitationCode, err)
	}

	members, err := s.sessionRepo.ListMembers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session members: %w", err)
	}
	return &SessionDetails{Session: session, Members: members}, nil
}

func (s *sessionService) Join(ctx context.Context, invitationCode string, userID int, designation models.TeamDesignation) error {
	if !designation.Valid() {
		return ErrValidationFailed
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := s.sessionRepo.LockActiveByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session %s: %w", invitationCode, err)
		}

		isMember, err := s.sessionRepo.IsMember(ctx, tx, session.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to check session membership: %w", err)
		}
		if isMember {
			return ErrAlreadyInSession
		}

		// Мини-команда ограничена пятью игроками; состав считается под
		// блокировкой сессии, так что перебор невозможен.
		if session.BookingType == models.BookingTeamLookingForPlayers {
			count, countErr := s.sessionRepo.CountByDesignation(ctx, tx, session.ID, models.TeamSingle)
			if countErr != nil {
				return fmt.Errorf("failed to count session members: %w", countErr)
			}
			if count >= maxSinglePlayers {
				return ErrTeamFull
			}
		}

		member := &models.TeamMember{
			SessionID:       session.ID,
			UserID:          userID,
			TeamDesignation: designation,
		}
		if addErr := s.sessionRepo.AddMember(ctx, tx, member); addErr != nil {
			if errors.Is(addErr, repositories.ErrSessionMemberConflict) {
				return ErrAlreadyInSession
			}
			return fmt.Errorf("failed to join session: %w", addErr)
		}
		return nil
	})
}

func (s *sessionService) RemovePlayer(ctx context.Context, invitationCode string, actingUserID, targetUserID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := s.sessionRepo.LockActiveByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session %s: %w", invitationCode, err)
		}

		if session.CreatorID != actingUserID {
			return ErrCaptainActionForbidden
		}
		if targetUserID == actingUserID {
			return ErrCannotRemoveCaptain
		}

		if err := s.sessionRepo.RemoveMember(ctx, tx, session.ID, targetUserID); err != nil {
			if errors.Is(err, repositories.ErrSessionMemberNotFound) {
				return ErrPlayerNotInTeam
			}
			return fmt.Errorf("failed to remove player %d: %w", targetUserID, err)
		}
		return nil
	})
}

func (s *sessionService) ConfirmBooking(ctx context.Context, invitationCode string, actingUserID int) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := s.sessionRepo.LockActiveByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session %s: %w", invitationCode, err)
		}

		if session.CreatorID != actingUserID {
			return ErrCaptainActionForbidden
		}
		if session.BookingType != models.BookingTwoTeamsReady || session.StartTime == nil {
			return ErrInvalidBookingType
		}

		teamA, teamB, err := s.sessionRepo.CountsAB(ctx, tx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to count teams: %w", err)
		}
		if teamA < minPlayersPerSide || teamB < minPlayersPerSide {
			return ErrNotEnoughPlayers
		}

		err = s.slotRepo.ReserveByTime(ctx, tx, session.FieldID, session.SlotDate, *session.StartTime, actingUserID, models.BookingTwoTeamsReady)
		if err != nil {
			if errors.Is(err, repositories.ErrSlotConflict) {
				return ErrSlotTaken
			}
			return fmt.Errorf("failed to reserve slot for session %d: %w", session.ID, err)
		}

		endTime := ""
		if session.EndTime != nil {
			endTime = *session.EndTime
		}
		reservation = &models.Reservation{
			UserID:      actingUserID,
			FieldID:     session.FieldID,
			SlotDate:    session.SlotDate,
			StartTime:   *session.StartTime,
			EndTime:     endTime,
			BookingType: models.BookingTwoTeamsReady,
			SessionID:   &session.ID,
		}
		if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
			return fmt.Errorf("failed to create reservation for session %d: %w", session.ID, err)
		}

		if err := s.sessionRepo.UpdateStatus(ctx, tx, session.ID, models.SessionCompleted); err != nil {
			return fmt.Errorf("failed to complete session %d: %w", session.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *sessionService) SubmitMatchmaking(ctx context.Context, invitationCode string, actingUserID, currentPlayers int) (*models.MatchmakingRequest, error) {
	var request *models.MatchmakingRequest
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		session, err := s.sessionRepo.LockActiveByCode(ctx, tx, invitationCode)
		if err != nil {
			if errors.Is(err, repositories.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session %s: %w", invitationCode, err)
		}

		if session.CreatorID != actingUserID {
			return ErrCaptainActionForbidden
		}

		var requiredMin int
		switch session.BookingType {
		case models.BookingTeamVsTeam:
			requiredMin = minPlayersForMatch
		case models.BookingTeamLookingForPlayers:
			requiredMin = minPlayersForPartial
		default:
			return ErrInvalidBookingType
		}
		if currentPlayers < requiredMin {
			return ErrNotEnoughPlayers
		}

		request = &models.MatchmakingRequest{
			UserID:        actingUserID,
			FieldID:       session.FieldID,
			SlotDate:      session.SlotDate,
			RequestType:   session.BookingType,
			PlayersNeeded: playersNeededForPool(session.BookingType, currentPlayers),
		}
		if err := s.matchmakingRepo.Create(ctx, tx, request); err != nil {
			return fmt.Errorf("failed to create matchmaking request for session %d: %w", session.ID, err)
		}

		if err := s.sessionRepo.UpdateStatus(ctx, tx, session.ID, models.SessionCompleted); err != nil {
			return fmt.Errorf("failed to complete session %d: %w", session.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// playersNeededForPool считает, сколько игроков заявке не хватает до
// полного матча: для team_vs_team цель 12 (6x6), для мини-команды 5.
func playersNeededForPool(bookingType models.BookingType, currentPlayers int) int {
	switch bookingType {
	case models.BookingTeamVsTeam:
		return fullMatchSize - currentPlayers
	case models.BookingTeamLookingForPlayers:
		return miniTeamSize - currentPlayers
	case models.BookingPlayersLookingForTeam:
		return 1
	default:
		return 0
	}
}

// CancelStale отменяет зависшие активные сессии старше staleSessionAge.
func (s *sessionService) CancelStale(ctx context.Context) (int64, error) {
	return s.sessionRepo.CancelStaleActive(ctx, time.Now().Add(-staleSessionAge))
}
