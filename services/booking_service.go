package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

func validateDate(date string) error {
	if !dateRe.MatchString(date) {
		return ErrInvalidDate
	}
	return nil
}

func validateTime(t string) error {
	if !timeRe.MatchString(t) {
		return ErrInvalidTime
	}
	return nil
}

// BookingService владеет всеми мутациями слотов: прямое бронирование,
// освобождение (reject/cancel), одобрение матчмейкинга и админские
// операции над расписанием. Каждая мутация выполняется в одной
// транзакции с блокировкой строки слота.
type BookingService interface {
	ReserveDirect(ctx context.Context, userID, slotID int) (*models.Reservation, error)
	// Release освобождает слот и удаляет бронирование. Общая основа
	// для admin reject и admin cancel.
	Release(ctx context.Context, reservationID int) error
	// ApproveMatchmaking одобряет заявку и резервирует подходящий слот:
	// точное время, если заявка его несёт, иначе самый ранний свободный
	// слот дня. Чужая блокировка слота отдаётся как ErrSlotBusy (fail fast).
	ApproveMatchmaking(ctx context.Context, requestID int) error

	ListFreeSlots(ctx context.Context, fieldID int, date string) ([]*models.AvailabilitySlot, error)
	ListSlots(ctx context.Context, filter repositories.ListSlotsFilter) ([]*models.AvailabilitySlot, error)
	AddSlots(ctx context.Context, fieldID int, date string, slots []repositories.SlotTime) error
	UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, slotID int) error

	ListUserReservations(ctx context.Context, userID int) ([]*models.Reservation, error)
	ListAllReservations(ctx context.Context) ([]*models.Reservation, error)
}

type bookingService struct {
	db              *sql.DB
	slotRepo        repositories.SlotRepository
	reservationRepo repositories.ReservationRepository
	matchmakingRepo repositories.MatchmakingRepository
}

func NewBookingService(
	db *sql.DB,
	slotRepo repositories.SlotRepository,
	reservationRepo repositories.ReservationRepository,
	matchmakingRepo repositories.MatchmakingRepository,
) BookingService {
	return &bookingService{
		db:              db,
		slotRepo:        slotRepo,
		reservationRepo: reservationRepo,
		matchmakingRepo: matchmakingRepo,
	}
}

func (s *bookingService) ReserveDirect(ctx context.Context, userID, slotID int) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		slot, err := s.slotRepo.LockByID(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, repositories.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to lock slot %d: %w", slotID, err)
		}
		if slot.IsReserved {
			return ErrSlotTaken
		}

		if err := s.slotRepo.Reserve(ctx, tx, slot.ID, userID, models.BookingFullField); err != nil {
			if errors.Is(err, repositories.ErrSlotConflict) {
				return ErrSlotTaken
			}
			return fmt.Errorf("failed to reserve slot %d: %w", slot.ID, err)
		}

		reservation = &models.Reservation{
			UserID:      userID,
			FieldID:     slot.FieldID,
			SlotDate:    slot.SlotDate,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			BookingType: models.BookingFullField,
		}
		if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *bookingService) Release(ctx context.Context, reservationID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		reservation, err := s.reservationRepo.LockByID(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to lock reservation %d: %w", reservationID, err)
		}

		err = s.slotRepo.Release(ctx, tx, reservation.FieldID, reservation.SlotDate, reservation.StartTime, reservation.EndTime)
		if err != nil {
			if errors.Is(err, repositories.ErrSlotAlreadyFree) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("failed to release slot for reservation %d: %w", reservationID, err)
		}

		if err := s.reservationRepo.Delete(ctx, tx, reservationID); err != nil {
			return fmt.Errorf("failed to delete reservation %d: %w", reservationID, err)
		}
		return nil
	})
}

func (s *bookingService) ApproveMatchmaking(ctx context.Context, requestID int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		request, err := s.matchmakingRepo.LockByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrRequestNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to lock matchmaking request %d: %w", requestID, err)
		}
		if request.Status != models.RequestPending {
			return ErrRequestNotPending
		}

		slot, err := s.slotRepo.LockFreeSlotNowait(ctx, tx, request.FieldID, request.SlotDate, request.StartTime)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrSlotNotFound):
				return ErrSlotUnavailable
			case errors.Is(err, repositories.ErrSlotLocked):
				return ErrSlotBusy
			}
			return fmt.Errorf("failed to find free slot for request %d: %w", requestID, err)
		}

		if err := s.matchmakingRepo.UpdateStatus(ctx, tx, requestID, models.RequestApproved); err != nil {
			return fmt.Errorf("failed to approve request %d: %w", requestID, err)
		}

		if err := s.slotRepo.Reserve(ctx, tx, slot.ID, request.UserID, request.RequestType); err != nil {
			if errors.Is(err, repositories.ErrSlotConflict) {
				return ErrSlotTaken
			}
			return fmt.Errorf("failed to reserve slot %d for request %d: %w", slot.ID, requestID, err)
		}
		return nil
	})
}

func (s *bookingService) ListFreeSlots(ctx context.Context, fieldID int, date string) ([]*models.AvailabilitySlot, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.slotRepo.ListFree(ctx, fieldID, date)
}

func (s *bookingService) ListSlots(ctx context.Context, filter repositories.ListSlotsFilter) ([]*models.AvailabilitySlot, error) {
	if filter.Date != nil {
		if err := validateDate(*filter.Date); err != nil {
			return nil, err
		}
	}
	return s.slotRepo.ListWithDetails(ctx, filter)
}

func (s *bookingService) AddSlots(ctx context.Context, fieldID int, date string, slots []repositories.SlotTime) error {
	if len(slots) == 0 {
		return ErrValidationFailed
	}
	if err := validateDate(date); err != nil {
		return err
	}
	for _, slot := range slots {
		if validateTime(slot.Start) != nil || validateTime(slot.End) != nil {
			return ErrInvalidTime
		}
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.slotRepo.CreateBatch(ctx, tx, fieldID, date, slots); err != nil {
			if errors.Is(err, repositories.ErrSlotFieldInvalid) {
				return ErrFieldNotFound
			}
			return fmt.Errorf("failed to add availability slots: %w", err)
		}
		return nil
	})
}

func (s *bookingService) UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	if err := validateDate(slot.SlotDate); err != nil {
		return err
	}
	if validateTime(slot.StartTime) != nil || validateTime(slot.EndTime) != nil {
		return ErrInvalidTime
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.slotRepo.LockByID(ctx, tx, slot.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrSlotNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to lock slot %d: %w", slot.ID, err)
		}
		// Занятый слот не переносим: у него уже есть держатель и бронь.
		if current.IsReserved {
			return ErrSlotTaken
		}

		if err := s.slotRepo.Update(ctx, tx, slot); err != nil {
			if errors.Is(err, repositories.ErrSlotFieldInvalid) {
				return ErrFieldNotFound
			}
			return fmt.Errorf("failed to update slot %d: %w", slot.ID, err)
		}
		return nil
	})
}

func (s *bookingService) DeleteSlot(ctx context.Context, slotID int) error {
	err := s.slotRepo.Delete(ctx, slotID)
	if errors.Is(err, repositories.ErrSlotNotFound) {
		return ErrSlotNotFound
	}
	return err
}

func (s *bookingService) ListUserReservations(ctx context.Context, userID int) ([]*models.Reservation, error) {
	return s.reservationRepo.ListByUser(ctx, userID)
}

func (s *bookingService) ListAllReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.reservationRepo.ListAll(ctx)
}
