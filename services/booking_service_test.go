package services

import (
	"context"
	"testing"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingServiceWithMock(t *testing.T) (BookingService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewBookingService(
		db,
		repositories.NewPostgresSlotRepository(db),
		repositories.NewPostgresReservationRepository(db),
		repositories.NewPostgresMatchmakingRepository(db),
	)
	return svc, mock
}

func slotColumns() []string {
	return []string{"id", "field_id", "slot_date", "start_time", "end_time", "is_reserved", "reservation_type", "user_id", "created_at"}
}

func TestReserveDirect(t *testing.T) {
	t.Run("reserves a free slot and creates a reservation", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM availability_slots\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(slotColumns()).
				AddRow(10, 3, "2026-09-01", "18:00", "19:00", false, nil, nil, time.Now()))
		mock.ExpectExec(`UPDATE availability_slots\s+SET is_reserved = TRUE`).
			WithArgs(string(models.BookingFullField), 7, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO reservations`).
			WithArgs(7, 3, "2026-09-01", "18:00", "19:00", string(models.BookingFullField), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, time.Now()))
		mock.ExpectCommit()

		reservation, err := svc.ReserveDirect(context.Background(), 7, 10)
		require.NoError(t, err)
		assert.Equal(t, 42, reservation.ID)
		assert.Equal(t, 3, reservation.FieldID)
		assert.Equal(t, models.BookingFullField, reservation.BookingType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an already reserved slot", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		resType := models.BookingFullField
		holderID := 99
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM availability_slots\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(slotColumns()).
				AddRow(10, 3, "2026-09-01", "18:00", "19:00", true, string(resType), holderID, time.Now()))
		mock.ExpectRollback()

		_, err := svc.ReserveDirect(context.Background(), 7, 10)
		assert.ErrorIs(t, err, ErrSlotTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing slot", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM availability_slots\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(slotColumns()))
		mock.ExpectRollback()

		_, err := svc.ReserveDirect(context.Background(), 7, 10)
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRelease(t *testing.T) {
	reservationRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "user_id", "field_id", "slot_date", "start_time", "end_time", "booking_type", "session_id", "created_at"}).
			AddRow(5, 7, 3, "2026-09-01", "18:00", "19:00", string(models.BookingFullField), nil, time.Now())
	}

	t.Run("frees the slot and deletes the reservation", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(5).
			WillReturnRows(reservationRow())
		mock.ExpectExec(`UPDATE availability_slots\s+SET is_reserved = FALSE`).
			WithArgs(3, "2026-09-01", "18:00", "19:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM reservations WHERE id = \$1`).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.Release(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflicts when the slot is already free", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(5).
			WillReturnRows(reservationRow())
		mock.ExpectExec(`UPDATE availability_slots\s+SET is_reserved = FALSE`).
			WithArgs(3, "2026-09-01", "18:00", "19:00").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := svc.Release(context.Background(), 5)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing reservation", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := svc.Release(context.Background(), 5)
		assert.ErrorIs(t, err, ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApproveMatchmaking(t *testing.T) {
	requestColumns := []string{"id", "user_id", "field_id", "slot_date", "start_time", "end_time", "request_type", "status", "players_needed", "created_at"}

	t.Run("approves a request with an exact start time", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM matchmaking_requests\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(requestColumns).
				AddRow(8, 7, 3, "2026-09-01", "18:00", "19:00", string(models.BookingTeamVsTeam), string(models.RequestPending), 4, time.Now()))
		mock.ExpectQuery(`start_time = \$3 AND is_reserved = FALSE\s+FOR UPDATE NOWAIT`).
			WithArgs(3, "2026-09-01", "18:00").
			WillReturnRows(sqlmock.NewRows([]string{"id", "field_id", "slot_date", "start_time", "end_time"}).
				AddRow(10, 3, "2026-09-01", "18:00", "19:00"))
		mock.ExpectExec(`UPDATE matchmaking_requests\s+SET status = \$1`).
			WithArgs(string(models.RequestApproved), 8).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE availability_slots\s+SET is_reserved = TRUE`).
			WithArgs(string(models.BookingTeamVsTeam), 7, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ApproveMatchmaking(context.Background(), 8))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("picks the earliest free slot when the request has no time", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM matchmaking_requests\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(requestColumns).
				AddRow(8, 7, 3, "2026-09-01", nil, nil, string(models.BookingPlayersLookingForTeam), string(models.RequestPending), 1, time.Now()))
		mock.ExpectQuery(`ORDER BY start_time ASC\s+LIMIT 1\s+FOR UPDATE NOWAIT`).
			WithArgs(3, "2026-09-01").
			WillReturnRows(sqlmock.NewRows([]string{"id", "field_id", "slot_date", "start_time", "end_time"}).
				AddRow(11, 3, "2026-09-01", "09:00", "10:00"))
		mock.ExpectExec(`UPDATE matchmaking_requests\s+SET status = \$1`).
			WithArgs(string(models.RequestApproved), 8).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE availability_slots\s+SET is_reserved = TRUE`).
			WithArgs(string(models.BookingPlayersLookingForTeam), 7, 11).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.ApproveMatchmaking(context.Background(), 8))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a busy slot when a concurrent transaction holds the lock", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM matchmaking_requests\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(requestColumns).
				AddRow(8, 7, 3, "2026-09-01", "18:00", "19:00", string(models.BookingTeamVsTeam), string(models.RequestPending), 4, time.Now()))
		mock.ExpectQuery(`FOR UPDATE NOWAIT`).
			WithArgs(3, "2026-09-01", "18:00").
			WillReturnError(&pq.Error{Code: "55P03"})
		mock.ExpectRollback()

		err := svc.ApproveMatchmaking(context.Background(), 8)
		assert.ErrorIs(t, err, ErrSlotBusy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses a request that is no longer pending", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM matchmaking_requests\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(requestColumns).
				AddRow(8, 7, 3, "2026-09-01", "18:00", "19:00", string(models.BookingTeamVsTeam), string(models.RequestApproved), 4, time.Now()))
		mock.ExpectRollback()

		err := svc.ApproveMatchmaking(context.Background(), 8)
		assert.ErrorIs(t, err, ErrRequestNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports no availability when the day is fully booked", func(t *testing.T) {
		svc, mock := newBookingServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM matchmaking_requests\s+WHERE id = \$1\s+FOR UPDATE`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(requestColumns).
				AddRow(8, 7, 3, "2026-09-01", nil, nil, string(models.BookingTeamVsTeam), string(models.RequestPending), 4, time.Now()))
		mock.ExpectQuery(`FOR UPDATE NOWAIT`).
			WithArgs(3, "2026-09-01").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := svc.ApproveMatchmaking(context.Background(), 8)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddSlotsValidation(t *testing.T) {
	svc, mock := newBookingServiceWithMock(t)

	err := svc.AddSlots(context.Background(), 3, "2026-09-01", nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = svc.AddSlots(context.Background(), 3, "not-a-date", []repositories.SlotTime{{Start: "18:00", End: "19:00"}})
	assert.ErrorIs(t, err, ErrInvalidDate)

	err = svc.AddSlots(context.Background(), 3, "2026-09-01", []repositories.SlotTime{{Start: "6pm", End: "19:00"}})
	assert.ErrorIs(t, err, ErrInvalidTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSlotRefusesReserved(t *testing.T) {
	svc, mock := newBookingServiceWithMock(t)

	resType := string(models.BookingFullField)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_slots\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(slotColumns()).
			AddRow(10, 3, "2026-09-01", "18:00", "19:00", true, resType, 7, time.Now()))
	mock.ExpectRollback()

	err := svc.UpdateSlot(context.Background(), &models.AvailabilitySlot{
		ID: 10, FieldID: 3, SlotDate: "2026-09-02", StartTime: "19:00", EndTime: "20:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
