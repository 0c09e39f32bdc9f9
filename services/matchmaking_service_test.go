package services

import (
	"context"
	"errors"
	"testing"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatchmakingRepo struct {
	createFn          func(ctx context.Context, req *models.MatchmakingRequest) error
	listByTypeFn      func(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error)
	listSuggestionsFn func(ctx context.Context) ([]*models.MatchSuggestion, error)
	updateStatusFn    func(ctx context.Context, id int, status models.RequestStatus) error
	countPendingFn    func(ctx context.Context) (int, error)
}

func (s *stubMatchmakingRepo) Create(ctx context.Context, exec repositories.SQLExecutor, req *models.MatchmakingRequest) error {
	return s.createFn(ctx, req)
}

func (s *stubMatchmakingRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.MatchmakingRequest, error) {
	return nil, repositories.ErrRequestNotFound
}

func (s *stubMatchmakingRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus) error {
	return s.updateStatusFn(ctx, id, status)
}

func (s *stubMatchmakingRepo) ListByType(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error) {
	return s.listByTypeFn(ctx, requestType)
}

func (s *stubMatchmakingRepo) ListSuggestions(ctx context.Context) ([]*models.MatchSuggestion, error) {
	return s.listSuggestionsFn(ctx)
}

func (s *stubMatchmakingRepo) CountPending(ctx context.Context) (int, error) {
	if s.countPendingFn != nil {
		return s.countPendingFn(ctx)
	}
	return 0, nil
}

type stubSlotDateRepo struct {
	repositories.SlotRepository

	getDateFn func(ctx context.Context, slotID int) (string, error)
}

func (s *stubSlotDateRepo) GetDate(ctx context.Context, slotID int) (string, error) {
	return s.getDateFn(ctx, slotID)
}

func TestSubmitDirect(t *testing.T) {
	t.Run("resolves the date from the slot", func(t *testing.T) {
		slotID := 10
		mmRepo := &stubMatchmakingRepo{createFn: func(ctx context.Context, req *models.MatchmakingRequest) error {
			req.ID = 9
			req.Status = models.RequestPending
			return nil
		}}
		slotRepo := &stubSlotDateRepo{getDateFn: func(ctx context.Context, id int) (string, error) {
			assert.Equal(t, 10, id)
			return "2026-09-01", nil
		}}
		svc := NewMatchmakingService(mmRepo, slotRepo)

		request, err := svc.SubmitDirect(context.Background(), DirectMatchmakingInput{
			UserID: 7, FieldID: 3, SlotID: &slotID,
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-09-01", request.SlotDate)
		assert.Equal(t, models.BookingPlayersLookingForTeam, request.RequestType)
		assert.Equal(t, 1, request.PlayersNeeded)
		assert.Nil(t, request.StartTime)
	})

	t.Run("falls back to an explicit date", func(t *testing.T) {
		date := "2026-09-01"
		mmRepo := &stubMatchmakingRepo{createFn: func(ctx context.Context, req *models.MatchmakingRequest) error {
			return nil
		}}
		svc := NewMatchmakingService(mmRepo, &stubSlotDateRepo{})

		request, err := svc.SubmitDirect(context.Background(), DirectMatchmakingInput{
			UserID: 7, FieldID: 3, SlotDate: &date,
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-09-01", request.SlotDate)
	})

	t.Run("requires either a slot or a date", func(t *testing.T) {
		svc := NewMatchmakingService(&stubMatchmakingRepo{}, &stubSlotDateRepo{})

		_, err := svc.SubmitDirect(context.Background(), DirectMatchmakingInput{UserID: 7, FieldID: 3})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestCategorized(t *testing.T) {
	t.Run("collects all four buckets", func(t *testing.T) {
		mmRepo := &stubMatchmakingRepo{
			listByTypeFn: func(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error) {
				return []*models.MatchmakingRequest{{RequestType: requestType}}, nil
			},
			listSuggestionsFn: func(ctx context.Context) ([]*models.MatchSuggestion, error) {
				return []*models.MatchSuggestion{{TeamRequestID: 1, PlayerRequestID: 2}}, nil
			},
		}
		svc := NewMatchmakingService(mmRepo, &stubSlotDateRepo{})

		result, err := svc.Categorized(context.Background())
		require.NoError(t, err)
		assert.Len(t, result.TeamLookingForPlayers, 1)
		assert.Len(t, result.TeamVsTeam, 1)
		assert.Len(t, result.PlayersLookingForTeam, 1)
		assert.Len(t, result.PotentialMatches, 1)
	})

	t.Run("propagates the first failure", func(t *testing.T) {
		wantErr := errors.New("db down")
		mmRepo := &stubMatchmakingRepo{
			listByTypeFn: func(ctx context.Context, requestType models.BookingType) ([]*models.MatchmakingRequest, error) {
				return nil, wantErr
			},
			listSuggestionsFn: func(ctx context.Context) ([]*models.MatchSuggestion, error) {
				return nil, nil
			},
		}
		svc := NewMatchmakingService(mmRepo, &stubSlotDateRepo{})

		_, err := svc.Categorized(context.Background())
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestRejectRequest(t *testing.T) {
	mmRepo := &stubMatchmakingRepo{updateStatusFn: func(ctx context.Context, id int, status models.RequestStatus) error {
		assert.Equal(t, 9, id)
		assert.Equal(t, models.RequestRejected, status)
		return nil
	}}
	svc := NewMatchmakingService(mmRepo, &stubSlotDateRepo{})

	require.NoError(t, svc.Reject(context.Background(), 9))
}
