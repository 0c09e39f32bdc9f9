package services

import (
	"context"
	"fmt"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"golang.org/x/sync/errgroup"
)

const recentReservationsLimit = 5

type AnalyticsOverview struct {
	TotalUsers         int                   `json:"totalUsers"`
	TotalReservations  int                   `json:"totalReservations"`
	TotalEarnings      float64               `json:"totalEarnings"`
	PendingRequests    int                   `json:"pendingRequests"`
	RecentReservations []*models.Reservation `json:"recentReservations"`
}

// AnalyticsService собирает сводку для админской панели. Пять независимых
// запросов выполняются параллельно.
type AnalyticsService interface {
	Overview(ctx context.Context) (*AnalyticsOverview, error)
}

type analyticsService struct {
	userRepo        repositories.UserRepository
	reservationRepo repositories.ReservationRepository
	matchmakingRepo repositories.MatchmakingRepository
}

func NewAnalyticsService(
	userRepo repositories.UserRepository,
	reservationRepo repositories.ReservationRepository,
	matchmakingRepo repositories.MatchmakingRepository,
) AnalyticsService {
	return &analyticsService{
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		matchmakingRepo: matchmakingRepo,
	}
}

func (s *analyticsService) Overview(ctx context.Context) (*AnalyticsOverview, error) {
	overview := &AnalyticsOverview{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.userRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		overview.TotalUsers = count
		return nil
	})
	g.Go(func() error {
		count, err := s.reservationRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		overview.TotalReservations = count
		return nil
	})
	g.Go(func() error {
		total, err := s.reservationRepo.TotalEarnings(gCtx)
		if err != nil {
			return fmt.Errorf("failed to sum earnings: %w", err)
		}
		overview.TotalEarnings = total
		return nil
	})
	g.Go(func() error {
		count, err := s.matchmakingRepo.CountPending(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count pending requests: %w", err)
		}
		overview.PendingRequests = count
		return nil
	})
	g.Go(func() error {
		recent, err := s.reservationRepo.ListRecent(gCtx, recentReservationsLimit)
		if err != nil {
			return fmt.Errorf("failed to list recent reservations: %w", err)
		}
		overview.RecentReservations = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}
