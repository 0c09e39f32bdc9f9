package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
)

const birthdayLookaheadDays = 7

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	// UpcomingBirthdays возвращает пользователей с днём рождения в
	// ближайшую неделю, включая сегодня.
	UpcomingBirthdays(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) UpcomingBirthdays(ctx context.Context) ([]*models.User, error) {
	now := time.Now()
	monthDays := make([]string, 0, birthdayLookaheadDays+1)
	for i := 0; i <= birthdayLookaheadDays; i++ {
		monthDays = append(monthDays, now.AddDate(0, 0, i).Format("01-02"))
	}
	return s.userRepo.ListByBirthdayDates(ctx, monthDays)
}
