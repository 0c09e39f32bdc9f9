package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/5v5games/booking-system/storage"
)

type TournamentInput struct {
	Name           string  `json:"name"`
	FieldID        int     `json:"field_id"`
	TournamentDate string  `json:"tournament_date"`
	Prize          *string `json:"prize"`
	Description    *string `json:"description"`
}

type TournamentService interface {
	Create(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Delete(ctx context.Context, tournamentID int) error
	UploadImage(ctx context.Context, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
}

func NewTournamentService(tournamentRepo repositories.TournamentRepository, uploader storage.FileUploader) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
	}
}

func (s *tournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	if input.Name == "" || input.FieldID <= 0 {
		return nil, ErrValidationFailed
	}
	if err := validateDate(input.TournamentDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:           input.Name,
		FieldID:        input.FieldID,
		TournamentDate: input.TournamentDate,
		Prize:          input.Prize,
		Description:    input.Description,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentInvalidField) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	s.populateImageURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.populateImageURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Delete(ctx context.Context, tournamentID int) error {
	err := s.tournamentRepo.Delete(ctx, tournamentID)
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func (s *tournamentService) UploadImage(ctx context.Context, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}

	ext, err := imageExtension(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}

	key := fmt.Sprintf("tournaments/%d/image%s", tournamentID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileUploadFailed, err)
	}

	if err := s.tournamentRepo.UpdateImageKey(ctx, tournamentID, &key); err != nil {
		return nil, fmt.Errorf("failed to save image key for tournament %d: %w", tournamentID, err)
	}

	tournament.ImageKey = &key
	s.populateImageURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populateImageURL(t *models.Tournament) {
	if t == nil || t.ImageKey == nil || *t.ImageKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.ImageKey); url != "" {
		t.ImageURL = &url
	}
}
