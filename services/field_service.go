package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/5v5games/booking-system/storage"
)

type FieldInput struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Location     *string `json:"location"`
	PricePerHour float64 `json:"price_per_hour"`
}

type FieldService interface {
	Create(ctx context.Context, input FieldInput) (*models.Field, error)
	GetByID(ctx context.Context, fieldID int) (*models.Field, error)
	List(ctx context.Context) ([]*models.Field, error)
	Update(ctx context.Context, fieldID int, input FieldInput) (*models.Field, error)
	Delete(ctx context.Context, fieldID int) error
	UploadImage(ctx context.Context, fieldID int, contentType string, file io.Reader) (*models.Field, error)
}

type fieldService struct {
	fieldRepo repositories.FieldRepository
	uploader  storage.FileUploader
}

func NewFieldService(fieldRepo repositories.FieldRepository, uploader storage.FileUploader) FieldService {
	return &fieldService{
		fieldRepo: fieldRepo,
		uploader:  uploader,
	}
}

func (s *fieldService) Create(ctx context.Context, input FieldInput) (*models.Field, error) {
	if err := validateFieldInput(input); err != nil {
		return nil, err
	}

	field := &models.Field{
		Name:         input.Name,
		Description:  input.Description,
		Location:     input.Location,
		PricePerHour: input.PricePerHour,
	}
	if err := s.fieldRepo.Create(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}
	return field, nil
}

func (s *fieldService) GetByID(ctx context.Context, fieldID int) (*models.Field, error) {
	field, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, repositories.ErrFieldNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to get field %d: %w", fieldID, err)
	}
	s.populateImageURL(field)
	return field, nil
}

func (s *fieldService) List(ctx context.Context) ([]*models.Field, error) {
	fields, err := s.fieldRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	for _, field := range fields {
		s.populateImageURL(field)
	}
	return fields, nil
}

func (s *fieldService) Update(ctx context.Context, fieldID int, input FieldInput) (*models.Field, error) {
	if err := validateFieldInput(input); err != nil {
		return nil, err
	}

	field := &models.Field{
		ID:           fieldID,
		Name:         input.Name,
		Description:  input.Description,
		Location:     input.Location,
		PricePerHour: input.PricePerHour,
	}
	if err := s.fieldRepo.Update(ctx, field); err != nil {
		if errors.Is(err, repositories.ErrFieldNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to update field %d: %w", fieldID, err)
	}
	return field, nil
}

func (s *fieldService) Delete(ctx context.Context, fieldID int) error {
	err := s.fieldRepo.Delete(ctx, fieldID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrFieldNotFound):
			return ErrFieldNotFound
		case errors.Is(err, repositories.ErrFieldInUse):
			return ErrFieldInUse
		}
		return fmt.Errorf("failed to delete field %d: %w", fieldID, err)
	}
	return nil
}

func (s *fieldService) UploadImage(ctx context.Context, fieldID int, contentType string, file io.Reader) (*models.Field, error) {
	field, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, repositories.ErrFieldNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to get field %d: %w", fieldID, err)
	}

	ext, err := imageExtension(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}

	key := fmt.Sprintf("fields/%d/image%s", fieldID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileUploadFailed, err)
	}

	if err := s.fieldRepo.UpdateImageKey(ctx, fieldID, &key); err != nil {
		return nil, fmt.Errorf("failed to save image key for field %d: %w", fieldID, err)
	}

	field.ImageKey = &key
	s.populateImageURL(field)
	return field, nil
}

func (s *fieldService) populateImageURL(field *models.Field) {
	if field == nil || field.ImageKey == nil || *field.ImageKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*field.ImageKey); url != "" {
		field.ImageURL = &url
	}
}

func validateFieldInput(input FieldInput) error {
	if input.Name == "" || input.PricePerHour < 0 {
		return ErrValidationFailed
	}
	return nil
}

func imageExtension(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
