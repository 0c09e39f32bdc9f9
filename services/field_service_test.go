package services

import (
	"context"
	"testing"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/stretchr/testify/assert"
)

type stubFieldRepo struct {
	deleteFn func(ctx context.Context, id int) error
}

func (s *stubFieldRepo) Create(ctx context.Context, f *models.Field) error { return nil }

func (s *stubFieldRepo) GetByID(ctx context.Context, id int) (*models.Field, error) {
	return nil, repositories.ErrFieldNotFound
}

func (s *stubFieldRepo) List(ctx context.Context) ([]*models.Field, error) { return nil, nil }

func (s *stubFieldRepo) Update(ctx context.Context, f *models.Field) error { return nil }

func (s *stubFieldRepo) UpdateImageKey(ctx context.Context, fieldID int, imageKey *string) error {
	return nil
}

func (s *stubFieldRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func TestDeleteField(t *testing.T) {
	t.Run("surfaces linked tournaments as a conflict", func(t *testing.T) {
		repo := &stubFieldRepo{deleteFn: func(ctx context.Context, id int) error {
			return repositories.ErrFieldInUse
		}}
		svc := NewFieldService(repo, nil)

		err := svc.Delete(context.Background(), 3)
		assert.ErrorIs(t, err, ErrFieldInUse)
	})

	t.Run("surfaces a missing field as not found", func(t *testing.T) {
		repo := &stubFieldRepo{deleteFn: func(ctx context.Context, id int) error {
			return repositories.ErrFieldNotFound
		}}
		svc := NewFieldService(repo, nil)

		err := svc.Delete(context.Background(), 99)
		assert.ErrorIs(t, err, ErrFieldNotFound)
	})
}
