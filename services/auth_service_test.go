package services

import (
	"context"
	"testing"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubUserRepo struct {
	createFn              func(ctx context.Context, user *models.User) error
	getByEmailFn          func(ctx context.Context, email string) (*models.User, error)
	listByBirthdayDatesFn func(ctx context.Context, monthDays []string) ([]*models.User, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s *stubUserRepo) ListByBirthdayDates(ctx context.Context, monthDays []string) ([]*models.User, error) {
	if s.listByBirthdayDatesFn != nil {
		return s.listByBirthdayDatesFn(ctx, monthDays)
	}
	return nil, nil
}

func (s *stubUserRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func TestRegister(t *testing.T) {
	t.Run("hashes the password and normalizes the email", func(t *testing.T) {
		var created *models.User
		repo := &stubUserRepo{createFn: func(ctx context.Context, user *models.User) error {
			user.ID = 7
			created = user
			return nil
		}}
		svc := NewAuthService(repo)

		user, err := svc.Register(context.Background(), RegisterInput{
			Name:     "Yernur",
			Email:    "  Yernur@Example.COM ",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "yernur@example.com", user.Email)
		assert.False(t, user.IsAdmin)
		require.NotNil(t, created)
		assert.NotEqual(t, "secret123", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc := NewAuthService(&stubUserRepo{})

		_, err := svc.Register(context.Background(), RegisterInput{
			Name: "Yernur", Email: "y@example.com", Password: "12345",
		})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("maps a duplicate email to a conflict", func(t *testing.T) {
		repo := &stubUserRepo{createFn: func(ctx context.Context, user *models.User) error {
			return repositories.ErrUserEmailConflict
		}}
		svc := NewAuthService(repo)

		_, err := svc.Register(context.Background(), RegisterInput{
			Name: "Yernur", Email: "y@example.com", Password: "secret123",
		})
		assert.ErrorIs(t, err, ErrUserEmailConflict)
	})

	t.Run("validates the birthdate format", func(t *testing.T) {
		svc := NewAuthService(&stubUserRepo{})

		badDate := "01.05.2000"
		_, err := svc.Register(context.Background(), RegisterInput{
			Name: "Yernur", Email: "y@example.com", Password: "secret123", Birthdate: &badDate,
		})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	stored := &models.User{ID: 7, Email: "y@example.com", PasswordHash: string(hash)}

	t.Run("accepts the right password", func(t *testing.T) {
		repo := &stubUserRepo{getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "y@example.com", email)
			return stored, nil
		}}
		svc := NewAuthService(repo)

		user, err := svc.Login(context.Background(), LoginInput{Email: "Y@Example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.Equal(t, 7, user.ID)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		repo := &stubUserRepo{getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return stored, nil
		}}
		svc := NewAuthService(repo)

		_, err := svc.Login(context.Background(), LoginInput{Email: "y@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("hides whether the account exists", func(t *testing.T) {
		repo := &stubUserRepo{getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return nil, repositories.ErrUserNotFound
		}}
		svc := NewAuthService(repo)

		_, err := svc.Login(context.Background(), LoginInput{Email: "missing@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
