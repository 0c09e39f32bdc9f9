package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[int]*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (s *stubUserRepo) ListByBirthdayDates(ctx context.Context, monthDays []string) ([]*models.User, error) {
	return nil, nil
}

func (s *stubUserRepo) Count(ctx context.Context) (int, error) { return 0, nil }

func newGuard() *AdminGuard {
	return NewAdminGuard(&stubUserRepo{users: map[int]*models.User{
		1: {ID: 1, Name: "Admin", IsAdmin: true},
		2: {ID: 2, Name: "Player", IsAdmin: false},
	}}, "test-secret")
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := AdminFromContext(r.Context())
		require.True(t, ok)
		assert.True(t, user.IsAdmin)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("accepts an admin identified by query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields?userId=1", nil)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepts an admin identified by JSON body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/fields",
			strings.NewReader(`{"userId": 1, "name": "Arena"}`))
		req.Header.Set("Content-Type", "application/json")

		var seenBody string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Тело должно остаться читаемым после проверки.
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			seenBody = string(body)
			w.WriteHeader(http.StatusOK)
		})

		newGuard().RequireAdmin(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"userId": 1, "name": "Arena"}`, seenBody)
	})

	t.Run("accepts an admin identified by header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields", nil)
		req.Header.Set("X-User-Id", "1")

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepts an admin identified by bearer token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":  float64(1),
			"is_admin": true,
			"exp":      time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": float64(1),
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("wrong-secret"))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires some identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields", nil)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "user ID is required")
	})

	t.Run("returns unauthorized for an unknown user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields?userId=99", nil)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "user not found")
	})

	t.Run("returns forbidden for a non-admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/fields?userId=2", nil)

		newGuard().RequireAdmin(protectedHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "administrator access required")
	})
}
