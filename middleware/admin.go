package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const adminUserContextKey contextKey = "admin_user"

// AdminGuard проверяет административный доступ. Идентификатор вызывающего
// берётся из query-параметра userId, поля userId в JSON-теле, заголовка
// X-User-Id или claim user_id из Bearer-токена. Далее пользователь
// загружается из БД: без идентификатора 401, не админ 403.
type AdminGuard struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
}

func NewAdminGuard(userRepo repositories.UserRepository, jwtSecret string) *AdminGuard {
	return &AdminGuard{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

func (g *AdminGuard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := g.resolveUserID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized: user ID is required")
			return
		}

		user, err := g.userRepo.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized: user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "database error during authentication check")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "forbidden: administrator access required")
			return
		}

		ctx := context.WithValue(r.Context(), adminUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext возвращает администратора, положенного RequireAdmin.
func AdminFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(adminUserContextKey).(*models.User)
	return user, ok
}

func (g *AdminGuard) resolveUserID(r *http.Request) (int, error) {
	if idStr := r.URL.Query().Get("userId"); idStr != "" {
		return parsePositiveInt(idStr)
	}

	if id, ok := peekBodyUserID(r); ok {
		return id, nil
	}

	if idStr := r.Header.Get("X-User-Id"); idStr != "" {
		return parsePositiveInt(idStr)
	}

	if id, err := g.userIDFromBearer(r); err == nil {
		return id, nil
	}

	return 0, errors.New("no user identity in request")
}

// peekBodyUserID читает userId из JSON-тела, не ломая последующий
// readJSON в обработчике: прочитанные байты возвращаются на место.
func peekBodyUserID(r *http.Request) (int, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return 0, false
	}
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return 0, false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1_048_576))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return 0, false
	}

	var probe struct {
		UserID json.Number `json:"userId"`
	}
	if json.Unmarshal(body, &probe) != nil || probe.UserID == "" {
		return 0, false
	}

	id, err := strconv.Atoi(probe.UserID.String())
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (g *AdminGuard) userIDFromBearer(r *http.Request) (int, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, errors.New("no bearer token")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected token signing method")
		}
		return g.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	userIDClaim, ok := claims["user_id"].(float64)
	if !ok || userIDClaim <= 0 {
		return 0, errors.New("missing user_id claim")
	}
	return int(userIDClaim), nil
}

func parsePositiveInt(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid user ID")
	}
	return id, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
