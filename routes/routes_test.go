package routes

import (
	"net/http"
	"strings"
	"testing"

	"github.com/5v5games/booking-system/handlers"
	"github.com/5v5games/booking-system/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Мутации по коду приглашения не несут код в пути: иначе путь и тело
// могут указывать на разные сессии. В пути код только у чтения хаба.
func TestInvitationRoutesKeepCodeInBody(t *testing.T) {
	router := chi.NewRouter()
	SetupRoutes(
		router,
		handlers.NewAuthHandler(nil, "secret"),
		handlers.NewUserHandler(nil, nil),
		handlers.NewFieldHandler(nil, nil),
		handlers.NewBookingHandler(nil),
		handlers.NewSessionHandler(nil),
		handlers.NewMatchmakingHandler(nil, nil, nil),
		handlers.NewTeamSignupHandler(nil),
		handlers.NewTournamentHandler(nil, nil),
		middleware.NewAdminGuard(nil, "secret"),
	)

	mounted := make(map[string]bool)
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		mounted[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	wanted := []string{
		"POST /api/team-building/initiate",
		"GET /api/team-building/{invitationCode}",
		"POST /api/team-building/join",
		"POST /api/team-building/remove-player",
		"POST /api/team-building/confirm-booking",
		"POST /api/team-building/submit-matchmaking",
		"POST /api/team-signup/create",
		"GET /api/team-signup/{invitationCode}",
		"POST /api/team-signup/join",
		"POST /api/team-signup/remove-player",
		"POST /api/team-signup/confirm",
	}
	for _, want := range wanted {
		assert.True(t, mounted[want], "route %s is not mounted", want)
	}

	for route := range mounted {
		if strings.HasPrefix(route, "POST ") {
			assert.NotContains(t, route, "{invitationCode}",
				"mutation route must not carry the invitation code in the path: %s", route)
		}
	}
}
