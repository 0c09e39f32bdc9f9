package routes

import (
	"github.com/5v5games/booking-system/handlers"
	"github.com/5v5games/booking-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	fieldHandler *handlers.FieldHandler,
	bookingHandler *handlers.BookingHandler,
	sessionHandler *handlers.SessionHandler,
	matchmakingHandler *handlers.MatchmakingHandler,
	teamSignupHandler *handlers.TeamSignupHandler,
	tournamentHandler *handlers.TournamentHandler,
	adminGuard *middleware.AdminGuard,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		// Аутентификация
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		// Публичный просмотр полей и расписания
		r.Get("/fields", fieldHandler.List)
		r.Get("/fields/{fieldID}", fieldHandler.GetByID)
		r.Get("/availability/{fieldID}", fieldHandler.Availability)

		// Профиль и брони пользователя
		r.Get("/user/{userID}", userHandler.GetProfile)
		r.Get("/user/reservations/{userID}", userHandler.GetReservations)
		r.Get("/users/upcoming-birthdays", userHandler.UpcomingBirthdays)

		// Прямое бронирование и одиночный подбор
		r.Post("/reserve", bookingHandler.Reserve)
		r.Post("/matchmake", matchmakingHandler.Submit)

		// Сбор состава на сессию (team building). Код приглашения для
		// мутаций приходит в теле запроса, в пути он только у чтения.
		r.Route("/team-building", func(r chi.Router) {
			r.Post("/initiate", sessionHandler.Initiate)
			r.Get("/{invitationCode}", sessionHandler.Get)
			r.Post("/join", sessionHandler.Join)
			r.Post("/remove-player", sessionHandler.RemovePlayer)
			r.Post("/confirm-booking", sessionHandler.ConfirmBooking)
			r.Post("/submit-matchmaking", sessionHandler.SubmitMatchmaking)
		})

		// Заявка команды на турнир
		r.Route("/team-signup", func(r chi.Router) {
			r.Post("/create", teamSignupHandler.Create)
			r.Get("/{invitationCode}", teamSignupHandler.GetHub)
			r.Post("/join", teamSignupHandler.Join)
			r.Post("/remove-player", teamSignupHandler.RemovePlayer)
			r.Post("/confirm", teamSignupHandler.Confirm)
		})

		// Публичный просмотр турниров
		r.Get("/tournaments", tournamentHandler.List)
		r.Get("/tournaments/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/tournaments/{tournamentID}/teams", tournamentHandler.ListTeams)

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminGuard.RequireAdmin)

			r.Get("/fields", fieldHandler.List)
			r.Post("/fields", fieldHandler.Create)
			r.Put("/fields/{fieldID}", fieldHandler.Update)
			r.Delete("/fields/{fieldID}", fieldHandler.Delete)
			r.Post("/fields/{fieldID}/image", fieldHandler.UploadImage)

			r.Get("/availability", bookingHandler.ListSlots)
			r.Post("/availability", bookingHandler.AddSlots)
			r.Get("/availability/{fieldID}", bookingHandler.ListFieldSlots)
			r.Put("/availability/{slotID}", bookingHandler.UpdateSlot)
			r.Delete("/availability/{slotID}", bookingHandler.DeleteSlot)

			r.Get("/reservations", bookingHandler.ListReservations)
			r.Put("/reservations/{reservationID}/reject", bookingHandler.RejectReservation)
			r.Put("/reservations/{reservationID}/cancel", bookingHandler.CancelReservation)

			r.Get("/matchmaking/suggestions", matchmakingHandler.Suggestions)
			r.Get("/matchmaking/categorized", matchmakingHandler.Categorized)
			r.Post("/matchmaking-requests/{requestID}/approve", matchmakingHandler.Approve)
			r.Post("/matchmaking-requests/{requestID}/reject", matchmakingHandler.Reject)

			r.Get("/tournaments", tournamentHandler.List)
			r.Post("/tournaments", tournamentHandler.Create)
			r.Delete("/tournaments/{tournamentID}", tournamentHandler.Delete)
			r.Get("/tournaments/{tournamentID}/teams", tournamentHandler.ListTeams)
			r.Post("/tournaments/{tournamentID}/image", tournamentHandler.UploadImage)

			r.Get("/analytics", matchmakingHandler.Analytics)
		})
	})
}
