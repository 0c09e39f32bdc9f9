package handlers

import (
	"net/http"

	"github.com/5v5games/booking-system/services"
)

type UserHandler struct {
	userService    services.UserService
	bookingService services.BookingService
}

func NewUserHandler(userService services.UserService, bookingService services.BookingService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		bookingService: bookingService,
	}
}

// GetProfile обрабатывает GET /api/user/{userID}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetReservations обрабатывает GET /api/user/reservations/{userID}
func (h *UserHandler) GetReservations(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reservations, err := h.bookingService.ListUserReservations(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reservations": reservations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpcomingBirthdays обрабатывает GET /api/users/upcoming-birthdays
func (h *UserHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.UpcomingBirthdays(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
