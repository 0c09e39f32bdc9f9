package handlers

import (
	"errors"
	"net/http"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/services"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Initiate обрабатывает POST /api/team-building/initiate
func (h *SessionHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID      int     `json:"userId"`
		FieldID     int     `json:"fieldId"`
		SlotDate    string  `json:"slotDate"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		BookingType string  `json:"bookingType"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 || input.FieldID <= 0 || input.SlotDate == "" || input.BookingType == "" {
		badRequestResponse(w, r, errors.New("userId, fieldId, slotDate and bookingType are required"))
		return
	}

	session, err := h.sessionService.Initiate(r.Context(), services.InitiateSessionInput{
		UserID:      input.UserID,
		FieldID:     input.FieldID,
		SlotDate:    input.SlotDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		BookingType: models.BookingType(input.BookingType),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"invitationCode": session.InvitationCode,
		"sessionId":      session.ID,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get обрабатывает GET /api/team-building/{invitationCode}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "invitationCode")
	if code == "" {
		badRequestResponse(w, r, errors.New("invitation code is required"))
		return
	}

	details, err := h.sessionService.Get(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"session": details.Session,
		"members": details.Members,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Join обрабатывает POST /api/team-building/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode  string `json:"invitationCode"`
		UserID          int    `json:"userId"`
		TeamDesignation string `json:"teamDesignation"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	designation := models.TeamDesignation(input.TeamDesignation)
	if input.InvitationCode == "" || input.UserID <= 0 || !designation.Valid() {
		badRequestResponse(w, r, errors.New("invitationCode, userId and a valid teamDesignation are required"))
		return
	}

	if err := h.sessionService.Join(r.Context(), input.InvitationCode, input.UserID, designation); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "successfully joined team"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemovePlayer обрабатывает POST /api/team-building/remove-player
func (h *SessionHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode string `json:"invitationCode"`
		UserID         int    `json:"userId"`
		TargetUserID   int    `json:"targetUserId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InvitationCode == "" || input.UserID <= 0 || input.TargetUserID <= 0 {
		badRequestResponse(w, r, errors.New("invitationCode, userId and targetUserId are required"))
		return
	}

	if err := h.sessionService.RemovePlayer(r.Context(), input.InvitationCode, input.UserID, input.TargetUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "player removed successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmBooking обрабатывает POST /api/team-building/confirm-booking
func (h *SessionHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode string `json:"invitationCode"`
		UserID         int    `json:"userId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InvitationCode == "" || input.UserID <= 0 {
		badRequestResponse(w, r, errors.New("invitationCode and userId are required"))
		return
	}

	reservation, err := h.sessionService.ConfirmBooking(r.Context(), input.InvitationCode, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":       "booking confirmed successfully",
		"reservationId": reservation.ID,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitMatchmaking обрабатывает POST /api/team-building/submit-matchmaking
func (h *SessionHandler) SubmitMatchmaking(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode string `json:"invitationCode"`
		UserID         int    `json:"userId"`
		CurrentPlayers int    `json:"currentPlayers"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InvitationCode == "" || input.UserID <= 0 || input.CurrentPlayers <= 0 {
		badRequestResponse(w, r, errors.New("invitationCode, userId and currentPlayers are required"))
		return
	}

	request, err := h.sessionService.SubmitMatchmaking(r.Context(), input.InvitationCode, input.UserID, input.CurrentPlayers)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":   "matchmaking request submitted successfully",
		"requestId": request.ID,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
