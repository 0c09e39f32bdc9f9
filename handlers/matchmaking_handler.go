package handlers

import (
	"errors"
	"net/http"

	"github.com/5v5games/booking-system/services"
)

type MatchmakingHandler struct {
	matchmakingService services.MatchmakingService
	bookingService     services.BookingService
	analyticsService   services.AnalyticsService
}

func NewMatchmakingHandler(
	matchmakingService services.MatchmakingService,
	bookingService services.BookingService,
	analyticsService services.AnalyticsService,
) *MatchmakingHandler {
	return &MatchmakingHandler{
		matchmakingService: matchmakingService,
		bookingService:     bookingService,
		analyticsService:   analyticsService,
	}
}

// Submit обрабатывает POST /api/matchmake: одиночный игрок встаёт в пул.
func (h *MatchmakingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID      int     `json:"userId"`
		FieldID     int     `json:"fieldId"`
		SlotID      *int    `json:"slotId"`
		SlotDate    *string `json:"slotDate"`
		RequestType string  `json:"requestType"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 || input.FieldID <= 0 || (input.SlotID == nil && input.SlotDate == nil) {
		badRequestResponse(w, r, errors.New("userId, fieldId and either slotId or slotDate are required"))
		return
	}
	if input.RequestType != "players_looking_for_team" {
		badRequestResponse(w, r, errors.New("invalid request type for direct matchmaking"))
		return
	}

	request, err := h.matchmakingService.SubmitDirect(r.Context(), services.DirectMatchmakingInput{
		UserID:   input.UserID,
		FieldID:  input.FieldID,
		SlotID:   input.SlotID,
		SlotDate: input.SlotDate,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":   "matchmaking request submitted successfully",
		"requestId": request.ID,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Suggestions обрабатывает GET /api/admin/matchmaking/suggestions
func (h *MatchmakingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.matchmakingService.Suggestions(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"suggestions": suggestions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Categorized обрабатывает GET /api/admin/matchmaking/categorized
func (h *MatchmakingHandler) Categorized(w http.ResponseWriter, r *http.Request) {
	categorized, err := h.matchmakingService.Categorized(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, categorized, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve обрабатывает POST /api/admin/matchmaking-requests/{requestID}/approve.
// Одобрение резервирует слот, поэтому выполняется сервисом бронирования.
func (h *MatchmakingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bookingService.ApproveMatchmaking(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "matchmaking request approved and slot reserved successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reject обрабатывает POST /api/admin/matchmaking-requests/{requestID}/reject
func (h *MatchmakingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchmakingService.Reject(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "matchmaking request rejected successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Analytics обрабатывает GET /api/admin/analytics
func (h *MatchmakingHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analyticsService.Overview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
