package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/5v5games/booking-system/services"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Reserve обрабатывает POST /api/reserve: прямое бронирование всего поля.
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID int `json:"userId"`
		SlotID int `json:"slotId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 || input.SlotID <= 0 {
		badRequestResponse(w, r, errors.New("userId and slotId are required"))
		return
	}

	reservation, err := h.bookingService.ReserveDirect(r.Context(), input.UserID, input.SlotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":     "reservation confirmed successfully",
		"reservation": reservation,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListReservations обрабатывает GET /api/admin/reservations
func (h *BookingHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.bookingService.ListAllReservations(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reservations": reservations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectReservation обрабатывает PUT /api/admin/reservations/{reservationID}/reject
func (h *BookingHandler) RejectReservation(w http.ResponseWriter, r *http.Request) {
	h.release(w, r, "reservation rejected successfully")
}

// CancelReservation обрабатывает PUT /api/admin/reservations/{reservationID}/cancel
func (h *BookingHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	h.release(w, r, "reservation cancelled successfully")
}

func (h *BookingHandler) release(w http.ResponseWriter, r *http.Request, message string) {
	reservationID, err := getIDFromURL(r, "reservationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bookingService.Release(r.Context(), reservationID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": message}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListSlots обрабатывает GET /api/admin/availability?field_id=&date=
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListSlotsFilter
	query := r.URL.Query()

	if fieldIDStr := query.Get("field_id"); fieldIDStr != "" {
		fieldID, err := strconv.Atoi(fieldIDStr)
		if err != nil || fieldID <= 0 {
			badRequestResponse(w, r, errors.New("invalid field_id query parameter"))
			return
		}
		filter.FieldID = &fieldID
	}
	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}

	slots, err := h.bookingService.ListSlots(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFieldSlots обрабатывает GET /api/admin/availability/{fieldID}
func (h *BookingHandler) ListFieldSlots(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.ListSlotsFilter{FieldID: &fieldID}
	if date := r.URL.Query().Get("date"); date != "" {
		filter.Date = &date
	}

	slots, err := h.bookingService.ListSlots(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddSlots обрабатывает POST /api/admin/availability: пакетное добавление
// интервалов на одну дату.
func (h *BookingHandler) AddSlots(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FieldID int                     `json:"fieldId"`
		Date    string                  `json:"date"`
		Slots   []repositories.SlotTime `json:"slots"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FieldID <= 0 || input.Date == "" || len(input.Slots) == 0 {
		badRequestResponse(w, r, errors.New("fieldId, date and a non-empty array of slots are required"))
		return
	}

	if err := h.bookingService.AddSlots(r.Context(), input.FieldID, input.Date, input.Slots); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": "availability slots added successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSlot обрабатывает PUT /api/admin/availability/{slotID}
func (h *BookingHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		SlotDate  string `json:"slot_date"`
		FieldID   int    `json:"field_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.StartTime == "" || input.EndTime == "" || input.SlotDate == "" || input.FieldID <= 0 {
		badRequestResponse(w, r, errors.New("start_time, end_time, slot_date and field_id are required"))
		return
	}

	slot := &models.AvailabilitySlot{
		ID:        slotID,
		FieldID:   input.FieldID,
		SlotDate:  input.SlotDate,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	if err := h.bookingService.UpdateSlot(r.Context(), slot); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "availability slot updated successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteSlot обрабатывает DELETE /api/admin/availability/{slotID}
func (h *BookingHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bookingService.DeleteSlot(r.Context(), slotID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "availability slot deleted successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
