package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/5v5games/booking-system/services"
)

type FieldHandler struct {
	fieldService   services.FieldService
	bookingService services.BookingService
}

func NewFieldHandler(fieldService services.FieldService, bookingService services.BookingService) *FieldHandler {
	return &FieldHandler{
		fieldService:   fieldService,
		bookingService: bookingService,
	}
}

// List обрабатывает GET /api/fields
func (h *FieldHandler) List(w http.ResponseWriter, r *http.Request) {
	fields, err := h.fieldService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fields": fields}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID обрабатывает GET /api/fields/{fieldID}
func (h *FieldHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	field, err := h.fieldService.GetByID(r.Context(), fieldID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"field": field}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Availability обрабатывает GET /api/availability/{fieldID}?date=YYYY-MM-DD
func (h *FieldHandler) Availability(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		badRequestResponse(w, r, errors.New("date query parameter is required"))
		return
	}

	slots, err := h.bookingService.ListFreeSlots(r.Context(), fieldID, date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create обрабатывает POST /api/admin/fields
func (h *FieldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.FieldInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	field, err := h.fieldService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"field": field}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update обрабатывает PUT /api/admin/fields/{fieldID}
func (h *FieldHandler) Update(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.FieldInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	field, err := h.fieldService.Update(r.Context(), fieldID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"field": field}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete обрабатывает DELETE /api/admin/fields/{fieldID}
func (h *FieldHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.fieldService.Delete(r.Context(), fieldID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "field deleted successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadImage обрабатывает POST /api/admin/fields/{fieldID}/image
func (h *FieldHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	fieldID, err := getIDFromURL(r, "fieldID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get image file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for image"))
		return
	}

	field, err := h.fieldService.UploadImage(r.Context(), fieldID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"field": field}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
