package handlers

import (
	"errors"
	"net/http"

	"github.com/5v5games/booking-system/services"
	"github.com/go-chi/chi/v5"
)

type TeamSignupHandler struct {
	teamSignupService services.TeamSignupService
}

func NewTeamSignupHandler(teamSignupService services.TeamSignupService) *TeamSignupHandler {
	return &TeamSignupHandler{teamSignupService: teamSignupService}
}

// Create обрабатывает POST /api/team-signup/create
func (h *TeamSignupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID int    `json:"tournamentId"`
		TeamName     string `json:"teamName"`
		CreatorID    int    `json:"creatorId"`
		CreatorName  string `json:"creatorName"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TournamentID <= 0 || input.TeamName == "" || input.CreatorID <= 0 || input.CreatorName == "" {
		badRequestResponse(w, r, errors.New("tournamentId, teamName, creatorId and creatorName are required"))
		return
	}

	result, err := h.teamSignupService.Create(r.Context(), services.CreateTeamInput{
		TournamentID: input.TournamentID,
		TeamName:     input.TeamName,
		CaptainID:    input.CreatorID,
		CaptainName:  input.CreatorName,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyExisting {
		status = http.StatusOK
	}
	response := jsonResponse{
		"team":            result.Team,
		"invitationCode":  result.Team.InvitationCode,
		"alreadyExisting": result.AlreadyExisting,
	}
	if err := writeJSON(w, status, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHub обрабатывает GET /api/team-signup/{invitationCode}
func (h *TeamSignupHandler) GetHub(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "invitationCode")
	if code == "" {
		badRequestResponse(w, r, errors.New("invitation code is required"))
		return
	}

	hub, err := h.teamSignupService.GetHub(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"team":       hub.Team,
		"tournament": hub.Tournament,
		"players":    hub.Players,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Join обрабатывает POST /api/team-signup/join
func (h *TeamSignupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode string `json:"invitationCode"`
		UserID         int    `json:"userId"`
		UserName       string `json:"userName"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InvitationCode == "" || input.UserID <= 0 || input.UserName == "" {
		badRequestResponse(w, r, errors.New("invitationCode, userId and userName are required"))
		return
	}

	if err := h.teamSignupService.Join(r.Context(), input.InvitationCode, input.UserID, input.UserName); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "successfully joined team"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemovePlayer обрабатывает POST /api/team-signup/remove-player
func (h *TeamSignupHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.teamSignupService.RemovePlayer(r.Context(), input.InvitationCode, input.UserID, input.TargetUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "player removed successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Confirm обрабатывает POST /api/team-signup/confirm
func (h *TeamSignupHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var input struct {
		InvitationCode string `json:"invitationCode"`
		TournamentID   int    `json:"tournamentId"`
		CaptainID      int    `json:"captainId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InvitationCode == "" || input.TournamentID <= 0 || input.CaptainID <= 0 {
		badRequestResponse(w, r, errors.New("invitationCode, tournamentId and captainId are required"))
		return
	}

	team, err := h.teamSignupService.ConfirmRegistration(r.Context(), input.InvitationCode, input.TournamentID, input.CaptainID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":  "team registered successfully",
		"teamId":   team.ID,
		"teamName": team.TeamName,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
