package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// MatchmakingRequest хранит открытую заявку в пуле. Заявки без start_time/end_time
// матчатся по дню, а не по конкретному слоту.
type MatchmakingRequest struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	FieldID       int           `json:"field_id" db:"field_id"`
	SlotDate      string        `json:"slot_date" db:"slot_date"`
	StartTime     *string       `json:"start_time,omitempty" db:"start_time"`
	EndTime       *string       `json:"end_time,omitempty" db:"end_time"`
	RequestType   BookingType   `json:"request_type" db:"request_type"`
	Status        RequestStatus `json:"status" db:"status"`
	PlayersNeeded int           `json:"players_needed" db:"players_needed"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`

	UserName  *string `json:"user_name,omitempty" db:"-"`
	FieldName *string `json:"field_name,omitempty" db:"-"`
}

// MatchSuggestion описывает кандидатную пару "команда ищет игроков" + "игрок ищет
// команду" на одном поле в один день. Чисто справочная, решение за админом.
type MatchSuggestion struct {
	TeamRequestID     int     `json:"team_request_id"`
	TeamUserID        int     `json:"team_user_id"`
	TeamUserName      string  `json:"team_user_name"`
	TeamPhoneNumber   *string `json:"team_phone_number,omitempty"`
	TeamPlayersNeeded int     `json:"team_players_needed"`
	PlayerRequestID   int     `json:"player_request_id"`
	PlayerUserID      int     `json:"player_user_id"`
	PlayerUserName    string  `json:"player_user_name"`
	SlotDate          string  `json:"slot_date"`
	FieldName         string  `json:"field_name"`
}
