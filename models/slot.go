package models

import "time"

// BookingType классифицирует, как именно занят слот или чего ищет запрос.
type BookingType string

const (
	BookingFullField             BookingType = "full_field"
	BookingTwoTeamsReady         BookingType = "two_teams_ready"
	BookingTeamVsTeam            BookingType = "team_vs_team"
	BookingTeamLookingForPlayers BookingType = "team_looking_for_players"
	BookingPlayersLookingForTeam BookingType = "players_looking_for_team"
)

func (b BookingType) Valid() bool {
	switch b {
	case BookingFullField, BookingTwoTeamsReady, BookingTeamVsTeam,
		BookingTeamLookingForPlayers, BookingPlayersLookingForTeam:
		return true
	}
	return false
}

// AvailabilitySlot задаёт фиксированный интервал поле/дата/время.
// Даты хранятся как 'YYYY-MM-DD', время как 'HH:MM'.
// Инвариант: ровно один держатель, когда is_reserved; свободный слот
// не имеет ни держателя, ни reservation_type.
type AvailabilitySlot struct {
	ID              int          `json:"id" db:"id"`
	FieldID         int          `json:"field_id" db:"field_id"`
	SlotDate        string       `json:"slot_date" db:"slot_date"`
	StartTime       string       `json:"start_time" db:"start_time"`
	EndTime         string       `json:"end_time" db:"end_time"`
	IsReserved      bool         `json:"is_reserved" db:"is_reserved"`
	ReservationType *BookingType `json:"reservation_type,omitempty" db:"reservation_type"`
	UserID          *int         `json:"user_id,omitempty" db:"user_id"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`

	UserName   *string  `json:"user_name,omitempty" db:"-"`
	FieldName  *string  `json:"field_name,omitempty" db:"-"`
	FieldPrice *float64 `json:"field_price,omitempty" db:"-"`
}
