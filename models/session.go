package models

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type TeamDesignation string

const (
	TeamA      TeamDesignation = "A"
	TeamB      TeamDesignation = "B"
	TeamSingle TeamDesignation = "single"
)

func (d TeamDesignation) Valid() bool {
	return d == TeamA || d == TeamB || d == TeamSingle
}

// TeamSession описывает временную группу по коду приглашения, собирающую команду
// перед тем, как стать бронированием или заявкой на матчмейкинг.
// Переходы: active → completed (confirm-booking / submit-matchmaking),
// active → cancelled. Из терминальных состояний выходов нет.
type TeamSession struct {
	ID             int           `json:"id" db:"id"`
	InvitationCode string        `json:"invitation_code" db:"invitation_code"`
	CreatorID      int           `json:"creator_id" db:"creator_id"`
	BookingType    BookingType   `json:"booking_type" db:"booking_type"`
	FieldID        int           `json:"field_id" db:"field_id"`
	SlotDate       string        `json:"slot_date" db:"slot_date"`
	StartTime      *string       `json:"start_time,omitempty" db:"start_time"`
	EndTime        *string       `json:"end_time,omitempty" db:"end_time"`
	Status         SessionStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	FieldName     *string  `json:"field_name,omitempty" db:"-"`
	FieldLocation *string  `json:"field_location,omitempty" db:"-"`
	FieldPrice    *float64 `json:"field_price,omitempty" db:"-"`
}

// TeamMember описывает участника сессии, уникального в паре (session_id, user_id).
type TeamMember struct {
	ID              int             `json:"id" db:"id"`
	SessionID       int             `json:"session_id" db:"session_id"`
	UserID          int             `json:"user_id" db:"user_id"`
	TeamDesignation TeamDesignation `json:"team_designation" db:"team_designation"`
	JoinedAt        time.Time       `json:"joined_at" db:"joined_at"`

	PlayerName *string `json:"player_name,omitempty" db:"-"`
}
