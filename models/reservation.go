package models

import "time"

// Reservation описывает подтверждённое бронирование. Создаётся атомарно с переводом
// слота в is_reserved; удаляется админом (reject/cancel) вместе с
// освобождением слота.
type Reservation struct {
	ID          int         `json:"id" db:"id"`
	UserID      int         `json:"user_id" db:"user_id"`
	FieldID     int         `json:"field_id" db:"field_id"`
	SlotDate    string      `json:"slot_date" db:"slot_date"`
	StartTime   string      `json:"start_time" db:"start_time"`
	EndTime     string      `json:"end_time" db:"end_time"`
	BookingType BookingType `json:"booking_type" db:"booking_type"`
	SessionID   *int        `json:"session_id,omitempty" db:"session_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`

	UserName   *string  `json:"user_name,omitempty" db:"-"`
	FieldName  *string  `json:"field_name,omitempty" db:"-"`
	FieldPrice *float64 `json:"field_price,omitempty" db:"-"`
}
