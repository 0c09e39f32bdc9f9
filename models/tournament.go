package models

import "time"

type Tournament struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	FieldID        int       `json:"field_id" db:"field_id"`
	TournamentDate string    `json:"tournament_date" db:"tournament_date"`
	Prize          *string   `json:"prize,omitempty" db:"prize"`
	Description    *string   `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image_url,omitempty" db:"-"`

	FieldName     *string `json:"field_name,omitempty" db:"-"`
	FieldLocation *string `json:"field_location,omitempty" db:"-"`
}
