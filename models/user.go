package models

import "time"

type User struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty" db:"phone_number"`
	Birthdate   *string   `json:"birthdate,omitempty" db:"birthdate"`
	Gender      *string   `json:"gender,omitempty" db:"gender"`
	IsAdmin     bool      `json:"is_admin" db:"is_admin"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	PasswordHash string `json:"-" db:"password_hash"`
}
