package models

type Field struct {
	ID           int     `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Description  *string `json:"description,omitempty" db:"description"`
	Location     *string `json:"location,omitempty" db:"location"`
	PricePerHour float64 `json:"price_per_hour" db:"price_per_hour"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image_url,omitempty" db:"-"`
}
