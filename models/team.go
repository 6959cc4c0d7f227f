package models

import "time"

// Team is a national side taking part in the tournament.
// Code is the ISO 3166-1 alpha-3 code shown next to the name.
type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	GroupLetter *string   `json:"group_letter,omitempty" db:"group_letter"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`
}
