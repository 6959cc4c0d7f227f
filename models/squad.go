package models

import "time"

// Squad is a private group of users competing against each other on the
// summed points of their members.
type Squad struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int       `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []SquadMember `json:"members,omitempty" db:"-"`
}

type SquadMember struct {
	UserID   int       `json:"user_id"`
	Nickname string    `json:"nickname"`
	Points   int       `json:"points"`
	JoinedAt time.Time `json:"joined_at"`
}
