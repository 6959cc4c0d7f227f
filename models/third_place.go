package models

import "time"

// ThirdPlacePick is one row of a user's manual ordering of the third-placed
// teams. RankPosition runs 1..12 and is unique per user, as is the team.
type ThirdPlacePick struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	TeamID       int       `json:"team_id"`
	RankPosition int       `json:"rank_position"`
	CreatedAt    time.Time `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}
