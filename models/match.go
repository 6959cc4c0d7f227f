package models

import "time"

type MatchRound string

const (
	RoundGroupStage   MatchRound = "group_stage"
	RoundOf32         MatchRound = "round_of_32"
	RoundOf16         MatchRound = "round_of_16"
	RoundQuarterFinal MatchRound = "quarter_final"
	RoundSemiFinal    MatchRound = "semi_final"
	RoundThirdPlace   MatchRound = "third_place"
	RoundFinal        MatchRound = "final"
)

func (r MatchRound) IsKnockout() bool {
	return r != RoundGroupStage
}

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// Match is one fixture of the tournament, numbered 1..N through the whole
// schedule. Group matches carry concrete team IDs from the start; knockout
// matches start with placeholder slots ("1A", "3ABCDF", "W73") and get team
// IDs filled in as the authoritative bracket resolves.
type Match struct {
	ID           int         `json:"id"`
	MatchNumber  int         `json:"match_number"`
	Round        MatchRound  `json:"round"`
	GroupLetter  *string     `json:"group_letter,omitempty"`
	HomeTeamID   *int        `json:"home_team_id,omitempty"`
	AwayTeamID   *int        `json:"away_team_id,omitempty"`
	HomeSlot     *string     `json:"home_slot,omitempty"`
	AwaySlot     *string     `json:"away_slot,omitempty"`
	KickoffTime  time.Time   `json:"kickoff_time"`
	HomeScore    *int        `json:"home_score,omitempty"`
	AwayScore    *int        `json:"away_score,omitempty"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty"`
	Status       MatchStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`

	HomeTeam *Team `json:"home_team,omitempty"`
	AwayTeam *Team `json:"away_team,omitempty"`
}

// HasResult reports whether the match carries a final score.
func (m *Match) HasResult() bool {
	return m.Status == MatchStatusCompleted && m.HomeScore != nil && m.AwayScore != nil
}
