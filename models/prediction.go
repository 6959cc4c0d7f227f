package models

import "time"

type PredictionOutcome string

const (
	OutcomeHomeWin PredictionOutcome = "home_win"
	OutcomeAwayWin PredictionOutcome = "away_win"
	OutcomeDraw    PredictionOutcome = "draw"
)

// PredictionScoreStatus отражает судьбу прогноза при последнем пересчете.
type PredictionScoreStatus string

const (
	PredictionScorePending   PredictionScoreStatus = "pending"
	PredictionScoreDivergent PredictionScoreStatus = "divergent"
	PredictionScoreScored    PredictionScoreStatus = "scored"
)

// Prediction is one user's pick for one match (unique per user+match).
// WinnerTeamID holds the knockout winner pick and is required whenever the
// predicted scores are level.
type Prediction struct {
	ID           int                   `json:"id"`
	UserID       int                   `json:"user_id"`
	MatchID      int                   `json:"match_id"`
	HomeScore    int                   `json:"home_score"`
	AwayScore    int                   `json:"away_score"`
	Outcome      PredictionOutcome     `json:"outcome"`
	WinnerTeamID *int                  `json:"winner_team_id,omitempty"`
	PointsEarned int                   `json:"points_earned"`
	ScoreStatus  PredictionScoreStatus `json:"score_status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`

	Match *Match `json:"match,omitempty"`
}

// OutcomeFromScores derives the result outcome of a scoreline.
func OutcomeFromScores(home, away int) PredictionOutcome {
	switch {
	case home > away:
		return OutcomeHomeWin
	case home < away:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}
