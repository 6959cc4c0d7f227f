package models

type DashboardStats struct {
	UsersTotal       int              `json:"users_total"`
	PredictionsTotal int              `json:"predictions_total"`
	MatchesTotal     int              `json:"matches_total"`
	MatchesCompleted int              `json:"matches_completed"`
	CompletionPct    float64          `json:"completion_pct"`
	TopUsers         []LeaderboardRow `json:"top_users,omitempty"`
}
