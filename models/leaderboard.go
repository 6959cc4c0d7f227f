package models

type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	UserID   int    `json:"user_id"`
	Nickname string `json:"nickname"`
	Points   int    `json:"points"`
	Scored   int    `json:"scored_predictions"`
}

type SquadLeaderboardRow struct {
	Rank    int    `json:"rank"`
	SquadID int    `json:"squad_id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
	Points  int    `json:"points"`
}
