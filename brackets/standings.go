// prediction-league/brackets/standings.go
package brackets

import (
	"sort"

	"github.com/Dosada05/prediction-league/models"
)

type TeamStanding struct {
	Team         models.Team `json:"team"`
	Played       int         `json:"played"`
	Won          int         `json:"won"`
	Drawn        int         `json:"drawn"`
	Lost         int         `json:"lost"`
	GoalsFor     int         `json:"goals_for"`
	GoalsAgainst int         `json:"goals_against"`
	GoalDiff     int         `json:"goal_difference"`
	Points       int         `json:"points"`
}

// standingsLess is the one comparator used everywhere a table is ordered:
// points, then goal difference, then goals scored, all descending. Ties
// beyond that are left to the caller's stable input order.
func standingsLess(a, b TeamStanding) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDiff != b.GoalDiff {
		return a.GoalDiff > b.GoalDiff
	}
	return a.GoalsFor > b.GoalsFor
}

// ComputeGroupStandings builds one group table from whatever results the
// source has. Matches without a result are skipped entirely, so a group with
// nothing decided comes back as all-zero rows in team list order.
func ComputeGroupStandings(group string, teams []models.Team, matches []*models.Match, source ResultSource) []TeamStanding {
	rows := make([]TeamStanding, 0, 4)
	index := make(map[int]int, 4)
	for _, team := range teams {
		if team.GroupLetter == nil || *team.GroupLetter != group {
			continue
		}
		index[team.ID] = len(rows)
		rows = append(rows, TeamStanding{Team: team})
	}

	for _, m := range matches {
		if m.Round != models.RoundGroupStage || m.GroupLetter == nil || *m.GroupLetter != group {
			continue
		}
		if m.HomeTeamID == nil || m.AwayTeamID == nil {
			continue
		}
		res, ok := source.ResultFor(m)
		if !ok {
			continue
		}
		if i, ok := index[*m.HomeTeamID]; ok {
			applyResult(&rows[i], res.HomeGoals, res.AwayGoals)
		}
		if i, ok := index[*m.AwayTeamID]; ok {
			applyResult(&rows[i], res.AwayGoals, res.HomeGoals)
		}
	}

	for i := range rows {
		rows[i].GoalDiff = rows[i].GoalsFor - rows[i].GoalsAgainst
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return standingsLess(rows[i], rows[j])
	})
	return rows
}

func applyResult(row *TeamStanding, scored, conceded int) {
	row.Played++
	row.GoalsFor += scored
	row.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		row.Won++
		row.Points += 3
	case scored < conceded:
		row.Lost++
	default:
		row.Drawn++
		row.Points++
	}
}

// ComputeAllStandings builds the table of every group, keyed by group letter.
func ComputeAllStandings(groups []string, teams []models.Team, matches []*models.Match, source ResultSource) map[string][]TeamStanding {
	standings := make(map[string][]TeamStanding, len(groups))
	for _, g := range groups {
		standings[g] = ComputeGroupStandings(g, teams, matches, source)
	}
	return standings
}

// GroupComplete reports whether every fixture of the group has a result from
// the source. A group with no fixtures at all is not complete.
func GroupComplete(group string, matches []*models.Match, source ResultSource) bool {
	total := 0
	for _, m := range matches {
		if m.Round != models.RoundGroupStage || m.GroupLetter == nil || *m.GroupLetter != group {
			continue
		}
		total++
		if _, ok := source.ResultFor(m); !ok {
			return false
		}
	}
	return total > 0
}
