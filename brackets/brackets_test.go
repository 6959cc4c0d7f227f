package brackets

import (
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/prediction-league/models"
)

func testTopology(t *testing.T, letters string, teamsPerGroup, thirds int) *Topology {
	t.Helper()
	groups := make([]string, 0, len(letters))
	for _, r := range letters {
		groups = append(groups, string(r))
	}
	topo, err := NewTopology(TopologyConfig{
		GroupLetters:             groups,
		TeamsPerGroup:            teamsPerGroup,
		DirectQualifiersPerGroup: 2,
		BestThirdSlots:           thirds,
	})
	if err != nil {
		t.Fatalf("NewTopology(%s, thirds=%d): %v", letters, thirds, err)
	}
	return topo
}

// testTournament seeds a full tournament: four teams per group with IDs
// counting up from 1, and the complete schedule with match IDs equal to
// match numbers.
func testTournament(t *testing.T, letters string, thirds int) (*Topology, []models.Team, []*models.Match) {
	t.Helper()
	topo := testTopology(t, letters, 4, thirds)

	var teams []models.Team
	rosters := make(map[string][]int, len(topo.Groups))
	id := 1
	for _, g := range topo.Groups {
		for i := 0; i < 4; i++ {
			group := g
			teams = append(teams, models.Team{
				ID:          id,
				Name:        fmt.Sprintf("Team %s%d", g, i+1),
				Code:        fmt.Sprintf("%s%02d", g, i+1),
				GroupLetter: &group,
			})
			rosters[g] = append(rosters[g], id)
			id++
		}
	}

	matches, err := topo.Schedule(ScheduleParams{
		Rosters:      rosters,
		FirstKickoff: time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC),
		MatchSpacing: time.Hour,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	for _, m := range matches {
		m.ID = m.MatchNumber
	}
	return topo, teams, matches
}

func matchNo(t *testing.T, matches []*models.Match, n int) *models.Match {
	t.Helper()
	for _, m := range matches {
		if m.MatchNumber == n {
			return m
		}
	}
	t.Fatalf("no match number %d", n)
	return nil
}

func play(m *models.Match, home, away int) {
	m.HomeScore = &home
	m.AwayScore = &away
	m.Status = models.MatchStatusCompleted
}

func playShootout(m *models.Match, goals int, winnerID int) {
	m.HomeScore = &goals
	g := goals
	m.AwayScore = &g
	m.WinnerTeamID = &winnerID
	m.Status = models.MatchStatusCompleted
}

func groupFixture(t *testing.T, matches []*models.Match, teamA, teamB int) *models.Match {
	t.Helper()
	for _, m := range matches {
		if m.Round != models.RoundGroupStage || m.HomeTeamID == nil || m.AwayTeamID == nil {
			continue
		}
		if (*m.HomeTeamID == teamA && *m.AwayTeamID == teamB) ||
			(*m.HomeTeamID == teamB && *m.AwayTeamID == teamA) {
			return m
		}
	}
	t.Fatalf("no fixture between teams %d and %d", teamA, teamB)
	return nil
}

// playPair records a result in teamA's perspective regardless of which side
// the fixture actually drew at home.
func playPair(t *testing.T, matches []*models.Match, teamA, teamB, goalsA, goalsB int) {
	t.Helper()
	m := groupFixture(t, matches, teamA, teamB)
	if *m.HomeTeamID == teamA {
		play(m, goalsA, goalsB)
	} else {
		play(m, goalsB, goalsA)
	}
}

// playAllGroups completes the whole group stage with home wins, giving every
// group the 9/6/3/0 table in roster order.
func playAllGroups(matches []*models.Match) {
	for _, m := range matches {
		if m.Round == models.RoundGroupStage {
			play(m, 2, 1)
		}
	}
}

func tableIDs(table []TeamStanding) []int {
	ids := make([]int, len(table))
	for i, row := range table {
		ids[i] = row.Team.ID
	}
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func teamInGroup(id int, group string) models.Team {
	g := group
	return models.Team{ID: id, GroupLetter: &g}
}

func pred(matchID, home, away int) *models.Prediction {
	return &models.Prediction{
		MatchID:   matchID,
		HomeScore: home,
		AwayScore: away,
		Outcome:   models.OutcomeFromScores(home, away),
	}
}
