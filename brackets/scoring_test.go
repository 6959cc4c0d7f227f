package brackets

import (
	"testing"

	"github.com/Dosada05/prediction-league/models"
)

func completedGroupMatch(home, away int) *models.Match {
	group := "A"
	homeID, awayID := 1, 2
	m := &models.Match{
		Round:       models.RoundGroupStage,
		GroupLetter: &group,
		HomeTeamID:  &homeID,
		AwayTeamID:  &awayID,
	}
	play(m, home, away)
	return m
}

func completedKnockoutMatch(homeID, awayID, home, away int) *models.Match {
	m := &models.Match{
		Round:      models.RoundOf16,
		HomeTeamID: &homeID,
		AwayTeamID: &awayID,
	}
	play(m, home, away)
	return m
}

func TestScoreGroupPrediction(t *testing.T) {
	match := completedGroupMatch(2, 1)

	tests := []struct {
		name       string
		prediction *models.Prediction
		points     int
	}{
		{"exact score", pred(0, 2, 1), PointsGroupExact},
		{"right outcome wrong score", pred(0, 3, 1), PointsGroupOutcome},
		{"wrong outcome", pred(0, 0, 0), 0},
		{"inverted outcome", pred(0, 1, 2), 0},
	}
	for _, tc := range tests {
		got := ScorePrediction(tc.prediction, match, nil, nil)
		if got.Points != tc.points {
			t.Errorf("%s: points = %d, want %d", tc.name, got.Points, tc.points)
		}
		if got.Status != ScoreStatusScored {
			t.Errorf("%s: status = %s, want scored", tc.name, got.Status)
		}
	}
}

func TestScoreGroupPredictionDraw(t *testing.T) {
	match := completedGroupMatch(1, 1)

	if got := ScorePrediction(pred(0, 1, 1), match, nil, nil); got.Points != PointsGroupExact {
		t.Errorf("exact draw: points = %d, want %d", got.Points, PointsGroupExact)
	}
	if got := ScorePrediction(pred(0, 0, 0), match, nil, nil); got.Points != PointsGroupOutcome {
		t.Errorf("outcome draw: points = %d, want %d", got.Points, PointsGroupOutcome)
	}
}

func TestScorePendingMatch(t *testing.T) {
	group := "A"
	match := &models.Match{Round: models.RoundGroupStage, GroupLetter: &group}
	got := ScorePrediction(pred(0, 2, 1), match, nil, nil)
	if got.Status != ScoreStatusPending || got.Points != 0 {
		t.Errorf("pending match scored: %+v", got)
	}
}

func TestScoreKnockoutPrediction(t *testing.T) {
	teamY := teamInGroup(10, "A")
	teamZ := teamInGroup(20, "B")
	match := completedKnockoutMatch(10, 20, 2, 1)

	tests := []struct {
		name   string
		p      *models.Prediction
		points int
	}{
		{"exact score", pred(0, 2, 1), PointsKnockoutExact},
		{"right winner wrong score", pred(0, 3, 0), PointsKnockoutWinner},
		{"wrong winner", pred(0, 0, 1), 0},
	}
	for _, tc := range tests {
		got := ScorePrediction(tc.p, match, &teamY, &teamZ)
		if got.Points != tc.points || got.Status != ScoreStatusScored {
			t.Errorf("%s: got %+v", tc.name, got)
		}
	}
}

// Scenario: the predictor's bracket put team X here, reality seated Y vs Z.
// No score, however exact, can rescue a divergent pair.
func TestScoreKnockoutDivergentPair(t *testing.T) {
	teamX := teamInGroup(30, "C")
	teamZ := teamInGroup(20, "B")
	match := completedKnockoutMatch(10, 20, 2, 1)

	got := ScorePrediction(pred(0, 2, 1), match, &teamX, &teamZ)
	if got.Status != ScoreStatusDivergent || got.Points != 0 {
		t.Errorf("divergent pair: got %+v", got)
	}

	// An unresolved chain is just as divergent.
	got = ScorePrediction(pred(0, 2, 1), match, nil, &teamZ)
	if got.Status != ScoreStatusDivergent || got.Points != 0 {
		t.Errorf("unresolved pair: got %+v", got)
	}
}

// The same two teams with home and away swapped in the predictor's bracket:
// scores compare in the predictor's orientation.
func TestScoreKnockoutSwappedOrientation(t *testing.T) {
	teamY := teamInGroup(10, "A")
	teamZ := teamInGroup(20, "B")
	match := completedKnockoutMatch(10, 20, 2, 1)

	// Predictor has Z at home and picked Z 1-2 Y, i.e. Y wins 2-1.
	got := ScorePrediction(pred(0, 1, 2), match, &teamZ, &teamY)
	if got.Points != PointsKnockoutExact {
		t.Errorf("swapped exact: points = %d, want %d", got.Points, PointsKnockoutExact)
	}

	got = ScorePrediction(pred(0, 0, 3), match, &teamZ, &teamY)
	if got.Points != PointsKnockoutWinner {
		t.Errorf("swapped winner: points = %d, want %d", got.Points, PointsKnockoutWinner)
	}
}

func TestScoreKnockoutShootout(t *testing.T) {
	teamY := teamInGroup(10, "A")
	teamZ := teamInGroup(20, "B")
	match := completedKnockoutMatch(10, 20, 1, 1)
	winnerID := 20
	match.WinnerTeamID = &winnerID

	// Level pick with the right shoot-out winner.
	p := pred(0, 0, 0)
	p.WinnerTeamID = &winnerID
	if got := ScorePrediction(p, match, &teamY, &teamZ); got.Points != PointsKnockoutWinner {
		t.Errorf("shoot-out winner pick: points = %d, want %d", got.Points, PointsKnockoutWinner)
	}

	// Level pick with the wrong winner.
	wrong := 10
	p2 := pred(0, 0, 0)
	p2.WinnerTeamID = &wrong
	if got := ScorePrediction(p2, match, &teamY, &teamZ); got.Points != 0 {
		t.Errorf("wrong shoot-out pick: points = %d, want 0", got.Points)
	}

	// Decisive pick on a match that went to penalties: winner rule only.
	if got := ScorePrediction(pred(0, 2, 0), match, &teamY, &teamZ); got.Points != 0 {
		t.Errorf("decisive pick, wrong winner: points = %d, want 0", got.Points)
	}
	if got := ScorePrediction(pred(0, 0, 2), match, &teamY, &teamZ); got.Points != PointsKnockoutWinner {
		t.Errorf("decisive pick, right winner: points = %d, want %d", got.Points, PointsKnockoutWinner)
	}
}

func TestScoreKnockoutExactScoreOverridesShootout(t *testing.T) {
	teamY := teamInGroup(10, "A")
	teamZ := teamInGroup(20, "B")
	match := completedKnockoutMatch(10, 20, 1, 1)
	winnerID := 20
	match.WinnerTeamID = &winnerID

	// Exact regulation scoreline is the flat ceiling even when the
	// shoot-out pick is wrong.
	wrong := 10
	p := pred(0, 1, 1)
	p.WinnerTeamID = &wrong
	if got := ScorePrediction(p, match, &teamY, &teamZ); got.Points != PointsKnockoutExact {
		t.Errorf("exact level score: points = %d, want %d", got.Points, PointsKnockoutExact)
	}
}

func TestSumPoints(t *testing.T) {
	preds := []*models.Prediction{
		{PointsEarned: 3},
		{PointsEarned: 0},
		nil,
		{PointsEarned: 6},
		{PointsEarned: 1},
	}
	if got := SumPoints(preds); got != 10 {
		t.Errorf("SumPoints = %d, want 10", got)
	}
	if got := SumPoints(nil); got != 0 {
		t.Errorf("SumPoints(nil) = %d, want 0", got)
	}
}
