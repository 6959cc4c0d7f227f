// prediction-league/brackets/scoring.go
package brackets

import "github.com/Dosada05/prediction-league/models"

// Points awarded per rule. A rule replaces the lesser one, it never stacks:
// an exact group scoreline is worth 3, not 3+1.
const (
	PointsGroupOutcome   = 1
	PointsGroupExact     = 3
	PointsKnockoutWinner = 2
	PointsKnockoutExact  = 6
)

type ScoreStatus string

const (
	// ScoreStatusPending marks predictions whose match has no result yet.
	ScoreStatusPending ScoreStatus = "pending"
	// ScoreStatusDivergent marks knockout predictions whose own bracket put
	// a different pair of teams into the match than reality did.
	ScoreStatusDivergent ScoreStatus = "divergent"
	// ScoreStatusScored marks predictions evaluated against a final result.
	ScoreStatusScored ScoreStatus = "scored"
)

type ScoreBreakdown struct {
	Points int         `json:"points"`
	Status ScoreStatus `json:"status"`
	Rules  []string    `json:"rules,omitempty"`
}

// ScorePrediction scores one prediction against the authoritative result of
// its match. For knockout matches, predictedHome and predictedAway must
// carry the pair the predictor's own bracket resolves for this match (nil
// while that chain is unknown); group matches ignore them. Recomputing is
// idempotent: the same inputs always produce the same breakdown.
func ScorePrediction(pred *models.Prediction, match *models.Match, predictedHome, predictedAway *models.Team) ScoreBreakdown {
	if pred == nil || match == nil || !match.HasResult() {
		return ScoreBreakdown{Status: ScoreStatusPending}
	}
	if match.Round.IsKnockout() {
		return scoreKnockout(pred, match, predictedHome, predictedAway)
	}
	return scoreGroup(pred, match)
}

func scoreGroup(pred *models.Prediction, match *models.Match) ScoreBreakdown {
	actualHome, actualAway := *match.HomeScore, *match.AwayScore

	if pred.HomeScore == actualHome && pred.AwayScore == actualAway {
		return ScoreBreakdown{
			Points: PointsGroupExact,
			Status: ScoreStatusScored,
			Rules:  []string{"exact score"},
		}
	}

	predicted := pred.Outcome
	if predicted == "" {
		predicted = models.OutcomeFromScores(pred.HomeScore, pred.AwayScore)
	}
	if predicted == models.OutcomeFromScores(actualHome, actualAway) {
		return ScoreBreakdown{
			Points: PointsGroupOutcome,
			Status: ScoreStatusScored,
			Rules:  []string{"correct outcome"},
		}
	}
	return ScoreBreakdown{Status: ScoreStatusScored}
}

func scoreKnockout(pred *models.Prediction, match *models.Match, predictedHome, predictedAway *models.Team) ScoreBreakdown {
	if match.HomeTeamID == nil || match.AwayTeamID == nil {
		return ScoreBreakdown{Status: ScoreStatusPending}
	}
	if predictedHome == nil || predictedAway == nil {
		return ScoreBreakdown{Status: ScoreStatusDivergent}
	}

	// The predictor's pair must be the real pair before anything scores.
	// Orientation may differ: a bracket can put the same two teams into the
	// fixture with home and away swapped, and scores then compare swapped.
	actualHomeID, actualAwayID := *match.HomeTeamID, *match.AwayTeamID
	predHomeGoals, predAwayGoals := pred.HomeScore, pred.AwayScore
	switch {
	case predictedHome.ID == actualHomeID && predictedAway.ID == actualAwayID:
	case predictedHome.ID == actualAwayID && predictedAway.ID == actualHomeID:
		predHomeGoals, predAwayGoals = predAwayGoals, predHomeGoals
	default:
		return ScoreBreakdown{Status: ScoreStatusDivergent}
	}

	actualHome, actualAway := *match.HomeScore, *match.AwayScore
	if predHomeGoals == actualHome && predAwayGoals == actualAway {
		return ScoreBreakdown{
			Points: PointsKnockoutExact,
			Status: ScoreStatusScored,
			Rules:  []string{"exact score"},
		}
	}

	var actualWinnerID int
	switch {
	case actualHome > actualAway:
		actualWinnerID = actualHomeID
	case actualAway > actualHome:
		actualWinnerID = actualAwayID
	case match.WinnerTeamID != nil:
		actualWinnerID = *match.WinnerTeamID
	}

	var predictedWinnerID int
	switch {
	case pred.HomeScore > pred.AwayScore:
		predictedWinnerID = predictedHome.ID
	case pred.AwayScore > pred.HomeScore:
		predictedWinnerID = predictedAway.ID
	case pred.WinnerTeamID != nil:
		predictedWinnerID = *pred.WinnerTeamID
	}

	if actualWinnerID != 0 && predictedWinnerID == actualWinnerID {
		return ScoreBreakdown{
			Points: PointsKnockoutWinner,
			Status: ScoreStatusScored,
			Rules:  []string{"correct winner"},
		}
	}
	return ScoreBreakdown{Status: ScoreStatusScored}
}

// SumPoints totals the stored points of a set of predictions. Pending and
// divergent predictions carry zero and weigh nothing.
func SumPoints(predictions []*models.Prediction) int {
	total := 0
	for _, p := range predictions {
		if p != nil {
			total += p.PointsEarned
		}
	}
	return total
}
