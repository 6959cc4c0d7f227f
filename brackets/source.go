// prediction-league/brackets/source.go
package brackets

import "github.com/Dosada05/prediction-league/models"

// Result is one final scoreline from some source. WinnerTeamID breaks level
// scores in knockout play (penalty shoot-out, or an explicit winner pick on
// a predicted draw) and is zero when nothing designates a winner.
type Result struct {
	HomeGoals    int
	AwayGoals    int
	WinnerTeamID int
}

// ResultSource feeds the engine with scorelines. The authoritative results
// and any single user's predictions both satisfy it, so standings, the
// third-place ranking and bracket resolution run the identical code against
// either world.
type ResultSource interface {
	// ResultFor returns the source's final score for the match, if it has one.
	ResultFor(m *models.Match) (Result, bool)

	// AssignedTeams returns a knockout pairing this source considers already
	// settled on the match itself, bypassing slot resolution. Only the
	// authoritative source recognises these.
	AssignedTeams(m *models.Match) (home, away int, ok bool)
}

// OfficialResults reads completed matches as entered by the tournament admin.
type OfficialResults struct{}

func (OfficialResults) ResultFor(m *models.Match) (Result, bool) {
	if !m.HasResult() {
		return Result{}, false
	}
	res := Result{HomeGoals: *m.HomeScore, AwayGoals: *m.AwayScore}
	if m.WinnerTeamID != nil {
		res.WinnerTeamID = *m.WinnerTeamID
	}
	return res, true
}

func (OfficialResults) AssignedTeams(m *models.Match) (int, int, bool) {
	if m.HomeTeamID != nil && m.AwayTeamID != nil {
		return *m.HomeTeamID, *m.AwayTeamID, true
	}
	return 0, 0, false
}

// PredictionResults treats one user's predictions as if they were results.
// It never reports assigned teams: a predicted bracket is rooted entirely in
// the user's own chain, untouched by whatever really happened.
type PredictionResults struct {
	byMatch map[int]*models.Prediction
}

func NewPredictionResults(predictions []*models.Prediction) PredictionResults {
	byMatch := make(map[int]*models.Prediction, len(predictions))
	for _, p := range predictions {
		if p != nil {
			byMatch[p.MatchID] = p
		}
	}
	return PredictionResults{byMatch: byMatch}
}

func (s PredictionResults) ResultFor(m *models.Match) (Result, bool) {
	p, ok := s.byMatch[m.ID]
	if !ok {
		return Result{}, false
	}
	res := Result{HomeGoals: p.HomeScore, AwayGoals: p.AwayScore}
	if p.WinnerTeamID != nil {
		res.WinnerTeamID = *p.WinnerTeamID
	}
	return res, true
}

func (s PredictionResults) AssignedTeams(*models.Match) (int, int, bool) {
	return 0, 0, false
}
