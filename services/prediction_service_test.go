package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/prediction-league/models"
)

func predictionFixture(t *testing.T) (*fakeMatchRepo, *fakePredictionRepo, PredictionService) {
	t.Helper()

	teams, matches := buildCompactTournament(t)
	matchRepo := &fakeMatchRepo{matches: matches}
	predictionRepo := newFakePredictionRepo()
	svc := NewPredictionService(predictionRepo, matchRepo, &fakeTeamRepo{teams: teams}, newFakeThirdPlaceRepo())
	return matchRepo, predictionRepo, svc
}

// seedGroupPredictions gives the user a home win on every group fixture, which
// settles every group table in roster order.
func seedGroupPredictions(repo *fakePredictionRepo, matches []*models.Match, userID int) {
	for _, m := range matches {
		if m.Round != models.RoundGroupStage {
			continue
		}
		repo.predictions = append(repo.predictions, &models.Prediction{
			ID:        repo.nextID,
			UserID:    userID,
			MatchID:   m.ID,
			HomeScore: 2,
			AwayScore: 1,
			Outcome:   models.OutcomeHomeWin,
		})
		repo.nextID++
	}
}

func intPtr(v int) *int { return &v }

func TestUpsertGroupPrediction(t *testing.T) {
	_, predictionRepo, svc := predictionFixture(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, 1, 1, PredictionInput{HomeScore: 2, AwayScore: 0})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.Outcome != models.OutcomeHomeWin {
		t.Errorf("outcome = %s, want home win", saved.Outcome)
	}
	if saved.WinnerTeamID != nil {
		t.Errorf("winner = %v, want nil for a group match", *saved.WinnerTeamID)
	}

	// Повторный Upsert меняет существующий прогноз, не создавая новый.
	if _, err := svc.Upsert(ctx, 1, 1, PredictionInput{HomeScore: 0, AwayScore: 3}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if n, _ := predictionRepo.Count(ctx); n != 1 {
		t.Errorf("predictions = %d, want 1", n)
	}
	stored, err := predictionRepo.GetByUserAndMatch(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetByUserAndMatch: %v", err)
	}
	if stored.Outcome != models.OutcomeAwayWin {
		t.Errorf("updated outcome = %s, want away win", stored.Outcome)
	}
}

func TestUpsertValidation(t *testing.T) {
	matchRepo, _, svc := predictionFixture(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		matchNumber int
		input       PredictionInput
		want        error
	}{
		{"negative score", 1, PredictionInput{HomeScore: -1, AwayScore: 0}, ErrScoresInvalid},
		{"unknown match", 999, PredictionInput{HomeScore: 1, AwayScore: 0}, ErrMatchNotFound},
		{"winner pick on group match", 1, PredictionInput{HomeScore: 1, AwayScore: 1, WinnerTeamID: intPtr(1)}, ErrWinnerPickNotAllowed},
		{"knockout draw without winner", 49, PredictionInput{HomeScore: 1, AwayScore: 1}, ErrWinnerPickRequired},
	}
	for _, tc := range tests {
		if _, err := svc.Upsert(ctx, 1, tc.matchNumber, tc.input); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	// После стартового свистка и для идущих матчей прогноз закрыт.
	matchRepo.matches[0].KickoffTime = time.Now().Add(-time.Minute)
	if _, err := svc.Upsert(ctx, 1, 1, PredictionInput{HomeScore: 1, AwayScore: 0}); !errors.Is(err, ErrPredictionLocked) {
		t.Errorf("kicked off: err = %v, want %v", err, ErrPredictionLocked)
	}
	matchRepo.matches[1].Status = models.MatchStatusInProgress
	if _, err := svc.Upsert(ctx, 1, 2, PredictionInput{HomeScore: 1, AwayScore: 0}); !errors.Is(err, ErrPredictionLocked) {
		t.Errorf("in progress: err = %v, want %v", err, ErrPredictionLocked)
	}
}

func TestUpsertKnockoutDecisiveScoreDropsWinnerPick(t *testing.T) {
	_, _, svc := predictionFixture(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, 1, 49, PredictionInput{HomeScore: 2, AwayScore: 1, WinnerTeamID: intPtr(5)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.WinnerTeamID != nil {
		t.Errorf("winner = %v, want nil when the score decides", *saved.WinnerTeamID)
	}
}

func TestUpsertKnockoutWinnerAgainstOwnBracket(t *testing.T) {
	matchRepo, predictionRepo, svc := predictionFixture(t)
	ctx := context.Background()

	// Группы в сетке пользователя сыграны, пара первого матча плей-офф
	// известна: 1A против 2B, то есть сборные 1 и 6.
	seedGroupPredictions(predictionRepo, matchRepo.matches, 1)

	if _, err := svc.Upsert(ctx, 1, 49, PredictionInput{HomeScore: 1, AwayScore: 1, WinnerTeamID: intPtr(2)}); !errors.Is(err, ErrWinnerPickInvalid) {
		t.Errorf("outsider winner: err = %v, want %v", err, ErrWinnerPickInvalid)
	}

	saved, err := svc.Upsert(ctx, 1, 49, PredictionInput{HomeScore: 1, AwayScore: 1, WinnerTeamID: intPtr(6)})
	if err != nil {
		t.Fatalf("Upsert with pair team: %v", err)
	}
	if saved.WinnerTeamID == nil || *saved.WinnerTeamID != 6 {
		t.Errorf("winner = %v, want 6", saved.WinnerTeamID)
	}
}

func TestUpsertKnockoutWinnerWithUnsettledBracket(t *testing.T) {
	_, _, svc := predictionFixture(t)
	ctx := context.Background()

	// Без прогнозов на группы пара матча неизвестна, подходит любая сборная.
	saved, err := svc.Upsert(ctx, 2, 49, PredictionInput{HomeScore: 0, AwayScore: 0, WinnerTeamID: intPtr(30)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.WinnerTeamID == nil || *saved.WinnerTeamID != 30 {
		t.Errorf("winner = %v, want 30", saved.WinnerTeamID)
	}
}

func TestListMineAttachesMatches(t *testing.T) {
	_, _, svc := predictionFixture(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, 1, 1, PredictionInput{HomeScore: 1, AwayScore: 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, 1, 2, PredictionInput{HomeScore: 0, AwayScore: 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	mine, err := svc.ListMine(ctx, 1)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("predictions = %d, want 2", len(mine))
	}
	for _, p := range mine {
		if p.Match == nil || p.Match.ID != p.MatchID {
			t.Errorf("prediction %d has match %+v, want match %d attached", p.ID, p.Match, p.MatchID)
		}
	}

	got, err := svc.GetMine(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if got.Match == nil || got.Match.MatchNumber != 2 {
		t.Error("GetMine did not attach the match")
	}
	if _, err := svc.GetMine(ctx, 1, 3); !errors.Is(err, ErrPredictionNotFound) {
		t.Errorf("missing prediction: err = %v, want %v", err, ErrPredictionNotFound)
	}
}
