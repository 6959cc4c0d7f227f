package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type PredictionInput struct {
	HomeScore    int  `json:"home_score"`
	AwayScore    int  `json:"away_score"`
	WinnerTeamID *int `json:"winner_team_id"`
}

type PredictionService interface {
	Upsert(ctx context.Context, userID, matchNumber int, input PredictionInput) (*models.Prediction, error)
	ListMine(ctx context.Context, userID int) ([]models.Prediction, error)
	GetMine(ctx context.Context, userID, matchNumber int) (*models.Prediction, error)
}

type predictionService struct {
	predictionRepo repositories.PredictionRepository
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	thirdPlaceRepo repositories.ThirdPlacePickRepository
}

func NewPredictionService(
	predictionRepo repositories.PredictionRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	thirdPlaceRepo repositories.ThirdPlacePickRepository,
) PredictionService {
	return &predictionService{
		predictionRepo: predictionRepo,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		thirdPlaceRepo: thirdPlaceRepo,
	}
}

// Upsert сохраняет прогноз пользователя на матч. После начала матча прогноз
// заблокирован. Для плей-офф с ничейным счетом обязателен выбор победителя,
// и если своя сетка пользователя уже знает пару матча, победитель обязан
// быть одним из этой пары.
func (s *predictionService) Upsert(ctx context.Context, userID, matchNumber int, input PredictionInput) (*models.Prediction, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, ErrScoresInvalid
	}

	match, err := s.matchRepo.GetByNumber(ctx, matchNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchNumber, err)
	}

	if match.Status != models.MatchStatusScheduled || !time.Now().Before(match.KickoffTime) {
		return nil, ErrPredictionLocked
	}

	if !match.Round.IsKnockout() {
		if input.WinnerTeamID != nil {
			return nil, ErrWinnerPickNotAllowed
		}
	} else if input.HomeScore == input.AwayScore {
		if input.WinnerTeamID == nil {
			return nil, ErrWinnerPickRequired
		}
		if err := s.validateWinnerPick(ctx, userID, match, input); err != nil {
			return nil, err
		}
	} else {
		// При решающем счете победитель следует из него.
		input.WinnerTeamID = nil
	}

	prediction := &models.Prediction{
		UserID:       userID,
		MatchID:      match.ID,
		HomeScore:    input.HomeScore,
		AwayScore:    input.AwayScore,
		Outcome:      models.OutcomeFromScores(input.HomeScore, input.AwayScore),
		WinnerTeamID: input.WinnerTeamID,
	}

	if err := s.predictionRepo.Upsert(ctx, prediction); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPredictionUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrPredictionMatchInvalid):
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}
	return prediction, nil
}

// validateWinnerPick разрешает сетку пользователя с учетом сохраняемого
// прогноза. Пока пара матча в его сетке неизвестна, годится любая сборная.
func (s *predictionService) validateWinnerPick(ctx context.Context, userID int, match *models.Match, input PredictionInput) error {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return err
	}

	predictions, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load predictions for user %d: %w", userID, err)
	}

	pointers := predictionsToPointers(predictions)
	replaced := false
	candidate := &models.Prediction{
		UserID:       userID,
		MatchID:      match.ID,
		HomeScore:    input.HomeScore,
		AwayScore:    input.AwayScore,
		Outcome:      models.OutcomeFromScores(input.HomeScore, input.AwayScore),
		WinnerTeamID: input.WinnerTeamID,
	}
	for i, p := range pointers {
		if p.MatchID == match.ID {
			pointers[i] = candidate
			replaced = true
			break
		}
	}
	if !replaced {
		pointers = append(pointers, candidate)
	}

	picks, err := s.thirdPlaceRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load third place picks for user %d: %w", userID, err)
	}
	manualOrder := make([]int, 0, len(picks))
	for _, pick := range picks {
		manualOrder = append(manualOrder, pick.TeamID)
	}

	resolution := brackets.ResolveBracket(brackets.ResolveParams{
		Topology:         state.topology,
		Teams:            state.teams,
		Matches:          state.matches,
		Source:           brackets.NewPredictionResults(pointers),
		ManualThirdOrder: manualOrder,
	})

	home, away := resolution.PredictedPair(match.MatchNumber)
	if home == nil || away == nil {
		return nil
	}
	if *input.WinnerTeamID != home.ID && *input.WinnerTeamID != away.ID {
		return ErrWinnerPickInvalid
	}
	return nil
}

func (s *predictionService) ListMine(ctx context.Context, userID int) ([]models.Prediction, error) {
	predictions, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for user %d: %w", userID, err)
	}

	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	byID := make(map[int]*models.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	for i := range predictions {
		predictions[i].Match = byID[predictions[i].MatchID]
	}
	return predictions, nil
}

func (s *predictionService) GetMine(ctx context.Context, userID, matchNumber int) (*models.Prediction, error) {
	match, err := s.matchRepo.GetByNumber(ctx, matchNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchNumber, err)
	}

	prediction, err := s.predictionRepo.GetByUserAndMatch(ctx, userID, match.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrPredictionNotFound) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	prediction.Match = match
	return prediction, nil
}
