package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

// ScoringService пересчитывает очки прогнозов. Пересчет всегда выполняется
// целиком по пользователю: его сетка определяет пары плей-офф, поэтому
// результат одного матча может поменять статус прогнозов дальше по сетке.
type ScoringService interface {
	RescoreUser(ctx context.Context, userID int) (int, error)
	RescoreUsersForMatches(ctx context.Context, matchIDs []int) (int, error)
	RescoreAll(ctx context.Context) (int, error)
}

type scoringService struct {
	db             *sql.DB
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	thirdPlaceRepo repositories.ThirdPlacePickRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewScoringService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	thirdPlaceRepo repositories.ThirdPlacePickRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		db:             db,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		thirdPlaceRepo: thirdPlaceRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *scoringService) RescoreUser(ctx context.Context, userID int) (int, error) {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return 0, err
	}
	return s.rescoreUserWithState(ctx, userID, state)
}

func (s *scoringService) rescoreUserWithState(ctx context.Context, userID int, state *tournamentState) (int, error) {
	predictions, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load predictions for user %d: %w", userID, err)
	}
	if len(predictions) == 0 {
		return 0, nil
	}

	picks, err := s.thirdPlaceRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load third place picks for user %d: %w", userID, err)
	}
	manualOrder := make([]int, 0, len(picks))
	for _, pick := range picks {
		manualOrder = append(manualOrder, pick.TeamID)
	}

	predictionPtrs := predictionsToPointers(predictions)
	resolution := brackets.ResolveBracket(brackets.ResolveParams{
		Topology:         state.topology,
		Teams:            state.teams,
		Matches:          state.matches,
		Source:           brackets.NewPredictionResults(predictionPtrs),
		ManualThirdOrder: manualOrder,
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin rescore transaction: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for _, prediction := range predictionPtrs {
		match, ok := state.byID[prediction.MatchID]
		if !ok {
			s.logger.WarnContext(ctx, "prediction references missing match",
				slog.Int("user_id", userID),
				slog.Int("match_id", prediction.MatchID))
			continue
		}

		var predictedHome, predictedAway *models.Team
		if match.Round.IsKnockout() {
			predictedHome, predictedAway = resolution.PredictedPair(match.MatchNumber)
		}

		breakdown := brackets.ScorePrediction(prediction, match, predictedHome, predictedAway)
		total += breakdown.Points

		status := models.PredictionScoreStatus(breakdown.Status)
		if prediction.PointsEarned == breakdown.Points && prediction.ScoreStatus == status {
			continue
		}
		if err := s.predictionRepo.UpdateScore(ctx, tx, prediction.ID, breakdown.Points, status); err != nil {
			return 0, fmt.Errorf("failed to store score for prediction %d: %w", prediction.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rescore for user %d: %w", userID, err)
	}
	return total, nil
}

// RescoreUsersForMatches пересчитывает всех пользователей, у которых есть
// прогноз хотя бы на один из затронутых матчей. Возвращает число пользователей.
func (s *scoringService) RescoreUsersForMatches(ctx context.Context, matchIDs []int) (int, error) {
	if len(matchIDs) == 0 {
		return 0, nil
	}

	userIDs, err := s.predictionRepo.ListUserIDsByMatches(ctx, matchIDs)
	if err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return 0, err
	}

	for _, userID := range userIDs {
		if _, err := s.rescoreUserWithState(ctx, userID, state); err != nil {
			return 0, fmt.Errorf("rescore failed for user %d: %w", userID, err)
		}
	}
	return len(userIDs), nil
}

func (s *scoringService) RescoreAll(ctx context.Context) (int, error) {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return 0, err
	}

	const pageSize = 100
	rescored := 0
	for offset := 0; ; offset += pageSize {
		users, err := s.userRepo.List(ctx, pageSize, offset)
		if err != nil {
			return rescored, fmt.Errorf("failed to page users at offset %d: %w", offset, err)
		}
		if len(users) == 0 {
			break
		}
		for _, user := range users {
			if _, err := s.rescoreUserWithState(ctx, user.ID, state); err != nil {
				return rescored, fmt.Errorf("rescore failed for user %d: %w", user.ID, err)
			}
			rescored++
		}
		if len(users) < pageSize {
			break
		}
	}
	return rescored, nil
}
