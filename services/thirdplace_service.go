package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

// ThirdPlaceBoard показывает пользователю автоматический рейтинг третьих
// мест и его собственный сохраненный порядок, если он есть.
type ThirdPlaceBoard struct {
	Ranking []brackets.ThirdPlaceEntry `json:"ranking"`
	Picks   []models.ThirdPlacePick    `json:"picks"`
}

type ThirdPlaceService interface {
	GetBoard(ctx context.Context, userID int) (*ThirdPlaceBoard, error)
	SavePicks(ctx context.Context, userID int, orderedTeamIDs []int) ([]models.ThirdPlacePick, error)
	ClearPicks(ctx context.Context, userID int) error
}

type thirdPlaceService struct {
	thirdPlaceRepo repositories.ThirdPlacePickRepository
	predictionRepo repositories.PredictionRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	scoringService ScoringService
	logger         *slog.Logger
}

func NewThirdPlaceService(
	thirdPlaceRepo repositories.ThirdPlacePickRepository,
	predictionRepo repositories.PredictionRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	scoringService ScoringService,
	logger *slog.Logger,
) ThirdPlaceService {
	return &thirdPlaceService{
		thirdPlaceRepo: thirdPlaceRepo,
		predictionRepo: predictionRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		scoringService: scoringService,
		logger:         logger,
	}
}

// userThirdRanking считает рейтинг третьих мест по сетке самого пользователя:
// его ручной порядок применяется к третьим строкам его же групповых таблиц.
func (s *thirdPlaceService) userThirdRanking(ctx context.Context, userID int) (*tournamentState, []brackets.ThirdPlaceEntry, error) {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return nil, nil, err
	}
	if state.topology.BestThirdSlots == 0 {
		return nil, nil, ErrThirdPicksUnavailable
	}

	predictions, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load predictions for user %d: %w", userID, err)
	}

	standings := brackets.ComputeAllStandings(
		state.topology.Groups,
		state.teams,
		state.matches,
		brackets.NewPredictionResults(predictionsToPointers(predictions)),
	)
	ranking := brackets.RankThirdPlaceTeams(standings, state.topology.Groups, state.topology.BestThirdSlots)
	return state, ranking, nil
}

func (s *thirdPlaceService) GetBoard(ctx context.Context, userID int) (*ThirdPlaceBoard, error) {
	_, ranking, err := s.userThirdRanking(ctx, userID)
	if err != nil {
		return nil, err
	}

	picks, err := s.thirdPlaceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load third place picks for user %d: %w", userID, err)
	}

	return &ThirdPlaceBoard{Ranking: ranking, Picks: picks}, nil
}

// SavePicks заменяет ручной порядок третьих мест пользователя. Порядок обязан
// быть перестановкой текущих кандидатов, иначе возвращается типизированная
// ошибка с перечнем лишних и недостающих сборных.
func (s *thirdPlaceService) SavePicks(ctx context.Context, userID int, orderedTeamIDs []int) ([]models.ThirdPlacePick, error) {
	state, ranking, err := s.userThirdRanking(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := brackets.ApplyManualThirdPlaceOrder(ranking, orderedTeamIDs, state.topology.BestThirdSlots); err != nil {
		return nil, err
	}

	picks := make([]*models.ThirdPlacePick, 0, len(orderedTeamIDs))
	for i, teamID := range orderedTeamIDs {
		picks = append(picks, &models.ThirdPlacePick{
			UserID:       userID,
			TeamID:       teamID,
			RankPosition: i + 1,
		})
	}

	if err := s.thirdPlaceRepo.ReplaceForUser(ctx, userID, picks); err != nil {
		return nil, fmt.Errorf("failed to save third place picks: %w", err)
	}

	// Смена порядка может пересадить третьих по другим местам сетки.
	if _, err := s.scoringService.RescoreUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "rescore after third place picks failed",
			slog.Int("user_id", userID), slog.Any("error", err))
	}

	saved := make([]models.ThirdPlacePick, len(picks))
	for i, p := range picks {
		saved[i] = *p
	}
	return saved, nil
}

func (s *thirdPlaceService) ClearPicks(ctx context.Context, userID int) error {
	if err := s.thirdPlaceRepo.DeleteForUser(ctx, nil, userID); err != nil {
		return err
	}
	if _, err := s.scoringService.RescoreUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "rescore after clearing third place picks failed",
			slog.Int("user_id", userID), slog.Any("error", err))
	}
	return nil
}
