package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
	"golang.org/x/sync/errgroup"
)

const (
	BracketSourceOfficial = "official"
	BracketSourceMine     = "mine"
)

// BracketView показывает сетку турнира глазами одного источника
// результатов: официального или собственных прогнозов пользователя.
type BracketView struct {
	Source     string                             `json:"source"`
	Standings  map[string][]brackets.TeamStanding `json:"standings"`
	ThirdPlace []brackets.ThirdPlaceEntry         `json:"third_place,omitempty"`
	Knockout   []*brackets.ResolvedMatch          `json:"knockout"`
	Champion   *models.Team                       `json:"champion,omitempty"`

	// Predictions по номерам матчей: прогнозы автора запроса с разбором
	// очков. Заполняется только для аутентифицированных запросов.
	Predictions map[int]PredictionSummary `json:"predictions,omitempty"`
}

// PredictionSummary прикладывает к матчу прогноз пользователя и разбор
// начисленных за него очков.
type PredictionSummary struct {
	Prediction *models.Prediction      `json:"prediction"`
	Breakdown  brackets.ScoreBreakdown `json:"breakdown"`
}

type BracketService interface {
	GetBracket(ctx context.Context, userID int, source string) (*BracketView, error)
	GetStandings(ctx context.Context, userID int, source, group string) (map[string][]brackets.TeamStanding, error)
}

type bracketViewService struct {
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	thirdPlaceRepo repositories.ThirdPlacePickRepository
	uploader       storage.FileUploader
}

func NewBracketService(
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	thirdPlaceRepo repositories.ThirdPlacePickRepository,
	uploader storage.FileUploader,
) BracketService {
	return &bracketViewService{
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		thirdPlaceRepo: thirdPlaceRepo,
		uploader:       uploader,
	}
}

// load собирает все входы сетки параллельно. Прогнозы и ручной порядок
// третьих мест загружаются только для аутентифицированных запросов.
func (s *bracketViewService) load(ctx context.Context, userID int, source string) (*tournamentState, []models.Prediction, []int, error) {
	if source != BracketSourceOfficial && source != BracketSourceMine {
		return nil, nil, nil, fmt.Errorf("%w: unknown source %q", ErrValidationFailed, source)
	}

	var (
		teams       []models.Team
		matches     []models.Match
		predictions []models.Prediction
		picks       []models.ThirdPlacePick
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, repositories.MatchFilter{})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		return nil
	})

	if userID != 0 {
		g.Go(func() error {
			var err error
			predictions, err = s.predictionRepo.ListByUser(gCtx, userID)
			if err != nil {
				return fmt.Errorf("failed to load predictions for user %d: %w", userID, err)
			}
			return nil
		})

		g.Go(func() error {
			var err error
			picks, err = s.thirdPlaceRepo.ListByUser(gCtx, userID)
			if err != nil {
				return fmt.Errorf("failed to load third place picks for user %d: %w", userID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, nil, ErrScheduleMissing
	}

	topology, err := tournamentTopology(teams)
	if err != nil {
		return nil, nil, nil, err
	}

	populateTeamListCrests(teams, s.uploader)

	pointers := matchesToPointers(matches)
	byID := make(map[int]*models.Match, len(pointers))
	byNumber := make(map[int]*models.Match, len(pointers))
	for _, m := range pointers {
		byID[m.ID] = m
		byNumber[m.MatchNumber] = m
	}
	state := &tournamentState{
		teams:    teams,
		topology: topology,
		matches:  pointers,
		byID:     byID,
		byNumber: byNumber,
	}

	manualOrder := make([]int, 0, len(picks))
	for _, pick := range picks {
		manualOrder = append(manualOrder, pick.TeamID)
	}
	return state, predictions, manualOrder, nil
}

func resolveState(state *tournamentState, source brackets.ResultSource, manualOrder []int) *brackets.BracketResolution {
	return brackets.ResolveBracket(brackets.ResolveParams{
		Topology:         state.topology,
		Teams:            state.teams,
		Matches:          state.matches,
		Source:           source,
		ManualThirdOrder: manualOrder,
	})
}

func (s *bracketViewService) GetBracket(ctx context.Context, userID int, source string) (*BracketView, error) {
	state, predictions, manualOrder, err := s.load(ctx, userID, source)
	if err != nil {
		return nil, err
	}
	predictionPtrs := predictionsToPointers(predictions)

	// Собственная сетка пользователя нужна и официальному представлению:
	// разбор очков за плей-офф сверяет ее пары с реальными.
	var userResolution *brackets.BracketResolution
	if userID != 0 && len(predictionPtrs) > 0 {
		userResolution = resolveState(state, brackets.NewPredictionResults(predictionPtrs), manualOrder)
	}

	var resolution *brackets.BracketResolution
	switch {
	case source == BracketSourceOfficial:
		resolution = resolveState(state, brackets.OfficialResults{}, nil)
	case userResolution != nil:
		resolution = userResolution
	default:
		// source=mine без единого прогноза: пустая сетка той же формы.
		resolution = resolveState(state, brackets.NewPredictionResults(nil), manualOrder)
	}

	numbers := make([]int, 0, len(resolution.Matches))
	for number := range resolution.Matches {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	knockout := make([]*brackets.ResolvedMatch, 0, len(numbers))
	for _, number := range numbers {
		knockout = append(knockout, resolution.Matches[number])
	}

	view := &BracketView{
		Source:     source,
		Standings:  resolution.Standings,
		ThirdPlace: resolution.ThirdPlace,
		Knockout:   knockout,
		Champion:   resolution.Champion,
	}
	if len(predictionPtrs) > 0 {
		view.Predictions = predictionSummaries(state, userResolution, predictionPtrs)
	}
	return view, nil
}

func predictionSummaries(state *tournamentState, userResolution *brackets.BracketResolution, predictions []*models.Prediction) map[int]PredictionSummary {
	summaries := make(map[int]PredictionSummary, len(predictions))
	for _, prediction := range predictions {
		match, ok := state.byID[prediction.MatchID]
		if !ok {
			continue
		}
		var predictedHome, predictedAway *models.Team
		if match.Round.IsKnockout() && userResolution != nil {
			predictedHome, predictedAway = userResolution.PredictedPair(match.MatchNumber)
		}
		summaries[match.MatchNumber] = PredictionSummary{
			Prediction: prediction,
			Breakdown:  brackets.ScorePrediction(prediction, match, predictedHome, predictedAway),
		}
	}
	return summaries
}

// GetStandings отдает групповые таблицы. Пустой group означает все группы.
func (s *bracketViewService) GetStandings(ctx context.Context, userID int, source, group string) (map[string][]brackets.TeamStanding, error) {
	state, predictions, _, err := s.load(ctx, userID, source)
	if err != nil {
		return nil, err
	}

	var resultSource brackets.ResultSource = brackets.OfficialResults{}
	if source == BracketSourceMine {
		resultSource = brackets.NewPredictionResults(predictionsToPointers(predictions))
	}

	if group != "" {
		group = strings.ToUpper(strings.TrimSpace(group))
		known := false
		for _, g := range state.topology.Groups {
			if g == group {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: unknown group %q", ErrValidationFailed, group)
		}
		return map[string][]brackets.TeamStanding{
			group: brackets.ComputeGroupStandings(group, state.teams, state.matches, resultSource),
		}, nil
	}

	return brackets.ComputeAllStandings(state.topology.Groups, state.teams, state.matches, resultSource), nil
}
