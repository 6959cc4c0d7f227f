package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
)

type ResultInput struct {
	HomeScore    int  `json:"home_score"`
	AwayScore    int  `json:"away_score"`
	WinnerTeamID *int `json:"winner_team_id"`
}

type MatchService interface {
	List(ctx context.Context, round *models.MatchRound, group *string) ([]models.Match, error)
	GetByNumber(ctx context.Context, matchNumber int) (*models.Match, error)
	SubmitResult(ctx context.Context, matchNumber int, input ResultInput) (*models.Match, error)
	SetPenaltyWinner(ctx context.Context, matchNumber, winnerTeamID int) (*models.Match, error)
	Reopen(ctx context.Context, matchNumber int) (*models.Match, error)
	MarkDueInProgress(ctx context.Context) (int64, error)
}

type matchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	scoringService ScoringService
	hub            *brackets.Hub
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	scoringService ScoringService,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		scoringService: scoringService,
		hub:            hub,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *matchService) List(ctx context.Context, round *models.MatchRound, group *string) ([]models.Match, error) {
	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{Round: round, GroupLetter: group})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	populateTeamListCrests(teams, s.uploader)
	teamsByID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	for i := range matches {
		hydrateMatchTeams(&matches[i], teamsByID)
	}
	return matches, nil
}

func (s *matchService) GetByNumber(ctx context.Context, matchNumber int) (*models.Match, error) {
	match, err := s.matchRepo.GetByNumber(ctx, matchNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchNumber, err)
	}
	s.hydrateSingle(ctx, match)
	return match, nil
}

func (s *matchService) hydrateSingle(ctx context.Context, match *models.Match) {
	load := func(id *int) *models.Team {
		if id == nil {
			return nil
		}
		team, err := s.teamRepo.GetByID(ctx, *id)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to hydrate match team",
				slog.Int("match_id", match.ID), slog.Int("team_id", *id), slog.Any("error", err))
			return nil
		}
		populateTeamCrestURL(team, s.uploader)
		return team
	}
	match.HomeTeam = load(match.HomeTeamID)
	match.AwayTeam = load(match.AwayTeamID)
}

func hydrateMatchTeams(match *models.Match, teamsByID map[int]*models.Team) {
	if match.HomeTeamID != nil {
		match.HomeTeam = teamsByID[*match.HomeTeamID]
	}
	if match.AwayTeamID != nil {
		match.AwayTeam = teamsByID[*match.AwayTeamID]
	}
}

// teamAssignment фиксирует пересчитанную пару одного матча плей-офф.
type teamAssignment struct {
	matchID int
	home    *int
	away    *int
}

// recomputeAssignments разрешает официальную сетку с нуля поверх переданных
// строк и возвращает расхождения с сохраненными парами. Материализованные
// команды при пересчете не учитываются, иначе снятый результат оставлял бы
// устаревшие пары ниже по сетке.
func recomputeAssignments(state *tournamentState, mutated *models.Match) []teamAssignment {
	copies := make([]*models.Match, len(state.matches))
	for i, m := range state.matches {
		c := *m
		if mutated != nil && m.ID == mutated.ID {
			c = *mutated
		}
		if c.Round.IsKnockout() {
			c.HomeTeamID, c.AwayTeamID = nil, nil
		}
		copies[i] = &c
	}

	resolution := brackets.ResolveBracket(brackets.ResolveParams{
		Topology: state.topology,
		Teams:    state.teams,
		Matches:  copies,
		Source:   brackets.OfficialResults{},
	})

	assignments := make([]teamAssignment, 0)
	for number, rm := range resolution.Matches {
		stored := state.byNumber[number]
		if stored == nil {
			continue
		}
		var wantHome, wantAway *int
		if rm.HomeTeam != nil {
			wantHome = &rm.HomeTeam.ID
		}
		if rm.AwayTeam != nil {
			wantAway = &rm.AwayTeam.ID
		}
		if intPtrEqual(stored.HomeTeamID, wantHome) && intPtrEqual(stored.AwayTeamID, wantAway) {
			continue
		}
		assignments = append(assignments, teamAssignment{matchID: stored.ID, home: wantHome, away: wantAway})
	}
	return assignments
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *matchService) SubmitResult(ctx context.Context, matchNumber int, input ResultInput) (*models.Match, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, ErrScoresInvalid
	}

	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return nil, err
	}

	match := state.byNumber[matchNumber]
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.Round.IsKnockout() {
		if match.HomeTeamID == nil || match.AwayTeamID == nil {
			return nil, fmt.Errorf("%w: match pairing is not decided yet", ErrValidationFailed)
		}
		if input.WinnerTeamID != nil {
			if *input.WinnerTeamID != *match.HomeTeamID && *input.WinnerTeamID != *match.AwayTeamID {
				return nil, ErrMatchWinnerInvalid
			}
			if input.HomeScore != input.AwayScore {
				// При решающем счете победитель следует из него.
				input.WinnerTeamID = nil
			}
		}
	} else if input.WinnerTeamID != nil {
		return nil, ErrWinnerPickNotAllowed
	}

	updated := *match
	updated.HomeScore = &input.HomeScore
	updated.AwayScore = &input.AwayScore
	updated.WinnerTeamID = input.WinnerTeamID
	updated.Status = models.MatchStatusCompleted

	assignments := recomputeAssignments(state, &updated)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin result transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.UpdateResult(ctx, tx, match.ID, input.HomeScore, input.AwayScore, input.WinnerTeamID, models.MatchStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to store result for match %d: %w", matchNumber, err)
	}
	for _, a := range assignments {
		if err := s.matchRepo.UpdateTeams(ctx, tx, a.matchID, a.home, a.away); err != nil {
			return nil, fmt.Errorf("failed to propagate pairing to match %d: %w", a.matchID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit result for match %d: %w", matchNumber, err)
	}

	s.afterResultChange(ctx, &updated, assignments)
	return s.GetByNumber(ctx, matchNumber)
}

func (s *matchService) SetPenaltyWinner(ctx context.Context, matchNumber, winnerTeamID int) (*models.Match, error) {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return nil, err
	}

	match := state.byNumber[matchNumber]
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.Round.IsKnockout() {
		return nil, ErrWinnerPickNotAllowed
	}
	if !match.HasResult() {
		return nil, ErrMatchNotCompleted
	}
	if *match.HomeScore != *match.AwayScore {
		return nil, ErrMatchNotLevel
	}
	if match.HomeTeamID == nil || match.AwayTeamID == nil ||
		(winnerTeamID != *match.HomeTeamID && winnerTeamID != *match.AwayTeamID) {
		return nil, ErrMatchWinnerInvalid
	}

	updated := *match
	updated.WinnerTeamID = &winnerTeamID

	assignments := recomputeAssignments(state, &updated)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin winner transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.UpdateWinner(ctx, tx, match.ID, &winnerTeamID); err != nil {
		return nil, fmt.Errorf("failed to store winner for match %d: %w", matchNumber, err)
	}
	for _, a := range assignments {
		if err := s.matchRepo.UpdateTeams(ctx, tx, a.matchID, a.home, a.away); err != nil {
			return nil, fmt.Errorf("failed to propagate pairing to match %d: %w", a.matchID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit winner for match %d: %w", matchNumber, err)
	}

	s.afterResultChange(ctx, &updated, assignments)
	return s.GetByNumber(ctx, matchNumber)
}

// Reopen снимает результат матча. Зависящие от него пары плей-офф
// дематериализуются, прогнозы возвращаются в pending при пересчете.
func (s *matchService) Reopen(ctx context.Context, matchNumber int) (*models.Match, error) {
	state, err := loadTournamentState(ctx, s.teamRepo, s.matchRepo)
	if err != nil {
		return nil, err
	}

	match := state.byNumber[matchNumber]
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.HasResult() {
		return nil, ErrMatchNotCompleted
	}

	updated := *match
	updated.HomeScore = nil
	updated.AwayScore = nil
	updated.WinnerTeamID = nil
	updated.Status = models.MatchStatusScheduled

	assignments := recomputeAssignments(state, &updated)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reopen transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.ClearResult(ctx, tx, match.ID); err != nil {
		return nil, fmt.Errorf("failed to clear result for match %d: %w", matchNumber, err)
	}
	for _, a := range assignments {
		if err := s.matchRepo.UpdateTeams(ctx, tx, a.matchID, a.home, a.away); err != nil {
			return nil, fmt.Errorf("failed to propagate pairing to match %d: %w", a.matchID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reopen for match %d: %w", matchNumber, err)
	}

	s.afterResultChange(ctx, &updated, assignments)
	return s.GetByNumber(ctx, matchNumber)
}

// afterResultChange запускает пересчет затронутых пользователей и шлет
// события в комнату турнира. Ошибки пересчета логируются, уже сохраненный
// результат они не откатывают.
func (s *matchService) afterResultChange(ctx context.Context, match *models.Match, assignments []teamAssignment) {
	affected := make([]int, 0, len(assignments)+1)
	affected = append(affected, match.ID)
	for _, a := range assignments {
		affected = append(affected, a.matchID)
	}

	rescored, err := s.scoringService.RescoreUsersForMatches(ctx, affected)
	if err != nil {
		s.logger.ErrorContext(ctx, "rescore after result change failed",
			slog.Int("match_number", match.MatchNumber),
			slog.Any("error", err))
	}

	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(brackets.RoomTournament, brackets.Event{
		Type:    brackets.EventMatchResult,
		Payload: match,
	})
	if len(assignments) > 0 {
		changed := make([]int, 0, len(assignments))
		for _, a := range assignments {
			changed = append(changed, a.matchID)
		}
		s.hub.BroadcastToRoom(brackets.RoomTournament, brackets.Event{
			Type:    brackets.EventBracketUpdated,
			Payload: map[string]interface{}{"match_ids": changed},
		})
	}
	if rescored > 0 {
		s.hub.BroadcastToRoom(brackets.RoomTournament, brackets.Event{
			Type:    brackets.EventLeaderboardDirty,
			Payload: map[string]interface{}{"rescored_users": rescored},
		})
	}
}

// MarkDueInProgress переводит матчи с наступившим началом в in_progress.
// Вызывается фоновым планировщиком.
func (s *matchService) MarkDueInProgress(ctx context.Context) (int64, error) {
	return s.matchRepo.MarkInProgressDue(ctx, time.Now())
}
