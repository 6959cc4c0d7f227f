package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type BootstrapInput struct {
	FirstKickoff time.Time     `json:"first_kickoff"`
	MatchSpacing time.Duration `json:"-"`
	Force        bool          `json:"force"`
}

type BootstrapResult struct {
	Groups       int `json:"groups"`
	Teams        int `json:"teams"`
	TotalMatches int `json:"total_matches"`
	GroupMatches int `json:"group_matches"`
}

// SetupService отвечает за администрирование турнира целиком: генерацию
// расписания, массовую загрузку сборных и прогон симуляции.
type SetupService interface {
	Bootstrap(ctx context.Context, input BootstrapInput) (*BootstrapResult, error)
	ImportTeamsCSV(ctx context.Context, r io.Reader) (int, error)
	ImportResultsCSV(ctx context.Context, r io.Reader) (int, error)
	ExportMatchesCSV(ctx context.Context, w io.Writer) error
	SimulateRemaining(ctx context.Context, seed int64) (int, error)
}

type setupService struct {
	db             *sql.DB
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	matchService   MatchService
	logger         *slog.Logger
}

func NewSetupService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	matchService MatchService,
	logger *slog.Logger,
) SetupService {
	return &setupService{
		db:             db,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		matchService:   matchService,
		logger:         logger,
	}
}

// Bootstrap строит полное расписание турнира из распределения сборных по
// группам: групповой этап по турам и скелет плей-офф со слотами. Повторный
// вызов без force отклоняется, с force стирает расписание вместе с прогнозами.
func (s *setupService) Bootstrap(ctx context.Context, input BootstrapInput) (*BootstrapResult, error) {
	if input.FirstKickoff.IsZero() {
		return nil, fmt.Errorf("%w: first kickoff time is required", ErrValidationFailed)
	}

	existing, err := s.matchRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if existing > 0 && !input.Force {
		return nil, ErrScheduleExists
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	topology, err := tournamentTopology(teams)
	if err != nil {
		return nil, err
	}

	matches, err := topology.Schedule(brackets.ScheduleParams{
		Rosters:      rostersFromTeams(teams),
		FirstKickoff: input.FirstKickoff,
		MatchSpacing: input.MatchSpacing,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	if existing > 0 {
		if err := s.predictionRepo.DeleteAll(ctx, tx); err != nil {
			return nil, err
		}
		if err := s.matchRepo.DeleteAll(ctx, tx); err != nil {
			return nil, err
		}
	}
	if err := s.matchRepo.CreateBatch(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to insert schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedule: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament schedule generated",
		slog.Int("groups", len(topology.Groups)),
		slog.Int("teams", len(teams)),
		slog.Int("matches", topology.TotalMatches))

	return &BootstrapResult{
		Groups:       len(topology.Groups),
		Teams:        len(teams),
		TotalMatches: topology.TotalMatches,
		GroupMatches: topology.GroupMatches,
	}, nil
}

// ImportTeamsCSV загружает сборные из CSV вида name,code,group. Строка
// заголовка опциональна. Загрузка атомарна: любая ошибка откатывает все.
func (s *setupService) ImportTeamsCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("%w: malformed csv: %w", ErrValidationFailed, err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: csv is empty", ErrValidationFailed)
	}

	if strings.EqualFold(records[0][0], "name") {
		records = records[1:]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for i, record := range records {
		name := strings.TrimSpace(record[0])
		code := strings.ToUpper(strings.TrimSpace(record[1]))
		group := strings.ToUpper(strings.TrimSpace(record[2]))

		if name == "" || code == "" {
			return 0, fmt.Errorf("%w: row %d needs both name and code", ErrValidationFailed, i+1)
		}

		team := &models.Team{Name: name, Code: code}
		if group != "" {
			team.GroupLetter = &group
		}

		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamCodeConflict) {
				return 0, fmt.Errorf("%w: duplicate code %s at row %d", ErrTeamCodeConflict, code, i+1)
			}
			return 0, fmt.Errorf("failed to import row %d: %w", i+1, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit team import: %w", err)
	}
	return imported, nil
}

// ImportResultsCSV вводит результаты из CSV вида
// match_number,home_score,away_score,penalty_winner. Строка заголовка
// опциональна, четвертая колонка содержит код сборной и нужна только для
// ничьих плей-офф. Каждая строка проходит тот же конвейер, что и ручной ввод
// результата, поэтому импорт останавливается на первой некорректной строке.
func (s *setupService) ImportResultsCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("%w: malformed csv: %w", ErrValidationFailed, err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: csv is empty", ErrValidationFailed)
	}

	if strings.EqualFold(records[0][0], "match_number") {
		records = records[1:]
	}

	applied := 0
	for i, record := range records {
		if len(record) < 3 || len(record) > 4 {
			return applied, fmt.Errorf("%w: row %d needs match_number,home_score,away_score[,penalty_winner]", ErrValidationFailed, i+1)
		}

		number, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return applied, fmt.Errorf("%w: row %d has an invalid match number", ErrValidationFailed, i+1)
		}
		homeScore, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return applied, fmt.Errorf("%w: row %d has an invalid home score", ErrValidationFailed, i+1)
		}
		awayScore, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return applied, fmt.Errorf("%w: row %d has an invalid away score", ErrValidationFailed, i+1)
		}

		input := ResultInput{HomeScore: homeScore, AwayScore: awayScore}
		if len(record) == 4 {
			if code := strings.ToUpper(strings.TrimSpace(record[3])); code != "" {
				team, err := s.teamRepo.GetByCode(ctx, code)
				if err != nil {
					if errors.Is(err, repositories.ErrTeamNotFound) {
						return applied, fmt.Errorf("%w: row %d names unknown team %s", ErrValidationFailed, i+1, code)
					}
					return applied, fmt.Errorf("failed to resolve team %s at row %d: %w", code, i+1, err)
				}
				input.WinnerTeamID = &team.ID
			}
		}

		if _, err := s.matchService.SubmitResult(ctx, number, input); err != nil {
			return applied, fmt.Errorf("import failed at row %d (match %d): %w", i+1, number, err)
		}
		applied++
	}
	return applied, nil
}

// ExportMatchesCSV выгружает расписание с результатами. Для нерешенных пар
// плей-офф вместо кода сборной пишется код слота.
func (s *setupService) ExportMatchesCSV(ctx context.Context, w io.Writer) error {
	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{})
	if err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load teams: %w", err)
	}
	codeByID := make(map[int]string, len(teams))
	for _, team := range teams {
		codeByID[team.ID] = team.Code
	}

	side := func(teamID *int, slot *string) string {
		if teamID != nil {
			return codeByID[*teamID]
		}
		return derefString(slot)
	}
	score := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"match_number", "round", "group", "home", "away", "home_score", "away_score", "winner", "status", "kickoff"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, m := range matches {
		winner := ""
		if m.WinnerTeamID != nil {
			winner = codeByID[*m.WinnerTeamID]
		}
		record := []string{
			strconv.Itoa(m.MatchNumber),
			string(m.Round),
			derefString(m.GroupLetter),
			side(m.HomeTeamID, m.HomeSlot),
			side(m.AwayTeamID, m.AwaySlot),
			score(m.HomeScore),
			score(m.AwayScore),
			winner,
			string(m.Status),
			m.KickoffTime.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for match %d: %w", m.MatchNumber, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SimulateRemaining доигрывает турнир случайными результатами. Матчи
// закрываются в порядке номеров, чтобы плей-офф материализовался по ходу.
func (s *setupService) SimulateRemaining(ctx context.Context, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	simulated := 0

	for pass := 0; ; pass++ {
		matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{})
		if err != nil {
			return simulated, fmt.Errorf("failed to load matches: %w", err)
		}
		if len(matches) == 0 {
			return 0, ErrScheduleMissing
		}

		progressed := false
		for _, m := range matches {
			if m.HasResult() || m.HomeTeamID == nil || m.AwayTeamID == nil {
				continue
			}

			input := ResultInput{
				HomeScore: rng.Intn(5),
				AwayScore: rng.Intn(5),
			}
			if m.Round.IsKnockout() && input.HomeScore == input.AwayScore {
				if rng.Intn(2) == 0 {
					input.WinnerTeamID = m.HomeTeamID
				} else {
					input.WinnerTeamID = m.AwayTeamID
				}
			}

			if _, err := s.matchService.SubmitResult(ctx, m.MatchNumber, input); err != nil {
				return simulated, fmt.Errorf("simulation failed at match %d: %w", m.MatchNumber, err)
			}
			simulated++
			progressed = true
		}

		if !progressed {
			break
		}
	}
	return simulated, nil
}
