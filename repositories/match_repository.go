package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchNumberConflict = errors.New("match number conflict")
	ErrMatchTeamInvalid    = errors.New("match references unknown team")
)

// MatchFilter задает необязательные условия выборки матчей.
type MatchFilter struct {
	Round         *models.MatchRound
	GroupLetter   *string
	Status        *models.MatchStatus
	KickoffBefore *time.Time
}

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByNumber(ctx context.Context, matchNumber int) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int, winnerTeamID *int, status models.MatchStatus) error
	ClearResult(ctx context.Context, exec SQLExecutor, id int) error
	UpdateTeams(ctx context.Context, exec SQLExecutor, id int, homeTeamID, awayTeamID *int) error
	UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID *int) error
	MarkInProgressDue(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.MatchStatus) (int, error)
	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, match_number, round, group_letter, home_team_id, away_team_id,
	home_slot, away_slot, kickoff_time, home_score, away_score, winner_team_id, status, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.MatchNumber,
		&m.Round,
		&m.GroupLetter,
		&m.HomeTeamID,
		&m.AwayTeamID,
		&m.HomeSlot,
		&m.AwaySlot,
		&m.KickoffTime,
		&m.HomeScore,
		&m.AwayScore,
		&m.WinnerTeamID,
		&m.Status,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (match_number, round, group_letter, home_team_id, away_team_id,
			home_slot, away_slot, kickoff_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	for _, m := range matches {
		err := executor.QueryRowContext(ctx, query,
			m.MatchNumber,
			m.Round,
			m.GroupLetter,
			m.HomeTeamID,
			m.AwayTeamID,
			m.HomeSlot,
			m.AwaySlot,
			m.KickoffTime,
			m.Status,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				switch pqErr.Code {
				case "23505":
					if pqErr.Constraint == "matches_match_number_key" {
						return ErrMatchNumberConflict
					}
				case "23503":
					return ErrMatchTeamInvalid
				}
			}
			return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByNumber(ctx context.Context, matchNumber int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_number = $1`

	match := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, matchNumber), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by number %d: %w", matchNumber, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches`)

	args := make([]interface{}, 0)
	conditions := make([]string, 0)
	placeholderIndex := 1

	if filter.Round != nil {
		conditions = append(conditions, fmt.Sprintf("round = $%d", placeholderIndex))
		args = append(args, *filter.Round)
		placeholderIndex++
	}
	if filter.GroupLetter != nil {
		conditions = append(conditions, fmt.Sprintf("group_letter = $%d", placeholderIndex))
		args = append(args, *filter.GroupLetter)
		placeholderIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.KickoffBefore != nil {
		conditions = append(conditions, fmt.Sprintf("kickoff_time <= $%d", placeholderIndex))
		args = append(args, *filter.KickoffBefore)
		placeholderIndex++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY match_number")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int, winnerTeamID *int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET home_score = $1, away_score = $2, winner_team_id = $3, status = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, homeScore, awayScore, winnerTeamID, status, id)
	if err != nil {
		return fmt.Errorf("failed to update result for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ClearResult(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET home_score = NULL, away_score = NULL, winner_team_id = NULL, status = $1
		WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, models.MatchStatusScheduled, id)
	if err != nil {
		return fmt.Errorf("failed to clear result for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, id int, homeTeamID, awayTeamID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET home_team_id = $1, away_team_id = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, homeTeamID, awayTeamID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchTeamInvalid
		}
		return fmt.Errorf("failed to update teams for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET winner_team_id = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, winnerTeamID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchTeamInvalid
		}
		return fmt.Errorf("failed to update winner for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// MarkInProgressDue переводит запланированные матчи с наступившим началом в in_progress.
func (r *postgresMatchRepository) MarkInProgressDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE matches
		SET status = $1
		WHERE status = $2 AND kickoff_time <= $3`

	result, err := r.db.ExecContext(ctx, query, models.MatchStatusInProgress, models.MatchStatusScheduled, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark due matches in progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected, nil
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches by status: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}
