package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-league/models"
)

var ErrLeaderboardUserNotFound = errors.New("user has no leaderboard entry")

// LeaderboardRepository считает таблицы лидеров по начисленным очкам.
type LeaderboardRepository interface {
	ListUsers(ctx context.Context, limit, offset int) ([]models.LeaderboardRow, error)
	GetUserRow(ctx context.Context, userID int) (*models.LeaderboardRow, error)
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
	ListSquads(ctx context.Context) ([]models.SquadLeaderboardRow, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

// Равные суммы делят место, ничьи разрешаются по нику для стабильного порядка строк.
const userLeaderboardCTE = `
	WITH totals AS (
		SELECT u.id AS user_id,
			u.nickname,
			COALESCE(SUM(p.points_earned), 0) AS points,
			COUNT(p.id) FILTER (WHERE p.score_status = 'scored' AND p.points_earned > 0) AS scored
		FROM users u
		LEFT JOIN predictions p ON p.user_id = u.id
		GROUP BY u.id, u.nickname
	),
	ranked AS (
		SELECT user_id, nickname, points, scored,
			RANK() OVER (ORDER BY points DESC) AS rank
		FROM totals
	)`

func (r *postgresLeaderboardRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.LeaderboardRow, error) {
	query := userLeaderboardCTE + `
	SELECT rank, user_id, nickname, points, scored
	FROM ranked
	ORDER BY rank, nickname
	LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanLeaderboardRows(rows)
}

func (r *postgresLeaderboardRepository) GetUserRow(ctx context.Context, userID int) (*models.LeaderboardRow, error) {
	query := userLeaderboardCTE + `
	SELECT rank, user_id, nickname, points, scored
	FROM ranked
	WHERE user_id = $1`

	row := &models.LeaderboardRow{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&row.Rank, &row.UserID, &row.Nickname, &row.Points, &row.Scored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaderboardUserNotFound
		}
		return nil, fmt.Errorf("failed to get leaderboard row for user %d: %w", userID, err)
	}
	return row, nil
}

func (r *postgresLeaderboardRepository) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	return r.ListUsers(ctx, limit, 0)
}

func (r *postgresLeaderboardRepository) ListSquads(ctx context.Context) ([]models.SquadLeaderboardRow, error) {
	query := `
	WITH squad_totals AS (
		SELECT s.id AS squad_id,
			s.name,
			COUNT(DISTINCT sm.user_id) AS members,
			COALESCE(SUM(p.points_earned), 0) AS points
		FROM squads s
		LEFT JOIN squad_members sm ON sm.squad_id = s.id
		LEFT JOIN predictions p ON p.user_id = sm.user_id
		GROUP BY s.id, s.name
	)
	SELECT RANK() OVER (ORDER BY points DESC) AS rank, squad_id, name, members, points
	FROM squad_totals
	ORDER BY rank, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query squad leaderboard: %w", err)
	}
	defer rows.Close()

	result := make([]models.SquadLeaderboardRow, 0)
	for rows.Next() {
		var row models.SquadLeaderboardRow
		if err := rows.Scan(&row.Rank, &row.SquadID, &row.Name, &row.Members, &row.Points); err != nil {
			return nil, fmt.Errorf("failed to scan squad leaderboard row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating squad leaderboard rows: %w", err)
	}
	return result, nil
}

func scanLeaderboardRows(rows *sql.Rows) ([]models.LeaderboardRow, error) {
	result := make([]models.LeaderboardRow, 0)
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.Rank, &row.UserID, &row.Nickname, &row.Points, &row.Scored); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return result, nil
}
