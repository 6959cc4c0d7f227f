package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-league/models"
	"github.com/lib/pq"
)

var (
	ErrThirdPlacePickConflict    = errors.New("third place pick conflict")
	ErrThirdPlacePickTeamInvalid = errors.New("third place pick references unknown team")
)

// ThirdPlacePickRepository хранит ручной порядок третьих мест пользователя.
type ThirdPlacePickRepository interface {
	// ReplaceForUser атомарно заменяет весь порядок пользователя.
	ReplaceForUser(ctx context.Context, userID int, picks []*models.ThirdPlacePick) error
	ListByUser(ctx context.Context, userID int) ([]models.ThirdPlacePick, error)
	DeleteForUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresThirdPlacePickRepository struct {
	db *sql.DB
}

func NewPostgresThirdPlacePickRepository(db *sql.DB) ThirdPlacePickRepository {
	return &postgresThirdPlacePickRepository{db: db}
}

func (r *postgresThirdPlacePickRepository) ReplaceForUser(ctx context.Context, userID int, picks []*models.ThirdPlacePick) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM third_place_picks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear picks for user %d: %w", userID, err)
	}

	query := `
		INSERT INTO third_place_picks (user_id, team_id, rank_position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	for _, pick := range picks {
		err := tx.QueryRowContext(ctx, query, userID, pick.TeamID, pick.RankPosition).
			Scan(&pick.ID, &pick.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				switch pqErr.Code {
				case "23505":
					return ErrThirdPlacePickConflict
				case "23503":
					return ErrThirdPlacePickTeamInvalid
				}
			}
			return fmt.Errorf("failed to insert pick for team %d: %w", pick.TeamID, err)
		}
		pick.UserID = userID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit picks for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresThirdPlacePickRepository) ListByUser(ctx context.Context, userID int) ([]models.ThirdPlacePick, error) {
	query := `
		SELECT id, user_id, team_id, rank_position, created_at
		FROM third_place_picks
		WHERE user_id = $1
		ORDER BY rank_position`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks for user %d: %w", userID, err)
	}
	defer rows.Close()

	picks := make([]models.ThirdPlacePick, 0)
	for rows.Next() {
		var pick models.ThirdPlacePick
		if err := rows.Scan(&pick.ID, &pick.UserID, &pick.TeamID, &pick.RankPosition, &pick.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick row: %w", err)
		}
		picks = append(picks, pick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pick rows: %w", err)
	}
	return picks, nil
}

func (r *postgresThirdPlacePickRepository) DeleteForUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM third_place_picks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete picks for user %d: %w", userID, err)
	}
	return nil
}
