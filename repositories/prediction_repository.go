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
	ErrPredictionNotFound     = errors.New("prediction not found")
	ErrPredictionUserInvalid  = errors.New("prediction references unknown user")
	ErrPredictionMatchInvalid = errors.New("prediction references unknown match")
)

type PredictionRepository interface {
	Upsert(ctx context.Context, prediction *models.Prediction) error
	GetByUserAndMatch(ctx context.Context, userID, matchID int) (*models.Prediction, error)
	ListByUser(ctx context.Context, userID int) ([]models.Prediction, error)
	ListUserIDsByMatches(ctx context.Context, matchIDs []int) ([]int, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, points int, status models.PredictionScoreStatus) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	Count(ctx context.Context) (int, error)
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

func (r *postgresPredictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert вставляет прогноз или обновляет существующий для пары (user, match).
// Начисленные очки при обновлении сбрасываются до следующего пересчета.
func (r *postgresPredictionRepository) Upsert(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (user_id, match_id, home_score, away_score, outcome, winner_team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, match_id) DO UPDATE
		SET home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			outcome = EXCLUDED.outcome,
			winner_team_id = EXCLUDED.winner_team_id,
			points_earned = 0,
			score_status = $7,
			updated_at = NOW()
		RETURNING id, points_earned, score_status, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		prediction.UserID,
		prediction.MatchID,
		prediction.HomeScore,
		prediction.AwayScore,
		prediction.Outcome,
		prediction.WinnerTeamID,
		models.PredictionScorePending,
	).Scan(
		&prediction.ID,
		&prediction.PointsEarned,
		&prediction.ScoreStatus,
		&prediction.CreatedAt,
		&prediction.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "predictions_user_id_fkey":
				return ErrPredictionUserInvalid
			case "predictions_match_id_fkey":
				return ErrPredictionMatchInvalid
			}
		}
		return fmt.Errorf("failed to upsert prediction: %w", err)
	}
	return nil
}

const predictionColumns = `id, user_id, match_id, home_score, away_score, outcome,
	winner_team_id, points_earned, score_status, created_at, updated_at`

func scanPrediction(row rowScanner, p *models.Prediction) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.MatchID,
		&p.HomeScore,
		&p.AwayScore,
		&p.Outcome,
		&p.WinnerTeamID,
		&p.PointsEarned,
		&p.ScoreStatus,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresPredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID int) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE user_id = $1 AND match_id = $2`

	prediction := &models.Prediction{}
	if err := scanPrediction(r.db.QueryRowContext(ctx, query, userID, matchID), prediction); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return prediction, nil
}

func (r *postgresPredictionRepository) ListByUser(ctx context.Context, userID int) ([]models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE user_id = $1
		ORDER BY match_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for user %d: %w", userID, err)
	}
	defer rows.Close()

	predictions := make([]models.Prediction, 0)
	for rows.Next() {
		var p models.Prediction
		if err := scanPrediction(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction rows: %w", err)
	}
	return predictions, nil
}

// ListUserIDsByMatches возвращает пользователей с прогнозом хотя бы на один из матчей.
func (r *postgresPredictionRepository) ListUserIDsByMatches(ctx context.Context, matchIDs []int) ([]int, error) {
	if len(matchIDs) == 0 {
		return []int{}, nil
	}
	query := `SELECT DISTINCT user_id FROM predictions WHERE match_id = ANY($1) ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list users for %d matches: %w", len(matchIDs), err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user id rows: %w", err)
	}
	return ids, nil
}

func (r *postgresPredictionRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, points int, status models.PredictionScoreStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE predictions SET points_earned = $1, score_status = $2, updated_at = NOW() WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, points, status, id)
	if err != nil {
		return fmt.Errorf("failed to update score for prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPredictionNotFound)
}

func (r *postgresPredictionRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM predictions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete predictions for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresPredictionRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM predictions`); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}

func (r *postgresPredictionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}
