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
	ErrSquadNotFound       = errors.New("squad not found")
	ErrSquadNameConflict   = errors.New("squad name conflict")
	ErrSquadMemberConflict = errors.New("user already in squad")
	ErrSquadMemberNotFound = errors.New("squad member not found")
	ErrSquadOwnerInvalid   = errors.New("squad owner invalid")
)

// SquadRepository управляет клубами болельщиков и их составами.
type SquadRepository interface {
	Create(ctx context.Context, squad *models.Squad) error
	GetByID(ctx context.Context, id int) (*models.Squad, error)
	List(ctx context.Context) ([]models.Squad, error)
	Rename(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, exec SQLExecutor, squadID, userID int) error
	RemoveMember(ctx context.Context, squadID, userID int) error
	ListMembers(ctx context.Context, squadID int) ([]models.SquadMember, error)
	GetSquadIDByUser(ctx context.Context, userID int) (int, error)
}

type postgresSquadRepository struct {
	db *sql.DB
}

func NewPostgresSquadRepository(db *sql.DB) SquadRepository {
	return &postgresSquadRepository{db: db}
}

func (r *postgresSquadRepository) Create(ctx context.Context, squad *models.Squad) error {
	query := `
		INSERT INTO squads (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, squad.Name, squad.OwnerID).
		Scan(&squad.ID, &squad.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "squads_name_key" {
					return ErrSquadNameConflict
				}
			case "23503":
				return ErrSquadOwnerInvalid
			}
		}
		return fmt.Errorf("failed to create squad: %w", err)
	}
	return nil
}

func (r *postgresSquadRepository) GetByID(ctx context.Context, id int) (*models.Squad, error) {
	query := `SELECT id, name, owner_id, created_at FROM squads WHERE id = $1`

	squad := &models.Squad{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&squad.ID, &squad.Name, &squad.OwnerID, &squad.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to get squad by id %d: %w", id, err)
	}
	return squad, nil
}

func (r *postgresSquadRepository) List(ctx context.Context) ([]models.Squad, error) {
	query := `SELECT id, name, owner_id, created_at FROM squads ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	defer rows.Close()

	squads := make([]models.Squad, 0)
	for rows.Next() {
		var squad models.Squad
		if err := rows.Scan(&squad.ID, &squad.Name, &squad.OwnerID, &squad.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan squad row: %w", err)
		}
		squads = append(squads, squad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating squad rows: %w", err)
	}
	return squads, nil
}

func (r *postgresSquadRepository) Rename(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE squads SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "squads_name_key" {
				return ErrSquadNameConflict
			}
		}
		return fmt.Errorf("failed to rename squad %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresSquadRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM squads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete squad %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresSquadRepository) AddMember(ctx context.Context, exec SQLExecutor, squadID, userID int) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := `INSERT INTO squad_members (squad_id, user_id) VALUES ($1, $2)`

	if _, err := executor.ExecContext(ctx, query, squadID, userID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrSquadMemberConflict
			case "23503":
				return ErrSquadNotFound
			}
		}
		return fmt.Errorf("failed to add user %d to squad %d: %w", userID, squadID, err)
	}
	return nil
}

func (r *postgresSquadRepository) RemoveMember(ctx context.Context, squadID, userID int) error {
	query := `DELETE FROM squad_members WHERE squad_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, squadID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user %d from squad %d: %w", userID, squadID, err)
	}
	return checkAffectedRows(result, ErrSquadMemberNotFound)
}

// ListMembers возвращает состав клуба вместе с суммой очков каждого участника.
func (r *postgresSquadRepository) ListMembers(ctx context.Context, squadID int) ([]models.SquadMember, error) {
	query := `
		SELECT u.id, u.nickname, COALESCE(SUM(p.points_earned), 0) AS points, sm.joined_at
		FROM squad_members sm
		JOIN users u ON u.id = sm.user_id
		LEFT JOIN predictions p ON p.user_id = u.id
		WHERE sm.squad_id = $1
		GROUP BY u.id, u.nickname, sm.joined_at
		ORDER BY points DESC, u.id`

	rows, err := r.db.QueryContext(ctx, query, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of squad %d: %w", squadID, err)
	}
	defer rows.Close()

	members := make([]models.SquadMember, 0)
	for rows.Next() {
		var member models.SquadMember
		if err := rows.Scan(&member.UserID, &member.Nickname, &member.Points, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

// GetSquadIDByUser возвращает клуб пользователя. Пользователь состоит максимум в одном клубе.
func (r *postgresSquadRepository) GetSquadIDByUser(ctx context.Context, userID int) (int, error) {
	var squadID int
	err := r.db.QueryRowContext(ctx, `SELECT squad_id FROM squad_members WHERE user_id = $1`, userID).
		Scan(&squadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSquadMemberNotFound
		}
		return 0, fmt.Errorf("failed to get squad for user %d: %w", userID, err)
	}
	return squadID, nil
}
