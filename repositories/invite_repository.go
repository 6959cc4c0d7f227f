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
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteTokenConflict = errors.New("invite token conflict")
	ErrInviteSquadInvalid  = errors.New("invite squad conflict or invalid")
)

// InviteRepository определяет интерфейс для работы с приглашениями в клубы.
type InviteRepository interface {
	// Create создает новое приглашение в базе данных.
	// Заполняет поля ID и CreatedAt у переданного объекта invite.
	Create(ctx context.Context, invite *models.Invite) error

	// GetByToken ищет приглашение по его уникальному токену.
	GetByToken(ctx context.Context, token string) (*models.Invite, error)

	// ListBySquadID возвращает список приглашений клуба, сначала самые новые.
	ListBySquadID(ctx context.Context, squadID int) ([]*models.Invite, error)

	// Delete удаляет приглашение по его ID.
	Delete(ctx context.Context, id int) error

	// DeleteExpired удаляет все приглашения с истекшим сроком действия.
	// Возвращает количество удаленных приглашений.
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	// ExpiresAt устанавливается в сервисном слое перед вызовом Create.
	query := `
		INSERT INTO invites (squad_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.SquadID,
		invite.Token,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "invites_token_key" {
					return ErrInviteTokenConflict
				}
			case "23503": // foreign_key_violation
				return ErrInviteSquadInvalid
			}
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}

	return nil
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `
		SELECT id, squad_id, token, expires_at, created_at
		FROM invites
		WHERE token = $1`

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&invite.ID,
		&invite.SquadID,
		&invite.Token,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	// Проверка срока действия выполняется в сервисном слое,
	// репозиторий просто возвращает найденные данные.
	return invite, nil
}

func (r *postgresInviteRepository) ListBySquadID(ctx context.Context, squadID int) ([]*models.Invite, error) {
	query := `
		SELECT id, squad_id, token, expires_at, created_at
		FROM invites
		WHERE squad_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, squadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		var invite models.Invite
		if scanErr := rows.Scan(
			&invite.ID,
			&invite.SquadID,
			&invite.Token,
			&invite.ExpiresAt,
			&invite.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, &invite)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return invites, nil
}

func (r *postgresInviteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM invites WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM invites WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return rowsAffected, nil
}
