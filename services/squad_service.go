package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

const (
	inviteTokenLength = 16                 // Длина токена в байтах (32 символа в hex)
	inviteDuration    = 7 * 24 * time.Hour // Срок действия приглашения (7 дней)
	maxSquadNameLen   = 64
)

var ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")

type SquadInput struct {
	Name string `json:"name"`
}

// SquadService управляет клубами болельщиков: составом, приглашениями и
// правами владельца. Пользователь состоит максимум в одном клубе.
type SquadService interface {
	Create(ctx context.Context, ownerID int, input SquadInput) (*models.Squad, error)
	GetByID(ctx context.Context, squadID int) (*models.Squad, error)
	GetMine(ctx context.Context, userID int) (*models.Squad, error)
	List(ctx context.Context) ([]models.Squad, error)
	Rename(ctx context.Context, squadID, currentUserID int, input SquadInput) (*models.Squad, error)
	Delete(ctx context.Context, squadID, currentUserID int) error
	Leave(ctx context.Context, squadID, currentUserID int) error
	RemoveMember(ctx context.Context, squadID, memberID, currentUserID int) error

	CreateInvite(ctx context.Context, squadID, currentUserID int) (*models.Invite, error)
	ListInvites(ctx context.Context, squadID, currentUserID int) ([]models.Invite, error)
	RevokeInvite(ctx context.Context, squadID, inviteID, currentUserID int) error
	JoinByToken(ctx context.Context, token string, currentUserID int) (*models.Squad, error)
	CleanupExpiredInvites(ctx context.Context) (int64, error)
}

type squadService struct {
	squadRepo  repositories.SquadRepository
	inviteRepo repositories.InviteRepository
}

func NewSquadService(
	squadRepo repositories.SquadRepository,
	inviteRepo repositories.InviteRepository,
) SquadService {
	return &squadService{
		squadRepo:  squadRepo,
		inviteRepo: inviteRepo,
	}
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func validateSquadName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrSquadNameRequired
	}
	if len(name) > maxSquadNameLen {
		return "", fmt.Errorf("%w: squad name exceeds %d characters", ErrValidationFailed, maxSquadNameLen)
	}
	return name, nil
}

// requireOwner загружает клуб и проверяет, что действие выполняет владелец.
func (s *squadService) requireOwner(ctx context.Context, squadID, currentUserID int) (*models.Squad, error) {
	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		if errors.Is(err, repositories.ErrSquadNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to get squad %d: %w", squadID, err)
	}
	if squad.OwnerID != currentUserID {
		return nil, ErrOwnerActionForbidden
	}
	return squad, nil
}

func (s *squadService) Create(ctx context.Context, ownerID int, input SquadInput) (*models.Squad, error) {
	name, err := validateSquadName(input.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.squadRepo.GetSquadIDByUser(ctx, ownerID); err == nil {
		return nil, ErrUserAlreadyInSquad
	} else if !errors.Is(err, repositories.ErrSquadMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership of user %d: %w", ownerID, err)
	}

	squad := &models.Squad{Name: name, OwnerID: ownerID}
	if err := s.squadRepo.Create(ctx, squad); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSquadNameConflict):
			return nil, ErrSquadNameConflict
		case errors.Is(err, repositories.ErrSquadOwnerInvalid):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to create squad: %w", err)
		}
	}

	// Владелец сразу становится участником собственного клуба.
	if err := s.squadRepo.AddMember(ctx, nil, squad.ID, ownerID); err != nil &&
		!errors.Is(err, repositories.ErrSquadMemberConflict) {
		return nil, fmt.Errorf("failed to add owner to squad %d: %w", squad.ID, err)
	}

	return s.withMembers(ctx, squad)
}

func (s *squadService) GetByID(ctx context.Context, squadID int) (*models.Squad, error) {
	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		if errors.Is(err, repositories.ErrSquadNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to get squad %d: %w", squadID, err)
	}
	return s.withMembers(ctx, squad)
}

func (s *squadService) GetMine(ctx context.Context, userID int) (*models.Squad, error) {
	squadID, err := s.squadRepo.GetSquadIDByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSquadMemberNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to get squad of user %d: %w", userID, err)
	}
	return s.GetByID(ctx, squadID)
}

func (s *squadService) List(ctx context.Context) ([]models.Squad, error) {
	squads, err := s.squadRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	return squads, nil
}

func (s *squadService) Rename(ctx context.Context, squadID, currentUserID int, input SquadInput) (*models.Squad, error) {
	name, err := validateSquadName(input.Name)
	if err != nil {
		return nil, err
	}

	squad, err := s.requireOwner(ctx, squadID, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.squadRepo.Rename(ctx, squadID, name); err != nil {
		if errors.Is(err, repositories.ErrSquadNameConflict) {
			return nil, ErrSquadNameConflict
		}
		return nil, fmt.Errorf("failed to rename squad %d: %w", squadID, err)
	}
	squad.Name = name
	return s.withMembers(ctx, squad)
}

func (s *squadService) Delete(ctx context.Context, squadID, currentUserID int) error {
	if _, err := s.requireOwner(ctx, squadID, currentUserID); err != nil {
		return err
	}
	if err := s.squadRepo.Delete(ctx, squadID); err != nil {
		if errors.Is(err, repositories.ErrSquadNotFound) {
			return ErrSquadNotFound
		}
		return fmt.Errorf("failed to delete squad %d: %w", squadID, err)
	}
	return nil
}

// Leave выводит пользователя из клуба. Владелец покинуть клуб не может,
// только удалить его целиком.
func (s *squadService) Leave(ctx context.Context, squadID, currentUserID int) error {
	squad, err := s.squadRepo.GetByID(ctx, squadID)
	if err != nil {
		if errors.Is(err, repositories.ErrSquadNotFound) {
			return ErrSquadNotFound
		}
		return fmt.Errorf("failed to get squad %d: %w", squadID, err)
	}
	if squad.OwnerID == currentUserID {
		return ErrCannotRemoveOwner
	}

	if err := s.squadRepo.RemoveMember(ctx, squadID, currentUserID); err != nil {
		if errors.Is(err, repositories.ErrSquadMemberNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to leave squad %d: %w", squadID, err)
	}
	return nil
}

func (s *squadService) RemoveMember(ctx context.Context, squadID, memberID, currentUserID int) error {
	squad, err := s.requireOwner(ctx, squadID, currentUserID)
	if err != nil {
		return err
	}
	if memberID == squad.OwnerID {
		return ErrCannotRemoveOwner
	}

	if err := s.squadRepo.RemoveMember(ctx, squadID, memberID); err != nil {
		if errors.Is(err, repositories.ErrSquadMemberNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove user %d from squad %d: %w", memberID, squadID, err)
	}
	return nil
}

func (s *squadService) CreateInvite(ctx context.Context, squadID, currentUserID int) (*models.Invite, error) {
	if _, err := s.requireOwner(ctx, squadID, currentUserID); err != nil {
		return nil, err
	}

	maxAttempts := 3 // Попытки сгенерировать уникальный токен
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}

		invite := &models.Invite{
			SquadID:   squadID,
			Token:     token,
			ExpiresAt: time.Now().Add(inviteDuration),
		}

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}
		if errors.Is(err, repositories.ErrInviteTokenConflict) {
			continue // Коллизия токена, пробуем новый
		}
		if errors.Is(err, repositories.ErrInviteSquadInvalid) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to create invite for squad %d: %w", squadID, err)
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, maxAttempts)
}

// ListInvites возвращает действующие приглашения клуба. Просроченные
// отфильтровываются здесь, физически их удаляет фоновая чистка.
func (s *squadService) ListInvites(ctx context.Context, squadID, currentUserID int) ([]models.Invite, error) {
	if _, err := s.requireOwner(ctx, squadID, currentUserID); err != nil {
		return nil, err
	}

	invites, err := s.inviteRepo.ListBySquadID(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites of squad %d: %w", squadID, err)
	}

	active := make([]models.Invite, 0, len(invites))
	now := time.Now()
	for _, invite := range invites {
		if now.Before(invite.ExpiresAt) {
			active = append(active, *invite)
		}
	}
	return active, nil
}

func (s *squadService) RevokeInvite(ctx context.Context, squadID, inviteID, currentUserID int) error {
	if _, err := s.requireOwner(ctx, squadID, currentUserID); err != nil {
		return err
	}

	// У репозитория нет выборки по ID, принадлежность клубу проверяется
	// по списку приглашений клуба.
	invites, err := s.inviteRepo.ListBySquadID(ctx, squadID)
	if err != nil {
		return fmt.Errorf("failed to list invites of squad %d: %w", squadID, err)
	}
	found := false
	for _, invite := range invites {
		if invite.ID == inviteID {
			found = true
			break
		}
	}
	if !found {
		return ErrInviteNotFound
	}

	if err := s.inviteRepo.Delete(ctx, inviteID); err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to delete invite %d: %w", inviteID, err)
	}
	return nil
}

// JoinByToken добавляет пользователя в клуб по токену приглашения. Токен
// многоразовый и действует до истечения срока или отзыва владельцем.
func (s *squadService) JoinByToken(ctx context.Context, token string, currentUserID int) (*models.Squad, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: invite token is required", ErrValidationFailed)
	}

	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}
	if time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	if _, err := s.squadRepo.GetSquadIDByUser(ctx, currentUserID); err == nil {
		return nil, ErrUserAlreadyInSquad
	} else if !errors.Is(err, repositories.ErrSquadMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership of user %d: %w", currentUserID, err)
	}

	if err := s.squadRepo.AddMember(ctx, nil, invite.SquadID, currentUserID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSquadMemberConflict):
			return nil, ErrUserAlreadyInSquad
		case errors.Is(err, repositories.ErrSquadNotFound):
			return nil, ErrSquadNotFound
		default:
			return nil, fmt.Errorf("failed to join squad %d: %w", invite.SquadID, err)
		}
	}

	return s.GetByID(ctx, invite.SquadID)
}

func (s *squadService) CleanupExpiredInvites(ctx context.Context) (int64, error) {
	return s.inviteRepo.DeleteExpired(ctx)
}

func (s *squadService) withMembers(ctx context.Context, squad *models.Squad) (*models.Squad, error) {
	members, err := s.squadRepo.ListMembers(ctx, squad.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of squad %d: %w", squad.ID, err)
	}
	squad.Members = members
	return squad, nil
}
