package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/utils"
)

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, currentUserID, targetUserID int, input UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, currentUserID int, oldPassword, newPassword string) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Delete(ctx context.Context, currentUserID, targetUserID int, currentUserRole string) error
}

type userService struct {
	db             *sql.DB
	userRepo       repositories.UserRepository
	predictionRepo repositories.PredictionRepository
	thirdPlaceRepo repositories.ThirdPlacePickRepository
}

func NewUserService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	predictionRepo repositories.PredictionRepository,
	thirdPlaceRepo repositories.ThirdPlacePickRepository,
) UserService {
	return &userService{
		db:             db,
		userRepo:       userRepo,
		predictionRepo: predictionRepo,
		thirdPlaceRepo: thirdPlaceRepo,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	sanitizeUser(user)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, currentUserID, targetUserID int, input UpdateProfileInput) (*models.User, error) {
	if currentUserID != targetUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", targetUserID, err)
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			return nil, fmt.Errorf("%w: nickname cannot be empty", ErrValidationFailed)
		}
		user.Nickname = nickname
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrValidationFailed)
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", targetUserID, err)
	}

	sanitizeUser(user)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, currentUserID int, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, currentUserID, hash); err != nil {
		return fmt.Errorf("failed to store new password for user %d: %w", currentUserID, err)
	}
	return nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		sanitizeUser(&users[i])
	}
	return users, nil
}

// Delete удаляет пользователя вместе с его прогнозами и порядком третьих
// мест в одной транзакции.
func (s *userService) Delete(ctx context.Context, currentUserID, targetUserID int, currentUserRole string) error {
	if currentUserID != targetUserID && currentUserRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.predictionRepo.DeleteByUser(ctx, tx, targetUserID); err != nil {
		return fmt.Errorf("failed to delete predictions of user %d: %w", targetUserID, err)
	}
	if err := s.thirdPlaceRepo.DeleteForUser(ctx, tx, targetUserID); err != nil {
		return fmt.Errorf("failed to delete third place picks of user %d: %w", targetUserID, err)
	}
	if err := s.userRepo.Delete(ctx, tx, targetUserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", targetUserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	return nil
}
