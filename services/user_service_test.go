package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/utils"
)

func userFixture(t *testing.T) (*fakeUserRepo, UserService) {
	t.Helper()

	repo := newFakeUserRepo()
	hash, err := utils.HashPassword("old password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := repo.Create(context.Background(), &models.User{
		FirstName:    "Ada",
		Nickname:     "ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := NewUserService(nil, repo, newFakePredictionRepo(), newFakeThirdPlaceRepo())
	return repo, svc
}

func strPtr(s string) *string { return &s }

func TestGetUserByIDSanitizes(t *testing.T) {
	_, svc := userFixture(t)
	ctx := context.Background()

	user, err := svc.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in profile")
	}

	if _, err := svc.GetByID(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user error = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo, svc := userFixture(t)
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, 2, 1, UpdateProfileInput{}); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("foreign profile error = %v, want ErrForbiddenOperation", err)
	}
	if _, err := svc.UpdateProfile(ctx, 1, 1, UpdateProfileInput{Nickname: strPtr("   ")}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("blank nickname error = %v, want ErrValidationFailed", err)
	}
	if _, err := svc.UpdateProfile(ctx, 1, 1, UpdateProfileInput{Email: strPtr("not-an-email")}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("bad email error = %v, want ErrValidationFailed", err)
	}

	updated, err := svc.UpdateProfile(ctx, 1, 1, UpdateProfileInput{
		FirstName: strPtr("  Ada  "),
		Email:     strPtr(" Ada@NEW.example.com "),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Ada" {
		t.Errorf("first name = %q, want trimmed", updated.FirstName)
	}
	if updated.Email != "ada@new.example.com" {
		t.Errorf("email = %q, want normalized lowercase", updated.Email)
	}
	if updated.PasswordHash != "" {
		t.Error("password hash leaked after update")
	}
	if stored := repo.users[1]; stored.Email != "ada@new.example.com" {
		t.Errorf("stored email = %q, update did not persist", stored.Email)
	}
}

func TestChangePassword(t *testing.T) {
	repo, svc := userFixture(t)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, 1, "old password", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("short password error = %v, want ErrPasswordTooShort", err)
	}
	if err := svc.ChangePassword(ctx, 1, "wrong", "brand new password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong old password error = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(ctx, 1, "old password", "brand new password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !utils.CheckPasswordHash("brand new password", repo.users[1].PasswordHash) {
		t.Error("stored hash does not match the new password")
	}
}

func TestDeleteUserForbidden(t *testing.T) {
	_, svc := userFixture(t)

	// Обычный пользователь не может удалить чужой аккаунт.
	if err := svc.Delete(context.Background(), 2, 1, models.RoleUser); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("foreign delete error = %v, want ErrForbiddenOperation", err)
	}
}
