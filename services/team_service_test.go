package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/prediction-league/models"
)

func TestCreateTeamValidation(t *testing.T) {
	svc := NewTeamService(&fakeTeamRepo{}, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input TeamInput
	}{
		{"empty name", TeamInput{Name: "   ", Code: "GAM"}},
		{"short code", TeamInput{Name: "Gambia", Code: "GM"}},
		{"digit in code", TeamInput{Name: "Gambia", Code: "G1M"}},
		{"long group", TeamInput{Name: "Gambia", Code: "GAM", GroupLetter: strPtr("AB")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); !errors.Is(err, ErrValidationFailed) {
				t.Errorf("Create error = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestCreateTeamNormalizesAndConflicts(t *testing.T) {
	repo := &fakeTeamRepo{}
	svc := NewTeamService(repo, nil, nil)
	ctx := context.Background()

	team, err := svc.Create(ctx, TeamInput{Name: "  Gambia ", Code: "gam", GroupLetter: strPtr(" a ")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if team.Name != "Gambia" || team.Code != "GAM" {
		t.Errorf("team = %q/%q, want trimmed name and uppercase code", team.Name, team.Code)
	}
	if team.GroupLetter == nil || *team.GroupLetter != "A" {
		t.Errorf("group = %v, want A", team.GroupLetter)
	}

	if _, err := svc.Create(ctx, TeamInput{Name: "Gambia B", Code: "GAM"}); !errors.Is(err, ErrTeamCodeConflict) {
		t.Errorf("duplicate code error = %v, want ErrTeamCodeConflict", err)
	}
}

func TestUpdateTeam(t *testing.T) {
	repo := &fakeTeamRepo{teams: []models.Team{
		{ID: 1, Name: "Gambia", Code: "GAM"},
		{ID: 2, Name: "Ghana", Code: "GHA"},
	}}
	svc := NewTeamService(repo, nil, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, 1, TeamInput{Name: "The Gambia", Code: "GAM", GroupLetter: strPtr("B")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "The Gambia" || updated.GroupLetter == nil || *updated.GroupLetter != "B" {
		t.Errorf("updated team = %+v, want renamed and regrouped", updated)
	}

	if _, err := svc.Update(ctx, 1, TeamInput{Name: "Gambia", Code: "GHA"}); !errors.Is(err, ErrTeamCodeConflict) {
		t.Errorf("code takeover error = %v, want ErrTeamCodeConflict", err)
	}
	if _, err := svc.Update(ctx, 42, TeamInput{Name: "Ghost", Code: "GST"}); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("missing team error = %v, want ErrTeamNotFound", err)
	}
}

func TestDeleteTeam(t *testing.T) {
	repo := &fakeTeamRepo{teams: []models.Team{{ID: 1, Name: "Gambia", Code: "GAM"}}}
	svc := NewTeamService(repo, nil, nil)
	ctx := context.Background()

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("second delete error = %v, want ErrTeamNotFound", err)
	}
}

func TestCrestWithoutStorage(t *testing.T) {
	repo := &fakeTeamRepo{teams: []models.Team{{ID: 1, Name: "Gambia", Code: "GAM"}}}
	svc := NewTeamService(repo, nil, nil)
	ctx := context.Background()

	// Без настроенного хранилища загрузка отклоняется.
	if _, err := svc.UploadCrest(ctx, 1, "image/png", nil); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("upload error = %v, want ErrValidationFailed", err)
	}
	// Удаление эмблемы, которой нет, проходит без обращения к хранилищу.
	if err := svc.RemoveCrest(ctx, 1); err != nil {
		t.Errorf("RemoveCrest without a crest: %v", err)
	}
}
