package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
	"github.com/Dosada05/prediction-league/utils"
)

type TeamInput struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	GroupLetter *string `json:"group_letter"`
}

type TeamService interface {
	List(ctx context.Context) ([]models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Create(ctx context.Context, input TeamInput) (*models.Team, error)
	Update(ctx context.Context, id int, input TeamInput) (*models.Team, error)
	Delete(ctx context.Context, id int) error
	UploadCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
	RemoveCrest(ctx context.Context, teamID int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	populateTeamListCrests(teams, s.uploader)
	return teams, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	populateTeamCrestURL(team, s.uploader)
	return team, nil
}

func (s *teamService) validateInput(input *TeamInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))

	if input.Name == "" {
		return fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if !utils.IsValidCountryCode(input.Code) {
		return fmt.Errorf("%w: code must be a three-letter country code", ErrValidationFailed)
	}
	if input.GroupLetter != nil {
		letter := strings.ToUpper(strings.TrimSpace(*input.GroupLetter))
		if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
			return fmt.Errorf("%w: group must be a single letter", ErrValidationFailed)
		}
		input.GroupLetter = &letter
	}
	return nil
}

func (s *teamService) Create(ctx context.Context, input TeamInput) (*models.Team, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        input.Name,
		Code:        input.Code,
		GroupLetter: input.GroupLetter,
	}

	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamCodeConflict) {
			return nil, ErrTeamCodeConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) Update(ctx context.Context, id int, input TeamInput) (*models.Team, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	team.Name = input.Name
	team.Code = input.Code
	team.GroupLetter = input.GroupLetter

	if err := s.teamRepo.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamCodeConflict):
			return nil, ErrTeamCodeConflict
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team %d: %w", id, err)
	}

	populateTeamCrestURL(team, s.uploader)
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, id int) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", id, err)
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		case errors.Is(err, repositories.ErrTeamInUse):
			return fmt.Errorf("%w: team is part of the schedule", ErrValidationFailed)
		}
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}

	if team.CrestKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *team.CrestKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete team crest from storage",
				slog.Int("team_id", id),
				slog.String("key", *team.CrestKey),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *teamService) UploadCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: crest storage is not configured", ErrValidationFailed)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	oldKey := team.CrestKey
	key := fmt.Sprintf("crests/team_%d%s", teamID, ext)

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload crest for team %d: %w", teamID, err)
	}

	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &key); err != nil {
		return nil, fmt.Errorf("failed to store crest key for team %d: %w", teamID, err)
	}

	if oldKey != nil && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous team crest",
				slog.Int("team_id", teamID),
				slog.String("key", *oldKey),
				slog.Any("error", err))
		}
	}

	team.CrestKey = &key
	populateTeamCrestURL(team, s.uploader)
	return team, nil
}

func (s *teamService) RemoveCrest(ctx context.Context, teamID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if team.CrestKey == nil {
		return nil
	}
	if s.uploader == nil {
		return fmt.Errorf("%w: crest storage is not configured", ErrValidationFailed)
	}

	if err := s.uploader.Delete(ctx, *team.CrestKey); err != nil {
		return fmt.Errorf("failed to delete crest for team %d: %w", teamID, err)
	}
	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, nil); err != nil {
		return fmt.Errorf("failed to clear crest key for team %d: %w", teamID, err)
	}
	return nil
}
