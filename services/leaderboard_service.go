package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

type LeaderboardPage struct {
	Rows   []models.LeaderboardRow `json:"rows"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit, offset int) (*LeaderboardPage, error)
	MyRank(ctx context.Context, userID int) (*models.LeaderboardRow, error)
	SquadLeaderboard(ctx context.Context) ([]models.SquadLeaderboardRow, error)
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
}

type leaderboardService struct {
	leaderboardRepo repositories.LeaderboardRepository
}

func NewLeaderboardService(leaderboardRepo repositories.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{leaderboardRepo: leaderboardRepo}
}

func (s *leaderboardService) Leaderboard(ctx context.Context, limit, offset int) (*LeaderboardPage, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.leaderboardRepo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return &LeaderboardPage{Rows: rows, Limit: limit, Offset: offset}, nil
}

func (s *leaderboardService) MyRank(ctx context.Context, userID int) (*models.LeaderboardRow, error) {
	row, err := s.leaderboardRepo.GetUserRow(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeaderboardUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load rank of user %d: %w", userID, err)
	}
	return row, nil
}

func (s *leaderboardService) SquadLeaderboard(ctx context.Context) ([]models.SquadLeaderboardRow, error) {
	rows, err := s.leaderboardRepo.ListSquads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load squad leaderboard: %w", err)
	}
	return rows, nil
}

func (s *leaderboardService) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = 10
	}
	rows, err := s.leaderboardRepo.TopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top users: %w", err)
	}
	return rows, nil
}
