package services

import (
	"context"
	"fmt"
	"math"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"golang.org/x/sync/errgroup"
)

const dashboardTopSize = 5

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	userRepo           repositories.UserRepository
	matchRepo          repositories.MatchRepository
	predictionRepo     repositories.PredictionRepository
	leaderboardService LeaderboardService
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	leaderboardService LeaderboardService,
) DashboardService {
	return &dashboardService{
		userRepo:           userRepo,
		matchRepo:          matchRepo,
		predictionRepo:     predictionRepo,
		leaderboardService: leaderboardService,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.userRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.UsersTotal = total
		return nil
	})
	g.Go(func() error {
		total, err := s.predictionRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count predictions: %w", err)
		}
		stats.PredictionsTotal = total
		return nil
	})
	g.Go(func() error {
		total, err := s.matchRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		stats.MatchesTotal = total
		return nil
	})
	g.Go(func() error {
		completed, err := s.matchRepo.CountByStatus(gCtx, models.MatchStatusCompleted)
		if err != nil {
			return fmt.Errorf("failed to count completed matches: %w", err)
		}
		stats.MatchesCompleted = completed
		return nil
	})
	g.Go(func() error {
		top, err := s.leaderboardService.TopUsers(gCtx, dashboardTopSize)
		if err != nil {
			return err
		}
		stats.TopUsers = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.MatchesTotal > 0 {
		stats.CompletionPct = math.Round(float64(stats.MatchesCompleted)/float64(stats.MatchesTotal)*1000) / 10
	}
	return stats, nil
}
