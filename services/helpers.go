// File: prediction-league/services/helpers.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeUser очищает поля, которые нельзя отдавать наружу.
func sanitizeUser(user *models.User) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
}

func populateTeamCrestURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.CrestKey != nil && *team.CrestKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.CrestKey)
		if url != "" {
			team.CrestURL = &url
		}
	}
}

func populateTeamListCrests(teams []models.Team, uploader storage.FileUploader) {
	if uploader == nil {
		return
	}
	for i := range teams {
		populateTeamCrestURL(&teams[i], uploader)
	}
}

func matchesToPointers(matches []models.Match) []*models.Match {
	result := make([]*models.Match, len(matches))
	for i := range matches {
		result[i] = &matches[i]
	}
	return result
}

func predictionsToPointers(predictions []models.Prediction) []*models.Prediction {
	result := make([]*models.Prediction, len(predictions))
	for i := range predictions {
		result[i] = &predictions[i]
	}
	return result
}

// --- Хелперы формы турнира ---

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// rostersFromTeams раскладывает сборные по группам в порядке посева.
// Сборные без группы отбрасываются.
func rostersFromTeams(teams []models.Team) map[string][]int {
	rosters := make(map[string][]int)
	for _, team := range teams {
		letter := derefString(team.GroupLetter)
		if letter == "" {
			continue
		}
		rosters[letter] = append(rosters[letter], team.ID)
	}
	return rosters
}

// tournamentTopology восстанавливает форму турнира из распределения сборных
// по группам. Каждая группа отдает двух лучших напрямую, недостающие до
// степени двойки места добирают лучшие третьи.
func tournamentTopology(teams []models.Team) (*brackets.Topology, error) {
	rosters := rostersFromTeams(teams)
	if len(rosters) == 0 {
		return nil, fmt.Errorf("%w: no teams are assigned to groups", ErrValidationFailed)
	}

	groups := make([]string, 0, len(rosters))
	perGroup := 0
	for letter, ids := range rosters {
		groups = append(groups, letter)
		if perGroup == 0 {
			perGroup = len(ids)
		} else if len(ids) != perGroup {
			return nil, fmt.Errorf("%w: group %s has %d teams, want %d", ErrValidationFailed, letter, len(ids), perGroup)
		}
	}
	sort.Strings(groups)

	direct := 2
	thirds := nextPowerOfTwo(len(groups)*direct) - len(groups)*direct

	topology, err := brackets.NewTopology(brackets.TopologyConfig{
		GroupLetters:             groups,
		TeamsPerGroup:            perGroup,
		DirectQualifiersPerGroup: direct,
		BestThirdSlots:           thirds,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return topology, nil
}

// tournamentState собирает все, что нужно для разрешения сетки: сборные,
// форму турнира и расписание целиком.
type tournamentState struct {
	teams    []models.Team
	topology *brackets.Topology
	matches  []*models.Match
	byID     map[int]*models.Match
	byNumber map[int]*models.Match
}

func loadTournamentState(ctx context.Context, teamRepo repositories.TeamRepository, matchRepo repositories.MatchRepository) (*tournamentState, error) {
	teams, err := teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	topology, err := tournamentTopology(teams)
	if err != nil {
		return nil, err
	}

	matches, err := matchRepo.List(ctx, repositories.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrScheduleMissing
	}

	pointers := matchesToPointers(matches)
	byID := make(map[int]*models.Match, len(pointers))
	byNumber := make(map[int]*models.Match, len(pointers))
	for _, m := range pointers {
		byID[m.ID] = m
		byNumber[m.MatchNumber] = m
	}

	return &tournamentState{
		teams:    teams,
		topology: topology,
		matches:  pointers,
		byID:     byID,
		byNumber: byNumber,
	}, nil
}

// GetExtensionFromContentType переводит MIME-тип изображения в расширение файла.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
