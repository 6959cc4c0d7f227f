package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

// buildTournament seeds a tournament over the given groups with four teams
// each, qualifiers derived the same way the services derive them. Team IDs
// count up from 1 in group order, match IDs equal match numbers, all
// kickoffs lie in the future.
func buildTournament(t *testing.T, letters []string) ([]models.Team, []*models.Match) {
	t.Helper()

	direct := 2
	topo, err := brackets.NewTopology(brackets.TopologyConfig{
		GroupLetters:             letters,
		TeamsPerGroup:            4,
		DirectQualifiersPerGroup: direct,
		BestThirdSlots:           nextPowerOfTwo(len(letters)*direct) - len(letters)*direct,
	})
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}

	var teams []models.Team
	rosters := make(map[string][]int, len(letters))
	id := 1
	for _, g := range letters {
		for i := 0; i < 4; i++ {
			group := g
			teams = append(teams, models.Team{
				ID:          id,
				Name:        fmt.Sprintf("Team %s%d", g, i+1),
				Code:        fmt.Sprintf("%s%02d", g, i+1),
				GroupLetter: &group,
			})
			rosters[g] = append(rosters[g], id)
			id++
		}
	}

	matches, err := topo.Schedule(brackets.ScheduleParams{
		Rosters:      rosters,
		FirstKickoff: time.Now().Add(24 * time.Hour),
		MatchSpacing: time.Minute,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	for _, m := range matches {
		m.ID = m.MatchNumber
	}
	return teams, matches
}

// buildCompactTournament is the eight-group shape: sixteen qualifiers, no
// best thirds, 48 group matches and a knockout from match 49.
func buildCompactTournament(t *testing.T) ([]models.Team, []*models.Match) {
	return buildTournament(t, []string{"A", "B", "C", "D", "E", "F", "G", "H"})
}

// Фейки хранят состояние в памяти и реализуют ровно ту семантику ошибок,
// которую отдают postgres-репозитории.

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.nextID++
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Nickname = user.Nickname
	stored.Email = user.Email
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id int, passwordHash string) error {
	stored, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := f.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(f.users), nil
}

type fakeSquadRepo struct {
	squads  map[int]*models.Squad
	members map[int]int // userID -> squadID, пользователь максимум в одном клубе
	nextID  int
}

func newFakeSquadRepo() *fakeSquadRepo {
	return &fakeSquadRepo{
		squads:  make(map[int]*models.Squad),
		members: make(map[int]int),
		nextID:  1,
	}
}

func (f *fakeSquadRepo) Create(_ context.Context, squad *models.Squad) error {
	for _, s := range f.squads {
		if s.Name == squad.Name {
			return repositories.ErrSquadNameConflict
		}
	}
	squad.ID = f.nextID
	squad.CreatedAt = time.Now()
	f.nextID++
	clone := *squad
	f.squads[squad.ID] = &clone
	return nil
}

func (f *fakeSquadRepo) GetByID(_ context.Context, id int) (*models.Squad, error) {
	s, ok := f.squads[id]
	if !ok {
		return nil, repositories.ErrSquadNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSquadRepo) List(_ context.Context) ([]models.Squad, error) {
	out := make([]models.Squad, 0, len(f.squads))
	for _, s := range f.squads {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSquadRepo) Rename(_ context.Context, id int, name string) error {
	s, ok := f.squads[id]
	if !ok {
		return repositories.ErrSquadNotFound
	}
	for otherID, other := range f.squads {
		if otherID != id && other.Name == name {
			return repositories.ErrSquadNameConflict
		}
	}
	s.Name = name
	return nil
}

func (f *fakeSquadRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.squads[id]; !ok {
		return repositories.ErrSquadNotFound
	}
	delete(f.squads, id)
	for userID, squadID := range f.members {
		if squadID == id {
			delete(f.members, userID)
		}
	}
	return nil
}

func (f *fakeSquadRepo) AddMember(_ context.Context, _ repositories.SQLExecutor, squadID, userID int) error {
	if _, ok := f.squads[squadID]; !ok {
		return repositories.ErrSquadNotFound
	}
	if _, ok := f.members[userID]; ok {
		return repositories.ErrSquadMemberConflict
	}
	f.members[userID] = squadID
	return nil
}

func (f *fakeSquadRepo) RemoveMember(_ context.Context, squadID, userID int) error {
	if current, ok := f.members[userID]; !ok || current != squadID {
		return repositories.ErrSquadMemberNotFound
	}
	delete(f.members, userID)
	return nil
}

func (f *fakeSquadRepo) ListMembers(_ context.Context, squadID int) ([]models.SquadMember, error) {
	var out []models.SquadMember
	for userID, id := range f.members {
		if id == squadID {
			out = append(out, models.SquadMember{UserID: userID})
		}
	}
	return out, nil
}

func (f *fakeSquadRepo) GetSquadIDByUser(_ context.Context, userID int) (int, error) {
	squadID, ok := f.members[userID]
	if !ok {
		return 0, repositories.ErrSquadMemberNotFound
	}
	return squadID, nil
}

type fakeInviteRepo struct {
	invites map[int]*models.Invite
	nextID  int

	// createErr подменяет результат ближайших вызовов Create.
	createErr []error
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[int]*models.Invite), nextID: 1}
}

func (f *fakeInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	if len(f.createErr) > 0 {
		err := f.createErr[0]
		f.createErr = f.createErr[1:]
		if err != nil {
			return err
		}
	}
	for _, inv := range f.invites {
		if inv.Token == invite.Token {
			return repositories.ErrInviteTokenConflict
		}
	}
	invite.ID = f.nextID
	invite.CreatedAt = time.Now()
	f.nextID++
	clone := *invite
	f.invites[invite.ID] = &clone
	return nil
}

func (f *fakeInviteRepo) GetByToken(_ context.Context, token string) (*models.Invite, error) {
	for _, inv := range f.invites {
		if inv.Token == token {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (f *fakeInviteRepo) ListBySquadID(_ context.Context, squadID int) ([]*models.Invite, error) {
	var out []*models.Invite
	for _, inv := range f.invites {
		if inv.SquadID == squadID {
			clone := *inv
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.invites[id]; !ok {
		return repositories.ErrInviteNotFound
	}
	delete(f.invites, id)
	return nil
}

func (f *fakeInviteRepo) DeleteExpired(_ context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for id, inv := range f.invites {
		if now.After(inv.ExpiresAt) {
			delete(f.invites, id)
			removed++
		}
	}
	return removed, nil
}

type fakeTeamRepo struct {
	teams  []models.Team
	nextID int
}

func (f *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	for i := range f.teams {
		if f.teams[i].Code == team.Code {
			return repositories.ErrTeamCodeConflict
		}
	}
	if f.nextID == 0 {
		f.nextID = len(f.teams) + 1
	}
	team.ID = f.nextID
	team.CreatedAt = time.Now()
	f.nextID++
	f.teams = append(f.teams, *team)
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	for i := range f.teams {
		if f.teams[i].ID == id {
			clone := f.teams[i]
			return &clone, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) GetByCode(_ context.Context, code string) (*models.Team, error) {
	for i := range f.teams {
		if f.teams[i].Code == code {
			clone := f.teams[i]
			return &clone, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) List(_ context.Context) ([]models.Team, error) {
	out := make([]models.Team, len(f.teams))
	copy(out, f.teams)
	return out, nil
}

func (f *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	for i := range f.teams {
		if f.teams[i].Code == team.Code && f.teams[i].ID != team.ID {
			return repositories.ErrTeamCodeConflict
		}
	}
	for i := range f.teams {
		if f.teams[i].ID == team.ID {
			f.teams[i] = *team
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) UpdateCrestKey(_ context.Context, id int, key *string) error {
	for i := range f.teams {
		if f.teams[i].ID == id {
			f.teams[i].CrestKey = key
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) Delete(_ context.Context, id int) error {
	for i := range f.teams {
		if f.teams[i].ID == id {
			f.teams = append(f.teams[:i], f.teams[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) Count(_ context.Context) (int, error) {
	return len(f.teams), nil
}

type fakeMatchRepo struct {
	matches []*models.Match
}

func (f *fakeMatchRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, _ []*models.Match) error {
	panic("fakeMatchRepo: CreateBatch not implemented")
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	for _, m := range f.matches {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) GetByNumber(_ context.Context, matchNumber int) (*models.Match, error) {
	for _, m := range f.matches {
		if m.MatchNumber == matchNumber {
			clone := *m
			return &clone, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) List(_ context.Context, filter repositories.MatchFilter) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.matches {
		if filter.Round != nil && m.Round != *filter.Round {
			continue
		}
		if filter.GroupLetter != nil && (m.GroupLetter == nil || *m.GroupLetter != *filter.GroupLetter) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, homeScore, awayScore int, winnerTeamID *int, status models.MatchStatus) error {
	for _, m := range f.matches {
		if m.ID == id {
			m.HomeScore = &homeScore
			m.AwayScore = &awayScore
			m.WinnerTeamID = winnerTeamID
			m.Status = status
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ClearResult(_ context.Context, _ repositories.SQLExecutor, id int) error {
	for _, m := range f.matches {
		if m.ID == id {
			m.HomeScore = nil
			m.AwayScore = nil
			m.WinnerTeamID = nil
			m.Status = models.MatchStatusScheduled
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) UpdateTeams(_ context.Context, _ repositories.SQLExecutor, id int, homeTeamID, awayTeamID *int) error {
	for _, m := range f.matches {
		if m.ID == id {
			m.HomeTeamID = homeTeamID
			m.AwayTeamID = awayTeamID
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) UpdateWinner(_ context.Context, _ repositories.SQLExecutor, id int, winnerTeamID *int) error {
	for _, m := range f.matches {
		if m.ID == id {
			m.WinnerTeamID = winnerTeamID
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) MarkInProgressDue(_ context.Context, now time.Time) (int64, error) {
	var moved int64
	for _, m := range f.matches {
		if m.Status == models.MatchStatusScheduled && !now.Before(m.KickoffTime) {
			m.Status = models.MatchStatusInProgress
			moved++
		}
	}
	return moved, nil
}

func (f *fakeMatchRepo) Count(_ context.Context) (int, error) {
	return len(f.matches), nil
}

func (f *fakeMatchRepo) CountByStatus(_ context.Context, status models.MatchStatus) (int, error) {
	n := 0
	for _, m := range f.matches {
		if m.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeMatchRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	f.matches = nil
	return nil
}

type fakePredictionRepo struct {
	predictions []*models.Prediction
	nextID      int
}

func newFakePredictionRepo() *fakePredictionRepo {
	return &fakePredictionRepo{nextID: 1}
}

func (f *fakePredictionRepo) Upsert(_ context.Context, prediction *models.Prediction) error {
	for _, p := range f.predictions {
		if p.UserID == prediction.UserID && p.MatchID == prediction.MatchID {
			p.HomeScore = prediction.HomeScore
			p.AwayScore = prediction.AwayScore
			p.Outcome = prediction.Outcome
			p.WinnerTeamID = prediction.WinnerTeamID
			prediction.ID = p.ID
			return nil
		}
	}
	prediction.ID = f.nextID
	f.nextID++
	clone := *prediction
	f.predictions = append(f.predictions, &clone)
	return nil
}

func (f *fakePredictionRepo) GetByUserAndMatch(_ context.Context, userID, matchID int) (*models.Prediction, error) {
	for _, p := range f.predictions {
		if p.UserID == userID && p.MatchID == matchID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPredictionNotFound
}

func (f *fakePredictionRepo) ListByUser(_ context.Context, userID int) ([]models.Prediction, error) {
	var out []models.Prediction
	for _, p := range f.predictions {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePredictionRepo) ListUserIDsByMatches(_ context.Context, matchIDs []int) ([]int, error) {
	wanted := make(map[int]bool, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = true
	}
	seen := make(map[int]bool)
	var out []int
	for _, p := range f.predictions {
		if wanted[p.MatchID] && !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (f *fakePredictionRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, id int, points int, status models.PredictionScoreStatus) error {
	for _, p := range f.predictions {
		if p.ID == id {
			p.PointsEarned = points
			p.ScoreStatus = status
			return nil
		}
	}
	return repositories.ErrPredictionNotFound
}

func (f *fakePredictionRepo) DeleteByUser(_ context.Context, _ repositories.SQLExecutor, userID int) error {
	kept := f.predictions[:0]
	for _, p := range f.predictions {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	f.predictions = kept
	return nil
}

func (f *fakePredictionRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	f.predictions = nil
	return nil
}

func (f *fakePredictionRepo) Count(_ context.Context) (int, error) {
	return len(f.predictions), nil
}

type fakeThirdPlaceRepo struct {
	picks map[int][]models.ThirdPlacePick
}

func newFakeThirdPlaceRepo() *fakeThirdPlaceRepo {
	return &fakeThirdPlaceRepo{picks: make(map[int][]models.ThirdPlacePick)}
}

func (f *fakeThirdPlaceRepo) ReplaceForUser(_ context.Context, userID int, picks []*models.ThirdPlacePick) error {
	out := make([]models.ThirdPlacePick, len(picks))
	for i, p := range picks {
		out[i] = *p
	}
	f.picks[userID] = out
	return nil
}

func (f *fakeThirdPlaceRepo) ListByUser(_ context.Context, userID int) ([]models.ThirdPlacePick, error) {
	out := make([]models.ThirdPlacePick, len(f.picks[userID]))
	copy(out, f.picks[userID])
	return out, nil
}

func (f *fakeThirdPlaceRepo) DeleteForUser(_ context.Context, _ repositories.SQLExecutor, userID int) error {
	delete(f.picks, userID)
	return nil
}

type fakeLeaderboardRepo struct {
	rows       []models.LeaderboardRow
	squadRows  []models.SquadLeaderboardRow
	lastLimit  int
	lastOffset int
}

func (f *fakeLeaderboardRepo) ListUsers(_ context.Context, limit, offset int) ([]models.LeaderboardRow, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.rows, nil
}

func (f *fakeLeaderboardRepo) GetUserRow(_ context.Context, userID int) (*models.LeaderboardRow, error) {
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			clone := f.rows[i]
			return &clone, nil
		}
	}
	return nil, repositories.ErrLeaderboardUserNotFound
}

func (f *fakeLeaderboardRepo) TopUsers(_ context.Context, limit int) ([]models.LeaderboardRow, error) {
	f.lastLimit = limit
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeLeaderboardRepo) ListSquads(_ context.Context) ([]models.SquadLeaderboardRow, error) {
	return f.squadRows, nil
}
