// prediction-league/brackets/topology.go
package brackets

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
)

var (
	ErrInvalidTopology   = errors.New("invalid bracket topology")
	ErrNoDefaultPairings = errors.New("no built-in opening pairings for this layout")
)

type Pairing struct {
	Home Slot
	Away Slot
}

type Round struct {
	Name             models.MatchRound
	Matches          int
	FirstMatchNumber int
}

type TopologyConfig struct {
	GroupLetters             []string
	TeamsPerGroup            int
	DirectQualifiersPerGroup int
	BestThirdSlots           int

	// OpeningPairings is the wiring of the first knockout round as slot code
	// pairs. Left empty, the built-in table for the layout is used.
	OpeningPairings [][2]string
}

// Topology is the fully derived shape of one tournament: group stage size,
// knockout rounds halving down to the final, and the parsed opening wiring.
// Everything downstream (schedule generation, resolution) works off it.
type Topology struct {
	Groups                   []string
	TeamsPerGroup            int
	DirectQualifiersPerGroup int
	BestThirdSlots           int

	Qualifiers   int
	GroupMatches int
	Rounds       []Round
	Opening      []Pairing

	ThirdPlaceMatchNumber int
	FinalMatchNumber      int
	TotalMatches          int
}

// NewTopology validates the layout and derives the knockout structure by
// halving the qualifier count. Any layout whose qualifier count is not a
// power of two (>= 4) is rejected outright, whatever the group count.
func NewTopology(cfg TopologyConfig) (*Topology, error) {
	if len(cfg.GroupLetters) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidTopology)
	}
	seen := make(map[string]bool, len(cfg.GroupLetters))
	for _, g := range cfg.GroupLetters {
		if len(g) != 1 || !isGroupLetter(g[0]) {
			return nil, fmt.Errorf("%w: bad group letter %q", ErrInvalidTopology, g)
		}
		if seen[g] {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalidTopology, g)
		}
		seen[g] = true
	}
	if cfg.TeamsPerGroup < 3 {
		return nil, fmt.Errorf("%w: %d teams per group", ErrInvalidTopology, cfg.TeamsPerGroup)
	}
	if cfg.DirectQualifiersPerGroup < 1 || cfg.DirectQualifiersPerGroup > 2 {
		return nil, fmt.Errorf("%w: %d direct qualifiers per group", ErrInvalidTopology, cfg.DirectQualifiersPerGroup)
	}
	if cfg.BestThirdSlots < 0 || cfg.BestThirdSlots > len(cfg.GroupLetters) {
		return nil, fmt.Errorf("%w: %d best-third slots for %d groups", ErrInvalidTopology, cfg.BestThirdSlots, len(cfg.GroupLetters))
	}
	if cfg.BestThirdSlots > 0 && cfg.DirectQualifiersPerGroup != 2 {
		return nil, fmt.Errorf("%w: best-third slots need exactly 2 direct qualifiers", ErrInvalidTopology)
	}

	qualifiers := len(cfg.GroupLetters)*cfg.DirectQualifiersPerGroup + cfg.BestThirdSlots
	if qualifiers < 4 || qualifiers&(qualifiers-1) != 0 {
		return nil, fmt.Errorf("%w: %d qualifiers, need a power of two >= 4", ErrInvalidTopology, qualifiers)
	}

	t := &Topology{
		Groups:                   append([]string(nil), cfg.GroupLetters...),
		TeamsPerGroup:            cfg.TeamsPerGroup,
		DirectQualifiersPerGroup: cfg.DirectQualifiersPerGroup,
		BestThirdSlots:           cfg.BestThirdSlots,
		Qualifiers:               qualifiers,
		GroupMatches:             len(cfg.GroupLetters) * cfg.TeamsPerGroup * (cfg.TeamsPerGroup - 1) / 2,
	}

	next := t.GroupMatches + 1
	for size := qualifiers; size >= 2; size /= 2 {
		if size == 2 {
			t.ThirdPlaceMatchNumber = next
			t.Rounds = append(t.Rounds, Round{Name: models.RoundThirdPlace, Matches: 1, FirstMatchNumber: next})
			next++
			t.FinalMatchNumber = next
			t.Rounds = append(t.Rounds, Round{Name: models.RoundFinal, Matches: 1, FirstMatchNumber: next})
			next++
			break
		}
		t.Rounds = append(t.Rounds, Round{Name: roundName(size), Matches: size / 2, FirstMatchNumber: next})
		next += size / 2
	}
	t.TotalMatches = next - 1

	codes := cfg.OpeningPairings
	if len(codes) == 0 {
		var err error
		codes, err = DefaultOpeningPairings(cfg.GroupLetters, cfg.BestThirdSlots)
		if err != nil {
			return nil, err
		}
	}
	opening, err := t.parseOpeningPairings(codes)
	if err != nil {
		return nil, err
	}
	t.Opening = opening

	return t, nil
}

func roundName(size int) models.MatchRound {
	switch size {
	case 32:
		return models.RoundOf32
	case 16:
		return models.RoundOf16
	case 8:
		return models.RoundQuarterFinal
	case 4:
		return models.RoundSemiFinal
	default:
		return models.MatchRound(fmt.Sprintf("round_of_%d", size))
	}
}

// parseOpeningPairings parses and fully validates the first-round wiring:
// every direct qualifier seat used exactly once, every best-third seat
// distinct with known candidate groups, pairing count matching the round.
func (t *Topology) parseOpeningPairings(codes [][2]string) ([]Pairing, error) {
	if len(codes) != t.Qualifiers/2 {
		return nil, fmt.Errorf("%w: %d opening pairings, need %d", ErrInvalidTopology, len(codes), t.Qualifiers/2)
	}

	groupSet := make(map[string]bool, len(t.Groups))
	for _, g := range t.Groups {
		groupSet[g] = true
	}

	usedPositions := make(map[string]bool, len(t.Groups)*t.DirectQualifiersPerGroup)
	usedThirdSeats := make(map[string]bool, t.BestThirdSlots)
	pairings := make([]Pairing, 0, len(codes))

	check := func(s Slot) error {
		switch s.Kind {
		case SlotGroupPosition:
			if !groupSet[s.Group] {
				return fmt.Errorf("%w: slot %s references unknown group", ErrInvalidTopology, s)
			}
			if s.Rank > t.DirectQualifiersPerGroup {
				return fmt.Errorf("%w: slot %s exceeds direct qualifiers", ErrInvalidTopology, s)
			}
			if usedPositions[s.String()] {
				return fmt.Errorf("%w: slot %s used twice", ErrInvalidTopology, s)
			}
			usedPositions[s.String()] = true
		case SlotBestThird:
			for _, g := range s.CandidateGroups {
				if !groupSet[g] {
					return fmt.Errorf("%w: seat %s references unknown group", ErrInvalidTopology, s)
				}
			}
			if usedThirdSeats[s.String()] {
				return fmt.Errorf("%w: seat %s used twice", ErrInvalidTopology, s)
			}
			usedThirdSeats[s.String()] = true
		default:
			return fmt.Errorf("%w: opening round cannot contain %s", ErrInvalidTopology, s)
		}
		return nil
	}

	for _, pair := range codes {
		home, err := ParseSlot(pair[0])
		if err != nil {
			return nil, err
		}
		away, err := ParseSlot(pair[1])
		if err != nil {
			return nil, err
		}
		if err := check(home); err != nil {
			return nil, err
		}
		if err := check(away); err != nil {
			return nil, err
		}
		pairings = append(pairings, Pairing{Home: home, Away: away})
	}

	if len(usedPositions) != len(t.Groups)*t.DirectQualifiersPerGroup {
		return nil, fmt.Errorf("%w: %d direct qualifier seats wired, need %d", ErrInvalidTopology, len(usedPositions), len(t.Groups)*t.DirectQualifiersPerGroup)
	}
	if len(usedThirdSeats) != t.BestThirdSlots {
		return nil, fmt.Errorf("%w: %d best-third seats wired, need %d", ErrInvalidTopology, len(usedThirdSeats), t.BestThirdSlots)
	}

	return pairings, nil
}

// ThirdSeats returns the best-third seats of the opening round in bracket order.
func (t *Topology) ThirdSeats() []Slot {
	var seats []Slot
	for _, p := range t.Opening {
		if p.Home.Kind == SlotBestThird {
			seats = append(seats, p.Home)
		}
		if p.Away.Kind == SlotBestThird {
			seats = append(seats, p.Away)
		}
	}
	return seats
}

// officialTwelveGroupPairings is the official wiring of the 32-team knockout
// stage for twelve groups A..L with eight best thirds.
var officialTwelveGroupPairings = [][2]string{
	{"2A", "2B"},
	{"1C", "2F"},
	{"1E", "3ABCDF"},
	{"1F", "2C"},
	{"2E", "2I"},
	{"1I", "3CDFGH"},
	{"1A", "3CEFHI"},
	{"1L", "3EHIJK"},
	{"1G", "3AEHIJ"},
	{"1D", "3BEFIJ"},
	{"1H", "2J"},
	{"2K", "2L"},
	{"1B", "3EFGIJ"},
	{"2D", "2G"},
	{"1J", "2H"},
	{"1K", "3DEIJL"},
}

// DefaultOpeningPairings returns the built-in first-round wiring for a
// layout. Twelve groups with eight best thirds get the official table; even
// group counts without best thirds get the classic winner-versus-neighbour
// runner-up split. Anything else has to be supplied explicitly.
func DefaultOpeningPairings(groups []string, bestThirdSlots int) ([][2]string, error) {
	if bestThirdSlots == 8 && len(groups) == 12 && lettersAre(groups, "ABCDEFGHIJKL") {
		return officialTwelveGroupPairings, nil
	}
	if bestThirdSlots == 0 && len(groups) >= 2 && len(groups)%2 == 0 {
		pairs := make([][2]string, 0, len(groups))
		for i := 0; i < len(groups); i += 2 {
			pairs = append(pairs, [2]string{"1" + groups[i], "2" + groups[i+1]})
		}
		for i := 0; i < len(groups); i += 2 {
			pairs = append(pairs, [2]string{"1" + groups[i+1], "2" + groups[i]})
		}
		return pairs, nil
	}
	return nil, fmt.Errorf("%w: %d groups, %d best thirds", ErrNoDefaultPairings, len(groups), bestThirdSlots)
}

func lettersAre(groups []string, want string) bool {
	if len(groups) != len(want) {
		return false
	}
	for i, g := range groups {
		if g != string(want[i]) {
			return false
		}
	}
	return true
}

type ScheduleParams struct {
	// Rosters maps every group letter to its team IDs in seeding order.
	Rosters      map[string][]int
	FirstKickoff time.Time
	MatchSpacing time.Duration
}

// fourTeamMatchdays is the fixture pattern of a four-team group over three
// matchdays, by roster index.
var fourTeamMatchdays = [][][2]int{
	{{0, 1}, {2, 3}},
	{{0, 2}, {1, 3}},
	{{0, 3}, {1, 2}},
}

// Schedule materialises the complete fixture list: every group fixture in
// matchday order, then the knockout skeleton carrying placeholder slots.
// Match numbers run 1..TotalMatches.
func (t *Topology) Schedule(params ScheduleParams) ([]*models.Match, error) {
	if params.MatchSpacing <= 0 {
		params.MatchSpacing = 3 * time.Hour
	}
	seenTeam := make(map[int]bool)
	for _, g := range t.Groups {
		ids := params.Rosters[g]
		if len(ids) != t.TeamsPerGroup {
			return nil, fmt.Errorf("%w: group %s has %d teams, need %d", ErrInvalidTopology, g, len(ids), t.TeamsPerGroup)
		}
		for _, id := range ids {
			if seenTeam[id] {
				return nil, fmt.Errorf("%w: team %d seeded twice", ErrInvalidTopology, id)
			}
			seenTeam[id] = true
		}
	}

	matches := make([]*models.Match, 0, t.TotalMatches)
	number := 1
	add := func(m *models.Match) {
		m.MatchNumber = number
		m.KickoffTime = params.FirstKickoff.Add(time.Duration(number-1) * params.MatchSpacing)
		m.Status = models.MatchStatusScheduled
		matches = append(matches, m)
		number++
	}

	for _, day := range t.groupMatchdays() {
		for _, g := range t.Groups {
			ids := params.Rosters[g]
			for _, pair := range day {
				group := g
				home, away := ids[pair[0]], ids[pair[1]]
				add(&models.Match{
					Round:       models.RoundGroupStage,
					GroupLetter: &group,
					HomeTeamID:  &home,
					AwayTeamID:  &away,
				})
			}
		}
	}

	var prevFirst, semiFirst int
	for _, round := range t.Rounds {
		switch round.Name {
		case models.RoundThirdPlace:
			home, away := fmt.Sprintf("L%d", semiFirst), fmt.Sprintf("L%d", semiFirst+1)
			add(&models.Match{Round: round.Name, HomeSlot: &home, AwaySlot: &away})
		case models.RoundFinal:
			home, away := fmt.Sprintf("W%d", semiFirst), fmt.Sprintf("W%d", semiFirst+1)
			add(&models.Match{Round: round.Name, HomeSlot: &home, AwaySlot: &away})
		default:
			if prevFirst == 0 {
				for _, p := range t.Opening {
					home, away := p.Home.String(), p.Away.String()
					add(&models.Match{Round: round.Name, HomeSlot: &home, AwaySlot: &away})
				}
			} else {
				for i := 0; i < round.Matches; i++ {
					home := fmt.Sprintf("W%d", prevFirst+2*i)
					away := fmt.Sprintf("W%d", prevFirst+2*i+1)
					add(&models.Match{Round: round.Name, HomeSlot: &home, AwaySlot: &away})
				}
			}
			prevFirst = round.FirstMatchNumber
			if round.Name == models.RoundSemiFinal {
				semiFirst = round.FirstMatchNumber
			}
		}
	}

	return matches, nil
}

// groupMatchdays returns the per-matchday fixture pattern by roster index.
// Four-team groups use the fixed pattern; other sizes fall back to the
// circle method.
func (t *Topology) groupMatchdays() [][][2]int {
	if t.TeamsPerGroup == 4 {
		return fourTeamMatchdays
	}
	return circleMatchdays(t.TeamsPerGroup)
}

func circleMatchdays(n int) [][][2]int {
	ids := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		ids = append(ids, i)
	}
	if n%2 != 0 {
		ids = append(ids, -1)
	}
	m := len(ids)

	days := make([][][2]int, 0, m-1)
	for r := 0; r < m-1; r++ {
		var day [][2]int
		for i := 0; i < m/2; i++ {
			a, b := ids[i], ids[m-1-i]
			if a == -1 || b == -1 {
				continue
			}
			day = append(day, [2]int{a, b})
		}
		days = append(days, day)
		// rotate everything but the first seat
		last := ids[m-1]
		copy(ids[2:], ids[1:m-1])
		ids[1] = last
	}
	return days
}
