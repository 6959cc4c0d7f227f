package brackets

import (
	"errors"
	"testing"

	"github.com/Dosada05/prediction-league/models"
)

func TestNewTopologyTwelveGroups(t *testing.T) {
	topo := testTopology(t, "ABCDEFGHIJKL", 4, 8)

	if topo.Qualifiers != 32 {
		t.Fatalf("qualifiers = %d, want 32", topo.Qualifiers)
	}
	if topo.GroupMatches != 72 {
		t.Fatalf("group matches = %d, want 72", topo.GroupMatches)
	}
	if topo.TotalMatches != 104 {
		t.Fatalf("total matches = %d, want 104", topo.TotalMatches)
	}

	wantRounds := []struct {
		name  models.MatchRound
		count int
		first int
	}{
		{models.RoundOf32, 16, 73},
		{models.RoundOf16, 8, 89},
		{models.RoundQuarterFinal, 4, 97},
		{models.RoundSemiFinal, 2, 101},
		{models.RoundThirdPlace, 1, 103},
		{models.RoundFinal, 1, 104},
	}
	if len(topo.Rounds) != len(wantRounds) {
		t.Fatalf("rounds = %d, want %d", len(topo.Rounds), len(wantRounds))
	}
	for i, want := range wantRounds {
		got := topo.Rounds[i]
		if got.Name != want.name || got.Matches != want.count || got.FirstMatchNumber != want.first {
			t.Errorf("round %d = %s/%d matches from %d, want %s/%d from %d",
				i, got.Name, got.Matches, got.FirstMatchNumber, want.name, want.count, want.first)
		}
	}
	if topo.ThirdPlaceMatchNumber != 103 || topo.FinalMatchNumber != 104 {
		t.Errorf("third place %d / final %d, want 103 / 104", topo.ThirdPlaceMatchNumber, topo.FinalMatchNumber)
	}
	if len(topo.ThirdSeats()) != 8 {
		t.Errorf("third seats = %d, want 8", len(topo.ThirdSeats()))
	}
}

func TestNewTopologyOtherLayouts(t *testing.T) {
	eight := testTopology(t, "ABCDEFGH", 4, 0)
	if eight.Qualifiers != 16 || eight.TotalMatches != 64 {
		t.Errorf("8 groups: qualifiers %d total %d, want 16 and 64", eight.Qualifiers, eight.TotalMatches)
	}
	if eight.Rounds[0].Name != models.RoundOf16 || eight.Rounds[0].FirstMatchNumber != 49 {
		t.Errorf("8 groups: first round %s at %d, want round_of_16 at 49", eight.Rounds[0].Name, eight.Rounds[0].FirstMatchNumber)
	}

	sixteen := testTopology(t, "ABCDEFGHIJKLMNOP", 4, 0)
	if sixteen.Qualifiers != 32 || sixteen.GroupMatches != 96 || sixteen.TotalMatches != 128 {
		t.Errorf("16 groups: qualifiers %d group %d total %d, want 32/96/128",
			sixteen.Qualifiers, sixteen.GroupMatches, sixteen.TotalMatches)
	}
	if sixteen.Rounds[0].Name != models.RoundOf32 || sixteen.Rounds[0].FirstMatchNumber != 97 {
		t.Errorf("16 groups: first round %s at %d, want round_of_32 at 97", sixteen.Rounds[0].Name, sixteen.Rounds[0].FirstMatchNumber)
	}
}

func TestNewTopologyRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name string
		cfg  TopologyConfig
	}{
		{"qualifiers not a power of two", TopologyConfig{
			GroupLetters: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"},
			TeamsPerGroup: 4, DirectQualifiersPerGroup: 2,
		}},
		{"twelve groups without thirds", TopologyConfig{
			GroupLetters: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"},
			TeamsPerGroup: 4, DirectQualifiersPerGroup: 2,
		}},
		{"no groups", TopologyConfig{TeamsPerGroup: 4, DirectQualifiersPerGroup: 2}},
		{"duplicate group", TopologyConfig{
			GroupLetters: []string{"A", "A"}, TeamsPerGroup: 4, DirectQualifiersPerGroup: 2,
		}},
		{"thirds without rank three", TopologyConfig{
			GroupLetters: []string{"A", "B", "C", "D"}, TeamsPerGroup: 4,
			DirectQualifiersPerGroup: 1, BestThirdSlots: 4,
		}},
	}
	for _, tc := range tests {
		if _, err := NewTopology(tc.cfg); !errors.Is(err, ErrInvalidTopology) {
			t.Errorf("%s: want ErrInvalidTopology, got %v", tc.name, err)
		}
	}
}

func TestNewTopologyValidatesOpeningPairings(t *testing.T) {
	base := TopologyConfig{
		GroupLetters:             []string{"A", "B", "C", "D"},
		TeamsPerGroup:            4,
		DirectQualifiersPerGroup: 2,
	}

	short := base
	short.OpeningPairings = [][2]string{{"1A", "2B"}}
	if _, err := NewTopology(short); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("short pairing list: want ErrInvalidTopology, got %v", err)
	}

	doubled := base
	doubled.OpeningPairings = [][2]string{
		{"1A", "2B"}, {"1A", "2D"}, {"1C", "2A"}, {"1D", "2C"},
	}
	if _, err := NewTopology(doubled); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("seat used twice: want ErrInvalidTopology, got %v", err)
	}

	unknown := base
	unknown.OpeningPairings = [][2]string{
		{"1A", "2B"}, {"1B", "2Z"}, {"1C", "2D"}, {"1D", "2C"},
	}
	if _, err := NewTopology(unknown); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("unknown group: want ErrInvalidTopology, got %v", err)
	}

	ok := base
	ok.OpeningPairings = [][2]string{
		{"1A", "2B"}, {"1C", "2D"}, {"1B", "2A"}, {"1D", "2C"},
	}
	if _, err := NewTopology(ok); err != nil {
		t.Errorf("valid pairings rejected: %v", err)
	}
}

func TestDefaultOpeningPairingsNeedsKnownLayout(t *testing.T) {
	if _, err := DefaultOpeningPairings([]string{"A", "B", "C"}, 2); !errors.Is(err, ErrNoDefaultPairings) {
		t.Errorf("want ErrNoDefaultPairings, got %v", err)
	}
}

func TestScheduleTwelveGroups(t *testing.T) {
	_, _, matches := testTournament(t, "ABCDEFGHIJKL", 8)

	if len(matches) != 104 {
		t.Fatalf("schedule = %d matches, want 104", len(matches))
	}
	for i, m := range matches {
		if m.MatchNumber != i+1 {
			t.Fatalf("match %d numbered %d", i, m.MatchNumber)
		}
	}

	groupCount := 0
	for _, m := range matches {
		if m.Round == models.RoundGroupStage {
			groupCount++
			if m.GroupLetter == nil || m.HomeTeamID == nil || m.AwayTeamID == nil {
				t.Fatalf("group match %d missing group or teams", m.MatchNumber)
			}
		} else if m.HomeSlot == nil || m.AwaySlot == nil {
			t.Fatalf("knockout match %d missing slots", m.MatchNumber)
		}
	}
	if groupCount != 72 {
		t.Fatalf("group matches = %d, want 72", groupCount)
	}

	opening := matchNo(t, matches, 73)
	if *opening.HomeSlot != "2A" || *opening.AwaySlot != "2B" {
		t.Errorf("match 73 = %s vs %s, want 2A vs 2B", *opening.HomeSlot, *opening.AwaySlot)
	}
	bestThird := matchNo(t, matches, 75)
	if *bestThird.AwaySlot != "3ABCDF" {
		t.Errorf("match 75 away = %s, want 3ABCDF", *bestThird.AwaySlot)
	}

	r16 := matchNo(t, matches, 89)
	if *r16.HomeSlot != "W73" || *r16.AwaySlot != "W74" {
		t.Errorf("match 89 = %s vs %s, want W73 vs W74", *r16.HomeSlot, *r16.AwaySlot)
	}
	semi := matchNo(t, matches, 101)
	if *semi.HomeSlot != "W97" || *semi.AwaySlot != "W98" {
		t.Errorf("match 101 = %s vs %s, want W97 vs W98", *semi.HomeSlot, *semi.AwaySlot)
	}
	third := matchNo(t, matches, 103)
	if *third.HomeSlot != "L101" || *third.AwaySlot != "L102" {
		t.Errorf("match 103 = %s vs %s, want L101 vs L102", *third.HomeSlot, *third.AwaySlot)
	}
	final := matchNo(t, matches, 104)
	if *final.HomeSlot != "W101" || *final.AwaySlot != "W102" {
		t.Errorf("match 104 = %s vs %s, want W101 vs W102", *final.HomeSlot, *final.AwaySlot)
	}

	if !matches[1].KickoffTime.After(matches[0].KickoffTime) {
		t.Errorf("kickoffs do not advance")
	}
}

func TestScheduleRejectsBadRosters(t *testing.T) {
	topo := testTopology(t, "ABCDEFGH", 4, 0)

	rosters := map[string][]int{}
	id := 1
	for _, g := range topo.Groups {
		for i := 0; i < 4; i++ {
			rosters[g] = append(rosters[g], id)
			id++
		}
	}

	short := map[string][]int{}
	for g, ids := range rosters {
		short[g] = ids
	}
	short["A"] = short["A"][:3]
	if _, err := topo.Schedule(ScheduleParams{Rosters: short}); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("short roster: want ErrInvalidTopology, got %v", err)
	}

	dup := map[string][]int{}
	for g, ids := range rosters {
		dup[g] = append([]int(nil), ids...)
	}
	dup["B"][0] = dup["A"][0]
	if _, err := topo.Schedule(ScheduleParams{Rosters: dup}); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("duplicate team: want ErrInvalidTopology, got %v", err)
	}
}
