// prediction-league/brackets/resolver.go
package brackets

import (
	"sort"

	"github.com/Dosada05/prediction-league/models"
)

type ResolveParams struct {
	Topology *Topology
	Teams    []models.Team
	Matches  []*models.Match
	Source   ResultSource

	// ManualThirdOrder optionally replaces the computed third-place ranking
	// with the user's own ordering (team IDs, best first). An order that is
	// not a valid permutation of the candidates is ignored here; writes are
	// validated at the service boundary.
	ManualThirdOrder []int
}

// ResolvedMatch is one knockout fixture with everything the source lets us
// know about it. Nil team fields mean "unknown": the feeding chain has not
// produced a team yet. Unknown is an ordinary state, never an error.
type ResolvedMatch struct {
	Match    *models.Match `json:"match"`
	HomeTeam *models.Team  `json:"home_team,omitempty"`
	AwayTeam *models.Team  `json:"away_team,omitempty"`
	Winner   *models.Team  `json:"winner,omitempty"`
	Loser    *models.Team  `json:"-"`
	Decided  bool          `json:"decided"`
}

type BracketResolution struct {
	Standings  map[string][]TeamStanding
	ThirdPlace []ThirdPlaceEntry

	// Slots maps every placeholder code ("1A", "3ABCDF", "W73", "L101") to
	// its team, absent while the code is still unknown.
	Slots map[string]*models.Team

	// Matches is the arena: every knockout match by match number.
	Matches map[int]*ResolvedMatch

	Champion *models.Team
}

// PredictedPair returns the pair a resolution produced for a knockout match.
func (r *BracketResolution) PredictedPair(matchNumber int) (home, away *models.Team) {
	rm := r.Matches[matchNumber]
	if rm == nil {
		return nil, nil
	}
	return rm.HomeTeam, rm.AwayTeam
}

// ResolveBracket walks the knockout stage strictly in ascending match-number
// order, memoizing each match's resolved pair and winner in the arena. Group
// seats resolve only from complete group tables, best-third seats only once
// every group is complete. Whatever cannot be resolved yet stays unknown and
// flows through winner/loser chains as unknown.
func ResolveBracket(params ResolveParams) *BracketResolution {
	topo := params.Topology
	res := &BracketResolution{
		Slots:   make(map[string]*models.Team),
		Matches: make(map[int]*ResolvedMatch),
	}

	teamsByID := make(map[int]*models.Team, len(params.Teams))
	for i := range params.Teams {
		teamsByID[params.Teams[i].ID] = &params.Teams[i]
	}

	res.Standings = ComputeAllStandings(topo.Groups, params.Teams, params.Matches, params.Source)

	allComplete := true
	for _, g := range topo.Groups {
		if !GroupComplete(g, params.Matches, params.Source) {
			allComplete = false
			continue
		}
		table := res.Standings[g]
		for rank := 1; rank <= topo.DirectQualifiersPerGroup && rank <= len(table); rank++ {
			team := table[rank-1].Team
			res.Slots[Slot{Kind: SlotGroupPosition, Rank: rank, Group: g}.String()] = teamsByID[team.ID]
		}
	}

	res.ThirdPlace = RankThirdPlaceTeams(res.Standings, topo.Groups, topo.BestThirdSlots)
	if len(params.ManualThirdOrder) > 0 {
		if reordered, err := ApplyManualThirdPlaceOrder(res.ThirdPlace, params.ManualThirdOrder, topo.BestThirdSlots); err == nil {
			res.ThirdPlace = reordered
		}
	}
	if allComplete && topo.BestThirdSlots > 0 {
		var qualified []ThirdPlaceEntry
		for _, e := range res.ThirdPlace {
			if e.Qualifies {
				qualified = append(qualified, e)
			}
		}
		for code, team := range AssignThirdSeats(topo.ThirdSeats(), qualified) {
			res.Slots[code] = teamsByID[team.ID]
		}
	}

	knockout := make([]*models.Match, 0, len(params.Matches))
	for _, m := range params.Matches {
		if m.Round.IsKnockout() {
			knockout = append(knockout, m)
		}
	}
	sort.Slice(knockout, func(i, j int) bool {
		return knockout[i].MatchNumber < knockout[j].MatchNumber
	})

	for _, m := range knockout {
		rm := &ResolvedMatch{Match: m}
		res.Matches[m.MatchNumber] = rm

		if h, a, ok := params.Source.AssignedTeams(m); ok {
			rm.HomeTeam = teamsByID[h]
			rm.AwayTeam = teamsByID[a]
		} else {
			rm.HomeTeam = res.resolveSlot(m.HomeSlot)
			rm.AwayTeam = res.resolveSlot(m.AwaySlot)
		}

		if result, ok := params.Source.ResultFor(m); ok && rm.HomeTeam != nil && rm.AwayTeam != nil {
			switch {
			case result.HomeGoals > result.AwayGoals:
				rm.Winner, rm.Loser = rm.HomeTeam, rm.AwayTeam
			case result.HomeGoals < result.AwayGoals:
				rm.Winner, rm.Loser = rm.AwayTeam, rm.HomeTeam
			case result.WinnerTeamID == rm.HomeTeam.ID:
				rm.Winner, rm.Loser = rm.HomeTeam, rm.AwayTeam
			case result.WinnerTeamID == rm.AwayTeam.ID:
				rm.Winner, rm.Loser = rm.AwayTeam, rm.HomeTeam
			}
			rm.Decided = rm.Winner != nil
		}

		if rm.Winner != nil {
			res.Slots[Slot{Kind: SlotMatchWinner, MatchNumber: m.MatchNumber}.String()] = rm.Winner
			res.Slots[Slot{Kind: SlotMatchLoser, MatchNumber: m.MatchNumber}.String()] = rm.Loser
		}
	}

	if final := res.Matches[topo.FinalMatchNumber]; final != nil {
		res.Champion = final.Winner
	}

	return res
}

func (r *BracketResolution) resolveSlot(code *string) *models.Team {
	if code == nil {
		return nil
	}
	slot, err := ParseSlot(*code)
	if err != nil {
		return nil
	}
	return r.Slots[slot.String()]
}
