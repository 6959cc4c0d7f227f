// prediction-league/brackets/thirdplace.go
package brackets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/prediction-league/models"
)

type ThirdPlaceEntry struct {
	Group     string       `json:"group"`
	Standing  TeamStanding `json:"standing"`
	Rank      int          `json:"rank"`
	Qualifies bool         `json:"qualifies"`
}

// RankThirdPlaceTeams pulls row three of every group table and orders the
// rows with the standings comparator, stable by group letter order. The top
// qualifyingSlots entries are flagged as qualifying. Groups whose table has
// fewer than three rows contribute nothing.
func RankThirdPlaceTeams(standings map[string][]TeamStanding, groups []string, qualifyingSlots int) []ThirdPlaceEntry {
	entries := make([]ThirdPlaceEntry, 0, len(groups))
	for _, g := range groups {
		table := standings[g]
		if len(table) < 3 {
			continue
		}
		entries = append(entries, ThirdPlaceEntry{Group: g, Standing: table[2]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return standingsLess(entries[i].Standing, entries[j].Standing)
	})
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Qualifies = i < qualifyingSlots
	}
	return entries
}

// ManualOrderError describes exactly how a submitted third-place order fails
// to be a bijection over the candidate teams.
type ManualOrderError struct {
	Missing    []int
	Unknown    []int
	Duplicated []int
}

func (e *ManualOrderError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing teams %v", e.Missing))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown teams %v", e.Unknown))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated teams %v", e.Duplicated))
	}
	if len(parts) == 0 {
		return "invalid third-place order"
	}
	return "invalid third-place order: " + strings.Join(parts, ", ")
}

// ApplyManualThirdPlaceOrder replaces the computed ranking with a
// user-supplied one. The order must list every candidate team exactly once;
// anything else is rejected with a ManualOrderError naming the defects, and
// the input entries stay untouched.
func ApplyManualThirdPlaceOrder(entries []ThirdPlaceEntry, orderedTeamIDs []int, qualifyingSlots int) ([]ThirdPlaceEntry, error) {
	byTeam := make(map[int]ThirdPlaceEntry, len(entries))
	for _, e := range entries {
		byTeam[e.Standing.Team.ID] = e
	}

	var orderErr ManualOrderError
	seen := make(map[int]bool, len(orderedTeamIDs))
	for _, id := range orderedTeamIDs {
		if _, ok := byTeam[id]; !ok {
			orderErr.Unknown = append(orderErr.Unknown, id)
			continue
		}
		if seen[id] {
			orderErr.Duplicated = append(orderErr.Duplicated, id)
			continue
		}
		seen[id] = true
	}
	for _, e := range entries {
		if !seen[e.Standing.Team.ID] {
			orderErr.Missing = append(orderErr.Missing, e.Standing.Team.ID)
		}
	}
	if len(orderErr.Missing) > 0 || len(orderErr.Unknown) > 0 || len(orderErr.Duplicated) > 0 {
		return nil, &orderErr
	}

	reordered := make([]ThirdPlaceEntry, 0, len(entries))
	for i, id := range orderedTeamIDs {
		e := byTeam[id]
		e.Rank = i + 1
		e.Qualifies = i < qualifyingSlots
		reordered = append(reordered, e)
	}
	return reordered, nil
}

// AssignThirdSeats seats the qualified thirds into the opening round's
// best-third seats. Seats are filled in bracket order, candidates tried in
// ranking order, backtracking until every seat holds a team from its
// candidate groups. If the candidate group sets admit no complete
// assignment, seats are filled in plain ranking order instead.
func AssignThirdSeats(seats []Slot, qualified []ThirdPlaceEntry) map[string]models.Team {
	assigned := make(map[string]models.Team, len(seats))
	if len(seats) == 0 || len(qualified) != len(seats) {
		return assigned
	}

	used := make([]bool, len(qualified))
	picks := make([]int, len(seats))
	var place func(i int) bool
	place = func(i int) bool {
		if i == len(seats) {
			return true
		}
		for c := range qualified {
			if used[c] || !seats[i].HasCandidate(qualified[c].Group) {
				continue
			}
			used[c] = true
			picks[i] = c
			if place(i + 1) {
				return true
			}
			used[c] = false
		}
		return false
	}

	if place(0) {
		for i, seat := range seats {
			assigned[seat.String()] = qualified[picks[i]].Standing.Team
		}
		return assigned
	}

	for i, seat := range seats {
		assigned[seat.String()] = qualified[i].Standing.Team
	}
	return assigned
}
