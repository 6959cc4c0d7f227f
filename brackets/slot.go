// prediction-league/brackets/slot.go
package brackets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSlot = errors.New("invalid bracket slot")

type SlotKind int

const (
	SlotGroupPosition SlotKind = iota
	SlotBestThird
	SlotMatchWinner
	SlotMatchLoser
)

// Slot is a parsed bracket placeholder. The code grammar:
//
//	"1A", "2B"    position in a group table (rank, then group letter)
//	"3ABCDF"      best-third seat fed by one of the candidate groups
//	"W73", "L101" winner / loser of a match number
//
// Codes are parsed once, when a topology is built or a resolution run starts.
// Resolution itself only ever works on the parsed form.
type Slot struct {
	Kind            SlotKind
	Group           string
	Rank            int
	CandidateGroups []string
	MatchNumber     int
}

func ParseSlot(code string) (Slot, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return Slot{}, fmt.Errorf("%w: %q is too short", ErrInvalidSlot, code)
	}

	switch code[0] {
	case 'W', 'L':
		n, err := strconv.Atoi(code[1:])
		if err != nil || n < 1 {
			return Slot{}, fmt.Errorf("%w: %q has no match number", ErrInvalidSlot, code)
		}
		kind := SlotMatchWinner
		if code[0] == 'L' {
			kind = SlotMatchLoser
		}
		return Slot{Kind: kind, MatchNumber: n}, nil

	case '1', '2':
		if len(code) != 2 || !isGroupLetter(code[1]) {
			return Slot{}, fmt.Errorf("%w: %q is not a group position", ErrInvalidSlot, code)
		}
		return Slot{
			Kind:  SlotGroupPosition,
			Rank:  int(code[0] - '0'),
			Group: string(code[1]),
		}, nil

	case '3':
		groups := make([]string, 0, len(code)-1)
		seen := make(map[byte]bool, len(code)-1)
		for i := 1; i < len(code); i++ {
			c := code[i]
			if !isGroupLetter(c) || seen[c] {
				return Slot{}, fmt.Errorf("%w: %q has a bad candidate group list", ErrInvalidSlot, code)
			}
			seen[c] = true
			groups = append(groups, string(c))
		}
		return Slot{Kind: SlotBestThird, CandidateGroups: groups}, nil
	}

	return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, code)
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotGroupPosition:
		return fmt.Sprintf("%d%s", s.Rank, s.Group)
	case SlotBestThird:
		return "3" + strings.Join(s.CandidateGroups, "")
	case SlotMatchWinner:
		return fmt.Sprintf("W%d", s.MatchNumber)
	case SlotMatchLoser:
		return fmt.Sprintf("L%d", s.MatchNumber)
	}
	return ""
}

// HasCandidate reports whether a best-third seat accepts the given group.
func (s Slot) HasCandidate(group string) bool {
	for _, g := range s.CandidateGroups {
		if g == group {
			return true
		}
	}
	return false
}

func isGroupLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
