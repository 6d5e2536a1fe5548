package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Roster is the player pool grouped by position.
type Roster map[Position][]Player

// GroupByPosition builds a roster, rejecting empty or duplicate names and
// non-finite numeric attributes. Input order is kept within each position.
func GroupByPosition(players []Player) (Roster, error) {
	roster := make(Roster)
	seen := make(map[string]struct{}, len(players))
	for i, p := range players {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: player %d has no name", ErrInvalidPlayer, i)
		}
		if p.Position == "" {
			return nil, fmt.Errorf("%w: player %s has no position", ErrInvalidPlayer, p.Name)
		}
		if math.IsNaN(p.Skill) || math.IsInf(p.Skill, 0) {
			return nil, fmt.Errorf("%w: player %s skill must be finite", ErrInvalidPlayer, p.Name)
		}
		if math.IsNaN(p.Salary) || math.IsInf(p.Salary, 0) || p.Salary < 0 {
			return nil, fmt.Errorf("%w: player %s salary must be finite and >= 0", ErrInvalidPlayer, p.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.Name)
		}
		seen[p.Name] = struct{}{}
		roster[p.Position] = append(roster[p.Position], p)
	}
	return roster, nil
}

func (r Roster) Positions() []Position {
	out := make([]Position, 0, len(r))
	for pos := range r {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r Roster) Count(pos Position) int {
	return len(r[pos])
}

func (r Roster) Len() int {
	total := 0
	for _, players := range r {
		total += len(players)
	}
	return total
}

// Players flattens the roster, positions in sorted order.
func (r Roster) Players() []Player {
	out := make([]Player, 0, r.Len())
	for _, pos := range r.Positions() {
		out = append(out, r[pos]...)
	}
	return out
}

// Available returns the players at pos whose names are not in used.
func (r Roster) Available(pos Position, used map[string]struct{}) []Player {
	out := make([]Player, 0, len(r[pos]))
	for _, p := range r[pos] {
		if _, taken := used[p.Name]; taken {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for pos, players := range r {
		out[pos] = append([]Player(nil), players...)
	}
	return out
}
