package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrDuplicatePlayer  = errors.New("duplicate player name")
	ErrInvalidPlayer    = errors.New("invalid player")
	ErrInvalidStructure = errors.New("invalid team structure")
)

// Position is a player position category such as GK or DEF.
type Position string

type Player struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Skill    float64  `json:"skill"`
	Salary   float64  `json:"salary"`
}

func (p Player) String() string {
	return fmt.Sprintf("%s: %s | Skill: %g | Salary: %gM", p.Position, p.Name, p.Skill, p.Salary)
}

// TeamStructure maps each position to the number of players a team needs there.
type TeamStructure map[Position]int

func (s TeamStructure) Size() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// Positions returns the structure positions in sorted order.
func (s TeamStructure) Positions() []Position {
	out := make([]Position, 0, len(s))
	for pos := range s {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s TeamStructure) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no positions", ErrInvalidStructure)
	}
	for _, pos := range s.Positions() {
		if pos == "" {
			return fmt.Errorf("%w: empty position name", ErrInvalidStructure)
		}
		if s[pos] <= 0 {
			return fmt.Errorf("%w: position %s count must be > 0, got %d", ErrInvalidStructure, pos, s[pos])
		}
	}
	return nil
}

func (s TeamStructure) Clone() TeamStructure {
	out := make(TeamStructure, len(s))
	for pos, count := range s {
		out[pos] = count
	}
	return out
}

// String renders the structure as "DEF=2,FWD=2,GK=1,MID=2".
func (s TeamStructure) String() string {
	parts := make([]string, 0, len(s))
	for _, pos := range s.Positions() {
		parts = append(parts, string(pos)+"="+strconv.Itoa(s[pos]))
	}
	return strings.Join(parts, ",")
}

// ParseTeamStructure parses the String form back into a TeamStructure.
func ParseTeamStructure(raw string) (TeamStructure, error) {
	out := TeamStructure{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected POSITION=COUNT, got %q", ErrInvalidStructure, part)
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: count for %s: %v", ErrInvalidStructure, name, err)
		}
		pos := Position(strings.TrimSpace(name))
		if _, exists := out[pos]; exists {
			return nil, fmt.Errorf("%w: position %s listed twice", ErrInvalidStructure, pos)
		}
		out[pos] = count
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultTeamStructure is the seven-a-side layout used by the league studies.
func DefaultTeamStructure() TeamStructure {
	return TeamStructure{"GK": 1, "DEF": 2, "MID": 2, "FWD": 2}
}
