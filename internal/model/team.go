package model

import (
	"encoding/json"
	"strings"
)

// Team is an immutable group of players. The zero value is an empty team.
type Team struct {
	players []Player
}

// NewTeam copies players into a new team.
func NewTeam(players []Player) Team {
	return Team{players: append([]Player(nil), players...)}
}

func (t Team) Len() int {
	return len(t.players)
}

func (t Team) Players() []Player {
	return append([]Player(nil), t.players...)
}

func (t Team) PlayersAt(pos Position) []Player {
	out := make([]Player, 0, len(t.players))
	for _, p := range t.players {
		if p.Position == pos {
			out = append(out, p)
		}
	}
	return out
}

func (t Team) Has(name string) bool {
	for _, p := range t.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// IsValid reports whether the team matches structure exactly, carries no
// duplicate name and stays within budget.
func (t Team) IsValid(structure TeamStructure, budget float64) bool {
	if len(t.players) != structure.Size() {
		return false
	}

	counts := make(map[Position]int, len(structure))
	seen := make(map[string]struct{}, len(t.players))
	total := 0.0
	for _, p := range t.players {
		if _, dup := seen[p.Name]; dup {
			return false
		}
		seen[p.Name] = struct{}{}
		if _, ok := structure[p.Position]; !ok {
			return false
		}
		counts[p.Position]++
		total += p.Salary
	}
	for pos, want := range structure {
		if counts[pos] != want {
			return false
		}
	}
	return total <= budget
}

func (t Team) AvgSkill() float64 {
	if len(t.players) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range t.players {
		total += p.Skill
	}
	return total / float64(len(t.players))
}

func (t Team) TotalSalary() float64 {
	total := 0.0
	for _, p := range t.players {
		total += p.Salary
	}
	return total
}

func (t Team) PlayerNames() []string {
	out := make([]string, len(t.players))
	for i, p := range t.players {
		out[i] = p.Name
	}
	return out
}

// Replace returns a copy of the team with the player called name swapped for
// incoming. The receiver is left untouched.
func (t Team) Replace(name string, incoming Player) Team {
	out := make([]Player, len(t.players))
	for i, p := range t.players {
		if p.Name == name {
			out[i] = incoming
			continue
		}
		out[i] = p
	}
	return Team{players: out}
}

// Without returns the players whose names are not in names.
func (t Team) Without(names map[string]struct{}) []Player {
	out := make([]Player, 0, len(t.players))
	for _, p := range t.players {
		if _, drop := names[p.Name]; drop {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (t Team) String() string {
	lines := make([]string, len(t.players))
	for i, p := range t.players {
		lines[i] = "  - " + p.String()
	}
	return strings.Join(lines, "\n")
}

func (t Team) MarshalJSON() ([]byte, error) {
	players := t.players
	if players == nil {
		players = []Player{}
	}
	return json.Marshal(players)
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		return err
	}
	t.players = players
	return nil
}
