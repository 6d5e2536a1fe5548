// Package league holds the candidate-solution representation of the search:
// a league partitioning the roster into structurally valid teams.
package league

import (
	"errors"
	"fmt"
	"math"

	"leaguebalancer/internal/model"
)

var (
	// ErrConfiguration reports a structure, budget, team count or roster that
	// cannot support the requested league at all.
	ErrConfiguration = errors.New("invalid league configuration")
	ErrPoolExhausted = errors.New("not enough eligible players")
	ErrInvalidTeam   = errors.New("drafted team is invalid")
)

// Problem is the immutable context shared by every individual of a search.
type Problem struct {
	roster    model.Roster
	structure model.TeamStructure
	budget    float64
	numTeams  int
}

func NewProblem(roster model.Roster, structure model.TeamStructure, budget float64, numTeams int) (*Problem, error) {
	if err := structure.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if budget <= 0 || math.IsNaN(budget) {
		return nil, fmt.Errorf("%w: budget must be > 0, got %g", ErrConfiguration, budget)
	}
	if numTeams <= 0 {
		return nil, fmt.Errorf("%w: team count must be > 0, got %d", ErrConfiguration, numTeams)
	}
	return &Problem{
		roster:    roster.Clone(),
		structure: structure.Clone(),
		budget:    budget,
		numTeams:  numTeams,
	}, nil
}

// NewProblemFromPlayers groups players by position and builds a Problem.
func NewProblemFromPlayers(players []model.Player, structure model.TeamStructure, budget float64, numTeams int) (*Problem, error) {
	roster, err := model.GroupByPosition(players)
	if err != nil {
		return nil, err
	}
	return NewProblem(roster, structure, budget, numTeams)
}

// CheckCapacity reports ErrConfiguration when some position has fewer
// players than the league needs.
func (p *Problem) CheckCapacity() error {
	for _, pos := range p.structure.Positions() {
		need := p.structure[pos] * p.numTeams
		if have := p.roster.Count(pos); have < need {
			return fmt.Errorf("%w: position %s needs %d players for %d teams, roster has %d",
				ErrConfiguration, pos, need, p.numTeams, have)
		}
	}
	return nil
}

func (p *Problem) Roster() model.Roster {
	return p.roster.Clone()
}

func (p *Problem) Structure() model.TeamStructure {
	return p.structure.Clone()
}

func (p *Problem) Budget() float64 {
	return p.budget
}

func (p *Problem) NumTeams() int {
	return p.numTeams
}

// LeagueSize is the number of players a complete league uses.
func (p *Problem) LeagueSize() int {
	return p.structure.Size() * p.numTeams
}

// Available returns the roster players at pos whose names are not in used.
func (p *Problem) Available(pos model.Position, used map[string]struct{}) []model.Player {
	return p.roster.Available(pos, used)
}
