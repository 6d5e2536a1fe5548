package evo

import (
	"fmt"
	"math/rand"

	"leaguebalancer/internal/league"
	"leaguebalancer/internal/model"
)

// DefaultMaxAttempts bounds every repairing operator.
const DefaultMaxAttempts = 100

func attemptsOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxAttempts
	}
	return n
}

func lastReason(err error) string {
	if err == nil {
		return "children violated league invariants"
	}
	return err.Error()
}

// TeamCrossover keeps a prefix of one parent's teams, appends the other
// parent's non-conflicting teams and drafts the rest from unused players.
type TeamCrossover struct {
	MaxAttempts int
}

func (TeamCrossover) Name() string {
	return string(CrossoverTeam)
}

func (c TeamCrossover) Cross(rng *rand.Rand, parent1, parent2 league.Individual) (league.Individual, league.Individual, error) {
	if err := requireFeasible(c.Name(), parent1, parent2); err != nil {
		return league.Individual{}, league.Individual{}, err
	}
	child1, err := c.child(rng, parent1, parent2)
	if err != nil {
		return league.Individual{}, league.Individual{}, err
	}
	child2, err := c.child(rng, parent2, parent1)
	if err != nil {
		return league.Individual{}, league.Individual{}, err
	}
	return child1, child2, nil
}

func (c TeamCrossover) child(rng *rand.Rand, first, second league.Individual) (league.Individual, error) {
	problem := first.Problem()
	numTeams := problem.NumTeams()
	attempts := attemptsOrDefault(c.MaxAttempts)
	firstTeams := first.Teams()
	secondTeams := second.Teams()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		split := 0
		if numTeams > 1 {
			split = 1 + rng.Intn(numTeams-1)
		}

		teams := make([]model.Team, 0, numTeams)
		used := make(map[string]struct{}, problem.LeagueSize())
		for _, team := range firstTeams[:split] {
			teams = append(teams, team)
			markUsed(used, team)
		}
		for _, team := range secondTeams {
			if len(teams) == numTeams {
				break
			}
			if disjoint(used, team) {
				teams = append(teams, team)
				markUsed(used, team)
			}
		}
		if missing := numTeams - len(teams); missing > 0 {
			drafted, err := problem.Draft(rng, missing, used)
			if err != nil {
				lastErr = err
				continue
			}
			teams = append(teams, drafted...)
		}

		child := league.FromTeams(problem, teams)
		if child.Feasible() {
			return child, nil
		}
		lastErr = nil
	}
	return league.Individual{}, exhausted(c.Name(), attempts, lastReason(lastErr))
}

// PositionCrossover pools both parents' players by position, splits every
// pool between the two children and redrafts each child league from its
// half, topped up with unused roster players.
type PositionCrossover struct {
	MaxAttempts int
}

func (PositionCrossover) Name() string {
	return string(CrossoverPosition)
}

func (c PositionCrossover) Cross(rng *rand.Rand, parent1, parent2 league.Individual) (league.Individual, league.Individual, error) {
	if err := requireFeasible(c.Name(), parent1, parent2); err != nil {
		return league.Individual{}, league.Individual{}, err
	}

	problem := parent1.Problem()
	structure := problem.Structure()
	combined := combineByPosition(structure, parent1, parent2)
	attempts := attemptsOrDefault(c.MaxAttempts)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		pool1 := make(model.Roster, len(structure))
		pool2 := make(model.Roster, len(structure))
		for _, pos := range structure.Positions() {
			players := append([]model.Player(nil), combined[pos]...)
			rng.Shuffle(len(players), func(i, j int) {
				players[i], players[j] = players[j], players[i]
			})
			mid := len(players) / 2
			pool1[pos] = players[:mid:mid]
			pool2[pos] = players[mid:]
		}

		child1, err := c.draftChild(rng, problem, structure, pool1)
		if err != nil {
			lastErr = err
			continue
		}
		child2, err := c.draftChild(rng, problem, structure, pool2)
		if err != nil {
			lastErr = err
			continue
		}
		return child1, child2, nil
	}
	return league.Individual{}, league.Individual{}, exhausted(c.Name(), attempts, lastReason(lastErr))
}

func (c PositionCrossover) draftChild(rng *rand.Rand, problem *league.Problem, structure model.TeamStructure, pool model.Roster) (league.Individual, error) {
	for _, pos := range structure.Positions() {
		need := structure[pos]*problem.NumTeams() - len(pool[pos])
		if need <= 0 {
			continue
		}
		have := make(map[string]struct{}, len(pool[pos]))
		for _, p := range pool[pos] {
			have[p.Name] = struct{}{}
		}
		available := problem.Available(pos, have)
		if len(available) < need {
			return league.Individual{}, fmt.Errorf("%w: position %s short by %d for top-up", league.ErrPoolExhausted, pos, need-len(available))
		}
		pool[pos] = append(pool[pos], league.Sample(rng, available, need)...)
	}

	teams, err := league.Draft(rng, pool, structure, problem.Budget(), problem.NumTeams(), nil)
	if err != nil {
		return league.Individual{}, err
	}
	child := league.FromTeams(problem, teams)
	if !child.Feasible() {
		return league.Individual{}, fmt.Errorf("%w: child violates league invariants", league.ErrInvalidTeam)
	}
	return child, nil
}

// combineByPosition lists the distinct players of both parents per
// position, first parent first.
func combineByPosition(structure model.TeamStructure, parents ...league.Individual) model.Roster {
	out := make(model.Roster, len(structure))
	seen := make(map[string]struct{})
	for _, parent := range parents {
		for _, team := range parent.Teams() {
			for _, p := range team.Players() {
				if _, ok := structure[p.Position]; !ok {
					continue
				}
				if _, dup := seen[p.Name]; dup {
					continue
				}
				seen[p.Name] = struct{}{}
				out[p.Position] = append(out[p.Position], p)
			}
		}
	}
	return out
}

func markUsed(used map[string]struct{}, team model.Team) {
	for _, name := range team.PlayerNames() {
		used[name] = struct{}{}
	}
}

func disjoint(used map[string]struct{}, team model.Team) bool {
	for _, name := range team.PlayerNames() {
		if _, taken := used[name]; taken {
			return false
		}
	}
	return true
}
