package league

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/stat"

	"leaguebalancer/internal/model"
)

// Individual is one candidate league. Fitness is computed once at
// construction; an Individual without a league, or violating any league
// invariant, has fitness +Inf.
type Individual struct {
	problem *Problem
	teams   []model.Team
	fitness float64
}

// Generate drafts a random league from the whole roster. When drafting fails
// the returned individual has no league and infinite fitness.
func Generate(rng *rand.Rand, problem *Problem) Individual {
	teams, err := problem.Draft(rng, problem.numTeams, nil)
	if err != nil {
		return Individual{problem: problem, fitness: math.Inf(1)}
	}
	return Individual{problem: problem, teams: teams, fitness: Evaluate(problem, teams)}
}

// FromTeams builds an individual around an explicit team sequence.
func FromTeams(problem *Problem, teams []model.Team) Individual {
	owned := make([]model.Team, len(teams))
	for i, team := range teams {
		owned[i] = model.NewTeam(team.Players())
	}
	return Individual{problem: problem, teams: owned, fitness: Evaluate(problem, owned)}
}

// Evaluate returns the population standard deviation of per-team average
// skill, or +Inf when teams do not form a valid league for problem.
func Evaluate(problem *Problem, teams []model.Team) float64 {
	if len(teams) == 0 || len(teams) != problem.numTeams {
		return math.Inf(1)
	}

	avgSkills := make([]float64, 0, len(teams))
	used := make(map[string]struct{}, problem.LeagueSize())
	for _, team := range teams {
		if !team.IsValid(problem.structure, problem.budget) {
			return math.Inf(1)
		}
		for _, name := range team.PlayerNames() {
			if _, dup := used[name]; dup {
				return math.Inf(1)
			}
			used[name] = struct{}{}
		}
		avgSkills = append(avgSkills, team.AvgSkill())
	}
	return stat.PopStdDev(avgSkills, nil)
}

func (i Individual) Problem() *Problem {
	return i.problem
}

func (i Individual) Fitness() float64 {
	return i.fitness
}

// HasLeague is false for individuals whose generation did not complete.
func (i Individual) HasLeague() bool {
	return i.teams != nil
}

// Feasible reports whether every league invariant holds.
func (i Individual) Feasible() bool {
	return i.teams != nil && !math.IsInf(i.fitness, 1) && !math.IsNaN(i.fitness)
}

func (i Individual) NumTeams() int {
	return len(i.teams)
}

// Team returns the team at idx.
func (i Individual) Team(idx int) model.Team {
	return i.teams[idx]
}

// Teams returns a copy of the team sequence.
func (i Individual) Teams() []model.Team {
	if i.teams == nil {
		return nil
	}
	return append([]model.Team(nil), i.teams...)
}

// PlayerNames lists every player name in league order.
func (i Individual) PlayerNames() []string {
	out := make([]string, 0, len(i.teams)*i.problem.structure.Size())
	for _, team := range i.teams {
		out = append(out, team.PlayerNames()...)
	}
	return out
}

// UsedNames returns the set of player names in the league.
func (i Individual) UsedNames() map[string]struct{} {
	out := make(map[string]struct{}, len(i.teams)*i.problem.structure.Size())
	for _, team := range i.teams {
		for _, name := range team.PlayerNames() {
			out[name] = struct{}{}
		}
	}
	return out
}

// AvgSkills lists per-team average skill in league order.
func (i Individual) AvgSkills() []float64 {
	out := make([]float64, len(i.teams))
	for idx, team := range i.teams {
		out[idx] = team.AvgSkill()
	}
	return out
}

// Snapshot converts the individual into its persisted form.
func (i Individual) Snapshot(runID string) model.LeagueSnapshot {
	return model.LeagueSnapshot{
		RunID:   runID,
		Fitness: i.fitness,
		Teams:   i.Teams(),
	}
}

func (i Individual) String() string {
	if !i.HasLeague() {
		return "<league none fitness=+Inf>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<league fitness=%.4f>", i.fitness)
	for idx, team := range i.teams {
		fmt.Fprintf(&b, "\nTeam %d | avg skill %.2f | salary %.2f\n%s", idx+1, team.AvgSkill(), team.TotalSalary(), team)
	}
	return b.String()
}
