package evo

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"leaguebalancer/internal/league"
	"leaguebalancer/internal/model"
)

func rosterPlayers(counts map[model.Position]int, skill func(pos model.Position, i int) float64) []model.Player {
	players := make([]model.Player, 0)
	for _, pos := range model.TeamStructure(counts).Positions() {
		for i := 0; i < counts[pos]; i++ {
			players = append(players, model.Player{
				Name:     fmt.Sprintf("%s-%02d", pos, i),
				Position: pos,
				Skill:    skill(pos, i),
				Salary:   float64(80 + (i*13)%60),
			})
		}
	}
	return players
}

func variedSkill(_ model.Position, i int) float64 {
	return float64(55 + (i*17)%40)
}

func newProblem(t *testing.T, counts map[model.Position]int, budget float64, numTeams int, skill func(model.Position, int) float64) *league.Problem {
	t.Helper()
	problem, err := league.NewProblemFromPlayers(rosterPlayers(counts, skill), model.DefaultTeamStructure(), budget, numTeams)
	require.NoError(t, err)
	return problem
}

func roomyProblem(t *testing.T) *league.Problem {
	return newProblem(t, map[model.Position]int{"GK": 8, "DEF": 14, "MID": 14, "FWD": 14}, 1000, 5, variedSkill)
}

func exactProblem(t *testing.T) *league.Problem {
	return newProblem(t, map[model.Position]int{"GK": 5, "DEF": 10, "MID": 10, "FWD": 10}, 1000, 5, variedSkill)
}

func feasibleIndividual(t *testing.T, problem *league.Problem, seed int64) league.Individual {
	t.Helper()
	ind := league.Generate(rand.New(rand.NewSource(seed)), problem)
	require.True(t, ind.Feasible())
	return ind
}

func requireValidLeague(t *testing.T, ind league.Individual) {
	t.Helper()
	problem := ind.Problem()
	require.True(t, ind.Feasible())
	require.Equal(t, problem.NumTeams(), ind.NumTeams())
	seen := map[string]struct{}{}
	for _, team := range ind.Teams() {
		require.True(t, team.IsValid(problem.Structure(), problem.Budget()), team.String())
		for _, name := range team.PlayerNames() {
			_, dup := seen[name]
			require.False(t, dup, "player %s appears twice", name)
			seen[name] = struct{}{}
		}
	}
}

func sortedNames(ind league.Individual) []string {
	names := ind.PlayerNames()
	sort.Strings(names)
	return names
}
