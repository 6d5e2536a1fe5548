package league

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"leaguebalancer/internal/model"
)

func testPlayers(counts map[model.Position]int) []model.Player {
	players := make([]model.Player, 0)
	for _, pos := range model.TeamStructure(counts).Positions() {
		for i := 0; i < counts[pos]; i++ {
			players = append(players, model.Player{
				Name:     fmt.Sprintf("%s-%02d", pos, i),
				Position: pos,
				Skill:    float64(60 + (i*7)%35),
				Salary:   float64(80 + (i*13)%60),
			})
		}
	}
	return players
}

func testProblem(t *testing.T, counts map[model.Position]int, budget float64, numTeams int) *Problem {
	t.Helper()
	problem, err := NewProblemFromPlayers(testPlayers(counts), model.DefaultTeamStructure(), budget, numTeams)
	require.NoError(t, err)
	return problem
}

func roomyProblem(t *testing.T) *Problem {
	return testProblem(t, map[model.Position]int{"GK": 8, "DEF": 14, "MID": 14, "FWD": 14}, 1000, 5)
}

func assertLeagueInvariants(t *testing.T, ind Individual) {
	t.Helper()
	problem := ind.Problem()
	require.Equal(t, problem.NumTeams(), ind.NumTeams())
	seen := map[string]struct{}{}
	for _, team := range ind.Teams() {
		assert.True(t, team.IsValid(problem.Structure(), problem.Budget()), team.String())
		for _, name := range team.PlayerNames() {
			_, dup := seen[name]
			assert.False(t, dup, "player %s drafted twice", name)
			seen[name] = struct{}{}
		}
	}
}

func TestNewProblemRejectsBadConfiguration(t *testing.T) {
	roster, err := model.GroupByPosition(testPlayers(map[model.Position]int{"GK": 2}))
	require.NoError(t, err)

	_, err = NewProblem(roster, model.TeamStructure{}, 100, 1)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewProblem(roster, model.TeamStructure{"GK": 1}, 0, 1)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewProblem(roster, model.TeamStructure{"GK": 1}, 100, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	problem, err := NewProblem(roster, model.TeamStructure{"GK": 1}, 100, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, problem.CheckCapacity(), ErrConfiguration)
	assert.Equal(t, 3, problem.LeagueSize())
}

func TestGenerateProducesFeasibleLeague(t *testing.T) {
	problem := roomyProblem(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		ind := Generate(rng, problem)
		require.True(t, ind.Feasible())
		assertLeagueInvariants(t, ind)
		assert.InDelta(t, stat.PopStdDev(ind.AvgSkills(), nil), ind.Fitness(), 1e-12)
		assert.GreaterOrEqual(t, ind.Fitness(), 0.0)
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	problem := roomyProblem(t)
	a := Generate(rand.New(rand.NewSource(7)), problem)
	b := Generate(rand.New(rand.NewSource(7)), problem)
	assert.Equal(t, a.PlayerNames(), b.PlayerNames())
	assert.Equal(t, a.Fitness(), b.Fitness())
}

func TestGenerateWithoutLeague(t *testing.T) {
	problem := testProblem(t, map[model.Position]int{"GK": 5, "DEF": 10, "MID": 10, "FWD": 9}, 1000, 5)
	ind := Generate(rand.New(rand.NewSource(1)), problem)
	assert.False(t, ind.HasLeague())
	assert.False(t, ind.Feasible())
	assert.True(t, math.IsInf(ind.Fitness(), 1))
	assert.Contains(t, ind.String(), "none")
}

func TestEvaluateRejectsBrokenLeagues(t *testing.T) {
	problem := roomyProblem(t)
	ind := Generate(rand.New(rand.NewSource(3)), problem)
	require.True(t, ind.Feasible())
	teams := ind.Teams()

	assert.True(t, math.IsInf(Evaluate(problem, teams[:4]), 1), "short league")
	assert.True(t, math.IsInf(Evaluate(problem, nil), 1), "empty league")

	duplicated := append([]model.Team(nil), teams...)
	duplicated[1] = duplicated[0]
	assert.True(t, math.IsInf(Evaluate(problem, duplicated), 1), "duplicate team")

	broken := append([]model.Team(nil), teams...)
	players := broken[0].Players()
	broken[0] = model.NewTeam(players[1:])
	assert.True(t, math.IsInf(Evaluate(problem, broken), 1), "undersized team")
}

func TestEvaluateEqualSkillsIsZero(t *testing.T) {
	players := make([]model.Player, 0, 4)
	for i := 0; i < 4; i++ {
		players = append(players, model.Player{Name: fmt.Sprintf("p%d", i), Position: "GK", Skill: 70, Salary: 1})
	}
	problem, err := NewProblemFromPlayers(players, model.TeamStructure{"GK": 1}, 10, 4)
	require.NoError(t, err)

	ind := Generate(rand.New(rand.NewSource(5)), problem)
	require.True(t, ind.Feasible())
	assert.Zero(t, ind.Fitness())
}

func TestFromTeamsCopiesInput(t *testing.T) {
	problem := roomyProblem(t)
	source := Generate(rand.New(rand.NewSource(9)), problem)
	teams := source.Teams()

	ind := FromTeams(problem, teams)
	teams[0] = model.Team{}
	assert.True(t, ind.Feasible())
	assert.Equal(t, source.Fitness(), ind.Fitness())
	assert.Equal(t, source.PlayerNames(), ind.PlayerNames())
}

func TestDraftHonoursUsedNames(t *testing.T) {
	problem := roomyProblem(t)
	used := map[string]struct{}{"GK-00": {}, "DEF-03": {}}
	teams, err := Draft(rand.New(rand.NewSource(11)), problem.Roster(), problem.Structure(), problem.Budget(), 2, used)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	for _, team := range teams {
		assert.False(t, team.Has("GK-00"))
		assert.False(t, team.Has("DEF-03"))
	}
	assert.Len(t, used, 2)
}

func TestDraftFailures(t *testing.T) {
	problem := roomyProblem(t)
	rng := rand.New(rand.NewSource(13))

	_, err := Draft(rng, problem.Roster(), problem.Structure(), problem.Budget(), 9, nil)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	_, err = Draft(rng, problem.Roster(), problem.Structure(), 10, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestSampleDoesNotModifyCandidates(t *testing.T) {
	candidates := testPlayers(map[model.Position]int{"MID": 6})
	before := append([]model.Player(nil), candidates...)
	picked := Sample(rand.New(rand.NewSource(17)), candidates, 4)
	assert.Len(t, picked, 4)
	assert.Equal(t, before, candidates)
	assert.Len(t, Sample(rand.New(rand.NewSource(17)), candidates, 10), 6)
	assert.Nil(t, Sample(rand.New(rand.NewSource(17)), candidates, 0))
}

func TestGeneratePopulation(t *testing.T) {
	problem := roomyProblem(t)
	population := GeneratePopulation(rand.New(rand.NewSource(21)), problem, 12, 0)
	require.Len(t, population, 12)
	for _, ind := range population {
		assertLeagueInvariants(t, ind)
	}

	best := Best(population)
	worst := Worst(population)
	for _, fitness := range Fitnesses(population) {
		assert.GreaterOrEqual(t, fitness, population[best].Fitness())
		assert.LessOrEqual(t, fitness, population[worst].Fitness())
	}
}

func TestGeneratePopulationShortRoster(t *testing.T) {
	problem := testProblem(t, map[model.Position]int{"GK": 5, "DEF": 10, "MID": 9, "FWD": 10}, 1000, 5)
	assert.ErrorIs(t, problem.CheckCapacity(), ErrConfiguration)

	population := GeneratePopulation(rand.New(rand.NewSource(23)), problem, 10, 5)
	assert.Empty(t, population)
	assert.Equal(t, -1, Best(population))
}

func TestGeneratePopulationTightBudget(t *testing.T) {
	problem := testProblem(t, map[model.Position]int{"GK": 5, "DEF": 10, "MID": 10, "FWD": 10}, 1, 5)
	assert.NoError(t, problem.CheckCapacity())
	assert.Empty(t, GeneratePopulation(rand.New(rand.NewSource(29)), problem, 4, 3))
}
