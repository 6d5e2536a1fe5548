package evo

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguebalancer/internal/league"
	"leaguebalancer/internal/model"
)

func TestCrossoversProduceFeasibleChildren(t *testing.T) {
	for _, problem := range []*league.Problem{roomyProblem(t), exactProblem(t)} {
		for _, op := range []Crossover{TeamCrossover{}, PositionCrossover{}} {
			rng := rand.New(rand.NewSource(42))
			for seed := int64(0); seed < 10; seed++ {
				p1 := feasibleIndividual(t, problem, seed)
				p2 := feasibleIndividual(t, problem, seed+1000)
				c1, c2, err := op.Cross(rng, p1, p2)
				require.NoError(t, err, op.Name())
				requireValidLeague(t, c1)
				requireValidLeague(t, c2)
			}
		}
	}
}

func TestTeamCrossoverKeepsFirstParentPrefix(t *testing.T) {
	problem := roomyProblem(t)
	p1 := feasibleIndividual(t, problem, 1)
	p2 := feasibleIndividual(t, problem, 2)

	c1, _, err := TeamCrossover{}.Cross(rand.New(rand.NewSource(5)), p1, p2)
	require.NoError(t, err)
	assert.Equal(t, p1.Team(0).PlayerNames(), c1.Team(0).PlayerNames())
}

func TestTeamCrossoverSingleTeamLeague(t *testing.T) {
	problem, err := league.NewProblemFromPlayers(
		rosterPlayers(map[model.Position]int{"GK": 2, "DEF": 3, "MID": 3, "FWD": 3}, variedSkill),
		model.DefaultTeamStructure(), 1000, 1)
	require.NoError(t, err)
	p1 := feasibleIndividual(t, problem, 1)
	p2 := feasibleIndividual(t, problem, 2)

	c1, c2, err := TeamCrossover{}.Cross(rand.New(rand.NewSource(5)), p1, p2)
	require.NoError(t, err)
	assert.Equal(t, p2.PlayerNames(), c1.PlayerNames())
	assert.Equal(t, p1.PlayerNames(), c2.PlayerNames())
}

func TestCrossoverRejectsInfeasibleParent(t *testing.T) {
	problem := roomyProblem(t)
	good := feasibleIndividual(t, problem, 1)
	bad := league.FromTeams(problem, good.Teams()[:2])
	rng := rand.New(rand.NewSource(1))

	for _, op := range []Crossover{TeamCrossover{}, PositionCrossover{}} {
		_, _, err := op.Cross(rng, good, bad)
		assert.ErrorIs(t, err, ErrInfeasibleParent, op.Name())
	}
}

func TestExhaustedError(t *testing.T) {
	err := exhausted("team", 7, "pool ran dry")
	assert.True(t, errors.Is(err, ErrOperatorExhausted))

	var exhaustedErr *ExhaustedError
	require.True(t, errors.As(err, &exhaustedErr))
	assert.Equal(t, "team", exhaustedErr.Operator)
	assert.Equal(t, 7, exhaustedErr.Attempts)
	assert.Contains(t, err.Error(), "pool ran dry")
	assert.NotContains(t, (&ExhaustedError{Operator: "x", Attempts: 1}).Error(), ": :")
}
