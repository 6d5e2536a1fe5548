package evo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguebalancer/internal/league"
)

func selectionPopulation(t *testing.T, n int) []league.Individual {
	problem := roomyProblem(t)
	population := make([]league.Individual, n)
	for i := range population {
		population[i] = feasibleIndividual(t, problem, int64(100+i))
	}
	return population
}

func TestSelectorsRejectBadInput(t *testing.T) {
	population := selectionPopulation(t, 2)
	rng := rand.New(rand.NewSource(1))
	for _, selector := range []Selector{RouletteSelector{}, RankSelector{}, TournamentSelector{K: 2}} {
		_, err := selector.Select(rng, nil, nil, 2)
		assert.Error(t, err, selector.Name())
		_, err = selector.Select(rng, population, []float64{1}, 2)
		assert.Error(t, err, selector.Name())

		picked, err := selector.Select(rng, population, []float64{1, 2}, 5)
		require.NoError(t, err, selector.Name())
		assert.Len(t, picked, 5)
	}
}

func TestTournamentWithFullPoolReturnsBest(t *testing.T) {
	population := selectionPopulation(t, 4)
	fitness := []float64{5, 3, 1, 4}
	rng := rand.New(rand.NewSource(42))

	for _, k := range []int{4, 10} {
		picked, err := TournamentSelector{K: k}.Select(rng, population, fitness, 6)
		require.NoError(t, err)
		for _, ind := range picked {
			assert.Equal(t, population[2].PlayerNames(), ind.PlayerNames())
		}
	}
}

func TestRoulettePrefersLowFitness(t *testing.T) {
	population := selectionPopulation(t, 3)
	rng := rand.New(rand.NewSource(7))

	picked, err := RouletteSelector{}.Select(rng, population, []float64{0, 50, math.Inf(1)}, 200)
	require.NoError(t, err)
	for _, ind := range picked {
		assert.Equal(t, population[0].PlayerNames(), ind.PlayerNames())
	}
}

func TestRouletteAllInfiniteIsUniform(t *testing.T) {
	population := selectionPopulation(t, 3)
	rng := rand.New(rand.NewSource(9))
	inf := math.Inf(1)

	counts := map[int]int{}
	picked, err := RouletteSelector{}.Select(rng, population, []float64{inf, inf, inf}, 300)
	require.NoError(t, err)
	for _, ind := range picked {
		for i := range population {
			if assert.ObjectsAreEqual(population[i].PlayerNames(), ind.PlayerNames()) {
				counts[i]++
			}
		}
	}
	assert.Len(t, counts, 3)
}

func TestRankFavoursBetterIndividuals(t *testing.T) {
	population := selectionPopulation(t, 3)
	rng := rand.New(rand.NewSource(11))

	counts := make([]int, 3)
	picked, err := RankSelector{}.Select(rng, population, []float64{9, 1, 5}, 3000)
	require.NoError(t, err)
	for _, ind := range picked {
		for i := range population {
			if assert.ObjectsAreEqual(population[i].PlayerNames(), ind.PlayerNames()) {
				counts[i]++
			}
		}
	}
	assert.Greater(t, counts[1], counts[2])
	assert.Greater(t, counts[2], counts[0])
}

func TestWeightedChoice(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 2, weightedChoice(rng, []float64{0, 0, 1}))
	}
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[weightedChoice(rng, []float64{0, 0, 0})] = true
	}
	assert.Len(t, seen, 3)
}

func TestRouletteWeight(t *testing.T) {
	assert.Equal(t, 1/ZeroFitnessEpsilon, rouletteWeight(0))
	assert.Equal(t, 0.5, rouletteWeight(2))
	assert.Zero(t, rouletteWeight(math.Inf(1)))
	assert.Zero(t, rouletteWeight(math.NaN()))
}
