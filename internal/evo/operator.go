package evo

import (
	"math/rand"

	"leaguebalancer/internal/league"
)

// Selector chooses num parents from a scored population.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, population []league.Individual, fitness []float64, num int) ([]league.Individual, error)
}

// Crossover recombines two feasible parents into two feasible children.
type Crossover interface {
	Name() string
	Cross(rng *rand.Rand, parent1, parent2 league.Individual) (league.Individual, league.Individual, error)
}

// Mutator returns a perturbed copy of a feasible individual.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, ind league.Individual) (league.Individual, error)
}
