package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"leaguebalancer/internal/league"
)

const (
	// ZeroFitnessEpsilon stands in for a perfect fitness of 0 so roulette
	// weights stay finite.
	ZeroFitnessEpsilon = 1e-9
	DefaultTournamentK = 3
)

func checkSelectionInput(population []league.Individual, fitness []float64) error {
	if len(population) == 0 {
		return fmt.Errorf("selection requires a non-empty population")
	}
	if len(fitness) != len(population) {
		return fmt.Errorf("fitness length mismatch: got=%d want=%d", len(fitness), len(population))
	}
	return nil
}

// RouletteSelector draws with probability proportional to 1/fitness, so
// lower fitness is more likely.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return string(SelectionRoulette)
}

func (RouletteSelector) Select(rng *rand.Rand, population []league.Individual, fitness []float64, num int) ([]league.Individual, error) {
	if err := checkSelectionInput(population, fitness); err != nil {
		return nil, err
	}

	weights := make([]float64, len(fitness))
	for i, f := range fitness {
		weights[i] = rouletteWeight(f)
	}
	out := make([]league.Individual, 0, max(num, 0))
	for len(out) < num {
		out = append(out, population[weightedChoice(rng, weights)])
	}
	return out, nil
}

func rouletteWeight(f float64) float64 {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0), f < 0:
		return 0
	case f == 0:
		return 1 / ZeroFitnessEpsilon
	default:
		return 1 / f
	}
}

// RankSelector ranks the population worst to best and draws with
// probability proportional to rank.
type RankSelector struct{}

func (RankSelector) Name() string {
	return string(SelectionRank)
}

func (RankSelector) Select(rng *rand.Rand, population []league.Individual, fitness []float64, num int) ([]league.Individual, error) {
	if err := checkSelectionInput(population, fitness); err != nil {
		return nil, err
	}

	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return worseThan(fitness[order[a]], fitness[order[b]])
	})

	weights := make([]float64, len(order))
	for rank, idx := range order {
		weights[idx] = float64(rank + 1)
	}
	out := make([]league.Individual, 0, max(num, 0))
	for len(out) < num {
		out = append(out, population[weightedChoice(rng, weights)])
	}
	return out, nil
}

// worseThan orders higher fitness first; NaN counts as worst.
func worseThan(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a > b
}

// TournamentSelector runs num independent tournaments of K distinct
// individuals and keeps the lowest fitness of each.
type TournamentSelector struct {
	K int
}

func (TournamentSelector) Name() string {
	return string(SelectionTournament)
}

func (s TournamentSelector) Select(rng *rand.Rand, population []league.Individual, fitness []float64, num int) ([]league.Individual, error) {
	if err := checkSelectionInput(population, fitness); err != nil {
		return nil, err
	}

	k := s.K
	if k <= 0 {
		k = DefaultTournamentK
	}
	if k > len(population) {
		k = len(population)
	}

	indices := make([]int, len(population))
	out := make([]league.Individual, 0, max(num, 0))
	for len(out) < num {
		for i := range indices {
			indices[i] = i
		}
		best := -1
		for i := 0; i < k; i++ {
			j := i + rng.Intn(len(indices)-i)
			indices[i], indices[j] = indices[j], indices[i]
			candidate := indices[i]
			if best < 0 || worseThan(fitness[best], fitness[candidate]) {
				best = candidate
			}
		}
		out = append(out, population[best])
	}
	return out, nil
}

// weightedChoice draws an index with probability proportional to its weight,
// uniformly when no weight is positive.
func weightedChoice(rng *rand.Rand, weights []float64) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	return last
}
