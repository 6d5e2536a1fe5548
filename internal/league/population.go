package league

import "math/rand"

// DefaultAttemptsPerMember bounds GeneratePopulation to size*100 tries.
const DefaultAttemptsPerMember = 100

// GeneratePopulation draws up to size feasible individuals, trying at most
// size*attemptsPerMember times. It returns whatever feasible individuals it
// found, which may be fewer than size or none.
func GeneratePopulation(rng *rand.Rand, problem *Problem, size, attemptsPerMember int) []Individual {
	if size <= 0 {
		return []Individual{}
	}
	if attemptsPerMember <= 0 {
		attemptsPerMember = DefaultAttemptsPerMember
	}

	population := make([]Individual, 0, size)
	maxAttempts := size * attemptsPerMember
	for attempt := 0; attempt < maxAttempts && len(population) < size; attempt++ {
		candidate := Generate(rng, problem)
		if candidate.Feasible() {
			population = append(population, candidate)
		}
	}
	return population
}

// Best returns the index of the lowest-fitness individual; ties keep the
// earliest. It returns -1 for an empty slice.
func Best(population []Individual) int {
	best := -1
	for i, ind := range population {
		if best < 0 || ind.fitness < population[best].fitness {
			best = i
		}
	}
	return best
}

// Worst returns the index of the highest-fitness individual; ties keep the
// earliest. It returns -1 for an empty slice.
func Worst(population []Individual) int {
	worst := -1
	for i, ind := range population {
		if worst < 0 || ind.fitness > population[worst].fitness {
			worst = i
		}
	}
	return worst
}

// Fitnesses lists fitness values in population order.
func Fitnesses(population []Individual) []float64 {
	out := make([]float64, len(population))
	for i, ind := range population {
		out[i] = ind.fitness
	}
	return out
}
