package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"leaguebalancer/internal/league"
	"leaguebalancer/internal/logging"
	"leaguebalancer/internal/model"
)

// DefaultMaxReselections caps consecutive crossover exhaustions per
// generation before the run is abandoned.
const DefaultMaxReselections = 50

type MonitorConfig struct {
	Problem         *league.Problem
	Selector        Selector
	Crossover       Crossover
	Mutation        Mutator
	PopulationSize  int
	Generations     int
	CrossoverRate   float64
	MutationRate    float64
	Elitism         bool
	Seed            int64
	MaxReselections int
	Reporter        Reporter
	Logger          logrus.FieldLogger
}

type RunResult struct {
	Best              league.Individual
	BestByGeneration  []float64
	Diagnostics       []model.GenerationDiagnostics
	FinalPopulation   []league.Individual
	InitialPopulation int
}

type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Problem == nil {
		return nil, fmt.Errorf("problem is required")
	}
	if cfg.Selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if cfg.Crossover == nil {
		return nil, fmt.Errorf("crossover operator is required")
	}
	if cfg.Mutation == nil {
		return nil, fmt.Errorf("mutation operator is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if !validRate(cfg.CrossoverRate) {
		return nil, fmt.Errorf("crossover rate must be in [0, 1], got %g", cfg.CrossoverRate)
	}
	if !validRate(cfg.MutationRate) {
		return nil, fmt.Errorf("mutation rate must be in [0, 1], got %g", cfg.MutationRate)
	}
	if cfg.MaxReselections < 0 {
		return nil, fmt.Errorf("max reselections must be >= 0")
	}
	if cfg.MaxReselections == 0 {
		cfg.MaxReselections = DefaultMaxReselections
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = LogReporter{Logger: cfg.Logger}
	}

	return &PopulationMonitor{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && rate >= 0 && rate <= 1
}

// Run generates the initial population from the monitor's seeded source and
// evolves it. It fails with ErrConfiguration when the roster cannot fill the
// league and with ErrNoInitialPopulation when no feasible league was drawn.
func Run(ctx context.Context, cfg MonitorConfig, attemptsPerMember int) (RunResult, error) {
	monitor, err := NewPopulationMonitor(cfg)
	if err != nil {
		return RunResult{}, err
	}
	if err := cfg.Problem.CheckCapacity(); err != nil {
		return RunResult{}, err
	}
	initial := league.GeneratePopulation(monitor.rng, cfg.Problem, cfg.PopulationSize, attemptsPerMember)
	if len(initial) == 0 {
		return RunResult{}, fmt.Errorf("%w: population size %d", ErrNoInitialPopulation, cfg.PopulationSize)
	}
	return monitor.Run(ctx, initial)
}

// Run evolves initial for the configured number of generations. initial may
// be smaller than the population size; offspring fill the gap.
func (m *PopulationMonitor) Run(ctx context.Context, initial []league.Individual) (RunResult, error) {
	if len(initial) == 0 {
		return RunResult{}, ErrNoInitialPopulation
	}
	for i, ind := range initial {
		if !ind.Feasible() {
			return RunResult{}, fmt.Errorf("initial individual %d: %w", i, ErrInfeasibleParent)
		}
	}

	population := append([]league.Individual(nil), initial...)
	best := population[league.Best(population)]
	bestHistory := make([]float64, 0, m.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)

	m.cfg.Logger.WithFields(logrus.Fields{
		"population":  len(population),
		"generations": m.cfg.Generations,
		"selection":   m.cfg.Selector.Name(),
		"crossover":   m.cfg.Crossover.Name(),
		"mutation":    m.cfg.Mutation.Name(),
	}).Debug("evolution started")

	for gen := 1; gen <= m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		fitness := league.Fitnesses(population)
		var elite league.Individual
		if m.cfg.Elitism {
			elite = population[league.Best(population)]
		}

		next, diag, err := m.nextGeneration(population, fitness)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		if len(next) > m.cfg.PopulationSize {
			next = next[:m.cfg.PopulationSize]
		}
		if m.cfg.Elitism {
			next[league.Worst(next)] = elite
			diag.ElitePreserved = true
		}

		summarizeGeneration(&diag, next, gen)
		diagnostics = append(diagnostics, diag)
		bestHistory = append(bestHistory, diag.BestFitness)
		if leader := next[league.Best(next)]; leader.Fitness() < best.Fitness() {
			best = leader
		}
		m.cfg.Reporter.ReportGeneration(ctx, diag)
		population = next
	}

	m.cfg.Logger.WithFields(logrus.Fields{
		"best_fitness": best.Fitness(),
		"generations":  m.cfg.Generations,
	}).Info("evolution finished")

	return RunResult{
		Best:              best,
		BestByGeneration:  bestHistory,
		Diagnostics:       diagnostics,
		FinalPopulation:   population,
		InitialPopulation: len(initial),
	}, nil
}

func (m *PopulationMonitor) nextGeneration(population []league.Individual, fitness []float64) ([]league.Individual, model.GenerationDiagnostics, error) {
	var diag model.GenerationDiagnostics
	next := make([]league.Individual, 0, m.cfg.PopulationSize+1)
	failures := 0

	for len(next) < m.cfg.PopulationSize {
		parents, err := m.cfg.Selector.Select(m.rng, population, fitness, 2)
		if err != nil {
			return nil, diag, fmt.Errorf("select parents: %w", err)
		}
		children := []league.Individual{parents[0], parents[1]}

		if m.rng.Float64() < m.cfg.CrossoverRate {
			child1, child2, err := m.cfg.Crossover.Cross(m.rng, parents[0], parents[1])
			if err != nil {
				if !errors.Is(err, ErrOperatorExhausted) {
					return nil, diag, fmt.Errorf("crossover: %w", err)
				}
				diag.CrossoverFailures++
				failures++
				m.cfg.Logger.WithError(err).WithField("consecutive", failures).Debug("crossover exhausted, reselecting parents")
				if failures > m.cfg.MaxReselections {
					return nil, diag, fmt.Errorf("crossover failed %d consecutive times: %w", failures, err)
				}
				continue
			}
			failures = 0
			diag.Crossovers++
			children[0], children[1] = child1, child2
		} else {
			failures = 0
			diag.Clones += 2
		}

		for _, child := range children {
			if m.rng.Float64() < m.cfg.MutationRate {
				mutated, err := m.cfg.Mutation.Mutate(m.rng, child)
				switch {
				case err == nil:
					child = mutated
					diag.Mutations++
				case errors.Is(err, ErrOperatorExhausted):
					diag.MutationFailures++
					m.cfg.Logger.WithError(err).Debug("mutation exhausted, keeping child")
				default:
					return nil, diag, fmt.Errorf("mutation: %w", err)
				}
			}
			next = append(next, child)
		}
	}
	return next, diag, nil
}

func summarizeGeneration(diag *model.GenerationDiagnostics, population []league.Individual, generation int) {
	fitness := league.Fitnesses(population)
	diag.Generation = generation
	diag.PopulationSize = len(population)
	if len(fitness) == 0 {
		return
	}
	diag.BestFitness = fitness[league.Best(population)]
	diag.WorstFitness = fitness[league.Worst(population)]
	diag.MeanFitness = stat.Mean(fitness, nil)
}
