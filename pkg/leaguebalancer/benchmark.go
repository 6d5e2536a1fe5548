package leaguebalancer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"leaguebalancer/internal/evo"
	"leaguebalancer/internal/league"
	"leaguebalancer/internal/logging"
	"leaguebalancer/internal/model"
	"leaguebalancer/internal/stats"
)

const DefaultRunsPerCombo = 3

// BenchmarkRequest sweeps operator combinations over one league problem.
// Empty operator lists select every registered operator of that kind.
type BenchmarkRequest struct {
	Run          RunRequest `validate:"-"`
	Selections   []string
	Crossovers   []string
	Mutations    []string
	RunsPerCombo int `validate:"gte=0"`
	Workers      int `validate:"gte=0"`
	ExperimentID string
	Notes        string
}

type BenchmarkSummary struct {
	ExperimentID string
	ReportDir    string
	Combos       []stats.ComboResult
	Best         stats.ComboResult
	HasBest      bool
	Elapsed      time.Duration
}

type operatorCombo struct {
	selection string
	crossover string
	mutation  string
}

// Benchmark runs RunsPerCombo seeded runs for every operator combination
// and writes a sweep report. Run r of every combo uses seed Run.Seed+r, so
// combos are compared on the same initial conditions. Runs that end with an
// empty initial population or exhausted crossover count as failures.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if err := c.validate.Struct(req); err != nil {
		return BenchmarkSummary{}, fmt.Errorf("invalid benchmark request: %w", err)
	}
	if req.RunsPerCombo == 0 {
		req.RunsPerCombo = DefaultRunsPerCombo
	}
	if req.Workers == 0 {
		req.Workers = runtime.GOMAXPROCS(0)
	}
	if req.ExperimentID == "" {
		req.ExperimentID = uuid.NewString()
	}

	base := req.Run
	base.Progress = nil
	players, err := c.prepareRun(&base)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	problem, err := league.NewProblemFromPlayers(players, base.Structure, base.Budget, base.NumTeams)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	if err := problem.CheckCapacity(); err != nil {
		return BenchmarkSummary{}, err
	}
	combos, err := enumerateCombos(req, base)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return BenchmarkSummary{}, err
	}

	log := logging.WithExperiment(c.log, req.ExperimentID)
	log.WithFields(logrus.Fields{
		"combos":         len(combos),
		"runs_per_combo": req.RunsPerCombo,
		"workers":        req.Workers,
	}).Info("benchmark started")

	started := c.now()
	results := make([]stats.ComboResult, len(combos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Workers)
	for i, combo := range combos {
		i, combo := i, combo
		g.Go(func() error {
			result, err := c.runCombo(gctx, base, players, combo, req.RunsPerCombo, req.ExperimentID)
			if err != nil {
				return fmt.Errorf("combo %s/%s/%s: %w", combo.selection, combo.crossover, combo.mutation, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BenchmarkSummary{}, err
	}
	finished := c.now()

	report := stats.SweepReport{
		ID:             req.ExperimentID,
		Notes:          req.Notes,
		CreatedAtUTC:   started.UTC().Format(timestampLayout),
		CompletedAtUTC: finished.UTC().Format(timestampLayout),
		RunsPerCombo:   req.RunsPerCombo,
		PopulationSize: base.PopulationSize,
		Generations:    base.Generations,
		Seed:           base.Seed,
		Combos:         results,
	}
	reportDir, err := stats.WriteSweepReport(c.benchmarksDir, report)
	if err != nil {
		return BenchmarkSummary{}, err
	}

	summary := BenchmarkSummary{
		ExperimentID: req.ExperimentID,
		ReportDir:    reportDir,
		Combos:       results,
		Elapsed:      finished.Sub(started),
	}
	summary.Best, summary.HasBest = report.Best()
	log.WithField("elapsed", summary.Elapsed).Info("benchmark finished")
	return summary, nil
}

func (c *Client) runCombo(ctx context.Context, base RunRequest, players []model.Player, combo operatorCombo, runs int, experimentID string) (stats.ComboResult, error) {
	req := base
	req.Selection = combo.selection
	req.Crossover = combo.crossover
	req.Mutation = combo.mutation

	result := stats.ComboResult{
		Selection: combo.selection,
		Crossover: combo.crossover,
		Mutation:  combo.mutation,
		Runs:      runs,
	}
	fitness := make([]float64, 0, runs)
	started := c.now()
	for r := 0; r < runs; r++ {
		req.Seed = base.Seed + int64(r)
		summary, err := c.execute(ctx, req, players, experimentID, false)
		if err != nil {
			if ctx.Err() != nil || !isRunFailure(err) {
				return stats.ComboResult{}, err
			}
			result.Failures++
			continue
		}
		fitness = append(fitness, summary.FinalBestFitness)
		result.RunIDs = append(result.RunIDs, summary.RunID)
	}

	summary := stats.SummarizeFitness(fitness)
	result.MeanFitness = summary.Mean
	result.StdFitness = summary.Std
	result.BestFitness = summary.Min
	result.ElapsedSeconds = c.now().Sub(started).Seconds()
	return result, nil
}

// isRunFailure reports errors that end a single run without invalidating
// the sweep.
func isRunFailure(err error) bool {
	return errors.Is(err, evo.ErrNoInitialPopulation) || errors.Is(err, evo.ErrOperatorExhausted)
}

func enumerateCombos(req BenchmarkRequest, base RunRequest) ([]operatorCombo, error) {
	params := evo.OperatorParams{TournamentK: base.TournamentK, MaxAttempts: base.MaxAttempts}
	selections := req.Selections
	if len(selections) == 0 {
		selections = kindNames(evo.ListSelections())
	}
	crossovers := req.Crossovers
	if len(crossovers) == 0 {
		crossovers = kindNames(evo.ListCrossovers())
	}
	mutations := req.Mutations
	if len(mutations) == 0 {
		mutations = kindNames(evo.ListMutations())
	}
	for _, name := range selections {
		if _, err := evo.ResolveSelector(evo.SelectionKind(name), params); err != nil {
			return nil, err
		}
	}
	for _, name := range crossovers {
		if _, err := evo.ResolveCrossover(evo.CrossoverKind(name), params); err != nil {
			return nil, err
		}
	}
	for _, name := range mutations {
		if _, err := evo.ResolveMutator(evo.MutationKind(name), params); err != nil {
			return nil, err
		}
	}

	combos := make([]operatorCombo, 0, len(selections)*len(crossovers)*len(mutations))
	for _, sel := range selections {
		for _, xo := range crossovers {
			for _, mut := range mutations {
				combos = append(combos, operatorCombo{selection: sel, crossover: xo, mutation: mut})
			}
		}
	}
	return combos, nil
}

func kindNames[K ~string](kinds []K) []string {
	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = string(kind)
	}
	return out
}

// Operators lists the registered operator names by kind.
func Operators() map[string][]string {
	return map[string][]string{
		"selection": kindNames(evo.ListSelections()),
		"crossover": kindNames(evo.ListCrossovers()),
		"mutation":  kindNames(evo.ListMutations()),
	}
}
