package leaguebalancer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leaguebalancer/internal/dataextract"
	"leaguebalancer/internal/evo"
	"leaguebalancer/internal/league"
	"leaguebalancer/internal/logging"
	"leaguebalancer/internal/model"
	"leaguebalancer/internal/stats"
	"leaguebalancer/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "leaguebalancer.db"
	defaultRunsLimit     = 20

	DefaultNumTeams       = 5
	DefaultBudget         = 750
	DefaultPopulationSize = 30
	DefaultGenerations    = 50
	DefaultCrossoverRate  = 0.9
	DefaultMutationRate   = 0.2
)

// timestampLayout keeps a fixed width so stored timestamps sort as strings.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var errNoRuns = errors.New("no runs available")

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        logrus.FieldLogger
}

type Client struct {
	store    storage.Store
	log      logrus.FieldLogger
	validate *validator.Validate
	now      func() time.Time

	benchmarksDir string
	exportsDir    string

	initMu      sync.Mutex
	initialized bool
}

// RunRequest describes one league problem and the evolution settings used to
// solve it. Either RosterPath or Players supplies the roster. Zero values of
// fields that cannot be zero select the defaults; rates are taken as given.
type RunRequest struct {
	RosterPath        string              `validate:"required_without=Players"`
	Players           []model.Player      `validate:"required_without=RosterPath"`
	Structure         model.TeamStructure `validate:"required"`
	Budget            float64             `validate:"gt=0"`
	NumTeams          int                 `validate:"gte=1"`
	Selection         string              `validate:"required"`
	TournamentK       int                 `validate:"gte=0"`
	Crossover         string              `validate:"required"`
	Mutation          string              `validate:"required"`
	PopulationSize    int                 `validate:"gte=1"`
	Generations       int                 `validate:"gte=1"`
	CrossoverRate     float64             `validate:"gte=0,lte=1"`
	MutationRate      float64             `validate:"gte=0,lte=1"`
	DisableElitism    bool
	Seed              int64
	AttemptsPerMember int `validate:"gte=0"`
	MaxAttempts       int `validate:"gte=0"`
	TriesPerTeam      int `validate:"gte=0"`
	MaxPairs          int `validate:"gte=0"`
	MaxReselections   int `validate:"gte=0"`
	// Progress, when set, receives every generation summary.
	Progress evo.Reporter `validate:"-"`
}

// DefaultRunRequest returns the settings of the reference study.
func DefaultRunRequest() RunRequest {
	return RunRequest{
		Structure:      model.DefaultTeamStructure(),
		Budget:         DefaultBudget,
		NumTeams:       DefaultNumTeams,
		Selection:      string(evo.SelectionTournament),
		TournamentK:    evo.DefaultTournamentK,
		Crossover:      string(evo.CrossoverTeam),
		Mutation:       string(evo.MutationSwap),
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		CrossoverRate:  DefaultCrossoverRate,
		MutationRate:   DefaultMutationRate,
	}
}

type RunSummary struct {
	RunID             string
	ArtifactsDir      string
	BestByGeneration  []float64
	FinalBestFitness  float64
	InitialPopulation int
	Best              model.LeagueSnapshot
	Elapsed           time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	ExperimentID     string
	CreatedAtUTC     string
	Selection        string
	Crossover        string
	Mutation         string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type LeagueRequest struct {
	RunID  string
	Latest bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		log:           log,
		validate:      validator.New(),
		now:           time.Now,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run solves one league problem, persists the run to the store and writes
// its artifacts under the benchmarks directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	players, err := c.prepareRun(&req)
	if err != nil {
		return RunSummary{}, err
	}
	return c.execute(ctx, req, players, "", true)
}

func (c *Client) prepareRun(req *RunRequest) ([]model.Player, error) {
	applyRunDefaults(req)
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid run request: %w", err)
	}
	if err := req.Structure.Validate(); err != nil {
		return nil, err
	}
	if req.Players != nil {
		return req.Players, nil
	}
	players, err := dataextract.LoadRoster(req.RosterPath)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return players, nil
}

func applyRunDefaults(req *RunRequest) {
	defaults := DefaultRunRequest()
	if req.Structure == nil {
		req.Structure = defaults.Structure
	}
	if req.Budget == 0 {
		req.Budget = defaults.Budget
	}
	if req.NumTeams == 0 {
		req.NumTeams = defaults.NumTeams
	}
	if req.Selection == "" {
		req.Selection = defaults.Selection
	}
	if req.Crossover == "" {
		req.Crossover = defaults.Crossover
	}
	if req.Mutation == "" {
		req.Mutation = defaults.Mutation
	}
	if req.PopulationSize == 0 {
		req.PopulationSize = defaults.PopulationSize
	}
	if req.Generations == 0 {
		req.Generations = defaults.Generations
	}
}

func (c *Client) execute(ctx context.Context, req RunRequest, players []model.Player, experimentID string, writeArtifacts bool) (RunSummary, error) {
	problem, err := league.NewProblemFromPlayers(players, req.Structure, req.Budget, req.NumTeams)
	if err != nil {
		return RunSummary{}, err
	}
	params := evo.OperatorParams{
		TournamentK:  req.TournamentK,
		MaxAttempts:  req.MaxAttempts,
		TriesPerTeam: req.TriesPerTeam,
		MaxPairs:     req.MaxPairs,
	}
	selector, err := evo.ResolveSelector(evo.SelectionKind(req.Selection), params)
	if err != nil {
		return RunSummary{}, err
	}
	crossover, err := evo.ResolveCrossover(evo.CrossoverKind(req.Crossover), params)
	if err != nil {
		return RunSummary{}, err
	}
	mutation, err := evo.ResolveMutator(evo.MutationKind(req.Mutation), params)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	log := logging.WithOperators(logging.WithRun(c.log, runID), req.Selection, req.Crossover, req.Mutation)
	if experimentID != "" {
		log = logging.WithExperiment(log, experimentID)
	}
	reporter := evo.Reporter(evo.LogReporter{Logger: log})
	if req.Progress != nil {
		reporter = evo.MultiReporter{reporter, req.Progress}
	}

	started := c.now()
	result, err := evo.Run(ctx, evo.MonitorConfig{
		Problem:         problem,
		Selector:        selector,
		Crossover:       crossover,
		Mutation:        mutation,
		PopulationSize:  req.PopulationSize,
		Generations:     req.Generations,
		CrossoverRate:   req.CrossoverRate,
		MutationRate:    req.MutationRate,
		Elitism:         !req.DisableElitism,
		Seed:            req.Seed,
		MaxReselections: req.MaxReselections,
		Reporter:        reporter,
		Logger:          log,
	}, req.AttemptsPerMember)
	if err != nil {
		log.WithError(err).Warn("run failed")
		return RunSummary{}, err
	}
	elapsed := c.now().Sub(started)
	createdAt := started.UTC().Format(timestampLayout)

	best := result.Best.Snapshot(runID)
	best.VersionedRecord = storage.CurrentVersion()
	record := model.RunRecord{
		VersionedRecord:   storage.CurrentVersion(),
		ID:                runID,
		ExperimentID:      experimentID,
		CreatedAtUTC:      createdAt,
		Selection:         req.Selection,
		TournamentK:       req.TournamentK,
		Crossover:         req.Crossover,
		Mutation:          req.Mutation,
		Structure:         req.Structure.Clone(),
		Budget:            req.Budget,
		NumTeams:          req.NumTeams,
		RosterSize:        len(players),
		PopulationSize:    req.PopulationSize,
		InitialPopulation: result.InitialPopulation,
		Generations:       req.Generations,
		CrossoverRate:     req.CrossoverRate,
		MutationRate:      req.MutationRate,
		Elitism:           !req.DisableElitism,
		Seed:              req.Seed,
		BestFitness:       best.Fitness,
		ElapsedMS:         elapsed.Milliseconds(),
	}
	if err := c.persist(ctx, record, result, best); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:             runID,
		BestByGeneration:  append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness:  best.Fitness,
		InitialPopulation: result.InitialPopulation,
		Best:              best,
		Elapsed:           elapsed,
	}
	if !writeArtifacts {
		return summary, nil
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			ExperimentID:   experimentID,
			CreatedAtUTC:   createdAt,
			RosterPath:     req.RosterPath,
			RosterSize:     len(players),
			Structure:      req.Structure.Clone(),
			Budget:         req.Budget,
			NumTeams:       req.NumTeams,
			Selection:      req.Selection,
			TournamentK:    req.TournamentK,
			Crossover:      req.Crossover,
			Mutation:       req.Mutation,
			PopulationSize: req.PopulationSize,
			Generations:    req.Generations,
			CrossoverRate:  req.CrossoverRate,
			MutationRate:   req.MutationRate,
			Elitism:        !req.DisableElitism,
			Seed:           req.Seed,
		},
		BestByGeneration: result.BestByGeneration,
		Diagnostics:      result.Diagnostics,
		FinalBestFitness: best.Fitness,
		BestLeague:       best,
	})
	if err != nil {
		return RunSummary{}, err
	}
	summary.ArtifactsDir = filepath.Clean(runDir)
	return summary, nil
}

func (c *Client) persist(ctx context.Context, record model.RunRecord, result evo.RunResult, best model.LeagueSnapshot) error {
	if err := c.store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, record.ID, result.BestByGeneration); err != nil {
		return fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, record.ID, result.Diagnostics); err != nil {
		return fmt.Errorf("save diagnostics: %w", err)
	}
	if err := c.store.SaveLeague(ctx, best); err != nil {
		return fmt.Errorf("save league: %w", err)
	}
	return nil
}

// Runs lists stored runs, newest first. When the store holds no runs, as
// with a fresh memory store, the on-disk run index is listed instead.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if req.Limit == 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return c.indexedRuns(req.Limit)
	}

	out := make([]RunItem, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		r := runs[i]
		out = append(out, RunItem{
			RunID:            r.ID,
			ExperimentID:     r.ExperimentID,
			CreatedAtUTC:     r.CreatedAtUTC,
			Selection:        r.Selection,
			Crossover:        r.Crossover,
			Mutation:         r.Mutation,
			Seed:             r.Seed,
			Population:       r.PopulationSize,
			Generations:      r.Generations,
			FinalBestFitness: r.BestFitness,
		})
	}
	return out, nil
}

func (c *Client) indexedRuns(limit int) ([]RunItem, error) {
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			ExperimentID:     e.ExperimentID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Selection:        e.Selection,
			Crossover:        e.Crossover,
			Mutation:         e.Mutation,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}
	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, "fitness history", req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		var artifacts stats.RunArtifacts
		artifacts, ok, err = stats.ReadRunArtifacts(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		history = artifacts.BestByGeneration
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, "diagnostics", req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		var artifacts stats.RunArtifacts
		artifacts, ok, err = stats.ReadRunArtifacts(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		diagnostics = artifacts.Diagnostics
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) BestLeague(ctx context.Context, req LeagueRequest) (model.LeagueSnapshot, error) {
	runID, err := c.resolveRunID(ctx, "league", req.RunID, req.Latest)
	if err != nil {
		return model.LeagueSnapshot{}, err
	}
	snapshot, ok, err := c.store.GetLeague(ctx, runID)
	if err != nil {
		return model.LeagueSnapshot{}, err
	}
	if !ok {
		var artifacts stats.RunArtifacts
		artifacts, ok, err = stats.ReadRunArtifacts(c.benchmarksDir, runID)
		if err != nil {
			return model.LeagueSnapshot{}, err
		}
		snapshot = artifacts.BestLeague
	}
	if !ok {
		return model.LeagueSnapshot{}, fmt.Errorf("league not found for run id: %s", runID)
	}
	return snapshot, nil
}

// resolveRunID returns runID or, with latest, the newest stored run, falling
// back to the run index when the store is empty.
func (c *Client) resolveRunID(ctx context.Context, what, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return "", err
		}
		if len(runs) > 0 {
			return runs[len(runs)-1].ID, nil
		}
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errNoRuns
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}
