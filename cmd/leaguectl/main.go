package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"leaguebalancer/internal/dataextract"
	"leaguebalancer/internal/evo"
	"leaguebalancer/internal/model"
	"leaguebalancer/internal/stats"
	"leaguebalancer/pkg/leaguebalancer"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "league":
		return runLeague(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "operators":
		return runOperators(ctx, args[1:])
	case "roster":
		return runRoster(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// parseCommand parses args and resolves the layered settings for one
// subcommand.
func parseCommand(fs *flag.FlagSet, args []string) (*viper.Viper, error) {
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return loadSettings(fs, *configPath)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	addClientFlags(fs)
	addRunFlags(fs)
	fs.Bool("progress", false, "print every generation")
	fs.Bool("json", false, "emit the run summary as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	req, err := runRequestFromSettings(cfg)
	if err != nil {
		return err
	}
	if cfg.GetBool("progress") {
		req.Progress = evo.ReporterFunc(func(_ context.Context, d model.GenerationDiagnostics) {
			fmt.Fprintf(stdout, "generation=%d best=%.6f mean=%.6f worst=%.6f crossovers=%d mutations=%d\n",
				d.Generation, d.BestFitness, d.MeanFitness, d.WorstFitness, d.Crossovers, d.Mutations)
		})
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(map[string]any{
			"run_id":             summary.RunID,
			"artifacts_dir":      summary.ArtifactsDir,
			"best_by_generation": summary.BestByGeneration,
			"final_best_fitness": summary.FinalBestFitness,
			"initial_population": summary.InitialPopulation,
			"elapsed_ms":         summary.Elapsed.Milliseconds(),
			"league":             summary.Best,
		})
	}

	fmt.Fprintf(stdout, "run_id=%s final_best_fitness=%.6f initial_population=%d elapsed=%s artifacts=%s\n",
		summary.RunID, summary.FinalBestFitness, summary.InitialPopulation, summary.Elapsed.Round(time.Millisecond), summary.ArtifactsDir)
	printLeague(summary.Best)
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	addClientFlags(fs)
	addRunFlags(fs)
	fs.String("selections", "", "comma-separated selection operators (default all)")
	fs.String("crossovers", "", "comma-separated crossover operators (default all)")
	fs.String("mutations", "", "comma-separated mutation operators (default all)")
	fs.Int("runs-per-combo", leaguebalancer.DefaultRunsPerCombo, "seeded runs per operator combination")
	fs.Int("workers", 0, "combinations evaluated in parallel (0 = GOMAXPROCS)")
	fs.String("experiment-id", "", "experiment id (default random)")
	fs.String("notes", "", "free-form notes stored with the report")
	fs.Bool("json", false, "emit combo results as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	base, err := runRequestFromSettings(cfg)
	if err != nil {
		return err
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Benchmark(ctx, leaguebalancer.BenchmarkRequest{
		Run:          base,
		Selections:   splitList(cfg.GetString("selections")),
		Crossovers:   splitList(cfg.GetString("crossovers")),
		Mutations:    splitList(cfg.GetString("mutations")),
		RunsPerCombo: cfg.GetInt("runs-per-combo"),
		Workers:      cfg.GetInt("workers"),
		ExperimentID: cfg.GetString("experiment-id"),
		Notes:        cfg.GetString("notes"),
	})
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(summary.Combos)
	}

	runs := 0
	for _, combo := range summary.Combos {
		runs += combo.Runs
	}
	fmt.Fprintf(stdout, "experiment_id=%s combos=%d runs=%s elapsed=%s report=%s\n",
		summary.ExperimentID, len(summary.Combos), humanize.Comma(int64(runs)), summary.Elapsed.Round(time.Millisecond), summary.ReportDir)
	fmt.Fprintf(stdout, "%-12s %-10s %-11s %5s %8s %10s %10s %10s %8s\n",
		"selection", "crossover", "mutation", "runs", "failures", "mean", "std", "best", "seconds")
	for _, combo := range stats.RankCombos(summary.Combos) {
		fmt.Fprintf(stdout, "%-12s %-10s %-11s %5d %8d %10.4f %10.4f %10.4f %8.2f\n",
			combo.Selection, combo.Crossover, combo.Mutation, combo.Runs, combo.Failures,
			combo.MeanFitness, combo.StdFitness, combo.BestFitness, combo.ElapsedSeconds)
	}
	if summary.HasBest {
		fmt.Fprintf(stdout, "best_combo=%s mean_fitness=%.6f\n", summary.Best.Label(), summary.Best.MeanFitness)
	} else {
		fmt.Fprintln(stdout, "no combination produced a feasible league")
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	addClientFlags(fs)
	fs.Int("limit", 20, "max runs to list")
	fs.Bool("json", false, "emit runs list as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	if cfg.GetInt("limit") <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, leaguebalancer.RunsRequest{Limit: cfg.GetInt("limit")})
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "run_id=%s created=%s operators=%s/%s/%s seed=%d pop=%d gens=%d final_best_fitness=%.6f\n",
			item.RunID,
			createdDisplay(item.CreatedAtUTC),
			item.Selection, item.Crossover, item.Mutation,
			item.Seed,
			item.Population,
			item.Generations,
			item.FinalBestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	addClientFlags(fs)
	runID, latest := addRunSelectorFlags(fs)
	fs.Int("limit", 50, "max generations to print (<=0 for all)")
	fs.Bool("json", false, "emit fitness history as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "fitness"); err != nil {
		return err
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, leaguebalancer.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(cfg.GetInt("limit"), 0),
	})
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(history)
	}
	if len(history) == 0 {
		fmt.Fprintln(stdout, "no fitness history")
		return nil
	}
	for i, best := range history {
		fmt.Fprintf(stdout, "generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	addClientFlags(fs)
	runID, latest := addRunSelectorFlags(fs)
	fs.Int("limit", 50, "max generations to print (<=0 for all)")
	fs.Bool("json", false, "emit diagnostics as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "diagnostics"); err != nil {
		return err
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, leaguebalancer.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(cfg.GetInt("limit"), 0),
	})
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Fprintln(stdout, "no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		fmt.Fprintf(stdout, "generation=%d pop=%d best=%.6f mean=%.6f worst=%.6f crossovers=%d crossover_failures=%d clones=%d mutations=%d mutation_failures=%d elite=%t\n",
			d.Generation, d.PopulationSize, d.BestFitness, d.MeanFitness, d.WorstFitness,
			d.Crossovers, d.CrossoverFailures, d.Clones, d.Mutations, d.MutationFailures, d.ElitePreserved)
	}
	return nil
}

func runLeague(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("league", flag.ContinueOnError)
	addClientFlags(fs)
	runID, latest := addRunSelectorFlags(fs)
	fs.Bool("json", false, "emit the league as JSON")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "league"); err != nil {
		return err
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.BestLeague(ctx, leaguebalancer.LeagueRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if cfg.GetBool("json") {
		return writeJSON(snapshot)
	}
	fmt.Fprintf(stdout, "run_id=%s fitness=%.6f\n", snapshot.RunID, snapshot.Fitness)
	printLeague(snapshot)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	addClientFlags(fs)
	runID, latest := addRunSelectorFlags(fs)
	outDir := fs.String("out", "", "output directory (default exports dir)")
	cfg, err := parseCommand(fs, args)
	if err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "export"); err != nil {
		return err
	}

	client, err := clientFromSettings(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, leaguebalancer.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runOperators(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("operators", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ops := leaguebalancer.Operators()
	for _, kind := range []string{"selection", "crossover", "mutation"} {
		fmt.Fprintf(stdout, "%s: %s\n", kind, strings.Join(ops[kind], ", "))
	}
	return nil
}

// runRoster writes a synthetic roster with --out, or summarizes an existing
// roster file with --in.
func runRoster(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "roster file to summarize")
	out := fs.String("out", "", "write a synthetic roster to this .csv or .json path")
	seed := fs.Int64("seed", 1, "seed for the synthetic roster")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*in == "") == (*out == "") {
		return errors.New("roster requires exactly one of --in or --out")
	}

	if *out != "" {
		players, err := dataextract.GenerateRoster(*seed, dataextract.DefaultGenerateOptions())
		if err != nil {
			return err
		}
		if err := dataextract.WriteRosterFile(*out, players); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s players to %s\n", humanize.Comma(int64(len(players))), *out)
		return nil
	}

	players, err := dataextract.LoadRoster(*in)
	if err != nil {
		return err
	}
	roster, err := model.GroupByPosition(players)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "players=%s\n", humanize.Comma(int64(roster.Len())))
	for _, pos := range roster.Positions() {
		total := 0.0
		for _, p := range roster[pos] {
			total += p.Salary
		}
		fmt.Fprintf(stdout, "position=%s count=%d total_salary=%s\n", pos, roster.Count(pos), humanize.FormatFloat("#,###.#", total))
	}
	return nil
}

func addRunSelectorFlags(fs *flag.FlagSet) (*string, *bool) {
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	return runID, latest
}

func checkRunSelector(runID string, latest bool, command string) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func printLeague(snapshot model.LeagueSnapshot) {
	for i, team := range snapshot.Teams {
		fmt.Fprintf(stdout, "team %d: avg_skill=%.2f salary=%s\n", i+1, team.AvgSkill(), humanize.FormatFloat("#,###.#", team.TotalSalary()))
		for _, p := range team.Players() {
			fmt.Fprintf(stdout, "  %s\n", p)
		}
	}
}

// createdDisplay renders a stored timestamp as a relative time when it
// parses.
func createdDisplay(raw string) string {
	created, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return humanize.Time(created)
}

func writeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: leaguectl <run|benchmark|runs|fitness|diagnostics|league|export|operators|roster> [flags]", msg)
}
