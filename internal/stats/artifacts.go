package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"leaguebalancer/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	fitnessHistoryFile = "fitness_history.json"
	diagnosticsFile    = "diagnostics.csv"
	bestLeagueFile     = "best_league.json"
)

// RunConfig records everything needed to reproduce a run.
type RunConfig struct {
	RunID          string              `json:"run_id"`
	ExperimentID   string              `json:"experiment_id,omitempty"`
	CreatedAtUTC   string              `json:"created_at_utc"`
	RosterPath     string              `json:"roster_path,omitempty"`
	RosterSize     int                 `json:"roster_size"`
	Structure      model.TeamStructure `json:"structure"`
	Budget         float64             `json:"budget"`
	NumTeams       int                 `json:"num_teams"`
	Selection      string              `json:"selection"`
	TournamentK    int                 `json:"tournament_k,omitempty"`
	Crossover      string              `json:"crossover"`
	Mutation       string              `json:"mutation"`
	PopulationSize int                 `json:"population_size"`
	Generations    int                 `json:"generations"`
	CrossoverRate  float64             `json:"crossover_rate"`
	MutationRate   float64             `json:"mutation_rate"`
	Elitism        bool                `json:"elitism"`
	Seed           int64               `json:"seed"`
}

type RunArtifacts struct {
	Config           RunConfig                     `json:"config"`
	BestByGeneration []float64                     `json:"best_by_generation"`
	Diagnostics      []model.GenerationDiagnostics `json:"diagnostics,omitempty"`
	FinalBestFitness float64                       `json:"final_best_fitness"`
	BestLeague       model.LeagueSnapshot          `json:"best_league"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	ExperimentID     string  `json:"experiment_id,omitempty"`
	Selection        string  `json:"selection"`
	Crossover        string  `json:"crossover"`
	Mutation         string  `json:"mutation"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

type fitnessHistory struct {
	BestByGeneration []float64 `json:"best_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
}

// WriteRunArtifacts writes the run files under baseDir/<run id> and records
// the run in the index. It returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Config.RunID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	history := fitnessHistory{BestByGeneration: artifacts.BestByGeneration, FinalBestFitness: artifacts.FinalBestFitness}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), history); err != nil {
		return "", err
	}
	if err := WriteDiagnosticsCSV(filepath.Join(runDir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bestLeagueFile), artifacts.BestLeague); err != nil {
		return "", err
	}

	cfg := artifacts.Config
	entry := RunIndexEntry{
		RunID:            runID,
		ExperimentID:     cfg.ExperimentID,
		Selection:        cfg.Selection,
		Crossover:        cfg.Crossover,
		Mutation:         cfg.Mutation,
		PopulationSize:   cfg.PopulationSize,
		Generations:      cfg.Generations,
		Seed:             cfg.Seed,
		FinalBestFitness: artifacts.FinalBestFitness,
		CreatedAtUTC:     cfg.CreatedAtUTC,
	}
	if err := AppendRunIndex(baseDir, entry); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRunArtifacts loads a run written by WriteRunArtifacts. The boolean is
// false when the run directory has no config.
func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	var out RunArtifacts
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &out.Config)
	if err != nil || !ok {
		return RunArtifacts{}, ok, err
	}

	var history fitnessHistory
	if _, err := readJSON(filepath.Join(baseDir, runID, fitnessHistoryFile), &history); err != nil {
		return RunArtifacts{}, false, err
	}
	out.BestByGeneration = history.BestByGeneration
	out.FinalBestFitness = history.FinalBestFitness

	diagnostics, _, err := ReadDiagnosticsCSV(filepath.Join(baseDir, runID, diagnosticsFile))
	if err != nil {
		return RunArtifacts{}, false, err
	}
	out.Diagnostics = diagnostics

	if _, err := readJSON(filepath.Join(baseDir, runID, bestLeagueFile), &out.BestLeague); err != nil {
		return RunArtifacts{}, false, err
	}
	return out, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appends win ties.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries := []RunIndexEntry{}
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportRunArtifacts copies a run directory into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, fitnessHistoryFile, diagnosticsFile, bestLeagueFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

var diagnosticsHeader = []string{
	"generation", "population_size", "best_fitness", "mean_fitness", "worst_fitness",
	"crossovers", "crossover_failures", "clones", "mutations", "mutation_failures", "elite_preserved",
}

func WriteDiagnosticsCSV(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(diagnosticsHeader); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			strconv.Itoa(d.PopulationSize),
			formatFloat(d.BestFitness),
			formatFloat(d.MeanFitness),
			formatFloat(d.WorstFitness),
			strconv.Itoa(d.Crossovers),
			strconv.Itoa(d.CrossoverFailures),
			strconv.Itoa(d.Clones),
			strconv.Itoa(d.Mutations),
			strconv.Itoa(d.MutationFailures),
			strconv.FormatBool(d.ElitePreserved),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadDiagnosticsCSV(path string) ([]model.GenerationDiagnostics, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationDiagnostics{}, true, nil
		}
		return nil, false, err
	}
	if len(header) != len(diagnosticsHeader) {
		return nil, false, fmt.Errorf("diagnostics header must have %d columns, got %d", len(diagnosticsHeader), len(header))
	}

	out := make([]model.GenerationDiagnostics, 0, 64)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		d, err := parseDiagnosticsRow(record)
		if err != nil {
			return nil, false, fmt.Errorf("diagnostics row %d: %w", row, err)
		}
		out = append(out, d)
	}
	return out, true, nil
}

func parseDiagnosticsRow(record []string) (model.GenerationDiagnostics, error) {
	var d model.GenerationDiagnostics
	ints := []*int{&d.Generation, &d.PopulationSize}
	for i, dst := range ints {
		v, err := strconv.Atoi(record[i])
		if err != nil {
			return d, err
		}
		*dst = v
	}
	floats := []*float64{&d.BestFitness, &d.MeanFitness, &d.WorstFitness}
	for i, dst := range floats {
		v, err := strconv.ParseFloat(record[2+i], 64)
		if err != nil {
			return d, err
		}
		*dst = v
	}
	counters := []*int{&d.Crossovers, &d.CrossoverFailures, &d.Clones, &d.Mutations, &d.MutationFailures}
	for i, dst := range counters {
		v, err := strconv.Atoi(record[5+i])
		if err != nil {
			return d, err
		}
		*dst = v
	}
	elite, err := strconv.ParseBool(record[10])
	if err != nil {
		return d, err
	}
	d.ElitePreserved = elite
	return d, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// readJSON decodes path into dst and reports false when the file is absent.
func readJSON(path string, dst any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
