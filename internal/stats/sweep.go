package stats

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

const (
	experimentsDir  = "experiments"
	sweepReportFile = "sweep.json"
	sweepCSVFile    = "sweep.csv"
)

// ComboResult aggregates the runs of one selection, crossover and mutation
// combination. Fitness figures cover successful runs only and are zero when
// every run failed.
type ComboResult struct {
	Selection      string   `json:"selection"`
	Crossover      string   `json:"crossover"`
	Mutation       string   `json:"mutation"`
	Runs           int      `json:"runs"`
	Failures       int      `json:"failures"`
	MeanFitness    float64  `json:"mean_fitness"`
	StdFitness     float64  `json:"std_fitness"`
	BestFitness    float64  `json:"best_fitness"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	RunIDs         []string `json:"run_ids,omitempty"`
}

func (c ComboResult) Label() string {
	return c.Selection + "/" + c.Crossover + "/" + c.Mutation
}

func (c ComboResult) Succeeded() int {
	return c.Runs - c.Failures
}

type SweepReport struct {
	ID             string        `json:"id"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAtUTC   string        `json:"created_at_utc"`
	CompletedAtUTC string        `json:"completed_at_utc,omitempty"`
	RunsPerCombo   int           `json:"runs_per_combo"`
	PopulationSize int           `json:"population_size"`
	Generations    int           `json:"generations"`
	Seed           int64         `json:"seed"`
	Combos         []ComboResult `json:"combos"`
}

// Best returns the combo with the lowest mean fitness among those with at
// least one successful run.
func (r SweepReport) Best() (ComboResult, bool) {
	ranked := RankCombos(r.Combos)
	if len(ranked) == 0 || ranked[0].Succeeded() == 0 {
		return ComboResult{}, false
	}
	return ranked[0], true
}

// RankCombos orders combos by mean fitness, best first. Combos without a
// successful run go last.
func RankCombos(combos []ComboResult) []ComboResult {
	out := append([]ComboResult(nil), combos...)
	sort.SliceStable(out, func(i, j int) bool {
		okI, okJ := out[i].Succeeded() > 0, out[j].Succeeded() > 0
		if okI != okJ {
			return okI
		}
		return out[i].MeanFitness < out[j].MeanFitness
	})
	return out
}

type FitnessSummary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
}

// SummarizeFitness reports the population mean, standard deviation and
// minimum of the finite values.
func SummarizeFitness(values []float64) FitnessSummary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return FitnessSummary{}
	}
	mean, std := stat.PopMeanStdDev(finite, nil)
	minimum := finite[0]
	for _, v := range finite[1:] {
		minimum = math.Min(minimum, v)
	}
	return FitnessSummary{Count: len(finite), Mean: mean, Std: std, Min: minimum}
}

// WriteSweepReport writes sweep.json and sweep.csv under
// baseDir/experiments/<id> and returns that directory.
func WriteSweepReport(baseDir string, report SweepReport) (string, error) {
	if report.ID == "" {
		return "", fmt.Errorf("experiment id is required")
	}
	dir := filepath.Join(baseDir, experimentsDir, report.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, sweepReportFile), report); err != nil {
		return "", err
	}
	if err := writeSweepCSV(filepath.Join(dir, sweepCSVFile), report.Combos); err != nil {
		return "", err
	}
	return dir, nil
}

func writeSweepCSV(path string, combos []ComboResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"selection", "crossover", "mutation", "runs", "failures",
		"mean_fitness", "std_fitness", "best_fitness", "elapsed_seconds",
	}); err != nil {
		return err
	}
	for _, c := range combos {
		if err := writer.Write([]string{
			c.Selection,
			c.Crossover,
			c.Mutation,
			strconv.Itoa(c.Runs),
			strconv.Itoa(c.Failures),
			formatFloat(c.MeanFitness),
			formatFloat(c.StdFitness),
			formatFloat(c.BestFitness),
			formatFloat(c.ElapsedSeconds),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadSweepReport(baseDir, id string) (SweepReport, bool, error) {
	if id == "" {
		return SweepReport{}, false, fmt.Errorf("experiment id is required")
	}
	var report SweepReport
	ok, err := readJSON(filepath.Join(baseDir, experimentsDir, id, sweepReportFile), &report)
	if err != nil || !ok {
		return SweepReport{}, ok, err
	}
	return report, true, nil
}

// ListSweepReports returns stored sweeps newest first.
func ListSweepReports(baseDir string) ([]SweepReport, error) {
	root := filepath.Join(baseDir, experimentsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []SweepReport{}, nil
		}
		return nil, err
	}

	reports := make([]SweepReport, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		report, ok, err := ReadSweepReport(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAtUTC == reports[j].CreatedAtUTC {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].CreatedAtUTC > reports[j].CreatedAtUTC
	})
	return reports, nil
}
