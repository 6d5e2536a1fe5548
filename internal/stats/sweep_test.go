package stats

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeFitness(t *testing.T) {
	summary := SummarizeFitness([]float64{2, 4, math.Inf(1), 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, summary.Count)
	assert.InDelta(t, 5, summary.Mean, 1e-12)
	assert.InDelta(t, 2, summary.Std, 1e-12)
	assert.Equal(t, 2.0, summary.Min)

	assert.Equal(t, FitnessSummary{}, SummarizeFitness([]float64{math.Inf(1), math.NaN()}))
	assert.Equal(t, FitnessSummary{}, SummarizeFitness(nil))
}

func TestRankCombosPutsFailedCombosLast(t *testing.T) {
	combos := []ComboResult{
		{Selection: "roulette", Crossover: "team", Mutation: "swap", Runs: 2, Failures: 2},
		{Selection: "rank", Crossover: "team", Mutation: "swap", Runs: 2, MeanFitness: 1.5},
		{Selection: "tournament", Crossover: "team", Mutation: "swap", Runs: 2, Failures: 1, MeanFitness: 0.7},
	}
	ranked := RankCombos(combos)
	assert.Equal(t, "tournament/team/swap", ranked[0].Label())
	assert.Equal(t, "rank/team/swap", ranked[1].Label())
	assert.Equal(t, "roulette/team/swap", ranked[2].Label())
	assert.Equal(t, "roulette", combos[0].Selection)

	best, ok := SweepReport{Combos: combos}.Best()
	require.True(t, ok)
	assert.Equal(t, "tournament", best.Selection)

	_, ok = SweepReport{Combos: combos[:1]}.Best()
	assert.False(t, ok)
}

func TestWriteAndReadSweepReport(t *testing.T) {
	baseDir := t.TempDir()
	report := SweepReport{
		ID:             "exp-1",
		CreatedAtUTC:   "2026-03-01T00:00:00Z",
		RunsPerCombo:   3,
		PopulationSize: 20,
		Generations:    10,
		Seed:           5,
		Combos: []ComboResult{{
			Selection: "tournament", Crossover: "position", Mutation: "balance",
			Runs: 3, MeanFitness: 0.4, StdFitness: 0.1, BestFitness: 0.3, ElapsedSeconds: 1.25,
			RunIDs: []string{"a", "b", "c"},
		}},
	}

	dir, err := WriteSweepReport(baseDir, report)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sweep.json"))

	csvData, err := os.ReadFile(filepath.Join(dir, "sweep.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "tournament,position,balance,3,0,0.4,0.1,0.3,1.25", lines[1])

	loaded, ok, err := ReadSweepReport(baseDir, "exp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report, loaded)

	_, ok, err = ReadSweepReport(baseDir, "exp-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = WriteSweepReport(baseDir, SweepReport{})
	assert.Error(t, err)
}

func TestListSweepReportsNewestFirst(t *testing.T) {
	baseDir := t.TempDir()
	reports, err := ListSweepReports(baseDir)
	require.NoError(t, err)
	assert.Empty(t, reports)

	for _, r := range []SweepReport{
		{ID: "b", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "c", CreatedAtUTC: "2026-02-01T00:00:00Z"},
		{ID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"},
	} {
		_, err := WriteSweepReport(baseDir, r)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "experiments", "stray.txt"), []byte("x"), 0o644))

	reports, err = ListSweepReports(baseDir)
	require.NoError(t, err)
	ids := []string{}
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
