package main

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"leaguebalancer/internal/logging"
	"leaguebalancer/internal/model"
	"leaguebalancer/internal/storage"
	"leaguebalancer/pkg/leaguebalancer"
)

const envPrefix = "LEAGUE"

// loadSettings layers flag defaults, the optional config file, LEAGUE_*
// environment variables and explicitly set flags, later layers winning.
// Keys are the flag names; LEAGUE_CROSSOVER_RATE sets crossover-rate.
func loadSettings(fs *flag.FlagSet, configPath string) (*viper.Viper, error) {
	v := viper.New()
	fs.VisitAll(func(f *flag.Flag) {
		if f.Name != "config" {
			v.SetDefault(f.Name, f.DefValue)
		}
	})
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			v.Set(f.Name, f.Value.String())
		}
	})
	return v, nil
}

func addClientFlags(fs *flag.FlagSet) {
	fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	fs.String("db-path", "leaguebalancer.db", "sqlite database path")
	fs.String("benchmarks-dir", benchmarksDir, "directory for run artifacts and sweep reports")
	fs.String("exports-dir", exportsDir, "directory for exported runs")
	fs.String("log-level", "", "log level: debug|info|warn|error (default info)")
	fs.String("log-format", "auto", "log format: auto|text|json")
}

func addRunFlags(fs *flag.FlagSet) {
	defaults := leaguebalancer.DefaultRunRequest()
	fs.String("roster", "", "roster file (.csv or .json)")
	fs.String("structure", defaults.Structure.String(), "players per position, e.g. GK=1,DEF=2,MID=2,FWD=2")
	fs.Float64("budget", defaults.Budget, "per-team salary ceiling")
	fs.Int("teams", defaults.NumTeams, "number of teams")
	fs.String("selection", defaults.Selection, "selection operator")
	fs.Int("tournament-k", defaults.TournamentK, "tournament size")
	fs.String("crossover", defaults.Crossover, "crossover operator")
	fs.String("mutation", defaults.Mutation, "mutation operator")
	fs.Int("pop", defaults.PopulationSize, "population size")
	fs.Int("gens", defaults.Generations, "generations")
	fs.Float64("crossover-rate", defaults.CrossoverRate, "crossover probability")
	fs.Float64("mutation-rate", defaults.MutationRate, "mutation probability")
	fs.Bool("elitism", true, "carry the best league into every generation")
	fs.Int64("seed", 1, "random seed")
	fs.Int("attempts-per-member", 0, "initial population draws per member (0 = default)")
	fs.Int("max-attempts", 0, "repair attempts per operator call (0 = default)")
	fs.Int("tries-per-team", 0, "swap partner searches per team (0 = default)")
	fs.Int("max-pairs", 0, "balance pairs examined per attempt (0 = all)")
	fs.Int("max-reselections", 0, "consecutive crossover failures tolerated (0 = default)")
}

func runRequestFromSettings(v *viper.Viper) (leaguebalancer.RunRequest, error) {
	structure, err := structureFromSettings(v)
	if err != nil {
		return leaguebalancer.RunRequest{}, err
	}
	if strings.TrimSpace(v.GetString("roster")) == "" {
		return leaguebalancer.RunRequest{}, fmt.Errorf("--roster is required")
	}
	return leaguebalancer.RunRequest{
		RosterPath:        v.GetString("roster"),
		Structure:         structure,
		Budget:            v.GetFloat64("budget"),
		NumTeams:          v.GetInt("teams"),
		Selection:         v.GetString("selection"),
		TournamentK:       v.GetInt("tournament-k"),
		Crossover:         v.GetString("crossover"),
		Mutation:          v.GetString("mutation"),
		PopulationSize:    v.GetInt("pop"),
		Generations:       v.GetInt("gens"),
		CrossoverRate:     v.GetFloat64("crossover-rate"),
		MutationRate:      v.GetFloat64("mutation-rate"),
		DisableElitism:    !v.GetBool("elitism"),
		Seed:              v.GetInt64("seed"),
		AttemptsPerMember: v.GetInt("attempts-per-member"),
		MaxAttempts:       v.GetInt("max-attempts"),
		TriesPerTeam:      v.GetInt("tries-per-team"),
		MaxPairs:          v.GetInt("max-pairs"),
		MaxReselections:   v.GetInt("max-reselections"),
	}, nil
}

// structureFromSettings accepts "GK=1,DEF=2" strings as well as a mapping
// from a config file.
func structureFromSettings(v *viper.Viper) (model.TeamStructure, error) {
	raw, ok := v.Get("structure").(map[string]any)
	if !ok {
		return model.ParseTeamStructure(v.GetString("structure"))
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		count, err := strconv.Atoi(fmt.Sprint(raw[key]))
		if err != nil {
			return nil, fmt.Errorf("structure position %s: %w", key, err)
		}
		parts = append(parts, strings.ToUpper(key)+"="+strconv.Itoa(count))
	}
	return model.ParseTeamStructure(strings.Join(parts, ","))
}

func clientFromSettings(v *viper.Viper) (*leaguebalancer.Client, error) {
	logger := logging.New(v.GetString("log-level"), v.GetString("log-format"), stderr)
	return leaguebalancer.New(leaguebalancer.Options{
		StoreKind:     v.GetString("store"),
		DBPath:        v.GetString("db-path"),
		BenchmarksDir: v.GetString("benchmarks-dir"),
		ExportsDir:    v.GetString("exports-dir"),
		Logger:        logger,
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
