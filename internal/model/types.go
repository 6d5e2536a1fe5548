package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted description of one evolutionary run.
type RunRecord struct {
	VersionedRecord
	ID                string        `json:"id"`
	ExperimentID      string        `json:"experiment_id,omitempty"`
	CreatedAtUTC      string        `json:"created_at_utc"`
	Selection         string        `json:"selection"`
	TournamentK       int           `json:"tournament_k,omitempty"`
	Crossover         string        `json:"crossover"`
	Mutation          string        `json:"mutation"`
	Structure         TeamStructure `json:"structure"`
	Budget            float64       `json:"budget"`
	NumTeams          int           `json:"num_teams"`
	RosterSize        int           `json:"roster_size"`
	PopulationSize    int           `json:"population_size"`
	InitialPopulation int           `json:"initial_population"`
	Generations       int           `json:"generations"`
	CrossoverRate     float64       `json:"crossover_rate"`
	MutationRate      float64       `json:"mutation_rate"`
	Elitism           bool          `json:"elitism"`
	Seed              int64         `json:"seed"`
	BestFitness       float64       `json:"best_fitness"`
	ElapsedMS         int64         `json:"elapsed_ms"`
}

// GenerationDiagnostics summarizes one generation after replacement.
type GenerationDiagnostics struct {
	Generation        int     `json:"generation"`
	PopulationSize    int     `json:"population_size"`
	BestFitness       float64 `json:"best_fitness"`
	MeanFitness       float64 `json:"mean_fitness"`
	WorstFitness      float64 `json:"worst_fitness"`
	Crossovers        int     `json:"crossovers"`
	CrossoverFailures int     `json:"crossover_failures"`
	Clones            int     `json:"clones"`
	Mutations         int     `json:"mutations"`
	MutationFailures  int     `json:"mutation_failures"`
	ElitePreserved    bool    `json:"elite_preserved"`
}

// LeagueSnapshot is a persisted league, normally the best one of a run.
type LeagueSnapshot struct {
	VersionedRecord
	RunID   string  `json:"run_id"`
	Fitness float64 `json:"fitness"`
	Teams   []Team  `json:"teams"`
}
