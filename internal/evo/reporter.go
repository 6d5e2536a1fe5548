package evo

import (
	"context"

	"github.com/sirupsen/logrus"

	"leaguebalancer/internal/model"
)

// Reporter receives one summary per completed generation.
type Reporter interface {
	ReportGeneration(ctx context.Context, diag model.GenerationDiagnostics)
}

type ReporterFunc func(ctx context.Context, diag model.GenerationDiagnostics)

func (f ReporterFunc) ReportGeneration(ctx context.Context, diag model.GenerationDiagnostics) {
	f(ctx, diag)
}

// LogReporter writes generation progress at debug level.
type LogReporter struct {
	Logger logrus.FieldLogger
}

func (r LogReporter) ReportGeneration(_ context.Context, diag model.GenerationDiagnostics) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{
		"generation":         diag.Generation,
		"best_fitness":       diag.BestFitness,
		"mean_fitness":       diag.MeanFitness,
		"worst_fitness":      diag.WorstFitness,
		"crossovers":         diag.Crossovers,
		"crossover_failures": diag.CrossoverFailures,
		"mutations":          diag.Mutations,
		"mutation_failures":  diag.MutationFailures,
	}).Debug("generation complete")
}

// MultiReporter fans a generation out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) ReportGeneration(ctx context.Context, diag model.GenerationDiagnostics) {
	for _, r := range m {
		if r != nil {
			r.ReportGeneration(ctx, diag)
		}
	}
}
