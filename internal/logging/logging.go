// Package logging builds the structured logger shared by the CLI, the client
// facade and the evolutionary loop.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to out. An unknown level falls back to info
// with a warning. FormatAuto picks colored text for terminals and JSON
// everywhere else.
func New(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	if level == "" {
		level = os.Getenv("LEAGUE_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("invalid log level, using info")
	} else {
		log.SetLevel(parsed)
	}

	switch resolveFormat(format, out) {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     isTerminal(out),
		})
	}
	return log
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func resolveFormat(format string, out io.Writer) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return FormatJSON
	case FormatText:
		return FormatText
	default:
		if isTerminal(out) {
			return FormatText
		}
		return FormatJSON
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WithRun scopes a logger to one run.
func WithRun(log logrus.FieldLogger, runID string) *logrus.Entry {
	return log.WithField("run_id", runID)
}

// WithOperators attaches the operator combination of a run.
func WithOperators(log logrus.FieldLogger, selection, crossover, mutation string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"selection": selection,
		"crossover": crossover,
		"mutation":  mutation,
	})
}

// WithExperiment scopes a logger to one benchmark sweep.
func WithExperiment(log logrus.FieldLogger, experimentID string) *logrus.Entry {
	return log.WithField("experiment_id", experimentID)
}
