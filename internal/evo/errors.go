package evo

import (
	"errors"
	"fmt"

	"leaguebalancer/internal/league"
)

var (
	// ErrOperatorExhausted is wrapped by every *ExhaustedError.
	ErrOperatorExhausted   = errors.New("operator exhausted its attempts")
	ErrInfeasibleParent    = errors.New("operator input is not a feasible league")
	ErrNoInitialPopulation = errors.New("no feasible initial population")
)

// ExhaustedError reports an operator that could not produce a feasible result
// within its attempt budget.
type ExhaustedError struct {
	Operator string
	Attempts int
	Reason   string
}

func (e *ExhaustedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: no feasible result after %d attempts", e.Operator, e.Attempts)
	}
	return fmt.Sprintf("%s: no feasible result after %d attempts: %s", e.Operator, e.Attempts, e.Reason)
}

func (e *ExhaustedError) Unwrap() error {
	return ErrOperatorExhausted
}

func exhausted(operator string, attempts int, reason string) error {
	return &ExhaustedError{Operator: operator, Attempts: attempts, Reason: reason}
}

func requireFeasible(operator string, inds ...league.Individual) error {
	for _, ind := range inds {
		if !ind.Feasible() {
			return fmt.Errorf("%s: %w", operator, ErrInfeasibleParent)
		}
	}
	return nil
}
