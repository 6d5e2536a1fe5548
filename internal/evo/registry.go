package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

type SelectionKind string

const (
	SelectionRoulette   SelectionKind = "roulette"
	SelectionRank       SelectionKind = "rank"
	SelectionTournament SelectionKind = "tournament"
)

type CrossoverKind string

const (
	CrossoverTeam     CrossoverKind = "team"
	CrossoverPosition CrossoverKind = "position"
)

type MutationKind string

const (
	MutationSwap       MutationKind = "swap"
	MutationRegenerate MutationKind = "regenerate"
	MutationBalance    MutationKind = "balance"
)

// OperatorParams carries the tunables every operator factory may read.
// Zero values select each operator's default.
type OperatorParams struct {
	TournamentK  int
	MaxAttempts  int
	TriesPerTeam int
	MaxPairs     int
}

type (
	SelectorFactory  func(OperatorParams) Selector
	CrossoverFactory func(OperatorParams) Crossover
	MutatorFactory   func(OperatorParams) Mutator
)

type operatorTable struct {
	mu         sync.RWMutex
	selectors  map[SelectionKind]SelectorFactory
	crossovers map[CrossoverKind]CrossoverFactory
	mutators   map[MutationKind]MutatorFactory
}

var operatorRegistry = newBuiltinTable()

func newBuiltinTable() *operatorTable {
	return &operatorTable{
		selectors: map[SelectionKind]SelectorFactory{
			SelectionRoulette:   func(OperatorParams) Selector { return RouletteSelector{} },
			SelectionRank:       func(OperatorParams) Selector { return RankSelector{} },
			SelectionTournament: func(p OperatorParams) Selector { return TournamentSelector{K: p.TournamentK} },
		},
		crossovers: map[CrossoverKind]CrossoverFactory{
			CrossoverTeam:     func(p OperatorParams) Crossover { return TeamCrossover{MaxAttempts: p.MaxAttempts} },
			CrossoverPosition: func(p OperatorParams) Crossover { return PositionCrossover{MaxAttempts: p.MaxAttempts} },
		},
		mutators: map[MutationKind]MutatorFactory{
			MutationSwap: func(p OperatorParams) Mutator {
				return SwapPlayers{MaxAttempts: p.MaxAttempts, TriesPerTeam: p.TriesPerTeam}
			},
			MutationRegenerate: func(p OperatorParams) Mutator {
				return RegenerateTeam{MaxAttempts: p.MaxAttempts}
			},
			MutationBalance: func(p OperatorParams) Mutator {
				return BalanceTeams{MaxAttempts: p.MaxAttempts, MaxPairs: p.MaxPairs}
			},
		},
	}
}

// RegisterSelector adds a selection kind beyond the built-in ones.
func RegisterSelector(kind SelectionKind, factory SelectorFactory) error {
	if kind == "" {
		return errors.New("selection kind is required")
	}
	if factory == nil {
		return errors.New("selector factory is required")
	}
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, exists := operatorRegistry.selectors[kind]; exists {
		return fmt.Errorf("%w: selection %s", ErrOperatorExists, kind)
	}
	operatorRegistry.selectors[kind] = factory
	return nil
}

func RegisterCrossover(kind CrossoverKind, factory CrossoverFactory) error {
	if kind == "" {
		return errors.New("crossover kind is required")
	}
	if factory == nil {
		return errors.New("crossover factory is required")
	}
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, exists := operatorRegistry.crossovers[kind]; exists {
		return fmt.Errorf("%w: crossover %s", ErrOperatorExists, kind)
	}
	operatorRegistry.crossovers[kind] = factory
	return nil
}

func RegisterMutator(kind MutationKind, factory MutatorFactory) error {
	if kind == "" {
		return errors.New("mutation kind is required")
	}
	if factory == nil {
		return errors.New("mutator factory is required")
	}
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, exists := operatorRegistry.mutators[kind]; exists {
		return fmt.Errorf("%w: mutation %s", ErrOperatorExists, kind)
	}
	operatorRegistry.mutators[kind] = factory
	return nil
}

func ResolveSelector(kind SelectionKind, params OperatorParams) (Selector, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.selectors[kind]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: selection %q", ErrOperatorNotFound, kind)
	}
	return factory(params), nil
}

func ResolveCrossover(kind CrossoverKind, params OperatorParams) (Crossover, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.crossovers[kind]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: crossover %q", ErrOperatorNotFound, kind)
	}
	return factory(params), nil
}

func ResolveMutator(kind MutationKind, params OperatorParams) (Mutator, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.mutators[kind]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: mutation %q", ErrOperatorNotFound, kind)
	}
	return factory(params), nil
}

func ListSelections() []SelectionKind {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	return sortedKinds(operatorRegistry.selectors)
}

func ListCrossovers() []CrossoverKind {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	return sortedKinds(operatorRegistry.crossovers)
}

func ListMutations() []MutationKind {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	return sortedKinds(operatorRegistry.mutators)
}

func sortedKinds[K ~string, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for kind := range m {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func resetOperatorRegistryForTests() {
	fresh := newBuiltinTable()
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	operatorRegistry.selectors = fresh.selectors
	operatorRegistry.crossovers = fresh.crossovers
	operatorRegistry.mutators = fresh.mutators
}
