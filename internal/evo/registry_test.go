package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguebalancer/internal/league"
)

type noopMutator struct{}

func (noopMutator) Name() string { return "noop" }

func (noopMutator) Mutate(_ *rand.Rand, ind league.Individual) (league.Individual, error) {
	return ind, nil
}

func TestResolveBuiltinOperators(t *testing.T) {
	params := OperatorParams{TournamentK: 5, MaxAttempts: 7, TriesPerTeam: 2, MaxPairs: 4}

	for _, kind := range ListSelections() {
		selector, err := ResolveSelector(kind, params)
		require.NoError(t, err)
		assert.Equal(t, string(kind), selector.Name())
	}
	for _, kind := range ListCrossovers() {
		crossover, err := ResolveCrossover(kind, params)
		require.NoError(t, err)
		assert.Equal(t, string(kind), crossover.Name())
	}
	for _, kind := range ListMutations() {
		mutator, err := ResolveMutator(kind, params)
		require.NoError(t, err)
		assert.Equal(t, string(kind), mutator.Name())
	}

	selector, err := ResolveSelector(SelectionTournament, params)
	require.NoError(t, err)
	assert.Equal(t, TournamentSelector{K: 5}, selector)

	mutator, err := ResolveMutator(MutationBalance, params)
	require.NoError(t, err)
	assert.Equal(t, BalanceTeams{MaxAttempts: 7, MaxPairs: 4}, mutator)
}

func TestListOperatorsSorted(t *testing.T) {
	assert.Equal(t, []SelectionKind{SelectionRank, SelectionRoulette, SelectionTournament}, ListSelections())
	assert.Equal(t, []CrossoverKind{CrossoverPosition, CrossoverTeam}, ListCrossovers())
	assert.Equal(t, []MutationKind{MutationBalance, MutationRegenerate, MutationSwap}, ListMutations())
}

func TestResolveOperatorNotFound(t *testing.T) {
	_, err := ResolveSelector("lottery", OperatorParams{})
	assert.ErrorIs(t, err, ErrOperatorNotFound)
	_, err = ResolveCrossover("uniform", OperatorParams{})
	assert.ErrorIs(t, err, ErrOperatorNotFound)
	_, err = ResolveMutator("shuffle", OperatorParams{})
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestRegisterMutator(t *testing.T) {
	resetOperatorRegistryForTests()
	t.Cleanup(resetOperatorRegistryForTests)

	require.NoError(t, RegisterMutator("noop", func(OperatorParams) Mutator { return noopMutator{} }))
	mutator, err := ResolveMutator("noop", OperatorParams{})
	require.NoError(t, err)
	assert.Equal(t, "noop", mutator.Name())

	assert.ErrorIs(t, RegisterMutator("noop", func(OperatorParams) Mutator { return noopMutator{} }), ErrOperatorExists)
	assert.ErrorIs(t, RegisterMutator(MutationSwap, func(OperatorParams) Mutator { return noopMutator{} }), ErrOperatorExists)
	assert.Error(t, RegisterMutator("", func(OperatorParams) Mutator { return noopMutator{} }))
	assert.Error(t, RegisterMutator("nil", nil))
	assert.ErrorIs(t, RegisterSelector(SelectionRank, func(OperatorParams) Selector { return RankSelector{} }), ErrOperatorExists)
	assert.ErrorIs(t, RegisterCrossover(CrossoverTeam, func(OperatorParams) Crossover { return TeamCrossover{} }), ErrOperatorExists)
}
