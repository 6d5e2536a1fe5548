package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguebalancer/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := sampleRun("run-1", "2026-03-04T05:06:07Z")
	data, err := EncodeRun(run)
	require.NoError(t, err)

	decoded, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, run, decoded)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := sampleRun("run-1", "2026-03-04T05:06:07Z")
	run.SchemaVersion = 99
	data, err := EncodeRun(run)
	require.NoError(t, err)
	_, err = DecodeRun(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	league := sampleLeague("run-1")
	league.VersionedRecord = model.VersionedRecord{}
	data, err = EncodeLeague(league)
	require.NoError(t, err)
	_, err = DecodeLeague(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestLeagueCodecKeepsTeams(t *testing.T) {
	data, err := EncodeLeague(sampleLeague("run-1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"teams":[[{"name":"a"`)

	decoded, err := DecodeLeague(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, decoded.Teams[0].PlayerNames())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeRun([]byte("{"))
	assert.Error(t, err)
	_, err = DecodeFitnessHistory([]byte("nope"))
	assert.Error(t, err)
	_, err = DecodeGenerationDiagnostics([]byte("[1"))
	assert.Error(t, err)
}
