package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTeam() Team {
	return NewTeam([]Player{
		{Name: "keeper", Position: "GK", Skill: 80, Salary: 100},
		{Name: "back-a", Position: "DEF", Skill: 70, Salary: 90},
		{Name: "back-b", Position: "DEF", Skill: 60, Salary: 80},
	})
}

func TestTeamIsValid(t *testing.T) {
	structure := TeamStructure{"GK": 1, "DEF": 2}
	team := sampleTeam()

	assert.True(t, team.IsValid(structure, 270))
	assert.False(t, team.IsValid(structure, 269.99), "over budget")
	assert.False(t, team.IsValid(TeamStructure{"GK": 1, "DEF": 1, "MID": 1}, 1000), "position counts differ")
	assert.False(t, team.IsValid(TeamStructure{"GK": 2, "DEF": 2}, 1000), "size differs")

	dup := NewTeam([]Player{
		{Name: "keeper", Position: "GK", Salary: 1},
		{Name: "back-a", Position: "DEF", Salary: 1},
		{Name: "back-a", Position: "DEF", Salary: 1},
	})
	assert.False(t, dup.IsValid(structure, 1000), "duplicate name")

	stray := NewTeam([]Player{
		{Name: "keeper", Position: "GK", Salary: 1},
		{Name: "back-a", Position: "DEF", Salary: 1},
		{Name: "wing", Position: "FWD", Salary: 1},
	})
	assert.False(t, stray.IsValid(structure, 1000), "position outside structure")
}

func TestTeamQueries(t *testing.T) {
	team := sampleTeam()

	assert.InDelta(t, 70.0, team.AvgSkill(), 1e-9)
	assert.InDelta(t, 270.0, team.TotalSalary(), 1e-9)
	assert.Equal(t, []string{"keeper", "back-a", "back-b"}, team.PlayerNames())
	assert.Len(t, team.PlayersAt("DEF"), 2)
	assert.True(t, team.Has("back-b"))
	assert.False(t, team.Has("nobody"))
	assert.Zero(t, Team{}.AvgSkill())
}

func TestTeamIsolatedFromCallers(t *testing.T) {
	players := []Player{{Name: "a", Position: "GK", Skill: 1}}
	team := NewTeam(players)
	players[0].Name = "changed"

	got := team.Players()
	require.Equal(t, "a", got[0].Name)
	got[0].Name = "changed again"
	assert.Equal(t, "a", team.Players()[0].Name)
}

func TestTeamReplaceLeavesReceiver(t *testing.T) {
	team := sampleTeam()
	incoming := Player{Name: "new-back", Position: "DEF", Skill: 99, Salary: 10}

	replaced := team.Replace("back-a", incoming)

	assert.True(t, replaced.Has("new-back"))
	assert.False(t, replaced.Has("back-a"))
	assert.True(t, team.Has("back-a"))
	assert.Equal(t, team.Len(), replaced.Len())
}

func TestTeamJSONRoundTrip(t *testing.T) {
	team := sampleTeam()
	data, err := json.Marshal(team)
	require.NoError(t, err)

	var decoded Team
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, team.Players(), decoded.Players())

	empty, err := json.Marshal(Team{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))
}
