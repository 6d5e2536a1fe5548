package dataextract

import (
	"fmt"
	"math"
	"math/rand"

	"leaguebalancer/internal/model"
)

// GenerateOptions shapes a synthetic roster.
type GenerateOptions struct {
	Counts    map[model.Position]int
	SkillMin  float64
	SkillMax  float64
	SalaryMin float64
	SalaryMax float64
}

// DefaultGenerateOptions produces a roster big enough for five seven-a-side
// teams plus a bench.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Counts:    map[model.Position]int{"GK": 7, "DEF": 13, "MID": 13, "FWD": 13},
		SkillMin:  60,
		SkillMax:  95,
		SalaryMin: 60,
		SalaryMax: 140,
	}
}

// GenerateRoster draws a reproducible synthetic roster from seed. Values are
// rounded to whole skill points and tenths of a million.
func GenerateRoster(seed int64, opts GenerateOptions) ([]model.Player, error) {
	if len(opts.Counts) == 0 {
		return nil, fmt.Errorf("position counts are required")
	}
	if opts.SkillMax < opts.SkillMin || opts.SalaryMax < opts.SalaryMin || opts.SalaryMin < 0 {
		return nil, fmt.Errorf("invalid skill or salary range")
	}

	rng := rand.New(rand.NewSource(seed))
	players := make([]model.Player, 0)
	for _, pos := range model.TeamStructure(opts.Counts).Positions() {
		if opts.Counts[pos] < 0 {
			return nil, fmt.Errorf("position %s count must be >= 0", pos)
		}
		for i := 0; i < opts.Counts[pos]; i++ {
			players = append(players, model.Player{
				Name:     fmt.Sprintf("%s %02d", pos, i+1),
				Position: pos,
				Skill:    math.Round(randomIn(rng, opts.SkillMin, opts.SkillMax)),
				Salary:   math.Round(randomIn(rng, opts.SalaryMin, opts.SalaryMax)*10) / 10,
			})
		}
	}
	return players, nil
}

func randomIn(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
