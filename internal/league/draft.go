package league

import (
	"fmt"
	"math/rand"

	"leaguebalancer/internal/model"
)

// Sample draws k players from candidates without replacement. candidates is
// not modified.
func Sample(rng *rand.Rand, candidates []model.Player, k int) []model.Player {
	if k <= 0 {
		return nil
	}
	pool := append([]model.Player(nil), candidates...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Draft builds count teams from pool, one team at a time, sampling the
// required players per position among those not yet used. Names in used are
// never drafted; used itself is not modified. Drafting stops at the first
// team that cannot be filled or fails validation.
func Draft(rng *rand.Rand, pool model.Roster, structure model.TeamStructure, budget float64, count int, used map[string]struct{}) ([]model.Team, error) {
	taken := make(map[string]struct{}, len(used)+count*structure.Size())
	for name := range used {
		taken[name] = struct{}{}
	}
	positions := structure.Positions()

	teams := make([]model.Team, 0, count)
	for len(teams) < count {
		picked := make([]model.Player, 0, structure.Size())
		for _, pos := range positions {
			need := structure[pos]
			candidates := pool.Available(pos, taken)
			if len(candidates) < need {
				return nil, fmt.Errorf("%w: position %s has %d candidates, need %d", ErrPoolExhausted, pos, len(candidates), need)
			}
			selected := Sample(rng, candidates, need)
			for _, p := range selected {
				taken[p.Name] = struct{}{}
			}
			picked = append(picked, selected...)
		}

		team := model.NewTeam(picked)
		if !team.IsValid(structure, budget) {
			return nil, fmt.Errorf("%w: salary %.2f over budget %.2f", ErrInvalidTeam, team.TotalSalary(), budget)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// Draft drafts count teams from the problem roster, skipping names in used.
func (p *Problem) Draft(rng *rand.Rand, count int, used map[string]struct{}) ([]model.Team, error) {
	return Draft(rng, p.roster, p.structure, p.budget, count, used)
}
