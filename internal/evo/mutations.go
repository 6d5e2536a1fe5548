package evo

import (
	"math/rand"
	"sort"

	"leaguebalancer/internal/league"
	"leaguebalancer/internal/model"
)

// DefaultTriesPerTeam bounds the partner searches SwapPlayers makes for each
// team within one attempt.
const DefaultTriesPerTeam = 10

// SwapPlayers swaps one same-position player between each team and a random
// partner team, keeping only swaps that leave both teams valid.
type SwapPlayers struct {
	MaxAttempts  int
	TriesPerTeam int
}

func (SwapPlayers) Name() string {
	return string(MutationSwap)
}

func (m SwapPlayers) Mutate(rng *rand.Rand, ind league.Individual) (league.Individual, error) {
	if err := requireFeasible(m.Name(), ind); err != nil {
		return league.Individual{}, err
	}
	numTeams := ind.NumTeams()
	if numTeams < 2 {
		return league.Individual{}, exhausted(m.Name(), 0, "league has a single team")
	}

	problem := ind.Problem()
	structure := problem.Structure()
	budget := problem.Budget()
	attempts := attemptsOrDefault(m.MaxAttempts)
	tries := m.TriesPerTeam
	if tries <= 0 {
		tries = DefaultTriesPerTeam
	}

	for attempt := 0; attempt < attempts; attempt++ {
		teams := ind.Teams()
		swapped := false
		for i := range teams {
			for try := 0; try < tries; try++ {
				j := rng.Intn(numTeams - 1)
				if j >= i {
					j++
				}
				pos, ok := sharedPosition(rng, structure, teams[i], teams[j])
				if !ok {
					continue
				}
				out := pickPlayer(rng, teams[i].PlayersAt(pos))
				in := pickPlayer(rng, teams[j].PlayersAt(pos))
				nextI := teams[i].Replace(out.Name, in)
				nextJ := teams[j].Replace(in.Name, out)
				if !nextI.IsValid(structure, budget) || !nextJ.IsValid(structure, budget) {
					continue
				}
				teams[i], teams[j] = nextI, nextJ
				swapped = true
				break
			}
		}
		if !swapped {
			continue
		}
		if child := league.FromTeams(problem, teams); child.Feasible() {
			return child, nil
		}
	}
	return league.Individual{}, exhausted(m.Name(), attempts, "no valid swap found")
}

// RegenerateTeam rebuilds one random team from players of the other teams
// and hands the displaced players back to the donor teams.
type RegenerateTeam struct {
	MaxAttempts int
}

func (RegenerateTeam) Name() string {
	return string(MutationRegenerate)
}

func (m RegenerateTeam) Mutate(rng *rand.Rand, ind league.Individual) (league.Individual, error) {
	if err := requireFeasible(m.Name(), ind); err != nil {
		return league.Individual{}, err
	}

	problem := ind.Problem()
	structure := problem.Structure()
	budget := problem.Budget()
	attempts := attemptsOrDefault(m.MaxAttempts)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		teams := ind.Teams()
		target := rng.Intn(len(teams))
		discarded := teams[target]

		donors := make(model.Roster, len(structure))
		owner := make(map[string]int, problem.LeagueSize())
		for i, team := range teams {
			if i == target {
				continue
			}
			for _, p := range team.Players() {
				donors[p.Position] = append(donors[p.Position], p)
				owner[p.Name] = i
			}
		}
		replacement, err := league.Draft(rng, donors, structure, budget, 1, nil)
		if err != nil {
			lastErr = err
			continue
		}
		teams[target] = replacement[0]

		taken := make(map[int]map[string]struct{}, len(teams))
		for _, name := range replacement[0].PlayerNames() {
			i := owner[name]
			if taken[i] == nil {
				taken[i] = make(map[string]struct{})
			}
			taken[i][name] = struct{}{}
		}

		spare, err := model.GroupByPosition(discarded.Players())
		if err != nil {
			lastErr = err
			continue
		}
		ok := true
		for i := range teams {
			if taken[i] == nil {
				continue
			}
			remaining := teams[i].Without(taken[i])
			rebuilt, rest, filled := refill(rng, structure, remaining, spare)
			if !filled || !rebuilt.IsValid(structure, budget) {
				ok = false
				break
			}
			spare = rest
			teams[i] = rebuilt
		}
		if !ok {
			lastErr = nil
			continue
		}
		if child := league.FromTeams(problem, teams); child.Feasible() {
			return child, nil
		}
	}
	reason := "redistribution broke a donor team"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return league.Individual{}, exhausted(m.Name(), attempts, reason)
}

// refill tops remaining up to structure with players sampled from spare and
// returns the new team along with what is left of spare.
func refill(rng *rand.Rand, structure model.TeamStructure, remaining []model.Player, spare model.Roster) (model.Team, model.Roster, bool) {
	counts := make(map[model.Position]int, len(structure))
	for _, p := range remaining {
		counts[p.Position]++
	}
	rest := spare.Clone()
	players := append([]model.Player(nil), remaining...)
	for _, pos := range structure.Positions() {
		need := structure[pos] - counts[pos]
		if need <= 0 {
			continue
		}
		if len(rest[pos]) < need {
			return model.Team{}, spare, false
		}
		chosen := league.Sample(rng, rest[pos], need)
		rest[pos] = model.NewTeam(rest[pos]).Without(namesOf(chosen))
		players = append(players, chosen...)
	}
	return model.NewTeam(players), rest, true
}

// BalanceTeams exchanges a same-position pair between the weakest and the
// strongest team, accepting the first exchange that lowers league fitness.
type BalanceTeams struct {
	MaxAttempts int
	// MaxPairs caps the pairs examined per attempt; 0 examines all of them.
	MaxPairs int
}

func (BalanceTeams) Name() string {
	return string(MutationBalance)
}

func (m BalanceTeams) Mutate(rng *rand.Rand, ind league.Individual) (league.Individual, error) {
	if err := requireFeasible(m.Name(), ind); err != nil {
		return league.Individual{}, err
	}

	problem := ind.Problem()
	structure := problem.Structure()
	budget := problem.Budget()
	attempts := attemptsOrDefault(m.MaxAttempts)

	for attempt := 0; attempt < attempts; attempt++ {
		teams := ind.Teams()
		low, high := skillExtremes(teams)
		if low == high {
			continue
		}
		pos, ok := sharedPosition(rng, structure, teams[low], teams[high])
		if !ok {
			continue
		}

		weak := teams[low].PlayersAt(pos)
		sort.SliceStable(weak, func(a, b int) bool { return weak[a].Skill < weak[b].Skill })
		strong := teams[high].PlayersAt(pos)
		sort.SliceStable(strong, func(a, b int) bool { return strong[a].Skill > strong[b].Skill })

		examined := 0
	pairs:
		for _, out := range weak {
			for _, in := range strong {
				if m.MaxPairs > 0 && examined >= m.MaxPairs {
					break pairs
				}
				examined++

				nextLow := teams[low].Replace(out.Name, in)
				nextHigh := teams[high].Replace(in.Name, out)
				if !nextLow.IsValid(structure, budget) || !nextHigh.IsValid(structure, budget) {
					continue
				}
				candidate := append([]model.Team(nil), teams...)
				candidate[low] = nextLow
				candidate[high] = nextHigh
				if league.Evaluate(problem, candidate) < ind.Fitness() {
					return league.FromTeams(problem, candidate), nil
				}
			}
		}
	}
	return league.Individual{}, exhausted(m.Name(), attempts, "no exchange improved fitness")
}

// skillExtremes returns the indices of the lowest and highest average-skill
// teams; ties keep the earliest index.
func skillExtremes(teams []model.Team) (int, int) {
	low, high := 0, 0
	for i, team := range teams {
		if team.AvgSkill() < teams[low].AvgSkill() {
			low = i
		}
		if team.AvgSkill() > teams[high].AvgSkill() {
			high = i
		}
	}
	return low, high
}

// sharedPosition picks a random structure position at which both teams
// field at least one player.
func sharedPosition(rng *rand.Rand, structure model.TeamStructure, a, b model.Team) (model.Position, bool) {
	shared := make([]model.Position, 0, len(structure))
	for _, pos := range structure.Positions() {
		if len(a.PlayersAt(pos)) > 0 && len(b.PlayersAt(pos)) > 0 {
			shared = append(shared, pos)
		}
	}
	if len(shared) == 0 {
		return "", false
	}
	return shared[rng.Intn(len(shared))], true
}

func pickPlayer(rng *rand.Rand, players []model.Player) model.Player {
	return players[rng.Intn(len(players))]
}

func namesOf(players []model.Player) map[string]struct{} {
	out := make(map[string]struct{}, len(players))
	for _, p := range players {
		out[p.Name] = struct{}{}
	}
	return out
}
