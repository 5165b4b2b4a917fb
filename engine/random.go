package engine

import (
	"golang.org/x/exp/rand"

	"gamesearch/game"
)

// RandomBot plays uniformly at random. It is the baseline opponent for
// benchmarking search bots.
type RandomBot struct {
	rng *rand.Rand
}

func NewRandomBot(seed uint64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) Step(state game.State) ([]game.ActionProb, game.Action) {
	actions := state.LegalActions()
	if len(actions) == 0 {
		return nil, game.NoAction
	}
	policy := make([]game.ActionProb, 0, len(actions))
	for _, action := range actions {
		policy = append(policy, game.ActionProb{Action: action, Prob: 1 / float64(len(actions))})
	}
	return policy, actions[b.rng.Intn(len(actions))]
}
