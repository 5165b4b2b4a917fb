package searcher

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"gamesearch/game"
)

// Evaluator estimates the value of a non-terminal state and supplies the
// prior over its actions. Implementations own their RNG; Evaluate mutates it.
type Evaluator interface {
	// Evaluate returns a per-player value estimate for a non-terminal state.
	Evaluate(state game.State) []float64
	// Prior returns a distribution over the state's legal actions. For chance
	// states it must equal the game's chance distribution.
	Prior(state game.State) []game.ActionProb
}

// RandomRolloutEvaluator plays random games to a terminal, choosing uniformly
// among legal actions and sampling chance nodes by their distribution, and
// averages the returns. Priors are uniform over legal actions; at chance
// states they are the game's chance distribution.
type RandomRolloutEvaluator struct {
	nRollouts int
	rng       *rand.Rand
}

func NewRandomRolloutEvaluator(nRollouts int, seed uint64) *RandomRolloutEvaluator {
	if nRollouts < 1 {
		panic(fmt.Sprintf("rollout evaluator needs at least 1 rollout, got %d", nRollouts))
	}
	return &RandomRolloutEvaluator{
		nRollouts: nRollouts,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (e *RandomRolloutEvaluator) Evaluate(state game.State) []float64 {
	var result []float64
	for i := 0; i < e.nRollouts; i++ {
		working := state.Clone()
		for !working.IsTerminal() {
			var action game.Action
			if working.IsChanceNode() {
				action = sampleOutcome(working.ChanceOutcomes(), e.rng)
			} else {
				actions := working.LegalActions()
				if len(actions) == 0 {
					panic("game contract violated: no legal actions at a non-terminal decision state")
				}
				action = actions[e.rng.Intn(len(actions))]
			}
			working.ApplyAction(action)
		}

		returns := working.Returns()
		if result == nil {
			result = returns
		} else {
			if len(returns) != len(result) {
				panic(fmt.Sprintf("game contract violated: returns length changed from %d to %d", len(result), len(returns)))
			}
			floats.Add(result, returns)
		}
	}
	floats.Scale(1/float64(e.nRollouts), result)
	return result
}

func (e *RandomRolloutEvaluator) Prior(state game.State) []game.ActionProb {
	if state.IsChanceNode() {
		return state.ChanceOutcomes()
	}
	actions := state.LegalActions()
	prior := make([]game.ActionProb, 0, len(actions))
	for _, action := range actions {
		prior = append(prior, game.ActionProb{Action: action, Prob: 1 / float64(len(actions))})
	}
	return prior
}

// sampleOutcome draws one action from a chance distribution by inverse
// transform. The last outcome absorbs any rounding slack.
func sampleOutcome(outcomes []game.ActionProb, rng *rand.Rand) game.Action {
	if len(outcomes) == 0 {
		panic("game contract violated: chance node with no outcomes")
	}
	r := rng.Float64()
	sum := 0.0
	for _, o := range outcomes {
		sum += o.Prob
		if r < sum {
			return o.Action
		}
	}
	return outcomes[len(outcomes)-1].Action
}
