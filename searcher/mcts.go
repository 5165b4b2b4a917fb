package searcher

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"gamesearch/game"
)

// chanceSumTolerance bounds how far a chance distribution may drift from 1.
const chanceSumTolerance = 1e-9

type Option func(bot *MCTSBot)

// WithUCTC sets the PUCT exploration constant.
func WithUCTC(c float64) Option {
	return func(b *MCTSBot) {
		if c > 0 {
			b.uctC = c
		}
	}
}

// WithMaxSimulations caps the number of simulations per Step.
func WithMaxSimulations(n int) Option {
	return func(b *MCTSBot) {
		if n > 0 {
			b.maxSimulations = n
		}
	}
}

// WithMaxMemoryMB sets a soft ceiling on the tree's estimated size. Zero
// means unlimited. The cap is checked between simulations, so the last one
// always completes.
func WithMaxMemoryMB(mb int64) Option {
	return func(b *MCTSBot) {
		b.maxMemory = mb << 20
	}
}

// WithMaxMemoryBytes is the byte-granular form of WithMaxMemoryMB.
func WithMaxMemoryBytes(n int64) Option {
	return func(b *MCTSBot) {
		b.maxMemory = n
	}
}

// WithSolve toggles proven-outcome back-propagation.
func WithSolve(solve bool) Option {
	return func(b *MCTSBot) {
		b.solve = solve
	}
}

// WithSeed seeds the bot's RNG, which drives the expansion shuffle and
// chance sampling during descent.
func WithSeed(seed uint64) Option {
	return func(b *MCTSBot) {
		b.seed = seed
	}
}

// WithVerbose emits per-Step diagnostics through the global logger.
func WithVerbose(verbose bool) Option {
	return func(b *MCTSBot) {
		b.verbose = verbose
	}
}

// WithEvaluator replaces the default single-rollout evaluator.
func WithEvaluator(evaluator Evaluator) Option {
	return func(b *MCTSBot) {
		if evaluator != nil {
			b.evaluator = evaluator
		}
	}
}

// MCTSBot picks actions by Monte Carlo tree search. One Step builds a fresh
// tree from the given state, owned for the duration of the call; nothing is
// shared between moves or goroutines.
type MCTSBot struct {
	game      game.Game
	evaluator Evaluator

	uctC           float64
	maxSimulations int
	maxMemory      int64
	solve          bool
	seed           uint64
	verbose        bool

	maxUtility float64
	rng        *rand.Rand

	memoryUsed int64
	metrics    SearchMetrics
}

// NewMCTSBot validates that the game has sequential turns and terminal
// rewards; any other combination is a configuration error.
func NewMCTSBot(g game.Game, options ...Option) (*MCTSBot, error) {
	gameType := g.Type()
	if gameType.RewardModel != game.TerminalRewards || gameType.Dynamics != game.Sequential {
		return nil, fmt.Errorf("game %q must have sequential turns and terminal rewards", g.Name())
	}

	b := &MCTSBot{
		game:           g,
		uctC:           2,
		maxSimulations: 1000,
		maxUtility:     g.MaxUtility(),
	}
	for _, option := range options {
		option(b)
	}
	b.rng = rand.New(rand.NewSource(b.seed))
	if b.evaluator == nil {
		b.evaluator = NewRandomRolloutEvaluator(1, b.seed+1)
	}
	return b, nil
}

// Step searches from state and returns the chosen action with a policy that
// puts unit probability on it. If the search never expanded the root (a
// single-simulation budget ending at the root itself), the policy is nil and
// the action is game.NoAction.
func (b *MCTSBot) Step(state game.State) ([]game.ActionProb, game.Action) {
	start := time.Now()
	root := b.Search(state)
	best := root.BestChild()

	b.metrics = SearchMetrics{
		Duration:    time.Since(start),
		Simulations: root.ExploreCount,
		TreeBytes:   b.memoryUsed,
		Solved:      root.Outcome != nil,
	}

	if b.verbose {
		log.Info().Msgf("finished %d sims in %.3f secs, %.1f sims/s, tree size: %d mb",
			b.metrics.Simulations, b.metrics.Duration.Seconds(),
			b.metrics.SimsPerSecond(), b.metrics.TreeBytes>>20)
		log.Info().Msgf("root:\n%s", root.String(state))
		log.Info().Msgf("children:\n%s", root.ChildrenStr(state))
		if best != nil {
			chosenState := state.Clone()
			chosenState.ApplyAction(best.Action)
			log.Info().Msgf("children of chosen:\n%s", best.ChildrenStr(chosenState))
		}
	}

	if best == nil {
		return nil, game.NoAction
	}
	return []game.ActionProb{{Action: best.Action, Prob: 1}}, best.Action
}

// Metrics reports on the most recent Step. Calling Search directly does not
// update it.
func (b *MCTSBot) Metrics() SearchMetrics {
	return b.metrics
}

// Search runs simulations from state until the simulation budget runs out,
// the memory cap is hit, or the root is solved, and returns the root of the
// tree it built.
func (b *MCTSBot) Search(state game.State) *SearchNode {
	b.memoryUsed = 0
	root := &SearchNode{Action: game.NoAction, Player: state.CurrentPlayer(), Prior: 1}

	visitPath := make([]*SearchNode, 0, 64)
	for i := 0; i < b.maxSimulations; i++ {
		visitPath = visitPath[:0]
		var working game.State
		visitPath, working = b.applyTreePolicy(root, state, visitPath)

		var returns []float64
		var solved bool
		if working.IsTerminal() {
			returns = working.Returns()
			leaf := visitPath[len(visitPath)-1]
			leaf.Outcome = returns
			b.memoryUsed += sliceBytes(returns)
			solved = b.solve
		} else {
			returns = b.evaluator.Evaluate(working)
		}
		if len(returns) != b.game.NumPlayers() {
			panic(fmt.Sprintf("evaluator returned %d values for a %d-player game",
				len(returns), b.game.NumPlayers()))
		}

		for j := len(visitPath) - 1; j >= 0; j-- {
			node := visitPath[j]
			node.TotalReward += returns[creditIndex(node.Player, len(returns))]
			node.ExploreCount++

			if solved && len(node.Children) > 0 {
				solved = b.propagateSolved(node)
			}
		}

		if root.Outcome != nil { // Whole game solved from this state.
			break
		}
		if b.maxMemory > 0 && b.memoryUsed >= b.maxMemory {
			break
		}
	}
	return root
}

// applyTreePolicy descends from root until it reaches a terminal state or a
// node on its first visit, expanding second-visit nodes on the way. It
// returns the visit path, root first, and the working state at the stop.
func (b *MCTSBot) applyTreePolicy(root *SearchNode, state game.State, visitPath []*SearchNode) ([]*SearchNode, game.State) {
	visitPath = append(visitPath, root)
	working := state.Clone()
	current := root

	for !working.IsTerminal() && current.ExploreCount > 0 {
		if len(current.Children) == 0 {
			// Second arrival at this node: materialize the children, in an
			// order shuffled to remove bias from action enumeration.
			prior := b.evaluator.Prior(working)
			b.rng.Shuffle(len(prior), func(i, j int) {
				prior[i], prior[j] = prior[j], prior[i]
			})
			player := working.CurrentPlayer()
			current.Children = make([]SearchNode, 0, len(prior))
			for _, entry := range prior {
				current.Children = append(current.Children, SearchNode{
					Action: entry.Action,
					Player: player,
					Prior:  entry.Prob,
				})
			}
			b.memoryUsed += sliceBytes(prior) + sliceBytes(current.Children)
		}

		var chosen *SearchNode
		if working.IsChanceNode() {
			outcomes := working.ChanceOutcomes()
			checkChanceSum(outcomes)
			action := sampleOutcome(outcomes, b.rng)
			for j := range current.Children {
				if current.Children[j].Action == action {
					chosen = &current.Children[j]
					break
				}
			}
			if chosen == nil {
				panic(fmt.Sprintf("chance outcome %d has no child node", action))
			}
		} else {
			maxValue := math.Inf(-1)
			for j := range current.Children {
				if value := current.Children[j].Value(current.ExploreCount, b.uctC); value > maxValue {
					maxValue = value
					chosen = &current.Children[j]
				}
			}
			if chosen == nil {
				panic("game contract violated: no legal actions at a non-terminal decision state")
			}
		}

		working.ApplyAction(chosen.Action)
		current = chosen
		visitPath = append(visitPath, current)
	}

	return visitPath, working
}

// propagateSolved tries to derive node's proven outcome from its children.
// It reports whether propagation may continue at the next ancestor.
func (b *MCTSBot) propagateSolved(node *SearchNode) bool {
	player := node.Children[0].Player

	if player == game.ChancePlayer {
		// A chance node is proven only when every outcome is proven to the
		// same value. Averaging partial proofs would not be a proof.
		outcome := node.Children[0].Outcome
		if outcome == nil {
			return false
		}
		for i := 1; i < len(node.Children); i++ {
			if node.Children[i].Outcome == nil || !floats.Equal(node.Children[i].Outcome, outcome) {
				return false
			}
		}
		node.Outcome = outcome
		b.memoryUsed += sliceBytes(outcome)
		return true
	}

	// The mover can force the best proven reply if it reaches max utility,
	// or once every reply is proven.
	var best *SearchNode
	allSolved := true
	for i := range node.Children {
		child := &node.Children[i]
		if child.Outcome == nil {
			allSolved = false
		} else if best == nil || child.Outcome[player] > best.Outcome[player] {
			best = child
		}
	}
	if best != nil && (allSolved || best.Outcome[player] == b.maxUtility) {
		node.Outcome = best.Outcome
		b.memoryUsed += sliceBytes(best.Outcome)
		return true
	}
	return false
}

// creditIndex maps a node's player to an index into a returns or outcome
// vector. Nature's edges credit the last player; their statistics feed
// scoring and diagnostics only, never selection, which samples chance
// children by distribution.
func creditIndex(p game.Player, numPlayers int) int {
	if p == game.ChancePlayer {
		return numPlayers - 1
	}
	return int(p)
}

func checkChanceSum(outcomes []game.ActionProb) {
	sum := 0.0
	for _, o := range outcomes {
		sum += o.Prob
	}
	if math.Abs(sum-1) > chanceSumTolerance {
		panic(fmt.Sprintf("game contract violated: chance outcomes sum to %v", sum))
	}
}
