// Package engine plays complete games between bots, resolving chance nodes
// outside the bots' searches.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"gamesearch/game"
	"gamesearch/searcher"
)

// Bot picks one action per decision state.
type Bot interface {
	Step(state game.State) ([]game.ActionProb, game.Action)
}

// MetricsReporter is implemented by bots that track per-move search stats.
type MetricsReporter interface {
	Metrics() searcher.SearchMetrics
}

// MoveRecord is one decision made during a game.
type MoveRecord struct {
	Move    int
	Player  game.Player
	Action  string
	Metrics searcher.SearchMetrics
}

// Result is the outcome of one finished game.
type Result struct {
	Returns  []float64
	History  []string
	Moves    []MoveRecord
	Duration time.Duration
}

// Engine owns one matchup: a game and one bot per player.
type Engine struct {
	game game.Game
	bots []Bot
	rng  *rand.Rand
}

func New(g game.Game, bots []Bot, seed uint64) (*Engine, error) {
	if len(bots) != g.NumPlayers() {
		return nil, fmt.Errorf("game %q needs %d bots, got %d", g.Name(), g.NumPlayers(), len(bots))
	}
	return &Engine{
		game: g,
		bots: bots,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// Play runs one game to its terminal state. Chance nodes are sampled from
// the engine's RNG; decision nodes ask the current player's bot.
func (e *Engine) Play() (Result, error) {
	start := time.Now()
	state := e.game.NewInitialState()

	var result Result
	moveNum := 0
	for !state.IsTerminal() {
		var action game.Action
		player := state.CurrentPlayer()

		if state.IsChanceNode() {
			action = sampleOutcome(state.ChanceOutcomes(), e.rng)
		} else {
			bot := e.bots[player]
			_, action = bot.Step(state)
			if action == game.NoAction {
				return Result{}, fmt.Errorf("bot for player %d returned no action", player)
			}
			moveNum++
			record := MoveRecord{
				Move:   moveNum,
				Player: player,
				Action: state.ActionToString(player, action),
			}
			if reporter, ok := bot.(MetricsReporter); ok {
				record.Metrics = reporter.Metrics()
			}
			result.Moves = append(result.Moves, record)
		}

		actionStr := state.ActionToString(player, action)
		log.Debug().Int("player", int(player)).Str("action", actionStr).Msg("applying action")
		result.History = append(result.History, actionStr)
		state.ApplyAction(action)
	}

	result.Returns = state.Returns()
	result.Duration = time.Since(start)
	log.Info().Floats64("returns", result.Returns).Int("moves", len(result.History)).
		Dur("duration", result.Duration).Msg("game over")
	return result, nil
}

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
