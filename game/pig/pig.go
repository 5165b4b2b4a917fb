// Package pig is the jeopardy dice game Pig: roll to grow a turn total that
// a 1 wipes out, or hold to bank it. Rolls resolve at chance nodes, which
// makes it the stochastic catalog entry.
package pig

import (
	"fmt"

	"gamesearch/game"
)

// Decision actions. Chance actions are the die faces 1..Sides.
const (
	ActionRoll game.Action = 0
	ActionHold game.Action = 1
)

const (
	Sides            = 6
	DefaultWinScore  = 25
	defaultNumPlayer = 2
)

type Game struct {
	winScore int
}

func New(winScore int) *Game {
	if winScore <= 0 {
		winScore = DefaultWinScore
	}
	return &Game{winScore: winScore}
}

func (g *Game) Name() string    { return "pig" }
func (g *Game) NumPlayers() int { return defaultNumPlayer }

func (g *Game) MaxUtility() float64 { return 1 }

func (g *Game) Type() game.Type {
	return game.Type{Dynamics: game.Sequential, RewardModel: game.TerminalRewards}
}

func (g *Game) NewInitialState() game.State {
	return &state{game: g, scores: make([]int, defaultNumPlayer)}
}

type state struct {
	game      *Game
	scores    []int
	turnTotal int
	player    game.Player
	rolling   bool // a roll awaits its die face
}

func (s *state) Clone() game.State {
	clone := *s
	clone.scores = append([]int(nil), s.scores...)
	return &clone
}

func (s *state) IsTerminal() bool {
	for _, score := range s.scores {
		if score >= s.game.winScore {
			return true
		}
	}
	return false
}

func (s *state) IsChanceNode() bool { return s.rolling }

func (s *state) CurrentPlayer() game.Player {
	if s.rolling {
		return game.ChancePlayer
	}
	return s.player
}

func (s *state) LegalActions() []game.Action {
	if s.IsTerminal() || s.rolling {
		return nil
	}
	return []game.Action{ActionRoll, ActionHold}
}

func (s *state) ChanceOutcomes() []game.ActionProb {
	if !s.rolling {
		return nil
	}
	outcomes := make([]game.ActionProb, 0, Sides)
	for face := 1; face <= Sides; face++ {
		outcomes = append(outcomes, game.ActionProb{Action: game.Action(face), Prob: 1.0 / Sides})
	}
	return outcomes
}

func (s *state) ApplyAction(action game.Action) {
	if s.rolling {
		face := int(action)
		if face < 1 || face > Sides {
			panic(fmt.Sprintf("illegal die face %d", action))
		}
		s.rolling = false
		if face == 1 {
			s.turnTotal = 0
			s.player = (s.player + 1) % game.Player(len(s.scores))
		} else {
			s.turnTotal += face
		}
		return
	}

	switch action {
	case ActionRoll:
		s.rolling = true
	case ActionHold:
		s.scores[s.player] += s.turnTotal
		s.turnTotal = 0
		s.player = (s.player + 1) % game.Player(len(s.scores))
	default:
		panic(fmt.Sprintf("illegal action %d", action))
	}
}

func (s *state) Returns() []float64 {
	returns := make([]float64, len(s.scores))
	if !s.IsTerminal() {
		return returns
	}
	for i, score := range s.scores {
		if score >= s.game.winScore {
			returns[i] = 1
		} else {
			returns[i] = -1
		}
	}
	return returns
}

func (s *state) ActionToString(player game.Player, action game.Action) string {
	if player == game.ChancePlayer {
		return fmt.Sprintf("roll %d", action)
	}
	if action == ActionRoll {
		return "roll"
	}
	return "hold"
}

func (s *state) String() string {
	return fmt.Sprintf("scores: %v, turn total: %d, player %d to move", s.scores, s.turnTotal, s.player)
}
