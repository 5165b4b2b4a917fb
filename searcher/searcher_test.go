package searcher

import (
	"fmt"

	"gamesearch/game"
)

// treeGame is a game defined by an explicit tree, for driving the searcher
// through exact scenarios.
type treeGame struct {
	name       string
	players    int
	maxUtility float64
	gameType   game.Type
	root       *treeNode
}

type treeNode struct {
	player   game.Player
	outcomes []game.ActionProb // chance distribution; nil for decision nodes
	order    []game.Action
	edges    map[game.Action]*treeNode
	returns  []float64 // non-nil marks a terminal
}

func newTreeGame(players int, maxUtility float64, root *treeNode) *treeGame {
	return &treeGame{
		name:       "tree",
		players:    players,
		maxUtility: maxUtility,
		gameType:   game.Type{Dynamics: game.Sequential, RewardModel: game.TerminalRewards},
		root:       root,
	}
}

func (g *treeGame) Name() string            { return g.name }
func (g *treeGame) NumPlayers() int         { return g.players }
func (g *treeGame) MaxUtility() float64     { return g.maxUtility }
func (g *treeGame) Type() game.Type         { return g.gameType }
func (g *treeGame) NewInitialState() game.State {
	return &treeState{game: g, node: g.root}
}

// terminal makes a leaf with the given per-player returns.
func terminal(returns ...float64) *treeNode {
	return &treeNode{returns: returns}
}

type edge struct {
	action game.Action
	prob   float64 // used only under chance nodes
	child  *treeNode
}

// decision makes a node where player picks among the edges.
func decision(player game.Player, edges ...edge) *treeNode {
	node := &treeNode{player: player, edges: map[game.Action]*treeNode{}}
	for _, e := range edges {
		node.order = append(node.order, e.action)
		node.edges[e.action] = e.child
	}
	return node
}

// chance makes a node where nature draws among the edges by prob.
func chance(edges ...edge) *treeNode {
	node := &treeNode{player: game.ChancePlayer, edges: map[game.Action]*treeNode{}}
	for _, e := range edges {
		node.order = append(node.order, e.action)
		node.edges[e.action] = e.child
		node.outcomes = append(node.outcomes, game.ActionProb{Action: e.action, Prob: e.prob})
	}
	return node
}

type treeState struct {
	game *treeGame
	node *treeNode
}

func (s *treeState) Clone() game.State {
	return &treeState{game: s.game, node: s.node}
}

func (s *treeState) IsTerminal() bool   { return s.node.returns != nil }
func (s *treeState) IsChanceNode() bool { return s.node.outcomes != nil }

func (s *treeState) CurrentPlayer() game.Player { return s.node.player }

func (s *treeState) LegalActions() []game.Action {
	if s.IsTerminal() || s.IsChanceNode() {
		return nil
	}
	return append([]game.Action(nil), s.node.order...)
}

func (s *treeState) ChanceOutcomes() []game.ActionProb {
	return append([]game.ActionProb(nil), s.node.outcomes...)
}

func (s *treeState) ApplyAction(action game.Action) {
	child, ok := s.node.edges[action]
	if !ok {
		panic(fmt.Sprintf("illegal action %d", action))
	}
	s.node = child
}

func (s *treeState) Returns() []float64 {
	return append([]float64(nil), s.node.returns...)
}

func (s *treeState) ActionToString(player game.Player, action game.Action) string {
	return fmt.Sprintf("a%d", action)
}

func (s *treeState) String() string { return "tree state" }

// stubEvaluator returns canned values and priors.
type stubEvaluator struct {
	value  []float64
	priors func(state game.State) []game.ActionProb
}

func (e *stubEvaluator) Evaluate(state game.State) []float64 {
	return append([]float64(nil), e.value...)
}

func (e *stubEvaluator) Prior(state game.State) []game.ActionProb {
	if state.IsChanceNode() {
		return state.ChanceOutcomes()
	}
	if e.priors != nil {
		if p := e.priors(state); p != nil {
			return p
		}
	}
	actions := state.LegalActions()
	prior := make([]game.ActionProb, 0, len(actions))
	for _, action := range actions {
		prior = append(prior, game.ActionProb{Action: action, Prob: 1 / float64(len(actions))})
	}
	return prior
}
