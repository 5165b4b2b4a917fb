package searcher

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gamesearch/game"
)

// SearchNode is one explored position, keyed by the action on the edge from
// its parent. Player is whoever was to move at the parent, so the edge
// statistics credit the player who chose the action.
type SearchNode struct {
	Action game.Action
	Player game.Player
	Prior  float64

	// ExploreCount is the number of simulations that passed through this
	// node. Children stay nil until the second visit.
	ExploreCount int
	TotalReward  float64

	// Outcome is nil while the node's value is unknown. Once set it holds a
	// proven per-player return vector and never changes.
	Outcome []float64

	Children []SearchNode
}

// outcomeValue is the proven return credited to this node's player. Nature's
// edges credit the last player, matching back-propagation.
func (n *SearchNode) outcomeValue() float64 {
	return n.Outcome[creditIndex(n.Player, len(n.Outcome))]
}

// Value is the PUCT selection score of this node as a child of a parent with
// the given visit count. Proven nodes score their guaranteed return instead.
func (n *SearchNode) Value(parentExploreCount int, uctC float64) float64 {
	if n.Outcome != nil {
		return n.outcomeValue()
	}

	exploit := 0.0
	if n.ExploreCount > 0 {
		exploit = n.TotalReward / float64(n.ExploreCount)
	}
	return exploit + uctC*n.Prior*math.Sqrt(float64(parentExploreCount))/float64(n.ExploreCount+1)
}

// compareFinal orders children for the final move choice: proven score for
// the mover, then visits, then total reward. Reports whether n ranks below b.
func (n *SearchNode) compareFinal(b *SearchNode) bool {
	out, outB := 0.0, 0.0
	if n.Outcome != nil {
		out = n.outcomeValue()
	}
	if b.Outcome != nil {
		outB = b.outcomeValue()
	}
	if out != outB {
		return out < outB
	}
	if n.ExploreCount != b.ExploreCount {
		return n.ExploreCount < b.ExploreCount
	}
	return n.TotalReward < b.TotalReward
}

// BestChild returns the child to play, or nil if the node was never
// expanded. A proven win beats any unproven action; a proven loss ranks
// below everything unsolved; otherwise the most-visited child wins, with
// total reward breaking visit ties. First among equals wins.
func (n *SearchNode) BestChild() *SearchNode {
	if len(n.Children) == 0 {
		return nil
	}
	best := &n.Children[0]
	for i := 1; i < len(n.Children); i++ {
		if best.compareFinal(&n.Children[i]) {
			best = &n.Children[i]
		}
	}
	return best
}

// String renders one diagnostic line for this node as seen from state, the
// position the node's edge leads out of.
func (n *SearchNode) String(state game.State) string {
	actionStr := "none"
	if n.Action != game.NoAction {
		actionStr = state.ActionToString(n.Player, n.Action)
	}
	value := 0.0
	if n.ExploreCount > 0 {
		value = n.TotalReward / float64(n.ExploreCount)
	}
	outcomeStr := "none"
	if n.Outcome != nil {
		outcomeStr = fmt.Sprintf("%4.1f", n.outcomeValue())
	}
	return fmt.Sprintf("%6s: player: %d, prior: %5.3f, value: %6.3f, sims: %5d, outcome: %s, %3d children",
		actionStr, n.Player, n.Prior, value, n.ExploreCount, outcomeStr, len(n.Children))
}

// ChildrenStr renders the children sorted best-first, one line each.
func (n *SearchNode) ChildrenStr(state game.State) string {
	if len(n.Children) == 0 {
		return ""
	}
	refs := make([]*SearchNode, len(n.Children))
	for i := range n.Children {
		refs[i] = &n.Children[i]
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[j].compareFinal(refs[i])
	})
	var sb strings.Builder
	for _, child := range refs {
		sb.WriteString(child.String(state))
		sb.WriteByte('\n')
	}
	return sb.String()
}
