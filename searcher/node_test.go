package searcher

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gamesearch/game"
)

func TestNodeValue(t *testing.T) {
	t.Run("unvisited node scores pure exploration", func(t *testing.T) {
		node := &SearchNode{Prior: 0.25}

		got := node.Value(16, 2)

		require.InDelta(t, 2*0.25*4.0/1.0, got, 1e-12)
	})

	t.Run("visited node adds mean reward", func(t *testing.T) {
		node := &SearchNode{Prior: 0.5, ExploreCount: 3, TotalReward: 1.5}

		got := node.Value(9, 2)

		require.InDelta(t, 0.5+2*0.5*3.0/4.0, got, 1e-12)
	})

	t.Run("proven chance child scores the last player's return", func(t *testing.T) {
		node := &SearchNode{Player: game.ChancePlayer, Outcome: []float64{0.25}}

		require.Equal(t, 0.25, node.Value(10, 2))
	})

	t.Run("proven node scores its outcome for the mover", func(t *testing.T) {
		node := &SearchNode{Player: 1, Prior: 0.9, ExploreCount: 50,
			TotalReward: 40, Outcome: []float64{-1, 1}}

		got := node.Value(100, 2)

		require.Equal(t, 1.0, got)
	})
}

func TestCompareFinal(t *testing.T) {
	t.Run("proven win beats unproven high visits", func(t *testing.T) {
		win := &SearchNode{Outcome: []float64{1, -1}, ExploreCount: 2}
		busy := &SearchNode{ExploreCount: 1000, TotalReward: 900}

		require.True(t, busy.compareFinal(win))
		require.False(t, win.compareFinal(busy))
	})

	t.Run("proven loss ranks below unproven", func(t *testing.T) {
		loss := &SearchNode{Outcome: []float64{-1, 1}, ExploreCount: 500}
		unsolved := &SearchNode{ExploreCount: 3}

		require.True(t, loss.compareFinal(unsolved))
	})

	t.Run("proven draw beats unproven only on visits", func(t *testing.T) {
		draw := &SearchNode{Outcome: []float64{0, 0}, ExploreCount: 10}
		fewerVisits := &SearchNode{ExploreCount: 8, TotalReward: -5}
		moreVisits := &SearchNode{ExploreCount: 12, TotalReward: -5}

		require.True(t, fewerVisits.compareFinal(draw))
		require.True(t, draw.compareFinal(moreVisits))
	})

	t.Run("proven chance children compare without a real mover", func(t *testing.T) {
		win := &SearchNode{Player: game.ChancePlayer, Outcome: []float64{1}}
		loss := &SearchNode{Player: game.ChancePlayer, Outcome: []float64{0}, ExploreCount: 40}

		require.True(t, loss.compareFinal(win))
		require.False(t, win.compareFinal(loss))
	})

	t.Run("total reward breaks visit ties", func(t *testing.T) {
		richer := &SearchNode{ExploreCount: 7, TotalReward: 3}
		poorer := &SearchNode{ExploreCount: 7, TotalReward: 2}

		require.True(t, poorer.compareFinal(richer))
		require.False(t, richer.compareFinal(poorer))
	})
}

func TestBestChild(t *testing.T) {
	t.Run("empty children yields nil", func(t *testing.T) {
		node := &SearchNode{}

		require.Nil(t, node.BestChild())
	})

	t.Run("picks proven draw over losing statistics", func(t *testing.T) {
		node := &SearchNode{Children: []SearchNode{
			{Action: 1, ExploreCount: 8, TotalReward: -5},
			{Action: 2, Outcome: []float64{0, 0}, ExploreCount: 10},
		}}

		require.Equal(t, game.Action(2), node.BestChild().Action)
	})

	t.Run("first among equals wins", func(t *testing.T) {
		node := &SearchNode{Children: []SearchNode{
			{Action: 3, ExploreCount: 5, TotalReward: 1},
			{Action: 4, ExploreCount: 5, TotalReward: 1},
		}}

		require.Equal(t, game.Action(3), node.BestChild().Action)
	})
}

func TestNodeString(t *testing.T) {
	g := newTreeGame(1, 1, decision(0,
		edge{action: 0, child: terminal(1)},
		edge{action: 1, child: terminal(0)},
	))
	state := g.NewInitialState()

	t.Run("root renders the none action", func(t *testing.T) {
		root := &SearchNode{Action: game.NoAction, Prior: 1}

		got := root.String(state)

		require.Contains(t, got, "none")
		require.Contains(t, got, "prior: 1.000")
	})

	t.Run("children listing sorts best first", func(t *testing.T) {
		node := &SearchNode{Children: []SearchNode{
			{Action: 0, ExploreCount: 2, TotalReward: 0},
			{Action: 1, ExploreCount: 9, TotalReward: 6},
		}}

		got := node.ChildrenStr(state)

		require.Less(t, strings.Index(got, "a1"), strings.Index(got, "a0"),
			"the more explored child should print first")
	})
}

func TestValueInfinityGuards(t *testing.T) {
	// A fresh child of a once-visited parent must produce a finite score.
	node := &SearchNode{Prior: 1}

	got := node.Value(1, 2)

	require.False(t, math.IsInf(got, 0))
	require.False(t, math.IsNaN(got))
}
