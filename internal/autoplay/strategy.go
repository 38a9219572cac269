package autoplay

import (
	"fmt"
	"math/rand/v2"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

// Strategy picks the next direction for a board. It returns false when it
// has no move to offer.
type Strategy interface {
	Name() string
	NextMove(g engine.Grid) (engine.Direction, bool)
}

// Greedy plays the one-ply best move: most score, then most empty cells.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) NextMove(g engine.Grid) (engine.Direction, bool) {
	return engine.BestMove(g)
}

// Corner keeps the big tiles in the bottom-left corner by trying down, left,
// right and up in that order.
type Corner struct{}

var cornerOrder = []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}

func (Corner) Name() string { return "corner" }

func (Corner) NextMove(g engine.Grid) (engine.Direction, bool) {
	for _, dir := range cornerOrder {
		if res, err := engine.Slide(g, dir); err == nil && res.Moved {
			return dir, true
		}
	}
	return "", false
}

// Random picks uniformly among the directions that change the board.
type Random struct {
	Rand *rand.Rand
}

func (Random) Name() string { return "random" }

func (r Random) NextMove(g engine.Grid) (engine.Direction, bool) {
	var possible []engine.Direction
	for _, dir := range engine.Directions {
		if res, err := engine.Slide(g, dir); err == nil && res.Moved {
			possible = append(possible, dir)
		}
	}
	if len(possible) == 0 {
		return "", false
	}
	return possible[r.Rand.IntN(len(possible))], true
}

// StrategyByName returns the named strategy. seed feeds the random strategy.
func StrategyByName(name string, seed uint64) (Strategy, error) {
	switch name {
	case "greedy", "":
		return Greedy{}, nil
	case "corner":
		return Corner{}, nil
	case "random":
		return Random{Rand: rand.New(rand.NewPCG(seed, seed+1))}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q: use greedy, corner or random", name)
}
