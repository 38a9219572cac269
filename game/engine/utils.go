package engine

import (
	"fmt"
	"strings"
)

// BestMove picks the direction whose slide earns the most score, breaking ties
// by the number of empty cells left and then by the order of Directions. It
// returns false when no direction changes the board.
func BestMove(g Grid) (Direction, bool) {
	var best Direction
	bestGain, bestEmpty := -1, -1
	for _, dir := range Directions {
		res, err := Slide(g, dir)
		if err != nil || !res.Moved {
			continue
		}
		empty := len(res.Grid.EmptyCells())
		if res.Gained > bestGain || (res.Gained == bestGain && empty > bestEmpty) {
			best, bestGain, bestEmpty = dir, res.Gained, empty
		}
	}
	return best, best != ""
}

// FormatGrid renders the board as fixed-width text, one row per line, with
// dots for empty cells.
func FormatGrid(g Grid) string {
	width := len(fmt.Sprint(g.MaxTile()))
	if width < 4 {
		width = 4
	}
	var b strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := "."
			if v := g[r][c]; v != 0 {
				cell = fmt.Sprint(v)
			}
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%*s", width, cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
