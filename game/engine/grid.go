package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a board that the engine could never have produced.
var ErrInvariantViolation = errors.New("grid invariant violated")

// SlideResult is the outcome of sliding a board in one direction, before any spawn.
type SlideResult struct {
	Grid   Grid
	Gained int
	Merges int
	Moved  bool
}

// CompressAndMerge reduces one line toward index 0 and returns the new line
// together with the score it earned. Merges are pairwise and never chain:
// [2,2,2,0] becomes [4,2,0,0].
func CompressAndMerge(line Line) (Line, int) {
	out, gained, _ := compressAndMerge(line)
	return out, gained
}

func compressAndMerge(line Line) (Line, int, int) {
	tiles := make([]int, 0, Size)
	for _, v := range line {
		if v != 0 {
			tiles = append(tiles, v)
		}
	}

	var out Line
	n, gained, merges := 0, 0, 0
	skip := false
	for i := range tiles {
		if skip {
			skip = false
			continue
		}
		if i+1 < len(tiles) && tiles[i] == tiles[i+1] {
			v := tiles[i] * 2
			out[n] = v
			gained += v
			merges++
			skip = true
		} else {
			out[n] = tiles[i]
		}
		n++
	}
	return out, gained, merges
}

// Slide applies CompressAndMerge to every line of g in the given direction.
// Right and down read each line reversed, reduce it, and write it back reversed.
// Moved is decided against g as it was before any line was touched.
func Slide(g Grid, dir Direction) (SlideResult, error) {
	if !dir.Valid() {
		return SlideResult{Grid: g}, fmt.Errorf("%w %q", ErrInvalidDirection, string(dir))
	}

	res := SlideResult{Grid: g}
	for i := 0; i < Size; i++ {
		out, gained, merges := compressAndMerge(g.line(dir, i))
		res.Grid.setLine(dir, i, out)
		res.Gained += gained
		res.Merges += merges
	}
	res.Moved = res.Grid != g
	return res, nil
}

// line returns the i-th row or column of g ordered in the direction of travel.
func (g *Grid) line(dir Direction, i int) Line {
	var l Line
	for k := 0; k < Size; k++ {
		r, c := cellOf(dir, i, k)
		l[k] = g[r][c]
	}
	return l
}

func (g *Grid) setLine(dir Direction, i int, l Line) {
	for k := 0; k < Size; k++ {
		r, c := cellOf(dir, i, k)
		g[r][c] = l[k]
	}
}

// cellOf maps position k of line i to board coordinates.
func cellOf(dir Direction, i, k int) (row, col int) {
	switch dir {
	case Right:
		return i, Size - 1 - k
	case Up:
		return k, i
	case Down:
		return Size - 1 - k, i
	default:
		return i, k
	}
}

// IsTerminalGrid reports whether no move can change g: no empty cell and no
// equal pair to the right or below any cell.
func IsTerminalGrid(g Grid) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == 0 {
				return false
			}
		}
	}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if r+1 < Size && g[r][c] == g[r+1][c] {
				return false
			}
			if c+1 < Size && g[r][c] == g[r][c+1] {
				return false
			}
		}
	}
	return true
}

// Validate checks that every cell is empty or a power of two no smaller than 2.
func (g Grid) Validate() error {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if v := g[r][c]; v != 0 && !isPowerOfTwo(v) {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvariantViolation, r, c, v)
			}
		}
	}
	return nil
}

func isPowerOfTwo(v int) bool {
	return v >= 2 && v&(v-1) == 0
}

// EmptyCells lists empty cells in row-major order.
func (g Grid) EmptyCells() []Tile {
	var cells []Tile
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == 0 {
				cells = append(cells, Tile{Row: r, Col: c})
			}
		}
	}
	return cells
}

// MaxTile returns the largest value on the board.
func (g Grid) MaxTile() int {
	best := 0
	for _, row := range g {
		for _, v := range row {
			if v > best {
				best = v
			}
		}
	}
	return best
}

// Sum returns the total of all tile values.
func (g Grid) Sum() int {
	total := 0
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// CountTiles returns the number of non-empty cells.
func (g Grid) CountTiles() int {
	return Size*Size - len(g.EmptyCells())
}

// UnmarshalJSON rejects boards that are not exactly Size x Size. The default
// array decoding would silently truncate or zero-fill them.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) != Size {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvariantViolation, Size, len(rows))
	}
	var out Grid
	for r, row := range rows {
		if len(row) != Size {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvariantViolation, r, len(row), Size)
		}
		copy(out[r][:], row)
	}
	*g = out
	return nil
}
