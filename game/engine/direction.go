package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrInvalidDirection is returned for any direction outside Left, Right, Up, Down.
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is one of the four slide directions.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Directions lists every valid direction in a stable order.
var Directions = []Direction{Up, Down, Left, Right}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	switch d {
	case Left, Right, Up, Down:
		return true
	}
	return false
}

func (d Direction) String() string { return string(d) }

// ParseDirection converts user input into a Direction. Matching ignores case
// and surrounding space. Close misspellings get a suggestion in the error.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d, nil
	}
	if hint, ok := suggestDirection(string(d)); ok {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrInvalidDirection, s, hint)
	}
	return "", fmt.Errorf("%w %q: must be one of up, down, left, right", ErrInvalidDirection, s)
}

// suggestDirection returns the closest direction within an edit distance of 2.
func suggestDirection(s string) (Direction, bool) {
	if s == "" {
		return "", false
	}
	best, bestDist := Direction(""), 3
	for _, d := range Directions {
		if dist := levenshtein.ComputeDistance(s, string(d)); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, best != ""
}
