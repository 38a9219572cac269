package engine

import (
	"fmt"
	"math/rand/v2"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsTerminal() bool
	GetScore() int
	GetGrid() Grid

	// Movement operations
	Move(direction Direction) (bool, error)
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	BulkMove(moves []Direction) ([]MoveHistoryEntry, error)

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface. A GameEngine is owned by one
// session and must not be mutated from several goroutines at once.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
}

// NewEngine creates a new game engine with the provided configuration and
// places the starting tiles.
func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithRand(config, nil)
}

// NewEngineWithRand is NewEngine with an explicit random source. A nil rng
// falls back to the config seed, or to a random seed when the config has none.
func NewEngineWithRand(config *GameConfig, rng *rand.Rand) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = newRand(config)
	}

	engine := &GameEngine{
		config: config,
		rng:    rng,
	}
	engine.state = InitGameStateFromConfig(config)
	engine.placeStartingTiles()

	return engine, nil
}

func newRand(config *GameConfig) *rand.Rand {
	if config != nil && config.Seed != nil {
		seed := *config.Seed
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// GetState returns a copy of the current game state.
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// SetState installs a state produced elsewhere (persistence, tests). Boards
// holding values the engine could not have produced are refused.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := state.Grid.Validate(); err != nil {
		return err
	}
	state.MaxTile = state.Grid.MaxTile()
	state.MoveHistory = trimHistory(state.MoveHistory)
	state.CurrentMoves = trimHistory(state.CurrentMoves)
	e.state = state
	return nil
}

// Reset starts a new game: empty board, score 0, not terminal, two fresh
// tiles. The cumulative move log survives; the current segment does not.
// The returned state is a copy.
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.placeStartingTiles()

	return e.state.Clone()
}

func (e *GameEngine) placeStartingTiles() {
	for i := 0; i < StartingTiles; i++ {
		e.state.LastSpawn = e.spawnTile()
	}
	e.state.MaxTile = e.state.Grid.MaxTile()
}

// spawnTile places a 2 or a 4, with even odds, on a uniformly chosen empty
// cell. It returns nil when the board is full.
func (e *GameEngine) spawnTile() *Tile {
	empty := e.state.Grid.EmptyCells()
	if len(empty) == 0 {
		return nil
	}
	t := empty[e.rng.IntN(len(empty))]
	t.Value = 2
	if e.rng.IntN(2) == 1 {
		t.Value = 4
	}
	e.state.Grid[t.Row][t.Col] = t.Value
	return &t
}

// IsTerminal reports whether the last committing move left no possible move.
func (e *GameEngine) IsTerminal() bool {
	return e.state.GameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetGrid returns a copy of the board.
func (e *GameEngine) GetGrid() Grid {
	return e.state.Grid
}

// Move slides the board in direction. It reports whether the board changed;
// only then is a tile spawned and the terminal flag re-evaluated.
func (e *GameEngine) Move(direction Direction) (bool, error) {
	res, err := Slide(e.state.Grid, direction)
	if err != nil {
		return false, err
	}

	var spawned *Tile
	if res.Moved {
		e.state.Grid = res.Grid
		e.state.Score += res.Gained
		spawned = e.spawnTile()
		e.state.LastSpawn = spawned
		e.state.MaxTile = e.state.Grid.MaxTile()
		e.state.GameOver = IsTerminalGrid(e.state.Grid)
	}

	e.state.Message = e.moveMessage(res.Moved)
	e.state.AddMoveToHistory(newHistoryEntry(direction, res.Moved, res.Gained, res.Merges,
		spawned, e.state.Score, e.state.TotalMoves+1))

	return res.Moved, nil
}

func (e *GameEngine) moveMessage(moved bool) string {
	msgs := e.config.Messages
	switch {
	case e.state.GameOver:
		return fmt.Sprintf(msgs.GameOver, e.state.Score)
	case moved:
		return fmt.Sprintf(msgs.Moved, e.state.Score)
	default:
		return msgs.NoChange
	}
}

// CanMove checks whether sliding in direction would change the board
func (e *GameEngine) CanMove(direction Direction) bool {
	res, err := Slide(e.state.Grid, direction)
	return err == nil && res.Moved
}

// GetPossibleMoves returns all directions that would change the board
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns a copy of the retained move log, oldest first. At
// most MaxMoveHistory entries are kept.
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry(nil), e.state.MoveHistory...)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := e.state.MoveHistory[len(e.state.MoveHistory)-1]
	return &last
}

// BulkMove applies moves in order and returns the history entry recorded for
// each applied move. Once the game is over the remaining moves are skipped.
// An invalid direction stops the batch; its error is returned together with
// the entries applied before it.
func (e *GameEngine) BulkMove(moves []Direction) ([]MoveHistoryEntry, error) {
	entries := make([]MoveHistoryEntry, 0, len(moves))

	for _, direction := range moves {
		if e.IsTerminal() {
			break
		}

		if _, err := e.Move(direction); err != nil {
			return entries, err
		}
		entries = append(entries, *e.GetLastMove())
	}

	return entries, nil
}
