package engine

import "time"

const (
	// Size is the board dimension; the board is always Size x Size.
	Size = 4

	// StartingTiles is the number of tiles placed by Reset.
	StartingTiles = 2

	MaxBulkMoves        = 50
	WebSocketBufferSize = 256

	// MaxMoveHistory bounds the retained move log and the current segment.
	MaxMoveHistory = 1000
)

// Line is one row or column of the board, ordered in the direction of travel.
type Line [Size]int

// Grid is the board, indexed [row][col]. Zero marks an empty cell.
type Grid [Size][Size]int

// Tile describes a single placed tile.
type Tile struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Seed makes every session created from this config replay the same
	// spawn sequence. Nil means a fresh random source per engine.
	Seed     *uint64 `json:"seed,omitempty"`
	Messages struct {
		Welcome  string `json:"welcome"`
		Moved    string `json:"moved"`
		NoChange string `json:"no_change"`
		GameOver string `json:"game_over"`
	} `json:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	GameID     string `json:"game_id"`
	Grid       Grid   `json:"grid"`
	Score      int    `json:"score"`
	GameOver   bool   `json:"game_over"`
	MaxTile    int    `json:"max_tile"`
	Message    string `json:"message"`
	ConfigName string `json:"config_name"`
	LastSpawn  *Tile  `json:"last_spawn,omitempty"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action      Direction `json:"action"`
	Moved       bool      `json:"moved"`
	ScoreGained int       `json:"score_gained"`
	Merges      int       `json:"merges"`
	Spawned     *Tile     `json:"spawned,omitempty"`
	Score       int       `json:"score"`
	Timestamp   int64     `json:"timestamp"`
	MoveNumber  int       `json:"move_number"`
}

func newHistoryEntry(dir Direction, moved bool, gained, merges int, spawned *Tile, score, number int) MoveHistoryEntry {
	return MoveHistoryEntry{
		Action:      dir,
		Moved:       moved,
		ScoreGained: gained,
		Merges:      merges,
		Spawned:     spawned,
		Score:       score,
		Timestamp:   time.Now().Unix(),
		MoveNumber:  number,
	}
}
