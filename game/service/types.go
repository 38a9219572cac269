package service

import (
	"time"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Moved         bool              `json:"moved"`
	Direction     engine.Direction  `json:"direction"`
	ScoreGained   int               `json:"score_gained"`
	Merges        int               `json:"merges"`
	Spawned       *engine.Tile      `json:"spawned,omitempty"`
	GameState     *engine.GameState `json:"game_state"`
	Message       string            `json:"message"`
	Events        []GameEvent       `json:"events,omitempty"`
	PossibleMoves []string          `json:"possible_moves"`
}

// Stop reason codes reported by BulkMove.
const (
	StopGameOver         = "game_over"
	StopInvalidDirection = "invalid_direction"
)

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	NoOpMoves      int               `json:"no_op_moves"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // game_over|invalid_direction
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx         int          `json:"idx"`
	Dir         string       `json:"dir"`
	Moved       bool         `json:"moved"`
	ScoreGained int          `json:"score_gained,omitempty"`
	Merges      int          `json:"merges,omitempty"`
	Spawned     *engine.Tile `json:"spawned,omitempty"`
	ScoreAfter  int          `json:"score_after"`
}

// Event types carried by GameEvent.
const (
	EventReset    = "reset"
	EventMove     = "move"
	EventMerge    = "merge"
	EventSpawn    = "spawn"
	EventNoChange = "no_change"
	EventGameOver = "game_over"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Tile      *engine.Tile `json:"tile,omitempty"`
}

// Hint is the one-ply suggestion for the current board.
type Hint struct {
	Available     bool             `json:"available"`
	Direction     engine.Direction `json:"direction,omitempty"`
	ScoreGained   int              `json:"score_gained"`
	EmptyAfter    int              `json:"empty_after"`
	PossibleMoves []string         `json:"possible_moves"`
	Board         string           `json:"board"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Seeded      bool   `json:"seeded"`
}
