package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.NoChange == "" {
		return fmt.Errorf("config validation: messages.no_change is required")
	}

	// Validate format strings
	if !strings.Contains(config.Messages.Moved, "%d") {
		return fmt.Errorf("config validation: messages.moved must contain %%d for score")
	}
	if !strings.Contains(config.Messages.GameOver, "%d") {
		return fmt.Errorf("config validation: messages.game_over must contain %%d for final score")
	}
	if strings.Count(config.Messages.Moved, "%") != 1 || strings.Count(config.Messages.GameOver, "%") != 1 {
		return fmt.Errorf("config validation: messages.moved and messages.game_over take exactly one %%d verb")
	}

	return nil
}

// LoadGameConfig reads and validates a game configuration JSON file. Read
// failures keep the underlying fs error so callers can test for
// fs.ErrNotExist.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in classic configuration.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Classic 4x4 board, no seed",
	}
	config.Messages.Welcome = "Join the tiles, get to 2048! Slide with up, down, left or right."
	config.Messages.Moved = "Score: %d"
	config.Messages.NoChange = "Nothing moved. Try another direction."
	config.Messages.GameOver = "Game over! Final score: %d"
	return config
}

// InitGameStateFromConfig creates an empty-board game state for config.
// Starting tiles are placed by the engine, which owns the random source.
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultConfig()
	}

	return &GameState{
		GameID:            uuid.NewString(),
		Score:             0,
		GameOver:          false,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}
