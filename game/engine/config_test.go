package engine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	config := &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
	}
	config.Messages.Welcome = "Welcome to the test game!"
	config.Messages.Moved = "Score: %d"
	config.Messages.NoChange = "Nothing moved"
	config.Messages.GameOver = "Game over with %d points"
	return config
}

const testConfigJSON = `{
	"name": "Test Config",
	"description": "Test description",
	"seed": 99,
	"messages": {
		"welcome": "Welcome!",
		"moved": "Score: %d",
		"no_change": "No change",
		"game_over": "Over at %d"
	}
}`

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to pass validation, got error: %v", err)
	}
}

func TestValidateGameConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"missing welcome", func(c *GameConfig) { c.Messages.Welcome = "" }, "messages.welcome"},
		{"missing no change", func(c *GameConfig) { c.Messages.NoChange = "" }, "messages.no_change"},
		{"moved without verb", func(c *GameConfig) { c.Messages.Moved = "Moved" }, "messages.moved"},
		{"game over without verb", func(c *GameConfig) { c.Messages.GameOver = "Done" }, "messages.game_over"},
		{"moved with two verbs", func(c *GameConfig) { c.Messages.Moved = "%d of %d" }, "exactly one"},
		{"game over with stray percent", func(c *GameConfig) { c.Messages.GameOver = "100% done: %d" }, "exactly one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(tempFile, []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}
	if config.Seed == nil || *config.Seed != 99 {
		t.Errorf("Expected seed 99, got %v", config.Seed)
	}
	if config.Messages.GameOver != "Over at %d" {
		t.Errorf("Expected game over message to load, got %q", config.Messages.GameOver)
	}

	if _, err := LoadGameConfig("nonexistent.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist for missing file, got %v", err)
	}

	broken := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(broken, []byte(`{"name": "x"}`), 0644)
	if _, err := LoadGameConfig(broken); err == nil {
		t.Error("Expected validation error for incomplete config")
	}
}

func TestLoadGameConfig_ReadsOnlyTheGivenPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alt.json"), []byte(testConfigJSON), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_DIR", dir)

	if _, err := LoadGameConfig("configs/alt.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected CONFIG_DIR to be ignored, got %v", err)
	}
}

func TestInitGameStateFromConfig(t *testing.T) {
	config := createValidConfig()
	state := InitGameStateFromConfig(config)

	if state.Score != 0 {
		t.Errorf("Expected score 0, got %d", state.Score)
	}
	if state.GameOver {
		t.Error("Expected game not to be over initially")
	}
	if state.Grid != (Grid{}) {
		t.Error("Expected an empty board before starting tiles are placed")
	}
	if state.ConfigName != config.Name {
		t.Errorf("Expected config name %q, got %q", config.Name, state.ConfigName)
	}
	if state.Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if state.MoveHistory == nil || state.CurrentMoves == nil {
		t.Error("Expected history slices to be initialized")
	}

	other := InitGameStateFromConfig(config)
	if other.GameID == state.GameID {
		t.Error("Expected a distinct game ID per state")
	}

	defaults := InitGameStateFromConfig(nil)
	if defaults.ConfigName != DefaultConfig().Name {
		t.Errorf("Expected nil config to fall back to %q, got %q", DefaultConfig().Name, defaults.ConfigName)
	}
}
