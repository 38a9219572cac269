// Package engine provides the core game logic for the 2048 tile game.
//
// The engine package implements the game mechanics including:
//   - Per-line compress-and-merge reduction with non-chaining merges
//   - Four-directional board slides expressed through line reversal
//   - Random tile spawning (2 or 4, even odds) on a uniformly chosen empty cell
//   - Score accumulation and terminal-state detection
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Grid is a fixed 4x4 value type, so handing it
// out always hands out a snapshot. GameState is the serializable view of a
// session and GameConfig defines per-game settings loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	moved, err := gameEngine.Move(engine.Left)
//	grid := gameEngine.GetGrid()
//
// Game Rules:
//
// Every move slides all tiles toward one edge. Equal neighbours merge once,
// left to right in the direction of travel, into a tile of double value and
// the merged value is added to the score. A move that changes the board
// spawns one new tile. The game is over when the board is full and no two
// adjacent tiles are equal. There is no win condition.
package engine
