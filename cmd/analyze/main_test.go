package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
	"github.com/wricardo/mcp-training/twenty48/game/session"
)

func writeSession(t *testing.T, dir, id string, state *engine.GameState) {
	t.Helper()
	data, err := json.Marshal(session.PersistedSessionData{ID: id, ConfigName: "classic", GameState: state})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func playedState(t *testing.T, seed uint64, moves []engine.Direction) *engine.GameState {
	t.Helper()
	config := engine.DefaultConfig()
	config.Seed = &seed
	eng, err := engine.NewEngine(config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.BulkMove(moves); err != nil {
		t.Fatal(err)
	}
	return eng.GetState()
}

func TestAnalyzeSession(t *testing.T) {
	dir := t.TempDir()
	moves := []engine.Direction{engine.Left, engine.Left, engine.Up, engine.Right, engine.Down}
	state := playedState(t, 9, moves)
	writeSession(t, dir, "ab12", state)

	stats, err := analyzeSession(filepath.Join(dir, "ab12.json"))
	if err != nil {
		t.Fatalf("analyzeSession: %v", err)
	}

	if stats.ID != "ab12" || stats.Config != "classic" {
		t.Errorf("got id %q config %q", stats.ID, stats.Config)
	}
	if stats.Moves != len(moves) {
		t.Errorf("Moves = %d, want %d", stats.Moves, len(moves))
	}
	if stats.Directions[engine.Left] != 2 {
		t.Errorf("left count = %d, want 2", stats.Directions[engine.Left])
	}
	if stats.Score != state.Score || stats.MaxTile != state.Grid.MaxTile() {
		t.Errorf("score/max tile = %d/%d, want %d/%d", stats.Score, stats.MaxTile, state.Score, state.Grid.MaxTile())
	}

	noOps := 0
	for _, e := range state.CurrentMoves {
		if !e.Moved {
			noOps++
		}
	}
	if stats.NoOps != noOps {
		t.Errorf("NoOps = %d, want %d", stats.NoOps, noOps)
	}
}

func TestRates(t *testing.T) {
	s := SessionStats{Moves: 10, NoOps: 2, Merges: 4}
	if got := s.NoOpRate(); got != 0.2 {
		t.Errorf("NoOpRate = %v, want 0.2", got)
	}
	if got := s.MergesPerMove(); got != 0.5 {
		t.Errorf("MergesPerMove = %v, want 0.5", got)
	}

	var empty SessionStats
	if empty.NoOpRate() != 0 || empty.MergesPerMove() != 0 {
		t.Error("empty stats should report zero rates")
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "low", &engine.GameState{Score: 4, Grid: engine.Grid{{4}}})
	writeSession(t, dir, "high", &engine.GameState{Score: 64, Grid: engine.Grid{{32, 32}}})
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644)

	stats, err := analyzeDir(dir)
	if err != nil {
		t.Fatalf("analyzeDir: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d sessions, want 2 (broken file skipped)", len(stats))
	}
	if stats[0].ID != "high" {
		t.Errorf("first session = %q, want highest score first", stats[0].ID)
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	for _, want := range []string{"session", "high", "low", "64"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}

	if _, err := analyzeDir(t.TempDir()); err == nil {
		t.Error("expected error for a directory without sessions")
	}
}

func TestFormatDirections(t *testing.T) {
	got := formatDirections(map[engine.Direction]int{engine.Left: 3, engine.Up: 1})
	if got != "u:1 l:3" {
		t.Errorf("formatDirections = %q, want %q", got, "u:1 l:3")
	}
}
