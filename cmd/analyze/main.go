// Command analyze prints quick, human-readable statistics about persisted
// sessions in a file store directory: score, largest tile, how many moves
// changed nothing, merges per move and which directions were played.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
	"github.com/wricardo/mcp-training/twenty48/game/session"
)

// SessionStats summarises one persisted session.
type SessionStats struct {
	ID         string
	Config     string
	Score      int
	MaxTile    int
	Moves      int
	NoOps      int
	Merges     int
	GameOver   bool
	Directions map[engine.Direction]int
}

// NoOpRate is the share of moves that left the board unchanged.
func (s SessionStats) NoOpRate() float64 {
	if s.Moves == 0 {
		return 0
	}
	return float64(s.NoOps) / float64(s.Moves)
}

// MergesPerMove averages merges over the moves that changed the board.
func (s SessionStats) MergesPerMove() float64 {
	moved := s.Moves - s.NoOps
	if moved == 0 {
		return 0
	}
	return float64(s.Merges) / float64(moved)
}

func main() {
	dir := "sessions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	stats, err := analyzeDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
	printStats(os.Stdout, stats)
}

func analyzeDir(dir string) ([]SessionStats, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no session files in %s", dir)
	}

	var all []SessionStats
	for _, path := range files {
		stats, err := analyzeSession(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		all = append(all, stats)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	return all, nil
}

func analyzeSession(path string) (SessionStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionStats{}, err
	}

	var persisted session.PersistedSessionData
	if err := json.Unmarshal(data, &persisted); err != nil {
		return SessionStats{}, fmt.Errorf("parse: %w", err)
	}
	state := persisted.GameState
	if state == nil {
		return SessionStats{}, fmt.Errorf("no game state")
	}

	stats := SessionStats{
		ID:         persisted.ID,
		Config:     persisted.ConfigName,
		Score:      state.Score,
		MaxTile:    state.Grid.MaxTile(),
		GameOver:   state.GameOver,
		Directions: make(map[engine.Direction]int),
	}
	for _, entry := range state.CurrentMoves {
		stats.Moves++
		stats.Directions[entry.Action]++
		stats.Merges += entry.Merges
		if !entry.Moved {
			stats.NoOps++
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats []SessionStats) {
	t := table.New().Headers("session", "config", "score", "max tile", "moves", "no-op", "merges/move", "directions", "over")
	for _, s := range stats {
		t.Row(
			s.ID,
			s.Config,
			strconv.Itoa(s.Score),
			strconv.Itoa(s.MaxTile),
			strconv.Itoa(s.Moves),
			fmt.Sprintf("%.0f%%", 100*s.NoOpRate()),
			fmt.Sprintf("%.2f", s.MergesPerMove()),
			formatDirections(s.Directions),
			strconv.FormatBool(s.GameOver),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func formatDirections(counts map[engine.Direction]int) string {
	parts := make([]string, 0, len(engine.Directions))
	for _, dir := range engine.Directions {
		if n := counts[dir]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", dir[:1], n))
		}
	}
	return strings.Join(parts, " ")
}
