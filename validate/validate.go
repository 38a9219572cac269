// Package validate checks game configuration files before the server loads
// them. Beyond the required fields it reports unknown keys, a name that
// does not match the file name, and whether a seeded config really replays.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

// replayMoves is the number of greedy moves used to compare two seeded runs.
const replayMoves = 64

// Result captures the outcome of validating a single file. Errors make the
// file invalid; Notes are informational.
type Result struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// File loads and validates a single configuration JSON file.
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			result.fail("Unexpected key: %v", err)
		} else {
			result.fail("Invalid JSON: %v", err)
		}
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}
	result.note("✓ Required fields and messages present")

	if id := strings.TrimSuffix(result.File, ".json"); !strings.EqualFold(id, config.Name) {
		result.note("Name %q differs from file name; sessions will report %q", config.Name, config.Name)
	}

	for _, msg := range []struct{ key, format string }{
		{"moved", config.Messages.Moved},
		{"game_over", config.Messages.GameOver},
	} {
		if out := fmt.Sprintf(msg.format, 2048); strings.Contains(out, "%!") {
			result.fail("messages.%s renders badly: %q", msg.key, out)
		}
	}

	if config.Seed != nil {
		if a, b := replay(&config), replay(&config); a != b {
			result.fail("Seed %d does not replay: boards differ after %d moves", *config.Seed, replayMoves)
		} else {
			result.note("✓ Seed %d replays identically", *config.Seed)
		}
	}

	return result
}

// replay plays replayMoves greedy moves from a fresh seeded engine and
// returns the final board.
func replay(config *engine.GameConfig) engine.Grid {
	eng, err := engine.NewEngineWithRand(config, nil)
	if err != nil {
		return engine.Grid{}
	}
	for i := 0; i < replayMoves && !eng.IsTerminal(); i++ {
		dir, ok := engine.BestMove(eng.GetGrid())
		if !ok {
			break
		}
		eng.Move(dir)
	}
	return eng.GetGrid()
}

// Dir validates every *.json file in dir.
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("find config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.json files in %s", dir)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	fileStyle = lipgloss.NewStyle().Underline(true)
)

// Report prints results and reports whether all of them are valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s\n", fileStyle.Render(result.File))
		if result.Valid {
			fmt.Fprintln(w, okStyle.Render("VALID"))
		} else {
			allValid = false
			fmt.Fprintln(w, badStyle.Render("INVALID"))
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ✗ "+e)
			}
		}
		for _, n := range result.Notes {
			fmt.Fprintln(w, "  "+n)
		}
	}

	fmt.Fprintln(w)
	if allValid {
		fmt.Fprintln(w, okStyle.Render("All configurations are valid"))
	} else {
		fmt.Fprintln(w, badStyle.Render("Some configurations have errors"))
	}
	return allValid
}

