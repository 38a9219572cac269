package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createTestConfig() *GameConfig {
	config := DefaultConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration for engine tests"
	return config
}

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func newDefaultEngine(t *testing.T) *GameEngine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

// engineWithGrid builds an engine whose board is exactly g.
func engineWithGrid(t *testing.T, g Grid) *GameEngine {
	t.Helper()
	eng, err := NewEngineWithRand(createTestConfig(), seededRand(42))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	state := InitGameStateFromConfig(eng.GetConfig())
	state.Grid = g
	if err := eng.SetState(state); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	return eng
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	eng, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if eng.GetConfig() != config {
		t.Error("Engine config should match provided config")
	}
	if eng.GetScore() != 0 {
		t.Errorf("Expected score 0, got %d", eng.GetScore())
	}
	if eng.IsTerminal() {
		t.Error("New game should not be terminal")
	}
	if n := eng.GetGrid().CountTiles(); n != StartingTiles {
		t.Errorf("Expected %d starting tiles, got %d", StartingTiles, n)
	}
	if eng.GetState().GameID == "" {
		t.Error("Expected a game ID")
	}
	if eng.GetState().Message != config.Messages.Welcome {
		t.Errorf("Expected welcome message, got %q", eng.GetState().Message)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid config")
	}
	if _, err := NewEngine(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestEngine_Reset(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		eng, err := NewEngineWithRand(createTestConfig(), seededRand(seed))
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		eng.Move(Left)
		eng.Move(Up)
		prevID := eng.GetState().GameID

		state := eng.Reset()

		if state.Score != 0 || state.GameOver {
			t.Fatalf("seed %d: reset should clear score and terminal flag, got score=%d over=%v", seed, state.Score, state.GameOver)
		}
		if n := state.Grid.CountTiles(); n != 2 {
			t.Fatalf("seed %d: expected exactly 2 tiles after reset, got %d", seed, n)
		}
		for _, row := range state.Grid {
			for _, v := range row {
				if v != 0 && v != 2 && v != 4 {
					t.Fatalf("seed %d: spawned value %d not in {2,4}", seed, v)
				}
			}
		}
		if state.GameID == prevID {
			t.Errorf("seed %d: reset should start a new game ID", seed)
		}
		if state.TotalMoves != 2 || len(state.MoveHistory) != 2 {
			t.Errorf("seed %d: cumulative history should survive reset", seed)
		}
		if state.CurrentMovesCount != 0 || len(state.CurrentMoves) != 0 {
			t.Errorf("seed %d: current segment should be cleared", seed)
		}
	}
}

func TestEngine_MoveSpawnsOnlyWhenMoved(t *testing.T) {
	eng := engineWithGrid(t, Grid{
		{8, 4, 2, 0},
	})

	moved, err := eng.Move(Left)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if moved {
		t.Error("Expected no-op move")
	}
	want := Grid{{8, 4, 2, 0}}
	if diff := cmp.Diff(want, eng.GetGrid()); diff != "" {
		t.Errorf("Grid changed on a no-op move (-want +got):\n%s", diff)
	}
	if eng.GetScore() != 0 || eng.IsTerminal() {
		t.Error("Score and terminal flag must be untouched on a no-op move")
	}
	last := eng.GetLastMove()
	if last == nil || last.Moved || last.Spawned != nil {
		t.Errorf("Expected a recorded no-op move without spawn, got %+v", last)
	}

	before := eng.GetGrid()
	moved, err = eng.Move(Right)
	if err != nil || !moved {
		t.Fatalf("Expected committing move, got moved=%v err=%v", moved, err)
	}
	after := eng.GetGrid()
	spawn := eng.GetLastMove().Spawned
	if spawn == nil {
		t.Fatal("Expected a spawned tile")
	}
	if spawn.Value != 2 && spawn.Value != 4 {
		t.Errorf("Spawned value %d not in {2,4}", spawn.Value)
	}

	slid, _ := Slide(before, Right)
	if slid.Grid[spawn.Row][spawn.Col] != 0 {
		t.Error("Spawned tile landed on an occupied cell")
	}
	slid.Grid[spawn.Row][spawn.Col] = spawn.Value
	if diff := cmp.Diff(slid.Grid, after); diff != "" {
		t.Errorf("Board after move differs from slide plus spawn (-want +got):\n%s", diff)
	}
}

func TestEngine_InvalidDirection(t *testing.T) {
	eng := newDefaultEngine(t)
	before := eng.GetState().Clone()

	moved, err := eng.Move(Direction("sideways"))
	if !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("Expected ErrInvalidDirection, got %v", err)
	}
	if moved {
		t.Error("Invalid direction must not move")
	}
	if eng.GetGrid() != before.Grid || eng.GetState().TotalMoves != before.TotalMoves {
		t.Error("Invalid direction must leave the state untouched")
	}
}

func TestEngine_ScoreAccumulation(t *testing.T) {
	eng := engineWithGrid(t, Grid{
		{2, 2, 4, 0},
	})

	if moved, _ := eng.Move(Left); !moved {
		t.Fatal("Expected first move to commit")
	}
	if eng.GetScore() != 4 {
		t.Fatalf("Expected score 4 after merging 2+2, got %d", eng.GetScore())
	}
	if moved, _ := eng.Move(Left); !moved {
		t.Fatal("Expected second move to commit")
	}
	if eng.GetScore() != 12 {
		t.Errorf("Expected score 12 after merging 4+4, got %d", eng.GetScore())
	}
}

func TestEngine_TerminalAfterCommittingMove(t *testing.T) {
	// Sliding left fills the last hole; any spawn is impossible so the board
	// is checked as-is.
	eng := engineWithGrid(t, Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{0, 4, 2, 8},
	})

	moved, err := eng.Move(Left)
	if err != nil || !moved {
		t.Fatalf("Expected committing move, got moved=%v err=%v", moved, err)
	}
	// Row 3 became [4,2,8,x] with a spawned x in the last cell.
	g := eng.GetGrid()
	if g.CountTiles() != Size*Size {
		t.Fatalf("Expected full board, got %d tiles", g.CountTiles())
	}
	if eng.IsTerminal() != IsTerminalGrid(g) {
		t.Errorf("Terminal flag %v disagrees with board %v", eng.IsTerminal(), g)
	}
	if eng.IsTerminal() {
		if eng.GetState().Message != "Game over! Final score: 0" {
			t.Errorf("Unexpected game over message %q", eng.GetState().Message)
		}
		if eng.CanMove(Left) || len(eng.GetPossibleMoves()) != 0 {
			t.Error("Terminal board should have no possible moves")
		}
	}
}

func TestEngine_TerminalNotReevaluatedOnNoOp(t *testing.T) {
	eng := engineWithGrid(t, Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	})
	// The flag was installed as false; a no-op must not flip it.
	for _, dir := range Directions {
		moved, err := eng.Move(dir)
		if err != nil || moved {
			t.Fatalf("%s: expected no-op, got moved=%v err=%v", dir, moved, err)
		}
	}
	if eng.IsTerminal() {
		t.Error("Terminal flag is only re-evaluated after a committing move")
	}
}

func TestEngine_SetStateRejectsInvalidGrid(t *testing.T) {
	eng := newDefaultEngine(t)
	state := InitGameStateFromConfig(eng.GetConfig())
	state.Grid[0][0] = 3

	err := eng.SetState(state)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Expected ErrInvariantViolation, got %v", err)
	}
	if err := eng.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
}

func TestEngine_SeededReproducibility(t *testing.T) {
	seed := uint64(7)
	config := createTestConfig()
	config.Seed = &seed

	a, err := NewEngine(config)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(config)
	if err != nil {
		t.Fatal(err)
	}

	moves := []Direction{Left, Up, Right, Down, Left, Left, Up, Down}
	for _, dir := range moves {
		a.Move(dir)
		b.Move(dir)
	}
	if diff := cmp.Diff(a.GetGrid(), b.GetGrid()); diff != "" {
		t.Errorf("Seeded engines diverged (-a +b):\n%s", diff)
	}
	if a.GetScore() != b.GetScore() {
		t.Errorf("Seeded engines scored differently: %d vs %d", a.GetScore(), b.GetScore())
	}
}

func TestEngine_SpawnOdds(t *testing.T) {
	eng, err := NewEngineWithRand(createTestConfig(), seededRand(2048))
	if err != nil {
		t.Fatal(err)
	}

	twos, fours := 0, 0
	for i := 0; i < 2000; i++ {
		eng.state.Grid = Grid{}
		tile := eng.spawnTile()
		switch tile.Value {
		case 2:
			twos++
		case 4:
			fours++
		default:
			t.Fatalf("Unexpected spawn value %d", tile.Value)
		}
	}
	// Even odds: each value should land well inside 40%..60%.
	if twos < 800 || fours < 800 {
		t.Errorf("Spawn odds look skewed: %d twos, %d fours", twos, fours)
	}
}

func TestEngine_SpawnOnFullBoardIsNoOp(t *testing.T) {
	full := Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	eng := engineWithGrid(t, full)
	if tile := eng.spawnTile(); tile != nil {
		t.Errorf("Expected nil spawn on a full board, got %+v", tile)
	}
	if eng.GetGrid() != full {
		t.Error("Full board must not change on spawn")
	}
}

func TestEngine_GetGridIsSnapshot(t *testing.T) {
	eng := newDefaultEngine(t)
	g := eng.GetGrid()
	g[0][0] = 1024
	if eng.GetGrid()[0][0] == 1024 {
		t.Error("Mutating the returned grid must not affect the engine")
	}
}

func TestEngine_BulkMove(t *testing.T) {
	eng := engineWithGrid(t, Grid{{2, 2, 0, 0}})

	entries, err := eng.BulkMove([]Direction{Left, Left, Direction("bogus"), Up})
	if !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("Expected ErrInvalidDirection, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 executed moves before the invalid one, got %d", len(entries))
	}
	if !entries[0].Moved || entries[0].ScoreGained != 4 || entries[0].Merges != 1 {
		t.Errorf("Unexpected first entry %+v", entries[0])
	}
	if entries[1].MoveNumber != 2 || entries[1].Score != eng.GetScore() {
		t.Errorf("Unexpected second entry %+v", entries[1])
	}
	if eng.GetState().TotalMoves != 2 {
		t.Errorf("Expected 2 recorded moves, got %d", eng.GetState().TotalMoves)
	}
}

func TestEngine_BulkMoveStopsAtGameOver(t *testing.T) {
	eng := engineWithGrid(t, Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{16, 32, 64, 128},
		{8, 16, 8, 0},
	})

	// Left and up change nothing. Right opens (3,0) and any spawn there locks the board.
	entries, err := eng.BulkMove([]Direction{Left, Up, Right, Down, Left})
	if err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}
	if !eng.IsTerminal() {
		t.Fatalf("Expected the game to be over, board:\n%s", FormatGrid(eng.GetGrid()))
	}
	if len(entries) != 3 {
		t.Fatalf("Expected the batch to stop after the third move, got %d entries", len(entries))
	}
}

func TestEngine_GetStateReturnsCopy(t *testing.T) {
	eng := engineWithGrid(t, Grid{{2, 2, 0, 0}})
	eng.Move(Left)

	state := eng.GetState()
	state.Score = 9999
	state.GameOver = true
	state.Grid[3][3] = 2048
	state.MoveHistory[0].Score = -1

	if eng.GetScore() == 9999 || eng.IsTerminal() || eng.GetGrid()[3][3] == 2048 {
		t.Error("Mutating the returned state must not affect the engine")
	}
	if eng.GetLastMove().Score == -1 || eng.GetMoveHistory()[0].Score == -1 {
		t.Error("Mutating the returned history must not affect the engine")
	}

	reset := eng.Reset()
	reset.Score = 7
	if eng.GetScore() != 0 {
		t.Error("Mutating the state returned by Reset must not affect the engine")
	}
}

func TestEngine_MoveHistoryIsBounded(t *testing.T) {
	eng := newDefaultEngine(t)

	total := MaxMoveHistory + 25
	for i := 0; i < total; i++ {
		if i%100 == 0 {
			eng.Reset()
		}
		// No-op moves are logged too.
		if _, err := eng.Move(Directions[i%len(Directions)]); err != nil {
			t.Fatal(err)
		}
	}

	state := eng.GetState()
	if state.TotalMoves != total {
		t.Errorf("Expected TotalMoves %d, got %d", total, state.TotalMoves)
	}
	history := eng.GetMoveHistory()
	if len(history) != MaxMoveHistory {
		t.Fatalf("Expected history capped at %d, got %d", MaxMoveHistory, len(history))
	}
	if history[len(history)-1].MoveNumber != total {
		t.Errorf("Expected newest entry to be move %d, got %d", total, history[len(history)-1].MoveNumber)
	}
	if history[0].MoveNumber != total-MaxMoveHistory+1 {
		t.Errorf("Expected oldest retained move %d, got %d", total-MaxMoveHistory+1, history[0].MoveNumber)
	}
}

func TestEngine_SetStateTrimsHistory(t *testing.T) {
	eng := newDefaultEngine(t)
	state := InitGameStateFromConfig(eng.GetConfig())
	for i := 1; i <= MaxMoveHistory+3; i++ {
		state.AddMoveToHistory(MoveHistoryEntry{Action: Left, MoveNumber: i})
	}
	state.MoveHistory = append(state.MoveHistory, MoveHistoryEntry{Action: Up, MoveNumber: MaxMoveHistory + 4})

	if err := eng.SetState(state); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if n := len(eng.GetMoveHistory()); n != MaxMoveHistory {
		t.Errorf("Expected %d retained moves, got %d", MaxMoveHistory, n)
	}
	if last := eng.GetLastMove(); last.Action != Up {
		t.Errorf("Expected newest move to survive trimming, got %+v", last)
	}
}
