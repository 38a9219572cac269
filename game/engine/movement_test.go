package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompressAndMerge(t *testing.T) {
	tests := []struct {
		name   string
		in     Line
		want   Line
		gained int
	}{
		{"empty line", Line{0, 0, 0, 0}, Line{0, 0, 0, 0}, 0},
		{"single tile slides", Line{0, 0, 0, 2}, Line{2, 0, 0, 0}, 0},
		{"pair merges", Line{2, 2, 0, 0}, Line{4, 0, 0, 0}, 4},
		{"three equal do not chain", Line{2, 2, 2, 0}, Line{4, 2, 0, 0}, 4},
		{"two pairs", Line{2, 2, 4, 4}, Line{4, 8, 0, 0}, 12},
		{"gap between equal tiles", Line{2, 0, 2, 2}, Line{4, 2, 0, 0}, 4},
		{"four equal", Line{4, 4, 4, 4}, Line{8, 8, 0, 0}, 16},
		{"merged tile does not merge again", Line{4, 4, 8, 0}, Line{8, 8, 0, 0}, 8},
		{"no merges", Line{8, 4, 2, 0}, Line{8, 4, 2, 0}, 0},
		{"distinct full line", Line{2, 4, 8, 16}, Line{2, 4, 8, 16}, 0},
		{"zeros removed keep order", Line{0, 4, 0, 2}, Line{4, 2, 0, 0}, 0},
		{"first pair wins", Line{2, 4, 4, 2}, Line{2, 8, 2, 0}, 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, gained := CompressAndMerge(test.in)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("CompressAndMerge(%v) mismatch (-want +got):\n%s", test.in, diff)
			}
			if gained != test.gained {
				t.Errorf("CompressAndMerge(%v): expected gain %d, got %d", test.in, test.gained, gained)
			}
		})
	}
}

func TestCompressAndMerge_NeverIncreasesTileCount(t *testing.T) {
	lines := []Line{
		{2, 2, 2, 2}, {2, 0, 0, 2}, {0, 0, 0, 0}, {4, 2, 2, 4}, {16, 16, 0, 32},
	}
	for _, in := range lines {
		out, _, merges := compressAndMerge(in)
		before, after := 0, 0
		for k := 0; k < Size; k++ {
			if in[k] != 0 {
				before++
			}
			if out[k] != 0 {
				after++
			}
		}
		if after > before {
			t.Errorf("%v -> %v: tile count grew from %d to %d", in, out, before, after)
		}
		if before-after != merges {
			t.Errorf("%v -> %v: expected %d merges, tile count dropped by %d", in, out, merges, before-after)
		}
	}
}

func TestSlide_Directions(t *testing.T) {
	start := Grid{
		{2, 2, 0, 4},
		{0, 0, 0, 0},
		{2, 0, 2, 4},
		{0, 4, 0, 4},
	}

	tests := []struct {
		dir    Direction
		want   Grid
		gained int
	}{
		{Left, Grid{
			{4, 4, 0, 0},
			{0, 0, 0, 0},
			{4, 4, 0, 0},
			{8, 0, 0, 0},
		}, 16},
		{Right, Grid{
			{0, 0, 4, 4},
			{0, 0, 0, 0},
			{0, 0, 4, 4},
			{0, 0, 0, 8},
		}, 16},
		{Up, Grid{
			{4, 2, 2, 8},
			{0, 4, 0, 4},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, 12},
		{Down, Grid{
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 2, 0, 4},
			{4, 4, 2, 8},
		}, 12},
	}

	for _, test := range tests {
		t.Run(string(test.dir), func(t *testing.T) {
			res, err := Slide(start, test.dir)
			if err != nil {
				t.Fatalf("Slide(%s) returned error: %v", test.dir, err)
			}
			if diff := cmp.Diff(test.want, res.Grid); diff != "" {
				t.Errorf("Slide(%s) mismatch (-want +got):\n%s", test.dir, diff)
			}
			if res.Gained != test.gained {
				t.Errorf("Slide(%s): expected gain %d, got %d", test.dir, test.gained, res.Gained)
			}
			if !res.Moved {
				t.Errorf("Slide(%s): expected Moved", test.dir)
			}
		})
	}
}

func TestSlide_NoChange(t *testing.T) {
	g := Grid{
		{8, 4, 2, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	res, err := Slide(g, Left)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Moved {
		t.Error("expected no movement for an already packed, unmergeable row")
	}
	if res.Grid != g || res.Gained != 0 {
		t.Errorf("expected unchanged grid and zero gain, got %v gain %d", res.Grid, res.Gained)
	}
}

func TestSlide_InvalidDirection(t *testing.T) {
	g := Grid{{2}}
	res, err := Slide(g, Direction("diagonal"))
	if err == nil {
		t.Fatal("expected error for invalid direction")
	}
	if res.Grid != g {
		t.Error("grid must be untouched on invalid direction")
	}
}

func TestIsTerminalGrid(t *testing.T) {
	checker := Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	if !IsTerminalGrid(checker) {
		t.Error("checkerboard with no equal neighbours should be terminal")
	}

	withHole := checker
	withHole[2][1] = 0
	if IsTerminalGrid(withHole) {
		t.Error("board with an empty cell is never terminal")
	}

	vertical := checker
	vertical[3][3] = 4 // equal to the cell above it
	if IsTerminalGrid(vertical) {
		t.Error("vertical equal pair should allow a move")
	}

	horizontal := checker
	horizontal[0][1] = 2 // equal to its left neighbour
	if IsTerminalGrid(horizontal) {
		t.Error("horizontal equal pair should allow a move")
	}
}

func TestGridValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"empty", 0, false},
		{"two", 2, false},
		{"large power", 131072, false},
		{"one", 1, true},
		{"three", 3, true},
		{"negative", -2, true},
		{"six", 6, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var g Grid
			g[1][2] = test.value
			err := g.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() with %d: expected error=%v, got %v", test.value, test.wantErr, err)
			}
		})
	}
}

func TestBestMove(t *testing.T) {
	g := Grid{
		{2, 0, 0, 0},
		{2, 0, 0, 0},
		{4, 8, 0, 0},
		{0, 0, 0, 0},
	}
	dir, ok := BestMove(g)
	if !ok {
		t.Fatal("expected a move")
	}
	if dir != Up && dir != Down {
		t.Errorf("expected a vertical move merging the 2s, got %s", dir)
	}

	terminal := Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	if _, ok := BestMove(terminal); ok {
		t.Error("expected no move on a terminal board")
	}
}

func TestFormatGrid(t *testing.T) {
	g := Grid{{2, 0, 0, 2048}}
	out := FormatGrid(g)
	want := "   2    .    . 2048\n" +
		"   .    .    .    .\n" +
		"   .    .    .    .\n" +
		"   .    .    .    .\n"
	if out != want {
		t.Errorf("FormatGrid mismatch:\nwant:\n%s\ngot:\n%s", want, out)
	}
}
