package autoplay

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

// GameResult summarises one finished (or abandoned) game.
type GameResult struct {
	Seed     uint64
	Score    int
	MaxTile  int
	Moves    int
	Finished bool
}

// Play drives g with s until the game ends, the strategy gives up or
// maxMoves moves have been made. maxMoves <= 0 means no limit.
func Play(ctx context.Context, g Game, s Strategy, maxMoves int) (GameResult, error) {
	var result GameResult
	for !g.Over() && (maxMoves <= 0 || result.Moves < maxMoves) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dir, ok := s.NextMove(g.Grid())
		if !ok {
			break
		}
		if _, err := g.Move(ctx, dir); err != nil {
			return result, err
		}
		result.Moves++
	}
	result.Score = g.Score()
	result.MaxTile = g.Grid().MaxTile()
	result.Finished = g.Over()
	return result, nil
}

// Options configures Run.
type Options struct {
	Games    int
	Seed     uint64
	MaxMoves int
	Strategy string
	Config   *engine.GameConfig

	// ServerURL plays against a running server instead of a local engine.
	// ConfigName then selects the server-side game config and Seed is unused.
	ServerURL  string
	ConfigName string
}

func (o Options) newGame(ctx context.Context, i int) (Game, uint64, error) {
	if o.ServerURL != "" {
		g, err := NewRemoteGame(ctx, o.ServerURL, o.ConfigName)
		return g, 0, err
	}
	seed := o.Seed + uint64(i)
	eng, err := engine.NewEngineWithRand(o.Config, rand.New(rand.NewPCG(seed, seed^0x2048)))
	if err != nil {
		return nil, 0, err
	}
	return &LocalGame{Engine: eng}, seed, nil
}

// Report aggregates the results of Run.
type Report struct {
	Strategy string
	Games    []GameResult
	Elapsed  time.Duration
}

// Run plays opts.Games games. Local game i uses seed opts.Seed+i, so a local
// run is reproducible.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	if opts.Config == nil {
		opts.Config = engine.DefaultConfig()
	}
	strategy, err := StrategyByName(opts.Strategy, opts.Seed)
	if err != nil {
		return nil, err
	}

	report := &Report{Strategy: strategy.Name()}
	start := time.Now()
	for i := 0; i < opts.Games; i++ {
		game, seed, err := opts.newGame(ctx, i)
		if err != nil {
			return report, err
		}

		result, err := Play(ctx, game, strategy, opts.MaxMoves)
		result.Seed = seed
		if err != nil {
			return report, err
		}
		report.Games = append(report.Games, result)

		log.Debug().Uint64("seed", seed).Int("score", result.Score).Int("max_tile", result.MaxTile).
			Int("moves", result.Moves).Msg("autoplay game finished")
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// MeanScore returns the average score.
func (r *Report) MeanScore() float64 {
	if len(r.Games) == 0 {
		return 0
	}
	total := 0
	for _, g := range r.Games {
		total += g.Score
	}
	return float64(total) / float64(len(r.Games))
}

// Best returns the highest scoring game.
func (r *Report) Best() GameResult {
	var best GameResult
	for _, g := range r.Games {
		if g.Score > best.Score {
			best = g
		}
	}
	return best
}

// MaxTiles counts games by the largest tile they reached.
func (r *Report) MaxTiles() map[int]int {
	counts := make(map[int]int)
	for _, g := range r.Games {
		counts[g.MaxTile]++
	}
	return counts
}

// Reached returns the fraction of games whose largest tile is at least tile.
func (r *Report) Reached(tile int) float64 {
	if len(r.Games) == 0 {
		return 0
	}
	n := 0
	for _, g := range r.Games {
		if g.MaxTile >= tile {
			n++
		}
	}
	return float64(n) / float64(len(r.Games))
}

var titleStyle = lipgloss.NewStyle().Bold(true)

// Print writes a summary and the max tile distribution.
func (r *Report) Print(w io.Writer) {
	best := r.Best()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d games, strategy %s, %s", len(r.Games), r.Strategy, r.Elapsed.Round(time.Millisecond))))
	fmt.Fprintf(w, "mean score %.1f, best %d (seed %d, max tile %d, %d moves)\n",
		r.MeanScore(), best.Score, best.Seed, best.MaxTile, best.Moves)
	fmt.Fprintf(w, "reached 2048 in %.1f%% of games\n\n", 100*r.Reached(2048))

	counts := r.MaxTiles()
	tiles := make([]int, 0, len(counts))
	for tile := range counts {
		tiles = append(tiles, tile)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))

	t := table.New().Headers("max tile", "games", "share")
	for _, tile := range tiles {
		share := 100 * float64(counts[tile]) / float64(len(r.Games))
		t.Row(strconv.Itoa(tile), strconv.Itoa(counts[tile]), fmt.Sprintf("%.1f%%", share))
	}
	fmt.Fprintln(w, t.Render())
}
