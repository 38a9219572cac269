package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/twenty48/game/config"
	"github.com/wricardo/mcp-training/twenty48/game/engine"
	"github.com/wricardo/mcp-training/twenty48/internal/autoplay"
	"github.com/wricardo/mcp-training/twenty48/internal/tui"
	"github.com/wricardo/mcp-training/twenty48/validate"
)

// gameConfig loads the named game config from the config directory, or the
// default when name is empty. A non-zero seed replaces the config seed.
func (a *app) gameConfig(name string, seed uint64) (*engine.GameConfig, error) {
	configs, err := config.NewManager(a.settings.Game.ConfigDir)
	if err != nil {
		return nil, err
	}

	gameConfig := configs.GetDefault()
	if name != "" {
		if gameConfig, err = configs.LoadConfig(name); err != nil {
			return nil, err
		}
	}
	if seed != 0 {
		copied := *gameConfig
		copied.Seed = &seed
		gameConfig = &copied
	}
	return gameConfig, nil
}

func (a *app) play(ctx context.Context, cmd *cli.Command) error {
	gameConfig, err := a.gameConfig(cmd.String("game"), cmd.Uint64("seed"))
	if err != nil {
		return err
	}
	eng, err := engine.NewEngine(gameConfig)
	if err != nil {
		return err
	}

	// The terminal belongs to the game while it runs.
	logger := log.Logger
	log.Logger = zerolog.Nop()
	defer func() { log.Logger = logger }()

	final, err := tea.NewProgram(tui.New(eng), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.Model); ok {
		fmt.Fprintf(cmd.Root().Writer, "Final score %d, best %d\n", m.Score(), m.Best())
	}
	return nil
}

func (a *app) autoplay(ctx context.Context, cmd *cli.Command) error {
	opts := autoplay.Options{
		Games:      cmd.Int("games"),
		Seed:       cmd.Uint64("seed"),
		MaxMoves:   cmd.Int("max-moves"),
		Strategy:   cmd.String("strategy"),
		ServerURL:  strings.TrimSuffix(cmd.String("server"), "/"),
		ConfigName: cmd.String("game"),
	}
	if opts.ServerURL == "" {
		gameConfig, err := a.gameConfig(opts.ConfigName, 0)
		if err != nil {
			return err
		}
		opts.Config = gameConfig
	}

	report, err := autoplay.Run(ctx, opts)
	if err != nil {
		return err
	}
	report.Print(cmd.Root().Writer)
	return nil
}

func (a *app) validate(ctx context.Context, cmd *cli.Command) error {
	targets := cmd.Args().Slice()
	if len(targets) == 0 {
		targets = []string{a.settings.Game.ConfigDir}
	}

	var results []validate.Result
	for _, target := range targets {
		if filepath.Ext(target) == ".json" {
			results = append(results, validate.File(target))
			continue
		}
		dirResults, err := validate.Dir(target)
		if err != nil {
			return err
		}
		results = append(results, dirResults...)
	}

	if !validate.Report(cmd.Root().Writer, results) {
		return errors.New("some configurations are invalid")
	}
	return nil
}
