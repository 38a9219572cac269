// Command twenty48 runs the 2048 game server and its companion tools.
//
// Subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is reachable
//  3. "play" plays a local game in the terminal
//  4. "autoplay" plays seeded games headless and prints score statistics
//  5. "validate" checks game configuration files
//
// Settings come from defaults, an optional twenty48.toml, TWENTY48_* environment
// variables (a .env file is loaded first) and finally command line flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/twenty48/internal/settings"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048 Game Server"
)

type app struct {
	settings settings.Settings
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	if err := newCommand(&app{}).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func newCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "twenty48",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "settings file (TOML)"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory containing game configurations"},
			&cli.StringFlag{Name: "store", Usage: "session store: file, sqlite or memory"},
			&cli.StringFlag{Name: "store-path", Usage: "session directory (file) or database path (sqlite)"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.BoolFlag{Name: "pretty", Usage: "human friendly console logs"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain"},
		},
		Before: a.before,
		Action: a.serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action: a.serve,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server backed by the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api", Usage: "API base URL to reuse (default http://<host>:<port>)"},
				},
				Action: a.mcpStdio,
			},
			{
				Name:  "play",
				Usage: "play a game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "game", Usage: "game config name"},
					&cli.Uint64Flag{Name: "seed", Usage: "random seed (0 keeps the config seed)"},
				},
				Action: a.play,
			},
			{
				Name:  "autoplay",
				Usage: "play games with a built-in strategy and print statistics",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 100, Usage: "number of games"},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "seed of the first game"},
					&cli.IntFlag{Name: "max-moves", Usage: "stop each game after this many moves (0 = no limit)"},
					&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "greedy, corner or random"},
					&cli.StringFlag{Name: "game", Usage: "game config name"},
					&cli.StringFlag{Name: "server", Usage: "play against a running server at this URL"},
				},
				Action: a.autoplay,
			},
			{
				Name:      "validate",
				Usage:     "validate game configuration files",
				ArgsUsage: "[dir-or-file...]",
				Action:    a.validate,
			},
		},
	}
}

// before loads settings, applies flag overrides and configures logging.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	s, err := settings.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	applyFlags(&s, cmd)
	if err := s.Validate(); err != nil {
		return ctx, err
	}
	if err := setupLogging(s.Log); err != nil {
		return ctx, err
	}
	a.settings = s
	return ctx, nil
}

func applyFlags(s *settings.Settings, cmd *cli.Command) {
	if cmd.IsSet("host") {
		s.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		s.Game.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("store") {
		s.Store.Driver = cmd.String("store")
	}
	if cmd.IsSet("store-path") {
		s.Store.Path = cmd.String("store-path")
	}
	if cmd.IsSet("log-level") {
		s.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("pretty") {
		s.Log.Pretty = cmd.Bool("pretty")
	}
	if cmd.IsSet("ngrok") {
		s.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Ngrok.Domain = cmd.String("ngrok-domain")
	}
}

func setupLogging(cfg settings.LogSettings) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}
