// Package config provides the catalogue of game configurations.
//
// A configuration is a JSON file in the configs directory. It names the rule
// set, optionally pins the random seed, and supplies the message texts shown
// after each move:
//
//	{
//	  "name": "classic",
//	  "description": "Classic 4x4 board",
//	  "seed": 2048,
//	  "messages": {
//	    "welcome": "Join the tiles, get to 2048!",
//	    "moved": "Score: %d",
//	    "no_change": "Nothing moved.",
//	    "game_over": "Game over! Final score: %d"
//	  }
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("seeded")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic.json when present, otherwise the first valid file,
// otherwise the built-in classic rules. Loaded configurations are cached
// until RefreshCache is called.
package config
