// Package settings loads process configuration for the 2048 server from
// defaults, an optional TOML file and TWENTY48_* environment variables.
package settings

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TWENTY48_SERVER_PORT.
const EnvPrefix = "TWENTY48"

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Settings holds process configuration.
type Settings struct {
	Server   ServerSettings  `mapstructure:"server"`
	Game     GameSettings    `mapstructure:"game"`
	Store    StoreSettings   `mapstructure:"store"`
	Log      LogSettings     `mapstructure:"log"`
	Ngrok    NgrokSettings   `mapstructure:"ngrok"`
	Sessions SessionSettings `mapstructure:"sessions"`
}

// ServerSettings holds the HTTP listener address.
type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerSettings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GameSettings locates the game configuration files.
type GameSettings struct {
	ConfigDir string `mapstructure:"config_dir"`
}

// StoreSettings selects where sessions are persisted.
type StoreSettings struct {
	Driver string `mapstructure:"driver"`
	// Path is a directory for the file driver and a database file for sqlite.
	// Empty selects the driver default.
	Path string `mapstructure:"path"`
}

// ResolvedPath returns Path or the default location for the driver.
func (s StoreSettings) ResolvedPath() string {
	if s.Path != "" {
		return s.Path
	}
	switch s.Driver {
	case DriverSQLite:
		return "data/twenty48.db"
	case DriverFile:
		return "sessions"
	}
	return ""
}

// LogSettings configures zerolog.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// NgrokSettings configures the optional public tunnel.
type NgrokSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"authtoken"`
	Domain    string `mapstructure:"domain"`
}

// SessionSettings controls eviction of idle sessions from memory.
type SessionSettings struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("game.config_dir", "configs")
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authtoken", "")
	v.SetDefault("ngrok.domain", "")
	v.SetDefault("sessions.max_age", "24h")
	v.SetDefault("sessions.cleanup_interval", "1h")
}

// Load reads settings. The file is path when given, else $TWENTY48_CONFIG,
// else ./twenty48.toml if it exists. Environment variables override the file;
// NGROK_AUTHTOKEN and NGROK_DOMAIN are honoured as well.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	explicit := path
	if explicit == "" {
		explicit = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("twenty48")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("ngrok.authtoken", EnvPrefix+"_NGROK_AUTHTOKEN", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")
	v.BindEnv("ngrok.domain", EnvPrefix+"_NGROK_DOMAIN", "NGROK_DOMAIN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, s.Validate()
}

// Validate checks value ranges and enumerations.
func (s Settings) Validate() error {
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", s.Server.Port)
	}
	switch s.Store.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("store.driver %q: must be one of file, sqlite, memory", s.Store.Driver)
	}
	if _, err := zerolog.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if s.Sessions.MaxAge <= 0 || s.Sessions.CleanupInterval <= 0 {
		return fmt.Errorf("sessions.max_age and sessions.cleanup_interval must be positive")
	}
	return nil
}
