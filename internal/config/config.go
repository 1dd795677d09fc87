package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host string
	Port string
	Env  string // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MaxPlayers        int
	RoomCodeLength    int
	StaleRoomTimeout  time.Duration
	RoomCreatesPerMin int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from an optional config file (config.yaml
// in the working directory) and IMPOSTER_-prefixed environment
// variables, with sensible defaults for everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("game.max_players", 10)
	v.SetDefault("game.room_code_length", 4)
	v.SetDefault("game.stale_room_timeout", "2h")
	v.SetDefault("game.room_creates_per_min", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("IMPOSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// No config file is fine; defaults and env apply.
	}

	return &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetString("server.port"),
			Env:  v.GetString("server.env"),
		},
		Game: GameConfig{
			MaxPlayers:        v.GetInt("game.max_players"),
			RoomCodeLength:    v.GetInt("game.room_code_length"),
			StaleRoomTimeout:  v.GetDuration("game.stale_room_timeout"),
			RoomCreatesPerMin: v.GetInt("game.room_creates_per_min"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Addr returns the server address in host:port format
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
