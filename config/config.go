package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress    string  `mapstructure:"http_address"`
	RPCAddress     string  `mapstructure:"rpc_address"`
	MetricsAddress string  `mapstructure:"metrics_address"`
	TickIntervalMS int     `mapstructure:"tick_interval_ms"`
	HeartbeatSec   int     `mapstructure:"heartbeat_seconds"`
	CommandRate    float64 `mapstructure:"command_rate"`
	CommandBurst   int     `mapstructure:"command_burst"`
	MaxRooms       int     `mapstructure:"max_rooms"`
}

type GameConfig struct {
	BoardSize         int `mapstructure:"board_size"`
	NumberSeconds     int `mapstructure:"number_seconds"`
	MovementSeconds   int `mapstructure:"movement_seconds"`
	ResolutionSeconds int `mapstructure:"resolution_seconds"`
	RefreshSeconds    int `mapstructure:"refresh_seconds"`
	RefreshEvery      int `mapstructure:"refresh_every"`
	HazardsPerRefresh int `mapstructure:"hazards_per_refresh"`
	LootPerRefresh    int `mapstructure:"loot_per_refresh"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // gorm | sql
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.rpc_address", "")
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("server.tick_interval_ms", 200)
	v.SetDefault("server.heartbeat_seconds", 30)
	v.SetDefault("server.command_rate", 20.0)
	v.SetDefault("server.command_burst", 40)
	v.SetDefault("server.max_rooms", 256)

	v.SetDefault("game.board_size", 10)
	v.SetDefault("game.number_seconds", 5)
	v.SetDefault("game.movement_seconds", 5)
	v.SetDefault("game.resolution_seconds", 10)
	v.SetDefault("game.refresh_seconds", 3)
	v.SetDefault("game.refresh_every", 6)
	v.SetDefault("game.hazards_per_refresh", 5)
	v.SetDefault("game.loot_per_refresh", 5)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "gorm")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.dbname", "intersplice")

	v.SetDefault("log.development", false)
}

// LoadConfig reads config.yaml from path (optional) and the environment.
// A .env file next to the config is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(path, ".env"))

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("INTERSPLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
