package config

import (
	"github.com/openmetagraph/metacat/internal/db"

	"github.com/spf13/viper"
)

// ZoneConfig holds the process-wide governance zone lists. Zone-eligible
// elements start life in Default and move to Published on publish.
type ZoneConfig struct {
	Default   []string
	Published []string
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// RedisConfig holds the optional element-cache settings. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config aggregates everything the server needs at startup.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Redis    RedisConfig
	Zones    ZoneConfig
}

// DefaultConfig returns the built-in defaults used when no config file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Zones: ZoneConfig{
			Default:   []string{"quarantine"},
			Published: []string{"production"},
		},
	}
}

// Load reads config.yaml from configPath with environment overrides
// (prefix METACAT, e.g. METACAT_DATABASE_HOST) on top of the defaults.
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("METACAT")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("redis.addr")
	v.BindEnv("redis.password")
	v.BindEnv("redis.db")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults + env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("redis.addr") {
		cfg.Redis.Addr = v.GetString("redis.addr")
	}
	if v.IsSet("redis.password") {
		cfg.Redis.Password = v.GetString("redis.password")
	}
	if v.IsSet("redis.db") {
		cfg.Redis.DB = v.GetInt("redis.db")
	}
	if v.IsSet("zones.default") {
		cfg.Zones.Default = v.GetStringSlice("zones.default")
	}
	if v.IsSet("zones.published") {
		cfg.Zones.Published = v.GetStringSlice("zones.published")
	}

	return cfg, nil
}
