package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/taskgrid/taskgrid/internal/db"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	MigrationsPath string
}

// Config is the full application configuration.
type Config struct {
	Server ServerConfig
	DB     db.Config
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		MigrationsPath: "./migrations",
	}
}

// Load reads config.yaml from configPath, with environment overrides
// (TASKGRID_DATABASE_HOST, TASKGRID_SERVER_ADDR, ...).
func Load(configPath string) (Config, error) {
	cfg := Config{
		Server: DefaultServerConfig(),
		DB:     db.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("TASKGRID")

	v.BindEnv("server.addr")
	v.BindEnv("server.migrations_path")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.migrations_path") {
		cfg.Server.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
