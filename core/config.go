package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineMemory   = "memory"
	EngineRedis    = "redis"
)

type (
	Config struct {
		AppName      string
		Build        string
		Env          string
		Debug        bool
		TestMode     bool
		RollbarToken string
		Database     DatabaseConfig
		Redis        RedisConfig
		Server       ServerConfig
	}

	DatabaseConfig struct {
		Engine        string
		Name          string // file path for sqlite3
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Host     string
		Port     string
		Password string
		DB       int
		Prefix   string
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsSQL reports whether the configured engine is served by database/sql.
func (c DatabaseConfig) IsSQL() bool {
	switch c.Engine {
	case EngineSQLite, EnginePostgres, EngineMySQL:
		return true
	}
	return false
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Kumbukumbu")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("database.engine", EngineSQLite)
	conf.SetDefault("database.name", "kumbukumbu.db")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("redis.host", "localhost")
	conf.SetDefault("redis.port", "6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)
	conf.SetDefault("redis.prefix", "kumbukumbu")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	hostname, _ := os.Hostname()

	return &Config{
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		RollbarToken: conf.GetString("rollbarToken"),
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Host:     conf.GetString("redis.host"),
			Port:     conf.GetString("redis.port"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
			Prefix:   conf.GetString("redis.prefix"),
		},
		Server: ServerConfig{
			Host:            hostname,
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
	}
}
