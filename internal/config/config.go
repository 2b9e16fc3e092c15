package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Rematch policies for a partial vote at the deadline.
const (
	RematchProceed   = "proceed"
	RematchTerminate = "terminate"
)

type Config struct {
	LogLevel string `yaml:"log-level" env-default:"info"`
	HTTPPort string `yaml:"http-port" env-default:"9090"`
	WSPort   string `yaml:"ws-port" env-default:"8080"`
	TCPPort  string `yaml:"tcp-port" env-default:"65432"`
	Redis    Redis  `yaml:"redis"`
	NATS     NATS   `yaml:"nats"`
	Game     Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:""`
	Port string `yaml:"port" env-default:"6379"`
}

type NATS struct {
	URL string `yaml:"url" env-default:""`
}

type Game struct {
	RematchTimeoutSeconds int    `yaml:"rematch-timeout-seconds" env-default:"30"`
	RematchPartial        string `yaml:"rematch-partial" env-default:"proceed"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// GetRedisAddr returns an empty string when no archive store is configured.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) RematchTimeout() time.Duration {
	return time.Duration(that.RematchTimeoutSeconds) * time.Second
}

func (that *Game) RequireFullConsent() bool {
	return that.RematchPartial == RematchTerminate
}
