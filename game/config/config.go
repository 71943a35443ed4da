package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/pixil98/go-errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/partyroom/game/room"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultDataDir         = "./data"
	DefaultIdleTimeout     = "10m"
	DefaultCleanupInterval = "1m"
	DefaultLogLevel        = "info"
)

// Config is the coordinator configuration
type Config struct {
	Host            string      `yaml:"host"`
	Port            int         `yaml:"port"`
	PublicURL       string      `yaml:"public_url"`
	DataDir         string      `yaml:"data_dir"`
	Storage         string      `yaml:"storage"`
	IdleTimeout     string      `yaml:"idle_timeout"`
	CleanupInterval string      `yaml:"cleanup_interval"`
	DefaultGameType string      `yaml:"default_game_type"`
	LogLevel        string      `yaml:"log_level"`
	Nats            NatsConfig  `yaml:"nats"`
	Ngrok           NgrokConfig `yaml:"ngrok"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		DataDir:         DefaultDataDir,
		Storage:         StorageFile,
		IdleTimeout:     DefaultIdleTimeout,
		CleanupInterval: DefaultCleanupInterval,
		DefaultGameType: room.DefaultGameType,
		LogLevel:        DefaultLogLevel,
		Nats: NatsConfig{
			Host:          DefaultNatsHost,
			Port:          DefaultNatsPort,
			StartTimeout:  DefaultNatsStartTimeout,
			SubjectPrefix: DefaultSubjectPrefix,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	el := goerrors.NewErrorList()

	if c.Port < 0 || c.Port > 65535 {
		el.Add(fmt.Errorf("port must be between 0 and 65535"))
	}

	if c.PublicURL != "" && !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		el.Add(fmt.Errorf("public_url must start with http:// or https://"))
	}

	el.Add(c.validateStorage())

	d, err := time.ParseDuration(c.IdleTimeout)
	if err != nil {
		el.Add(fmt.Errorf("parsing idle_timeout: %w", err))
	} else if d <= 0 {
		el.Add(fmt.Errorf("idle_timeout must be positive"))
	}

	d, err = time.ParseDuration(c.CleanupInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing cleanup_interval: %w", err))
	} else if d < time.Second {
		el.Add(fmt.Errorf("cleanup_interval must be at least 1 second"))
	}

	if !room.IsGameType(c.DefaultGameType) {
		el.Add(fmt.Errorf("default_game_type must be %q or %q", room.GameTypeQuiz, room.GameTypeRPS))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		el.Add(fmt.Errorf("parsing log_level: %w", err))
	}

	if err := c.Nats.Validate(); err != nil {
		el.Add(fmt.Errorf("nats: %w", err))
	}
	if err := c.Ngrok.Validate(); err != nil {
		el.Add(fmt.Errorf("ngrok: %w", err))
	}

	if err := el.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IdleTimeoutDuration returns idle_timeout, or the default if it does not parse.
// Call Validate first to surface parse errors.
func (c *Config) IdleTimeoutDuration() time.Duration {
	return parseDurationOr(c.IdleTimeout, DefaultIdleTimeout)
}

// CleanupIntervalDuration returns cleanup_interval, or the default if it does not parse
func (c *Config) CleanupIntervalDuration() time.Duration {
	return parseDurationOr(c.CleanupInterval, DefaultCleanupInterval)
}

// LocalURL is the base URL of the coordinator on this machine
func (c *Config) LocalURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Level returns the parsed log level, defaulting to info
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func parseDurationOr(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
