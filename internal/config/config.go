// Package config loads the application settings from defaults, an optional
// config file, TABATA_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lowaak/tabata-timer/internal/program"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const envPrefix = "TABATA"

// ErrHelp is returned by Load when --help was requested
var ErrHelp = pflag.ErrHelp

// LogConfig controls the rotating log file
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// IntervalConfig holds the defaults for interval blocks that omit parameters
type IntervalConfig struct {
	WorkSeconds    int `mapstructure:"work_seconds"`
	RestSeconds    int `mapstructure:"rest_seconds"`
	Rounds         int `mapstructure:"rounds"`
	WarningSeconds int `mapstructure:"warning_seconds"`
}

// Defaults converts to the program package representation
func (c IntervalConfig) Defaults() program.IntervalDefaults {
	return program.IntervalDefaults{
		WorkSeconds:    c.WorkSeconds,
		RestSeconds:    c.RestSeconds,
		Rounds:         c.Rounds,
		WarningSeconds: c.WarningSeconds,
	}
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

type GPIOConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Chip    string `mapstructure:"chip"`
	Line    int    `mapstructure:"line"`
}

// Config is the fully resolved application configuration
type Config struct {
	Program      string         `mapstructure:"program"`
	ProgramsFile string         `mapstructure:"programs_file"`
	TickInterval time.Duration  `mapstructure:"tick_interval"`
	StateDir     string         `mapstructure:"state_dir"`
	Log          LogConfig      `mapstructure:"log"`
	Intervals    IntervalConfig `mapstructure:"intervals"`
	MQTT         MQTTConfig     `mapstructure:"mqtt"`
	GPIO         GPIOConfig     `mapstructure:"gpio"`
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tabata-timer"
	}
	return filepath.Join(home, ".tabata-timer")
}

func setDefaults(v *viper.Viper) {
	d := program.DefaultIntervalDefaults

	v.SetDefault("program", "")
	v.SetDefault("programs_file", "")
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("intervals.work_seconds", d.WorkSeconds)
	v.SetDefault("intervals.rest_seconds", d.RestSeconds)
	v.SetDefault("intervals.rounds", d.Rounds)
	v.SetDefault("intervals.warning_seconds", d.WarningSeconds)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "tabata/timer/events")
	v.SetDefault("mqtt.client_id", "tabata-timer")
	v.SetDefault("gpio.enabled", false)
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.line", 18)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tabata-timer", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, toml or json)")
	fs.StringP("program", "p", "", "program id to select on start")
	fs.String("programs-file", "", "YAML file with additional programs")
	fs.Duration("tick-interval", time.Second, "clock period")
	fs.String("state-dir", "", "directory for UI state")
	fs.String("log-file", "", "log file path (default <state-dir>/tabata-timer.log)")
	fs.Bool("mqtt", false, "publish timer signals to an MQTT broker")
	fs.String("mqtt-broker", "", "MQTT broker URL")
	fs.Bool("gpio", false, "drive a buzzer on a GPIO line")
	fs.Int("gpio-line", 0, "GPIO line offset of the buzzer")
	return fs
}

// flag name -> config key
var flagKeys = map[string]string{
	"program":       "program",
	"programs-file": "programs_file",
	"tick-interval": "tick_interval",
	"state-dir":     "state_dir",
	"log-file":      "log.file",
	"mqtt":          "mqtt.enabled",
	"mqtt-broker":   "mqtt.broker",
	"gpio":          "gpio.enabled",
	"gpio-line":     "gpio.line",
}

// Load resolves the configuration for the given command line arguments
// (without the program name).
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.StateDir, "tabata-timer.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values a run depends on
func (c *Config) Validate() error {
	var err error
	if c.TickInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if verr := c.Intervals.Defaults().Validate(); verr != nil {
		err = multierr.Append(err, fmt.Errorf("intervals: %w", verr))
	}
	if c.Log.MaxSizeMB <= 0 {
		err = multierr.Append(err, fmt.Errorf("log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		err = multierr.Append(err, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.GPIO.Enabled && c.GPIO.Line < 0 {
		err = multierr.Append(err, fmt.Errorf("gpio.line must not be negative, got %d", c.GPIO.Line))
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
