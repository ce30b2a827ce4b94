package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Recorder RecorderConfig `mapstructure:"recorder"`
	Session  SessionConfig  `mapstructure:"session"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
}

// RecorderConfig controls what gets captured and where it lands on disk.
type RecorderConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	// Symbol prefixes that are never recorded even when the gateway
	// announces a futures contract for them.
	ExcludePrefixes []string `mapstructure:"exclude_prefixes"`
}

// SessionConfig carries the trading-session windows and the flush schedule.
// All times of day are "HH:MM" in the exchange's local time.
type SessionConfig struct {
	DayStart   string `mapstructure:"day_start"`
	DayEnd     string `mapstructure:"day_end"`
	NightStart string `mapstructure:"night_start"`
	NightEnd   string `mapstructure:"night_end"`

	// The two per-cycle flush triggers: day-session close and
	// overnight-session close.
	FlushDay   string `mapstructure:"flush_day"`
	FlushNight string `mapstructure:"flush_night"`

	// Archiving is only considered at or after this time of day, on the
	// flush whose trading day matches the calendar date.
	ArchiveGate string `mapstructure:"archive_gate"`

	PollIdle    time.Duration `mapstructure:"poll_idle"`
	PollActive  time.Duration `mapstructure:"poll_active"`
	SettlePause time.Duration `mapstructure:"settle_pause"`
}

type GatewayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CalendarConfig selects where the trading calendar is loaded from.
type CalendarConfig struct {
	Source  string `mapstructure:"source"` // "csv" or "postgres"
	CSVPath string `mapstructure:"csv_path"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from the given config file (or searches the working directory and
// ./config when path is empty) and overrides with environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., REDIS_ADDR)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("recorder.output_dir", "tick_data")
	v.SetDefault("recorder.exclude_prefixes", []string{
		"bb", "CY", "fb", "JR", "LR", "PM", "RI", "rr", "WH", "wr",
	})

	v.SetDefault("session.day_start", "08:35")
	v.SetDefault("session.day_end", "16:30")
	v.SetDefault("session.night_start", "20:35")
	v.SetDefault("session.night_end", "02:45")
	v.SetDefault("session.flush_day", "16:00")
	v.SetDefault("session.flush_night", "02:35")
	v.SetDefault("session.archive_gate", "15:00")
	v.SetDefault("session.poll_idle", 30*time.Second)
	v.SetDefault("session.poll_active", 10*time.Second)
	v.SetDefault("session.settle_pause", 30*time.Second)

	v.SetDefault("gateway.timeout", 10*time.Second)

	v.SetDefault("calendar.source", "csv")
	v.SetDefault("calendar.csv_path", "trade_calendar.csv")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 1)
	v.SetDefault("redis.key_prefix", "tick")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
