// Package config loads the screener configuration from YAML, a sibling .env
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/spf13/viper"
)

type Config struct {
	Log        LogConfig                 `mapstructure:"log"`
	Filter     FilterConfig              `mapstructure:"filter"`
	Screen     ScreenConfig              `mapstructure:"screen"`
	Storage    StorageConfig             `mapstructure:"storage"`
	Export     ExportConfig              `mapstructure:"export"`
	Collector  CollectorConfig           `mapstructure:"collector"`
	Schedule   ScheduleConfig            `mapstructure:"schedule"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
	Notifiers  map[string]NotifierConfig `mapstructure:"notifiers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

// FilterConfig mirrors strategy.FilterConfig.
type FilterConfig struct {
	TurnoverRateThreshold    float64 `mapstructure:"turnover_rate_threshold"`
	VolumeRatioThreshold     float64 `mapstructure:"volume_ratio_threshold"`
	EnableWeeklyConfirmation bool    `mapstructure:"enable_weekly_confirmation"`
	RequireBelowMA5          bool    `mapstructure:"require_below_ma5"`
	BreakoutTolerance        float64 `mapstructure:"breakout_tolerance"`
}

type ScreenConfig struct {
	Kinds            []string `mapstructure:"kinds"`
	TargetDate       string   `mapstructure:"target_date"`       // YYYY-MM-DD, empty for latest
	TargetInstrument string   `mapstructure:"target_instrument"` // restrict the universe to one code
	VerboseTrace     bool     `mapstructure:"verbose_trace"`
}

type StorageConfig struct {
	DSN       string `mapstructure:"dsn"` // sqlite file, ":memory:" for an in-process store
	CacheSize int    `mapstructure:"cache_size"`
}

type ExportConfig struct {
	Type     string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path     string   `mapstructure:"path"` // For localfs
	Encoding string   `mapstructure:"encoding"`
	S3       S3Config `mapstructure:"s3"` // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type CollectorConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	HistoryDays int           `mapstructure:"history_days"`
	Universe    []string      `mapstructure:"universe"`
}

type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	At       string `mapstructure:"at"` // HH:MM
	Timezone string `mapstructure:"timezone"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// NotifierConfig enables one notifier ("webhook" or "telegram").
type NotifierConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// Load reads configuration from file. A .env file next to it, if present, is
// loaded into the environment first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("STOCKSCREEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	def := strategy.DefaultFilterConfig()
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Filter: FilterConfig{
			TurnoverRateThreshold:    def.TurnoverRateThreshold,
			VolumeRatioThreshold:     def.VolumeRatioThreshold,
			EnableWeeklyConfirmation: def.EnableWeeklyConfirmation,
			RequireBelowMA5:          def.RequireBelowMA5,
			BreakoutTolerance:        def.BreakoutTolerance,
		},
		Screen: ScreenConfig{
			Kinds: []string{string(core.PeriodDaily)},
		},
		Storage: StorageConfig{
			DSN:       "stockscreen.db",
			CacheSize: 512,
		},
		Export: ExportConfig{
			Type:     "localfs",
			Path:     "output",
			Encoding: "utf-8",
		},
		Collector: CollectorConfig{
			Provider:    "eastmoney",
			Timeout:     10 * time.Second,
			HistoryDays: 500,
		},
		Schedule: ScheduleConfig{
			At:       "16:00",
			Timezone: "Asia/Shanghai",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// ToFilterConfig converts the filter section into the value passed to every
// strategy.
func (c *Config) ToFilterConfig() strategy.FilterConfig {
	return strategy.FilterConfig{
		TurnoverRateThreshold:    c.Filter.TurnoverRateThreshold,
		VolumeRatioThreshold:     c.Filter.VolumeRatioThreshold,
		EnableWeeklyConfirmation: c.Filter.EnableWeeklyConfirmation,
		RequireBelowMA5:          c.Filter.RequireBelowMA5,
		BreakoutTolerance:        c.Filter.BreakoutTolerance,
	}
}

// StrategyConfigs converts the strategies section for strategy.Engine.Configure.
func (c *Config) StrategyConfigs() map[string]strategy.Config {
	out := make(map[string]strategy.Config, len(c.Strategies))
	for name, sc := range c.Strategies {
		out[name] = strategy.Config{Enabled: sc.Enabled, Params: sc.Params}
	}
	return out
}

// Kinds parses the screen.kinds list.
func (c *Config) Kinds() ([]core.PeriodKind, error) {
	kinds := make([]core.PeriodKind, 0, len(c.Screen.Kinds))
	for _, k := range c.Screen.Kinds {
		kind := core.PeriodKind(k)
		if !kind.Valid() {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown period kind %q", k))
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// TargetDate parses screen.target_date. The zero time means latest.
func (c *Config) TargetDate() (time.Time, error) {
	if c.Screen.TargetDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(core.DateLayout, c.Screen.TargetDate)
	if err != nil {
		return time.Time{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("target_date must be YYYY-MM-DD, got %q", c.Screen.TargetDate))
	}
	return t, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.ToFilterConfig().Validate(); err != nil {
		return err
	}

	if _, err := c.Kinds(); err != nil {
		return err
	}
	if len(c.Screen.Kinds) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("screen.kinds is empty"))
	}
	if _, err := c.TargetDate(); err != nil {
		return err
	}

	if c.Storage.DSN == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.dsn required"))
	}
	if c.Storage.CacheSize < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache_size cannot be negative, got %d", c.Storage.CacheSize))
	}

	switch c.Export.Type {
	case "":
	case "localfs":
		if c.Export.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("export.path required for localfs"))
		}
	case "s3":
		if c.Export.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("export.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export type %q", c.Export.Type))
	}
	switch strings.ToLower(c.Export.Encoding) {
	case "", "utf-8", "utf8", "gbk":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export encoding %q", c.Export.Encoding))
	}

	if c.Schedule.Enabled {
		if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("schedule.at must be HH:MM, got %q", c.Schedule.At))
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
	}

	for name := range c.Notifiers {
		switch name {
		case "webhook", "telegram":
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
	}

	return nil
}
