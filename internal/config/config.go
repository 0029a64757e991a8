// Package config loads service and CLI settings from an optional YAML file,
// the environment and built-in defaults, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sasakiai/poker-chip-distribution/internal/allocate"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/multiplier"
)

// Config is the resolved configuration.
type Config struct {
	ListenAddress string
	RedisURL      string
	CacheTTL      time.Duration
	CacheSize     int
	LogLevel      slog.Level
	CORSOrigins   []string
	Denominations []model.Denomination
	Inventory     model.Inventory
	Scoring       multiplier.Weights
}

// DefaultDenominations is the chip set of a standard home-game case.
var DefaultDenominations = []int{1, 5, 25, 100, 500, 1000}

// DefaultInventory is the chip count of that case.
var DefaultInventory = map[string]int64{
	"1": 150, "5": 150, "25": 100, "100": 50, "500": 25, "1000": 25,
}

// Load reads configuration. path names a YAML file; when empty,
// CHIPDIST_CONFIG is consulted and then ./.chipdist.yaml and
// $HOME/.chipdist.yaml are tried. A missing search-path file is not an
// error, a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CHIPDIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("config", "CHIPDIST_CONFIG")
	v.BindEnv("port", "PORT")
	v.BindEnv("redis_url", "REDIS_URL", "CHIPDIST_REDIS_URL")

	v.SetDefault("listen_address", "")
	v.SetDefault("port", "8080")
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "5m")
	v.SetDefault("cache_size", 1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("denominations", DefaultDenominations)
	v.SetDefault("inventory", DefaultInventory)
	v.SetDefault("scoring.blind_round", multiplier.DefaultWeights.BlindRound)
	v.SetDefault("scoring.stack_depth", multiplier.DefaultWeights.StackDepth)
	v.SetDefault("scoring.chip_usability", multiplier.DefaultWeights.ChipUsability)

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".chipdist")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return resolve(v)
}

func resolve(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ListenAddress: v.GetString("listen_address"),
		RedisURL:      v.GetString("redis_url"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		CacheSize:     v.GetInt("cache_size"),
		CORSOrigins:   v.GetStringSlice("cors_origins"),
		Scoring: multiplier.Weights{
			BlindRound:    v.GetFloat64("scoring.blind_round"),
			StackDepth:    v.GetFloat64("scoring.stack_depth"),
			ChipUsability: v.GetFloat64("scoring.chip_usability"),
		},
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":" + v.GetString("port")
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("%w: cache_size must be positive, got %d", model.ErrInvalidConfiguration, cfg.CacheSize)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("%w: cache_ttl must be positive, got %s", model.ErrInvalidConfiguration, cfg.CacheTTL)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("%w: log_level: %v", model.ErrInvalidConfiguration, err)
	}

	for _, d := range v.GetIntSlice("denominations") {
		cfg.Denominations = append(cfg.Denominations, model.Denomination(d))
	}
	if err := allocate.ValidateDenominations(cfg.Denominations); err != nil {
		return nil, err
	}

	// UnmarshalKey takes the inventory from a single layer, so a configured
	// inventory replaces the default instead of merging with it.
	var raw map[string]int64
	if err := v.UnmarshalKey("inventory", &raw); err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", model.ErrInvalidConfiguration, err)
	}
	cfg.Inventory = make(model.Inventory, len(raw))
	for k, n := range raw {
		d, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: inventory key %q is not a denomination", model.ErrInvalidConfiguration, k)
		}
		cfg.Inventory[model.Denomination(d)] = n
	}
	if err := inventory.Validate(cfg.Inventory, cfg.Denominations); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}

	return cfg, nil
}

// Logger returns a JSON slog logger at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
