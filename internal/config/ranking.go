package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RankingConfig controls the composite score used to rank domains.
// Each weight must be non-negative and at least one must be positive;
// the score stays monotone in success rate and volume for any valid set.
type RankingConfig struct {
	SuccessWeight  float64 `mapstructure:"successWeight"`
	VolumeWeight   float64 `mapstructure:"volumeWeight"`
	CoverageWeight float64 `mapstructure:"coverageWeight"`

	// VolumeHalfPoint is the request total at which the bounded volume
	// term reaches 50 of its 100 points.
	VolumeHalfPoint int64 `mapstructure:"volumeHalfPoint"`
}

func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		SuccessWeight:   0.5,
		VolumeWeight:    0.3,
		CoverageWeight:  0.2,
		VolumeHalfPoint: 50000,
	}
}

type RankingConfigHolder struct {
	current atomic.Value // holds RankingConfig
}

func NewRankingConfigHolder() (*RankingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ranking")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/ispmetrics/config") // Volume-mounted config
	v.AddConfigPath("/etc/ispmetrics")            // System config
	v.AddConfigPath(".")                          // Current directory (dev mode)

	v.SetEnvPrefix("ISPMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRankingConfig()
	v.SetDefault("ranking.successWeight", defaults.SuccessWeight)
	v.SetDefault("ranking.volumeWeight", defaults.VolumeWeight)
	v.SetDefault("ranking.coverageWeight", defaults.CoverageWeight)
	v.SetDefault("ranking.volumeHalfPoint", defaults.VolumeHalfPoint)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg RankingConfig
	if err := v.UnmarshalKey("ranking", &cfg); err != nil {
		return nil, err
	}
	if err := validateRankingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RankingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RankingConfig
		if err := v.UnmarshalKey("ranking", &updated); err != nil {
			log.Printf("[ranking-config] reload failed: %v", err)
			return
		}
		if err := validateRankingConfig(updated); err != nil {
			log.Printf("[ranking-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ranking-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticRankingConfigHolder wraps a fixed config, used by tests.
func NewStaticRankingConfigHolder(cfg RankingConfig) *RankingConfigHolder {
	holder := &RankingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RankingConfigHolder) Get() RankingConfig {
	return h.current.Load().(RankingConfig)
}

func validateRankingConfig(cfg RankingConfig) error {
	if cfg.SuccessWeight < 0 || cfg.VolumeWeight < 0 || cfg.CoverageWeight < 0 {
		return errors.New("ranking weights cannot be negative")
	}
	if cfg.SuccessWeight+cfg.VolumeWeight+cfg.CoverageWeight <= 0 {
		return errors.New("at least one ranking weight must be positive")
	}
	if cfg.VolumeHalfPoint <= 0 {
		return errors.New("ranking.volumeHalfPoint must be positive")
	}
	return nil
}
