package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/game/battle"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cache    cache.Config   `mapstructure:"cache"`
	Battle   battle.Rules   `mapstructure:"battle"`
	Arena    arena.Config   `mapstructure:"arena"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type CatalogConfig struct {
	DataPath string `mapstructure:"data_path"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("catalog.data_path", "./data")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)

	r := battle.DefaultRules()
	v.SetDefault("battle.crit_chance", r.CritChance)
	v.SetDefault("battle.crit_multiplier", r.CritMultiplier)
	v.SetDefault("battle.stab", r.STAB)
	v.SetDefault("battle.variance_min", r.VarianceMin)
	v.SetDefault("battle.variance_max", r.VarianceMax)
	v.SetDefault("battle.escape_chance", r.EscapeChance)
	v.SetDefault("battle.always_hit_accuracy", r.AlwaysHitAccuracy)
	v.SetDefault("battle.restore_pp_amount", r.RestorePPAmount)
	v.SetDefault("battle.poison_divisor", r.PoisonDivisor)
	v.SetDefault("battle.burn_divisor", r.BurnDivisor)
	v.SetDefault("battle.bleed_divisor", r.BleedDivisor)
	v.SetDefault("battle.confusion_divisor", r.ConfusionDivisor)
	v.SetDefault("battle.paralysis_skip_chance", r.ParalysisSkipChance)
	v.SetDefault("battle.confusion_self_hit_chance", r.ConfusionSelfHitChance)
	v.SetDefault("battle.multi_hit_min", r.MultiHitMin)
	v.SetDefault("battle.multi_hit_max", r.MultiHitMax)
	v.SetDefault("battle.full_restore_on_start", r.FullRestoreOnStart)

	a := arena.DefaultConfig()
	v.SetDefault("arena.idle_ttl", a.IdleTTL.String())
	v.SetDefault("arena.finished_grace", a.FinishedGrace.String())
	v.SetDefault("arena.reap_interval", a.ReapInterval.String())
	v.SetDefault("arena.summary_ttl", a.SummaryTTL.String())
	v.SetDefault("arena.recent_limit", a.RecentLimit)
	v.SetDefault("arena.default_level", a.DefaultLevel)
	v.SetDefault("arena.max_team_size", a.MaxTeamSize)
	v.SetDefault("arena.max_sessions", a.MaxSessions)

	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
}

// Load reads config from the given YAML file path. An empty path yields the
// defaults. MONBATTLE_* environment variables override both, e.g.
// MONBATTLE_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("monbattle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects rule values the engine cannot run with.
func (c *Config) Validate() error {
	r := c.Battle
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	case r.CritChance < 0 || r.CritChance > 1:
		return fmt.Errorf("config: battle.crit_chance %v out of [0,1]", r.CritChance)
	case r.EscapeChance < 0 || r.EscapeChance > 1:
		return fmt.Errorf("config: battle.escape_chance %v out of [0,1]", r.EscapeChance)
	case r.VarianceMin <= 0 || r.VarianceMax < r.VarianceMin:
		return fmt.Errorf("config: battle.variance range [%v,%v] invalid", r.VarianceMin, r.VarianceMax)
	case r.MultiHitMin < 1 || r.MultiHitMax < r.MultiHitMin:
		return fmt.Errorf("config: battle.multi_hit range %d..%d invalid", r.MultiHitMin, r.MultiHitMax)
	case r.PoisonDivisor <= 0 || r.BurnDivisor <= 0 || r.BleedDivisor <= 0 || r.ConfusionDivisor <= 0:
		return fmt.Errorf("config: battle status divisors must be positive")
	}
	return nil
}
