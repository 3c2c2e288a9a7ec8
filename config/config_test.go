package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/monbattle/game/battle"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Catalog.DataPath)
	assert.Equal(t, battle.DefaultRules(), cfg.Battle)
	assert.Equal(t, 30*time.Minute, cfg.Arena.IdleTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.LocalGCInterval)
	assert.Equal(t, 100.0, cfg.Security.RateLimitRPS)
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9090
catalog:
  data_path: /srv/catalog
cache:
  redis_addr: localhost:6379
battle:
  crit_chance: 0.1
  escape_chance: 1
  full_restore_on_start: true
arena:
  idle_ttl: 5m
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/catalog", cfg.Catalog.DataPath)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 0.1, cfg.Battle.CritChance)
	assert.Equal(t, 1.0, cfg.Battle.EscapeChance)
	assert.True(t, cfg.Battle.FullRestoreOnStart)
	assert.Equal(t, 1.8, cfg.Battle.CritMultiplier, "unset keys keep their defaults")
	assert.Equal(t, 5*time.Minute, cfg.Arena.IdleTTL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MONBATTLE_SERVER_PORT", "7070")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for _, body := range []string{
		"battle: {crit_chance: 2}",
		"battle: {variance_min: 1.0, variance_max: 0.5}",
		"battle: {multi_hit_min: 0}",
		"battle: {burn_divisor: 0}",
		"server: {port: -1}",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}
