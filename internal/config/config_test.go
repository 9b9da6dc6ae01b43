package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 8*time.Second, cfg.Deck.Interval)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Database.Path, cfg.Database.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verisite.yaml")
	yaml := `
server:
  addr: ":9000"
  base_url: https://verisite.example
deck:
  interval: 5s
  auto_advance: false
rate_limit:
  limit: 10
presale:
  token_symbol: VRF
  hard_cap_usd: 1000000
  phases:
    - name: Seed
      starts_at: "2026-07-01T00:00:00Z"
      ends_at: "2026-07-15T00:00:00Z"
      price_usd: 0.02
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("VERISITE_MAILING__API_KEY", "from-env")
	t.Setenv("VERISITE_RATE_LIMIT__LIMIT", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "https://verisite.example", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Deck.Interval)
	assert.False(t, cfg.Deck.AutoAdvance)
	assert.Equal(t, 3, cfg.RateLimit.Limit, "env wins over file")
	assert.Equal(t, time.Hour, cfg.RateLimit.Window, "untouched defaults survive")
	assert.Equal(t, "from-env", cfg.Mailing.APIKey)
	require.Len(t, cfg.Presale.Phases, 1)
	assert.Equal(t, "Seed", cfg.Presale.Phases[0].Name)
	assert.Equal(t, time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), cfg.Presale.Phases[0].EndsAt.UTC())
	assert.Equal(t, 0.02, cfg.Presale.Phases[0].PriceUSD)
}

func TestLoadHonoursPort(t *testing.T) {
	t.Setenv("PORT", "7777")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Addr = ""
	cfg.Mailing.BaseURL = "https://mail.example"
	cfg.RateLimit.Limit = 0
	cfg.Presale.Phases = append(cfg.Presale.Phases, presalePhase("Broken", 2, 1))

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.addr", "mailing.api_key", "rate_limit.limit", "Broken"} {
		assert.Contains(t, err.Error(), want)
	}
}
