package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobgate.yaml")
	yml := `
server:
  web_port: "9000"
  cors_origins: ["https://admin.example.com"]
app:
  timezone: Africa/Casablanca
jobs:
  reminder_cron: "*/10 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("WEB_PORT", "9100")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.WebPort)
	assert.Equal(t, "50051", cfg.Server.GRPCPort)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "*/10 * * * *", cfg.Jobs.ReminderCron)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Redis.URL)
	assert.Equal(t, "Africa/Casablanca", cfg.Location().String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{"bad cron", func(c *Config) { c.Jobs.StatsCron = "every day" }},
		{"no database", func(c *Config) { c.Database.URL = "" }},
		{"no web port", func(c *Config) { c.Server.WebPort = "" }},
		{"bad proxy", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "x"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
