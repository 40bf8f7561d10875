package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Run from an empty directory so no config.toml is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		t.Setenv("POS_AUTH_SECRET", "test-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "luccacell", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8081", cfg.App.Port)
		assert.Equal(t, "", cfg.Database.Host)
		assert.False(t, cfg.UsesDatabase())
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "America/Sao_Paulo", cfg.Report.Timezone)
		assert.Equal(t, 5, cfg.Report.TopN)
		assert.Equal(t, 1024, cfg.Report.BoardLimit)
		assert.Equal(t, "LUCCA CELL", cfg.Printing.StoreName)
		assert.Equal(t, 12*time.Hour, cfg.Auth.Expiration)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("POS_AUTH_SECRET", "test-secret")
		t.Setenv("POS_APP_PORT", "9090")
		t.Setenv("POS_DATABASE_HOST", "db.internal")
		t.Setenv("POS_REPORT_TIMEZONE", "UTC")
		t.Setenv("POS_PRINTING_STORE_NAME", "LOJA TESTE")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.True(t, cfg.UsesDatabase())
		assert.Equal(t, "UTC", cfg.Report.Timezone)
		assert.Equal(t, "LOJA TESTE", cfg.Printing.StoreName)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := t.TempDir()
		content := "[app]\nport = \"7000\"\n\n[auth]\nsecret = \"from-file\"\n\n[report]\ntop_n = 3\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
		require.NoError(t, os.Chdir(dir))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "7000", cfg.App.Port)
		assert.Equal(t, "from-file", cfg.Auth.Secret)
		assert.Equal(t, 3, cfg.Report.TopN)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Auth: AuthConfig{Secret: "s"}}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("accepts defaults with a secret", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("requires a secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Secret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires a long secret in production", func(t *testing.T) {
		cfg := valid()
		cfg.App.Env = "production"
		assert.Error(t, cfg.Validate())
		assert.True(t, cfg.IsProduction())
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		cfg := valid()
		cfg.Report.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "pos", Password: "pw", DBName: "sales", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=pos password=pw dbname=sales sslmode=disable", cfg.DSN())
}
