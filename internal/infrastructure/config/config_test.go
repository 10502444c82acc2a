package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "coretrack", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 14, cfg.App.TrialDays)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.RetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Database.RetryBaseDelay)
	assert.Equal(t, int64(64<<10), cfg.HTTP.WebhookBodyLimit)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Scheduler.SyncRetryInterval)
	assert.Equal(t, 90*time.Second, cfg.Sync.OfflineAfter)
	assert.Equal(t, []string{"IDR", "PHP"}, cfg.Xendit.Currencies)
	assert.False(t, cfg.Swagger.Enabled)
	assert.True(t, cfg.Swagger.RequireAuth)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORETRACK_APP_PORT", "9000")
	t.Setenv("CORETRACK_DATABASE_HOST", "db.internal")
	t.Setenv("CORETRACK_DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("CORETRACK_REDIS_HOST", "cache")
	t.Setenv("CORETRACK_SYNC_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CORETRACK_APP_NAME=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CORETRACK_APP_NAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "coretrack.toml")
	content := `
[app]
name = "file-app"

[stripe]
price_ids = { starter = "price_1", pro = "price_2" }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-app", cfg.App.Name)
	assert.Equal(t, "price_2", cfg.Stripe.PriceIDs["pro"])

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
		assert.ErrorContains(t, cfg.Validate(), "cannot exceed")
	})

	t.Run("enabled provider needs secrets", func(t *testing.T) {
		cfg := base()
		cfg.Stripe.Enabled = true
		assert.ErrorContains(t, cfg.Validate(), "stripe")

		cfg = base()
		cfg.Xendit.Enabled = true
		cfg.Xendit.SecretKey = "sk"
		assert.ErrorContains(t, cfg.Validate(), "xendit")
	})

	t.Run("production rejects unsafe defaults", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		assert.ErrorContains(t, cfg.Validate(), "jwt.secret")

		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "pw"
		assert.ErrorContains(t, cfg.Validate(), "sslmode")

		cfg.Database.SSLMode = "require"
		cfg.Log.Level = "debug"
		assert.ErrorContains(t, cfg.Validate(), "debug")

		cfg.Log.Level = "info"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("production swagger must be protected", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "pw"
		cfg.Database.SSLMode = "require"
		cfg.Swagger.Enabled = true
		cfg.Swagger.RequireAuth = false
		assert.ErrorContains(t, cfg.Validate(), "swagger endpoint must be disabled")

		cfg.Swagger.AllowedIPs = []string{"10.0.0.0/8"}
		assert.NoError(t, cfg.Validate())

		cfg.Swagger.AllowedIPs = nil
		cfg.Swagger.RequireAuth = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoad_SwaggerEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORETRACK_SWAGGER_ENABLED", "true")
	t.Setenv("CORETRACK_SWAGGER_REQUIRE_AUTH", "false")
	t.Setenv("CORETRACK_SWAGGER_ALLOWED_IPS", "127.0.0.1 10.0.0.0/8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Swagger.Enabled)
	assert.False(t, cfg.Swagger.RequireAuth)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, cfg.Swagger.AllowedIPs)
}

func TestDSN_EscapesPassword(t *testing.T) {
	d := DatabaseConfig{User: "app", Password: "p@ss/word", Host: "db", Port: 5432, DBName: "coretrack", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/coretrack?sslmode=require", d.DSN())
}
