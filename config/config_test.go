package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Empty(t, cfg.Auth.AdminPassword)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "/api", cfg.Web.ApiPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "/media/", cfg.Media.URL)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "infinite.yml")
	content := `
system:
  workdir: /tmp/infinite
web:
  port: 9000
  public_url: https://shop.example.com
database:
  type: sqlite
  name: shop.db
auth:
  secret: file-secret
  access_ttl: 10m
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o600))

	t.Setenv("DB_NAME", "from_env")
	t.Setenv("INFINITE_WEB_PORT", "9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("ALLOWED_HOSTS", "shop.example.com")

	cfg, err := LoadConfig(cfile)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "from_env", cfg.Database.Name)
	assert.Equal(t, 9100, cfg.Web.Port)
	assert.Equal(t, "https://shop.example.com", cfg.Web.PublicURL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Web.CorsOrigins)
	assert.Equal(t, "/tmp/infinite/media", cfg.GetMediaDir())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrMissingSecret)

	t.Setenv("SECRET_KEY", "   ")
	_, err = LoadConfig("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestDefaultsCarryNoCredentials(t *testing.T) {
	cfg := DefaultAppConfig()
	assert.Empty(t, cfg.Auth.Secret)
	assert.Empty(t, cfg.Auth.AdminPassword)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
