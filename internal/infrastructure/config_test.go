package infra

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredArgs = []string{
	"--database.username=lf",
	"--database.password=pw",
	"--database.schema=gateway",
	"--security.jwt_secret=secret",
	"--kv.password=kv",
}

func TestInitConfig_Defaults(t *testing.T) {
	cfg, err := InitConfig(requiredArgs)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "http://localhost:8080/api", cfg.Backend.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "lf_token", cfg.Security.TokenName)
	assert.Equal(t, 3, cfg.Security.MaxLoginAttempts)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, int32(50), cfg.Database.MaxConn)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
}

func TestInitConfig_AllowOrigins(t *testing.T) {
	cfg, err := InitConfig(append([]string{"--cors.allow_origins=https://app.learnforge.dev,https://admin.learnforge.dev"}, requiredArgs...))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.learnforge.dev", "https://admin.learnforge.dev"}, cfg.CORS.AllowOrigins)
}

func TestInitConfig_Env(t *testing.T) {
	os.Setenv("LEARNFORGE_BACKEND_BASE_URL", "http://backend:9000/api")
	os.Setenv("LEARNFORGE_BACKEND_TIMEOUT", "15s")
	defer os.Unsetenv("LEARNFORGE_BACKEND_BASE_URL")
	defer os.Unsetenv("LEARNFORGE_BACKEND_TIMEOUT")

	cfg, err := InitConfig(requiredArgs)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
}

func TestInitConfig_Validation(t *testing.T) {
	_, err := InitConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.username is required")
	assert.Contains(t, err.Error(), "security.jwt_secret is required")

	_, err = InitConfig(append([]string{"--backend.base_url=not a url", "--env=staging"}, requiredArgs...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url must be an absolute URL")
	assert.Contains(t, err.Error(), "env must be one of")
}

func TestInitConfig_BadFlag(t *testing.T) {
	_, err := InitConfig([]string{"--no-such-flag"})
	assert.Error(t, err)
}
