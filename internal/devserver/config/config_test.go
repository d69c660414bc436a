package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"devserver"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "127.0.0.1:8000", c.Address)
	assert.Equal(t, 5*time.Minute, c.AccessTokenTTL)
	assert.True(t, c.Seed)
	assert.False(t, c.Paginate)
	assert.Equal(t, "info", c.LogLevel)
}

func TestParseFlags(t *testing.T) {
	withArgs(t, "-a", ":9000", "-t", "30", "-l", "debug", "-x", "ignored")

	c := defaults()
	require.NotPanics(t, func() { parseFlags(c) })

	want := defaults()
	want.Address = ":9000"
	want.AccessTokenTTL = 30 * time.Second
	want.LogLevel = "debug"
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseFlags_BadValuePanics(t *testing.T) {
	withArgs(t, "-t", "soon")
	require.Panics(t, func() { parseFlags(defaults()) })
}

func TestParseEnv(t *testing.T) {
	t.Setenv("DEVSERVER_ADDRESS", ":7000")
	t.Setenv("DEVSERVER_SEED", "false")
	t.Setenv("DEVSERVER_PAGINATE", "true")

	c := defaults()
	parseEnv(c)

	want := defaults()
	want.Address = ":7000"
	want.Seed = false
	want.Paginate = true
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserver.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token_ttl":"20s","seed":false,"log_level":"warn"}`), 0o600))
	withArgs(t, "-c", path)

	c := defaults()
	parseJson(c)

	want := defaults()
	want.AccessTokenTTL = 20 * time.Second
	want.Seed = false
	want.LogLevel = "warn"
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseJson_MissingFilePanics(t *testing.T) {
	withArgs(t, "-config", filepath.Join(t.TempDir(), "absent.json"))
	require.Panics(t, func() { parseJson(defaults()) })
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserver.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"address":":6000","log_level":"warn"}`), 0o600))
	withArgs(t, "-c", path, "-a", ":6001")
	t.Setenv("DEVSERVER_LOG_LEVEL", "error")

	c := LoadConfig()
	assert.Equal(t, ":6001", c.Address)
	assert.Equal(t, "error", c.LogLevel)
}
