package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "hmmmodel.txt", c.Model.Path)
	assert.Equal(t, "hmmoutput.txt", c.Decode.Output)
	assert.Equal(t, "NP", c.Decode.FallbackTag)
	assert.Equal(t, ":8080", c.Server.Address)
	require.NotNil(t, c.Server.WatchModel)
	assert.True(t, *c.Server.WatchModel)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "hmm.yaml", `
normalize: nfc
model:
  path: models.db
  name: brown
decode:
  fallback_tag: NN
log:
  level: debug
server:
  watch_model: false
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "models.db", c.Model.Path)
	assert.Equal(t, "brown", c.Model.Name)
	assert.Equal(t, "NN", c.Decode.FallbackTag)
	assert.Equal(t, "nfc", c.Normalize)
	assert.Equal(t, "hmmoutput.txt", c.Decode.Output)
	assert.Equal(t, "debug", c.Log.Level)
	assert.False(t, *c.Server.WatchModel)
	assert.Equal(t, ":8080", c.Server.Address)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "hmm.yaml", "model: [unclosed"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HMM_MODEL_PATH", "/tmp/env-model.msgpack")
	t.Setenv("HMM_FALLBACK_TAG", "XX")
	t.Setenv("HMM_WATCH_MODEL", "false")
	t.Setenv("HMM_RATE_LIMIT", "20")

	c, err := Load(writeFile(t, "hmm.yaml", "model:\n  path: file.json\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-model.msgpack", c.Model.Path)
	assert.Equal(t, "XX", c.Decode.FallbackTag)
	assert.False(t, *c.Server.WatchModel)
	assert.Equal(t, 20, c.Server.RateLimit)
}

func TestEnvBadBool(t *testing.T) {
	c := Default()
	err := c.applyEnv(func(key string) (string, bool) {
		if key == "HMM_WATCH_MODEL" {
			return "maybe", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestDotEnv(t *testing.T) {
	const key = "HMM_TEST_DOTENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })
	path := writeFile(t, ".env", key+"=from-dotenv\n")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
