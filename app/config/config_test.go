package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: http://localhost:8080\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "ko-KR", cfg.Voice.Language)
	assert.Equal(t, "general", cfg.Yandex.SpeechKit.Model)
	assert.Equal(t, 500*time.Millisecond, cfg.Yandex.SpeechKit.EndOfUtterancePause)
	assert.Equal(t, 6*time.Second, cfg.Preview.FetchTimeout)
	assert.Equal(t, 3*time.Second, cfg.Preview.RotationInterval)
	assert.Equal(t, "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7", cfg.Preview.AcceptLanguage)
	assert.Equal(t, 512, cfg.Preview.CacheCapacity)
	assert.True(t, cfg.Preview.PrewarmEnabled())
	assert.Equal(t, 7, cfg.News.Days)
	assert.Equal(t, 5, cfg.News.MaxLinks)
	assert.Equal(t, "espeak-ng", cfg.TTS.Command)
	assert.Equal(t, []string{"-v", "ko"}, cfg.TTS.Args)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://localhost:8080
preview:
  cache_capacity: -1
  rotation_interval: 5s
  image_prewarm: false
news:
  days: 3
  max_links: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, -1, cfg.Preview.CacheCapacity)
	assert.Equal(t, 5*time.Second, cfg.Preview.RotationInterval)
	assert.False(t, cfg.Preview.PrewarmEnabled())
	assert.Equal(t, 3, cfg.News.Days)
	assert.Equal(t, 2, cfg.News.MaxLinks)
}

func TestLoadEnvOverridesBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.example:9000")
	path := writeConfig(t, "api:\n  base_url: http://localhost:8080\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example:9000", cfg.API.BaseURL)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.example:9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://env.example:9000", cfg.API.BaseURL)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	path := writeConfig(t, "voice:\n  language: ko-KR\n")

	_, err := Load(path)
	require.Error(t, err)
}
