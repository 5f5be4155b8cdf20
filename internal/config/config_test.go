package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
llm:
  base_url: https://api.example.com/v1
  api_key_file: /secrets/key
  model: gpt-4o
  system_prompt: answer in haiku
  delay: 1.5s
history:
  backend: sqlite
  db_path: /var/lib/gptchat/history.db
log:
  level: debug
`

// chdir moves into an empty directory so no stray config.yaml or .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	return dir
}

// TestLoad_File verifies that Load correctly unmarshals a YAML file.
func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sampleConfig), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, "https://api.example.com/v1", cfg.LLM.BaseURL)
	require.Equal(t, "/secrets/key", cfg.LLM.APIKeyFile)
	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, "answer in haiku", cfg.LLM.SystemPrompt)
	require.Equal(t, 1500*time.Millisecond, cfg.LLM.Delay)
	require.Equal(t, "sqlite", cfg.History.Backend)
	require.Equal(t, "/var/lib/gptchat/history.db", cfg.History.DBPath)
	require.Equal(t, ".", cfg.History.Dir)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	require.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyFile)
	require.Equal(t, 800*time.Millisecond, cfg.LLM.Delay)
	require.Zero(t, cfg.LLM.Timeout)
	require.Equal(t, "file", cfg.History.Backend)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfig), 0o644))
	t.Setenv("GPTCHAT_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("GPTCHAT_HISTORY_BACKEND", "file")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.Equal(t, "file", cfg.History.Backend)
	require.Equal(t, "answer in haiku", cfg.LLM.SystemPrompt)
}

func TestLoad_IgnoresDotEnvUntilLoaded(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GPTCHAT_LOG_LEVEL=error\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
	_, set := os.LookupEnv("GPTCHAT_LOG_LEVEL")
	require.False(t, set)

	require.NoError(t, LoadDotEnv())
	t.Cleanup(func() { os.Unsetenv("GPTCHAT_LOG_LEVEL") })

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Log.Level)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	chdir(t)
	require.NoError(t, LoadDotEnv())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := chdir(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestLoadCredential(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "OPENAI_API_KEY")
	require.NoError(t, os.WriteFile(keyFile, []byte("sk-test\nignored second line\n"), 0o600))

	cfg := &Config{LLM: LLMConfig{APIKeyFile: keyFile}}
	require.NoError(t, cfg.LoadCredential())
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadCredential_Missing(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{APIKeyFile: filepath.Join(t.TempDir(), "absent")}}
	require.ErrorIs(t, cfg.LoadCredential(), ErrMissingCredential)

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	cfg = &Config{LLM: LLMConfig{APIKeyFile: empty}}
	require.ErrorIs(t, cfg.LoadCredential(), ErrMissingCredential)

	cfg = &Config{}
	require.ErrorIs(t, cfg.LoadCredential(), ErrMissingCredential)
}

func TestLoadCredential_DirectKeyWins(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{APIKey: "sk-direct", APIKeyFile: "/does/not/exist"}}
	require.NoError(t, cfg.LoadCredential())
	require.Equal(t, "sk-direct", cfg.LLM.APIKey)
}
