package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "etc", "llm.yaml"), `
base_url: "https://example.com/v1"
default_model: "assistant"
models:
  assistant:
    model_name: "gpt-4o-mini"
    temperature: 0.0
`)
	writeFile(t, filepath.Join(dir, "prompts", "assistant.tmpl"), "You are a helpful assistant.")
	mainPath := filepath.Join(dir, "promptrun.yaml")
	writeFile(t, mainPath, `
Env: test
LogLevel: debug
Prompt:
  Template: prompts/assistant.tmpl
Transcript:
  Dir: transcripts
  Enabled: true
LLM:
  File: etc/llm.yaml
`)

	cfg, err := Load(mainPath)
	require.NoError(t, err)

	require.Equal(t, "test", cfg.Env)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, filepath.Join(dir, "prompts", "assistant.tmpl"), cfg.TemplatePath())
	require.Equal(t, filepath.Join(dir, "transcripts"), cfg.TranscriptDir())
	require.Equal(t, dir, cfg.BaseDir())

	require.NotNil(t, cfg.LLM.Value)
	require.Equal(t, "https://example.com/v1", cfg.LLM.Value.BaseURL)
	require.Equal(t, "sk-test", cfg.LLM.Value.APIKey, "credential comes from the environment")
}

func TestLoadInlinePersona(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")

	dir := t.TempDir()
	mainPath := filepath.Join(dir, "promptrun.yaml")
	writeFile(t, mainPath, `
Prompt:
  Persona: "You are a friendly assistant."
`)

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env, "env defaults to dev")
	require.Empty(t, cfg.TemplatePath())
	require.Equal(t, "You are a friendly assistant.", cfg.Prompt.Persona)
}

func TestValidate(t *testing.T) {
	t.Run("bad env", func(t *testing.T) {
		cfg := &Config{Env: "staging", Prompt: PromptConf{Persona: "p"}}
		require.Error(t, cfg.Validate())
	})

	t.Run("missing persona", func(t *testing.T) {
		cfg := &Config{Env: "dev"}
		require.Error(t, cfg.Validate())
	})

	t.Run("transcripts enabled without dir", func(t *testing.T) {
		cfg := &Config{
			Env:        "dev",
			Prompt:     PromptConf{Persona: "p"},
			Transcript: TranscriptConf{Enabled: true},
		}
		require.Error(t, cfg.Validate())
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
