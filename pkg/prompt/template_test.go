package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
)

func TestTemplateRender(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "persona.tmpl")
	err := os.WriteFile(templatePath, []byte("You are an expert in {{ toLower .Domain }}."), 0o600)
	assert.NoError(t, err, "write template should succeed")

	funcs := template.FuncMap{
		"toLower": strings.ToLower,
	}
	tpl, err := Load(templatePath, funcs)
	assert.NoError(t, err, "Load should not error")
	assert.NotNil(t, tpl, "template should not be nil")
	assert.Equal(t, "persona.tmpl", tpl.Name())

	out, err := tpl.Render(map[string]any{"Domain": "Accounting"})
	assert.NoError(t, err, "Render should not error")
	assert.Equal(t, "You are an expert in accounting.", out)
}

func TestTemplateFromString(t *testing.T) {
	tpl, err := FromString("", "You are a friendly assistant.")
	assert.NoError(t, err, "FromString should not error")
	assert.Equal(t, "inline", tpl.Name())

	out, err := tpl.Render(nil)
	assert.NoError(t, err, "Render should not error")
	assert.Equal(t, "You are a friendly assistant.", out)
	assert.Equal(t, DigestString("You are a friendly assistant."), tpl.Digest())

	assert.Error(t, tpl.Reload(), "inline template cannot be reloaded from disk")

	_, err = FromString("empty", "")
	assert.Error(t, err, "empty text should be rejected")
}

func TestTemplateReload(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "reload.tmpl")
	err := os.WriteFile(templatePath, []byte("v1"), 0o600)
	assert.NoError(t, err, "write template should succeed")

	tpl, err := Load(templatePath, nil)
	assert.NoError(t, err, "Load should not error")

	out, err := tpl.Render(nil)
	assert.NoError(t, err, "Render should not error")
	assert.Equal(t, "v1", out)

	digestV1 := tpl.Digest()
	assert.NotEmpty(t, digestV1, "digest should not be empty")

	err = os.WriteFile(templatePath, []byte("v2"), 0o600)
	assert.NoError(t, err, "rewrite template should succeed")

	assert.NoError(t, tpl.Reload(), "Reload should not error")

	out, err = tpl.Render(nil)
	assert.NoError(t, err, "Render after reload should not error")
	assert.Equal(t, "v2", out)
	assert.NotEqual(t, digestV1, tpl.Digest(), "digest should change after reload")
}
