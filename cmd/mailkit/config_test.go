package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	require.Equal(t, "templates", cfg.Templates)
	require.Equal(t, engineGoTemplate, cfg.Engine)
	require.Equal(t, ":8025", cfg.Serve.Addr)
	require.Equal(t, 10*time.Second, cfg.Serve.ShutdownTimeout)
	require.Equal(t, "us-east-1", cfg.S3.Region)

	_, set, err := cfg.fixNewlines()
	require.NoError(t, err)
	require.False(t, set)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mailkit.yaml")
	writeFile(t, path, `
templates: ./mail
engine: markdown
layout: layout.html
fix_newlines: "false"
log:
  level: debug
serve:
  addr: 127.0.0.1:9000
  reload: "@every 1m"
s3:
  bucket: assets
  path_style: true
`)

	cfg, err := loadConfig(newViper(), path)
	require.NoError(t, err)
	require.Equal(t, "./mail", cfg.Templates)
	require.Equal(t, engineMarkdown, cfg.Engine)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
	require.Equal(t, "@every 1m", cfg.Serve.Reload)
	require.Equal(t, "assets", cfg.S3.Bucket)
	require.True(t, cfg.S3.PathStyle)

	fix, set, err := cfg.fixNewlines()
	require.NoError(t, err)
	require.True(t, set)
	require.False(t, fix)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("MAILKIT_ENGINE", "fasttmpl")
	t.Setenv("MAILKIT_CID_DOMAIN", "mail.example.com")
	t.Setenv("MAILKIT_S3_BUCKET", "from-env")

	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	require.Equal(t, engineFast, cfg.Engine)
	require.Equal(t, "mail.example.com", cfg.CIDDomain)
	require.Equal(t, "from-env", cfg.S3.Bucket)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "engine", content: "engine: jinja\n"},
		{name: "layout without markdown", content: "layout: l.html\n"},
		{name: "fix newlines", content: "fix_newlines: sometimes\n"},
		{name: "empty templates", content: "templates: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "mailkit.yaml")
			writeFile(t, path, tt.content)
			_, err := loadConfig(newViper(), path)
			require.ErrorIs(t, err, errInvalidConfig)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()

		_, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestReadData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "d.json"), `{"name":"Alice"}`)
	writeFile(t, filepath.Join(dir, "d.yaml"), "name: Bob\n")
	writeFile(t, filepath.Join(dir, "d.toml"), "name = 1\n")

	data, err := readData("")
	require.NoError(t, err)
	require.Nil(t, data)

	data, err = readData(filepath.Join(dir, "d.json"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Alice"}, data)

	data, err = readData(filepath.Join(dir, "d.yaml"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Bob"}, data)

	_, err = readData(filepath.Join(dir, "d.toml"))
	require.Error(t, err)
}
