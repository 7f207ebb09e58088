package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "radial", cfg.Layout.Engine)
	assert.Equal(t, "file", cfg.Cache.Backend)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "mindlayout.toml", `
[layout]
engine = "tree"
width = 1600

[layout.params]
level_spacing = 120

[server]
addr = "127.0.0.1:9000"
read_timeout = "5s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tree", cfg.Layout.Engine)
	assert.Equal(t, 1600.0, cfg.Layout.Width)
	assert.Equal(t, Default().Layout.Height, cfg.Layout.Height, "unset keys keep defaults")
	assert.Equal(t, 120.0, cfg.Layout.Params["level_spacing"])
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "mindlayout.yaml", `
layout:
  engine: force
  params:
    seed: 7
store:
  backend: badger
  path: /tmp/graphs
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "force", cfg.Layout.Engine)
	assert.Equal(t, 7.0, cfg.Layout.Params["seed"])
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "/tmp/graphs", cfg.Store.Path)
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"UnknownTOMLKey", "c.toml", "[layout]\nengin = \"tree\"\n"},
		{"UnknownYAMLKey", "c.yaml", "layout:\n  engin: tree\n"},
		{"BadExtension", "c.json", "{}"},
		{"BadEngine", "c.toml", "[layout]\nengine = \"spiral\"\n"},
		{"NegativeWidth", "c.toml", "[layout]\nwidth = -1\n"},
		{"RedisWithoutAddr", "c.toml", "[cache]\nbackend = \"redis\"\n"},
		{"BadgerWithoutPath", "c.yaml", "store:\n  backend: badger\n"},
		{"MongoWithoutURI", "c.yaml", "store:\n  backend: mongo\n"},
		{"Malformed", "c.toml", "[layout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MINDLAYOUT_ENGINE":        "tree",
		"MINDLAYOUT_WIDTH":         "800",
		"MINDLAYOUT_HEIGHT":        "not-a-number",
		"MINDLAYOUT_STORE_BACKEND": "mongo",
		"MINDLAYOUT_MONGO_URI":     "mongodb://localhost:27017",
	}
	cfg := Default()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "tree", cfg.Layout.Engine)
	assert.Equal(t, 800.0, cfg.Layout.Width)
	assert.Equal(t, Default().Layout.Height, cfg.Layout.Height)
	assert.Equal(t, "mongo", cfg.Store.Backend)
	require.NoError(t, cfg.Validate())
}
