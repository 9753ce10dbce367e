package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	// t.Setenv registers the restore; the vars must be absent, not empty.
	for _, key := range []string{"NETBOX_URL", "NETBOX_TOKEN", "BOXHAUL_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", cfg.URL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NETBOX_URL", "https://netbox.example.com")
	t.Setenv("NETBOX_TOKEN", "sekrit")
	t.Setenv("BOXHAUL_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://netbox.example.com", cfg.URL)
	assert.Equal(t, "sekrit", cfg.Token)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"manufacturers:\n  - Arista\nplatforms:\n  - eos\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arista"}, rules.Manufacturers)
	assert.Equal(t, []string{"eos"}, rules.Platforms)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manufacturers: {oops"), 0o644))
	_, err = LoadRules(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{DataDir: dir, DryRun: true}
	assert.NoError(t, cfg.Validate())

	// Live runs need a token.
	cfg = &Config{DataDir: dir}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DataDir: dir, Token: "t"}
	assert.NoError(t, cfg.Validate())

	// Existence of the directory is checked by the snapshot store, not here.
	cfg = &Config{DataDir: filepath.Join(dir, "missing"), DryRun: true}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{DryRun: true}
	assert.Error(t, cfg.Validate())
}
