package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, "name: telenote\n")
	cfg := sample{Port: 8080}
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, sample{Name: "telenote", Port: 8080}, cfg)
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "port: 0\n")
	cfg := sample{Port: 8080}
	err := Load(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port is required")
}

func TestLoadMissingFile(t *testing.T) {
	var cfg sample
	require.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg := sample{Port: 8080}
	require.NoError(t, LoadOptional(missing, &cfg))
	assert.Equal(t, 8080, cfg.Port)

	var empty sample
	require.Error(t, LoadOptional(missing, &empty), "defaults are still validated")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TELENOTE_NAME", "notes")
	t.Setenv("TELENOTE_EMPTY", "")

	assert.Equal(t, "notes", ExpandEnv("${TELENOTE_NAME}"))
	assert.Equal(t, "notes", ExpandEnv("$TELENOTE_NAME"))
	assert.Equal(t, "fallback", ExpandEnv("${TELENOTE_EMPTY:-fallback}"))
	assert.Equal(t, "notes", ExpandEnv("${TELENOTE_NAME:-fallback}"))
	assert.Equal(t, "", ExpandEnv("${TELENOTE_UNSET}"))
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TELENOTE_PORT", "9090")
	path := writeFile(t, "port: ${TELENOTE_PORT}\nname: ${TELENOTE_MISSING:-default}\n")
	var cfg sample
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, sample{Name: "default", Port: 9090}, cfg)
}
