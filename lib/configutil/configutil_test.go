package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Users    string `json:"users" yaml:"users"`
	Timezone string `json:"timezone" yaml:"timezone"`
	Timeout  int    `json:"timeout" yaml:"timeout"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "aurioncal.json5"), `{
		// base config
		users: "a;b",
		timezone: "Europe/Paris",
		timeout: 30,
	}`)
	writeFile(t, filepath.Join(dir, "aurioncal.local.json5"), `{ users: "c" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "aurioncal.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{Users: "c", Timezone: "Europe/Paris", Timeout: 30}, cfg)
}

func TestReadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "aurioncal.yaml"), "users: \"x;;y\"\ntimezone: Europe/Paris\n")

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "aurioncal.yaml"))
	require.NoError(t, err)
	require.Equal(t, "x;;y", cfg.Users)
	require.Equal(t, "Europe/Paris", cfg.Timezone)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigUnsupportedExt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "aurioncal.toml"), "users = 'a'")

	_, err := ReadConfig[testConfig](filepath.Join(dir, "aurioncal.toml"))
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}
