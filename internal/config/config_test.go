package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplitUsers(t *testing.T) {
	require.Equal(t, []string{"12345", "67890", "42"}, SplitUsers("12345;67890;; ;42;"))
	require.Nil(t, SplitUsers(""))
	require.Nil(t, SplitUsers(" ; ;"))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurioncal.json5")
	err := os.WriteFile(path, []byte(`{
		// trailing commas and comments are fine
		users: "12345;;67890",
		range: { from: "2024-09-01", to: "2025-07-01" },
	}`), 0600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"12345", "67890"}, cfg.UserIDs())
	require.Equal(t, Default().PortalURL, cfg.PortalURL)
	require.Equal(t, Default().Menu, cfg.Menu)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLWithLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurioncal.yaml"), []byte("users: \"1;2\"\ntimezone: Europe/Paris\nmenu:\n  submenu_label: Emplois du temps\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurioncal.local.yaml"), []byte("users: \"3\"\ntimeout_seconds: 5\n"), 0600))

	cfg, err := Load(filepath.Join(dir, "aurioncal.yaml"))
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, cfg.UserIDs())
	require.Equal(t, 5*time.Second, cfg.Timeout())
	require.Equal(t, "Emplois du temps", cfg.MenuLabels().Submenu)
	require.Equal(t, Default().Menu.EntryLabel, cfg.MenuLabels().Entry)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "aurioncal.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestScheduleRange(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	now := time.Date(2024, time.October, 10, 12, 0, 0, 0, paris)

	{
		rng, err := Default().ScheduleRange(now, paris)
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, time.August, 1, 0, 0, 0, 0, paris), rng.Start)
		require.Equal(t, time.Date(2025, time.August, 1, 0, 0, 0, 0, paris), rng.End)
	}
	{
		cfg := Default()
		cfg.Range = RangeConfig{From: "2024-09-01", To: "2025-01-01"}
		rng, err := cfg.ScheduleRange(now, paris)
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, time.September, 1, 0, 0, 0, 0, paris), rng.Start)
		require.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, paris), rng.End)
	}
	{
		cfg := Default()
		cfg.Range = RangeConfig{From: "2025-09-01"}
		_, err := cfg.ScheduleRange(now, paris)
		require.Error(t, err)
	}
	{
		cfg := Default()
		cfg.Range = RangeConfig{To: "01/07/2025"}
		_, err := cfg.ScheduleRange(now, paris)
		require.Error(t, err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Mars/Olympus"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CASURL = ""
	require.Error(t, cfg.Validate())
}
