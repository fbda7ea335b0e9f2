package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".pedalcoach")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0o600))
}

func TestRun_InvalidConfigFails(t *testing.T) {
	writeConfig(t, "[athlete]\nftp = -10\n")

	err := run([]string{"patterns"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "athlete.ftp")
}

func TestRun_Help(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.NoError(t, run([]string{"help"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	writeConfig(t, "[database]\npath = \""+filepath.Join(t.TempDir(), "coach.db")+"\"\n\n[logging]\nfile = \""+filepath.Join(t.TempDir(), "coach.log")+"\"\n")

	err := run([]string{"bogus"})
	assert.ErrorContains(t, err, `unknown command "bogus"`)
}
