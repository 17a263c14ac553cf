package minit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileDisabled(t *testing.T) {
	t.Setenv(EnvEnableProfiling, "")
	dir := t.TempDir()

	stop, err := ProfileIfEnabled(dir)
	require.NoError(t, err)
	stop()

	_, err = os.Stat(filepath.Join(dir, cpuProfile))
	require.True(t, os.IsNotExist(err))
}

func TestProfileWritesIntoDir(t *testing.T) {
	t.Setenv(EnvEnableProfiling, "1h")
	dir := t.TempDir()

	stop, err := ProfileIfEnabled(dir)
	require.NoError(t, err)
	stop()

	for _, f := range []string{cpuProfile, heapProfile} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, f)
	}
}
