package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetOutputFile(t *testing.T) {
	lg := Logger("logtest")
	path := filepath.Join(t.TempDir(), "bwallet.log")

	// loggers in use while the output changes
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				lg.Info("busy")
			}
		}()
	}

	SetOutputFile(path, 1)
	wg.Wait()

	lg.Info("after switch")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "after switch")
	require.Contains(t, string(b), "logtest")

	require.Same(t, lg, Logger("logtest"))
}
