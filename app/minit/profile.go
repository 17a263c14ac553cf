package minit

import (
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"golang.org/x/xerrors"
)

// EnvEnableProfiling turns on cpu and heap profiles under the repo dir;
// a duration value such as "10s" sets the heap snapshot interval.
const EnvEnableProfiling = "BWALLET_PROF"

const (
	cpuProfile   = "bwallet.cpuprof"
	heapProfile  = "bwallet.memprof"
	heapInterval = 30 * time.Second
)

// ProfileIfEnabled starts profiling into dir when BWALLET_PROF is set.
// The returned stop func is always safe to call.
func ProfileIfEnabled(dir string) (func(), error) {
	val := os.Getenv(EnvEnableProfiling)
	if val == "" {
		return func() {}, nil
	}

	every := heapInterval
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		every = d
	}

	return startProfiling(dir, every)
}

func startProfiling(dir string, every time.Duration) (func(), error) {
	cpu, err := os.Create(filepath.Join(dir, cpuProfile))
	if err != nil {
		return nil, xerrors.Errorf("create cpu profile %w", err)
	}

	if err := pprof.StartCPUProfile(cpu); err != nil {
		logger.Warn("start cpu profile failed: ", err)
	}

	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(every)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				if err := writeHeapProfile(filepath.Join(dir, heapProfile)); err != nil {
					logger.Warn("write heap profile failed: ", err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		pprof.StopCPUProfile()
		if err := cpu.Close(); err != nil {
			logger.Warn("close cpu profile failed: ", err)
		}
		// one last snapshot on the way out
		if err := writeHeapProfile(filepath.Join(dir, heapProfile)); err != nil {
			logger.Warn("write heap profile failed: ", err)
		}
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
