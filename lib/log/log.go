package log

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogLevel overrides the default level, e.g. BWALLET_LOG_LEVEL=debug
const EnvLogLevel = "BWALLET_LOG_LEVEL"

var (
	mu      sync.Mutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	root    *zap.Logger
	loggers = make(map[string]*zap.SugaredLogger)
	out     = new(sink)
)

func init() {
	if lvl, ok := os.LookupEnv(EnvLogLevel); ok {
		SetLevel(lvl)
	}
	out.set(zapcore.Lock(os.Stderr))
	root = zap.New(newCore(out), zap.AddCaller())
}

// sink is where every logger writes; swapping it redirects loggers
// that are already handed out.
type sink struct {
	ws atomic.Pointer[zapcore.WriteSyncer]
}

func (s *sink) set(ws zapcore.WriteSyncer) {
	s.ws.Store(&ws)
}

func (s *sink) Write(p []byte) (int, error) {
	return (*s.ws.Load()).Write(p)
}

func (s *sink) Sync() error {
	return (*s.ws.Load()).Sync()
}

func newCore(ws zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), ws, level)
}

// Logger returns the named subsystem logger.
func Logger(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	sl, ok := loggers[name]
	if !ok {
		sl = root.Named(name).Sugar()
		loggers[name] = sl
	}
	return sl
}

// SetLevel changes the level of all loggers; unknown names keep the old level.
func SetLevel(lvl string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(lvl))); err != nil {
		return
	}
	level.SetLevel(l)
}

// SetOutputFile tees every logger into a rotating file.
func SetOutputFile(path string, maxSizeMB int) {
	if path == "" {
		return
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}

	out.set(zapcore.NewMultiWriteSyncer(
		zapcore.Lock(os.Stderr),
		zapcore.AddSync(lj),
	))
}
