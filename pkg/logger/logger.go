package logger

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	mu  sync.RWMutex
	def *slog.Logger
)

// Init настраивает slog в зависимости от среды и делает его логгером по умолчанию.
func Init(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "messenger"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	cfg.InstanceID = instanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		cfg.Backend = cfg.Env.backend()
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	base := slog.New(h.WithAttrs(baseAttrs(cfg, time.Now())))
	slog.SetDefault(base)

	mu.Lock()
	def = base
	mu.Unlock()

	return base
}

func L() *slog.Logger {
	mu.RLock()
	l := def
	mu.RUnlock()
	if l != nil {
		return l
	}

	return Init(Config{})
}
