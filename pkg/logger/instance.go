package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// instanceID различает реплики мессенджера в общем потоке логов.
// В k8s HOSTNAME уже имя пода, суффикс uuid нужен для локальных перезапусков.
func instanceID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("INSTANCE_ID"); v != "" {
		return v
	}
	host := os.Getenv("HOSTNAME")
	if host == "" {
		host, _ = os.Hostname()
	}
	if host == "" {
		host = "messenger"
	}
	return host + "-" + uuid.NewString()[:8]
}

func baseAttrs(cfg Config, startedAt time.Time) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("instance_id", cfg.InstanceID),
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	if cfg.Env != EnvDev {
		// в dev это только шум в каждой строке
		attrs = append(attrs, slog.Int("pid", os.Getpid()), slog.Time("started_at", startedAt))
	}
	return attrs
}
