package logger

import (
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// envVars: первый непустой выигрывает; ENV оставлен для docker-compose.
var envVars = []string{"APP_ENV", "ENV"}

func DetectEnv() Env {
	for _, k := range envVars {
		if v := os.Getenv(k); strings.TrimSpace(v) != "" {
			return ParseEnv(v)
		}
	}
	return EnvDev
}

// ParseEnv: неизвестное значение считается dev, чтобы опечатка не включила prod-логирование.
func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod":
		return EnvStage
	default:
		return EnvDev
	}
}

// backend по умолчанию: текст в dev, JSON через zap везде ещё.
func (e Env) backend() Backend {
	if e == EnvDev {
		return BackendStd
	}
	return BackendZap
}
