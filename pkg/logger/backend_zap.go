package logger

import (
	"context"
	"log/slog"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newZapHandler(cfg Config) slog.Handler {
	lvl := cfg.level()

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.AddSource {
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(cfg.Output),
		toZapLevel(lvl),
	)

	// sampling при всплесках (например, шторм reconnect-ов по WS)
	initial := cfg.SampleInitial
	if initial <= 0 {
		initial = 100
	}
	thereafter := cfg.SampleThereafter
	if thereafter <= 0 {
		thereafter = 10
	}
	core = zapcore.NewSamplerWithOptions(core, time.Second, initial, thereafter)

	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return slogzap.Option{
		Level:           lvl,
		Logger:          z,
		AddSource:       cfg.AddSource,
		AttrFromContext: []func(ctx context.Context) []slog.Attr{AttrsFromCtx},
	}.NewZapHandler()
}

func toZapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return zapcore.DebugLevel
	case lvl <= slog.LevelInfo:
		return zapcore.InfoLevel
	case lvl <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
