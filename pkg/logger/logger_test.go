package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cwrk-planet/messenger/pkg/logger"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func captureStdOut(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() {
		os.Stdout = orig
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	if got := logger.DetectEnv(); got != logger.EnvDev {
		t.Fatalf("default should be dev, got %q", got)
	}

	t.Setenv("APP_ENV", "staging")
	if got := logger.DetectEnv(); got != logger.EnvStage {
		t.Fatalf("expected stage, got %q", got)
	}

	t.Setenv("APP_ENV", "Production")
	if got := logger.DetectEnv(); got != logger.EnvProd {
		t.Fatalf("expected prod, got %q", got)
	}

	// APP_ENV важнее ENV, ENV используется как запасной
	t.Setenv("ENV", "stage")
	if got := logger.DetectEnv(); got != logger.EnvProd {
		t.Fatalf("APP_ENV must win, got %q", got)
	}
	t.Setenv("APP_ENV", "")
	if got := logger.DetectEnv(); got != logger.EnvStage {
		t.Fatalf("expected stage from ENV, got %q", got)
	}

	if got := logger.ParseEnv("prdo"); got != logger.EnvDev {
		t.Fatalf("typo must fall back to dev, got %q", got)
	}
}

func TestInit_InstanceIDFromEnv(t *testing.T) {
	t.Setenv("INSTANCE_ID", "messenger-7")
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvProd, Backend: logger.BackendZap, Level: slog.LevelInfo, Output: &buf})
	slog.Info("up")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["instance_id"] != "messenger-7" {
		t.Fatalf("instance_id = %v", m["instance_id"])
	}
	if _, ok := m["pid"]; !ok {
		t.Fatalf("pid missing outside dev: %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logger.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	out := captureStdOut(func() {
		logger.Init(logger.Config{
			Service:   "demo",
			Version:   "v0.0.1",
			Env:       logger.EnvDev,
			Backend:   logger.BackendStd,
			Level:     slog.LevelDebug,
			AddSource: true,
		})
		slog.Info("Hello world")
	})

	if strings.Contains(out, "{") && strings.Contains(out, "}") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	if !strings.Contains(out, "Hello world") {
		t.Fatalf("message missing: %s", out)
	}
	if !strings.Contains(out, "service=demo") {
		t.Fatalf("service attr missing: %s", out)
	}
	if !strings.Contains(out, "env=dev") {
		t.Fatalf("env attr missing: %s", out)
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})
	slog.Info("booted", slog.String("k", "v"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "demo" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: service=%v env=%v version=%v", m["service"], m["env"], m["version"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}

func TestInit_DebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvDev, Backend: logger.BackendStd, Level: slog.LevelInfo, Output: &buf})
	slog.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record must be filtered: %s", buf.String())
	}
}

func TestFromCtx_PropagatesTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	var buf bytes.Buffer
	logger.Init(logger.Config{Service: "demo", Env: logger.EnvDev, Backend: logger.BackendStd, Output: &buf})

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.FromCtx(ctx).InfoContext(ctx, "with trace")
	span.End()

	out := buf.String()
	if !strings.Contains(out, "trace_id="+span.SpanContext().TraceID().String()) {
		t.Fatalf("trace_id missing: %s", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Fatalf("span_id missing: %s", out)
	}
}

func TestAttrsFromCtx_NoSpan(t *testing.T) {
	if attrs := logger.AttrsFromCtx(context.Background()); attrs != nil {
		t.Fatalf("expected no attrs without span, got %v", attrs)
	}
}
