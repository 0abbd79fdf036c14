package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwrk-planet/messenger/config"
	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/pg"
	"github.com/cwrk-planet/messenger/internal/presence"
	"github.com/cwrk-planet/messenger/internal/repository/postgres"
	"github.com/cwrk-planet/messenger/internal/roomctx"
	"github.com/cwrk-planet/messenger/internal/security"
	"github.com/cwrk-planet/messenger/internal/service"
	grpcx "github.com/cwrk-planet/messenger/internal/transport/grpc"
	httpx "github.com/cwrk-planet/messenger/internal/transport/http"
	"github.com/cwrk-planet/messenger/internal/transport/ws"
	"github.com/cwrk-planet/messenger/pkg/logger"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	// без экспортёра: провайдер только раздаёт trace/span id для логов
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	slog.Info("starting messenger",
		slog.String("env", cfg.Logging.Env), slog.String("version", cfg.Logging.Version))

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:               cfg.Postgres.DSN,
		MaxConns:          cfg.Postgres.MaxConns,
		MinConns:          cfg.Postgres.MinConns,
		MaxConnLifetime:   cfg.Postgres.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Postgres.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Postgres.HealthCheckPeriod,
		ApplicationName:   cfg.Postgres.ApplicationName,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- redis (опционально) ---
	var c cache.Cache = cache.Nop{}
	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisCache(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		c = rc
		slog.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr))
	}
	defer c.Close()

	// --- repos ---
	pgRepos := postgres.NewRepos(pool)
	repos := service.Repos{
		Users:    pgRepos.Users,
		Chats:    pgRepos.Chats,
		Groups:   pgRepos.Groups,
		Channels: pgRepos.Channels,
		Messages: pgRepos.Messages,
		Follows:  pgRepos.Follows,
		Posts:    pgRepos.Posts,
	}

	// --- services ---
	jwtCfg := cfg.Security.JWT
	signer := security.NewTokenSigner(jwtCfg.Secret, jwtCfg.Issuer, jwtCfg.AccessTTL, jwtCfg.ClockSkew)
	passPolicy := security.PasswordPolicy{
		Cost:           cfg.Security.Password.BcryptCost,
		MinLength:      cfg.Security.Password.MinLength,
		MinEntropyBits: cfg.Security.Password.MinEntropyBits,
	}

	authSvc := service.NewAuthService(repos.Users, signer, passPolicy, c, nil)
	socialSvc := service.NewSocialService(repos, c, nil)
	chatSvc := service.NewChatService(repos, c)
	msgSvc := service.NewMessageService(repos, c, nil)
	channelSvc := service.NewChannelService(repos, c, nil)

	// --- realtime ---
	disp := ws.NewDispatcher(
		ws.NewHub(),
		presence.NewRegistry[ws.Conn](),
		roomctx.NewTracker(),
		msgSvc,
		chatSvc,
		cfg.WS.EventTimeout,
	)
	wsServer := ws.NewServer(disp, authSvc, ws.Options{
		PingEvery:       cfg.WS.PingEvery,
		WriteWait:       cfg.WS.WriteWait,
		ReadLimit:       cfg.WS.ReadLimit,
		EventsPerSecond: cfg.WS.EventsPerSecond,
		EventBurst:      cfg.WS.EventBurst,
		AllowedOrigins:  cfg.HTTP.CORSOrigins,
	})

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, socialSvc, chatSvc, channelSvc, disp)
	router := httpx.NewRouter(httpx.Deps{
		Handler:        handler,
		Auth:           authSvc,
		WS:             wsServer.HandleWS,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC (health) ---
	grpcSrv := grpcx.NewServer(grpcx.Options{Auth: authSvc})

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", slog.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", slog.String("addr", cfg.GRPC.Addr))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", slog.String("sig", sig.String()))
	case err := <-errCh:
		slog.Error("server error", slog.Any("err", err))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	grpcSrv.Shutdown()
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Error("http shutdown failed", slog.Any("err", err))
	}
	slog.Info("stopped")
}
