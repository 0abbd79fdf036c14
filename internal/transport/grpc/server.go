package grpcx

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName: под этим именем сервис отвечает в grpc.health.v1.
const ServiceName = "messenger"

const healthPrefix = "/grpc.health.v1.Health/"

type Options struct {
	Deadline time.Duration
	Auth     Authenticator // nil: без проверки токена
}

// Server: ops-листенер: health и общий набор интерсепторов.
type Server struct {
	srv    *grpc.Server
	health *health.Server
}

func NewServer(opts Options) *Server {
	unary := []grpc.UnaryServerInterceptor{UnaryServerInterceptor(opts.Deadline)}
	if opts.Auth != nil {
		unary = append(unary, UnaryAuthInterceptor(opts.Auth, healthPrefix))
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{srv: srv, health: hs}
}

// GRPC отдаёт внутренний *grpc.Server для регистрации дополнительных сервисов.
func (s *Server) GRPC() *grpc.Server { return s.srv }

func (s *Server) Serve(lis net.Listener) error { return s.srv.Serve(lis) }

// Shutdown сначала переводит health в NOT_SERVING, чтобы балансировщик успел снять трафик.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
