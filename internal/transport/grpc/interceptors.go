package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/pkg/logger"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	mdAuthorization = "authorization"
	tracerName      = "github.com/cwrk-planet/messenger/grpc"

	defaultDeadline = 10 * time.Second
)

// Unary logging + recovery + timeout guard (если у вызова нет deadline)
func UnaryServerInterceptor(deadline time.Duration) grpc.UnaryServerInterceptor {
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deadline)
			defer cancel()
		}
		// span нужен, чтобы trace_id попал в логи вызова
		ctx, span := otel.Tracer(tracerName).Start(ctx, info.FullMethod)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				logger.FromCtx(ctx).Error("grpc unary panic",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			logger.FromCtx(ctx).Debug("grpc unary",
				slog.String("method", info.FullMethod),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
				slog.String("err", errString(err)))
		}()

		resp, err = handler(ctx, req)
		return resp, ToStatus(err)
	}
}

func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("grpc stream panic",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			slog.Debug("grpc stream",
				slog.String("method", info.FullMethod),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
				slog.String("err", errString(err)))
		}()

		return ToStatus(handler(srv, ss))
	}
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserSummary, error)
}

type userKey struct{}

// UnaryAuthInterceptor требует authorization: Bearer <jwt> в metadata.
// Методы с префиксом из public пропускаются без проверки (health).
func UnaryAuthInterceptor(auth Authenticator, public ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, p := range public {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}
		token, err := tokenFromMD(ctx)
		if err != nil {
			return nil, err
		}
		u, err := auth.Authenticate(ctx, token)
		if err != nil {
			return nil, ToStatus(err)
		}
		return handler(context.WithValue(ctx, userKey{}, u), req)
	}
}

func UserFromCtx(ctx context.Context) (domain.UserSummary, bool) {
	u, ok := ctx.Value(userKey{}).(domain.UserSummary)
	return u, ok
}

func tokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	auth := first(md.Get(mdAuthorization))
	if auth == "" {
		return "", status.Error(codes.Unauthenticated, "missing authorization")
	}
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") || len(auth) <= 7 {
		return "", status.Error(codes.Unauthenticated, "invalid authorization")
	}
	return strings.TrimSpace(auth[7:]), nil
}

// ToStatus переводит доменную ошибку в gRPC status; уже готовый status не трогает.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var c codes.Code
	switch domain.Code(err) {
	case "not_found":
		c = codes.NotFound
	case "conflict":
		c = codes.AlreadyExists
	case "forbidden":
		c = codes.PermissionDenied
	case "invalid_input":
		c = codes.InvalidArgument
	case "expired", "exhausted":
		c = codes.FailedPrecondition
	case "unauthorized":
		c = codes.Unauthenticated
	default:
		switch err {
		case context.DeadlineExceeded:
			return status.Error(codes.DeadlineExceeded, err.Error())
		case context.Canceled:
			return status.Error(codes.Canceled, err.Error())
		}
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(c, err.Error())
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
