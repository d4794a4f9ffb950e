package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/psychoney/quant-qmt-proxy/pkg/auth"
)

// authInterceptor checks the "authorization: Bearer <key>" metadata
// entry against allow, the gRPC twin of pkg/api's requireAuth
// middleware (grounded on the teacher's pkg/api/interceptor.go unary
// interceptor shape, generalised from read-only filtering to bearer
// auth since spec.md §6 has no read-only-socket concept).
func authInterceptor(allow *auth.Allowlist) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := checkMD(ctx, allow); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func authStreamInterceptor(allow *auth.Allowlist) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkMD(ss.Context(), allow); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkMD(ctx context.Context, allow *auth.Allowlist) error {
	md, _ := metadata.FromIncomingContext(ctx)
	var key string
	if vals := md.Get("authorization"); len(vals) > 0 {
		key = stripBearer(vals[0])
	}
	if err := allow.Check(key); err != nil {
		return grpcStatus(err)
	}
	return nil
}

func stripBearer(v string) string {
	const prefix = "Bearer "
	if len(v) > len(prefix) && v[:len(prefix)] == prefix {
		return v[len(prefix):]
	}
	return v
}
