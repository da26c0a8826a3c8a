// Package grpcx adapts wombat's cross-cutting building blocks (auth, rate
// limiting, IP blocking, recovery) to gRPC server interceptors, so a service
// exposing both HTTP and gRPC can share one configuration.
package grpcx

import (
	"context"

	"google.golang.org/grpc"
)

// ChainUnary composes unary interceptors into a single one, folding them
// around the handler right to left so the first interceptor runs first —
// the same fold wombat.Chain uses for middleware. An empty slice returns
// nil, meaning no interceptor at all.
func ChainUnary(interceptors []grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		next := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			ic, wrapped := interceptors[i], next
			next = func(ctx context.Context, req any) (any, error) {
				return ic(ctx, req, info, wrapped)
			}
		}
		return next(ctx, req)
	}
}

// ChainStream composes stream interceptors into a single one, with the same
// right-to-left fold and nil-on-empty behavior as [ChainUnary].
func ChainStream(interceptors []grpc.StreamServerInterceptor) grpc.StreamServerInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		next := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			ic, wrapped := interceptors[i], next
			next = func(srv any, ss grpc.ServerStream) error {
				return ic(srv, ss, info, wrapped)
			}
		}
		return next(srv, ss)
	}
}
