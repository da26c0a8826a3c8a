package grpcx

import (
	"context"
	"net/http"
	"net/textproto"
	"net/url"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/wombatlabs/wombat/auth"
	"github.com/wombatlabs/wombat/policy"
	"github.com/wombatlabs/wombat/ratelimit"
	"github.com/wombatlabs/wombat/security"
)

// Errors are allocated once to avoid per-request allocations on the hot path.
var (
	errRateLimited     = status.Error(codes.ResourceExhausted, "rate limit exceeded")
	errBlocked         = status.Error(codes.PermissionDenied, "blocked")
	errUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")
)

// headerFromMetadata converts incoming gRPC metadata to an http.Header so the
// shared security and auth helpers can read it. Metadata keys are lowercase;
// http.Header lookups expect canonical MIME form.
func headerFromMetadata(md metadata.MD) http.Header {
	h := make(http.Header, len(md))
	for k, vals := range md {
		h[textproto.CanonicalMIMEHeaderKey(k)] = vals
	}
	return h
}

// requestFromMetadata synthesizes an http.Request for the shared AuthFunc.
// gRPC requests travel as HTTP/2 POSTs with the full method as the path, so
// the synthetic request mirrors that.
func requestFromMetadata(ctx context.Context, fullMethod string, md metadata.MD) *http.Request {
	r := &http.Request{
		Method: http.MethodPost,
		URL:    &url.URL{Path: fullMethod},
		Header: headerFromMetadata(md),
	}
	return r.WithContext(ctx)
}

// RecoveryUnary returns a unary server interceptor that recovers from panics
// and returns an Internal gRPC error instead of crashing the process.
func RecoveryUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				resp = nil
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// RecoveryStream returns a stream server interceptor that recovers from panics
// and returns an Internal gRPC error instead of crashing the process.
func RecoveryStream() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

// mustValidResolver panics on an inconsistent rate-limit rule. Interceptor
// constructors run at server setup and cannot return an error; panicking
// there matches how policy.Regex handles an invalid pattern.
func mustValidResolver(r *policy.Resolver) {
	if r == nil {
		return
	}
	if err := r.Validate(); err != nil {
		panic(err)
	}
}

// rateLimitState holds the global limiter, an optional policy resolver, and
// the lazily created per-group limiters.
type rateLimitState struct {
	global   *ratelimit.Limiter
	resolver *policy.Resolver
	groups   *ratelimit.Keyed
}

// limiterFor returns the per-group limiter when the resolver matches
// fullMethod to a group with a RateLimit policy, else the global limiter
// (which may be nil, meaning unlimited).
func (s *rateLimitState) limiterFor(fullMethod string) *ratelimit.Limiter {
	if s.resolver != nil {
		if name, pol, ok := s.resolver.Resolve(http.MethodPost, fullMethod); ok && pol != nil && pol.RateLimit != nil {
			rl := pol.RateLimit
			return s.groups.Get(name, float64(rl.Rate)/rl.Window.Seconds(), rl.Rate)
		}
	}
	return s.global
}

func (s *rateLimitState) allow(fullMethod string) bool {
	l := s.limiterFor(fullMethod)
	return l == nil || l.Allow()
}

// RateLimitUnary returns a unary server interceptor that rejects requests when
// the applicable rate limiter has been exhausted. When a policy resolver is
// provided and the method matches a group with a RateLimit rule, that
// per-group limiter is used; otherwise the global limiter applies.
func RateLimitUnary(l *ratelimit.Limiter, r *policy.Resolver) grpc.UnaryServerInterceptor {
	mustValidResolver(r)
	st := &rateLimitState{global: l, resolver: r, groups: ratelimit.NewKeyed()}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !st.allow(info.FullMethod) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}

// RateLimitStream returns a stream server interceptor that rejects requests
// when the applicable rate limiter has been exhausted.
func RateLimitStream(l *ratelimit.Limiter, r *policy.Resolver) grpc.StreamServerInterceptor {
	mustValidResolver(r)
	st := &rateLimitState{global: l, resolver: r, groups: ratelimit.NewKeyed()}
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if !st.allow(info.FullMethod) {
			return errRateLimited
		}
		return handler(srv, ss)
	}
}

// evaluatePeer runs the IPBlocker against the transport peer and the
// forwarding headers carried in metadata.
func evaluatePeer(ctx context.Context, b *security.IPBlocker) bool {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return false
	}
	md, _ := metadata.FromIncomingContext(ctx)
	return b.Evaluate(p.Addr.String(), headerFromMetadata(md))
}

// IPBlockUnary returns a unary server interceptor that denies requests when
// the IPBlocker's Evaluate method returns false for the peer address.
func IPBlockUnary(b *security.IPBlocker) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !evaluatePeer(ctx, b) {
			return nil, errBlocked
		}
		return handler(ctx, req)
	}
}

// IPBlockStream returns a stream server interceptor that denies requests when
// the IPBlocker's Evaluate method returns false for the peer address.
func IPBlockStream(b *security.IPBlocker) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if !evaluatePeer(ss.Context(), b) {
			return errBlocked
		}
		return handler(srv, ss)
	}
}

// authError returns the original error if it is already a gRPC status error,
// otherwise wraps it as codes.Unauthenticated.
func authError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return errUnauthenticated
}

// AuthUnary returns a unary server interceptor that calls the supplied
// AuthFunc before forwarding to the handler. The same AuthFunc used for HTTP
// works here; credentials are read from metadata.
func AuthUnary(fn auth.AuthFunc) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		newCtx, err := fn(ctx, requestFromMetadata(ctx, info.FullMethod, md))
		if err != nil {
			return nil, authError(err)
		}
		if newCtx == nil {
			newCtx = ctx
		}
		return handler(newCtx, req)
	}
}

// AuthStream returns a stream server interceptor that calls the supplied
// AuthFunc before forwarding to the handler.
func AuthStream(fn auth.AuthFunc) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := ss.Context()
		md, _ := metadata.FromIncomingContext(ctx)
		if _, err := fn(ctx, requestFromMetadata(ctx, info.FullMethod, md)); err != nil {
			return authError(err)
		}
		return handler(srv, ss)
	}
}
