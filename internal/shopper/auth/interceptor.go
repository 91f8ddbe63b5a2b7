package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Interceptor guards the gRPC methods whose full name starts with one of
// the protected prefixes.
type Interceptor struct {
	creds     Credentials
	protected []string
}

// NewAuthInterceptor protects every method of the given services, e.g.
// "/shopper.v1.ShopperService/". The health service stays public.
func NewAuthInterceptor(creds Credentials, services ...string) *Interceptor {
	return &Interceptor{creds: creds, protected: services}
}

func (i *Interceptor) isProtected(fullMethod string) bool {
	for _, prefix := range i.protected {
		if strings.HasPrefix(fullMethod, prefix) {
			return true
		}
	}
	return false
}

// Unary returns a gRPC unary interceptor for credential validation on
// protected methods.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !i.isProtected(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata missing")
		}

		if keys := md.Get(strings.ToLower(APIKeyHeader)); len(keys) > 0 {
			if !i.creds.validAPIKey(keys[0]) {
				return nil, status.Error(codes.Unauthenticated, "invalid api key")
			}
			return handler(context.WithValue(ctx, userContextKey, apiKeySubject), req)
		}

		tokenString, err := extractTokenFromMetadata(md)
		if err != nil {
			return nil, err
		}

		claims, err := validateToken(tokenString, i.creds.JWTSecret)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}

		return handler(context.WithValue(ctx, userContextKey, claims), req)
	}
}

// extractTokenFromMetadata retrieves a Bearer token from gRPC metadata.
func extractTokenFromMetadata(md metadata.MD) (string, error) {
	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization header missing")
	}

	headerValue := authHeaders[0]
	if !strings.HasPrefix(headerValue, "Bearer ") {
		return "", status.Error(codes.Unauthenticated, "invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimPrefix(headerValue, "Bearer ")
	if tokenString == "" {
		return "", status.Error(codes.Unauthenticated, "invalid authorization format: empty token")
	}
	return tokenString, nil
}
