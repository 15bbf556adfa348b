package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/auth"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	UserType model.UserType
}

func (id Identity) Is(types ...model.UserType) bool {
	for _, t := range types {
		if id.UserType == t {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// skip auth for these
var open = map[string]bool{
	rpc.FullMethod("Register"):     true,
	rpc.FullMethod("Login"):        true,
	rpc.FullMethod("RefreshToken"): true,
}

func IsOpen(fullMethod string) bool {
	return open[fullMethod]
}

// Authenticate turns a raw bearer token into an Identity.
func Authenticate(raw, secret string) (Identity, error) {
	claims, err := auth.ParseToken(raw, secret)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, UserType: claims.UserType}, nil
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if IsOpen(info.FullMethod) {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimSpace(strings.TrimPrefix(vals[0], "Bearer "))
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		id, err := Authenticate(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		return next(WithIdentity(ctx, id), req)
	}
}
