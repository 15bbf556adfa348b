package middleware_test

import (
	"bytes"
	"context"
	stdlog "log"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/auth"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/middleware"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
)

const secret = "test-secret"

func info(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: rpc.FullMethod(method)}
}

func withBearer(tok string) context.Context {
	md := metadata.New(map[string]string{"authorization": "Bearer " + tok})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestAuthOpenMethods(t *testing.T) {
	ic := middleware.Auth(secret)
	for _, m := range []string{"Register", "Login", "RefreshToken"} {
		called := false
		_, err := ic(context.Background(), nil, info(m), func(ctx context.Context, req any) (any, error) {
			called = true
			return nil, nil
		})
		require.NoError(t, err, m)
		assert.True(t, called, m)
	}
}

func TestAuthRejects(t *testing.T) {
	ic := middleware.Auth(secret)
	other, _ := auth.MakeToken("u1", model.UserTalent, "another-secret")

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"no metadata", context.Background()},
		{"no token", metadata.NewIncomingContext(context.Background(), metadata.MD{})},
		{"garbage", withBearer("not-a-jwt")},
		{"wrong secret", withBearer(other)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ic(tt.ctx, nil, info("ListAppointments"), func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler must not run")
				return nil, nil
			})
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}

func TestAuthSetsIdentity(t *testing.T) {
	tok, err := auth.MakeToken("staff-1", model.UserUniversityStaff, secret)
	require.NoError(t, err)

	var got middleware.Identity
	_, err = middleware.Auth(secret)(withBearer(tok), nil, info("ListSlots"), func(ctx context.Context, req any) (any, error) {
		id, ok := middleware.IdentityFrom(ctx)
		require.True(t, ok)
		got = id
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.UserID)
	assert.True(t, got.Is(model.UserUniversityStaff, model.UserAdmin))
	assert.False(t, got.Is(model.UserTalent))
}

func TestIdentityFromEmpty(t *testing.T) {
	_, ok := middleware.IdentityFrom(context.Background())
	assert.False(t, ok)
	_, ok = middleware.IdentityFrom(middleware.WithIdentity(context.Background(), middleware.Identity{}))
	assert.False(t, ok)
}

func TestRateLimiterAllow(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2)
	defer rl.Close()

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Second)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "keys have separate buckets")
}

func TestRateLimitInterceptor(t *testing.T) {
	rl := middleware.NewRateLimiter(0.1, 1)
	defer rl.Close()
	ic := middleware.RateLimit(rl)

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 1, 1, 1), Port: 5555}})
	next := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	_, err := ic(ctx, nil, info("Login"), next)
	require.NoError(t, err)

	// a different source port is still the same client
	ctx2 := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 1, 1, 1), Port: 6666}})
	_, err = ic(ctx2, nil, info("Login"), next)
	require.Equal(t, codes.ResourceExhausted, status.Code(err))
	retry, ok := middleware.RetryAfter(err)
	require.True(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	// unlimited methods pass through
	for i := 0; i < 5; i++ {
		_, err = ic(ctx, nil, info("ListSlots"), next)
		require.NoError(t, err)
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetLogger(stdlog.New(&buf, "", 0))
	appLog.SetLevel(appLog.LevelDebug)
	t.Cleanup(func() {
		appLog.SetLogger(stdlog.New(os.Stderr, "", 0))
		appLog.SetLevel(appLog.LevelInfo)
	})

	ic := middleware.Logging()
	_, _ = ic(context.Background(), nil, info("GetSlot"), func(ctx context.Context, req any) (any, error) {
		return nil, nil
	})
	_, _ = ic(context.Background(), nil, info("GetSlot"), func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "slot not found")
	})
	_, _ = ic(context.Background(), nil, info("BookAppointment"), func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Internal, "internal error")
	})

	out := buf.String()
	assert.Contains(t, out, "[INFO] rpc method=/jobgate.v1.AppointmentService/GetSlot code=OK")
	assert.Contains(t, out, "[DEBUG] rpc rejected")
	assert.Contains(t, out, "code=NotFound")
	assert.Contains(t, out, "[ERROR] rpc failed")
}
