package rpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"jobgate-appointment-api/internal/rpc"
)

type fakeService struct {
	rpc.Unimplemented
}

func (fakeService) Login(_ context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	if req.Password != "testpass123" {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	return &rpc.AuthResponse{
		AccessToken: "tok",
		ExpiresIn:   900,
		User:        &rpc.User{ID: "u1", Email: req.Email, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}, nil
}

func (fakeService) GetSlot(_ context.Context, req *rpc.IDRequest) (*rpc.Slot, error) {
	return &rpc.Slot{ID: req.ID, SlotDate: "2026-03-10", StartTime: "09:00", EndTime: "09:30", MaxCapacity: 3}, nil
}

func dial(t *testing.T, interceptor grpc.UnaryServerInterceptor) *rpc.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	var opts []grpc.ServerOption
	if interceptor != nil {
		opts = append(opts, grpc.UnaryInterceptor(interceptor))
	}
	srv := grpc.NewServer(opts...)
	rpc.RegisterService(srv, fakeService{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return rpc.NewClient(conn)
}

func TestJSONRoundTrip(t *testing.T) {
	c := dial(t, nil)

	resp, err := c.Login(context.Background(), &rpc.LoginRequest{Email: "a@b.com", Password: "testpass123"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.True(t, resp.User.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	slot, err := c.GetSlot(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), slot.ID)
	assert.Equal(t, "09:00", slot.StartTime)
}

func TestStatusPassesThrough(t *testing.T) {
	c := dial(t, nil)

	_, err := c.Login(context.Background(), &rpc.LoginRequest{Email: "a@b.com", Password: "nope"})
	s, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, s.Code())
	assert.Equal(t, "invalid credentials", s.Message())
}

func TestUnimplemented(t *testing.T) {
	c := dial(t, nil)

	_, err := c.ListThemes(context.Background())
	s, _ := status.FromError(err)
	assert.Equal(t, codes.Unimplemented, s.Code())
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen string
	c := dial(t, func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return next(ctx, req)
	})

	_, err := c.GetSlot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/jobgate.v1.AppointmentService/GetSlot", seen)
	assert.Equal(t, seen, rpc.FullMethod("GetSlot"))
}

func TestServiceDescCoversInterface(t *testing.T) {
	names := map[string]bool{}
	for _, m := range rpc.ServiceDesc.Methods {
		assert.False(t, names[m.MethodName], "duplicate method %s", m.MethodName)
		names[m.MethodName] = true
	}
	assert.Len(t, names, 44)
}
