package middleware

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"jobgate-appointment-api/internal/rpc"
)

const (
	sweepEvery = time.Minute
	idleAfter  = 3 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. It is shared by the gRPC
// interceptor and the HTTP gateway.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	stop    chan struct{}
	closed  sync.Once
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Close stops the idle-bucket sweeper.
func (rl *RateLimiter) Close() {
	rl.closed.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	tick := time.NewTicker(sweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-tick.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.lastSeen) > idleAfter {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Allow takes a token for key. When none is left it reports how long until
// the next one.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	res := rl.bucketFor(key).Reserve()
	if !res.OK() {
		return false, time.Second
	}
	if d := res.Delay(); d > 0 {
		res.Cancel()
		return false, d
	}
	return true, 0
}

// methods that should be rate limited
var limited = map[string]bool{
	rpc.FullMethod("Register"):        true,
	rpc.FullMethod("Login"):           true,
	rpc.FullMethod("RefreshToken"):    true,
	rpc.FullMethod("BookAppointment"): true,
}

func IsLimited(fullMethod string) bool {
	return limited[fullMethod]
}

// TooManyRequests builds the ResourceExhausted status with a RetryInfo
// detail.
func TooManyRequests(retry time.Duration) error {
	st := status.New(codes.ResourceExhausted, "too many requests")
	if ds, err := st.WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(retry)}); err == nil {
		st = ds
	}
	return st.Err()
}

// RetryAfter extracts the RetryInfo delay from a status error.
func RetryAfter(err error) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, d := range st.Details() {
		if ri, ok := d.(*errdetails.RetryInfo); ok {
			return ri.GetRetryDelay().AsDuration(), true
		}
	}
	return 0, false
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
		return host
	}
	return p.Addr.String()
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !IsLimited(info.FullMethod) {
			return next(ctx, req)
		}
		if ok, retry := rl.Allow(peerKey(ctx)); !ok {
			return nil, TooManyRequests(retry)
		}
		return next(ctx, req)
	}
}
