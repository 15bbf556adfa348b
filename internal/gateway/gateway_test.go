package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/auth"
	"jobgate-appointment-api/internal/middleware"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
)

const secret = "gateway-test-secret"

// fakeService answers a handful of methods and records what it saw.
type fakeService struct {
	rpc.Unimplemented
	caller   middleware.Identity
	cancel   *rpc.CancelAppointmentRequest
	slots    *rpc.ListSlotsRequest
	refresh  string
	loggedIn int
}

func (f *fakeService) Login(_ context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	if req.Password != "testpass123" {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	f.loggedIn++
	return &rpc.AuthResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900, User: &rpc.User{ID: "u1"}}, nil
}

func (f *fakeService) RefreshToken(_ context.Context, req *rpc.RefreshTokenRequest) (*rpc.AuthResponse, error) {
	f.refresh = req.RefreshToken
	return &rpc.AuthResponse{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (f *fakeService) GetProfile(ctx context.Context, _ *rpc.Empty) (*rpc.User, error) {
	id, _ := middleware.IdentityFrom(ctx)
	f.caller = id
	return &rpc.User{ID: id.UserID, UserType: string(id.UserType)}, nil
}

func (f *fakeService) ListSlots(_ context.Context, req *rpc.ListSlotsRequest) (*rpc.ListSlotsResponse, error) {
	f.slots = req
	return &rpc.ListSlotsResponse{Slots: []*rpc.Slot{}}, nil
}

func (f *fakeService) CancelAppointment(_ context.Context, req *rpc.CancelAppointmentRequest) (*rpc.Appointment, error) {
	f.cancel = req
	return &rpc.Appointment{ID: req.ID, Status: "cancelled"}, nil
}

func (f *fakeService) DeleteSlot(context.Context, *rpc.IDRequest) (*rpc.Empty, error) {
	return &rpc.Empty{}, nil
}

func (f *fakeService) CreateSlot(context.Context, *rpc.Slot) (*rpc.Slot, error) {
	st := status.New(codes.InvalidArgument, "end_time must be HH:MM")
	st, _ = st.WithDetails(&errdetails.BadRequest{FieldViolations: []*errdetails.BadRequest_FieldViolation{
		{Field: "end_time", Description: "end_time must be HH:MM"},
	}})
	return nil, st.Err()
}

func (f *fakeService) ExportAppointments(context.Context, *rpc.ExportRequest) (*rpc.File, error) {
	return &rpc.File{Filename: "appointments.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")}, nil
}

func (f *fakeService) BookAppointment(context.Context, *rpc.BookAppointmentRequest) (*rpc.Appointment, error) {
	return nil, status.Error(codes.FailedPrecondition, "slot is fully booked")
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, svc rpc.Service, rl *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(Deps{Service: svc, Secret: secret, Limiter: rl, Version: "test", DB: pinger{}})
}

func token(t *testing.T, typ model.UserType) string {
	t.Helper()
	tok, err := auth.MakeToken("u-"+string(typ), typ, secret)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r := newRouter(t, &fakeService{}, nil)
	rec := do(r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "up", resp.DB)
	assert.Equal(t, "disabled", resp.Redis)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(Deps{Service: &fakeService{}, DB: pinger{err: errors.New("refused")}, Redis: pinger{}})
	rec := do(r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"up"`)
}

func TestRequestIDEchoed(t *testing.T) {
	r := newRouter(t, &fakeService{}, nil)
	rec := do(r, http.MethodGet, "/api/health", "", map[string]string{"X-Request-Id": "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestLoginSetsCookies(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc, nil)

	rec := do(r, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"testpass123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "access_token")
	require.Contains(t, cookies, "refresh_token")
	assert.True(t, cookies["access_token"].HttpOnly)
	assert.Equal(t, "access", cookies["access_token"].Value)
	assert.Equal(t, "/api/auth", cookies["refresh_token"].Path)

	rec = do(r, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}

func TestRefreshFromCookie(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc, nil)

	rec := do(r, http.MethodPost, "/api/auth/refresh", "", map[string]string{"Cookie": "refresh_token=from-cookie"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "from-cookie", svc.refresh)

	rec = do(r, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"from-body"}`, map[string]string{"Cookie": "refresh_token=from-cookie"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-body", svc.refresh)
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(t, &fakeService{}, nil)

	rec := do(r, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodGet, "/api/users/profile", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHeaderAndCookie(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc, nil)

	rec := do(r, http.MethodGet, "/api/users/profile", "", map[string]string{"Authorization": "Bearer " + token(t, model.UserTalent)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-talent", svc.caller.UserID)
	assert.Equal(t, model.UserTalent, svc.caller.UserType)

	rec = do(r, http.MethodGet, "/api/users/profile", "", map[string]string{"Cookie": "access_token=" + token(t, model.UserAdmin)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.UserAdmin, svc.caller.UserType)
}

func TestQueryAndPathBinding(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc, nil)
	hdr := map[string]string{"Authorization": "Bearer " + token(t, model.UserUniversityStaff)}

	rec := do(r, http.MethodGet, "/api/appointments/slots?agenda_id=4&status=available&date_from=2026-03-01", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.slots)
	assert.Equal(t, int64(4), svc.slots.AgendaID)
	assert.Equal(t, "available", svc.slots.Status)
	assert.Equal(t, "2026-03-01", svc.slots.DateFrom)

	// the path id wins over the body
	rec = do(r, http.MethodPost, "/api/appointments/17/cancel", `{"id":99,"reason":"sick"}`, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(17), svc.cancel.ID)
	assert.Equal(t, "sick", svc.cancel.Reason)

	rec = do(r, http.MethodPost, "/api/appointments/17/cancel", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPost, "/api/appointments/17/cancel", `{bad`, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodDelete, "/api/appointments/slots/3", "", hdr)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	r := newRouter(t, &fakeService{}, nil)
	hdr := map[string]string{"Authorization": "Bearer " + token(t, model.UserUniversityStaff)}

	rec := do(r, http.MethodPost, "/api/appointments/slots", `{"agenda_id":1}`, hdr)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"end_time must be HH:MM","fields":{"end_time":"end_time must be HH:MM"}}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/api/appointments/agendas", "", hdr)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(r, http.MethodPost, "/api/appointments/book", `{"calendar_slot":1}`, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"slot is fully booked"}`, rec.Body.String())
}

func TestHTTPStatus(t *testing.T) {
	tests := map[codes.Code]int{
		codes.InvalidArgument:   http.StatusBadRequest,
		codes.Unauthenticated:   http.StatusUnauthorized,
		codes.PermissionDenied:  http.StatusForbidden,
		codes.NotFound:          http.StatusNotFound,
		codes.AlreadyExists:     http.StatusConflict,
		codes.ResourceExhausted: http.StatusTooManyRequests,
		codes.Internal:          http.StatusInternalServerError,
		codes.DataLoss:          http.StatusInternalServerError,
	}
	for c, want := range tests {
		assert.Equal(t, want, HTTPStatus(c), c.String())
	}
}

func TestDownload(t *testing.T) {
	r := newRouter(t, &fakeService{}, nil)
	hdr := map[string]string{"Authorization": "Bearer " + token(t, model.UserAdmin)}

	rec := do(r, http.MethodGet, "/api/appointments/export?status=completed", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="appointments.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2)
	t.Cleanup(rl.Close)
	r := newRouter(t, &fakeService{}, rl)

	body := `{"email":"a@b.com","password":"testpass123"}`
	for i := 0; i < 2; i++ {
		rec := do(r, http.MethodPost, "/api/auth/login", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(r, http.MethodPost, "/api/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// unrelated routes share nothing with the limiter
	rec = do(r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(rl.Close)
	r := newRouter(t, &fakeService{}, rl)

	body := `{"email":"a@b.com","password":"testpass123"}`
	got := make([]int, 0, 5)
	for i := 1; i <= 5; i++ {
		rec := do(r, http.MethodPost, "/api/auth/login", body,
			map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i)})
		got = append(got, rec.Code)
	}
	assert.Equal(t, []int{200, 429, 429, 429, 429}, got)
}

func TestRateLimitTrustedProxy(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(rl.Close)
	gin.SetMode(gin.TestMode)
	// httptest requests come from 192.0.2.1
	r := New(Deps{Service: &fakeService{}, Secret: secret, Limiter: rl, DB: pinger{},
		TrustedProxies: []string{"192.0.2.0/24"}})

	body := `{"email":"a@b.com","password":"testpass123"}`
	from := func(ip string) int {
		return do(r, http.MethodPost, "/api/auth/login", body, map[string]string{"X-Forwarded-For": ip}).Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", retryAfter(0))
	assert.Equal(t, "1", retryAfter(200*time.Millisecond))
	assert.Equal(t, "3", retryAfter(2500*time.Millisecond))
}
