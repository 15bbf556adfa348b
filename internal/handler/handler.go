// Package handler implements the AppointmentService operations on top of the
// store. Both the gRPC server and the HTTP gateway call into it.
package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/cache"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/middleware"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/notify"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

// Notifier queues outgoing email. notify.Dispatcher satisfies it.
type Notifier interface {
	Enqueue(notify.Job) bool
}

type Handler struct {
	rpc.Unimplemented
	store  *store.Store
	secret string
	loc    *time.Location
	mail   Notifier
	cache  *cache.Cache
	now    func() time.Time
}

var _ rpc.Service = (*Handler)(nil)

type Option func(*Handler)

// WithLocation sets the zone slot dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.mail = n }
}

func WithCache(c *cache.Cache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func New(st *store.Store, secret string, opts ...Option) *Handler {
	h := &Handler{store: st, secret: secret, loc: time.UTC, now: time.Now}
	for _, o := range opts {
		o(h)
	}
	return h
}

var errInternal = status.Error(codes.Internal, "internal error")

func internal(op string, err error) error {
	appLog.Error(op, err)
	return errInternal
}

// fromStore maps the store sentinels that need no context; anything else is
// logged and hidden.
func fromStore(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, store.ErrInvalid):
		return status.Error(codes.InvalidArgument, "invalid value")
	case errors.Is(err, store.ErrConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	}
	return internal(op, err)
}

func denied() error {
	return status.Error(codes.PermissionDenied, "permission denied")
}

// violations collects field errors into one InvalidArgument status with a
// BadRequest detail. The first description becomes the message.
type violations []*errdetails.BadRequest_FieldViolation

func (v *violations) add(field, desc string) {
	*v = append(*v, &errdetails.BadRequest_FieldViolation{Field: field, Description: desc})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	st := status.New(codes.InvalidArgument, v[0].Description)
	if ds, err := st.WithDetails(&errdetails.BadRequest{FieldViolations: v}); err == nil {
		st = ds
	}
	return st.Err()
}

func invalid(field, desc string) error {
	var v violations
	v.add(field, desc)
	return v.err()
}

func (v *violations) date(field, s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		v.add(field, field+" must be YYYY-MM-DD")
	}
	return d
}

func (v *violations) optDate(field, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	return v.date(field, s)
}

func (v *violations) clock(field, s string) model.Clock {
	c, err := model.ParseClock(s)
	if err != nil {
		v.add(field, field+" must be HH:MM")
	}
	return c
}

func caller(ctx context.Context) (middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok {
		return id, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}

// me loads the calling user. Tokens outlive deactivation by up to the access
// TTL, so the active flag is rechecked here.
func (h *Handler) me(ctx context.Context) (*model.User, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.store.UserByID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "user not found")
	}
	if err != nil {
		return nil, internal("load caller", err)
	}
	if !u.IsActive {
		return nil, status.Error(codes.Unauthenticated, "account disabled")
	}
	return u, nil
}

func isStaff(u *model.User) bool { return u.UserType == model.UserUniversityStaff }
func isAdmin(u *model.User) bool { return u.UserType == model.UserAdmin }

// universityOf returns the university a staff member works for.
func universityOf(u *model.User) (int64, error) {
	if u.UniversityID == nil {
		return 0, status.Error(codes.PermissionDenied, "no university assigned")
	}
	return *u.UniversityID, nil
}

// canManage reports whether u may administer records of the university.
func canManage(u *model.User, universityID int64) bool {
	if isAdmin(u) {
		return true
	}
	return isStaff(u) && u.UniversityID != nil && *u.UniversityID == universityID
}

func (h *Handler) today() time.Time {
	return model.DateOf(h.now().In(h.loc))
}

// invalidate drops cached views touched by a slot or booking write.
func (h *Handler) invalidate(ctx context.Context, agendaID, universityID int64, users ...string) {
	scopes := []string{cache.AgendaScope(agendaID), cache.UniversityScope(universityID)}
	for _, u := range users {
		scopes = append(scopes, cache.UserScope(u))
	}
	if err := h.cache.Bump(ctx, scopes...); err != nil {
		appLog.Error("cache invalidate", err, "agenda", agendaID)
	}
}

func (h *Handler) notify(j notify.Job) {
	if h.mail == nil {
		return
	}
	h.mail.Enqueue(j)
}
