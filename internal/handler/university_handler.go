package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

func (h *Handler) requireAdmin(ctx context.Context) error {
	id, err := caller(ctx)
	if err != nil {
		return err
	}
	if !id.Is(model.UserAdmin) {
		return denied()
	}
	return nil
}

func (h *Handler) ListUniversities(ctx context.Context, req *rpc.ListUniversitiesRequest) (*rpc.ListUniversitiesResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	us, err := h.store.ListUniversities(ctx, req.IncludeInactive && id.Is(model.UserAdmin))
	if err != nil {
		return nil, internal("list universities", err)
	}
	out := make([]*rpc.University, len(us))
	for i := range us {
		out[i] = toUniversity(&us[i])
	}
	return &rpc.ListUniversitiesResponse{Universities: out}, nil
}

func (h *Handler) GetUniversity(ctx context.Context, req *rpc.IDRequest) (*rpc.University, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.store.GetUniversity(ctx, req.ID)
	if err != nil {
		return nil, fromStore("get university", err)
	}
	if !u.IsActive && !id.Is(model.UserAdmin) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return toUniversity(u), nil
}

func validateUniversity(u *model.University) error {
	var v violations
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		v.add("name", "name required")
	}
	if u.ContactEmail != "" && !strings.Contains(u.ContactEmail, "@") {
		v.add("contact_email", "invalid email")
	}
	return v.err()
}

func (h *Handler) CreateUniversity(ctx context.Context, req *rpc.University) (*rpc.University, error) {
	if err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	u := fromUniversity(req)
	if err := validateUniversity(u); err != nil {
		return nil, err
	}
	if err := h.store.CreateUniversity(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "university already exists")
		}
		return nil, internal("create university", err)
	}
	appLog.Info("university created", "university", u.ID, "name", u.Name)
	return toUniversity(u), nil
}

func (h *Handler) UpdateUniversity(ctx context.Context, req *rpc.University) (*rpc.University, error) {
	if err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, invalid("id", "id required")
	}
	u := fromUniversity(req)
	if err := validateUniversity(u); err != nil {
		return nil, err
	}
	if err := h.store.UpdateUniversity(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "university already exists")
		}
		return nil, fromStore("update university", err)
	}
	return toUniversity(u), nil
}

func (h *Handler) DeleteUniversity(ctx context.Context, req *rpc.IDRequest) (*rpc.Empty, error) {
	if err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := h.store.DeactivateUniversity(ctx, req.ID); err != nil {
		return nil, fromStore("delete university", err)
	}
	appLog.Info("university deactivated", "university", req.ID)
	return &rpc.Empty{}, nil
}

func (h *Handler) MyUniversity(ctx context.Context, _ *rpc.Empty) (*rpc.University, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if u.UniversityID == nil {
		return nil, status.Error(codes.NotFound, "no university assigned")
	}
	univ, err := h.store.GetUniversity(ctx, *u.UniversityID)
	if err != nil {
		return nil, fromStore("my university", err)
	}
	return toUniversity(univ), nil
}

func (h *Handler) ListUniversityStaff(ctx context.Context, req *rpc.IDRequest) (*rpc.ListUsersResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if !canManage(u, req.ID) {
		return nil, denied()
	}
	staff, err := h.store.StaffByUniversity(ctx, req.ID)
	if err != nil {
		return nil, internal("list university staff", err)
	}
	return &rpc.ListUsersResponse{Users: toUsers(staff)}, nil
}

func (h *Handler) ListThemes(ctx context.Context, _ *rpc.Empty) (*rpc.ListThemesResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	ts, err := h.store.ListThemes(ctx)
	if err != nil {
		return nil, internal("list themes", err)
	}
	out := make([]*rpc.Theme, len(ts))
	for i := range ts {
		out[i] = toTheme(&ts[i])
	}
	return &rpc.ListThemesResponse{Themes: out}, nil
}

// validColor accepts #RGB and #RRGGBB.
func validColor(s string) bool {
	if (len(s) != 4 && len(s) != 7) || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func (h *Handler) CreateTheme(ctx context.Context, req *rpc.Theme) (*rpc.Theme, error) {
	if err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	t := &model.AppointmentTheme{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ColorCode:   req.ColorCode,
		Icon:        req.Icon,
	}
	var v violations
	if t.Name == "" {
		v.add("name", "name required")
	}
	if t.ColorCode != "" && !validColor(t.ColorCode) {
		v.add("color_code", "color must be a hex code like #1976d2")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := h.store.CreateTheme(ctx, t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "theme already exists")
		}
		return nil, internal("create theme", err)
	}
	return toTheme(t), nil
}
