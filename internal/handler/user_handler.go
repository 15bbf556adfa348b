package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

func validTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func (h *Handler) GetProfile(ctx context.Context, _ *rpc.Empty) (*rpc.User, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	return toUser(u), nil
}

func (h *Handler) UpdateProfile(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.User, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Timezone != nil {
		if !validTimezone(*req.Timezone) {
			return nil, invalid("timezone", "unknown timezone")
		}
		u.Timezone = *req.Timezone
	}

	if err := h.store.UpdateUser(ctx, u); err != nil {
		return nil, fromStore("update profile", err)
	}
	return toUser(u), nil
}

func (h *Handler) GetPreferences(ctx context.Context, _ *rpc.Empty) (*rpc.Preferences, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := h.store.Preferences(ctx, id.UserID)
	if err != nil {
		return nil, internal("get preferences", err)
	}
	return toPreferences(p), nil
}

func (h *Handler) UpdatePreferences(ctx context.Context, req *rpc.UpdatePreferencesRequest) (*rpc.Preferences, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := h.store.Preferences(ctx, id.UserID)
	if err != nil {
		return nil, internal("get preferences", err)
	}

	var v violations
	if req.EmailRemindersEnabled != nil {
		p.EmailRemindersEnabled = *req.EmailRemindersEnabled
	}
	if req.Reminder24hEnabled != nil {
		p.Reminder24hEnabled = *req.Reminder24hEnabled
	}
	if req.Reminder1hEnabled != nil {
		p.Reminder1hEnabled = *req.Reminder1hEnabled
	}
	if req.PreferredMeetingType != nil {
		mt := model.MeetingType(*req.PreferredMeetingType)
		if !mt.ValidForSlot() && mt != model.MeetingAny {
			v.add("preferred_meeting_type", "invalid meeting type")
		}
		p.PreferredMeetingType = mt
	}
	if req.Timezone != nil {
		if !validTimezone(*req.Timezone) {
			v.add("timezone", "unknown timezone")
		}
		p.Timezone = *req.Timezone
	}
	if req.Language != nil {
		lang := strings.TrimSpace(*req.Language)
		if lang == "" || len(lang) > 10 {
			v.add("language", "invalid language")
		}
		p.Language = lang
	}
	if req.NotificationPreferences != nil {
		p.NotificationPreferences = req.NotificationPreferences
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := h.store.UpdatePreferences(ctx, p); err != nil {
		return nil, internal("update preferences", err)
	}
	return toPreferences(p), nil
}

// ListUsers is for staff and admins. Staff only ever see their own
// university's users.
func (h *Handler) ListUsers(ctx context.Context, req *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(u) && !isAdmin(u) {
		return nil, denied()
	}

	f := store.UserFilter{Type: model.UserType(req.UserType), UniversityID: req.UniversityID, ActiveOnly: true}
	if f.Type != "" && !f.Type.Valid() {
		return nil, invalid("user_type", "invalid user type")
	}
	if isStaff(u) {
		univ, err := universityOf(u)
		if err != nil {
			return nil, err
		}
		if f.UniversityID != 0 && f.UniversityID != univ {
			return nil, status.Error(codes.PermissionDenied, "other universities are not visible")
		}
		f.UniversityID = univ
	}

	users, err := h.store.ListUsers(ctx, f)
	if err != nil {
		return nil, internal("list users", err)
	}
	return &rpc.ListUsersResponse{Users: toUsers(users)}, nil
}
