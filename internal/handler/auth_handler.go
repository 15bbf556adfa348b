package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/auth"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

const minPassword = 8

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	typ := model.UserType(req.UserType)
	if typ == "" {
		typ = model.UserTalent
	}

	var v violations
	if email == "" || !strings.Contains(email, "@") {
		v.add("email", "valid email required")
	}
	if len(req.Password) < minPassword {
		v.add("password", "password too short")
	}
	// admins are created from the command line only
	if !typ.Valid() || typ == model.UserAdmin {
		v.add("user_type", "invalid user type")
	}
	if req.UniversityID != nil && typ != model.UserUniversityStaff {
		v.add("university_id", "only university staff belong to a university")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if req.UniversityID != nil {
		if _, err := h.store.GetUniversity(ctx, *req.UniversityID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid("university_id", "unknown university")
			}
			return nil, internal("register", err)
		}
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errInternal
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		UserType:     typ,
		Phone:        req.Phone,
		UniversityID: req.UniversityID,
	}
	if err := h.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// dup email or username, but don't reveal which
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, internal("register", err)
	}
	appLog.Info("user registered", "user", u.ID, "type", u.UserType)

	return h.issue(ctx, u)
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	u, err := h.store.UserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, internal("login", err)
		}
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if !u.IsActive {
		return nil, status.Error(codes.PermissionDenied, "account disabled")
	}

	if err := h.store.TouchLastLogin(ctx, u.ID); err != nil {
		appLog.Error("touch last login", err, "user", u.ID)
	} else {
		now := h.now()
		u.LastLogin = &now
	}
	return h.issue(ctx, u)
}

// issue creates a fresh access token and a new refresh token family.
func (h *Handler) issue(ctx context.Context, u *model.User) (*rpc.AuthResponse, error) {
	access, err := auth.MakeToken(u.ID, u.UserType, h.secret)
	if err != nil {
		return nil, errInternal
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, errInternal
	}
	if _, err := h.store.CreateRefreshToken(ctx, u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
		return nil, internal("create refresh token", err)
	}
	return &rpc.AuthResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(auth.AccessTTL / time.Second),
		User:         toUser(u),
	}, nil
}

// RefreshToken swaps a refresh token for a new pair. Each token works once;
// presenting a rotated token again revokes every session of its owner.
func (h *Handler) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, invalid("refresh_token", "refresh token required")
	}

	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, internal("refresh", err)
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if rt.Revoked {
		appLog.Info("revoked refresh token replayed, ending all sessions", "user", rt.UserID)
		if err := h.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			appLog.Error("revoke refresh tokens", err, "user", rt.UserID)
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if !rt.Usable(h.now()) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if err != nil || !u.IsActive {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, errInternal
	}
	if _, err := h.store.RotateRefreshToken(ctx, rt.ID, u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// lost the race against a concurrent refresh with the same token
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, internal("rotate refresh token", err)
	}

	access, err := auth.MakeToken(u.ID, u.UserType, h.secret)
	if err != nil {
		return nil, errInternal
	}
	return &rpc.AuthResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(auth.AccessTTL / time.Second),
		User:         toUser(u),
	}, nil
}

// Logout ends every session of the caller.
func (h *Handler) Logout(ctx context.Context, _ *rpc.LogoutRequest) (*rpc.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.RevokeAllRefreshTokens(ctx, id.UserID); err != nil {
		return nil, internal("logout", err)
	}
	return &rpc.Empty{}, nil
}
