package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/calendar"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

const (
	defaultSlotMinutes   = 30
	defaultDeadlineHours = 24
	maxSlotMinutes       = 24 * 60
)

func (h *Handler) ListAgendas(ctx context.Context, req *rpc.ListAgendasRequest) (*rpc.ListAgendasResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	agendas, err := h.store.ListAgendas(ctx, store.AgendaFilter{
		UniversityID: req.UniversityID,
		Search:       strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, internal("list agendas", err)
	}
	agendas = calendar.FilterAgendasByTheme(agendas, req.ThemeID)

	out := make([]*rpc.Agenda, len(agendas))
	for i := range agendas {
		out[i] = toAgenda(&agendas[i])
	}
	return &rpc.ListAgendasResponse{Agendas: out}, nil
}

func (h *Handler) GetAgenda(ctx context.Context, req *rpc.IDRequest) (*rpc.Agenda, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAgenda(ctx, req.ID)
	if err != nil {
		return nil, fromStore("get agenda", err)
	}
	if !a.IsActive && !canManage(u, a.UniversityID) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return toAgenda(a), nil
}

// validateAgenda checks the fields shared by create and update.
func validateAgenda(a *model.Agenda, v *violations) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" || len(a.Name) > 200 {
		v.add("name", "name required, at most 200 characters")
	}
	if a.SlotDurationMinutes < 1 || a.SlotDurationMinutes > maxSlotMinutes {
		v.add("slot_duration_minutes", "slot duration must be between 1 and 1440 minutes")
	}
	if a.MaxCapacityPerSlot < 1 {
		v.add("max_capacity_per_slot", "capacity must be at least 1")
	}
	if a.BookingDeadlineHours < 0 {
		v.add("booking_deadline_hours", "deadline cannot be negative")
	}
	if a.CancellationDeadlineHours < 0 {
		v.add("cancellation_deadline_hours", "deadline cannot be negative")
	}
	if a.EndDate.Before(a.StartDate) {
		v.add("end_date", "end date must be after start date")
		return
	}
	if a.IsRecurring {
		if a.Recurrence.Frequency == "" {
			v.add("recurrence_pattern", "recurring agendas need a frequency")
		} else if _, err := calendar.Expand(a.Recurrence, a.StartDate, a.EndDate); err != nil {
			v.add("recurrence_pattern", err.Error())
		}
	}
}

func (h *Handler) checkTheme(ctx context.Context, id int64, v *violations) error {
	if id == 0 {
		v.add("theme_id", "theme required")
		return nil
	}
	t, err := h.store.GetTheme(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !t.IsActive) {
		v.add("theme_id", "unknown theme")
		return nil
	}
	return err
}

// checkStaffMember verifies staffID is active staff of the university.
func (h *Handler) checkStaffMember(ctx context.Context, staffID string, universityID int64, field string, v *violations) error {
	if staffID == "" {
		v.add(field, "staff member required")
		return nil
	}
	s, err := h.store.UserByID(ctx, staffID)
	if errors.Is(err, store.ErrNotFound) {
		v.add(field, "unknown staff member")
		return nil
	}
	if err != nil {
		return err
	}
	if !s.IsActive || !isStaff(s) || s.UniversityID == nil || *s.UniversityID != universityID {
		v.add(field, "staff member must belong to the agenda's university")
	}
	return nil
}

func (h *Handler) CreateAgenda(ctx context.Context, req *rpc.Agenda) (*rpc.Agenda, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}

	var univ int64
	switch {
	case isAdmin(u):
		if req.UniversityID == 0 {
			return nil, invalid("university_id", "university required")
		}
		univ = req.UniversityID
	case isStaff(u):
		if univ, err = universityOf(u); err != nil {
			return nil, err
		}
		if req.UniversityID != 0 && req.UniversityID != univ {
			return nil, status.Error(codes.PermissionDenied, "agendas can only be created for your own university")
		}
	default:
		return nil, status.Error(codes.PermissionDenied, "only university staff can create agendas")
	}

	a := &model.Agenda{
		UniversityID:              univ,
		CreatedBy:                 u.ID,
		Name:                      req.Name,
		Description:               req.Description,
		ThemeID:                   req.ThemeID,
		SlotDurationMinutes:       req.SlotDurationMinutes,
		MaxCapacityPerSlot:        req.MaxCapacityPerSlot,
		IsRecurring:               req.IsRecurring,
		Recurrence:                fromRecurrence(req.Recurrence),
		BookingDeadlineHours:      req.BookingDeadlineHours,
		CancellationDeadlineHours: req.CancellationDeadlineHours,
	}
	// zero means "not given" on create
	if a.SlotDurationMinutes == 0 {
		a.SlotDurationMinutes = defaultSlotMinutes
	}
	if a.MaxCapacityPerSlot == 0 {
		a.MaxCapacityPerSlot = 1
	}
	if a.BookingDeadlineHours == 0 {
		a.BookingDeadlineHours = defaultDeadlineHours
	}
	if a.CancellationDeadlineHours == 0 {
		a.CancellationDeadlineHours = defaultDeadlineHours
	}

	var v violations
	a.StartDate = v.date("start_date", req.StartDate)
	a.EndDate = v.date("end_date", req.EndDate)
	validateAgenda(a, &v)
	if err := h.checkTheme(ctx, a.ThemeID, &v); err != nil {
		return nil, internal("create agenda", err)
	}
	for _, c := range req.Criteria {
		ct := model.CriteriaType(c.Type)
		if !ct.Valid() || strings.TrimSpace(c.Value) == "" {
			v.add("eligibility_criteria", "invalid criterion")
			break
		}
		a.Criteria = append(a.Criteria, model.EligibilityCriterion{Type: ct, Value: c.Value, IsRequired: c.IsRequired})
	}
	for _, s := range req.Staff {
		role := model.StaffRole(s.Role)
		if role != "" && !role.Valid() {
			v.add("staff_assignments", "invalid role")
			break
		}
		if err := h.checkStaffMember(ctx, s.StaffID, univ, "staff_assignments", &v); err != nil {
			return nil, internal("create agenda", err)
		}
		a.Staff = append(a.Staff, model.StaffAssignment{StaffID: s.StaffID, Role: role, IsPrimary: s.IsPrimary})
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	// staff creators run their own agenda unless they named someone else
	if len(a.Staff) == 0 && isStaff(u) {
		a.Staff = []model.StaffAssignment{{StaffID: u.ID, Role: model.RoleAdvisor, IsPrimary: true}}
	}

	if err := h.store.CreateAgenda(ctx, a); err != nil {
		return nil, fromStore("create agenda", err)
	}
	appLog.Info("agenda created", "agenda", a.ID, "university", univ, "by", u.ID)

	created, err := h.store.GetAgenda(ctx, a.ID)
	if err != nil {
		return nil, internal("reload agenda", err)
	}
	return toAgenda(created), nil
}

// loadManaged fetches an agenda the caller may change.
func (h *Handler) loadManaged(ctx context.Context, u *model.User, id int64) (*model.Agenda, error) {
	a, err := h.store.GetAgenda(ctx, id)
	if err != nil {
		return nil, fromStore("get agenda", err)
	}
	if !canManage(u, a.UniversityID) {
		return nil, status.Error(codes.PermissionDenied, "you can only manage your university's agendas")
	}
	return a, nil
}

func (h *Handler) UpdateAgenda(ctx context.Context, req *rpc.UpdateAgendaRequest) (*rpc.Agenda, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.loadManaged(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}

	var v violations
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.ThemeID != nil && *req.ThemeID != a.ThemeID {
		a.ThemeID = *req.ThemeID
		if err := h.checkTheme(ctx, a.ThemeID, &v); err != nil {
			return nil, internal("update agenda", err)
		}
	}
	if req.SlotDurationMinutes != nil {
		a.SlotDurationMinutes = *req.SlotDurationMinutes
	}
	if req.MaxCapacityPerSlot != nil {
		a.MaxCapacityPerSlot = *req.MaxCapacityPerSlot
	}
	if req.StartDate != nil {
		a.StartDate = v.date("start_date", *req.StartDate)
	}
	if req.EndDate != nil {
		a.EndDate = v.date("end_date", *req.EndDate)
	}
	if req.IsRecurring != nil {
		a.IsRecurring = *req.IsRecurring
	}
	if req.Recurrence != nil {
		a.Recurrence = fromRecurrence(req.Recurrence)
	}
	if req.BookingDeadlineHours != nil {
		a.BookingDeadlineHours = *req.BookingDeadlineHours
	}
	if req.CancellationDeadlineHours != nil {
		a.CancellationDeadlineHours = *req.CancellationDeadlineHours
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	validateAgenda(a, &v)
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := h.store.UpdateAgenda(ctx, a); err != nil {
		return nil, fromStore("update agenda", err)
	}
	h.invalidate(ctx, a.ID, a.UniversityID)

	updated, err := h.store.GetAgenda(ctx, a.ID)
	if err != nil {
		return nil, internal("reload agenda", err)
	}
	return toAgenda(updated), nil
}

func (h *Handler) DeleteAgenda(ctx context.Context, req *rpc.IDRequest) (*rpc.Empty, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.loadManaged(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeactivateAgenda(ctx, a.ID); err != nil {
		return nil, fromStore("delete agenda", err)
	}
	h.invalidate(ctx, a.ID, a.UniversityID)
	appLog.Info("agenda deactivated", "agenda", a.ID, "by", u.ID)
	return &rpc.Empty{}, nil
}

func (h *Handler) AssignAgendaStaff(ctx context.Context, req *rpc.StaffAssignment) (*rpc.StaffAssignment, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.loadManaged(ctx, u, req.AgendaID)
	if err != nil {
		return nil, err
	}

	var v violations
	role := model.StaffRole(req.Role)
	if role != "" && !role.Valid() {
		v.add("role", "role must be advisor, coordinator or assistant")
	}
	if err := h.checkStaffMember(ctx, req.StaffID, a.UniversityID, "staff_id", &v); err != nil {
		return nil, internal("assign staff", err)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	sa := &model.StaffAssignment{StaffID: req.StaffID, Role: role, IsPrimary: req.IsPrimary}
	if err := h.store.AssignStaff(ctx, a.ID, sa); err != nil {
		return nil, fromStore("assign staff", err)
	}
	if staff, err := h.store.UserByID(ctx, sa.StaffID); err == nil {
		sa.StaffName = staff.FullName()
	}
	return toAssignment(sa), nil
}
