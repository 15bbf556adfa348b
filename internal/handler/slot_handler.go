package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/cache"
	"jobgate-appointment-api/internal/calendar"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

// maxBulkSlots bounds a single bulk request.
const maxBulkSlots = 500

var errOverlap = status.Error(codes.AlreadyExists, "slot overlaps an existing slot for this staff member")

func (h *Handler) ListSlots(ctx context.Context, req *rpc.ListSlotsRequest) (*rpc.ListSlotsResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}

	var v violations
	f := store.SlotFilter{
		AgendaID:     req.AgendaID,
		StaffID:      req.StaffID,
		UniversityID: req.UniversityID,
		ThemeID:      req.ThemeID,
		Status:       model.SlotStatus(req.Status),
		From:         v.optDate("date_from", req.DateFrom),
		To:           v.optDate("date_to", req.DateTo),
	}
	if f.Status != "" && !f.Status.Valid() {
		v.add("status", "invalid status")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	switch {
	case isAdmin(u):
	case isStaff(u):
		univ, err := universityOf(u)
		if err != nil {
			return nil, err
		}
		f.UniversityID = univ
	default:
		// talents and recruiters only ever see bookable slots
		f.Status = model.SlotAvailable
		f.ActiveOnly = true
	}

	slots, err := h.store.ListSlots(ctx, f)
	if err != nil {
		return nil, internal("list slots", err)
	}
	return &rpc.ListSlotsResponse{Slots: toSlots(slots)}, nil
}

func (h *Handler) GetSlot(ctx context.Context, req *rpc.IDRequest) (*rpc.Slot, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	s, err := h.store.GetSlot(ctx, req.ID)
	if err != nil {
		return nil, fromStore("get slot", err)
	}
	if isStaff(u) && !canManage(u, s.UniversityID) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return toSlot(s), nil
}

// slotStaff picks the staff member for a new slot: the caller when they are
// staff and named nobody, otherwise whoever the request names.
func slotStaff(u *model.User, requested string) string {
	if requested == "" && isStaff(u) {
		return u.ID
	}
	return requested
}

func withinAgenda(a *model.Agenda, d time.Time) bool {
	d = model.DateOf(d)
	return !d.Before(model.DateOf(a.StartDate)) && !d.After(model.DateOf(a.EndDate))
}

// clipToAgenda narrows [from, to] to the agenda's own dates. The result is
// empty (to before from) when they do not overlap.
func clipToAgenda(a *model.Agenda, from, to time.Time) (time.Time, time.Time) {
	if start := model.DateOf(a.StartDate); from.Before(start) {
		from = start
	}
	if end := model.DateOf(a.EndDate); to.After(end) {
		to = end
	}
	return from, to
}

func (h *Handler) CreateSlot(ctx context.Context, req *rpc.Slot) (*rpc.Slot, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAgenda(ctx, req.AgendaID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid("agenda_id", "unknown agenda")
	}
	if err != nil {
		return nil, internal("create slot", err)
	}
	if !canManage(u, a.UniversityID) {
		return nil, status.Error(codes.PermissionDenied, "you can only manage your university's slots")
	}

	s := &model.CalendarSlot{
		AgendaID:    a.ID,
		StaffID:     slotStaff(u, req.StaffID),
		MaxCapacity: req.MaxCapacity,
		Status:      model.SlotAvailable,
		Notes:       req.Notes,
		Location:    req.Location,
		MeetingType: model.MeetingType(req.MeetingType),
		MeetingLink: req.MeetingLink,
	}
	if s.MaxCapacity == 0 {
		s.MaxCapacity = a.MaxCapacityPerSlot
	}
	if s.MeetingType == "" {
		s.MeetingType = model.MeetingInPerson
	}

	var v violations
	s.Date = v.date("slot_date", req.SlotDate)
	if !s.Date.IsZero() && !withinAgenda(a, s.Date) {
		v.add("slot_date", "date is outside the agenda's dates")
	}
	s.Start = v.clock("start_time", req.StartTime)
	s.End = v.clock("end_time", req.EndTime)
	h.validateSlot(s, &v)
	if err := h.checkStaffMember(ctx, s.StaffID, a.UniversityID, "staff_id", &v); err != nil {
		return nil, internal("create slot", err)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	dup, err := h.store.HasSlotOverlap(ctx, s.StaffID, s.Date, s.Start, s.End, 0)
	if err != nil {
		return nil, internal("slot overlap", err)
	}
	if dup {
		return nil, errOverlap
	}
	if err := h.store.CreateSlot(ctx, s); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, errOverlap
		}
		return nil, fromStore("create slot", err)
	}
	h.invalidate(ctx, a.ID, a.UniversityID)

	created, err := h.store.GetSlot(ctx, s.ID)
	if err != nil {
		return nil, internal("reload slot", err)
	}
	return toSlot(created), nil
}

func (h *Handler) validateSlot(s *model.CalendarSlot, v *violations) {
	if s.End <= s.Start {
		v.add("end_time", "end time must be after start time")
	}
	if s.MaxCapacity < 1 {
		v.add("max_capacity", "capacity must be at least 1")
	}
	if s.MaxCapacity < s.CurrentBookings {
		v.add("max_capacity", "capacity below current bookings")
	}
	if !s.MeetingType.ValidForSlot() {
		v.add("meeting_type", "meeting type must be in_person, online or phone")
	}
	if !s.Status.Valid() {
		v.add("status", "invalid status")
	}
}

// loadManagedSlot fetches a slot the caller may change.
func (h *Handler) loadManagedSlot(ctx context.Context, u *model.User, id int64) (*model.CalendarSlot, error) {
	s, err := h.store.GetSlot(ctx, id)
	if err != nil {
		return nil, fromStore("get slot", err)
	}
	if !canManage(u, s.UniversityID) {
		if isStaff(u) {
			return nil, status.Error(codes.NotFound, "not found")
		}
		return nil, status.Error(codes.PermissionDenied, "you can only manage your university's slots")
	}
	return s, nil
}

func (h *Handler) UpdateSlot(ctx context.Context, req *rpc.UpdateSlotRequest) (*rpc.Slot, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	s, err := h.loadManagedSlot(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}

	var v violations
	if req.StaffID != nil && *req.StaffID != s.StaffID {
		s.StaffID = *req.StaffID
		if err := h.checkStaffMember(ctx, s.StaffID, s.UniversityID, "staff_id", &v); err != nil {
			return nil, internal("update slot", err)
		}
	}
	if req.SlotDate != nil {
		s.Date = v.date("slot_date", *req.SlotDate)
		if !s.Date.IsZero() {
			a, err := h.store.GetAgenda(ctx, s.AgendaID)
			if err != nil {
				return nil, internal("update slot", err)
			}
			if !withinAgenda(a, s.Date) {
				v.add("slot_date", "date is outside the agenda's dates")
			}
		}
	}
	if req.StartTime != nil {
		s.Start = v.clock("start_time", *req.StartTime)
	}
	if req.EndTime != nil {
		s.End = v.clock("end_time", *req.EndTime)
	}
	if req.MaxCapacity != nil {
		s.MaxCapacity = *req.MaxCapacity
	}
	if req.Status != nil {
		s.Status = model.SlotStatus(*req.Status)
	}
	if req.Notes != nil {
		s.Notes = *req.Notes
	}
	if req.Location != nil {
		s.Location = *req.Location
	}
	if req.MeetingType != nil {
		s.MeetingType = model.MeetingType(*req.MeetingType)
	}
	if req.MeetingLink != nil {
		s.MeetingLink = *req.MeetingLink
	}
	h.validateSlot(s, &v)
	if err := v.err(); err != nil {
		return nil, err
	}

	dup, err := h.store.HasSlotOverlap(ctx, s.StaffID, s.Date, s.Start, s.End, s.ID)
	if err != nil {
		return nil, internal("slot overlap", err)
	}
	if dup {
		return nil, errOverlap
	}
	if err := h.store.UpdateSlot(ctx, s); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, errOverlap
		}
		return nil, fromStore("update slot", err)
	}
	h.invalidate(ctx, s.AgendaID, s.UniversityID)

	updated, err := h.store.GetSlot(ctx, s.ID)
	if err != nil {
		return nil, internal("reload slot", err)
	}
	return toSlot(updated), nil
}

func (h *Handler) DeleteSlot(ctx context.Context, req *rpc.IDRequest) (*rpc.Empty, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	s, err := h.loadManagedSlot(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteSlot(ctx, s.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, status.Error(codes.FailedPrecondition, "slot has active bookings, cancel them first")
		}
		return nil, fromStore("delete slot", err)
	}
	h.invalidate(ctx, s.AgendaID, s.UniversityID)
	return &rpc.Empty{}, nil
}

// AvailableSlots lists bookable slots of one agenda from today on. Results
// are cached per agenda until the next slot or booking write.
func (h *Handler) AvailableSlots(ctx context.Context, req *rpc.AvailableSlotsRequest) (*rpc.ListSlotsResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if req.AgendaID == 0 {
		return nil, invalid("agenda_id", "agenda_id is required")
	}

	today := h.today()
	key := h.cache.Key(ctx, cache.AgendaScope(req.AgendaID), "available", today.Format(model.DateLayout))
	var cached rpc.ListSlotsResponse
	if ok, err := h.cache.Get(ctx, key, &cached); err != nil {
		appLog.Debug("cache read failed", "key", key, "err", err)
	} else if ok {
		return &cached, nil
	}

	slots, err := h.store.AvailableSlots(ctx, req.AgendaID, today)
	if err != nil {
		return nil, internal("available slots", err)
	}
	resp := &rpc.ListSlotsResponse{Slots: toSlots(slots)}
	if err := h.cache.Set(ctx, key, resp); err != nil {
		appLog.Debug("cache write failed", "key", key, "err", err)
	}
	return resp, nil
}

func (h *Handler) BulkCreateSlots(ctx context.Context, req *rpc.BulkCreateSlotsRequest) (*rpc.BulkCreateSlotsResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAgenda(ctx, req.AgendaID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid("agenda_id", "unknown agenda")
	}
	if err != nil {
		return nil, internal("bulk create slots", err)
	}
	if !canManage(u, a.UniversityID) {
		return nil, status.Error(codes.PermissionDenied, "you can only manage your university's slots")
	}

	staffID := slotStaff(u, req.StaffID)
	var v violations
	from := v.date("start_date", req.StartDate)
	to := v.date("end_date", req.EndDate)
	start := v.clock("start_time", req.StartTime)
	end := v.clock("end_time", req.EndTime)
	mt := model.MeetingType(req.MeetingType)
	if mt == "" {
		mt = model.MeetingInPerson
	}
	if !mt.ValidForSlot() {
		v.add("meeting_type", "meeting type must be in_person, online or phone")
	}
	if req.MaxCapacity < 0 {
		v.add("max_capacity", "capacity must be at least 1")
	}
	if req.UseRecurrence && !a.IsRecurring {
		v.add("use_recurrence", "agenda has no recurrence pattern")
	}
	if err := h.checkStaffMember(ctx, staffID, a.UniversityID, "staff_id", &v); err != nil {
		return nil, internal("bulk create slots", err)
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if from.Before(h.today()) {
		return nil, invalid("start_date", "start date cannot be in the past")
	}
	if to.Before(from) {
		return nil, invalid("end_date", "end date must be after start date")
	}
	from, to = clipToAgenda(a, from, to)
	if to.Before(from) {
		return nil, invalid("start_date", "range is outside the agenda's dates")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, invalid("end_date", "range cannot exceed one year")
	}
	pieces, err := calendar.Split(start, end, a.SlotDurationMinutes)
	if err != nil {
		return nil, invalid("end_time", err.Error())
	}

	var dates []time.Time
	if req.UseRecurrence {
		dates, err = calendar.ExpandFrom(a.Recurrence, a.StartDate, from, to)
	} else {
		dates, err = calendar.ExpandWeekdays(from, to, req.DaysOfWeek)
	}
	if err != nil {
		return nil, invalid("days_of_week", err.Error())
	}
	if len(dates) == 0 {
		return nil, invalid("days_of_week", "no dates match the given range")
	}
	if len(dates)*len(pieces) > maxBulkSlots {
		return nil, invalid("end_date", "too many slots in one request, narrow the range")
	}

	capacity := req.MaxCapacity
	if capacity == 0 {
		capacity = a.MaxCapacityPerSlot
	}
	slots, err := calendar.Generate(dates, calendar.SlotTemplate{
		AgendaID:    a.ID,
		StaffID:     staffID,
		Start:       start,
		End:         end,
		Duration:    a.SlotDurationMinutes,
		Capacity:    capacity,
		Location:    req.Location,
		MeetingType: mt,
		MeetingLink: req.MeetingLink,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, invalid("end_time", err.Error())
	}

	if err := h.store.BulkCreateSlots(ctx, slots); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "one or more slots overlap existing slots, nothing was created")
		}
		return nil, fromStore("bulk create slots", err)
	}
	h.invalidate(ctx, a.ID, a.UniversityID)
	appLog.Info("slots created", "agenda", a.ID, "count", len(slots), "by", u.ID)

	for i := range slots {
		slots[i].AgendaName = a.Name
		slots[i].ThemeID = a.ThemeID
		slots[i].UniversityID = a.UniversityID
	}
	return &rpc.BulkCreateSlotsResponse{Created: len(slots), Slots: toSlots(slots)}, nil
}

func (h *Handler) CheckSlotConflicts(ctx context.Context, req *rpc.CheckConflictsRequest) (*rpc.CheckConflictsResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(u) && !isAdmin(u) {
		return nil, denied()
	}

	var v violations
	staffID := slotStaff(u, req.StaffID)
	if staffID == "" {
		v.add("staff_id", "staff member required")
	}
	date := v.date("slot_date", req.SlotDate)
	start := v.clock("start_time", req.StartTime)
	end := v.clock("end_time", req.EndTime)
	if end <= start {
		v.add("end_time", "end time must be after start time")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	conflicts, err := h.store.SlotConflicts(ctx, staffID, date, start, end, req.ExcludeID)
	if err != nil {
		return nil, internal("slot conflicts", err)
	}
	return &rpc.CheckConflictsResponse{HasConflicts: len(conflicts) > 0, Conflicts: toSlots(conflicts)}, nil
}

// MonthView builds the calendar grid for the caller. Talents see bookable
// slots plus their own appointments; staff see every slot of their
// university.
func (h *Handler) MonthView(ctx context.Context, req *rpc.MonthViewRequest) (*rpc.MonthView, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now().In(h.loc)
	year, month := req.Year, time.Month(req.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return nil, invalid("month", "month must be between 1 and 12")
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	f := store.SlotFilter{AgendaID: req.AgendaID, From: first, To: last}
	showApts := false
	var scope, mine string
	switch {
	case isAdmin(u):
		if req.AgendaID != 0 {
			scope = cache.AgendaScope(req.AgendaID)
		}
	case isStaff(u):
		univ, err := universityOf(u)
		if err != nil {
			return nil, err
		}
		f.UniversityID = univ
		scope = cache.UniversityScope(univ)
	default:
		f.Status = model.SlotAvailable
		f.ActiveOnly = true
		showApts = u.UserType == model.UserTalent
		if req.AgendaID != 0 {
			scope = cache.AgendaScope(req.AgendaID)
			// the caller's own bookings are part of the view too
			mine = h.cache.Key(ctx, cache.UserScope(u.ID))
		}
	}

	var key string
	if scope != "" {
		key = h.cache.Key(ctx, scope, "month", u.UserType, first.Format("2006-01"), req.AgendaID, req.ThemeID, model.DateOf(now).Format(model.DateLayout), mine)
		var cached rpc.MonthView
		if ok, err := h.cache.Get(ctx, key, &cached); err != nil {
			appLog.Debug("cache read failed", "key", key, "err", err)
		} else if ok {
			return &cached, nil
		}
	}

	slots, err := h.store.ListSlots(ctx, f)
	if err != nil {
		return nil, internal("month slots", err)
	}
	var apts []model.Appointment
	if showApts {
		apts, err = h.store.ListAppointments(ctx, store.AppointmentFilter{TalentID: u.ID, From: first, To: last})
		if err != nil {
			return nil, internal("month appointments", err)
		}
	}

	m := calendar.BuildMonth(calendar.MonthRequest{
		Year:             year,
		Month:            month,
		Today:            now,
		Slots:            slots,
		Appointments:     apts,
		ShowAppointments: showApts,
		ThemeID:          req.ThemeID,
	})
	view := toMonthView(m, showApts)
	if key != "" {
		if err := h.cache.Set(ctx, key, view); err != nil {
			appLog.Debug("cache write failed", "key", key, "err", err)
		}
	}
	return view, nil
}
