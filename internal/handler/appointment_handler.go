package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobgate-appointment-api/internal/calendar"
	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/notify"
	"jobgate-appointment-api/internal/rpc"
	"jobgate-appointment-api/internal/store"
)

const (
	maxFeedback   = 2000
	maxRangeDays  = 366
	defaultEvents = 30
)

// deadlinePassed reports whether now is later than hours before the slot
// starts. Slot dates and times are wall-clock values in loc.
func deadlinePassed(s *model.CalendarSlot, hours int, now time.Time, loc *time.Location) bool {
	return now.After(s.StartsAt(loc).Add(-time.Duration(hours) * time.Hour))
}

func active(st model.AppointmentStatus) bool {
	return st == model.AppointmentPending || st == model.AppointmentConfirmed
}

func cancellable(a *model.Appointment, hours int, now time.Time, loc *time.Location) bool {
	return active(a.Status) && !deadlinePassed(&a.Slot, hours, now, loc)
}

// scope returns the appointment filter the caller is confined to: talents
// see their own bookings, staff their university's, admins everything.
func scope(u *model.User) (store.AppointmentFilter, error) {
	switch {
	case isAdmin(u):
		return store.AppointmentFilter{}, nil
	case isStaff(u):
		univ, err := universityOf(u)
		return store.AppointmentFilter{UniversityID: univ}, err
	}
	return store.AppointmentFilter{TalentID: u.ID}, nil
}

func inScope(a *model.Appointment, f store.AppointmentFilter) bool {
	if f.TalentID != "" && a.TalentID != f.TalentID {
		return false
	}
	if f.UniversityID != 0 && a.Slot.UniversityID != f.UniversityID {
		return false
	}
	return true
}

// visible loads an appointment the caller may see. Anything out of scope is
// reported as missing.
func (h *Handler) visible(ctx context.Context, u *model.User, id int64) (*model.Appointment, error) {
	f, err := scope(u)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fromStore("get appointment", err)
	}
	if !inScope(a, f) {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return a, nil
}

// present converts appointments, looking each agenda's cancellation deadline
// up once.
func (h *Handler) present(ctx context.Context, apts []model.Appointment) []*rpc.Appointment {
	hours := map[int64]int{}
	now := h.now()
	out := make([]*rpc.Appointment, len(apts))
	for i := range apts {
		a := &apts[i]
		hrs, ok := hours[a.Slot.AgendaID]
		if !ok {
			hrs = defaultDeadlineHours
			if ag, err := h.store.GetAgenda(ctx, a.Slot.AgendaID); err == nil {
				hrs = ag.CancellationDeadlineHours
			} else {
				appLog.Error("load agenda deadline", err, "agenda", a.Slot.AgendaID)
			}
			hours[a.Slot.AgendaID] = hrs
		}
		out[i] = toAppointment(a, cancellable(a, hrs, now, h.loc))
	}
	return out
}

func (h *Handler) presentOne(ctx context.Context, a *model.Appointment) *rpc.Appointment {
	return h.present(ctx, []model.Appointment{*a})[0]
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	f, err := scope(u)
	if err != nil {
		return nil, err
	}

	var v violations
	f.Status = model.AppointmentStatus(req.Status)
	if f.Status != "" && !f.Status.Valid() {
		v.add("status", "invalid status")
	}
	f.SlotID = req.SlotID
	f.From = v.optDate("date_from", req.DateFrom)
	f.To = v.optDate("date_to", req.DateTo)
	if err := v.err(); err != nil {
		return nil, err
	}

	apts, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, internal("list appointments", err)
	}
	return &rpc.ListAppointmentsResponse{Appointments: h.present(ctx, apts)}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *rpc.IDRequest) (*rpc.Appointment, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.visible(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}
	out := h.presentOne(ctx, a)
	if isStaff(u) || isAdmin(u) {
		logs, err := h.store.RemindersFor(ctx, a.ID)
		if err != nil {
			return nil, internal("email log", err)
		}
		out.Emails = toEmailLogs(logs)
	}
	return out, nil
}

func (h *Handler) BookAppointment(ctx context.Context, req *rpc.BookAppointmentRequest) (*rpc.Appointment, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !id.Is(model.UserTalent) {
		return nil, status.Error(codes.PermissionDenied, "only talents can book appointments")
	}
	if req.SlotID == 0 {
		return nil, invalid("calendar_slot", "slot required")
	}
	if len(req.TalentNotes) > maxFeedback {
		return nil, invalid("talent_notes", "notes too long")
	}

	slot, err := h.store.GetSlot(ctx, req.SlotID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "slot not found")
	}
	if err != nil {
		return nil, internal("book", err)
	}
	ag, err := h.store.GetAgenda(ctx, slot.AgendaID)
	if err != nil {
		return nil, internal("book", err)
	}
	if !ag.IsActive {
		return nil, status.Error(codes.FailedPrecondition, "agenda is not active")
	}
	if deadlinePassed(slot, ag.BookingDeadlineHours, h.now(), h.loc) {
		return nil, status.Error(codes.FailedPrecondition, "booking deadline has passed")
	}

	a, err := h.store.Book(ctx, slot.ID, id.UserID, strings.TrimSpace(req.TalentNotes))
	switch {
	case errors.Is(err, store.ErrSlotFull):
		return nil, status.Error(codes.FailedPrecondition, "slot is fully booked")
	case errors.Is(err, store.ErrSlotUnavailable):
		return nil, status.Error(codes.FailedPrecondition, "slot is not available")
	case errors.Is(err, store.ErrAlreadyBooked):
		return nil, status.Error(codes.AlreadyExists, "you already booked this slot")
	case err != nil:
		return nil, internal("book", err)
	}

	h.invalidate(ctx, ag.ID, ag.UniversityID, id.UserID)
	h.notify(notify.Job{AppointmentID: a.ID, Type: model.ReminderConfirmation})
	appLog.Info("appointment booked", "reference", a.BookingReference, "slot", slot.ID, "talent", id.UserID)

	return toAppointment(a, cancellable(a, ag.CancellationDeadlineHours, h.now(), h.loc)), nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *rpc.CancelAppointmentRequest) (*rpc.Appointment, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, fromStore("get appointment", err)
	}

	switch {
	case isAdmin(u):
	case isStaff(u):
		if !canManage(u, a.Slot.UniversityID) {
			return nil, status.Error(codes.PermissionDenied, "you can only cancel your university's appointments")
		}
	default:
		if a.TalentID != u.ID {
			return nil, status.Error(codes.PermissionDenied, "you can only cancel your own appointments")
		}
	}

	if a.Status == model.AppointmentCancelled {
		return nil, status.Error(codes.FailedPrecondition, "appointment is already cancelled")
	}
	if !active(a.Status) {
		return nil, status.Error(codes.FailedPrecondition, "only pending or confirmed appointments can be cancelled")
	}
	ag, err := h.store.GetAgenda(ctx, a.Slot.AgendaID)
	if err != nil {
		return nil, internal("cancel", err)
	}
	if deadlinePassed(&a.Slot, ag.CancellationDeadlineHours, h.now(), h.loc) {
		return nil, status.Error(codes.FailedPrecondition, "cancellation deadline has passed")
	}

	cancelled, err := h.store.Cancel(ctx, a.ID)
	if errors.Is(err, store.ErrConflict) {
		return nil, status.Error(codes.FailedPrecondition, "appointment is already cancelled")
	}
	if err != nil {
		return nil, internal("cancel", err)
	}

	byStaff := u.ID != a.TalentID
	h.invalidate(ctx, ag.ID, ag.UniversityID, a.TalentID)
	h.notify(notify.Job{AppointmentID: a.ID, Type: model.ReminderCancellation, ByStaff: byStaff})
	appLog.Info("appointment cancelled", "reference", a.BookingReference, "by", u.ID, "reason", req.Reason)

	return toAppointment(cancelled, false), nil
}

// UpdateAppointment lets staff record the outcome of a meeting.
func (h *Handler) UpdateAppointment(ctx context.Context, req *rpc.UpdateAppointmentRequest) (*rpc.Appointment, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(u) && !isAdmin(u) {
		return nil, denied()
	}
	a, err := h.visible(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}

	st := a.Status
	if req.Status != "" {
		st = model.AppointmentStatus(req.Status)
		switch st {
		case model.AppointmentConfirmed, model.AppointmentCompleted, model.AppointmentNoShow:
		default:
			return nil, invalid("status", "status must be confirmed, completed or no_show")
		}
	}
	if a.Status == model.AppointmentCancelled {
		return nil, status.Error(codes.FailedPrecondition, "cancelled appointments cannot be updated")
	}
	notes := a.StaffNotes
	if req.StaffNotes != nil {
		notes = *req.StaffNotes
	}

	if err := h.store.UpdateAppointment(ctx, a.ID, st, notes); err != nil {
		return nil, fromStore("update appointment", err)
	}
	if st != a.Status {
		h.invalidate(ctx, a.Slot.AgendaID, a.Slot.UniversityID, a.TalentID)
	}
	updated, err := h.store.GetAppointment(ctx, a.ID)
	if err != nil {
		return nil, internal("reload appointment", err)
	}
	return h.presentOne(ctx, updated), nil
}

func (h *Handler) SubmitFeedback(ctx context.Context, req *rpc.FeedbackRequest) (*rpc.Appointment, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.store.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, fromStore("get appointment", err)
	}
	if a.TalentID != u.ID {
		return nil, status.Error(codes.PermissionDenied, "you can only rate your own appointments")
	}

	var v violations
	if req.Rating < 1 || req.Rating > 5 {
		v.add("rating", "rating must be between 1 and 5")
	}
	if len(req.Feedback) > maxFeedback {
		v.add("feedback", "feedback too long")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if a.Status != model.AppointmentCompleted {
		return nil, status.Error(codes.FailedPrecondition, "feedback is only accepted for completed appointments")
	}

	if err := h.store.SubmitFeedback(ctx, a.ID, req.Rating, strings.TrimSpace(req.Feedback)); err != nil {
		return nil, fromStore("submit feedback", err)
	}
	updated, err := h.store.GetAppointment(ctx, a.ID)
	if err != nil {
		return nil, internal("reload appointment", err)
	}
	return toAppointment(updated, false), nil
}

// SendReminder queues an email right away, even when the same kind was sent
// before.
func (h *Handler) SendReminder(ctx context.Context, req *rpc.SendReminderRequest) (*rpc.SendReminderResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(u) && !isAdmin(u) {
		return nil, denied()
	}
	a, err := h.visible(ctx, u, req.ID)
	if err != nil {
		return nil, err
	}

	t := model.ReminderType(req.ReminderType)
	switch t {
	case model.ReminderConfirmation, model.Reminder24Hour, model.Reminder1Hour:
	default:
		return nil, invalid("reminder_type", "reminder type must be confirmation, 24_hour or 1_hour")
	}
	if !active(a.Status) {
		return nil, status.Error(codes.FailedPrecondition, "reminders are only sent for active appointments")
	}

	if h.mail == nil || !h.mail.Enqueue(notify.Job{AppointmentID: a.ID, Type: t, Force: true}) {
		return nil, status.Error(codes.Unavailable, "email queue is full, try again later")
	}
	appLog.Info("reminder queued", "reference", a.BookingReference, "type", t, "by", u.ID)
	return &rpc.SendReminderResponse{Queued: true, Message: string(t) + " reminder queued"}, nil
}

// dateRange parses an optional inclusive range, defaulting to the given
// window around today.
func (h *Handler) dateRange(fromS, toS string, back, ahead int) (time.Time, time.Time, error) {
	var v violations
	from := v.optDate("start_date", fromS)
	to := v.optDate("end_date", toS)
	if err := v.err(); err != nil {
		return from, to, err
	}
	if from.IsZero() {
		from = h.today().AddDate(0, 0, -back)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, back+ahead)
	}
	if to.Before(from) {
		return from, to, invalid("end_date", "end date must be after start date")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return from, to, invalid("end_date", "range too long")
	}
	return from, to, nil
}

// CalendarEvents returns the flat feed of slots and appointments in range.
func (h *Handler) CalendarEvents(ctx context.Context, req *rpc.CalendarEventsRequest) (*rpc.CalendarEventsResponse, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	f, err := scope(u)
	if err != nil {
		return nil, err
	}
	from, to, err := h.dateRange(req.StartDate, req.EndDate, 0, defaultEvents)
	if err != nil {
		return nil, err
	}

	sf := store.SlotFilter{UniversityID: f.UniversityID, From: from, To: to}
	if !isAdmin(u) && !isStaff(u) {
		sf.Status = model.SlotAvailable
		sf.ActiveOnly = true
	}
	slots, err := h.store.ListSlots(ctx, sf)
	if err != nil {
		return nil, internal("event slots", err)
	}
	f.From, f.To = from, to
	apts, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, internal("event appointments", err)
	}
	return &rpc.CalendarEventsResponse{Events: toEvents(calendar.Events(slots, apts, h.loc))}, nil
}

func (h *Handler) exportFilter(ctx context.Context, req *rpc.ExportRequest) (*model.User, store.AppointmentFilter, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, store.AppointmentFilter{}, err
	}
	f, err := scope(u)
	if err != nil {
		return nil, f, err
	}
	f.Status = model.AppointmentStatus(req.Status)
	if f.Status != "" && !f.Status.Valid() {
		return nil, f, invalid("status", "invalid status")
	}
	f.From, f.To, err = h.dateRange(req.DateFrom, req.DateTo, 30, 180)
	return u, f, err
}

var csvHeader = []string{
	"Booking Reference", "Talent Name", "Talent Email", "Agenda", "Date",
	"Start Time", "End Time", "Staff", "Location", "Meeting Type", "Status",
	"Booked At", "Rating",
}

func appointmentsCSV(apts []model.Appointment, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i := range apts {
		a := &apts[i]
		rating := ""
		if a.Rating != nil {
			rating = strconv.Itoa(*a.Rating)
		}
		if err := w.Write([]string{
			a.BookingReference,
			a.TalentName,
			a.TalentEmail,
			a.Slot.AgendaName,
			a.Slot.DateString(),
			a.Slot.Start.String(),
			a.Slot.End.String(),
			a.Slot.StaffName,
			a.Slot.Location,
			a.Slot.MeetingType.Label(),
			string(a.Status),
			a.BookedAt.In(loc).Format("2006-01-02 15:04"),
			rating,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (h *Handler) ExportAppointments(ctx context.Context, req *rpc.ExportRequest) (*rpc.File, error) {
	_, f, err := h.exportFilter(ctx, req)
	if err != nil {
		return nil, err
	}
	apts, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, internal("export appointments", err)
	}
	data, err := appointmentsCSV(apts, h.loc)
	if err != nil {
		return nil, internal("export csv", err)
	}
	return &rpc.File{
		Filename:    "appointments-" + h.today().Format(model.DateLayout) + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// CalendarICS exports the caller's calendar: staff get the slots they run,
// everyone else the appointments in their scope.
func (h *Handler) CalendarICS(ctx context.Context, req *rpc.ExportRequest) (*rpc.File, error) {
	u, f, err := h.exportFilter(ctx, req)
	if err != nil {
		return nil, err
	}

	var body string
	if isStaff(u) {
		slots, err := h.store.ListSlots(ctx, store.SlotFilter{StaffID: u.ID, From: f.From, To: f.To})
		if err != nil {
			return nil, internal("ics slots", err)
		}
		body = calendar.SlotsICS(slots, h.loc, h.now())
	} else {
		apts, err := h.store.ListAppointments(ctx, f)
		if err != nil {
			return nil, internal("ics appointments", err)
		}
		body = calendar.AppointmentsICS(apts, h.loc, h.now())
	}
	return &rpc.File{
		Filename:    "jobgate.ics",
		ContentType: "text/calendar; charset=utf-8",
		Data:        []byte(body),
	}, nil
}

// Statistics summarises appointments over a date range, the last 30 days by
// default. Staff are confined to their own university.
func (h *Handler) Statistics(ctx context.Context, req *rpc.StatisticsRequest) (*rpc.Statistics, error) {
	u, err := h.me(ctx)
	if err != nil {
		return nil, err
	}
	univ := req.UniversityID
	switch {
	case isAdmin(u):
	case isStaff(u):
		own, err := universityOf(u)
		if err != nil {
			return nil, err
		}
		if univ != 0 && univ != own {
			return nil, status.Error(codes.PermissionDenied, "other universities are not visible")
		}
		univ = own
	default:
		return nil, denied()
	}

	var v violations
	from := v.optDate("date_from", req.DateFrom)
	to := v.optDate("date_to", req.DateTo)
	if err := v.err(); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = h.today()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if to.Before(from) {
		return nil, invalid("date_to", "end date must be after start date")
	}

	st, err := h.store.Statistics(ctx, univ, from, to)
	if err != nil {
		return nil, internal("statistics", err)
	}
	daily, err := h.store.DailyStatistics(ctx, univ, from, to)
	if err != nil {
		return nil, internal("daily statistics", err)
	}
	out := toStatistics(st, from, to)
	out.Daily = toDaily(daily)
	return out, nil
}
