package handler

import (
	"math"
	"time"

	"jobgate-appointment-api/internal/calendar"
	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/rpc"
)

func toUser(u *model.User) *rpc.User {
	return &rpc.User{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		UserType:        string(u.UserType),
		UserTypeDisplay: u.UserType.Label(),
		Phone:           u.Phone,
		Timezone:        u.Timezone,
		UniversityID:    u.UniversityID,
		IsActive:        u.IsActive,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}

func toUsers(us []model.User) []*rpc.User {
	out := make([]*rpc.User, len(us))
	for i := range us {
		out[i] = toUser(&us[i])
	}
	return out
}

func toPreferences(p *model.UserPreferences) *rpc.Preferences {
	np := p.NotificationPreferences
	if np == nil {
		np = map[string]any{}
	}
	return &rpc.Preferences{
		EmailRemindersEnabled:   p.EmailRemindersEnabled,
		Reminder24hEnabled:      p.Reminder24hEnabled,
		Reminder1hEnabled:       p.Reminder1hEnabled,
		PreferredMeetingType:    string(p.PreferredMeetingType),
		Timezone:                p.Timezone,
		Language:                p.Language,
		NotificationPreferences: np,
	}
}

func toUniversity(u *model.University) *rpc.University {
	return &rpc.University{
		ID:           u.ID,
		Name:         u.Name,
		Description:  u.Description,
		Address:      u.Address,
		City:         u.City,
		Country:      u.Country,
		WebsiteURL:   u.WebsiteURL,
		ContactEmail: u.ContactEmail,
		ContactPhone: u.ContactPhone,
		LogoURL:      u.LogoURL,
		IsActive:     u.IsActive,
	}
}

func fromUniversity(u *rpc.University) *model.University {
	return &model.University{
		ID:           u.ID,
		Name:         u.Name,
		Description:  u.Description,
		Address:      u.Address,
		City:         u.City,
		Country:      u.Country,
		WebsiteURL:   u.WebsiteURL,
		ContactEmail: u.ContactEmail,
		ContactPhone: u.ContactPhone,
		LogoURL:      u.LogoURL,
		IsActive:     u.IsActive,
	}
}

func toTheme(t *model.AppointmentTheme) *rpc.Theme {
	return &rpc.Theme{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ColorCode:   t.ColorCode,
		Icon:        t.Icon,
		IsActive:    t.IsActive,
	}
}

func toRecurrence(p model.RecurrencePattern) *rpc.Recurrence {
	if p.Frequency == "" && len(p.Weekdays) == 0 && p.Count == 0 && p.Until == "" {
		return nil
	}
	return &rpc.Recurrence{
		Frequency: string(p.Frequency),
		Interval:  p.Interval,
		Weekdays:  p.Weekdays,
		Count:     p.Count,
		Until:     p.Until,
	}
}

func fromRecurrence(r *rpc.Recurrence) model.RecurrencePattern {
	if r == nil {
		return model.RecurrencePattern{}
	}
	return model.RecurrencePattern{
		Frequency: model.RecurrenceFrequency(r.Frequency),
		Interval:  r.Interval,
		Weekdays:  r.Weekdays,
		Count:     r.Count,
		Until:     r.Until,
	}
}

func toAssignment(sa *model.StaffAssignment) *rpc.StaffAssignment {
	return &rpc.StaffAssignment{
		ID:        sa.ID,
		AgendaID:  sa.AgendaID,
		StaffID:   sa.StaffID,
		StaffName: sa.StaffName,
		Role:      string(sa.Role),
		IsPrimary: sa.IsPrimary,
	}
}

func toAgenda(a *model.Agenda) *rpc.Agenda {
	out := &rpc.Agenda{
		ID:                        a.ID,
		UniversityID:              a.UniversityID,
		UniversityName:            a.UniversityName,
		CreatedBy:                 a.CreatedBy,
		Name:                      a.Name,
		Description:               a.Description,
		ThemeID:                   a.ThemeID,
		ThemeName:                 a.ThemeName,
		ThemeColor:                a.ThemeColor,
		SlotDurationMinutes:       a.SlotDurationMinutes,
		MaxCapacityPerSlot:        a.MaxCapacityPerSlot,
		StartDate:                 a.StartDate.Format(model.DateLayout),
		EndDate:                   a.EndDate.Format(model.DateLayout),
		IsRecurring:               a.IsRecurring,
		Recurrence:                toRecurrence(a.Recurrence),
		BookingDeadlineHours:      a.BookingDeadlineHours,
		CancellationDeadlineHours: a.CancellationDeadlineHours,
		IsActive:                  a.IsActive,
	}
	for _, c := range a.Criteria {
		out.Criteria = append(out.Criteria, &rpc.Criterion{
			ID:         c.ID,
			Type:       string(c.Type),
			Value:      c.Value,
			IsRequired: c.IsRequired,
		})
	}
	for i := range a.Staff {
		out.Staff = append(out.Staff, toAssignment(&a.Staff[i]))
	}
	return out
}

func toSlot(s *model.CalendarSlot) *rpc.Slot {
	remaining := max(s.Remaining(), 0)
	return &rpc.Slot{
		ID:              s.ID,
		AgendaID:        s.AgendaID,
		AgendaName:      s.AgendaName,
		ThemeID:         s.ThemeID,
		StaffID:         s.StaffID,
		StaffName:       s.StaffName,
		SlotDate:        s.DateString(),
		StartTime:       s.Start.String(),
		EndTime:         s.End.String(),
		MaxCapacity:     s.MaxCapacity,
		CurrentBookings: s.CurrentBookings,
		AvailableSpots:  remaining,
		IsAvailable:     s.Status == model.SlotAvailable && remaining > 0,
		CapacityStatus:  string(calendar.CapacityStatus(s)),
		Status:          string(s.Status),
		Notes:           s.Notes,
		Location:        s.Location,
		MeetingType:     string(s.MeetingType),
		MeetingLink:     s.MeetingLink,
	}
}

func toSlots(ss []model.CalendarSlot) []*rpc.Slot {
	out := make([]*rpc.Slot, len(ss))
	for i := range ss {
		out[i] = toSlot(&ss[i])
	}
	return out
}

func toAppointment(a *model.Appointment, canCancel bool) *rpc.Appointment {
	return &rpc.Appointment{
		ID:               a.ID,
		Slot:             toSlot(&a.Slot),
		TalentID:         a.TalentID,
		TalentName:       a.TalentName,
		TalentEmail:      a.TalentEmail,
		BookingReference: a.BookingReference,
		Status:           string(a.Status),
		TalentNotes:      a.TalentNotes,
		StaffNotes:       a.StaffNotes,
		Rating:           a.Rating,
		Feedback:         a.Feedback,
		CanCancel:        canCancel,
		BookedAt:         a.BookedAt,
		CancelledAt:      a.CancelledAt,
		CompletedAt:      a.CompletedAt,
	}
}

func toMonthView(m calendar.Month, showAppointments bool) *rpc.MonthView {
	out := &rpc.MonthView{
		Title:         m.Title,
		Year:          m.Year,
		Month:         int(m.Month),
		LeadingBlanks: m.LeadingBlanks,
		Prev:          rpc.MonthRef{Year: m.Prev.Year(), Month: int(m.Prev.Month())},
		Next:          rpc.MonthRef{Year: m.Next.Year(), Month: int(m.Next.Month())},
		Days:          make([]*rpc.CalendarDay, 0, len(m.Days)),
	}
	for _, d := range m.Days {
		day := &rpc.CalendarDay{
			Date:                d.Date.Format(model.DateLayout),
			IsToday:             d.IsToday,
			Slots:               make([]*rpc.Slot, 0, len(d.Slots)),
			VisibleSlots:        d.VisibleSlots,
			VisibleAppointments: d.VisibleAppointments,
			More:                d.More,
		}
		for i := range d.Slots {
			day.Slots = append(day.Slots, toSlot(&d.Slots[i].Slot))
		}
		if showAppointments {
			day.Appointments = make([]*rpc.Appointment, 0, len(d.Appointments))
			for i := range d.Appointments {
				day.Appointments = append(day.Appointments, toAppointment(&d.Appointments[i], false))
			}
		}
		out.Days = append(out.Days, day)
	}
	for _, l := range m.Legend {
		out.Legend = append(out.Legend, &rpc.LegendEntry{Status: string(l.Status), Label: l.Label, Color: l.Color})
	}
	return out
}

func toEvents(evs []calendar.Event) []*rpc.Event {
	out := make([]*rpc.Event, len(evs))
	for i, e := range evs {
		out[i] = &rpc.Event{
			ID:       e.ID,
			Type:     string(e.Type),
			Title:    e.Title,
			Start:    e.Start,
			End:      e.End,
			Location: e.Location,
			Status:   e.Status,
		}
	}
	return out
}

func toEmailLogs(rs []model.EmailReminder) []*rpc.EmailLog {
	out := make([]*rpc.EmailLog, 0, len(rs))
	for _, r := range rs {
		out = append(out, &rpc.EmailLog{
			Type:      string(r.Type),
			Recipient: r.RecipientEmail,
			Subject:   r.Subject,
			Status:    r.Status,
			Error:     r.ErrorMessage,
			SentAt:    r.SentAt,
		})
	}
	return out
}

// toDaily folds the per-theme rollup rows into one entry per date.
func toDaily(rows []model.DailyStatistics) []*rpc.DayCount {
	out := []*rpc.DayCount{}
	byDate := map[string]*rpc.DayCount{}
	for _, r := range rows {
		key := r.Date.Format(model.DateLayout)
		d, ok := byDate[key]
		if !ok {
			d = &rpc.DayCount{Date: key}
			byDate[key] = d
			out = append(out, d)
		}
		d.TotalSlots += r.TotalSlots
		d.BookedSlots += r.BookedSlots
		d.Completed += r.Completed
		d.Cancelled += r.Cancelled
		d.NoShow += r.NoShow
	}
	return out
}

func toStatistics(s *model.Statistics, from, to time.Time) *rpc.Statistics {
	out := &rpc.Statistics{
		DateFrom:              from.Format(model.DateLayout),
		DateTo:                to.Format(model.DateLayout),
		TotalAppointments:     s.TotalAppointments,
		ConfirmedAppointments: s.ConfirmedAppointments,
		CompletedAppointments: s.CompletedAppointments,
		CancelledAppointments: s.CancelledAppointments,
		NoShowAppointments:    s.NoShowAppointments,
		UniqueTalents:         s.UniqueTalents,
		AverageRating:         s.AverageRating,
		TotalDurationMinutes:  s.TotalDurationMinutes,
		ByTheme:               make([]*rpc.ThemeCount, 0, len(s.ByTheme)),
	}
	if s.TotalAppointments > 0 {
		rate := float64(s.CompletedAppointments) / float64(s.TotalAppointments) * 100
		out.CompletionRate = math.Round(rate*100) / 100
	}
	for _, t := range s.ByTheme {
		out.ByTheme = append(out.ByTheme, &rpc.ThemeCount{
			Theme:     t.ThemeName,
			Count:     t.Count,
			Completed: t.Completed,
			Cancelled: t.Cancelled,
		})
	}
	return out
}
