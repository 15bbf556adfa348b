// Package calendar composes month views out of slots and appointments.
//
// Everything here is pure: callers load rows from the store and pass them in,
// which keeps the grid logic testable without a database.
package calendar

import (
	"time"

	"jobgate-appointment-api/internal/model"
)

// Status is the capacity tier shown for a slot.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLimited   Status = "limited"
	StatusFull      Status = "full"
	StatusInactive  Status = "inactive"
	// StatusMine marks the caller's own appointments in the legend.
	StatusMine Status = "mine"
)

// LimitedThreshold is the highest remaining capacity still shown as limited.
const LimitedThreshold = 2

// DefaultVisible is how many entries a day shows before "+N more".
const DefaultVisible = 3

// MonthDays returns every date of the month, first to last, as UTC midnights.
func MonthDays(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	n := first.AddDate(0, 1, -1).Day()
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// SlotsOn returns the slots whose date string equals day's, in input order.
func SlotsOn(slots []model.CalendarSlot, day time.Time) []model.CalendarSlot {
	key := day.Format(model.DateLayout)
	var out []model.CalendarSlot
	for _, s := range slots {
		if s.DateString() == key {
			out = append(out, s)
		}
	}
	return out
}

// AppointmentsOn matches appointments through the date of their slot.
func AppointmentsOn(apts []model.Appointment, day time.Time) []model.Appointment {
	key := day.Format(model.DateLayout)
	var out []model.Appointment
	for _, a := range apts {
		if a.Slot.DateString() == key {
			out = append(out, a)
		}
	}
	return out
}

// CapacityStatus maps remaining capacity to a tier. Cancelled and blocked
// slots are inactive whatever their bookings.
func CapacityStatus(s *model.CalendarSlot) Status {
	if s.Status == model.SlotCancelled || s.Status == model.SlotBlocked {
		return StatusInactive
	}
	remaining := s.Remaining()
	switch {
	case remaining <= 0:
		return StatusFull
	case remaining <= LimitedThreshold:
		return StatusLimited
	}
	return StatusAvailable
}

// FilterAgendasByTheme keeps agendas of the given theme. A zero id keeps all.
func FilterAgendasByTheme(agendas []model.Agenda, themeID int64) []model.Agenda {
	if themeID == 0 {
		return agendas
	}
	var out []model.Agenda
	for _, a := range agendas {
		if a.ThemeID == themeID {
			out = append(out, a)
		}
	}
	return out
}

// FilterSlotsByTheme keeps slots whose agenda has the given theme. A zero id
// keeps all.
func FilterSlotsByTheme(slots []model.CalendarSlot, themeID int64) []model.CalendarSlot {
	if themeID == 0 {
		return slots
	}
	var out []model.CalendarSlot
	for _, s := range slots {
		if s.ThemeID == themeID {
			out = append(out, s)
		}
	}
	return out
}

type MonthRequest struct {
	Year  int
	Month time.Month
	// Today decides IsToday; only its date part is used.
	Today            time.Time
	Slots            []model.CalendarSlot
	Appointments     []model.Appointment
	ShowAppointments bool
	ThemeID          int64
	// VisibleLimit defaults to DefaultVisible when not positive.
	VisibleLimit int
}

type SlotView struct {
	Slot      model.CalendarSlot
	Status    Status
	Remaining int
}

type Day struct {
	Date    time.Time
	IsToday bool
	// Slots and Appointments hold everything on the day; the Visible
	// counts say how many of each fit before the overflow marker.
	Slots               []SlotView
	Appointments        []model.Appointment
	VisibleSlots        int
	VisibleAppointments int
	More                int
}

type Month struct {
	Title string
	Year  int
	Month time.Month
	// LeadingBlanks is the number of empty cells before day 1 in a
	// Sunday-first grid.
	LeadingBlanks int
	Prev          time.Time
	Next          time.Time
	Days          []Day
	Legend        []LegendEntry
}

// BuildMonth lays out one month. Slots are theme-filtered first; appointments
// are only attached when ShowAppointments is set.
func BuildMonth(req MonthRequest) Month {
	limit := req.VisibleLimit
	if limit <= 0 {
		limit = DefaultVisible
	}
	first := time.Date(req.Year, req.Month, 1, 0, 0, 0, 0, time.UTC)
	today := model.DateOf(req.Today)

	slots := FilterSlotsByTheme(req.Slots, req.ThemeID)
	var apts []model.Appointment
	if req.ShowAppointments {
		apts = req.Appointments
		if req.ThemeID != 0 {
			apts = nil
			for _, a := range req.Appointments {
				if a.Slot.ThemeID == req.ThemeID {
					apts = append(apts, a)
				}
			}
		}
	}

	m := Month{
		Title:         first.Format("January 2006"),
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: int(first.Weekday()),
		Prev:          first.AddDate(0, -1, 0),
		Next:          first.AddDate(0, 1, 0),
		Legend:        Legend(req.ShowAppointments),
	}

	for _, date := range MonthDays(first.Year(), first.Month()) {
		d := Day{Date: date, IsToday: date.Equal(today)}
		for _, s := range SlotsOn(slots, date) {
			d.Slots = append(d.Slots, SlotView{Slot: s, Status: CapacityStatus(&s), Remaining: max(s.Remaining(), 0)})
		}
		if req.ShowAppointments {
			d.Appointments = AppointmentsOn(apts, date)
		}
		d.VisibleSlots = min(len(d.Slots), limit)
		d.VisibleAppointments = min(len(d.Appointments), max(limit-1, 0))
		if total := len(d.Slots) + len(d.Appointments); total > limit {
			d.More = total - limit
		}
		m.Days = append(m.Days, d)
	}
	return m
}

type LegendEntry struct {
	Status Status
	Label  string
	Color  string
}

// Legend lists the colour key in display order. The "mine" entry only
// appears in views that show the caller's appointments.
func Legend(withAppointments bool) []LegendEntry {
	l := []LegendEntry{
		{StatusAvailable, "Available", "success"},
		{StatusLimited, "Limited", "warning"},
		{StatusFull, "Full", "error"},
	}
	if withAppointments {
		l = append(l, LegendEntry{StatusMine, "Your Appointments", "primary"})
	}
	return l
}
