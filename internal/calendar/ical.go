package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"jobgate-appointment-api/internal/model"
)

const productID = "-//JOBGATE//Appointment System//EN"

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	return cal
}

func where(s *model.CalendarSlot) string {
	if s.Location != "" {
		return s.Location
	}
	return s.MeetingLink
}

// AppointmentsICS renders a talent's or staff member's appointments. Slot
// times are wall-clock in loc. Cancelled bookings stay in the feed so
// subscribed clients drop them.
func AppointmentsICS(apts []model.Appointment, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := newCalendar("JOBGATE Appointments")
	for i := range apts {
		a := &apts[i]
		ev := cal.AddEvent(fmt.Sprintf("appointment-%s@jobgate", a.BookingReference))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(a.Slot.StartsAt(loc))
		ev.SetEndAt(a.Slot.EndsAt(loc))
		ev.SetSummary(a.Slot.AgendaName)
		if l := where(&a.Slot); l != "" {
			ev.SetLocation(l)
		}

		desc := []string{"Booking reference: " + a.BookingReference}
		if a.Slot.StaffName != "" {
			desc = append(desc, "Staff: "+a.Slot.StaffName)
		}
		if a.TalentName != "" {
			desc = append(desc, "Talent: "+a.TalentName)
		}
		desc = append(desc, "Meeting type: "+a.Slot.MeetingType.Label())
		if a.TalentNotes != "" {
			desc = append(desc, "Notes: "+a.TalentNotes)
		}
		ev.SetDescription(strings.Join(desc, "\n"))

		if a.Status == model.AppointmentCancelled {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

// SlotsICS renders a staff member's slots with their booking counts.
func SlotsICS(slots []model.CalendarSlot, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := newCalendar("JOBGATE Slots")
	for i := range slots {
		s := &slots[i]
		ev := cal.AddEvent(fmt.Sprintf("slot-%d@jobgate", s.ID))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(s.StartsAt(loc))
		ev.SetEndAt(s.EndsAt(loc))
		ev.SetSummary(fmt.Sprintf("%s (%d/%d booked)", s.AgendaName, s.CurrentBookings, s.MaxCapacity))
		if l := where(s); l != "" {
			ev.SetLocation(l)
		}
		if s.Notes != "" {
			ev.SetDescription(s.Notes)
		}
		if CapacityStatus(s) == StatusInactive {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}
