package calendar

import (
	"sort"
	"strconv"
	"time"

	"jobgate-appointment-api/internal/model"
)

type EventType string

const (
	EventSlot        EventType = "slot"
	EventAppointment EventType = "appointment"
)

// Event is one entry of the flat calendar feed.
type Event struct {
	ID       string
	Type     EventType
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	Status   string
}

// Events flattens slots and appointments into one feed sorted by start.
// Slot entries carry their capacity tier, appointment entries their booking
// status. Times are placed in loc.
func Events(slots []model.CalendarSlot, apts []model.Appointment, loc *time.Location) []Event {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Event, 0, len(slots)+len(apts))
	for i := range slots {
		s := &slots[i]
		out = append(out, Event{
			ID:       "slot-" + strconv.FormatInt(s.ID, 10),
			Type:     EventSlot,
			Title:    s.AgendaName,
			Start:    s.StartsAt(loc),
			End:      s.EndsAt(loc),
			Location: s.Location,
			Status:   string(CapacityStatus(s)),
		})
	}
	for i := range apts {
		a := &apts[i]
		out = append(out, Event{
			ID:       "appointment-" + strconv.FormatInt(a.ID, 10),
			Type:     EventAppointment,
			Title:    a.Slot.AgendaName,
			Start:    a.Slot.StartsAt(loc),
			End:      a.Slot.EndsAt(loc),
			Location: a.Slot.Location,
			Status:   string(a.Status),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
