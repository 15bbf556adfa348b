package calendar

import (
	"errors"
	"time"

	"jobgate-appointment-api/internal/model"
)

var (
	ErrBadWindow   = errors.New("end time must be after start time")
	ErrBadDuration = errors.New("slot duration must be at least one minute")
	ErrNoSlots     = errors.New("window is shorter than one slot")
)

// SlotTemplate describes the slots cut out of one daily window.
type SlotTemplate struct {
	AgendaID    int64
	StaffID     string
	Start       model.Clock
	End         model.Clock
	Duration    int
	Capacity    int
	Location    string
	MeetingType model.MeetingType
	MeetingLink string
	Notes       string
}

type Piece struct {
	Start model.Clock
	End   model.Clock
}

// Split cuts [start, end) into consecutive pieces of the given length. A
// trailing remainder shorter than one piece is dropped.
func Split(start, end model.Clock, minutes int) ([]Piece, error) {
	if end <= start {
		return nil, ErrBadWindow
	}
	if minutes < 1 {
		return nil, ErrBadDuration
	}
	var out []Piece
	for t := start; t+model.Clock(minutes) <= end; t += model.Clock(minutes) {
		out = append(out, Piece{Start: t, End: t + model.Clock(minutes)})
	}
	if len(out) == 0 {
		return nil, ErrNoSlots
	}
	return out, nil
}

// Generate builds available slots for every date, one per piece of the
// template window.
func Generate(dates []time.Time, t SlotTemplate) ([]model.CalendarSlot, error) {
	pieces, err := Split(t.Start, t.End, t.Duration)
	if err != nil {
		return nil, err
	}
	capacity := max(t.Capacity, 1)
	mt := t.MeetingType
	if !mt.ValidForSlot() {
		mt = model.MeetingInPerson
	}
	out := make([]model.CalendarSlot, 0, len(dates)*len(pieces))
	for _, d := range dates {
		for _, p := range pieces {
			out = append(out, model.CalendarSlot{
				AgendaID:    t.AgendaID,
				StaffID:     t.StaffID,
				Date:        model.DateOf(d),
				Start:       p.Start,
				End:         p.End,
				MaxCapacity: capacity,
				Status:      model.SlotAvailable,
				Location:    t.Location,
				MeetingType: mt,
				MeetingLink: t.MeetingLink,
				Notes:       t.Notes,
			})
		}
	}
	return out, nil
}
