package calendar

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgate-appointment-api/internal/model"
)

func formatDates(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Format(model.DateLayout)
	}
	return out
}

func TestExpandWeekdays(t *testing.T) {
	// Monday 2 March to Sunday 15 March 2026, Mondays and Wednesdays
	got, err := ExpandWeekdays(date("2026-03-02"), date("2026-03-15"), []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02", "2026-03-04", "2026-03-09", "2026-03-11"}, formatDates(got))

	all, err := ExpandWeekdays(date("2026-03-02"), date("2026-03-08"), nil)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestExpandPatterns(t *testing.T) {
	tests := []struct {
		name string
		p    model.RecurrencePattern
		from string
		to   string
		want []string
	}{
		{
			name: "every other day",
			p:    model.RecurrencePattern{Frequency: model.FreqDaily, Interval: 2},
			from: "2026-03-01", to: "2026-03-07",
			want: []string{"2026-03-01", "2026-03-03", "2026-03-05", "2026-03-07"},
		},
		{
			name: "weekly on start weekday",
			p:    model.RecurrencePattern{Frequency: model.FreqWeekly},
			from: "2026-03-02", to: "2026-03-20",
			want: []string{"2026-03-02", "2026-03-09", "2026-03-16"},
		},
		{
			name: "monthly with count",
			p:    model.RecurrencePattern{Frequency: model.FreqMonthly, Count: 2},
			from: "2026-01-15", to: "2026-12-31",
			want: []string{"2026-01-15", "2026-02-15"},
		},
		{
			name: "until before end",
			p:    model.RecurrencePattern{Frequency: model.FreqDaily, Until: "2026-03-03"},
			from: "2026-03-01", to: "2026-03-31",
			want: []string{"2026-03-01", "2026-03-02", "2026-03-03"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.p, date(tt.from), date(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatDates(got))
		})
	}
}

func TestExpandErrors(t *testing.T) {
	_, err := Expand(model.RecurrencePattern{}, date("2026-03-02"), date("2026-03-01"))
	assert.ErrorIs(t, err, ErrBadRange)

	_, err = Expand(model.RecurrencePattern{Frequency: "hourly"}, date("2026-03-01"), date("2026-03-02"))
	assert.ErrorIs(t, err, ErrBadFrequency)

	_, err = ExpandWeekdays(date("2026-03-01"), date("2026-03-02"), []int{7})
	assert.ErrorIs(t, err, ErrBadWeekday)
}

func TestExpandFromKeepsAnchor(t *testing.T) {
	fortnightly := model.RecurrencePattern{Frequency: model.FreqWeekly, Interval: 2}

	// anchored on Monday 2 March, a window starting on the 9th skips the off weeks
	got, err := ExpandFrom(fortnightly, date("2026-03-02"), date("2026-03-09"), date("2026-04-05"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-16", "2026-03-30"}, formatDates(got))

	// anchoring on the window start shifts the series by a week
	got, err = Expand(fortnightly, date("2026-03-09"), date("2026-04-05"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-09", "2026-03-23"}, formatDates(got))

	// count is spent from the anchor, including occurrences before the window
	three := model.RecurrencePattern{Frequency: model.FreqWeekly, Count: 3}
	got, err = ExpandFrom(three, date("2026-03-02"), date("2026-03-09"), date("2026-04-30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-09", "2026-03-16"}, formatDates(got))

	// an anchor after the window start falls back to the start
	got, err = ExpandFrom(model.RecurrencePattern{}, date("2026-05-01"), date("2026-03-02"), date("2026-03-03"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSplitDropsPartialPiece(t *testing.T) {
	start, _ := model.ParseClock("09:00")
	end, _ := model.ParseClock("10:40")

	pieces, err := Split(start, end, 30)
	require.NoError(t, err)
	require.Len(t, pieces, 3)
	assert.Equal(t, "09:00", pieces[0].Start.String())
	assert.Equal(t, "10:30", pieces[2].End.String())

	_, err = Split(end, start, 30)
	assert.ErrorIs(t, err, ErrBadWindow)
	_, err = Split(start, start+20, 30)
	assert.ErrorIs(t, err, ErrNoSlots)
	_, err = Split(start, end, 0)
	assert.ErrorIs(t, err, ErrBadDuration)
}

func TestGenerate(t *testing.T) {
	start, _ := model.ParseClock("14:00")
	end, _ := model.ParseClock("15:00")
	dates := []time.Time{date("2026-03-02"), date("2026-03-04")}

	slots, err := Generate(dates, SlotTemplate{
		AgendaID: 3, StaffID: "staff-1", Start: start, End: end, Duration: 20,
		Capacity: 2, Location: "Room 4", MeetingType: model.MeetingOnline,
	})
	require.NoError(t, err)
	require.Len(t, slots, 6)
	for _, s := range slots {
		assert.Equal(t, int64(3), s.AgendaID)
		assert.Equal(t, 2, s.MaxCapacity)
		assert.Equal(t, model.SlotAvailable, s.Status)
		assert.Equal(t, model.MeetingOnline, s.MeetingType)
		assert.Equal(t, model.Clock(20), s.End-s.Start)
	}
	assert.Equal(t, "2026-03-04", slots[5].DateString())
	assert.Equal(t, "14:40", slots[5].Start.String())
}

func TestAppointmentsICS(t *testing.T) {
	s := slot(5, "2026-03-12", "09:00", 1, 1)
	s.Location = "Career Center"
	apts := []model.Appointment{
		{ID: 1, BookingReference: "ref-1", Status: model.AppointmentConfirmed, Slot: s},
		{ID: 2, BookingReference: "ref-2", Status: model.AppointmentCancelled, Slot: s},
	}
	out := AppointmentsICS(apts, time.UTC, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "appointment-ref-1@jobgate", first.Id())
	assert.Equal(t, "Resume Review", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Career Center", first.GetProperty(ical.ComponentPropertyLocation).Value)
	startAt, err := first.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), startAt.UTC())

	assert.Equal(t, "CANCELLED", events[1].GetProperty(ical.ComponentPropertyStatus).Value)
}

func TestSlotsICS(t *testing.T) {
	s := slot(8, "2026-03-12", "09:00", 4, 1)
	out := SlotsICS([]model.CalendarSlot{s}, time.UTC, time.Now())
	assert.Contains(t, out, "UID:slot-8@jobgate")
	assert.Contains(t, out, "Resume Review (1/4 booked)")
	assert.Contains(t, out, "STATUS:CONFIRMED")
}
