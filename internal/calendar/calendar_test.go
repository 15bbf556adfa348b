package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgate-appointment-api/internal/model"
)

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func slot(id int64, day string, start string, capacity, booked int) model.CalendarSlot {
	c, _ := model.ParseClock(start)
	return model.CalendarSlot{
		ID:              id,
		AgendaName:      "Resume Review",
		Date:            date(day),
		Start:           c,
		End:             c + 30,
		MaxCapacity:     capacity,
		CurrentBookings: booked,
		Status:          model.SlotAvailable,
	}
}

func TestMonthDays(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		n     int
	}{
		{2026, time.January, 31},
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2026, time.April, 30},
	}
	for _, tt := range tests {
		days := MonthDays(tt.year, tt.month)
		require.Len(t, days, tt.n)
		assert.Equal(t, 1, days[0].Day())
		assert.Equal(t, tt.n, days[len(days)-1].Day())
		for i := 1; i < len(days); i++ {
			assert.Equal(t, 24*time.Hour, days[i].Sub(days[i-1]))
		}
	}
}

func TestSlotsOnMatchesExactDate(t *testing.T) {
	slots := []model.CalendarSlot{
		slot(1, "2026-03-09", "09:00", 1, 0),
		slot(2, "2026-03-10", "09:00", 1, 0),
		slot(3, "2026-03-10", "10:00", 1, 0),
		slot(4, "2026-04-10", "10:00", 1, 0),
	}

	got := SlotsOn(slots, date("2026-03-10"))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	assert.Empty(t, SlotsOn(slots, date("2026-03-11")))
}

func TestEverySlotLandsOnItsDay(t *testing.T) {
	var slots []model.CalendarSlot
	for i, d := range []string{"2026-05-01", "2026-05-01", "2026-05-17", "2026-05-31", "2026-06-01"} {
		slots = append(slots, slot(int64(i+1), d, "08:00", 3, 0))
	}
	m := BuildMonth(MonthRequest{Year: 2026, Month: time.May, Slots: slots})

	seen := 0
	for _, d := range m.Days {
		for _, sv := range d.Slots {
			assert.Equal(t, d.Date.Format(model.DateLayout), sv.Slot.DateString())
			seen++
		}
	}
	assert.Equal(t, 4, seen)
}

func TestAppointmentsOn(t *testing.T) {
	apts := []model.Appointment{
		{ID: 1, Slot: slot(1, "2026-03-10", "09:00", 1, 1)},
		{ID: 2, Slot: slot(2, "2026-03-11", "09:00", 1, 1)},
	}
	got := AppointmentsOn(apts, date("2026-03-11"))
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestCapacityStatus(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		booked   int
		status   model.SlotStatus
		want     Status
	}{
		{"none left", 5, 5, model.SlotFullyBooked, StatusFull},
		{"overbooked", 2, 3, model.SlotFullyBooked, StatusFull},
		{"one left", 5, 4, model.SlotAvailable, StatusLimited},
		{"two left", 5, 3, model.SlotAvailable, StatusLimited},
		{"three left", 5, 2, model.SlotAvailable, StatusAvailable},
		{"single seat free", 1, 0, model.SlotAvailable, StatusLimited},
		{"cancelled", 10, 0, model.SlotCancelled, StatusInactive},
		{"blocked", 10, 0, model.SlotBlocked, StatusInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := slot(1, "2026-03-10", "09:00", tt.capacity, tt.booked)
			s.Status = tt.status
			assert.Equal(t, tt.want, CapacityStatus(&s))
		})
	}
}

func TestFilterByTheme(t *testing.T) {
	agendas := []model.Agenda{{ID: 1, ThemeID: 1}, {ID: 2, ThemeID: 2}, {ID: 3, ThemeID: 1}}
	got := FilterAgendasByTheme(agendas, 1)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, int64(1), a.ThemeID)
	}
	assert.Len(t, FilterAgendasByTheme(agendas, 0), 3)
	assert.Empty(t, FilterAgendasByTheme(agendas, 9))

	slots := []model.CalendarSlot{{ID: 1, ThemeID: 4}, {ID: 2, ThemeID: 5}}
	gotSlots := FilterSlotsByTheme(slots, 5)
	require.Len(t, gotSlots, 1)
	assert.Equal(t, int64(2), gotSlots[0].ID)
	assert.Len(t, FilterSlotsByTheme(slots, 0), 2)
}

func TestBuildMonthLayout(t *testing.T) {
	m := BuildMonth(MonthRequest{
		Year:  2026,
		Month: time.March,
		Today: time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, "March 2026", m.Title)
	// 1 March 2026 is a Sunday
	assert.Equal(t, 0, m.LeadingBlanks)
	assert.Equal(t, time.February, m.Prev.Month())
	assert.Equal(t, time.April, m.Next.Month())
	require.Len(t, m.Days, 31)

	for _, d := range m.Days {
		assert.Equal(t, d.Date.Day() == 10, d.IsToday, d.Date)
	}
	assert.Len(t, m.Legend, 3)

	jan := BuildMonth(MonthRequest{Year: 2026, Month: time.January})
	// 1 January 2026 is a Thursday
	assert.Equal(t, 4, jan.LeadingBlanks)
	assert.Equal(t, 2025, jan.Prev.Year())
	assert.Equal(t, time.December, jan.Prev.Month())
}

func TestBuildMonthOverflow(t *testing.T) {
	var slots []model.CalendarSlot
	for i, start := range []string{"09:00", "09:30", "10:00", "10:30"} {
		slots = append(slots, slot(int64(i+1), "2026-03-12", start, 5, 0))
	}
	apts := []model.Appointment{{ID: 1, Slot: slot(9, "2026-03-12", "11:00", 1, 1)}}

	m := BuildMonth(MonthRequest{
		Year: 2026, Month: time.March,
		Slots: slots, Appointments: apts, ShowAppointments: true,
	})
	d := m.Days[11]
	require.Len(t, d.Slots, 4)
	require.Len(t, d.Appointments, 1)
	assert.Equal(t, 3, d.VisibleSlots)
	assert.Equal(t, 1, d.VisibleAppointments)
	assert.Equal(t, 2, d.More)
	assert.Equal(t, StatusMine, m.Legend[len(m.Legend)-1].Status)

	staff := BuildMonth(MonthRequest{Year: 2026, Month: time.March, Slots: slots, Appointments: apts})
	assert.Empty(t, staff.Days[11].Appointments)
	assert.Equal(t, 1, staff.Days[11].More)
	assert.Len(t, staff.Legend, 3)
}

func TestBuildMonthThemeFilter(t *testing.T) {
	a := slot(1, "2026-03-12", "09:00", 5, 0)
	a.ThemeID = 1
	b := slot(2, "2026-03-12", "10:00", 5, 5)
	b.ThemeID = 2

	m := BuildMonth(MonthRequest{Year: 2026, Month: time.March, Slots: []model.CalendarSlot{a, b}, ThemeID: 2})
	require.Len(t, m.Days[11].Slots, 1)
	assert.Equal(t, StatusFull, m.Days[11].Slots[0].Status)
	assert.Equal(t, 0, m.Days[11].Slots[0].Remaining)
}

func TestEventsSorted(t *testing.T) {
	slots := []model.CalendarSlot{slot(1, "2026-03-12", "10:00", 5, 4)}
	apts := []model.Appointment{{ID: 7, Status: model.AppointmentConfirmed, Slot: slot(2, "2026-03-12", "09:00", 1, 1)}}

	evs := Events(slots, apts, time.UTC)
	require.Len(t, evs, 2)
	assert.Equal(t, "appointment-7", evs[0].ID)
	assert.Equal(t, "confirmed", evs[0].Status)
	assert.Equal(t, EventSlot, evs[1].Type)
	assert.Equal(t, "limited", evs[1].Status)
	assert.Equal(t, 30*time.Minute, evs[1].End.Sub(evs[1].Start))
}
