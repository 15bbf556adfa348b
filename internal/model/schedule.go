package model

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD string as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateOf truncates t to its calendar date, keeping the wall-clock day of t's
// own location and returning it as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clock is a wall-clock time of day, stored as minutes after midnight.
type Clock int

var ErrBadClock = errors.New("time must be HH:MM")

func ParseClock(s string) (Clock, error) {
	if len(s) == len("15:04:05") {
		s = s[:5]
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrBadClock
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock on the given date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}

type RecurrenceFrequency string

const (
	FreqDaily   RecurrenceFrequency = "daily"
	FreqWeekly  RecurrenceFrequency = "weekly"
	FreqMonthly RecurrenceFrequency = "monthly"
)

// RecurrencePattern is the JSON document stored on recurring agendas.
// Weekdays use 0 = Sunday.
type RecurrencePattern struct {
	Frequency RecurrenceFrequency `json:"frequency,omitempty"`
	Interval  int                 `json:"interval,omitempty"`
	Weekdays  []int               `json:"weekdays,omitempty"`
	Count     int                 `json:"count,omitempty"`
	Until     string              `json:"until,omitempty"`
}

type CriteriaType string

const (
	CriteriaUniversity   CriteriaType = "university"
	CriteriaYearOfStudy  CriteriaType = "year_of_study"
	CriteriaFieldOfStudy CriteriaType = "field_of_study"
	CriteriaGPAMinimum   CriteriaType = "gpa_minimum"
)

func (c CriteriaType) Valid() bool {
	switch c {
	case CriteriaUniversity, CriteriaYearOfStudy, CriteriaFieldOfStudy, CriteriaGPAMinimum:
		return true
	}
	return false
}

type EligibilityCriterion struct {
	ID         int64
	AgendaID   int64
	Type       CriteriaType
	Value      string
	IsRequired bool
}

type StaffRole string

const (
	RoleAdvisor     StaffRole = "advisor"
	RoleCoordinator StaffRole = "coordinator"
	RoleAssistant   StaffRole = "assistant"
)

func (r StaffRole) Valid() bool {
	return r == RoleAdvisor || r == RoleCoordinator || r == RoleAssistant
}

type StaffAssignment struct {
	ID        int64
	AgendaID  int64
	StaffID   string
	StaffName string
	Role      StaffRole
	IsPrimary bool
	CreatedAt time.Time
}

// Agenda is an appointment-type template offered by a university.
type Agenda struct {
	ID                        int64
	UniversityID              int64
	UniversityName            string
	CreatedBy                 string
	Name                      string
	Description               string
	ThemeID                   int64
	ThemeName                 string
	ThemeColor                string
	SlotDurationMinutes       int
	MaxCapacityPerSlot        int
	StartDate                 time.Time
	EndDate                   time.Time
	IsRecurring               bool
	Recurrence                RecurrencePattern
	BookingDeadlineHours      int
	CancellationDeadlineHours int
	IsActive                  bool
	Criteria                  []EligibilityCriterion
	Staff                     []StaffAssignment
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotFullyBooked SlotStatus = "fully_booked"
	SlotCancelled   SlotStatus = "cancelled"
	SlotBlocked     SlotStatus = "blocked"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotFullyBooked, SlotCancelled, SlotBlocked:
		return true
	}
	return false
}

// CalendarSlot is one bookable time window generated under an Agenda.
type CalendarSlot struct {
	ID              int64
	AgendaID        int64
	AgendaName      string
	ThemeID         int64
	UniversityID    int64
	StaffID         string
	StaffName       string
	Date            time.Time
	Start           Clock
	End             Clock
	MaxCapacity     int
	CurrentBookings int
	Status          SlotStatus
	Notes           string
	Location        string
	MeetingType     MeetingType
	MeetingLink     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *CalendarSlot) DateString() string {
	return s.Date.Format(DateLayout)
}

func (s *CalendarSlot) Remaining() int {
	return s.MaxCapacity - s.CurrentBookings
}

func (s *CalendarSlot) StartsAt(loc *time.Location) time.Time {
	return s.Start.On(s.Date, loc)
}

func (s *CalendarSlot) EndsAt(loc *time.Location) time.Time {
	return s.End.On(s.Date, loc)
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled,
		AppointmentCompleted, AppointmentNoShow:
		return true
	}
	return false
}

// Appointment is a talent's booking against a CalendarSlot. Slot is the
// joined slot row as it was when the appointment was loaded.
type Appointment struct {
	ID               int64
	SlotID           int64
	Slot             CalendarSlot
	TalentID         string
	TalentName       string
	TalentEmail      string
	BookingReference string
	Status           AppointmentStatus
	TalentNotes      string
	StaffNotes       string
	Rating           *int
	Feedback         string
	Reminder24hSent  bool
	Reminder1hSent   bool
	ConfirmationSent bool
	BookedAt         time.Time
	CancelledAt      *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ReminderType string

const (
	ReminderConfirmation ReminderType = "confirmation"
	Reminder24Hour       ReminderType = "24_hour"
	Reminder1Hour        ReminderType = "1_hour"
	ReminderCancellation ReminderType = "cancellation"
	ReminderFollowUp     ReminderType = "follow_up"
)

type EmailReminder struct {
	ID             int64
	AppointmentID  int64
	Type           ReminderType
	RecipientEmail string
	Subject        string
	Status         string
	ErrorMessage   string
	SentAt         time.Time
}

type ThemeStatistics struct {
	ThemeName string
	Count     int
	Completed int
	Cancelled int
}

type Statistics struct {
	TotalAppointments     int
	ConfirmedAppointments int
	CompletedAppointments int
	CancelledAppointments int
	NoShowAppointments    int
	UniqueTalents         int
	AverageRating         *float64
	TotalDurationMinutes  int
	ByTheme               []ThemeStatistics
}

// DailyStatistics is the rollup row for one university, theme and day.
type DailyStatistics struct {
	UniversityID         int64
	ThemeID              int64
	Date                 time.Time
	TotalSlots           int
	BookedSlots          int
	Completed            int
	Cancelled            int
	NoShow               int
	TotalDurationMinutes int
	UniqueTalents        int
	AverageRating        *float64
}
