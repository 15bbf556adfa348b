package rpc

import "time"

// Dates travel as YYYY-MM-DD and wall-clock times as HH:MM throughout.

type Empty struct{}

type IDRequest struct {
	ID int64 `json:"id" uri:"id"`
}

// ---- auth ----

type RegisterRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	UserType     string `json:"user_type"`
	Phone        string `json:"phone,omitempty"`
	UniversityID *int64 `json:"university_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// ---- users ----

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	FullName        string     `json:"full_name"`
	UserType        string     `json:"user_type"`
	UserTypeDisplay string     `json:"user_type_display"`
	Phone           string     `json:"phone,omitempty"`
	Timezone        string     `json:"timezone,omitempty"`
	UniversityID    *int64     `json:"university_id,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
}

type Preferences struct {
	EmailRemindersEnabled   bool           `json:"email_reminders_enabled"`
	Reminder24hEnabled      bool           `json:"reminder_24h_enabled"`
	Reminder1hEnabled       bool           `json:"reminder_1h_enabled"`
	PreferredMeetingType    string         `json:"preferred_meeting_type"`
	Timezone                string         `json:"timezone"`
	Language                string         `json:"language"`
	NotificationPreferences map[string]any `json:"notification_preferences"`
}

type UpdatePreferencesRequest struct {
	EmailRemindersEnabled   *bool          `json:"email_reminders_enabled,omitempty"`
	Reminder24hEnabled      *bool          `json:"reminder_24h_enabled,omitempty"`
	Reminder1hEnabled       *bool          `json:"reminder_1h_enabled,omitempty"`
	PreferredMeetingType    *string        `json:"preferred_meeting_type,omitempty"`
	Timezone                *string        `json:"timezone,omitempty"`
	Language                *string        `json:"language,omitempty"`
	NotificationPreferences map[string]any `json:"notification_preferences,omitempty"`
}

type ListUsersRequest struct {
	UserType     string `json:"user_type,omitempty" form:"user_type"`
	UniversityID int64  `json:"university_id,omitempty" form:"university_id"`
}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

// ---- universities and themes ----

type University struct {
	ID           int64  `json:"id" uri:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
	WebsiteURL   string `json:"website_url,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	IsActive     bool   `json:"is_active"`
}

type ListUniversitiesRequest struct {
	IncludeInactive bool `json:"include_inactive,omitempty" form:"include_inactive"`
}

type ListUniversitiesResponse struct {
	Universities []*University `json:"universities"`
}

type Theme struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ColorCode   string `json:"color_code,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type ListThemesResponse struct {
	Themes []*Theme `json:"themes"`
}

// ---- agendas ----

type Criterion struct {
	ID         int64  `json:"id,omitempty"`
	Type       string `json:"criteria_type"`
	Value      string `json:"criteria_value"`
	IsRequired bool   `json:"is_required"`
}

type StaffAssignment struct {
	ID        int64  `json:"id,omitempty"`
	AgendaID  int64  `json:"agenda_id,omitempty" uri:"id"`
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name,omitempty"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

type Recurrence struct {
	Frequency string `json:"frequency,omitempty"`
	Interval  int    `json:"interval,omitempty"`
	Weekdays  []int  `json:"weekdays,omitempty"`
	Count     int    `json:"count,omitempty"`
	Until     string `json:"until,omitempty"`
}

type Agenda struct {
	ID                        int64              `json:"id"`
	UniversityID              int64              `json:"university_id"`
	UniversityName            string             `json:"university_name,omitempty"`
	CreatedBy                 string             `json:"created_by,omitempty"`
	Name                      string             `json:"name"`
	Description               string             `json:"description,omitempty"`
	ThemeID                   int64              `json:"theme_id"`
	ThemeName                 string             `json:"theme_name,omitempty"`
	ThemeColor                string             `json:"theme_color,omitempty"`
	SlotDurationMinutes       int                `json:"slot_duration_minutes"`
	MaxCapacityPerSlot        int                `json:"max_capacity_per_slot"`
	StartDate                 string             `json:"start_date"`
	EndDate                   string             `json:"end_date"`
	IsRecurring               bool               `json:"is_recurring"`
	Recurrence                *Recurrence        `json:"recurrence_pattern,omitempty"`
	BookingDeadlineHours      int                `json:"booking_deadline_hours"`
	CancellationDeadlineHours int                `json:"cancellation_deadline_hours"`
	IsActive                  bool               `json:"is_active"`
	Criteria                  []*Criterion       `json:"eligibility_criteria,omitempty"`
	Staff                     []*StaffAssignment `json:"staff_assignments,omitempty"`
}

type ListAgendasRequest struct {
	UniversityID int64  `json:"university_id,omitempty" form:"university_id"`
	ThemeID      int64  `json:"theme_id,omitempty" form:"theme_id"`
	Search       string `json:"search,omitempty" form:"search"`
}

type ListAgendasResponse struct {
	Agendas []*Agenda `json:"agendas"`
}

type UpdateAgendaRequest struct {
	ID                        int64       `json:"id" uri:"id"`
	Name                      *string     `json:"name,omitempty"`
	Description               *string     `json:"description,omitempty"`
	ThemeID                   *int64      `json:"theme_id,omitempty"`
	SlotDurationMinutes       *int        `json:"slot_duration_minutes,omitempty"`
	MaxCapacityPerSlot        *int        `json:"max_capacity_per_slot,omitempty"`
	StartDate                 *string     `json:"start_date,omitempty"`
	EndDate                   *string     `json:"end_date,omitempty"`
	IsRecurring               *bool       `json:"is_recurring,omitempty"`
	Recurrence                *Recurrence `json:"recurrence_pattern,omitempty"`
	BookingDeadlineHours      *int        `json:"booking_deadline_hours,omitempty"`
	CancellationDeadlineHours *int        `json:"cancellation_deadline_hours,omitempty"`
	IsActive                  *bool       `json:"is_active,omitempty"`
}

// ---- slots ----

type Slot struct {
	ID              int64  `json:"id"`
	AgendaID        int64  `json:"agenda_id"`
	AgendaName      string `json:"agenda_name,omitempty"`
	ThemeID         int64  `json:"theme_id,omitempty"`
	StaffID         string `json:"staff_id"`
	StaffName       string `json:"staff_name,omitempty"`
	SlotDate        string `json:"slot_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	MaxCapacity     int    `json:"max_capacity"`
	CurrentBookings int    `json:"current_bookings"`
	AvailableSpots  int    `json:"available_spots"`
	IsAvailable     bool   `json:"is_available"`
	CapacityStatus  string `json:"capacity_status,omitempty"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	Location        string `json:"location,omitempty"`
	MeetingType     string `json:"meeting_type"`
	MeetingLink     string `json:"meeting_link,omitempty"`
}

type ListSlotsRequest struct {
	AgendaID     int64  `json:"agenda_id,omitempty" form:"agenda_id"`
	StaffID      string `json:"staff_id,omitempty" form:"staff_id"`
	UniversityID int64  `json:"university_id,omitempty" form:"university_id"`
	ThemeID      int64  `json:"theme_id,omitempty" form:"theme_id"`
	Status       string `json:"status,omitempty" form:"status"`
	DateFrom     string `json:"date_from,omitempty" form:"date_from"`
	DateTo       string `json:"date_to,omitempty" form:"date_to"`
}

type ListSlotsResponse struct {
	Slots []*Slot `json:"slots"`
}

type UpdateSlotRequest struct {
	ID          int64   `json:"id" uri:"id"`
	StaffID     *string `json:"staff_id,omitempty"`
	SlotDate    *string `json:"slot_date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	Status      *string `json:"status,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Location    *string `json:"location,omitempty"`
	MeetingType *string `json:"meeting_type,omitempty"`
	MeetingLink *string `json:"meeting_link,omitempty"`
}

type AvailableSlotsRequest struct {
	AgendaID int64 `json:"agenda_id" form:"agenda_id"`
}

// BulkCreateSlotsRequest cuts [StartTime, EndTime) into agenda-length slots
// on every matching date. Dates come from DaysOfWeek (0 = Sunday) or, when
// UseRecurrence is set, from the agenda's recurrence pattern.
type BulkCreateSlotsRequest struct {
	AgendaID      int64  `json:"agenda_id"`
	StaffID       string `json:"staff_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DaysOfWeek    []int  `json:"days_of_week,omitempty"`
	UseRecurrence bool   `json:"use_recurrence,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	MaxCapacity   int    `json:"max_capacity,omitempty"`
	Location      string `json:"location,omitempty"`
	MeetingType   string `json:"meeting_type,omitempty"`
	MeetingLink   string `json:"meeting_link,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type BulkCreateSlotsResponse struct {
	Created int     `json:"created"`
	Slots   []*Slot `json:"slots"`
}

type CheckConflictsRequest struct {
	StaffID   string `json:"staff_id"`
	SlotDate  string `json:"slot_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ExcludeID int64  `json:"exclude_id,omitempty"`
}

type CheckConflictsResponse struct {
	HasConflicts bool    `json:"has_conflicts"`
	Conflicts    []*Slot `json:"conflicts"`
}

// ---- calendar ----

type MonthViewRequest struct {
	Year     int   `json:"year" form:"year"`
	Month    int   `json:"month" form:"month"`
	ThemeID  int64 `json:"theme_id,omitempty" form:"theme_id"`
	AgendaID int64 `json:"agenda_id,omitempty" form:"agenda_id"`
}

type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type LegendEntry struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

type CalendarDay struct {
	Date                string         `json:"date"`
	IsToday             bool           `json:"is_today"`
	Slots               []*Slot        `json:"slots"`
	Appointments        []*Appointment `json:"appointments,omitempty"`
	VisibleSlots        int            `json:"visible_slots"`
	VisibleAppointments int            `json:"visible_appointments"`
	More                int            `json:"more"`
}

type MonthView struct {
	Title         string         `json:"title"`
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	LeadingBlanks int            `json:"leading_blanks"`
	Prev          MonthRef       `json:"prev"`
	Next          MonthRef       `json:"next"`
	Days          []*CalendarDay `json:"days"`
	Legend        []*LegendEntry `json:"legend"`
}

type CalendarEventsRequest struct {
	StartDate string `json:"start_date" form:"start_date"`
	EndDate   string `json:"end_date" form:"end_date"`
}

type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	Status   string    `json:"status"`
}

type CalendarEventsResponse struct {
	Events []*Event `json:"events"`
}

// ---- appointments ----

type Appointment struct {
	ID               int64      `json:"id"`
	Slot             *Slot      `json:"slot"`
	TalentID         string     `json:"talent_id"`
	TalentName       string     `json:"talent_name,omitempty"`
	TalentEmail      string     `json:"talent_email,omitempty"`
	BookingReference string     `json:"booking_reference"`
	Status           string     `json:"status"`
	TalentNotes      string     `json:"talent_notes,omitempty"`
	StaffNotes       string     `json:"staff_notes,omitempty"`
	Rating           *int       `json:"rating,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	CanCancel        bool       `json:"can_cancel"`
	BookedAt         time.Time  `json:"booked_at"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	// Emails is only filled for staff on a single appointment.
	Emails []*EmailLog `json:"emails,omitempty"`
}

type EmailLog struct {
	Type      string    `json:"reminder_type"`
	Recipient string    `json:"recipient_email"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Error     string    `json:"error_message,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

type ListAppointmentsRequest struct {
	Status   string `json:"status,omitempty" form:"status"`
	SlotID   int64  `json:"slot_id,omitempty" form:"slot_id"`
	DateFrom string `json:"date_from,omitempty" form:"date_from"`
	DateTo   string `json:"date_to,omitempty" form:"date_to"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type BookAppointmentRequest struct {
	SlotID      int64  `json:"calendar_slot"`
	TalentNotes string `json:"talent_notes,omitempty"`
}

type CancelAppointmentRequest struct {
	ID     int64  `json:"id" uri:"id"`
	Reason string `json:"reason,omitempty"`
}

type UpdateAppointmentRequest struct {
	ID         int64   `json:"id" uri:"id"`
	Status     string  `json:"status,omitempty"`
	StaffNotes *string `json:"staff_notes,omitempty"`
}

type FeedbackRequest struct {
	ID       int64  `json:"id" uri:"id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

type SendReminderRequest struct {
	ID           int64  `json:"id" uri:"id"`
	ReminderType string `json:"reminder_type"`
}

type SendReminderResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

type ExportRequest struct {
	Status   string `json:"status,omitempty" form:"status"`
	DateFrom string `json:"date_from,omitempty" form:"date_from"`
	DateTo   string `json:"date_to,omitempty" form:"date_to"`
}

// File is a rendered download; the gateway writes Data as the body.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ---- statistics ----

type StatisticsRequest struct {
	UniversityID int64  `json:"university_id,omitempty" form:"university_id"`
	DateFrom     string `json:"date_from,omitempty" form:"date_from"`
	DateTo       string `json:"date_to,omitempty" form:"date_to"`
}

type ThemeCount struct {
	Theme     string `json:"theme"`
	Count     int    `json:"count"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
}

// DayCount is one day of the nightly rollup, summed over themes.
type DayCount struct {
	Date        string `json:"date"`
	TotalSlots  int    `json:"total_slots"`
	BookedSlots int    `json:"booked_slots"`
	Completed   int    `json:"completed"`
	Cancelled   int    `json:"cancelled"`
	NoShow      int    `json:"no_show"`
}

type Statistics struct {
	DateFrom              string        `json:"date_from"`
	DateTo                string        `json:"date_to"`
	TotalAppointments     int           `json:"total_appointments"`
	ConfirmedAppointments int           `json:"confirmed_appointments"`
	CompletedAppointments int           `json:"completed_appointments"`
	CancelledAppointments int           `json:"cancelled_appointments"`
	NoShowAppointments    int           `json:"no_show_appointments"`
	UniqueTalents         int           `json:"unique_talents"`
	AverageRating         *float64      `json:"average_rating"`
	TotalDurationMinutes  int           `json:"total_duration_minutes"`
	CompletionRate        float64       `json:"completion_rate"`
	ByTheme               []*ThemeCount `json:"by_theme"`
	Daily                 []*DayCount   `json:"daily"`
}
