package model

import "time"

type UserType string

const (
	UserTalent          UserType = "talent"
	UserRecruiter       UserType = "recruiter"
	UserUniversityStaff UserType = "university_staff"
	UserAdmin           UserType = "admin"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTalent, UserRecruiter, UserUniversityStaff, UserAdmin:
		return true
	}
	return false
}

// Label is the display name used in API responses and emails.
func (t UserType) Label() string {
	switch t {
	case UserTalent:
		return "Talent"
	case UserRecruiter:
		return "Recruiter"
	case UserUniversityStaff:
		return "University Staff"
	case UserAdmin:
		return "Admin"
	}
	return string(t)
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Username     string
	FirstName    string
	LastName     string
	UserType     UserType
	Phone        string
	Timezone     string
	UniversityID *int64
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

type MeetingType string

const (
	MeetingInPerson MeetingType = "in_person"
	MeetingOnline   MeetingType = "online"
	MeetingPhone    MeetingType = "phone"
	// MeetingAny is only valid as a preference.
	MeetingAny MeetingType = "any"
)

func (m MeetingType) ValidForSlot() bool {
	return m == MeetingInPerson || m == MeetingOnline || m == MeetingPhone
}

func (m MeetingType) Label() string {
	switch m {
	case MeetingInPerson:
		return "In Person"
	case MeetingOnline:
		return "Online"
	case MeetingPhone:
		return "Phone"
	case MeetingAny:
		return "Any"
	}
	return string(m)
}

type UserPreferences struct {
	UserID                  string
	EmailRemindersEnabled   bool
	Reminder24hEnabled      bool
	Reminder1hEnabled       bool
	PreferredMeetingType    MeetingType
	Timezone                string
	Language                string
	NotificationPreferences map[string]any
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:                  userID,
		EmailRemindersEnabled:   true,
		Reminder24hEnabled:      true,
		Reminder1hEnabled:       true,
		PreferredMeetingType:    MeetingInPerson,
		Timezone:                "UTC",
		Language:                "en",
		NotificationPreferences: map[string]any{},
	}
}

type University struct {
	ID           int64
	Name         string
	Description  string
	Address      string
	City         string
	Country      string
	WebsiteURL   string
	ContactEmail string
	ContactPhone string
	LogoURL      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AppointmentTheme struct {
	ID          int64
	Name        string
	Description string
	ColorCode   string
	Icon        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
