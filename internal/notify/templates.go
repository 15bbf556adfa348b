package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"jobgate-appointment-api/internal/model"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type emailData struct {
	TalentName                string
	Reference                 string
	AgendaName                string
	Date                      string
	Start                     string
	End                       string
	Location                  string
	MeetingType               string
	MeetingLink               string
	University                string
	CancellationDeadlineHours int
}

const details = `- Reference: {{.Reference}}
- Agenda: {{.AgendaName}}
- Date: {{.Date}}
- Time: {{.Start}} - {{.End}}`

const placeDetails = details + `
- Location: {{.Location}}
- Meeting Type: {{.MeetingType}}`

var bodies = template.Must(template.New("").Parse(`
{{define "confirmation"}}Dear {{.TalentName}},

Your appointment has been confirmed!

Appointment Details:
` + placeDetails + `

University: {{.University}}

If you need to cancel or reschedule, please contact us at least {{.CancellationDeadlineHours}} hours before your appointment.

Best regards,
JOBGATE Team
{{end}}
{{define "24_hour"}}Dear {{.TalentName}},

This is a reminder that you have an appointment scheduled for tomorrow.

Appointment Details:
` + placeDetails + `
{{if .MeetingLink}}
Meeting Link: {{.MeetingLink}}
{{end}}
Please make sure to arrive on time. If you need to cancel, please do so at least {{.CancellationDeadlineHours}} hours before your appointment.

Best regards,
JOBGATE Team
{{end}}
{{define "1_hour"}}Dear {{.TalentName}},

This is a reminder that you have an appointment in 1 hour.

Appointment Details:
` + placeDetails + `
{{if .MeetingLink}}
Meeting Link: {{.MeetingLink}}
{{end}}
Please make sure to arrive on time.

Best regards,
JOBGATE Team
{{end}}
{{define "cancellation"}}Dear {{.TalentName}},

Your appointment cancellation has been confirmed.

Cancelled Appointment Details:
` + details + `

You can book a new appointment anytime through our platform.

Best regards,
JOBGATE Team
{{end}}
{{define "cancellation_staff"}}Dear {{.TalentName}},

We regret to inform you that your appointment has been cancelled by the university staff.

Cancelled Appointment Details:
` + details + `

Please contact us to reschedule your appointment.

We apologize for any inconvenience caused.

Best regards,
JOBGATE Team
{{end}}`))

var subjects = map[model.ReminderType]string{
	model.ReminderConfirmation: "Appointment Confirmation - %s",
	model.Reminder24Hour:       "Reminder: Appointment Tomorrow - %s",
	model.Reminder1Hour:        "Reminder: Appointment in 1 Hour - %s",
	model.ReminderCancellation: "Appointment Cancelled - %s",
}

// Render builds the email for one appointment. byStaff only changes the
// cancellation wording.
func Render(t model.ReminderType, a *model.Appointment, ag *model.Agenda, byStaff bool) (Message, error) {
	subject, ok := subjects[t]
	if !ok {
		return Message{}, fmt.Errorf("no template for %q", t)
	}
	name := string(t)
	if t == model.ReminderCancellation && byStaff {
		name = "cancellation_staff"
	}

	d := emailData{
		TalentName:  a.TalentName,
		Reference:   a.BookingReference,
		AgendaName:  a.Slot.AgendaName,
		Date:        a.Slot.DateString(),
		Start:       a.Slot.Start.String(),
		End:         a.Slot.End.String(),
		Location:    a.Slot.Location,
		MeetingType: a.Slot.MeetingType.Label(),
		MeetingLink: a.Slot.MeetingLink,
	}
	if d.Location == "" {
		d.Location = "TBD"
	}
	if ag != nil {
		d.University = ag.UniversityName
		d.CancellationDeadlineHours = ag.CancellationDeadlineHours
	}

	var b bytes.Buffer
	if err := bodies.ExecuteTemplate(&b, name, d); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{
		To:      a.TalentEmail,
		Subject: fmt.Sprintf(subject, a.BookingReference),
		Body:    strings.TrimLeft(b.String(), "\n"),
	}, nil
}
