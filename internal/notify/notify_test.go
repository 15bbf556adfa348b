package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgate-appointment-api/internal/model"
	"jobgate-appointment-api/internal/notify"
)

func appointment(id int64) *model.Appointment {
	return &model.Appointment{
		ID:               id,
		TalentName:       "Amina Benali",
		TalentEmail:      "amina@example.com",
		BookingReference: "ref-123",
		Status:           model.AppointmentConfirmed,
		Slot: model.CalendarSlot{
			AgendaID:    9,
			AgendaName:  "CV Review",
			Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Start:       9 * 60,
			End:         9*60 + 30,
			MeetingType: model.MeetingOnline,
		},
	}
}

func agenda() *model.Agenda {
	return &model.Agenda{ID: 9, UniversityName: "Université Mohammed V", CancellationDeadlineHours: 12}
}

func TestRenderConfirmation(t *testing.T) {
	m, err := notify.Render(model.ReminderConfirmation, appointment(1), agenda(), false)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", m.To)
	assert.Equal(t, "Appointment Confirmation - ref-123", m.Subject)
	assert.Contains(t, m.Body, "Dear Amina Benali,")
	assert.Contains(t, m.Body, "Your appointment has been confirmed!")
	assert.Contains(t, m.Body, "- Time: 09:00 - 09:30")
	assert.Contains(t, m.Body, "- Location: TBD")
	assert.Contains(t, m.Body, "- Meeting Type: Online")
	assert.Contains(t, m.Body, "University: Université Mohammed V")
	assert.Contains(t, m.Body, "at least 12 hours")
	assert.Contains(t, m.Body, "JOBGATE Team")
}

func TestRenderReminderLink(t *testing.T) {
	a := appointment(1)
	m, err := notify.Render(model.Reminder24Hour, a, agenda(), false)
	require.NoError(t, err)
	assert.Equal(t, "Reminder: Appointment Tomorrow - ref-123", m.Subject)
	assert.NotContains(t, m.Body, "Meeting Link")

	a.Slot.MeetingLink = "https://meet.example.com/x"
	m, err = notify.Render(model.Reminder1Hour, a, agenda(), false)
	require.NoError(t, err)
	assert.Equal(t, "Reminder: Appointment in 1 Hour - ref-123", m.Subject)
	assert.Contains(t, m.Body, "Meeting Link: https://meet.example.com/x")
	assert.Contains(t, m.Body, "appointment in 1 hour")
}

func TestRenderCancellation(t *testing.T) {
	m, err := notify.Render(model.ReminderCancellation, appointment(1), agenda(), false)
	require.NoError(t, err)
	assert.Equal(t, "Appointment Cancelled - ref-123", m.Subject)
	assert.Contains(t, m.Body, "cancellation has been confirmed")

	m, err = notify.Render(model.ReminderCancellation, appointment(1), agenda(), true)
	require.NoError(t, err)
	assert.Contains(t, m.Body, "cancelled by the university staff")
	assert.NotContains(t, m.Body, "Location:")
}

func TestRenderUnknownType(t *testing.T) {
	_, err := notify.Render(model.ReminderFollowUp, appointment(1), agenda(), false)
	assert.Error(t, err)
}

type fakeStore struct {
	mu       sync.Mutex
	flags    map[int64]map[model.ReminderType]bool
	logs     []model.EmailReminder
	statuses map[int64]model.AppointmentStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		flags:    map[int64]map[model.ReminderType]bool{},
		statuses: map[int64]model.AppointmentStatus{},
	}
}

func (f *fakeStore) GetAppointment(_ context.Context, id int64) (*model.Appointment, error) {
	if id == 404 {
		return nil, errors.New("not found")
	}
	a := appointment(id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.statuses[id]; ok {
		a.Status = st
	}
	return a, nil
}

func (f *fakeStore) GetAgenda(context.Context, int64) (*model.Agenda, error) {
	return agenda(), nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id int64, t model.ReminderType) (bool, error) {
	if t == model.ReminderCancellation {
		return true, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flags[id] == nil {
		f.flags[id] = map[model.ReminderType]bool{}
	}
	if f.flags[id][t] {
		return false, nil
	}
	f.flags[id][t] = true
	return true, nil
}

func (f *fakeStore) ClearReminderFlag(_ context.Context, id int64, t model.ReminderType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flags[id], t)
	return nil
}

func (f *fakeStore) LogReminder(_ context.Context, r *model.EmailReminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *r)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	fail error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestSendIsIdempotentPerFlag(t *testing.T) {
	st, mail := newFakeStore(), &recordingMailer{}
	d := notify.NewDispatcher(st, mail, 1, 1)
	ctx := context.Background()

	require.NoError(t, d.Send(ctx, notify.Job{AppointmentID: 1, Type: model.Reminder24Hour}))
	err := d.Send(ctx, notify.Job{AppointmentID: 1, Type: model.Reminder24Hour})
	assert.ErrorIs(t, err, notify.ErrAlreadySent)
	assert.Len(t, mail.sent, 1)

	require.NoError(t, d.Send(ctx, notify.Job{AppointmentID: 1, Type: model.Reminder24Hour, Force: true}))
	assert.Len(t, mail.sent, 2)

	// cancellations have no flag and always go out
	require.NoError(t, d.Send(ctx, notify.Job{AppointmentID: 1, Type: model.ReminderCancellation}))
	require.NoError(t, d.Send(ctx, notify.Job{AppointmentID: 1, Type: model.ReminderCancellation}))
	assert.Len(t, mail.sent, 4)
	assert.Len(t, st.logs, 4)
}

func TestSendFailureIsLogged(t *testing.T) {
	st := newFakeStore()
	mail := &recordingMailer{fail: errors.New("relay down")}
	d := notify.NewDispatcher(st, mail, 1, 1)

	err := d.Send(context.Background(), notify.Job{AppointmentID: 2, Type: model.ReminderConfirmation})
	require.Error(t, err)
	require.Len(t, st.logs, 1)
	assert.Equal(t, "failed", st.logs[0].Status)
	assert.Equal(t, "relay down", st.logs[0].ErrorMessage)
}

func TestFailedSendIsRetried(t *testing.T) {
	st := newFakeStore()
	mail := &recordingMailer{fail: errors.New("relay down")}
	d := notify.NewDispatcher(st, mail, 1, 1)
	ctx := context.Background()
	job := notify.Job{AppointmentID: 3, Type: model.Reminder24Hour}

	require.EqualError(t, d.Send(ctx, job), "relay down")

	mail.mu.Lock()
	mail.fail = nil
	mail.mu.Unlock()
	require.NoError(t, d.Send(ctx, job))
	assert.Len(t, mail.sent, 1)

	// delivered now, so the flag sticks
	assert.ErrorIs(t, d.Send(ctx, job), notify.ErrAlreadySent)
	require.Len(t, st.logs, 2)
	assert.Equal(t, "failed", st.logs[0].Status)
	assert.Equal(t, "sent", st.logs[1].Status)
}

func TestSendSkipsInactiveAppointments(t *testing.T) {
	st, mail := newFakeStore(), &recordingMailer{}
	st.statuses[5] = model.AppointmentCancelled
	st.statuses[6] = model.AppointmentCompleted
	d := notify.NewDispatcher(st, mail, 1, 1)
	ctx := context.Background()

	for _, typ := range []model.ReminderType{model.ReminderConfirmation, model.Reminder24Hour, model.Reminder1Hour} {
		assert.ErrorIs(t, d.Send(ctx, notify.Job{AppointmentID: 5, Type: typ}), notify.ErrInactive, typ)
		assert.ErrorIs(t, d.Send(ctx, notify.Job{AppointmentID: 6, Type: typ, Force: true}), notify.ErrInactive, typ)
	}
	assert.Empty(t, mail.sent)
	assert.Empty(t, st.flags[5])

	// the cancellation notice itself still goes out
	require.NoError(t, d.Send(ctx, notify.Job{AppointmentID: 5, Type: model.ReminderCancellation}))
	assert.Len(t, mail.sent, 1)
}

func TestSendMissingAppointment(t *testing.T) {
	d := notify.NewDispatcher(newFakeStore(), &recordingMailer{}, 1, 1)
	assert.Error(t, d.Send(context.Background(), notify.Job{AppointmentID: 404, Type: model.ReminderConfirmation}))
}

func TestEnqueueFullQueue(t *testing.T) {
	d := notify.NewDispatcher(newFakeStore(), &recordingMailer{}, 1, 1)

	assert.True(t, d.Enqueue(notify.Job{AppointmentID: 1, Type: model.ReminderConfirmation}))
	assert.False(t, d.Enqueue(notify.Job{AppointmentID: 2, Type: model.ReminderConfirmation}))

	require.NoError(t, d.Shutdown(context.Background()))
	assert.False(t, d.Enqueue(notify.Job{AppointmentID: 3, Type: model.ReminderConfirmation}))
}

func TestShutdownDrains(t *testing.T) {
	st, mail := newFakeStore(), &recordingMailer{}
	d := notify.NewDispatcher(st, mail, 3, 50)
	d.Start(context.Background())

	for i := int64(1); i <= 20; i++ {
		require.True(t, d.Enqueue(notify.Job{AppointmentID: i, Type: model.ReminderConfirmation}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	mail.mu.Lock()
	defer mail.mu.Unlock()
	assert.Len(t, mail.sent, 20)
	require.NoError(t, d.Shutdown(ctx), "shutdown twice is harmless")
}

func TestLogMailer(t *testing.T) {
	var m notify.Mailer = notify.LogMailer{}
	assert.NoError(t, m.Send(context.Background(), notify.Message{To: "a@b.c", Subject: "hi"}))
}

// compile-time check that the SMTP mailer satisfies Mailer
var _ notify.Mailer = (*notify.SMTPMailer)(nil)
