package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
)

const sendTimeout = 30 * time.Second

// Store is the slice of the database the dispatcher needs.
type Store interface {
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	GetAgenda(ctx context.Context, id int64) (*model.Agenda, error)
	MarkReminderSent(ctx context.Context, id int64, t model.ReminderType) (bool, error)
	ClearReminderFlag(ctx context.Context, id int64, t model.ReminderType) error
	LogReminder(ctx context.Context, r *model.EmailReminder) error
}

type Job struct {
	AppointmentID int64
	Type          model.ReminderType
	// ByStaff selects the staff wording for cancellations.
	ByStaff bool
	// Force resends even when the flag for Type is already set.
	Force bool
}

var (
	ErrAlreadySent = errors.New("already sent")
	// ErrInactive is returned for a confirmation or reminder whose
	// appointment is no longer pending or confirmed.
	ErrInactive = errors.New("appointment not active")
)

// Dispatcher sends emails from a bounded queue on a fixed set of workers.
type Dispatcher struct {
	store   Store
	mailer  Mailer
	workers int

	mu     sync.RWMutex
	jobs   chan Job
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(st Store, m Mailer, workers, queue int) *Dispatcher {
	return &Dispatcher{
		store:   st,
		mailer:  m,
		workers: max(workers, 1),
		jobs:    make(chan Job, max(queue, 1)),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
				if err := d.Send(jctx, j); err != nil && !errors.Is(err, ErrAlreadySent) && !errors.Is(err, ErrInactive) {
					appLog.Error("email job failed", err, "appointment", j.AppointmentID, "type", j.Type)
				}
				cancel()
			}
		}()
	}
}

// Enqueue never blocks. It reports false when the queue is full or the
// dispatcher is shutting down.
func (d *Dispatcher) Enqueue(j Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- j:
		return true
	default:
		appLog.Error("email queue full, dropping", nil, "appointment", j.AppointmentID, "type", j.Type)
		return false
	}
}

// Shutdown stops accepting jobs and waits for the queue to drain.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email drain: %w", ctx.Err())
	}
}

// Send processes one job synchronously. The appointment's flag for j.Type is
// claimed before sending, so two senders never both deliver the same
// reminder, and released again when delivery fails so a later sweep retries.
func (d *Dispatcher) Send(ctx context.Context, j Job) error {
	a, err := d.store.GetAppointment(ctx, j.AppointmentID)
	if err != nil {
		return fmt.Errorf("load appointment %d: %w", j.AppointmentID, err)
	}
	if j.Type != model.ReminderCancellation &&
		a.Status != model.AppointmentPending && a.Status != model.AppointmentConfirmed {
		appLog.Debug("email skipped", "reference", a.BookingReference, "type", j.Type, "status", a.Status)
		return ErrInactive
	}

	claimed, err := d.store.MarkReminderSent(ctx, a.ID, j.Type)
	if err != nil {
		return err
	}
	if !claimed && !j.Force {
		appLog.Debug("email already sent", "reference", a.BookingReference, "type", j.Type)
		return ErrAlreadySent
	}

	release := func() {
		if !claimed {
			return
		}
		// the send may have failed on ctx itself
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := d.store.ClearReminderFlag(cctx, a.ID, j.Type); err != nil {
			appLog.Error("release reminder flag", err, "reference", a.BookingReference, "type", j.Type)
		}
	}

	ag, err := d.store.GetAgenda(ctx, a.Slot.AgendaID)
	if err != nil {
		release()
		return fmt.Errorf("load agenda %d: %w", a.Slot.AgendaID, err)
	}
	msg, err := Render(j.Type, a, ag, j.ByStaff)
	if err != nil {
		release()
		return err
	}

	rec := &model.EmailReminder{
		AppointmentID:  a.ID,
		Type:           j.Type,
		RecipientEmail: msg.To,
		Subject:        msg.Subject,
		Status:         "sent",
	}
	sendErr := d.mailer.Send(ctx, msg)
	if sendErr != nil {
		rec.Status = "failed"
		rec.ErrorMessage = sendErr.Error()
	}
	if err := d.store.LogReminder(ctx, rec); err != nil {
		appLog.Error("log reminder", err, "reference", a.BookingReference)
	}
	if sendErr != nil {
		release()
		return sendErr
	}
	appLog.Info("email sent", "type", j.Type, "reference", a.BookingReference)
	return nil
}
