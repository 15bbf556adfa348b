package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobgate-appointment-api/internal/model"
)

const appointmentColumns = slotColumns + `,
	ap.id, ap.talent_id, TRIM(tu.first_name || ' ' || tu.last_name), tu.email,
	ap.booking_reference, ap.status, ap.talent_notes, ap.staff_notes, ap.rating, ap.feedback,
	ap.reminder_24h_sent, ap.reminder_1h_sent, ap.confirmation_sent,
	ap.booked_at, ap.cancelled_at, ap.completed_at, ap.created_at, ap.updated_at`

const appointmentFrom = ` FROM appointments ap
	JOIN calendar_slots cs ON cs.id = ap.slot_id
	JOIN agendas a ON a.id = cs.agenda_id
	JOIN users su ON su.id = cs.staff_id
	JOIN users tu ON tu.id = ap.talent_id`

func scanAppointment(row scanner, ap *model.Appointment) error {
	err := scanSlotInto(row, &ap.Slot,
		&ap.ID, &ap.TalentID, &ap.TalentName, &ap.TalentEmail,
		&ap.BookingReference, &ap.Status, &ap.TalentNotes, &ap.StaffNotes, &ap.Rating, &ap.Feedback,
		&ap.Reminder24hSent, &ap.Reminder1hSent, &ap.ConfirmationSent,
		&ap.BookedAt, &ap.CancelledAt, &ap.CompletedAt, &ap.CreatedAt, &ap.UpdatedAt)
	if err != nil {
		return err
	}
	ap.SlotID = ap.Slot.ID
	return nil
}

// AppointmentFilter scopes a listing. TalentID and UniversityID restrict by
// role; the rest are optional user filters.
type AppointmentFilter struct {
	TalentID     string
	UniversityID int64
	StaffID      string
	SlotID       int64
	Status       model.AppointmentStatus
	From         time.Time
	To           time.Time
}

func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	var a argList
	if f.TalentID != "" {
		a.add("ap.talent_id = ?", f.TalentID)
	}
	if f.UniversityID != 0 {
		a.add("a.university_id = ?", f.UniversityID)
	}
	if f.StaffID != "" {
		a.add("cs.staff_id = ?", f.StaffID)
	}
	if f.SlotID != 0 {
		a.add("ap.slot_id = ?", f.SlotID)
	}
	if f.Status != "" {
		a.add("ap.status = ?", f.Status)
	}
	if !f.From.IsZero() {
		a.add("cs.slot_date >= ?", model.DateOf(f.From))
	}
	if !f.To.IsZero() {
		a.add("cs.slot_date <= ?", model.DateOf(f.To))
	}
	return s.queryAppointments(ctx, "list appointments",
		`SELECT `+appointmentColumns+appointmentFrom+a.sql()+` ORDER BY ap.booked_at DESC, ap.id DESC`,
		a.args...)
}

func (s *Store) queryAppointments(ctx context.Context, op, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var ap model.Appointment
		if err := scanAppointment(rows, &ap); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, ap)
	}
	return out, wrap(op, rows.Err())
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	ap := &model.Appointment{}
	if err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+appointmentFrom+` WHERE ap.id = $1`, id), ap); err != nil {
		return nil, wrap("get appointment", err)
	}
	return ap, nil
}

// Book reserves a seat on the slot for the talent. The slot row is locked for
// the whole transaction so concurrent bookings serialize on it and capacity
// can never be exceeded.
func (s *Store) Book(ctx context.Context, slotID int64, talentID, notes string) (*model.Appointment, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			st        model.SlotStatus
			cur, capa int
		)
		if err := tx.QueryRow(ctx,
			`SELECT status, current_bookings, max_capacity FROM calendar_slots WHERE id = $1 FOR UPDATE`,
			slotID,
		).Scan(&st, &cur, &capa); err != nil {
			return err
		}
		switch {
		case st == model.SlotFullyBooked, st == model.SlotAvailable && cur >= capa:
			return ErrSlotFull
		case st != model.SlotAvailable:
			return ErrSlotUnavailable
		}

		var held bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM appointments
			 WHERE slot_id = $1 AND talent_id = $2 AND status IN ('pending','confirmed'))`,
			slotID, talentID,
		).Scan(&held); err != nil {
			return err
		}
		if held {
			return ErrAlreadyBooked
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO appointments (slot_id, talent_id, booking_reference, status, talent_notes)
			 VALUES ($1,$2,$3,'confirmed',$4) RETURNING id`,
			slotID, talentID, uuid.New().String(), notes,
		).Scan(&id); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`UPDATE calendar_slots
			 SET current_bookings = current_bookings + 1,
			     status = CASE WHEN current_bookings + 1 >= max_capacity THEN 'fully_booked' ELSE status END,
			     updated_at = NOW()
			 WHERE id = $1`, slotID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotFull) || errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrAlreadyBooked) {
			return nil, err
		}
		return nil, wrap("book", err)
	}
	return s.GetAppointment(ctx, id)
}

// Cancel marks the appointment cancelled and gives its seat back. It locks
// the slot before the appointment, the same order Book uses.
func (s *Store) Cancel(ctx context.Context, id int64) (*model.Appointment, error) {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var slotID int64
		if err := tx.QueryRow(ctx, `SELECT slot_id FROM appointments WHERE id = $1`, id).Scan(&slotID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `SELECT 1 FROM calendar_slots WHERE id = $1 FOR UPDATE`, slotID); err != nil {
			return err
		}

		var prev model.AppointmentStatus
		if err := tx.QueryRow(ctx,
			`SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, id,
		).Scan(&prev); err != nil {
			return err
		}
		if prev == model.AppointmentCancelled {
			return ErrConflict
		}

		if _, err := tx.Exec(ctx,
			`UPDATE appointments SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
			 WHERE id = $1`, id); err != nil {
			return err
		}
		if prev != model.AppointmentPending && prev != model.AppointmentConfirmed {
			return nil
		}
		_, err := tx.Exec(ctx,
			`UPDATE calendar_slots
			 SET current_bookings = GREATEST(current_bookings - 1, 0),
			     status = CASE WHEN status = 'fully_booked' THEN 'available' ELSE status END,
			     updated_at = NOW()
			 WHERE id = $1`, slotID)
		return err
	})
	if err != nil {
		return nil, wrap("cancel", err)
	}
	return s.GetAppointment(ctx, id)
}

// UpdateAppointment sets the status and staff notes. Moving to completed
// stamps completed_at.
func (s *Store) UpdateAppointment(ctx context.Context, id int64, status model.AppointmentStatus, staffNotes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET status = $1,
		     staff_notes = $2,
		     completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE completed_at END,
		     updated_at = NOW()
		 WHERE id = $3`,
		string(status), staffNotes, id)
	if err != nil {
		return wrap("update appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("update appointment", ErrNotFound)
	}
	return nil
}

func (s *Store) SubmitFeedback(ctx context.Context, id int64, rating int, feedback string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET rating = $1, feedback = $2, updated_at = NOW() WHERE id = $3`,
		rating, feedback, id)
	if err != nil {
		return wrap("submit feedback", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("submit feedback", ErrNotFound)
	}
	return nil
}

func reminderFlag(t model.ReminderType) string {
	switch t {
	case model.ReminderConfirmation:
		return "confirmation_sent"
	case model.Reminder24Hour:
		return "reminder_24h_sent"
	case model.Reminder1Hour:
		return "reminder_1h_sent"
	}
	return ""
}

// MarkReminderSent sets the flag for t and reports whether this call changed
// it. Types without a flag always report true.
func (s *Store) MarkReminderSent(ctx context.Context, id int64, t model.ReminderType) (bool, error) {
	col := reminderFlag(t)
	if col == "" {
		return true, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET `+col+` = true, updated_at = NOW() WHERE id = $1 AND NOT `+col, id)
	if err != nil {
		return false, wrap("mark reminder", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearReminderFlag unsets the flag for t so the reminder can be sent again.
func (s *Store) ClearReminderFlag(ctx context.Context, id int64, t model.ReminderType) error {
	col := reminderFlag(t)
	if col == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE appointments SET `+col+` = false, updated_at = NOW() WHERE id = $1`, id)
	return wrap("clear reminder", err)
}

// DueReminders lists confirmed appointments of type t whose slot starts in
// (from, to] and whose flag is still unset. Slot wall-clock times are read in
// loc.
func (s *Store) DueReminders(ctx context.Context, t model.ReminderType, from, to time.Time, loc *time.Location) ([]model.Appointment, error) {
	col := reminderFlag(t)
	if col == "" || t == model.ReminderConfirmation {
		return nil, nil
	}
	return s.queryAppointments(ctx, "due reminders",
		`SELECT `+appointmentColumns+appointmentFrom+`
		 WHERE ap.status = 'confirmed'
		   AND NOT ap.`+col+`
		   AND ((cs.slot_date + cs.start_time) AT TIME ZONE $3) > $1
		   AND ((cs.slot_date + cs.start_time) AT TIME ZONE $3) <= $2
		 ORDER BY cs.slot_date, cs.start_time`,
		from, to, loc.String())
}
