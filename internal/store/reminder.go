package store

import (
	"context"

	"jobgate-appointment-api/internal/model"
)

func (s *Store) LogReminder(ctx context.Context, r *model.EmailReminder) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO email_reminders (appointment_id, reminder_type, recipient_email, subject, status, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id, sent_at`,
		r.AppointmentID, r.Type, r.RecipientEmail, r.Subject, r.Status, r.ErrorMessage,
	).Scan(&r.ID, &r.SentAt)
	return wrap("log reminder", err)
}

func (s *Store) RemindersFor(ctx context.Context, appointmentID int64) ([]model.EmailReminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, appointment_id, reminder_type, recipient_email, subject, status, error_message, sent_at
		 FROM email_reminders WHERE appointment_id = $1 ORDER BY sent_at, id`, appointmentID)
	if err != nil {
		return nil, wrap("reminders", err)
	}
	defer rows.Close()

	var out []model.EmailReminder
	for rows.Next() {
		var r model.EmailReminder
		if err := rows.Scan(&r.ID, &r.AppointmentID, &r.Type, &r.RecipientEmail, &r.Subject,
			&r.Status, &r.ErrorMessage, &r.SentAt); err != nil {
			return nil, wrap("reminders", err)
		}
		out = append(out, r)
	}
	return out, wrap("reminders", rows.Err())
}
