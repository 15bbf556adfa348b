package store

import (
	"context"
	"time"

	"jobgate-appointment-api/internal/model"
)

// Statistics aggregates appointments whose slot date falls in [from, to].
// A zero universityID covers every university.
func (s *Store) Statistics(ctx context.Context, universityID int64, from, to time.Time) (*model.Statistics, error) {
	var a argList
	a.add("cs.slot_date >= ?", model.DateOf(from))
	a.add("cs.slot_date <= ?", model.DateOf(to))
	if universityID != 0 {
		a.add("a.university_id = ?", universityID)
	}
	base := ` FROM appointments ap
		JOIN calendar_slots cs ON cs.id = ap.slot_id
		JOIN agendas a ON a.id = cs.agenda_id` + a.sql()

	st := &model.Statistics{}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE ap.status = 'confirmed'),
		        COUNT(*) FILTER (WHERE ap.status = 'completed'),
		        COUNT(*) FILTER (WHERE ap.status = 'cancelled'),
		        COUNT(*) FILTER (WHERE ap.status = 'no_show'),
		        COUNT(DISTINCT ap.talent_id),
		        AVG(ap.rating)::float8,
		        COALESCE(SUM(EXTRACT(EPOCH FROM (cs.end_time - cs.start_time)) / 60)
		                 FILTER (WHERE ap.status = 'completed'), 0)::int`+base, a.args...,
	).Scan(&st.TotalAppointments, &st.ConfirmedAppointments, &st.CompletedAppointments,
		&st.CancelledAppointments, &st.NoShowAppointments, &st.UniqueTalents,
		&st.AverageRating, &st.TotalDurationMinutes)
	if err != nil {
		return nil, wrap("statistics", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT t.name,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE ap.status = 'completed'),
		        COUNT(*) FILTER (WHERE ap.status = 'cancelled')`+
			` FROM appointments ap
			JOIN calendar_slots cs ON cs.id = ap.slot_id
			JOIN agendas a ON a.id = cs.agenda_id
			JOIN appointment_themes t ON t.id = a.theme_id`+a.sql()+`
		 GROUP BY t.name ORDER BY COUNT(*) DESC, t.name`, a.args...)
	if err != nil {
		return nil, wrap("statistics by theme", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ts model.ThemeStatistics
		if err := rows.Scan(&ts.ThemeName, &ts.Count, &ts.Completed, &ts.Cancelled); err != nil {
			return nil, wrap("statistics by theme", err)
		}
		st.ByTheme = append(st.ByTheme, ts)
	}
	return st, wrap("statistics by theme", rows.Err())
}

// RollupDay recomputes daily_statistics for every university and theme with
// slots on day and returns the number of rows written.
func (s *Store) RollupDay(ctx context.Context, day time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO daily_statistics (university_id, theme_id, date, total_slots, booked_slots,
		        completed_appointments, cancelled_appointments, no_show_appointments,
		        total_duration_minutes, unique_talents, average_rating, updated_at)
		 SELECT a.university_id, a.theme_id, cs.slot_date,
		        COUNT(DISTINCT cs.id),
		        COUNT(DISTINCT cs.id) FILTER (WHERE cs.current_bookings > 0),
		        COUNT(ap.id) FILTER (WHERE ap.status = 'completed'),
		        COUNT(ap.id) FILTER (WHERE ap.status = 'cancelled'),
		        COUNT(ap.id) FILTER (WHERE ap.status = 'no_show'),
		        COALESCE(SUM(EXTRACT(EPOCH FROM (cs.end_time - cs.start_time)) / 60)
		                 FILTER (WHERE ap.status = 'completed'), 0)::int,
		        COUNT(DISTINCT ap.talent_id),
		        AVG(ap.rating),
		        NOW()
		 FROM calendar_slots cs
		 JOIN agendas a ON a.id = cs.agenda_id
		 LEFT JOIN appointments ap ON ap.slot_id = cs.id
		 WHERE cs.slot_date = $1
		 GROUP BY a.university_id, a.theme_id, cs.slot_date
		 ON CONFLICT (university_id, theme_id, date) DO UPDATE SET
		        total_slots = EXCLUDED.total_slots,
		        booked_slots = EXCLUDED.booked_slots,
		        completed_appointments = EXCLUDED.completed_appointments,
		        cancelled_appointments = EXCLUDED.cancelled_appointments,
		        no_show_appointments = EXCLUDED.no_show_appointments,
		        total_duration_minutes = EXCLUDED.total_duration_minutes,
		        unique_talents = EXCLUDED.unique_talents,
		        average_rating = EXCLUDED.average_rating,
		        updated_at = NOW()`, model.DateOf(day))
	if err != nil {
		return 0, wrap("rollup day", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DailyStatistics(ctx context.Context, universityID int64, from, to time.Time) ([]model.DailyStatistics, error) {
	var a argList
	a.add("date >= ?", model.DateOf(from))
	a.add("date <= ?", model.DateOf(to))
	if universityID != 0 {
		a.add("university_id = ?", universityID)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT university_id, theme_id, date, total_slots, booked_slots, completed_appointments,
		        cancelled_appointments, no_show_appointments, total_duration_minutes,
		        unique_talents, average_rating::float8
		 FROM daily_statistics`+a.sql()+` ORDER BY date, university_id, theme_id`, a.args...)
	if err != nil {
		return nil, wrap("daily statistics", err)
	}
	defer rows.Close()

	var out []model.DailyStatistics
	for rows.Next() {
		var d model.DailyStatistics
		if err := rows.Scan(&d.UniversityID, &d.ThemeID, &d.Date, &d.TotalSlots, &d.BookedSlots,
			&d.Completed, &d.Cancelled, &d.NoShow, &d.TotalDurationMinutes,
			&d.UniqueTalents, &d.AverageRating); err != nil {
			return nil, wrap("daily statistics", err)
		}
		out = append(out, d)
	}
	return out, wrap("daily statistics", rows.Err())
}
