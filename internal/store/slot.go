package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"jobgate-appointment-api/internal/model"
)

const slotColumns = `cs.id, cs.agenda_id, a.name, a.theme_id, a.university_id, cs.staff_id,
	TRIM(su.first_name || ' ' || su.last_name), cs.slot_date, cs.start_time, cs.end_time,
	cs.max_capacity, cs.current_bookings, cs.status, cs.notes, cs.location, cs.meeting_type,
	cs.meeting_link, cs.created_at, cs.updated_at`

const slotFrom = ` FROM calendar_slots cs
	JOIN agendas a ON a.id = cs.agenda_id
	JOIN users su ON su.id = cs.staff_id`

// scanSlotInto reads slotColumns followed by any extra destinations.
func scanSlotInto(row scanner, s *model.CalendarSlot, extra ...any) error {
	var start, end pgtype.Time
	dest := []any{&s.ID, &s.AgendaID, &s.AgendaName, &s.ThemeID, &s.UniversityID, &s.StaffID,
		&s.StaffName, &s.Date, &start, &end, &s.MaxCapacity, &s.CurrentBookings, &s.Status,
		&s.Notes, &s.Location, &s.MeetingType, &s.MeetingLink, &s.CreatedAt, &s.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	s.Start, s.End = fromPgClock(start), fromPgClock(end)
	return nil
}

type SlotFilter struct {
	AgendaID     int64
	StaffID      string
	UniversityID int64
	ThemeID      int64
	Status       model.SlotStatus
	// ActiveOnly drops slots of deactivated agendas.
	ActiveOnly bool
	// From and To bound slot_date inclusively when non-zero.
	From time.Time
	To   time.Time
}

func (s *Store) ListSlots(ctx context.Context, f SlotFilter) ([]model.CalendarSlot, error) {
	var a argList
	if f.AgendaID != 0 {
		a.add("cs.agenda_id = ?", f.AgendaID)
	}
	if f.StaffID != "" {
		a.add("cs.staff_id = ?", f.StaffID)
	}
	if f.UniversityID != 0 {
		a.add("a.university_id = ?", f.UniversityID)
	}
	if f.ThemeID != 0 {
		a.add("a.theme_id = ?", f.ThemeID)
	}
	if f.Status != "" {
		a.add("cs.status = ?", f.Status)
	}
	if f.ActiveOnly {
		a.add("a.is_active = ?", true)
	}
	if !f.From.IsZero() {
		a.add("cs.slot_date >= ?", model.DateOf(f.From))
	}
	if !f.To.IsZero() {
		a.add("cs.slot_date <= ?", model.DateOf(f.To))
	}
	return s.querySlots(ctx, "list slots",
		`SELECT `+slotColumns+slotFrom+a.sql()+` ORDER BY cs.slot_date, cs.start_time, cs.id`, a.args...)
}

func (s *Store) querySlots(ctx context.Context, op, sql string, args ...any) ([]model.CalendarSlot, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []model.CalendarSlot
	for rows.Next() {
		var cs model.CalendarSlot
		if err := scanSlotInto(rows, &cs); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, cs)
	}
	return out, wrap(op, rows.Err())
}

func (s *Store) GetSlot(ctx context.Context, id int64) (*model.CalendarSlot, error) {
	cs := &model.CalendarSlot{}
	if err := scanSlotInto(s.pool.QueryRow(ctx,
		`SELECT `+slotColumns+slotFrom+` WHERE cs.id = $1`, id), cs); err != nil {
		return nil, wrap("get slot", err)
	}
	return cs, nil
}

// AvailableSlots lists open, bookable slots of an active agenda from today on.
func (s *Store) AvailableSlots(ctx context.Context, agendaID int64, today time.Time) ([]model.CalendarSlot, error) {
	return s.querySlots(ctx, "available slots",
		`SELECT `+slotColumns+slotFrom+`
		 WHERE cs.agenda_id = $1
		   AND a.is_active
		   AND cs.status = 'available'
		   AND cs.current_bookings < cs.max_capacity
		   AND cs.slot_date >= $2
		 ORDER BY cs.slot_date, cs.start_time, cs.id`,
		agendaID, model.DateOf(today))
}

func insertSlot(ctx context.Context, q querier, cs *model.CalendarSlot) error {
	if cs.Status == "" {
		cs.Status = model.SlotAvailable
	}
	return q.QueryRow(ctx,
		`INSERT INTO calendar_slots (agenda_id, staff_id, slot_date, start_time, end_time,
		        max_capacity, status, notes, location, meeting_type, meeting_link)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING id, current_bookings, created_at, updated_at`,
		cs.AgendaID, cs.StaffID, model.DateOf(cs.Date), pgClock(cs.Start), pgClock(cs.End),
		cs.MaxCapacity, cs.Status, cs.Notes, cs.Location, cs.MeetingType, cs.MeetingLink,
	).Scan(&cs.ID, &cs.CurrentBookings, &cs.CreatedAt, &cs.UpdatedAt)
}

func (s *Store) CreateSlot(ctx context.Context, cs *model.CalendarSlot) error {
	return wrap("create slot", insertSlot(ctx, s.pool, cs))
}

// BulkCreateSlots inserts all slots in one transaction. Any overlap with an
// existing slot of the same staff member, or within the batch, aborts the
// whole batch with ErrConflict.
func (s *Store) BulkCreateSlots(ctx context.Context, slots []model.CalendarSlot) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := range slots {
			cs := &slots[i]
			dup, err := hasSlotOverlap(ctx, tx, cs.StaffID, cs.Date, cs.Start, cs.End, 0)
			if err != nil {
				return err
			}
			if dup {
				return fmt.Errorf("%s %s: %w", cs.DateString(), cs.Start, ErrConflict)
			}
			if err := insertSlot(ctx, tx, cs); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("bulk create slots", err)
}

// UpdateSlot writes the editable columns. The stored status follows capacity:
// an available slot at capacity becomes fully_booked and the reverse.
func (s *Store) UpdateSlot(ctx context.Context, cs *model.CalendarSlot) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE calendar_slots
		 SET slot_date=$1, start_time=$2, end_time=$3, max_capacity=$4,
		     status = CASE
		         WHEN $5 = 'available' AND current_bookings >= $4 THEN 'fully_booked'
		         WHEN $5 = 'fully_booked' AND current_bookings < $4 THEN 'available'
		         ELSE $5 END,
		     notes=$6, location=$7, meeting_type=$8, meeting_link=$9, staff_id=$10,
		     updated_at=NOW()
		 WHERE id=$11
		 RETURNING status, current_bookings, updated_at`,
		model.DateOf(cs.Date), pgClock(cs.Start), pgClock(cs.End), cs.MaxCapacity, string(cs.Status),
		cs.Notes, cs.Location, cs.MeetingType, cs.MeetingLink, cs.StaffID, cs.ID,
	).Scan(&cs.Status, &cs.CurrentBookings, &cs.UpdatedAt)
	return wrap("update slot", err)
}

// DeleteSlot refuses to remove a slot that still holds live bookings.
func (s *Store) DeleteSlot(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM calendar_slots cs
		 WHERE cs.id = $1
		   AND NOT EXISTS (SELECT 1 FROM appointments ap
		                   WHERE ap.slot_id = cs.id AND ap.status IN ('pending','confirmed'))`, id)
	if err != nil {
		return wrap("delete slot", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetSlot(ctx, id); err != nil {
			return err
		}
		return wrap("delete slot", ErrConflict)
	}
	return nil
}

// HasSlotOverlap reports whether the staff member already has a live slot on
// date overlapping [start, end). excludeID skips the slot being edited.
func (s *Store) HasSlotOverlap(ctx context.Context, staffID string, date time.Time, start, end model.Clock, excludeID int64) (bool, error) {
	dup, err := hasSlotOverlap(ctx, s.pool, staffID, date, start, end, excludeID)
	return dup, wrap("slot overlap", err)
}

func hasSlotOverlap(ctx context.Context, q querier, staffID string, date time.Time, start, end model.Clock, excludeID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM calendar_slots
			WHERE staff_id = $1
			  AND slot_date = $2
			  AND status <> 'cancelled'
			  AND start_time < $4
			  AND end_time > $3
			  AND id <> $5)`,
		staffID, model.DateOf(date), pgClock(start), pgClock(end), excludeID,
	).Scan(&exists)
	return exists, err
}

// SlotConflicts lists the slots HasSlotOverlap would report.
func (s *Store) SlotConflicts(ctx context.Context, staffID string, date time.Time, start, end model.Clock, excludeID int64) ([]model.CalendarSlot, error) {
	return s.querySlots(ctx, "slot conflicts",
		`SELECT `+slotColumns+slotFrom+`
		 WHERE cs.staff_id = $1
		   AND cs.slot_date = $2
		   AND cs.status <> 'cancelled'
		   AND cs.start_time < $4
		   AND cs.end_time > $3
		   AND cs.id <> $5
		 ORDER BY cs.start_time`,
		staffID, model.DateOf(date), pgClock(start), pgClock(end), excludeID)
}
