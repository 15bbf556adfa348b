package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"jobgate-appointment-api/internal/model"
)

const agendaColumns = `a.id, a.university_id, un.name, a.created_by, a.name, a.description,
	a.theme_id, t.name, t.color_code, a.slot_duration_minutes, a.max_capacity_per_slot,
	a.start_date, a.end_date, a.is_recurring, a.recurrence_pattern,
	a.booking_deadline_hours, a.cancellation_deadline_hours, a.is_active,
	a.created_at, a.updated_at`

const agendaFrom = ` FROM agendas a
	JOIN universities un ON un.id = a.university_id
	JOIN appointment_themes t ON t.id = a.theme_id`

func scanAgenda(row scanner, a *model.Agenda) error {
	return row.Scan(&a.ID, &a.UniversityID, &a.UniversityName, &a.CreatedBy, &a.Name, &a.Description,
		&a.ThemeID, &a.ThemeName, &a.ThemeColor, &a.SlotDurationMinutes, &a.MaxCapacityPerSlot,
		&a.StartDate, &a.EndDate, &a.IsRecurring, &a.Recurrence,
		&a.BookingDeadlineHours, &a.CancellationDeadlineHours, &a.IsActive,
		&a.CreatedAt, &a.UpdatedAt)
}

type AgendaFilter struct {
	UniversityID    int64
	ThemeID         int64
	Search          string
	IncludeInactive bool
}

func (s *Store) ListAgendas(ctx context.Context, f AgendaFilter) ([]model.Agenda, error) {
	var a argList
	if !f.IncludeInactive {
		a.where = append(a.where, "a.is_active")
	}
	if f.UniversityID != 0 {
		a.add("a.university_id = ?", f.UniversityID)
	}
	if f.ThemeID != 0 {
		a.add("a.theme_id = ?", f.ThemeID)
	}
	if f.Search != "" {
		a.add("a.name ILIKE '%' || ? || '%'", f.Search)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+agendaColumns+agendaFrom+a.sql()+` ORDER BY a.start_date DESC, a.id DESC`, a.args...)
	if err != nil {
		return nil, wrap("list agendas", err)
	}
	defer rows.Close()

	var out []model.Agenda
	for rows.Next() {
		var ag model.Agenda
		if err := scanAgenda(rows, &ag); err != nil {
			return nil, wrap("list agendas", err)
		}
		out = append(out, ag)
	}
	return out, wrap("list agendas", rows.Err())
}

// GetAgenda loads the agenda with its criteria and staff.
func (s *Store) GetAgenda(ctx context.Context, id int64) (*model.Agenda, error) {
	a := &model.Agenda{}
	if err := scanAgenda(s.pool.QueryRow(ctx,
		`SELECT `+agendaColumns+agendaFrom+` WHERE a.id = $1`, id), a); err != nil {
		return nil, wrap("get agenda", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, agenda_id, criteria_type, criteria_value, is_required
		 FROM eligibility_criteria WHERE agenda_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, wrap("agenda criteria", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.EligibilityCriterion
		if err := rows.Scan(&c.ID, &c.AgendaID, &c.Type, &c.Value, &c.IsRequired); err != nil {
			return nil, wrap("agenda criteria", err)
		}
		a.Criteria = append(a.Criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("agenda criteria", err)
	}

	staff, err := s.AgendaStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Staff = staff
	return a, nil
}

func (s *Store) AgendaStaff(ctx context.Context, agendaID int64) ([]model.StaffAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.agenda_id, s.staff_id,
		        TRIM(u.first_name || ' ' || u.last_name), s.role, s.is_primary, s.created_at
		 FROM agenda_staff s JOIN users u ON u.id = s.staff_id
		 WHERE s.agenda_id = $1
		 ORDER BY s.is_primary DESC, s.id`, agendaID)
	if err != nil {
		return nil, wrap("agenda staff", err)
	}
	defer rows.Close()

	var out []model.StaffAssignment
	for rows.Next() {
		var sa model.StaffAssignment
		if err := rows.Scan(&sa.ID, &sa.AgendaID, &sa.StaffID, &sa.StaffName, &sa.Role,
			&sa.IsPrimary, &sa.CreatedAt); err != nil {
			return nil, wrap("agenda staff", err)
		}
		out = append(out, sa)
	}
	return out, wrap("agenda staff", rows.Err())
}

// CreateAgenda inserts the agenda with its criteria and staff in one
// transaction.
func (s *Store) CreateAgenda(ctx context.Context, a *model.Agenda) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO agendas (university_id, created_by, name, description, theme_id,
			        slot_duration_minutes, max_capacity_per_slot, start_date, end_date,
			        is_recurring, recurrence_pattern, booking_deadline_hours,
			        cancellation_deadline_hours)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			 RETURNING id, is_active, created_at, updated_at`,
			a.UniversityID, a.CreatedBy, a.Name, a.Description, a.ThemeID,
			a.SlotDurationMinutes, a.MaxCapacityPerSlot, a.StartDate, a.EndDate,
			a.IsRecurring, a.Recurrence, a.BookingDeadlineHours, a.CancellationDeadlineHours,
		).Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}

		for i := range a.Criteria {
			c := &a.Criteria[i]
			c.AgendaID = a.ID
			if err := tx.QueryRow(ctx,
				`INSERT INTO eligibility_criteria (agenda_id, criteria_type, criteria_value, is_required)
				 VALUES ($1,$2,$3,$4) RETURNING id`,
				a.ID, c.Type, c.Value, c.IsRequired,
			).Scan(&c.ID); err != nil {
				return err
			}
		}
		for i := range a.Staff {
			if err := assignStaff(ctx, tx, a.ID, &a.Staff[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("create agenda", err)
}

// UpdateAgenda writes every editable column; callers merge partial updates
// onto the loaded agenda first.
func (s *Store) UpdateAgenda(ctx context.Context, a *model.Agenda) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE agendas
		 SET name=$1, description=$2, theme_id=$3, slot_duration_minutes=$4,
		     max_capacity_per_slot=$5, start_date=$6, end_date=$7, is_recurring=$8,
		     recurrence_pattern=$9, booking_deadline_hours=$10,
		     cancellation_deadline_hours=$11, is_active=$12, updated_at=NOW()
		 WHERE id=$13
		 RETURNING updated_at`,
		a.Name, a.Description, a.ThemeID, a.SlotDurationMinutes, a.MaxCapacityPerSlot,
		a.StartDate, a.EndDate, a.IsRecurring, a.Recurrence, a.BookingDeadlineHours,
		a.CancellationDeadlineHours, a.IsActive, a.ID,
	).Scan(&a.UpdatedAt)
	return wrap("update agenda", err)
}

func (s *Store) DeactivateAgenda(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agendas SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return wrap("deactivate agenda", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("deactivate agenda", ErrNotFound)
	}
	return nil
}

// AssignStaff adds or updates a staff member on an agenda. Marking someone
// primary clears the flag on the others.
func (s *Store) AssignStaff(ctx context.Context, agendaID int64, sa *model.StaffAssignment) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return assignStaff(ctx, tx, agendaID, sa)
	})
	return wrap("assign staff", err)
}

func assignStaff(ctx context.Context, q querier, agendaID int64, sa *model.StaffAssignment) error {
	if sa.Role == "" {
		sa.Role = model.RoleAdvisor
	}
	if sa.IsPrimary {
		if _, err := q.Exec(ctx,
			`UPDATE agenda_staff SET is_primary = false WHERE agenda_id = $1 AND staff_id <> $2`,
			agendaID, sa.StaffID); err != nil {
			return err
		}
	}
	sa.AgendaID = agendaID
	return q.QueryRow(ctx,
		`INSERT INTO agenda_staff (agenda_id, staff_id, role, is_primary)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (agenda_id, staff_id) DO UPDATE SET role = EXCLUDED.role, is_primary = EXCLUDED.is_primary
		 RETURNING id, created_at`,
		agendaID, sa.StaffID, sa.Role, sa.IsPrimary,
	).Scan(&sa.ID, &sa.CreatedAt)
}
