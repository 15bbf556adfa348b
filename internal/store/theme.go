package store

import (
	"context"

	"jobgate-appointment-api/internal/model"
)

func (s *Store) ListThemes(ctx context.Context) ([]model.AppointmentTheme, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, color_code, icon, is_active, created_at, updated_at
		 FROM appointment_themes WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, wrap("list themes", err)
	}
	defer rows.Close()

	var out []model.AppointmentTheme
	for rows.Next() {
		var t model.AppointmentTheme
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ColorCode, &t.Icon,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, wrap("list themes", err)
		}
		out = append(out, t)
	}
	return out, wrap("list themes", rows.Err())
}

func (s *Store) GetTheme(ctx context.Context, id int64) (*model.AppointmentTheme, error) {
	t := &model.AppointmentTheme{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, color_code, icon, is_active, created_at, updated_at
		 FROM appointment_themes WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.ColorCode, &t.Icon, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, wrap("get theme", err)
	}
	return t, nil
}

func (s *Store) CreateTheme(ctx context.Context, t *model.AppointmentTheme) error {
	if t.ColorCode == "" {
		t.ColorCode = "#1976d2"
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointment_themes (name, description, color_code, icon)
		 VALUES ($1,$2,$3,$4)
		 RETURNING id, is_active, created_at, updated_at`,
		t.Name, t.Description, t.ColorCode, t.Icon,
	).Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return wrap("create theme", err)
}

// EnsureTheme inserts the theme unless one with the same name exists and
// reports whether it was created.
func (s *Store) EnsureTheme(ctx context.Context, t *model.AppointmentTheme) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO appointment_themes (name, description, color_code, icon)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (name) DO NOTHING`,
		t.Name, t.Description, t.ColorCode, t.Icon,
	)
	if err != nil {
		return false, wrap("ensure theme", err)
	}
	return tag.RowsAffected() == 1, nil
}
