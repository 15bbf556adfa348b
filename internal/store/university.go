package store

import (
	"context"

	"jobgate-appointment-api/internal/model"
)

const universityColumns = `id, name, description, address, city, country, website_url,
	contact_email, contact_phone, logo_url, is_active, created_at, updated_at`

func scanUniversity(row scanner, u *model.University) error {
	return row.Scan(&u.ID, &u.Name, &u.Description, &u.Address, &u.City, &u.Country,
		&u.WebsiteURL, &u.ContactEmail, &u.ContactPhone, &u.LogoURL, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
}

func (s *Store) ListUniversities(ctx context.Context, includeInactive bool) ([]model.University, error) {
	q := `SELECT ` + universityColumns + ` FROM universities`
	if !includeInactive {
		q += ` WHERE is_active`
	}
	rows, err := s.pool.Query(ctx, q+` ORDER BY name`)
	if err != nil {
		return nil, wrap("list universities", err)
	}
	defer rows.Close()

	var out []model.University
	for rows.Next() {
		var u model.University
		if err := scanUniversity(rows, &u); err != nil {
			return nil, wrap("list universities", err)
		}
		out = append(out, u)
	}
	return out, wrap("list universities", rows.Err())
}

func (s *Store) GetUniversity(ctx context.Context, id int64) (*model.University, error) {
	u := &model.University{}
	err := scanUniversity(s.pool.QueryRow(ctx,
		`SELECT `+universityColumns+` FROM universities WHERE id = $1`, id), u)
	if err != nil {
		return nil, wrap("get university", err)
	}
	return u, nil
}

func (s *Store) CreateUniversity(ctx context.Context, u *model.University) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO universities (name, description, address, city, country, website_url,
		                           contact_email, contact_phone, logo_url)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id, is_active, created_at, updated_at`,
		u.Name, u.Description, u.Address, u.City, u.Country, u.WebsiteURL,
		u.ContactEmail, u.ContactPhone, u.LogoURL,
	).Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return wrap("create university", err)
}

func (s *Store) UpdateUniversity(ctx context.Context, u *model.University) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE universities
		 SET name=$1, description=$2, address=$3, city=$4, country=$5, website_url=$6,
		     contact_email=$7, contact_phone=$8, logo_url=$9, is_active=$10, updated_at=NOW()
		 WHERE id=$11
		 RETURNING created_at, updated_at`,
		u.Name, u.Description, u.Address, u.City, u.Country, u.WebsiteURL,
		u.ContactEmail, u.ContactPhone, u.LogoURL, u.IsActive, u.ID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return wrap("update university", err)
}

// DeactivateUniversity is a soft delete; agendas and history stay intact.
func (s *Store) DeactivateUniversity(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE universities SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return wrap("deactivate university", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("deactivate university", ErrNotFound)
	}
	return nil
}
