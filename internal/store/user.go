package store

import (
	"context"
	"strings"

	"jobgate-appointment-api/internal/model"
)

const userColumns = `id, email, password_hash, username, first_name, last_name, user_type,
	phone, timezone, university_id, is_active, last_login, created_at, updated_at`

func scanUser(row scanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.FirstName, &u.LastName,
		&u.UserType, &u.Phone, &u.Timezone, &u.UniversityID, &u.IsActive, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt)
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, username, first_name, last_name,
		                    user_type, phone, timezone, university_id, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,TRUE)
		 RETURNING is_active, created_at, updated_at`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Username, u.FirstName, u.LastName,
		u.UserType, u.Phone, u.Timezone, u.UniversityID,
	).Scan(&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return wrap("create user", err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)), u)
	if err != nil {
		return nil, wrap("user by email", err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id), u)
	if err != nil {
		return nil, wrap("user by id", err)
	}
	return u, nil
}

// UpdateUser writes the editable profile fields.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET username=$1, first_name=$2, last_name=$3, phone=$4, timezone=$5, updated_at=NOW()
		 WHERE id=$6
		 RETURNING updated_at`,
		u.Username, u.FirstName, u.LastName, u.Phone, u.Timezone, u.ID,
	).Scan(&u.UpdatedAt)
	return wrap("update user", err)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return wrap("touch last login", err)
}

type UserFilter struct {
	Type         model.UserType
	UniversityID int64
	ActiveOnly   bool
}

func (s *Store) ListUsers(ctx context.Context, f UserFilter) ([]model.User, error) {
	var a argList
	if f.Type != "" {
		a.add("user_type = ?", f.Type)
	}
	if f.UniversityID != 0 {
		a.add("university_id = ?", f.UniversityID)
	}
	if f.ActiveOnly {
		a.where = append(a.where, "is_active")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users`+a.sql()+` ORDER BY last_name, first_name, email`, a.args...)
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, wrap("list users", err)
		}
		out = append(out, u)
	}
	return out, wrap("list users", rows.Err())
}

// StaffByUniversity returns the active staff members of a university.
func (s *Store) StaffByUniversity(ctx context.Context, universityID int64) ([]model.User, error) {
	return s.ListUsers(ctx, UserFilter{
		Type:         model.UserUniversityStaff,
		UniversityID: universityID,
		ActiveOnly:   true,
	})
}
