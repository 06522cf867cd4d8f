package store

import (
	"context"
	"time"

	"storefront/models"
)

const userColumns = `user_id, username, email, password_hash, created_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.LastLogin)
	return u, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	created, err := scanUser(s.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING `+userColumns,
		u.Username, u.Email, u.Password,
	))
	if err != nil {
		return models.User{}, classify(err)
	}
	return created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		return models.User{}, classify(err)
	}
	return u, nil
}

func (s *PostgresStore) FindUserByLogin(ctx context.Context, email, password string) (models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND password_hash = $2`, email, password))
	if err != nil {
		return models.User{}, classify(err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, patch models.AccountPatch) (models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash)
		WHERE user_id = $1
		RETURNING `+userColumns,
		id, orNil(patch.Username), orNil(patch.Email), orNil(patch.Password),
	))
	if err != nil {
		return models.User{}, classify(err)
	}
	return u, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	return affectedOne(res, err)
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE user_id = $2`, at, id)
	return affectedOne(res, err)
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	return count(ctx, s.DB, `SELECT COUNT(*) FROM users`)
}

// RecentLogins lists users that have logged in at least once, latest first.
func (s *PostgresStore) RecentLogins(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE last_login IS NOT NULL ORDER BY last_login DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const adminColumns = `admin_id, adminusername, adminemail, adminpassword, admincreated_at`

func scanAdmin(row interface{ Scan(...any) error }) (models.Admin, error) {
	var a models.Admin
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.CreatedAt)
	return a, err
}

func (s *PostgresStore) CreateAdmin(ctx context.Context, a models.Admin) (models.Admin, error) {
	created, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`INSERT INTO admins (adminusername, adminemail, adminpassword) VALUES ($1, $2, $3) RETURNING `+adminColumns,
		a.Username, a.Email, a.Password,
	))
	if err != nil {
		return models.Admin{}, classify(err)
	}
	return created, nil
}

func (s *PostgresStore) GetAdmin(ctx context.Context, id int64) (models.Admin, error) {
	a, err := scanAdmin(s.DB.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE admin_id = $1`, id))
	if err != nil {
		return models.Admin{}, classify(err)
	}
	return a, nil
}

func (s *PostgresStore) FindAdminByLogin(ctx context.Context, email, password string) (models.Admin, error) {
	a, err := scanAdmin(s.DB.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE adminemail = $1 AND adminpassword = $2`, email, password))
	if err != nil {
		return models.Admin{}, classify(err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateAdmin(ctx context.Context, id int64, patch models.AccountPatch) (models.Admin, error) {
	a, err := scanAdmin(s.DB.QueryRowContext(ctx, `
		UPDATE admins SET
			adminusername = COALESCE($2, adminusername),
			adminemail = COALESCE($3, adminemail),
			adminpassword = COALESCE($4, adminpassword)
		WHERE admin_id = $1
		RETURNING `+adminColumns,
		id, orNil(patch.Username), orNil(patch.Email), orNil(patch.Password),
	))
	if err != nil {
		return models.Admin{}, classify(err)
	}
	return a, nil
}

func (s *PostgresStore) DeleteAdmin(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM admins WHERE admin_id = $1`, id)
	return affectedOne(res, err)
}

func (s *PostgresStore) CountAdmins(ctx context.Context) (int64, error) {
	return count(ctx, s.DB, `SELECT COUNT(*) FROM admins`)
}
