package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quetzal/middleware"
	"quetzal/model"
)

type SQLUserRepo struct {
	DB *sql.DB
}

func NewSQLUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{DB: db}
}

func (r *SQLUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	timer := middleware.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var (
		user             model.User
		role             string
		created, updated int64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT username, role, password_hash, totp_secret, created_at, updated_at
		 FROM quetzal_users WHERE username = ?`, username).
		Scan(&user.Username, &role, &user.PasswordHash, &user.TOTPSecret, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		middleware.TrackError("db")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.Role = model.Role(role)
	user.CreatedAt = time.Unix(0, created).UTC()
	user.UpdatedAt = time.Unix(0, updated).UTC()
	return &user, nil
}

func (r *SQLUserRepo) Create(ctx context.Context, user *model.User) error {
	timer := middleware.TrackDBOperation("insert", "users")
	defer timer.ObserveDuration()

	if user.Username == "" || user.PasswordHash == "" {
		return errors.New("username and password required")
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO quetzal_users (username, role, password_hash, totp_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, string(user.Role), user.PasswordHash, user.TOTPSecret,
		now.UnixNano(), now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		middleware.TrackError("db")
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

func (r *SQLUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	timer := middleware.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	if passwordHash == "" {
		return errors.New("password hash required")
	}

	res, err := r.DB.ExecContext(ctx,
		"UPDATE quetzal_users SET password_hash = ?, updated_at = ? WHERE username = ?",
		passwordHash, time.Now().UTC().UnixNano(), username)
	if err != nil {
		middleware.TrackError("db")
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
