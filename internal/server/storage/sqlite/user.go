package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/cmsauth/internal/models"
	"github.com/iudanet/cmsauth/internal/server/storage"
)

const userColumns = `id, username, email, first_name, last_name, hashed_password,
		is_active, is_admin, is_superuser, created_at, updated_at, last_login`

// userRepo реализует storage.UserRepository поверх *sql.DB или *sql.Tx
type userRepo struct {
	q querier
}

// CreateUser creates a new user in the storage
func (r *userRepo) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, hashed_password,
			is_active, is_admin, is_superuser, created_at, updated_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.HashedPassword,
		user.IsActive,
		user.IsAdmin,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastLogin,
	)
	if err != nil {
		// Проверяем на duplicate username/email
		if field, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: %s", storage.ErrUserAlreadyExists, field)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByUsername retrieves user by username
func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetUserByEmail retrieves user by email
func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetUserByID retrieves user by ID
func (r *userRepo) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
}

// UpdateLastLogin updates the last login timestamp
func (r *userRepo) UpdateLastLogin(ctx context.Context, userID int64, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query, lastLogin, lastLogin, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *userRepo) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime

	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.HashedPassword,
		&user.IsActive,
		&user.IsAdmin,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}

// uniqueViolation распознает нарушение UNIQUE и возвращает имя колонки
func uniqueViolation(err error) (string, bool) {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	switch {
	case strings.Contains(msg, "users.email"):
		return "email", true
	case strings.Contains(msg, "users.username"):
		return "username", true
	default:
		return "unknown", true
	}
}
