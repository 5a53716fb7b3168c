package storage

import (
	"context"
	"time"

	"github.com/iudanet/cmsauth/internal/models"
)

// UserRepository defines interface for user data persistence
type UserRepository interface {
	// CreateUser creates a new user in the storage and sets user.ID
	// Returns ErrUserAlreadyExists if username or email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByEmail retrieves user by email (case-insensitive)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)

	// UpdateLastLogin sets last_login and updated_at
	// Returns ErrUserNotFound if user doesn't exist
	UpdateLastLogin(ctx context.Context, userID int64, lastLogin time.Time) error
}

// UserStorage is a UserRepository that can also scope work to a transaction
type UserStorage interface {
	UserRepository

	// RunInTx выполняет fn в транзакции.
	// Commit при nil ошибке, rollback при ошибке или panic.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error

	// Ping проверяет доступность хранилища
	Ping(ctx context.Context) error
}
