package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/cmsauth/internal/models"
	"github.com/iudanet/cmsauth/internal/server/storage"
)

// mockUserStorage хранилище пользователей в памяти
type mockUserStorage struct {
	users          map[int64]*models.User
	updateErr      error
	lookupErr      error
	nextID         int64
	mu             sync.Mutex
	txCalls        int
	lastLoginCalls int
}

var _ storage.UserStorage = (*mockUserStorage)(nil)

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[int64]*models.User)}
}

func (m *mockUserStorage) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrUserAlreadyExists
		}
	}

	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserStorage) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *mockUserStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *mockUserStorage) GetUserByID(_ context.Context, userID int64) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == userID })
}

func (m *mockUserStorage) UpdateLastLogin(_ context.Context, userID int64, lastLogin time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoginCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.LastLogin = &lastLogin
	u.UpdatedAt = lastLogin
	return nil
}

func (m *mockUserStorage) RunInTx(ctx context.Context, fn func(ctx context.Context, repo storage.UserRepository) error) error {
	m.mu.Lock()
	m.txCalls++
	m.mu.Unlock()
	return fn(ctx, m)
}

func (m *mockUserStorage) Ping(context.Context) error {
	return nil
}

func (m *mockUserStorage) get(username string) *models.User {
	u, err := m.GetUserByUsername(context.Background(), username)
	if err != nil {
		return nil
	}
	return u
}
