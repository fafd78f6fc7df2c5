package memory

import (
	"context"
	"sync"
	"time"

	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/storage"
)

// InMemoryUserRepository backs tests and local runs without postgres.
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]models.User),
	}
}

func (m *InMemoryUserRepository) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, storage.ErrUserExists
		}
	}

	now := time.Now()
	stored := *user
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.users[stored.ID] = stored

	created := stored
	return &created, nil
}

func (m *InMemoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (m *InMemoryUserRepository) GetUserByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *InMemoryUserRepository) SetRefreshToken(_ context.Context, id, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	user.RefreshToken = token
	user.UpdatedAt = time.Now()
	m.users[id] = user

	updated := user
	return &updated, nil
}

func (m *InMemoryUserRepository) ClearRefreshToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil
	}

	user.RefreshToken = ""
	user.UpdatedAt = time.Now()
	m.users[id] = user

	return nil
}
