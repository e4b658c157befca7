package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/mini-social/backend/internal/models"
)

// MemoryUserRepository is the demo-mode UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

// CreateUser stores a new user unless the username or email is taken
func (r *MemoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.ErrUserExists
		}
	}
	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

// GetUserByID returns a copy of the user with the given ID
func (r *MemoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

// GetUserByEmail returns a copy of the user with the normalized email
func (r *MemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return r.find(func(u *models.User) bool { return u.Email == email })
}

// GetUserByFirebaseUID returns a copy of the user linked to firebaseUID
func (r *MemoryUserRepository) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return firebaseUID != "" && u.FirebaseUID == firebaseUID })
}

// UpdateUser replaces a stored user
func (r *MemoryUserRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return models.ErrUserExists
		}
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, models.ErrUserNotFound
}
