package auth

import (
	"context"
	"sync"
	"time"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// memUsers is an in-memory user table with the same uniqueness rules as the
// SQLite schema.
type memUsers struct {
	mu     sync.Mutex
	users  []*models.User
	nextID int64

	// onCreate runs before each insert; returning an error aborts it.
	onCreate func(u *models.User) error
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1}
}

func (m *memUsers) insert(u *models.User) {
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users = append(m.users, &cp)
}

func (m *memUsers) CreateUser(ctx context.Context, u *models.User) error {
	if m.onCreate != nil {
		if err := m.onCreate(u); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		switch {
		case existing.Email == u.Email:
			return &apperror.ConflictError{Field: "email"}
		case existing.Username == u.Username:
			return &apperror.ConflictError{Field: "username"}
		case u.Provider != "" && existing.LinkedTo(u.Provider, u.ProviderID):
			return &apperror.ConflictError{Field: "provider"}
		}
	}
	m.insert(u)
	return nil
}

func (m *memUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) FindUsersByEmailOrProvider(ctx context.Context, email, provider, providerID string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		if u.Email == email || u.LinkedTo(provider, providerID) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != id {
			continue
		}
		if patch.Provider != nil {
			u.Provider = *patch.Provider
		}
		if patch.ProviderID != nil {
			u.ProviderID = *patch.ProviderID
		}
		if patch.EmailVerified != nil {
			u.EmailVerified = *patch.EmailVerified
		}
		if patch.AvatarURL != nil {
			u.AvatarURL = *patch.AvatarURL
		}
		if patch.LastLogin != nil {
			t := *patch.LastLogin
			u.LastLogin = &t
		}
		cp := *u
		return &cp, nil
	}
	return nil, apperror.ErrNotFound
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// stubTokens issues predictable tokens.
type stubTokens struct{}

func (stubTokens) Generate(u *models.User) (string, error) {
	return "token-for-" + u.Email, nil
}
