package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperror.ErrUnauthorized)
	ErrWeakPassword       = apperror.NewValidation("password", "must be at least 8 characters")
)

// UserStorage is the slice of the gateway the authenticators need.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
	now     func() time.Time
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
// Duplicate emails and usernames come back as *apperror.ConflictError.
func (a *PasswordAuthenticator) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	verr := &apperror.ValidationError{}
	if !strings.Contains(email, "@") {
		verr.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		verr.Add("display_name", "required")
	}
	if err := a.ValidateCredential(req.Password); err != nil {
		verr.Add("password", ErrWeakPassword.FieldErrors["password"])
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		allocated, err := AllocateUsername(ctx, a.storage, req.DisplayName)
		if err != nil {
			return nil, err
		}
		username = allocated
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Status:       models.UserStatusActive,
		Role:         models.UserRoleUser,
	}
	if err := a.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Federation-only accounts have no password to compare.
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := a.now().UTC()
	updated, err := a.storage.UpdateUser(ctx, user.ID, models.UserPatch{LastLogin: &now})
	if err != nil {
		slog.Warn("Failed to record last login", "user_id", user.ID, "error", err)
		return user, nil
	}
	return updated, nil
}
