package models

import "time"

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusPending   UserStatus = "pending"
	UserStatusSuspended UserStatus = "suspended"
)

// UserRole is the platform-wide role of an account.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User represents an account.
//
// Accounts created through a federated login have no PasswordHash; they can
// only sign in through their provider until a password is set.
type User struct {
	// ID is the database identifier.
	ID int64

	// Email is unique across users.
	Email string

	// Username is unique across users. Federated accounts get an allocated one.
	Username string

	// PasswordHash is the bcrypt hash, empty for federation-only accounts.
	PasswordHash string

	// DisplayName is the human-readable name shown to other members.
	DisplayName string

	// AvatarURL is optional.
	AvatarURL string

	// Provider and ProviderID identify the federated identity ("google", "apple").
	// Both are empty or both are set; the pair is unique when set.
	Provider   string
	ProviderID string

	EmailVerified bool

	// LastLogin is nil until the first successful sign-in.
	LastLogin *time.Time

	Status UserStatus
	Role   UserRole

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// LinkedTo reports whether the account is already linked to the given
// federated identity.
func (u *User) LinkedTo(provider, providerID string) bool {
	return u.Provider == provider && u.ProviderID == providerID
}

// Public returns the projection of the user that is safe to send to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Username:      u.Username,
		AvatarURL:     u.AvatarURL,
		Provider:      u.Provider,
		EmailVerified: u.EmailVerified,
	}
}

// PublicUser is a User without its credential and internal timestamps.
type PublicUser struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	Username      string `json:"username"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Provider      string `json:"provider,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// UserPatch lists the fields an update may change. Nil fields are left alone.
type UserPatch struct {
	Provider      *string
	ProviderID    *string
	EmailVerified *bool
	AvatarURL     *string
	LastLogin     *time.Time
	Status        *UserStatus
	Role          *UserRole
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Provider == nil && p.ProviderID == nil && p.EmailVerified == nil &&
		p.AvatarURL == nil && p.LastLogin == nil && p.Status == nil && p.Role == nil
}
