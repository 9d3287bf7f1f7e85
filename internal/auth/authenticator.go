package auth

import (
	"context"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// Authenticator defines the interface for credential-based authentication.
// Federated sign-in goes through Reconciler instead.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// An empty username is allocated from the display name.
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Every failure is reported as ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// RegisterRequest carries the fields of a new password account.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	Username    string
}
