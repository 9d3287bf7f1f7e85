package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// ErrNoVerifier is returned when federated login is requested but no identity
// provider handshake is configured.
var ErrNoVerifier = errors.New("federated login is not configured")

// Claim is the verified profile an external identity provider vouches for.
type Claim struct {
	Email         string
	DisplayName   string
	AvatarURL     string
	Provider      string
	ProviderID    string
	EmailVerified bool
}

// Validate rejects claims that cannot be reconciled.
func (c Claim) Validate() error {
	verr := &apperror.ValidationError{}
	if c.Email == "" {
		verr.Add("email", "required")
	} else if !strings.Contains(c.Email, "@") {
		verr.Add("email", "must be a valid email address")
	}
	if c.Provider == "" {
		verr.Add("provider", "required")
	}
	if c.ProviderID == "" {
		verr.Add("provider_id", "required")
	}
	return verr.OrNil()
}

// ProfileVerifier performs the provider handshake and returns the verified claim.
type ProfileVerifier interface {
	Verify(ctx context.Context, provider, code string) (Claim, error)
}

// Session is what a successful sign-in hands back.
type Session struct {
	Token string
	User  models.PublicUser
}

// IdentityStore is the slice of the gateway reconciliation needs.
type IdentityStore interface {
	UsernameChecker
	FindUsersByEmailOrProvider(ctx context.Context, email, provider, providerID string) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
}

// Reconciler maps a verified external claim onto exactly one local account,
// linking or creating it as needed, and opens a session for it.
type Reconciler struct {
	store  IdentityStore
	tokens TokenIssuer
	now    func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(store IdentityStore, tokens TokenIssuer) *Reconciler {
	return &Reconciler{store: store, tokens: tokens, now: time.Now}
}

// Reconcile finds or creates the account for claim and returns a session.
//
// Lookup is by email or by the (provider, provider id) pair. When both match
// different accounts the lowest id wins and a warning is logged. A conflict
// while creating the account means a concurrent sign-in got there first; the
// whole lookup is retried once.
func (r *Reconciler) Reconcile(ctx context.Context, claim Claim) (*Session, error) {
	claim.Email = strings.TrimSpace(strings.ToLower(claim.Email))
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	user, err := r.resolve(ctx, claim)
	var conflict *apperror.ConflictError
	if errors.As(err, &conflict) {
		slog.Info("Concurrent account creation, retrying lookup",
			"email", claim.Email, "provider", claim.Provider, "field", conflict.Field)
		metrics.RecordReconciliation("retried")
		user, err = r.resolve(ctx, claim)
	}
	if err != nil {
		metrics.RecordReconciliation("error")
		return nil, err
	}

	token, err := r.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{Token: token, User: user.Public()}, nil
}

func (r *Reconciler) resolve(ctx context.Context, claim Claim) (*models.User, error) {
	matches, err := r.store.FindUsersByEmailOrProvider(ctx, claim.Email, claim.Provider, claim.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	if len(matches) == 0 {
		return r.create(ctx, claim)
	}

	user := matches[0]
	linkedElsewhere := false
	if len(matches) > 1 {
		slog.Warn("Identity matches several accounts, using the oldest",
			"email", claim.Email,
			"provider", claim.Provider,
			"user_id", user.ID,
			"other_user_id", matches[1].ID,
		)
		for _, other := range matches[1:] {
			if other.LinkedTo(claim.Provider, claim.ProviderID) {
				linkedElsewhere = true
			}
		}
	}
	return r.refresh(ctx, user, claim, linkedElsewhere)
}

// refresh updates an existing account from a claim whose linkage differs.
// The linkage is rewritten only when no other account holds the pair. The
// verified flag is only ever raised and the avatar only fills a blank.
func (r *Reconciler) refresh(ctx context.Context, user *models.User, claim Claim, linkedElsewhere bool) (*models.User, error) {
	now := r.now().UTC()
	patch := models.UserPatch{LastLogin: &now}

	outcome := "refreshed"
	if !user.LinkedTo(claim.Provider, claim.ProviderID) {
		if !linkedElsewhere {
			outcome = "linked"
			patch.Provider = &claim.Provider
			patch.ProviderID = &claim.ProviderID
		}
		if claim.EmailVerified && !user.EmailVerified {
			verified := true
			patch.EmailVerified = &verified
		}
		if user.AvatarURL == "" && claim.AvatarURL != "" {
			patch.AvatarURL = &claim.AvatarURL
		}
	}

	updated, err := r.store.UpdateUser(ctx, user.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Debug("Reconciled existing account", "user_id", updated.ID, "outcome", outcome)
	metrics.RecordReconciliation(outcome)
	return updated, nil
}

func (r *Reconciler) create(ctx context.Context, claim Claim) (*models.User, error) {
	displayName := strings.TrimSpace(claim.DisplayName)
	if displayName == "" {
		displayName = claim.Email[:strings.Index(claim.Email, "@")]
	}

	username, err := AllocateUsername(ctx, r.store, displayName)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	user := &models.User{
		Email:         claim.Email,
		Username:      username,
		DisplayName:   displayName,
		AvatarURL:     claim.AvatarURL,
		Provider:      claim.Provider,
		ProviderID:    claim.ProviderID,
		EmailVerified: claim.EmailVerified,
		LastLogin:     &now,
		Status:        models.UserStatusActive,
		Role:          models.UserRoleUser,
	}
	if err := r.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("Created account from federated login", "user_id", user.ID, "provider", claim.Provider)
	metrics.RecordReconciliation("created")
	return user, nil
}
