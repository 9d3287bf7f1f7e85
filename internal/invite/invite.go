// Package invite issues group invitations and turns them into memberships.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// tokenBytes is the amount of randomness in a token; the hex form is twice as long.
const tokenBytes = 32

// Store is the slice of the gateway invitations need.
type Store interface {
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	AddMember(ctx context.Context, groupID, userID int64, role models.MemberRole) error
	InsertInvitation(ctx context.Context, inv *models.Invitation) error
	FindInvitation(ctx context.Context, invitationID int64) (*models.Invitation, error)
	FindInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
}

// Issuer creates invitation tokens and resolves them to shareable links.
type Issuer struct {
	store        Store
	frontendBase string
	random       io.Reader
}

// NewIssuer creates an Issuer that builds links under frontendBase.
func NewIssuer(store Store, frontendBase string) *Issuer {
	return &Issuer{
		store:        store,
		frontendBase: strings.TrimRight(frontendBase, "/"),
		random:       rand.Reader,
	}
}

// CreateInvitation stores a new invitation to groupID on behalf of inviterID.
// phone is optional and only recorded.
func (i *Issuer) CreateInvitation(ctx context.Context, groupID, inviterID int64, phone string) (*models.Invitation, error) {
	if _, err := i.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	token, err := i.newToken()
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		GroupID:   groupID,
		InvitedBy: inviterID,
		Token:     token,
		Phone:     strings.TrimSpace(phone),
	}
	if err := i.store.InsertInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	slog.Info("Invitation created", "invitation_id", inv.ID, "group_id", groupID, "invited_by", inviterID)
	metrics.RecordInvitation("created")
	return inv, nil
}

// ResolveInvitationLink returns the shareable link of an existing invitation.
func (i *Issuer) ResolveInvitationLink(ctx context.Context, invitationID int64) (string, error) {
	inv, err := i.store.FindInvitation(ctx, invitationID)
	if err != nil {
		return "", err
	}
	return i.Link(inv), nil
}

// Link formats the frontend URL for inv.
func (i *Issuer) Link(inv *models.Invitation) string {
	return i.frontendBase + "/invite/" + inv.Token
}

// Accept adds userID to the invitation's group as a regular member.
// Accepting an invitation to a group the user already belongs to is a no-op.
func (i *Issuer) Accept(ctx context.Context, token string, userID int64) (*models.Invitation, error) {
	if token == "" {
		return nil, apperror.NewValidation("token", "required")
	}

	inv, err := i.store.FindInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	err = i.store.AddMember(ctx, inv.GroupID, userID, models.MemberRoleMember)
	if errors.Is(err, apperror.ErrConflict) {
		slog.Debug("Invitation accepted by existing member", "group_id", inv.GroupID, "user_id", userID)
		return inv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	slog.Info("Invitation accepted", "invitation_id", inv.ID, "group_id", inv.GroupID, "user_id", userID)
	metrics.RecordInvitation("accepted")
	return inv, nil
}

func (i *Issuer) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(i.random, b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
