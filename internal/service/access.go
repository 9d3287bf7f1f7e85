package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/auth"
	"github.com/iBySnoW/BeFriendBackend/internal/middleware"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

type membershipStore interface {
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// callerID returns the authenticated user. Handlers behind RequireAuth
// always have one.
func callerID(ctx context.Context) (int64, error) {
	if id := middleware.GetUserID(ctx); id != 0 {
		return id, nil
	}
	return 0, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
}

// requireMember returns nil when userID belongs to groupID,
// apperror.ErrNotFound when the group does not exist and errNotMember
// otherwise.
func requireMember(ctx context.Context, store membershipStore, groupID, userID int64) error {
	ok, err := store.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return errNotMember
}
