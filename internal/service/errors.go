package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
)

var (
	errNotMember = errors.New("not a member of this group")
	errNotAdmin  = errors.New("only a group admin can do this")
	errInternal  = errors.New("internal error")
)

// toConnectError maps the apperror taxonomy onto connect codes. Anything
// unclassified is logged and reported as CodeInternal without its message.
func toConnectError(procedure string, err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case apperror.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, apperror.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, apperror.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, apperror.ErrUnauthorized):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, errNotMember), errors.Is(err, errNotAdmin):
		return connect.NewError(connect.CodePermissionDenied, err)
	}

	slog.Error(procedure+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errInternal)
}
