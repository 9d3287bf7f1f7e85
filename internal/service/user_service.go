package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const (
	UserServiceName = "befriend.v1.UserService"

	UserServiceGetUserProcedure         = "/befriend.v1.UserService/GetUser"
	UserServiceFindUserByEmailProcedure = "/befriend.v1.UserService/FindUserByEmail"
	UserServiceListUserGroupsProcedure  = "/befriend.v1.UserService/ListUserGroups"
)

// UserStorage is what the UserService reads.
type UserStorage interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListGroupsByUser(ctx context.Context, userID int64) ([]*models.Group, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// UserService implements the UserService RPC interface. It only ever returns
// the public projection of an account.
type UserService struct {
	store UserStorage
}

// NewUserService creates a new UserService.
func NewUserService(store UserStorage) *UserService {
	return &UserService{store: store}
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, req *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(UserServiceGetUserProcedure, err)
	}
	return connect.NewResponse(&GetUserResponse{User: user.Public()}), nil
}

// FindUserByEmail looks a user up by email, ignoring case and surrounding
// whitespace the same way registration does.
func (s *UserService) FindUserByEmail(ctx context.Context, req *connect.Request[FindUserByEmailRequest]) (*connect.Response[FindUserByEmailResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Msg.Email))
	if email == "" {
		return nil, toConnectError(UserServiceFindUserByEmailProcedure, apperror.NewValidation("email", "required"))
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, toConnectError(UserServiceFindUserByEmailProcedure, err)
	}
	return connect.NewResponse(&FindUserByEmailResponse{User: user.Public()}), nil
}

// ListUserGroups lists the groups a user belongs to, restricted to those the
// caller may see: public groups and groups the caller is also in.
func (s *UserService) ListUserGroups(ctx context.Context, req *connect.Request[ListUserGroupsRequest]) (*connect.Response[ListUserGroupsResponse], error) {
	callerUserID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	userID := req.Msg.UserID

	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, toConnectError(UserServiceListUserGroupsProcedure, err)
	}
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(UserServiceListUserGroupsProcedure, err)
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		visible := userID == callerUserID || g.Visibility == models.VisibilityPublic
		if !visible {
			visible, err = s.store.IsMember(ctx, g.ID, callerUserID)
			if err != nil {
				return nil, toConnectError(UserServiceListUserGroupsProcedure, err)
			}
		}
		if visible {
			out = append(out, toGroup(g))
		}
	}

	slog.Debug("ListUserGroups", "user_id", userID, "caller_id", callerUserID, "visible", len(out), "total", len(groups))
	return connect.NewResponse(&ListUserGroupsResponse{Groups: out}), nil
}

// NewUserServiceHandler builds an HTTP handler for the UserService.
func NewUserServiceHandler(svc *UserService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	getUser := connect.NewUnaryHandler(UserServiceGetUserProcedure, svc.GetUser, opts...)
	findUserByEmail := connect.NewUnaryHandler(UserServiceFindUserByEmailProcedure, svc.FindUserByEmail, opts...)
	listUserGroups := connect.NewUnaryHandler(UserServiceListUserGroupsProcedure, svc.ListUserGroups, opts...)

	return "/" + UserServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UserServiceGetUserProcedure:
			getUser.ServeHTTP(w, r)
		case UserServiceFindUserByEmailProcedure:
			findUserByEmail.ServeHTTP(w, r)
		case UserServiceListUserGroupsProcedure:
			listUserGroups.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
