package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/calculator"
	"github.com/iBySnoW/BeFriendBackend/internal/invite"
	"github.com/iBySnoW/BeFriendBackend/internal/ledger"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

const (
	GroupServiceName = "befriend.v1.GroupService"

	GroupServiceCreateGroupProcedure       = "/befriend.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure          = "/befriend.v1.GroupService/GetGroup"
	GroupServiceListMyGroupsProcedure      = "/befriend.v1.GroupService/ListMyGroups"
	GroupServiceDeleteGroupProcedure       = "/befriend.v1.GroupService/DeleteGroup"
	GroupServiceGetGroupBalancesProcedure  = "/befriend.v1.GroupService/GetGroupBalances"
	GroupServiceCreateInvitationProcedure  = "/befriend.v1.GroupService/CreateInvitation"
	GroupServiceGetInvitationLinkProcedure = "/befriend.v1.GroupService/GetInvitationLink"
	GroupServiceAcceptInvitationProcedure  = "/befriend.v1.GroupService/AcceptInvitation"
)

// GroupStorage is what the GroupService reads directly.
type GroupStorage interface {
	storage.GroupStore
	FindGroupWithMembers(ctx context.Context, groupID int64) (*models.GroupWithMembers, error)
	FindInvitation(ctx context.Context, invitationID int64) (*models.Invitation, error)
}

// GroupService implements the GroupService RPC interface.
type GroupService struct {
	store  GroupStorage
	engine *ledger.Engine
	issuer *invite.Issuer
}

// NewGroupService creates a new GroupService.
func NewGroupService(store GroupStorage, engine *ledger.Engine, issuer *invite.Issuer) *GroupService {
	return &GroupService{store: store, engine: engine, issuer: issuer}
}

// CreateGroup creates a new group with the caller as its admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	verr := &apperror.ValidationError{}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		verr.Add("name", "required")
	}
	visibility := models.GroupVisibility(req.Msg.Visibility)
	switch visibility {
	case "", models.VisibilityGroupMembers, models.VisibilityPublic:
	default:
		verr.Add("visibility", "must be group_members or public")
	}
	if err := verr.OrNil(); err != nil {
		return nil, toConnectError(GroupServiceCreateGroupProcedure, err)
	}

	group := &models.Group{
		Name:        name,
		Description: req.Msg.Description,
		Visibility:  visibility,
		CreatedBy:   userID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError(GroupServiceCreateGroupProcedure, err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup returns a group and its members. Groups that are not public are
// visible to their members only.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := s.store.FindGroupWithMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(GroupServiceGetGroupProcedure, err)
	}
	if group.Visibility != models.VisibilityPublic && !group.HasMember(userID) {
		return nil, toConnectError(GroupServiceGetGroupProcedure, errNotMember)
	}

	return connect.NewResponse(&GetGroupResponse{
		Group:   toGroup(&group.Group),
		Members: toMembers(group.Members),
	}), nil
}

// ListMyGroups lists the groups the caller belongs to.
func (s *GroupService) ListMyGroups(ctx context.Context, req *connect.Request[ListMyGroupsRequest]) (*connect.Response[ListMyGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(GroupServiceListMyGroupsProcedure, err)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}
	return connect.NewResponse(&ListMyGroupsResponse{Groups: out}), nil
}

// DeleteGroup removes a group. Only its admins may do so; the group's
// events and expenses survive without a group.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("DeleteGroup request received", "group_id", groupID, "user_id", userID)

	group, err := s.store.FindGroupWithMembers(ctx, groupID)
	if err != nil {
		return nil, toConnectError(GroupServiceDeleteGroupProcedure, err)
	}
	if !group.HasMember(userID) {
		return nil, toConnectError(GroupServiceDeleteGroupProcedure, errNotMember)
	}
	if !group.IsAdmin(userID) {
		return nil, toConnectError(GroupServiceDeleteGroupProcedure, errNotAdmin)
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return nil, toConnectError(GroupServiceDeleteGroupProcedure, err)
	}

	slog.Info("Group deleted", "group_id", groupID)
	return connect.NewResponse(&DeleteGroupResponse{}), nil
}

// GetGroupBalances computes every member's net balance and a set of
// transfers that would settle them.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID, "user_id", userID)

	empty := &GetGroupBalancesResponse{Balances: []MemberBalance{}, Transfers: []Transfer{}}
	if err := requireMember(ctx, s.store, groupID, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return connect.NewResponse(empty), nil
		}
		return nil, toConnectError(GroupServiceGetGroupBalancesProcedure, err)
	}

	balances, err := s.engine.ComputeBalances(ctx, groupID)
	if err != nil {
		return nil, toConnectError(GroupServiceGetGroupBalancesProcedure, err)
	}
	transfers := calculator.SuggestTransfers(balances)

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"members_count", len(balances),
		"transfers_count", len(transfers),
	)

	return connect.NewResponse(&GetGroupBalancesResponse{
		Balances:  toBalances(balances),
		Transfers: toTransfers(transfers),
	}), nil
}

// CreateInvitation issues a new invitation token for a group the caller
// belongs to and returns its shareable link.
func (s *GroupService) CreateInvitation(ctx context.Context, req *connect.Request[CreateInvitationRequest]) (*connect.Response[CreateInvitationResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(GroupServiceCreateInvitationProcedure, err)
	}

	inv, err := s.issuer.CreateInvitation(ctx, req.Msg.GroupID, userID, req.Msg.Phone)
	if err != nil {
		return nil, toConnectError(GroupServiceCreateInvitationProcedure, err)
	}

	return connect.NewResponse(&CreateInvitationResponse{
		Invitation: toInvitation(inv),
		Link:       s.issuer.Link(inv),
	}), nil
}

// GetInvitationLink returns the link of an existing invitation to a member
// of its group.
func (s *GroupService) GetInvitationLink(ctx context.Context, req *connect.Request[GetInvitationLinkRequest]) (*connect.Response[GetInvitationLinkResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.store.FindInvitation(ctx, req.Msg.InvitationID)
	if err != nil {
		return nil, toConnectError(GroupServiceGetInvitationLinkProcedure, err)
	}
	if err := requireMember(ctx, s.store, inv.GroupID, userID); err != nil {
		return nil, toConnectError(GroupServiceGetInvitationLinkProcedure, err)
	}

	link, err := s.issuer.ResolveInvitationLink(ctx, inv.ID)
	if err != nil {
		return nil, toConnectError(GroupServiceGetInvitationLinkProcedure, err)
	}
	return connect.NewResponse(&GetInvitationLinkResponse{Link: link}), nil
}

// AcceptInvitation joins the caller to the invitation's group.
func (s *GroupService) AcceptInvitation(ctx context.Context, req *connect.Request[AcceptInvitationRequest]) (*connect.Response[AcceptInvitationResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.issuer.Accept(ctx, req.Msg.Token, userID)
	if err != nil {
		return nil, toConnectError(GroupServiceAcceptInvitationProcedure, err)
	}

	group, err := s.store.GetGroup(ctx, inv.GroupID)
	if err != nil {
		return nil, toConnectError(GroupServiceAcceptInvitationProcedure, err)
	}
	return connect.NewResponse(&AcceptInvitationResponse{Group: toGroup(group)}), nil
}

// NewGroupServiceHandler builds an HTTP handler for the GroupService.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	createGroup := connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...)
	getGroup := connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...)
	listMyGroups := connect.NewUnaryHandler(GroupServiceListMyGroupsProcedure, svc.ListMyGroups, opts...)
	deleteGroup := connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...)
	getGroupBalances := connect.NewUnaryHandler(GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...)
	createInvitation := connect.NewUnaryHandler(GroupServiceCreateInvitationProcedure, svc.CreateInvitation, opts...)
	getInvitationLink := connect.NewUnaryHandler(GroupServiceGetInvitationLinkProcedure, svc.GetInvitationLink, opts...)
	acceptInvitation := connect.NewUnaryHandler(GroupServiceAcceptInvitationProcedure, svc.AcceptInvitation, opts...)

	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			createGroup.ServeHTTP(w, r)
		case GroupServiceGetGroupProcedure:
			getGroup.ServeHTTP(w, r)
		case GroupServiceListMyGroupsProcedure:
			listMyGroups.ServeHTTP(w, r)
		case GroupServiceDeleteGroupProcedure:
			deleteGroup.ServeHTTP(w, r)
		case GroupServiceGetGroupBalancesProcedure:
			getGroupBalances.ServeHTTP(w, r)
		case GroupServiceCreateInvitationProcedure:
			createInvitation.ServeHTTP(w, r)
		case GroupServiceGetInvitationLinkProcedure:
			getInvitationLink.ServeHTTP(w, r)
		case GroupServiceAcceptInvitationProcedure:
			acceptInvitation.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
