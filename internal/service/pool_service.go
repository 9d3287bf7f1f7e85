package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/ledger"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const (
	PoolServiceName = "befriend.v1.PoolService"

	PoolServiceCreatePoolProcedure        = "/befriend.v1.PoolService/CreatePool"
	PoolServiceGetPoolProcedure           = "/befriend.v1.PoolService/GetPool"
	PoolServiceListEventPoolsProcedure    = "/befriend.v1.PoolService/ListEventPools"
	PoolServiceGetPoolTotalProcedure      = "/befriend.v1.PoolService/GetPoolTotal"
	PoolServiceListContributionsProcedure = "/befriend.v1.PoolService/ListContributions"
	PoolServiceAddContributionProcedure   = "/befriend.v1.PoolService/AddContribution"
)

type eventLookup interface {
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
}

// PoolService implements the PoolService RPC interface.
type PoolService struct {
	pools  *ledger.Pools
	events eventLookup
}

// NewPoolService creates a new PoolService.
func NewPoolService(pools *ledger.Pools, events eventLookup) *PoolService {
	return &PoolService{pools: pools, events: events}
}

// CreatePool attaches a new pool to an existing event.
func (s *PoolService) CreatePool(ctx context.Context, req *connect.Request[CreatePoolRequest]) (*connect.Response[CreatePoolResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreatePool request received", "event_id", req.Msg.EventID, "name", req.Msg.Name, "user_id", userID)

	if _, err := s.events.GetEvent(ctx, req.Msg.EventID); err != nil {
		return nil, toConnectError(PoolServiceCreatePoolProcedure, err)
	}

	pool, err := s.pools.CreatePool(ctx, req.Msg.EventID, userID, req.Msg.Name, req.Msg.TargetAmount)
	if err != nil {
		return nil, toConnectError(PoolServiceCreatePoolProcedure, err)
	}

	slog.Info("Pool created", "pool_id", pool.ID)
	return connect.NewResponse(&CreatePoolResponse{Pool: toPool(pool)}), nil
}

// GetPool returns one pool.
func (s *PoolService) GetPool(ctx context.Context, req *connect.Request[GetPoolRequest]) (*connect.Response[GetPoolResponse], error) {
	pool, err := s.pools.GetPool(ctx, req.Msg.PoolID)
	if err != nil {
		return nil, toConnectError(PoolServiceGetPoolProcedure, err)
	}
	return connect.NewResponse(&GetPoolResponse{Pool: toPool(pool)}), nil
}

// ListEventPools lists an event's pools, oldest first.
func (s *PoolService) ListEventPools(ctx context.Context, req *connect.Request[ListEventPoolsRequest]) (*connect.Response[ListEventPoolsResponse], error) {
	pools, err := s.pools.ListPoolsByEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(PoolServiceListEventPoolsProcedure, err)
	}

	out := make([]Pool, len(pools))
	for i, p := range pools {
		out[i] = toPool(p)
	}
	return connect.NewResponse(&ListEventPoolsResponse{Pools: out}), nil
}

// GetPoolTotal sums the pool's contributions. Unknown pools total zero.
func (s *PoolService) GetPoolTotal(ctx context.Context, req *connect.Request[GetPoolTotalRequest]) (*connect.Response[GetPoolTotalResponse], error) {
	total, err := s.pools.PoolTotal(ctx, req.Msg.PoolID)
	if err != nil {
		return nil, toConnectError(PoolServiceGetPoolTotalProcedure, err)
	}
	return connect.NewResponse(&GetPoolTotalResponse{PoolID: req.Msg.PoolID, Total: total}), nil
}

// ListContributions lists the pool's contributions in creation order.
func (s *PoolService) ListContributions(ctx context.Context, req *connect.Request[ListContributionsRequest]) (*connect.Response[ListContributionsResponse], error) {
	contributions, err := s.pools.ContributionsByPool(ctx, req.Msg.PoolID)
	if err != nil {
		return nil, toConnectError(PoolServiceListContributionsProcedure, err)
	}

	out := make([]Contribution, len(contributions))
	for i := range contributions {
		out[i] = toContribution(&contributions[i])
	}
	return connect.NewResponse(&ListContributionsResponse{Contributions: out}), nil
}

// AddContribution records a contribution from the caller.
func (s *PoolService) AddContribution(ctx context.Context, req *connect.Request[AddContributionRequest]) (*connect.Response[AddContributionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.pools.AddContribution(ctx, req.Msg.PoolID, userID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(PoolServiceAddContributionProcedure, err)
	}
	return connect.NewResponse(&AddContributionResponse{Contribution: toContribution(c)}), nil
}

// NewPoolServiceHandler builds an HTTP handler for the PoolService.
func NewPoolServiceHandler(svc *PoolService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	createPool := connect.NewUnaryHandler(PoolServiceCreatePoolProcedure, svc.CreatePool, opts...)
	getPool := connect.NewUnaryHandler(PoolServiceGetPoolProcedure, svc.GetPool, opts...)
	listEventPools := connect.NewUnaryHandler(PoolServiceListEventPoolsProcedure, svc.ListEventPools, opts...)
	getPoolTotal := connect.NewUnaryHandler(PoolServiceGetPoolTotalProcedure, svc.GetPoolTotal, opts...)
	listContributions := connect.NewUnaryHandler(PoolServiceListContributionsProcedure, svc.ListContributions, opts...)
	addContribution := connect.NewUnaryHandler(PoolServiceAddContributionProcedure, svc.AddContribution, opts...)

	return "/" + PoolServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PoolServiceCreatePoolProcedure:
			createPool.ServeHTTP(w, r)
		case PoolServiceGetPoolProcedure:
			getPool.ServeHTTP(w, r)
		case PoolServiceListEventPoolsProcedure:
			listEventPools.ServeHTTP(w, r)
		case PoolServiceGetPoolTotalProcedure:
			getPoolTotal.ServeHTTP(w, r)
		case PoolServiceListContributionsProcedure:
			listContributions.ServeHTTP(w, r)
		case PoolServiceAddContributionProcedure:
			addContribution.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
