package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/calculator"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

const (
	ExpenseServiceName = "befriend.v1.ExpenseService"

	ExpenseServiceCreateExpenseProcedure     = "/befriend.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure        = "/befriend.v1.ExpenseService/GetExpense"
	ExpenseServiceListEventExpensesProcedure = "/befriend.v1.ExpenseService/ListEventExpenses"
)

// ExpenseStorage is what the ExpenseService needs from the gateway.
type ExpenseStorage interface {
	storage.ExpenseStore
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// ExpenseService implements the ExpenseService RPC interface.
type ExpenseService struct {
	store ExpenseStorage
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store ExpenseStorage) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense records an expense and its shares.
//
// An expense attached to a group event inherits the event's group. Group
// expenses may only be recorded by members. The payer defaults to the
// caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"amount", msg.Amount.String(),
		"user_id", userID,
		"split_equally", msg.SplitEqually,
	)

	payerID := msg.PayerID
	if payerID == 0 {
		payerID = userID
	}

	groupID := msg.GroupID
	var event *models.Event
	if msg.EventID != nil {
		event, err = s.store.GetEvent(ctx, *msg.EventID)
		if err != nil {
			return nil, toConnectError(ExpenseServiceCreateExpenseProcedure, err)
		}
		if event.GroupID != nil {
			if groupID != nil && *groupID != *event.GroupID {
				return nil, toConnectError(ExpenseServiceCreateExpenseProcedure,
					apperror.NewValidation("group_id", "does not match the event's group"))
			}
			groupID = event.GroupID
		}
	}
	if groupID != nil {
		if err := requireMember(ctx, s.store, *groupID, userID); err != nil {
			return nil, toConnectError(ExpenseServiceCreateExpenseProcedure, err)
		}
	}

	shares, err := requestedShares(msg, event)
	if err != nil {
		return nil, toConnectError(ExpenseServiceCreateExpenseProcedure, err)
	}
	if err := calculator.ValidateShares(msg.Amount, payerID, shares); err != nil {
		return nil, toConnectError(ExpenseServiceCreateExpenseProcedure, err)
	}

	expense := &models.Expense{
		Amount:      msg.Amount,
		PayerID:     payerID,
		EventID:     msg.EventID,
		GroupID:     groupID,
		Description: msg.Description,
		Shares:      shares,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, toConnectError(ExpenseServiceCreateExpenseProcedure, err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "shares_count", len(shares))
	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

func requestedShares(msg *CreateExpenseRequest, event *models.Event) ([]models.ExpenseShare, error) {
	if !msg.SplitEqually {
		shares := make([]models.ExpenseShare, len(msg.Shares))
		for i, sh := range msg.Shares {
			shares[i] = models.ExpenseShare{UserID: sh.UserID, Amount: sh.Amount}
		}
		return shares, nil
	}

	if len(msg.Shares) > 0 {
		return nil, apperror.NewValidation("shares", "must be empty when split_equally is set")
	}
	participants := msg.ParticipantIDs
	if len(participants) == 0 && event != nil {
		for _, p := range event.Participants {
			participants = append(participants, p.UserID)
		}
	}
	shares, err := calculator.SplitEqually(msg.Amount, participants)
	if err != nil {
		return nil, apperror.NewValidation("participant_ids", err.Error())
	}
	return shares, nil
}

// GetExpense returns one expense with its shares. Group expenses are
// visible to group members only.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(ExpenseServiceGetExpenseProcedure, err)
	}
	if expense.GroupID != nil {
		if err := requireMember(ctx, s.store, *expense.GroupID, userID); err != nil {
			return nil, toConnectError(ExpenseServiceGetExpenseProcedure, err)
		}
	}
	return connect.NewResponse(&GetExpenseResponse{Expense: toExpense(expense)}), nil
}

// ListEventExpenses lists an event's expenses in creation order. The caller
// must belong to every group the event or its expenses are filed under.
func (s *ExpenseService) ListEventExpenses(ctx context.Context, req *connect.Request[ListEventExpensesRequest]) (*connect.Response[ListEventExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(ExpenseServiceListEventExpensesProcedure, err)
	}
	expenses, err := s.store.ListExpensesByEvent(ctx, event.ID)
	if err != nil {
		return nil, toConnectError(ExpenseServiceListEventExpensesProcedure, err)
	}

	groups := map[int64]bool{}
	if event.GroupID != nil {
		groups[*event.GroupID] = true
	}
	for _, e := range expenses {
		if e.GroupID != nil {
			groups[*e.GroupID] = true
		}
	}
	for groupID := range groups {
		if err := requireMember(ctx, s.store, groupID, userID); err != nil {
			return nil, toConnectError(ExpenseServiceListEventExpensesProcedure, err)
		}
	}

	out := make([]Expense, len(expenses))
	for i := range expenses {
		out[i] = toExpense(&expenses[i])
	}
	return connect.NewResponse(&ListEventExpensesResponse{Expenses: out}), nil
}

// NewExpenseServiceHandler builds an HTTP handler for the ExpenseService.
func NewExpenseServiceHandler(svc *ExpenseService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	createExpense := connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	getExpense := connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...)
	listEventExpenses := connect.NewUnaryHandler(ExpenseServiceListEventExpensesProcedure, svc.ListEventExpenses, opts...)

	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpense.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseProcedure:
			getExpense.ServeHTTP(w, r)
		case ExpenseServiceListEventExpensesProcedure:
			listEventExpenses.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
