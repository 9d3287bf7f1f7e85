package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iBySnoW/BeFriendBackend/internal/calculator"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// Money travels as decimal strings ("12.50"), never as JSON numbers.

// Auth messages

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
}

type RegisterResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Message string `json:"message"`
}

type MeRequest struct{}

type MeResponse struct {
	User models.PublicUser `json:"user"`
}

// FederatedLoginRequest carries the provider's authorization code.
type FederatedLoginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type FederatedLoginResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// User messages

type GetUserRequest struct {
	UserID int64 `json:"user_id"`
}

type GetUserResponse struct {
	User models.PublicUser `json:"user"`
}

type FindUserByEmailRequest struct {
	Email string `json:"email"`
}

type FindUserByEmailResponse struct {
	User models.PublicUser `json:"user"`
}

type ListUserGroupsRequest struct {
	UserID int64 `json:"user_id"`
}

type ListUserGroupsResponse struct {
	Groups []Group `json:"groups"`
}

// Group messages

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Visibility  string    `json:"visibility"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Member struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID int64 `json:"group_id"`
}

type GetGroupResponse struct {
	Group   Group    `json:"group"`
	Members []Member `json:"members"`
}

type ListMyGroupsRequest struct{}

type ListMyGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupID int64 `json:"group_id"`
}

type DeleteGroupResponse struct{}

type GetGroupBalancesRequest struct {
	GroupID int64 `json:"group_id"`
}

type MemberBalance struct {
	UserID   int64           `json:"user_id"`
	UserName string          `json:"user_name"`
	Balance  decimal.Decimal `json:"balance"`
}

type Transfer struct {
	From   int64           `json:"from"`
	To     int64           `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type GetGroupBalancesResponse struct {
	Balances  []MemberBalance `json:"balances"`
	Transfers []Transfer      `json:"transfers"`
}

type Invitation struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	InvitedBy int64     `json:"invited_by"`
	Token     string    `json:"token"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInvitationRequest struct {
	GroupID int64  `json:"group_id"`
	Phone   string `json:"phone,omitempty"`
}

type CreateInvitationResponse struct {
	Invitation Invitation `json:"invitation"`
	Link       string     `json:"link"`
}

type GetInvitationLinkRequest struct {
	InvitationID int64 `json:"invitation_id"`
}

type GetInvitationLinkResponse struct {
	Link string `json:"link"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

type AcceptInvitationResponse struct {
	Group Group `json:"group"`
}

// Event messages

type Participant struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

type Event struct {
	ID           int64         `json:"id"`
	GroupID      *int64        `json:"group_id,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	StartsAt     *time.Time    `json:"starts_at,omitempty"`
	CreatedBy    int64         `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	Participants []Participant `json:"participants"`
}

type CreateEventRequest struct {
	GroupID        *int64     `json:"group_id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	ParticipantIDs []int64    `json:"participant_ids,omitempty"`
}

type CreateEventResponse struct {
	Event Event `json:"event"`
}

type GetEventRequest struct {
	EventID int64 `json:"event_id"`
}

type GetEventResponse struct {
	Event Event `json:"event"`
}

type ListGroupEventsRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListMyEventsRequest struct{}

type ListEventsResponse struct {
	Events []Event `json:"events"`
}

type RespondToEventRequest struct {
	EventID int64  `json:"event_id"`
	Status  string `json:"status"`
}

type RespondToEventResponse struct {
	Event Event `json:"event"`
}

// Expense messages

type Share struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     int64           `json:"payer_id"`
	EventID     *int64          `json:"event_id,omitempty"`
	GroupID     *int64          `json:"group_id,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Shares      []Share         `json:"shares"`
}

// CreateExpenseRequest either lists explicit Shares or sets SplitEqually,
// in which case ParticipantIDs (or, when empty, the event's participants)
// split the amount.
type CreateExpenseRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PayerID        int64           `json:"payer_id,omitempty"`
	EventID        *int64          `json:"event_id,omitempty"`
	GroupID        *int64          `json:"group_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	Shares         []Share         `json:"shares,omitempty"`
	SplitEqually   bool            `json:"split_equally,omitempty"`
	ParticipantIDs []int64         `json:"participant_ids,omitempty"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID int64 `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListEventExpensesRequest struct {
	EventID int64 `json:"event_id"`
}

type ListEventExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

// Pool messages

type Pool struct {
	ID           int64            `json:"id"`
	EventID      int64            `json:"event_id"`
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	CreatedBy    int64            `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
}

type Contribution struct {
	ID            int64           `json:"id"`
	PoolID        int64           `json:"pool_id"`
	ContributorID int64           `json:"contributor_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreatePoolRequest struct {
	EventID      int64            `json:"event_id"`
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
}

type CreatePoolResponse struct {
	Pool Pool `json:"pool"`
}

type GetPoolRequest struct {
	PoolID int64 `json:"pool_id"`
}

type GetPoolResponse struct {
	Pool Pool `json:"pool"`
}

type ListEventPoolsRequest struct {
	EventID int64 `json:"event_id"`
}

type ListEventPoolsResponse struct {
	Pools []Pool `json:"pools"`
}

type GetPoolTotalRequest struct {
	PoolID int64 `json:"pool_id"`
}

type GetPoolTotalResponse struct {
	PoolID int64           `json:"pool_id"`
	Total  decimal.Decimal `json:"total"`
}

type ListContributionsRequest struct {
	PoolID int64 `json:"pool_id"`
}

type ListContributionsResponse struct {
	Contributions []Contribution `json:"contributions"`
}

type AddContributionRequest struct {
	PoolID int64           `json:"pool_id"`
	Amount decimal.Decimal `json:"amount"`
}

type AddContributionResponse struct {
	Contribution Contribution `json:"contribution"`
}

// Conversions from domain records

func toGroup(g *models.Group) Group {
	return Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Visibility:  string(g.Visibility),
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
	}
}

func toMembers(members []models.Member) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = Member{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}

func toBalances(balances []calculator.MemberBalance) []MemberBalance {
	out := make([]MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = MemberBalance{UserID: b.UserID, UserName: b.UserName, Balance: b.Balance}
	}
	return out
}

func toTransfers(transfers []calculator.Transfer) []Transfer {
	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}

func toInvitation(inv *models.Invitation) Invitation {
	return Invitation{
		ID:        inv.ID,
		GroupID:   inv.GroupID,
		InvitedBy: inv.InvitedBy,
		Token:     inv.Token,
		Phone:     inv.Phone,
		CreatedAt: inv.CreatedAt,
	}
}

func toEvent(e *models.Event) Event {
	participants := make([]Participant, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = Participant{UserID: p.UserID, Status: string(p.Status)}
	}
	return Event{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Name:         e.Name,
		Description:  e.Description,
		StartsAt:     e.StartsAt,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		Participants: participants,
	}
}

func toEvents(events []*models.Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = toEvent(e)
	}
	return out
}

func toExpense(e *models.Expense) Expense {
	shares := make([]Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = Share{UserID: s.UserID, Amount: s.Amount}
	}
	return Expense{
		ID:          e.ID,
		Amount:      e.Amount,
		PayerID:     e.PayerID,
		EventID:     e.EventID,
		GroupID:     e.GroupID,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		Shares:      shares,
	}
}

func toPool(p *models.Pool) Pool {
	return Pool{
		ID:           p.ID,
		EventID:      p.EventID,
		Name:         p.Name,
		TargetAmount: p.Target,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
	}
}

func toContribution(c *models.Contribution) Contribution {
	return Contribution{
		ID:            c.ID,
		PoolID:        c.PoolID,
		ContributorID: c.ContributorID,
		Amount:        c.Amount,
		CreatedAt:     c.CreatedAt,
	}
}
