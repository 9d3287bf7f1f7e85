// Package storage provides abstractions for persistent data storage.
//
// Components depend on the narrowest interface they need; storage.Store
// bundles all of them for the process wiring. Implementations report absent
// rows with apperror.ErrNotFound and uniqueness violations with
// *apperror.ConflictError.
package storage

import (
	"context"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts the user and populates ID and timestamps.
	// Returns *apperror.ConflictError when email, username or the provider
	// pair is already taken.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UsernameExists reports whether a username is taken.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// FindUsersByEmailOrProvider returns every user whose email matches, or
	// whose (provider, providerID) pair matches, ordered by ascending ID.
	FindUsersByEmailOrProvider(ctx context.Context, email, provider, providerID string) ([]*models.User, error)

	// UpdateUser applies patch and returns the updated row.
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup inserts the group and the creator's admin membership in one transaction.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	ListGroupsByUser(ctx context.Context, userID int64) ([]*models.Group, error)

	// AddMember returns *apperror.ConflictError if the user is already a member.
	AddMember(ctx context.Context, groupID, userID int64, role models.MemberRole) error
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)

	// DeleteGroup removes the group with its memberships and invitations.
	// Events and expenses of the group are kept and lose their group.
	DeleteGroup(ctx context.Context, groupID int64) error
}

// LedgerReader is what balance computation reads.
type LedgerReader interface {
	// FindGroupWithMembers loads a group and its members in join order.
	FindGroupWithMembers(ctx context.Context, groupID int64) (*models.GroupWithMembers, error)

	// FindExpensesByGroup loads the group's expenses, shares included, in creation order.
	FindExpensesByGroup(ctx context.Context, groupID int64) ([]models.Expense, error)
}

// Snapshotter runs reads against one consistent snapshot.
type Snapshotter interface {
	ReadSnapshot(ctx context.Context, fn func(LedgerReader) error) error
}

// EventStore persists events and their participants.
type EventStore interface {
	// CreateEvent inserts the event and its participants in one transaction.
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	ListEventsByGroup(ctx context.Context, groupID int64) ([]*models.Event, error)
	ListEventsByUser(ctx context.Context, userID int64) ([]*models.Event, error)
	SetParticipantStatus(ctx context.Context, eventID, userID int64, status models.ParticipantStatus) error
}

// ExpenseStore persists expenses and their shares.
type ExpenseStore interface {
	// CreateExpense inserts the expense and its shares in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error)
	ListExpensesByEvent(ctx context.Context, eventID int64) ([]models.Expense, error)
}

// PoolStore persists pools and contributions.
type PoolStore interface {
	CreatePool(ctx context.Context, pool *models.Pool) error
	GetPool(ctx context.Context, poolID int64) (*models.Pool, error)
	ListPoolsByEvent(ctx context.Context, eventID int64) ([]*models.Pool, error)

	// InsertContribution appends a contribution. Unknown pools yield apperror.ErrNotFound.
	InsertContribution(ctx context.Context, c *models.Contribution) error

	// FindPoolContributions returns the pool's contributions in creation order.
	FindPoolContributions(ctx context.Context, poolID int64) ([]models.Contribution, error)
}

// InvitationStore persists group invitations.
type InvitationStore interface {
	InsertInvitation(ctx context.Context, inv *models.Invitation) error
	FindInvitation(ctx context.Context, invitationID int64) (*models.Invitation, error)
	FindInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
}

// Store is the full persistence gateway.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the components above it.
type Store interface {
	UserStore
	GroupStore
	LedgerReader
	Snapshotter
	EventStore
	ExpenseStore
	PoolStore
	InvitationStore

	// Close releases any resources held by the store.
	Close() error
}
