package models

import "time"

// GroupVisibility controls who can see a group's content.
type GroupVisibility string

const (
	VisibilityGroupMembers GroupVisibility = "group_members"
	VisibilityPublic       GroupVisibility = "public"
)

// MemberRole is a user's role inside one group.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Group is a collection of members who share expenses.
// The creator is always inserted as an admin member together with the group.
type Group struct {
	ID          int64
	Name        string
	Description string
	Visibility  GroupVisibility
	CreatedBy   int64
	CreatedAt   time.Time
}

// Membership joins a User and a Group. Unique per (UserID, GroupID).
type Membership struct {
	UserID   int64
	GroupID  int64
	Role     MemberRole
	JoinedAt time.Time
}

// Member is a membership enriched with the display name of the user,
// which is what balance computation reports.
type Member struct {
	Membership
	DisplayName string
}

// GroupWithMembers is a group loaded together with its memberships,
// ordered by join order.
type GroupWithMembers struct {
	Group
	Members []Member
}

// HasMember reports whether userID belongs to the group.
func (g *GroupWithMembers) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID is an admin member of the group.
func (g *GroupWithMembers) IsAdmin(userID int64) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role == MemberRoleAdmin
		}
	}
	return false
}
