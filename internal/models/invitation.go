package models

import "time"

// Invitation lets the holder of Token join GroupID.
// Tokens are random, never reused and never expire.
type Invitation struct {
	ID        int64
	GroupID   int64
	InvitedBy int64
	Token     string
	Phone     string
	CreatedAt time.Time
}
