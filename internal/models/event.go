package models

import "time"

// ParticipantStatus is a participant's answer to an event.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "pending"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
)

// Valid reports whether s is a known status.
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantPending, ParticipantAccepted, ParticipantDeclined:
		return true
	}
	return false
}

// Event is an occasion, optionally under a group.
// The creator is auto-added as an accepted participant.
type Event struct {
	ID          int64
	GroupID     *int64
	Name        string
	Description string
	StartsAt    *time.Time
	CreatedBy   int64
	CreatedAt   time.Time

	Participants []EventParticipant
}

// EventParticipant is one user's participation in an event.
type EventParticipant struct {
	UserID int64
	Status ParticipantStatus
}
