// Package models defines the core domain records for BeFriend.
//
// # Entities
//
//   - User: an account, created by registration or by the first federated login
//   - Group, Membership, Member: who shares expenses with whom
//   - Event, EventParticipant: an occasion, optionally under a group
//   - Expense, ExpenseShare: who paid and how the amount is attributed
//   - Pool, Contribution: pooled funds attached to an event
//   - Invitation: a shareable token that lets someone join a group
//
// # Conventions
//
//  1. IDs are int64 database identifiers; relationships are IDs, not pointers.
//  2. Money is always decimal.Decimal. Nothing here uses float64 for amounts.
//  3. Optional references use pointers (*int64, *time.Time) so that "absent"
//     is distinguishable from zero.
package models
