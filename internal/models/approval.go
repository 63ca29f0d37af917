// Package models contains data structures for the application's domain models.
package models

// ApprovalStatus is the moderation state shared by accommodations, events,
// reviews, and reels. Only APPROVED content is publicly listable.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalFlagged  ApprovalStatus = "FLAGGED"
)

// CanTransitionTo reports whether an approval status transition is allowed.
// PENDING and FLAGGED can be resolved either way by an admin; anything can be
// flagged by user reports; APPROVED/REJECTED are otherwise terminal.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	if next == ApprovalFlagged {
		return s != ApprovalFlagged
	}
	switch s {
	case ApprovalPending, ApprovalFlagged:
		return next == ApprovalApproved || next == ApprovalRejected
	default:
		return false
	}
}

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalFlagged:
		return true
	}
	return false
}
