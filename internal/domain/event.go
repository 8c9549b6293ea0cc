package domain

import "time"

// Event is a voting event. Only its window matters to the payment pipeline:
// votes cannot be cast outside it.
type Event struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// VotingOpen reports whether votes may be cast at the given time.
func (e *Event) VotingOpen(now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate)
}

var ErrEventNotFound = &DomainError{
	Code:    "EVENT_NOT_FOUND",
	Message: "event not found",
}

var ErrVotingClosed = &DomainError{
	Code:    "VOTING_CLOSED",
	Message: "voting window is closed for this event",
}
