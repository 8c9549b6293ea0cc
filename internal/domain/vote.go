package domain

import "time"

// Vote is the record produced when a confirmed payment's votes are cast.
type Vote struct {
	ID               string
	CandidateID      string
	EventID          string
	CategoryID       string
	NumberOfVotes    int
	VoterIP          string
	PaymentReference string
	CreatedAt        time.Time
}
