package services

// BundleInput is one requested (bundle, quantity) pair.
type BundleInput struct {
	BundleID string
	Quantity int
}

// InitializeCommand carries a voter's intent to buy votes. Validated once,
// never mutated.
type InitializeCommand struct {
	Email       string
	Bundles     []BundleInput
	Coupons     []string
	EventID     string
	CategoryID  string
	CandidateID string
	CallbackURL string
	VoterIP     string
	UserAgent   string
}

// InitializeResult is what the client needs to complete the charge. Reused is
// set when an existing un-expired pending payment was returned instead of a
// fresh charge.
type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
	OriginalAmount   int64
	DiscountAmount   int64
	FinalAmount      int64
	TotalVotes       int
	Currency         string
	Reused           bool
}
