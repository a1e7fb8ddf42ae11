package model

// Vote is an individual vote record. Immutable once created; the server
// enforces at most one vote per (voter, poll) across all options.
type Vote struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	PollID   string `json:"poll_id"`
	OptionID string `json:"option_id"`
}

// VoteRequest is the body for POST /api/v1/vote/.
type VoteRequest struct {
	PollID   string `json:"poll_id" validate:"required"`
	OptionID string `json:"option_id" validate:"required"`
}

// VoteResponse is the acknowledgement returned after a vote is recorded.
type VoteResponse struct {
	Message string `json:"message"`
}
