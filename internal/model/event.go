package model

import "encoding/json"

// Event types delivered over the push stream. Only EventPollVote is acted
// on by this client; everything else is ignored.
const EventPollVote = "POLL_VOTE"

// Event is the JSON envelope of a server-pushed message.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// VotePayload is the payload of a POLL_VOTE event: which poll (and
// option) just received a vote.
type VotePayload struct {
	PollID   string `json:"poll_id"`
	OptionID string `json:"option_id"`
}
