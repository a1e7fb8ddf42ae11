package model

import "time"

// Poll is the snapshot returned by the poll endpoints. Options are
// append-only server-side; the client treats the whole snapshot as
// read-only.
type Poll struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Options   []Option  `json:"options"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatorID string    `json:"creator_id"`
	Voted     bool      `json:"voted"`
}

// Option is a single poll choice with its recorded votes.
type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Votes []Vote `json:"votes"`
}

// Active reports whether the poll is still accepting votes.
func (p *Poll) Active(now time.Time) bool {
	return p.ExpiresAt.After(now)
}

// CreatePollRequest is the body for POST /api/v1/poll/create.
type CreatePollRequest struct {
	Title     string    `json:"title" validate:"required"`
	Options   []string  `json:"options" validate:"required,min=2,max=15,dive,required"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}
