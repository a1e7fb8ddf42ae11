package stub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/winnerx0/jille-client/internal/model"
)

var (
	ErrEmailTaken      = errors.New("stub: email already registered")
	ErrUserNotFound    = errors.New("stub: user not found")
	ErrPollNotFound    = errors.New("stub: poll not found")
	ErrOptionNotFound  = errors.New("stub: option not found")
	ErrPollExpired     = errors.New("stub: poll has expired")
	ErrAlreadyVoted    = errors.New("stub: user has already voted on this poll")
	ErrNotCreator      = errors.New("stub: not the poll creator")
	ErrRefreshInvalid  = errors.New("stub: invalid refresh token")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte
}

// refreshRecord tracks one issued refresh token. Tokens are single-use:
// Used flips on the first renewal and any replay is rejected.
type refreshRecord struct {
	userID uuid.UUID
	used   bool
}

// Store holds all stub state behind one mutex. Volume is tiny by
// definition, so a single lock keeps every invariant trivially atomic.
type Store struct {
	mu sync.RWMutex

	usersByEmail map[string]*User
	usersByID    map[uuid.UUID]*User
	polls        map[string]*model.Poll
	// voters records who voted on which poll, across all options.
	voters  map[string]map[string]struct{}
	refresh map[string]*refreshRecord
}

func NewStore() *Store {
	return &Store{
		usersByEmail: make(map[string]*User),
		usersByID:    make(map[uuid.UUID]*User),
		polls:        make(map[string]*model.Poll),
		voters:       make(map[string]map[string]struct{}),
		refresh:      make(map[string]*refreshRecord),
	}
}

func (s *Store) CreateUser(username, email string, passwordHash []byte) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, ErrEmailTaken
	}
	u := &User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash}
	s.usersByEmail[email] = u
	s.usersByID[u.ID] = u
	return u, nil
}

func (s *Store) UserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UserByID(id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// PollCount returns how many polls a user has created.
func (s *Store) PollCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.polls {
		if p.CreatorID == userID {
			n++
		}
	}
	return n
}

// IssueRefresh mints a refresh token for a user.
func (s *Store) IssueRefresh(userID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.refresh[token] = &refreshRecord{userID: userID}
	return token
}

// RotateRefresh consumes a refresh token and mints its replacement.
// A token already used, or never issued, is rejected: rotation makes
// every refresh token single-use.
func (s *Store) RotateRefresh(token string) (uuid.UUID, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[token]
	if !ok || rec.used {
		return uuid.Nil, "", ErrRefreshInvalid
	}
	rec.used = true

	next := uuid.NewString()
	s.refresh[next] = &refreshRecord{userID: rec.userID}
	return rec.userID, next, nil
}

// CreatePoll stores a new poll owned by creatorID.
func (s *Store) CreatePoll(creatorID string, req model.CreatePollRequest) *model.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll := &model.Poll{
		ID:        uuid.NewString(),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: req.ExpiresAt,
		CreatorID: creatorID,
	}
	for _, name := range req.Options {
		poll.Options = append(poll.Options, model.Option{
			ID:    uuid.NewString(),
			Name:  name,
			Votes: []model.Vote{},
		})
	}
	s.polls[poll.ID] = poll
	s.voters[poll.ID] = make(map[string]struct{})
	return poll
}

// Poll returns a deep copy of a poll snapshot with the caller's voted
// flag filled in. Copies keep handlers from racing the store.
func (s *Store) Poll(pollID, callerID string) (*model.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}
	snap := copyPoll(p)
	_, snap.Voted = s.voters[pollID][callerID]
	return snap, nil
}

// PollForCreator returns the poll snapshot, restricted to its creator.
func (s *Store) PollForCreator(pollID, callerID string) (*model.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}
	if p.CreatorID != callerID {
		return nil, ErrNotCreator
	}
	return copyPoll(p), nil
}

// Polls lists all poll snapshots with the caller's voted flags.
func (s *Store) Polls(callerID string) []model.Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Poll, 0, len(s.polls))
	for id, p := range s.polls {
		snap := copyPoll(p)
		_, snap.Voted = s.voters[id][callerID]
		out = append(out, *snap)
	}
	return out
}

// DeletePoll removes a poll; creator-only.
func (s *Store) DeletePoll(pollID, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return ErrPollNotFound
	}
	if p.CreatorID != callerID {
		return ErrNotCreator
	}
	delete(s.polls, pollID)
	delete(s.voters, pollID)
	return nil
}

// Vote records one vote per (voter, poll), across all options.
func (s *Store) Vote(pollID, optionID, voterID string, now time.Time) (*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}
	if !p.ExpiresAt.After(now) {
		return nil, ErrPollExpired
	}
	if _, voted := s.voters[pollID][voterID]; voted {
		return nil, ErrAlreadyVoted
	}

	for i := range p.Options {
		if p.Options[i].ID != optionID {
			continue
		}
		vote := model.Vote{
			ID:       uuid.NewString(),
			UserID:   voterID,
			PollID:   pollID,
			OptionID: optionID,
		}
		p.Options[i].Votes = append(p.Options[i].Votes, vote)
		s.voters[pollID][voterID] = struct{}{}
		return &vote, nil
	}
	return nil, ErrOptionNotFound
}

func copyPoll(p *model.Poll) *model.Poll {
	snap := *p
	snap.Options = make([]model.Option, len(p.Options))
	for i, opt := range p.Options {
		snap.Options[i] = opt
		snap.Options[i].Votes = append([]model.Vote(nil), opt.Votes...)
	}
	return &snap
}
