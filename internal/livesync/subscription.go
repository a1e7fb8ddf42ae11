// Package livesync keeps a viewed poll current by listening to the
// backend's push stream and re-fetching the poll when a relevant vote
// event arrives. The stream is a trigger only: no event payload is ever
// applied to local state, so the displayed snapshot can never diverge
// from the server past one delivery plus one round trip.
package livesync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/metrics"
	"github.com/winnerx0/jille-client/internal/model"
)

// FetchFunc obtains a fresh snapshot of one poll, normally
// api.Client.GetPollView so renewal semantics apply to the re-fetch.
type FetchFunc func(ctx context.Context, pollID string) (*model.Poll, error)

// ApplyFunc receives each fresh snapshot. Called from the subscription's
// goroutine, never after Close has returned.
type ApplyFunc func(poll *model.Poll)

// Subscription is one open push stream scoped to a single viewed poll.
// It lives for exactly one viewing context: open while the results are
// on screen, closed on navigation.
type Subscription struct {
	pollID string
	fetch  FetchFunc
	apply  ApplyFunc

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Open connects to streamURL and starts dispatching events for pollID.
// The given client should be the session-guarded one so the stream
// request and every triggered re-fetch carry valid credentials.
func Open(ctx context.Context, client *http.Client, streamURL, pollID string, fetch FetchFunc, apply ApplyFunc) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("livesync: build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("livesync: open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("livesync: stream returned status %d", resp.StatusCode)
	}

	metrics.Init()
	s := &Subscription{
		pollID: pollID,
		fetch:  fetch,
		apply:  apply,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.readLoop(ctx, resp)
	return s, nil
}

// Close ends the viewing context: the stream request is canceled and
// Close blocks until the reader goroutine has exited. Any re-fetch still
// in flight resolves against the canceled context and is discarded.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Err reports why the stream stopped, nil for a deliberate Close.
// Meaningful once Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the reader goroutine exits, whether by Close or
// by the server dropping the connection.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// readLoop consumes the event stream. Framing is the server-sent-events
// subset the backend emits: "data:" lines accumulated until a blank
// line, ": ..." comment lines as keep-alives.
func (s *Subscription) readLoop(ctx context.Context, resp *http.Response) {
	defer close(s.done)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				s.handleEvent(ctx, data.String())
				data.Reset()
			}
		case strings.HasPrefix(line, ":"):
			// Heartbeat comment.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Field we don't use (event:, id:, retry:).
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.mu.Lock()
		s.err = fmt.Errorf("livesync: stream read: %w", err)
		s.mu.Unlock()
		logging.Logger.Warn().Err(err).Str("poll_id", s.pollID).Msg("livesync: stream dropped")
	}
}

// handleEvent decodes one event and, when it is a vote on the viewed
// poll, triggers a single re-fetch. Anything unparsable is logged and
// dropped; the subscription stays alive.
func (s *Subscription) handleEvent(ctx context.Context, raw string) {
	var event model.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventMalformed).Inc()
		logging.Logger.Warn().Err(err).Msg("livesync: discarding malformed event")
		return
	}

	if event.Type != model.EventPollVote {
		metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventIgnored).Inc()
		return
	}

	var payload model.VotePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventMalformed).Inc()
		logging.Logger.Warn().Err(err).Msg("livesync: discarding malformed vote payload")
		return
	}

	if payload.PollID != s.pollID {
		metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventIgnored).Inc()
		return
	}

	metrics.Metrics.RefetchesTotal.Inc()
	poll, err := s.fetch(ctx, s.pollID)
	if err != nil {
		if ctx.Err() != nil {
			metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventStale).Inc()
			return
		}
		logging.Logger.Warn().Err(err).Str("poll_id", s.pollID).Msg("livesync: re-fetch failed")
		return
	}

	// The viewing context may have ended while the fetch was in
	// flight; a snapshot for a gone view is dropped, not applied.
	if ctx.Err() != nil {
		metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventStale).Inc()
		return
	}

	metrics.Metrics.SSEEventsTotal.WithLabelValues(metrics.EventApplied).Inc()
	s.apply(poll)
}
