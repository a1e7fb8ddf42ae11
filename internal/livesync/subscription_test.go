package livesync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerx0/jille-client/internal/model"
)

// sseServer streams whatever is sent on its events channel, framed as
// server-sent events, until the client disconnects.
type sseServer struct {
	events chan string
	srv    *httptest.Server
}

func newSSEServer(t *testing.T) *sseServer {
	t.Helper()
	s := &sseServer{events: make(chan string, 16)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		flusher.Flush()

		for {
			select {
			case data := <-s.events:
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *sseServer) push(data string) {
	s.events <- data
}

func voteEvent(pollID string) string {
	return fmt.Sprintf(`{"type":"POLL_VOTE","payload":{"poll_id":"%s","option_id":"o1"}}`, pollID)
}

// countingFetch returns a FetchFunc that counts invocations and returns
// a minimal snapshot.
func countingFetch(calls *atomic.Int64) FetchFunc {
	return func(ctx context.Context, pollID string) (*model.Poll, error) {
		calls.Add(1)
		return &model.Poll{ID: pollID}, nil
	}
}

func waitForValue(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("counter = %d, want at least %d", counter.Load(), want)
}

func TestSubscription_RefetchesViewedPoll(t *testing.T) {
	srv := newSSEServer(t)

	var fetches, applies atomic.Int64
	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		countingFetch(&fetches),
		func(p *model.Poll) {
			applies.Add(1)
			assert.Equal(t, "poll-b", p.ID)
		})
	require.NoError(t, err)
	defer sub.Close()

	srv.push(voteEvent("poll-b"))
	waitForValue(t, &applies, 1)
	assert.EqualValues(t, 1, fetches.Load(), "exactly one re-fetch per matching event")
}

func TestSubscription_IgnoresOtherPolls(t *testing.T) {
	srv := newSSEServer(t)

	var fetches, applies atomic.Int64
	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		countingFetch(&fetches),
		func(*model.Poll) { applies.Add(1) })
	require.NoError(t, err)
	defer sub.Close()

	// A vote on poll A while viewing poll B must not re-fetch; the next
	// event for poll B must.
	srv.push(voteEvent("poll-a"))
	srv.push(voteEvent("poll-b"))

	waitForValue(t, &applies, 1)
	assert.EqualValues(t, 1, fetches.Load())
}

func TestSubscription_IgnoresOtherEventTypes(t *testing.T) {
	srv := newSSEServer(t)

	var fetches, applies atomic.Int64
	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		countingFetch(&fetches),
		func(*model.Poll) { applies.Add(1) })
	require.NoError(t, err)
	defer sub.Close()

	srv.push(`{"type":"POLL_DELETED","payload":{"poll_id":"poll-b"}}`)
	srv.push(voteEvent("poll-b"))

	waitForValue(t, &applies, 1)
	assert.EqualValues(t, 1, fetches.Load())
}

func TestSubscription_SurvivesMalformedEvents(t *testing.T) {
	srv := newSSEServer(t)

	var fetches, applies atomic.Int64
	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		countingFetch(&fetches),
		func(*model.Poll) { applies.Add(1) })
	require.NoError(t, err)
	defer sub.Close()

	srv.push(`{not json at all`)
	srv.push(`{"type":"POLL_VOTE","payload":"not-an-object"}`)
	srv.push(voteEvent("poll-b"))

	// The unparsable payloads are dropped; the stream stays open and
	// the valid event still lands.
	waitForValue(t, &applies, 1)
	assert.EqualValues(t, 1, fetches.Load())
	assert.NoError(t, sub.Err())
}

func TestSubscription_DiscardsStaleRefetch(t *testing.T) {
	srv := newSSEServer(t)

	fetchStarted := make(chan struct{})
	var applies atomic.Int64

	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		func(ctx context.Context, pollID string) (*model.Poll, error) {
			close(fetchStarted)
			// Resolve only after the viewing context has ended.
			<-ctx.Done()
			return &model.Poll{ID: pollID}, nil
		},
		func(*model.Poll) { applies.Add(1) })
	require.NoError(t, err)

	srv.push(voteEvent("poll-b"))
	<-fetchStarted
	sub.Close()

	assert.EqualValues(t, 0, applies.Load(),
		"a snapshot resolving after Close must be discarded, not applied")
}

func TestSubscription_CloseIsClean(t *testing.T) {
	srv := newSSEServer(t)

	sub, err := Open(context.Background(), srv.srv.Client(), srv.srv.URL, "poll-b",
		countingFetch(new(atomic.Int64)), func(*model.Poll) {})
	require.NoError(t, err)

	sub.Close()

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done must be closed after Close returns")
	}
	assert.NoError(t, sub.Err(), "deliberate close is not a stream error")
}

func TestSubscription_OpenRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Open(context.Background(), srv.Client(), srv.URL, "p",
		countingFetch(new(atomic.Int64)), func(*model.Poll) {})
	assert.Error(t, err)
}
