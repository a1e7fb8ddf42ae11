// Package session implements the authenticated-request pipeline: every
// outbound request carries the stored access credential, and an expired
// credential triggers one shared renewal followed by at most one resend
// of each affected request.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/winnerx0/jille-client/internal/credstore"
	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/metrics"
	"github.com/winnerx0/jille-client/internal/model"
	"github.com/winnerx0/jille-client/pkg/hash"
)

var (
	// ErrNoCredentials is returned by Renew when the store holds no
	// refresh token to renew with.
	ErrNoCredentials = errors.New("session: no stored credentials")

	// ErrRenewalFailed wraps any failure of the refresh call. Stored
	// credentials are left untouched on renewal failure; forcing a
	// logout is the caller's decision, not this layer's.
	ErrRenewalFailed = errors.New("session: credential renewal failed")
)

const renewTimeout = 10 * time.Second

// Transport is an http.RoundTripper that attaches the Bearer credential
// from the store and transparently renews it on a 401.
//
// Renewal is single-flight: when several requests fail with 401 off the
// same expired credential, exactly one refresh call is issued and all of
// them observe its outcome. Each request is resent at most once; a 401
// on the resend is returned as-is. 403 and every other status pass
// through untouched, as do transport errors.
type Transport struct {
	store      credstore.Store
	base       http.RoundTripper
	refreshURL string

	group singleflight.Group
}

// NewTransport builds a Transport over base (nil means
// http.DefaultTransport). baseURL is the backend root, e.g.
// "http://localhost:9000".
func NewTransport(store credstore.Store, base http.RoundTripper, baseURL string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	metrics.Init()
	return &Transport{
		store:      store,
		base:       base,
		refreshURL: baseURL + "/api/v1/auth/refresh",
	}
}

// attempt tracks one logical request across its first send and the
// single permitted resend.
type attempt struct {
	req     *http.Request
	retried bool
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	a := attempt{req: req}

	resp, err := t.send(&a, req.Body)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// 401: only an expired or invalid access credential lands here. A
	// 403 means the credential is fine and the caller is simply not
	// allowed, so it never reaches this path.

	if a.retried {
		// Already resent once this cycle; terminal.
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// The body was consumed by the first send and cannot be
		// reproduced, so a retry is impossible.
		logging.Logger.Warn().Str("url", req.URL.Path).
			Msg("session: 401 on request with non-replayable body, not retrying")
		return resp, nil
	}
	if _, ok := t.store.Get(); !ok {
		// Nothing to renew with.
		return resp, nil
	}

	a.retried = true
	drain(resp)

	pair, err := t.Renew()
	if err != nil {
		return nil, err
	}

	metrics.Metrics.RequestRetries.Inc()
	logging.Logger.Debug().
		Str("url", req.URL.Path).
		Str("token", hash.Fingerprint(pair.AccessToken)).
		Msg("session: resending request with renewed credential")

	var body io.ReadCloser
	if req.GetBody != nil {
		body, err = req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("session: reproduce request body: %w", err)
		}
	}
	return t.send(&a, body)
}

// send clones the tracked request, attaches the current access
// credential, and dispatches it on the base transport. The caller's
// request is never mutated.
func (t *Transport) send(a *attempt, body io.ReadCloser) (*http.Response, error) {
	r := a.req.Clone(a.req.Context())
	r.Body = body
	if pair, ok := t.store.Get(); ok {
		r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	return t.base.RoundTrip(r)
}

// Renew exchanges the stored refresh token for a fresh pair and stores
// it. Concurrent callers share one in-flight renewal; every waiter gets
// the same outcome. The store is written only on success.
//
// The renewal is deliberately not bound to any single request's
// context: its outcome is shared by every waiter, so one caller going
// away must not cancel it for the rest. A fixed timeout bounds it.
func (t *Transport) Renew() (model.AuthTokens, error) {
	v, err, shared := t.group.Do("renew", func() (interface{}, error) {
		return t.doRenew()
	})
	if shared {
		metrics.Metrics.RenewalWaiters.Inc()
	}
	if err != nil {
		return model.AuthTokens{}, err
	}
	return v.(model.AuthTokens), nil
}

func (t *Transport) doRenew() (interface{}, error) {
	// The refresh token is read inside the single-flight body so a
	// caller arriving just after a completed renewal uses the rotated
	// token, not a stale capture.
	pair, ok := t.store.Get()
	if !ok {
		return nil, ErrNoCredentials
	}

	reqBody, err := json.Marshal(model.RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenewalFailed, err)
	}

	client := &http.Client{Transport: t.base, Timeout: renewTimeout}
	req, err := http.NewRequest(http.MethodPost, t.refreshURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenewalFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		metrics.Metrics.RenewalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrRenewalFailed, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		metrics.Metrics.RenewalsTotal.WithLabelValues("rejected").Inc()
		msg := readErrorMessage(resp.Body)
		logging.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("token", hash.Fingerprint(pair.RefreshToken)).
			Msg("session: renewal rejected")
		return nil, fmt.Errorf("%w: status %d: %s", ErrRenewalFailed, resp.StatusCode, msg)
	}

	var envelope model.Envelope[model.AuthTokens]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.Metrics.RenewalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode response: %v", ErrRenewalFailed, err)
	}
	fresh := envelope.Data
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		metrics.Metrics.RenewalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: incomplete token pair in response", ErrRenewalFailed)
	}

	// The pair is swapped as a unit; Get never observes a mix of old
	// and new tokens.
	if err := t.store.Set(fresh); err != nil {
		metrics.Metrics.RenewalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: store credentials: %v", ErrRenewalFailed, err)
	}

	metrics.Metrics.RenewalsTotal.WithLabelValues("success").Inc()
	logging.Logger.Info().
		Str("token", hash.Fingerprint(fresh.AccessToken)).
		Msg("session: credentials renewed")
	return fresh, nil
}

// drain discards and closes a response body so the underlying
// connection can be reused.
func drain(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func readErrorMessage(r io.Reader) string {
	var body model.ErrorBody
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil {
		return "unreadable error body"
	}
	return body.Message
}
