package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerx0/jille-client/internal/credstore"
	"github.com/winnerx0/jille-client/internal/model"
)

func authedClient(t *testing.T, srv *httptest.Server) (*Client, credstore.Store) {
	t.Helper()
	store := credstore.NewMemStore()
	require.NoError(t, store.Set(model.AuthTokens{AccessToken: "acc", RefreshToken: "ref"}))
	return New(srv.URL, store), store
}

func TestClient_LoginStoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.c", req.Email)
		json.NewEncoder(w).Encode(model.Envelope[model.AuthTokens]{
			Message: "login successful",
			Data:    model.AuthTokens{AccessToken: "new-acc", RefreshToken: "new-ref"},
		})
	}))
	defer srv.Close()

	store := credstore.NewMemStore()
	client := New(srv.URL, store)

	err := client.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)

	pair, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "new-acc", pair.AccessToken)
	assert.Equal(t, "new-ref", pair.RefreshToken)
}

func TestClient_Logout(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, store := authedClient(t, srv)
	require.NoError(t, client.Logout())

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestClient_GetPollView_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(model.ErrorBody{Message: "not the creator"})
	}))
	defer srv.Close()

	client, _ := authedClient(t, srv)
	_, err := client.GetPollView(context.Background(), "p1")

	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestClient_GetPoll_DecodesSnapshot(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/poll/p1", r.URL.Path)
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(model.Poll{
			ID:        "p1",
			Title:     "lunch",
			ExpiresAt: expires,
			CreatorID: "u1",
			Options: []model.Option{
				{ID: "o1", Name: "pizza", Votes: []model.Vote{{ID: "v1", PollID: "p1", OptionID: "o1"}}},
				{ID: "o2", Name: "sushi"},
			},
		})
	}))
	defer srv.Close()

	client, _ := authedClient(t, srv)
	poll, err := client.GetPoll(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "lunch", poll.Title)
	require.Len(t, poll.Options, 2)
	assert.Len(t, poll.Options[0].Votes, 1)
	assert.True(t, poll.Active(time.Now()))
}

func TestClient_ListPolls_UnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Envelope[[]model.Poll]{
			Message: "ok",
			Data:    []model.Poll{{ID: "p1"}, {ID: "p2"}},
		})
	}))
	defer srv.Close()

	client, _ := authedClient(t, srv)
	polls, err := client.ListPolls(context.Background())
	require.NoError(t, err)
	assert.Len(t, polls, 2)
}

func TestClient_Vote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(model.ErrorBody{Message: "poll has expired"})
	}))
	defer srv.Close()

	client, _ := authedClient(t, srv)
	_, err := client.Vote(context.Background(), model.VoteRequest{PollID: "p1", OptionID: "o1"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "poll has expired", apiErr.Message)
}

func TestClient_UserSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := credstore.NewMemStore()
	require.NoError(t, store.Set(model.AuthTokens{AccessToken: signed, RefreshToken: "r"}))
	client := New("http://unused", store)

	sub, err := client.UserSubject()
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestClient_UserSubject_NoSession(t *testing.T) {
	client := New("http://unused", credstore.NewMemStore())
	_, err := client.UserSubject()
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
