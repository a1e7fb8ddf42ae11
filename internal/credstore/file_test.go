package credstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerx0/jille-client/internal/model"
)

func TestFileStore_EmptyWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok := s.Get()
	assert.False(t, ok)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	pair := model.AuthTokens{AccessToken: "acc-1", RefreshToken: "ref-1"}
	require.NoError(t, s.Set(pair))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, pair, got)

	// A fresh store over the same file sees the persisted pair.
	s2, err := NewFileStore(path)
	require.NoError(t, err)
	got, ok = s2.Get()
	require.True(t, ok)
	assert.Equal(t, pair, got)
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(model.AuthTokens{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, s.Clear())
	_, ok := s.Get()
	assert.False(t, ok)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "credential file should be removed")

	// Clearing twice is fine.
	require.NoError(t, s.Clear())
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok := s.Get()
	assert.False(t, ok)
}

func TestFileStore_NoTornPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(model.AuthTokens{AccessToken: "acc-0", RefreshToken: "ref-0"}))

	// Writers swap whole pairs; readers must only ever observe matching
	// generations.
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			n := string(rune('0' + i%10))
			_ = s.Set(model.AuthTokens{AccessToken: "acc-" + n, RefreshToken: "ref-" + n})
		}
		close(stop)
	}()

	for {
		pair, ok := s.Get()
		if ok {
			assert.Equal(t, pair.AccessToken[4:], pair.RefreshToken[4:],
				"access and refresh tokens must belong to the same generation")
		}
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
	}
}

func TestFileStore_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(model.AuthTokens{AccessToken: "a", RefreshToken: "r"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
