package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumeet/acro-party/internal/domain"
	"github.com/sumeet/acro-party/internal/render"
)

func newTestHub(t *testing.T) *GameHub {
	t.Helper()
	hub := NewGameHub(testRules(), render.Static{Image: []byte("png")}, 0, testLogger())
	t.Cleanup(hub.Close)
	return hub
}

func TestGameHub_CreateGame(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	session, err := hub.CreateGame()
	require.NoError(t, err)
	require.NotNil(t, session)

	code := session.GetRoomCode()
	assert.Len(t, code, DefaultRoomCodeLength)
	for _, c := range code {
		assert.Contains(t, RoomCodeChars, string(c))
	}

	assert.Equal(t, 1, hub.GetSessionCount())
}

func TestGameHub_CreateGame_UniqueCodes(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	codes := make(map[string]bool)
	for i := 0; i < 20; i++ {
		session, err := hub.CreateGame()
		require.NoError(t, err)
		codes[session.GetRoomCode()] = true
	}
	assert.Len(t, codes, 20)
}

func TestGameHub_GetSession(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	created, err := hub.CreateGame()
	require.NoError(t, err)

	found, err := hub.GetSession(created.GetRoomCode())
	require.NoError(t, err)
	assert.Same(t, created, found)

	_, err = hub.GetSession("NOSUCH")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestGameHub_DeleteSession(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	session, err := hub.CreateGame()
	require.NoError(t, err)
	code := session.GetRoomCode()

	hub.DeleteSession(code)

	_, err = hub.GetSession(code)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	assert.Equal(t, 0, hub.GetSessionCount())

	// Deleting an unknown code is a no-op.
	hub.DeleteSession("NOSUCH")
}

func TestGameHub_GetTotalPlayerCount(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t)

	first, err := hub.CreateGame()
	require.NoError(t, err)
	second, err := hub.CreateGame()
	require.NoError(t, err)

	_, err = first.AddPlayer("p1", "alice")
	require.NoError(t, err)
	_, err = first.AddPlayer("p2", "bob")
	require.NoError(t, err)
	_, err = second.AddPlayer("p3", "carol")
	require.NoError(t, err)

	assert.Equal(t, 3, hub.GetTotalPlayerCount())
}

func TestGameHub_Close(t *testing.T) {
	t.Parallel()

	hub := NewGameHub(testRules(), render.Static{Image: []byte("png")}, 0, testLogger())

	_, err := hub.CreateGame()
	require.NoError(t, err)

	hub.Close()
	assert.Equal(t, 0, hub.GetSessionCount())
}
