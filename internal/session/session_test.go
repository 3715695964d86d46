package session

import (
	"testing"

	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuth() config.AuthConfig {
	return config.AuthConfig{Username: "leia", DisplayName: "Leia Organa", Password: "alderaan"}
}

func newTestManager(t *testing.T, persist Persister) *Manager {
	t.Helper()
	m, err := newManager(testAuth(), persist, nil, bcrypt.MinCost)
	require.NoError(t, err)
	return m
}

func memoryStore(t *testing.T) *store.ViewStore {
	t.Helper()
	s, err := store.NewViewStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogin(t *testing.T) {
	m := newTestManager(t, memoryStore(t))
	assert.False(t, m.IsAuthenticated())

	_, err := m.Current()
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	sess, err := m.Login("leia", "alderaan")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "Leia Organa", sess.DisplayName)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, m.IsAuthenticated())

	cur, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, sess.ID, cur.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m := newTestManager(t, memoryStore(t))

	for _, tc := range []struct{ user, pass string }{
		{"leia", "hoth"},
		{"han", "alderaan"},
		{"", ""},
	} {
		_, err := m.Login(tc.user, tc.pass)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	assert.False(t, m.IsAuthenticated())
}

func TestLogin_NewSessionIDEachTime(t *testing.T) {
	m := newTestManager(t, memoryStore(t))

	first, err := m.Login("leia", "alderaan")
	require.NoError(t, err)
	second, err := m.Login(" leia ", "alderaan")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLogout(t *testing.T) {
	persist := memoryStore(t)
	m := newTestManager(t, persist)

	_, err := m.Login("leia", "alderaan")
	require.NoError(t, err)
	require.NoError(t, m.Logout())

	assert.False(t, m.IsAuthenticated())
	_, ok := persist.GetSession()
	assert.False(t, ok)

	assert.ErrorIs(t, m.Logout(), domain.ErrNotAuthenticated)
}

func TestSession_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	persist, err := store.NewViewStore(dir, nil)
	require.NoError(t, err)
	m := newTestManager(t, persist)
	sess, err := m.Login("leia", "alderaan")
	require.NoError(t, err)
	require.NoError(t, persist.Close())

	persist, err = store.NewViewStore(dir, nil)
	require.NoError(t, err)
	defer persist.Close()

	m = newTestManager(t, persist)
	assert.True(t, m.IsAuthenticated())
	cur, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, sess.ID, cur.ID)
}

func TestSession_ForeignUserDiscarded(t *testing.T) {
	persist := memoryStore(t)
	require.NoError(t, persist.SaveSession(domain.Session{ID: "x", Username: "vader", Authenticated: true}))

	m := newTestManager(t, persist)
	assert.False(t, m.IsAuthenticated())
	_, ok := persist.GetSession()
	assert.False(t, ok)
}

func TestNewManager_PasswordHash(t *testing.T) {
	hash, err := HashPassword("bespin", bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testAuth()
	cfg.PasswordHash = hash
	m, err := newManager(cfg, memoryStore(t), nil, bcrypt.MinCost)
	require.NoError(t, err)

	_, err = m.Login("leia", "alderaan")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "hash wins over plain password")
	_, err = m.Login("leia", "bespin")
	assert.NoError(t, err)

	cfg.PasswordHash = "not-a-hash"
	_, err = newManager(cfg, memoryStore(t), nil, bcrypt.MinCost)
	assert.Error(t, err)

	_, err = newManager(config.AuthConfig{}, memoryStore(t), nil, bcrypt.MinCost)
	assert.Error(t, err)
}
