package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsfeed/internal/config"
	"newsfeed/internal/db"
	"newsfeed/internal/session"
	"newsfeed/internal/store"
)

func newTestApp(t *testing.T) (*App, *store.Store) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	st := store.New(database, zap.NewNop())
	return New(st, config.Default(), zap.NewNop()), st
}

// loginUser registers and logs in a fresh user.
func loginUser(t *testing.T, st *store.Store, name string) *session.Session {
	t.Helper()
	sess := session.New(st, "127.0.0.1")
	_, err := sess.Register(name, "secret", name+"@example.com")
	require.NoError(t, err)
	require.NoError(t, sess.Login(name, "secret"))
	return sess
}

func promote(t *testing.T, st *store.Store, sess *session.Session) *session.Session {
	t.Helper()
	_, err := st.Exec(`UPDATE users SET authlevel = 1 WHERE user_id = ?`, sess.User().ID)
	require.NoError(t, err)
	admin := session.New(st, "127.0.0.1")
	require.True(t, admin.Check(sess.User().Session))
	return admin
}
