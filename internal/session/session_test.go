package session

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsfeed/internal/db"
	"newsfeed/internal/models"
	"newsfeed/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return store.New(database, zap.NewNop())
}

func TestRegister(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")

	id, err := sess.Register("alice", "pw1", "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	u, err := models.GetUserByName(st, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email, "email is lower-cased")
	assert.Equal(t, "127.0.0.1", u.IP)
	assert.NotEmpty(t, u.Salt)
	assert.Equal(t, CalculateHash("pw1", u.Salt), u.Hash)
	assert.Empty(t, u.Session, "registration does not log in")
}

func TestRegisterDuplicate(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")

	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)

	_, err = sess.Register("alice", "pw2", "other@x.com")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = sess.Register("bob", "pw2", "a@x.com")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLogin(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, sess.Login("alice", "pw1"))
	assert.True(t, sess.LoggedIn())
	require.NotNil(t, sess.User())
	assert.Equal(t, "alice", sess.User().Name)

	cookies := sess.Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, CookieID, cookies[0].Name)
	assert.Equal(t, "1", cookies[0].Value)
	assert.Equal(t, CookiePrefix+"1", cookies[1].Name)
	assert.Equal(t, sess.User().Session, cookies[1].Value)
	assert.False(t, cookies[1].Expires.IsZero())
}

func TestLoginFailures(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)

	assert.ErrorIs(t, sess.Login("alice", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, sess.Login("nobody", "pw1"), ErrInvalidCredentials)
	assert.False(t, sess.LoggedIn())
	assert.Empty(t, sess.Cookies(), "failed logins issue no cookies")
}

func TestCheckBindsSessionToIP(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "1.2.3.4")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, sess.Login("alice", "pw1"))
	token := sess.User().Session

	same := New(st, "1.2.3.4")
	assert.True(t, same.Check(token))
	assert.True(t, same.LoggedIn())

	elsewhere := New(st, "5.6.7.8")
	assert.False(t, elsewhere.Check(token))
	assert.False(t, elsewhere.LoggedIn())

	assert.False(t, New(st, "1.2.3.4").Check("bogus"))
	assert.False(t, New(st, "1.2.3.4").Check(""))
}

func TestCheckRequest(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, sess.Login("alice", "pw1"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range sess.Cookies() {
		r.AddCookie(c)
	}
	fresh := New(st, "127.0.0.1")
	fresh.CheckRequest(r)
	assert.True(t, fresh.LoggedIn())

	// no cookies at all
	bare := New(st, "127.0.0.1")
	bare.CheckRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, bare.LoggedIn())
}

func TestLogout(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, sess.Login("alice", "pw1"))
	token := sess.User().Session

	sess.Logout()
	assert.False(t, sess.LoggedIn())

	u, err := models.GetUserByName(st, "alice")
	require.NoError(t, err)
	assert.Empty(t, u.Session, "stored token is cleared")

	assert.False(t, New(st, "127.0.0.1").Check(token))

	// both cookies are expired on top of the two issued at login
	cookies := sess.Cookies()
	require.Len(t, cookies, 4)
	assert.Equal(t, -1, cookies[2].MaxAge)
	assert.Equal(t, -1, cookies[3].MaxAge)
}

func TestCanManage(t *testing.T) {
	st := newTestStore(t)
	sess := New(st, "127.0.0.1")
	_, err := sess.Register("alice", "pw1", "a@x.com")
	require.NoError(t, err)
	require.NoError(t, sess.Login("alice", "pw1"))

	assert.True(t, sess.CanManage(sess.User().ID))
	assert.False(t, sess.CanManage(999))

	_, err = st.Exec(`UPDATE users SET authlevel = 1 WHERE user_id = ?`, sess.User().ID)
	require.NoError(t, err)
	admin := New(st, "127.0.0.1")
	require.True(t, admin.Check(sess.User().Session))
	assert.True(t, admin.CanManage(999), "admins manage any post")

	anon := New(st, "127.0.0.1")
	assert.False(t, anon.CanManage(1))
}

func TestHashScheme(t *testing.T) {
	// sha1 hex digests, stable for a fixed salt
	h := CalculateHash("p", "s")
	assert.Len(t, h, 40)
	assert.Equal(t, h, CalculateHash("p", "s"))
	assert.NotEqual(t, h, CalculateHash("q", "s"))
	assert.NotEqual(t, h, CalculateHash("p", "t"))

	s1 := GenerateSalt("alice", "pw", 1000)
	s2 := GenerateSalt("alice", "pw", 2000)
	assert.Len(t, s1, 40)
	assert.NotEqual(t, s1, s2, "salt varies with time")
}
