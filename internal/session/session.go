// Package session implements cookie-based authentication. The scheme
// is inherited from the existing deployment and is deliberately weak:
// sha1 digests, non-constant-time compares, and a session bound to
// the login IP by comparing sha1(token+ip) hashes. It is preserved
// for compatibility with existing user rows; see DESIGN.md.
package session

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"newsfeed/internal/models"
	"newsfeed/internal/store"
)

const (
	// CookieID holds the user id; the token lives in a second cookie
	// named CookiePrefix + <user id>.
	CookieID     = "session_id"
	CookiePrefix = "session_"

	// TTL is the cookie lifetime.
	TTL = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrDuplicateUser      = errors.New("a user with that name or email already exists")
)

// Session is the per-request authentication state. Cookie changes are
// queued and applied by the HTTP layer before the response is written.
type Session struct {
	store   *store.Store
	ip      string
	user    *models.User
	logged  bool
	pending []*http.Cookie

	now func() time.Time
}

func New(st *store.Store, ip string) *Session {
	return &Session{store: st, ip: ip, now: time.Now}
}

func (s *Session) LoggedIn() bool       { return s.logged }
func (s *Session) User() *models.User   { return s.user }
func (s *Session) IsAdmin() bool        { return s.logged && s.user.AuthLevel > 0 }
func (s *Session) Cookies() []*http.Cookie { return s.pending }

// CanManage reports whether the session may edit or delete a post
// owned by authorID.
func (s *Session) CanManage(authorID int64) bool {
	return s.logged && (s.user.ID == authorID || s.user.AuthLevel > 0)
}

// CheckRequest reads the cookie pair from the request and validates
// the token. Absent or invalid cookies leave the session logged out.
func (s *Session) CheckRequest(r *http.Request) {
	id, err := r.Cookie(CookieID)
	if err != nil {
		return
	}
	token, err := r.Cookie(CookiePrefix + id.Value)
	if err != nil {
		return
	}
	s.Check(token.Value)
}

// Check validates a session token: the token must match a stored
// user session and the sha1(token+ip) binding must match the IP
// recorded at login. Any failure is a silent fallback to logged out.
func (s *Session) Check(token string) bool {
	u, err := models.GetUserBySession(s.store, token)
	if err != nil {
		return false
	}
	if ipDigest(token, s.ip) != ipDigest(token, u.IP) {
		return false
	}
	loaded, err := models.GetUserByID(s.store, u.ID)
	if err != nil {
		return false
	}
	s.user = loaded
	s.logged = true
	return true
}

// Login authenticates by name and password. On success it mints a new
// session token, persists it with the current IP and login time, and
// queues the cookie pair.
func (s *Session) Login(name, password string) error {
	u, err := models.GetUserByName(s.store, name)
	if err != nil {
		return ErrInvalidCredentials
	}
	if CalculateHash(password, u.Salt) != u.Hash {
		return ErrInvalidCredentials
	}

	logindate := s.now().Unix()
	token := sha1hex(fmt.Sprintf("%d%s", logindate, u.Salt))
	if err := models.UpdateUserLogin(s.store, u.ID, s.ip, logindate, token); err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}

	expires := time.Unix(logindate, 0).Add(TTL)
	s.queue(CookieID, strconv.FormatInt(u.ID, 10), expires)
	s.queue(CookiePrefix+strconv.FormatInt(u.ID, 10), token, expires)

	s.Check(token)
	return nil
}

// Register creates a new user and returns its id. The email is
// lower-cased; its format is deliberately not validated.
func (s *Session) Register(name, password, email string) (int64, error) {
	email = strings.ToLower(email)
	exists, err := models.UserExists(s.store, name, email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateUser
	}

	now := s.now().Unix()
	salt := GenerateSalt(name, password, now)
	hash := CalculateHash(password, salt)
	return models.CreateUser(s.store, name, hash, salt, email, s.ip, now)
}

// Logout clears the stored token and expires both cookies. A no-op
// when not logged in.
func (s *Session) Logout() {
	if !s.logged {
		return
	}
	id := strconv.FormatInt(s.user.ID, 10)
	_ = models.ClearUserSession(s.store, s.user.ID)
	s.expire(CookieID)
	s.expire(CookiePrefix + id)
	s.user = nil
	s.logged = false
}

// Apply writes the queued cookie changes to the response.
func (s *Session) Apply(w http.ResponseWriter) {
	for _, c := range s.pending {
		http.SetCookie(w, c)
	}
}

func (s *Session) queue(name, value string, expires time.Time) {
	s.pending = append(s.pending, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
	})
}

func (s *Session) expire(name string) {
	s.pending = append(s.pending, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
}

// GenerateSalt derives a per-user salt from name, password and the
// registration time.
func GenerateSalt(name, password string, now int64) string {
	return sha1hex(fmt.Sprintf("%s%s%d", name, password, now))
}

// CalculateHash is the stored credential digest: sha1(password+salt).
func CalculateHash(password, salt string) string {
	return sha1hex(password + salt)
}

func ipDigest(token, ip string) string {
	return sha1hex(token + ip)
}

func sha1hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
