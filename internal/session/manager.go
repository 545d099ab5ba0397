package session

import (
	"net/http"
	"time"

	"github.com/andreadipersio/securecookie"
	log "github.com/sirupsen/logrus"
)

// DefaultCookieName is the conventional name of the session cookie
const DefaultCookieName = "mySessionId"

// Options ...
type Options struct {
	name   string
	secret string
	secure bool
}

// NewOptions ...
func NewOptions(name, secret string, secure bool) *Options {
	if name == "" {
		name = DefaultCookieName
	}
	return &Options{name, secret, secure}
}

// Manager binds session tokens held in a Store to a signed cookie
type Manager struct {
	options *Options
	store   Store
}

// NewManager ...
func NewManager(options *Options, store Store) *Manager {
	return &Manager{options, store}
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	return m.options.name
}

// Store returns the underlying session store
func (m *Manager) Store() Store {
	return m.store
}

// Create stores a new session for principal and binds its token to the
// response as a browser-session cookie (no expiry attribute).
func (m *Manager) Create(w http.ResponseWriter, principal interface{}) (string, error) {
	token, err := m.store.Create(principal)
	if err != nil {
		log.WithError(err).Error("error creating new session")
		return "", err
	}

	cookie := &http.Cookie{
		Name:     m.options.name,
		Value:    token,
		Path:     "/",
		Secure:   m.options.secure,
		HttpOnly: true,
	}

	securecookie.SetSecureCookie(w, m.options.secret, cookie)

	return token, nil
}

// Token returns the session token carried by the request, if any. Missing
// cookies, bad signatures and malformed tokens are all reported as absent.
func (m *Manager) Token(r *http.Request) (string, bool) {
	cookie, err := securecookie.GetSecureCookie(
		r,
		m.options.secret,
		m.options.name,
	)
	if err != nil {
		return "", false
	}

	sid, err := ParseSessionID(cookie.Value)
	if err != nil {
		log.WithError(err).Debugf("ignoring malformed session cookie")
		return "", false
	}

	return sid.String(), true
}

// Lookup resolves the request's session. A token that is unknown to the
// store (e.g. issued before a restart) is treated the same as no token.
func (m *Manager) Lookup(r *http.Request) (*Session, bool) {
	token, ok := m.Token(r)
	if !ok {
		return nil, false
	}

	sess, ok := m.store.Get(token)
	if !ok {
		log.Debugf("no session found for %s", token)
		return nil, false
	}

	return sess, true
}

// Delete removes the request's session (if any) and expires the cookie
func (m *Manager) Delete(w http.ResponseWriter, r *http.Request) {
	if token, ok := m.Token(r); ok {
		m.store.Remove(token)
	}

	cookie := &http.Cookie{
		Name:     m.options.name,
		Value:    "",
		Path:     "/",
		Secure:   m.options.secure,
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}

	http.SetCookie(w, cookie)
}

// Expire removes the session for token regardless of which client holds it
func (m *Manager) Expire(token string) {
	m.store.Remove(token)
	log.Infof("expired session %s", token)
}
