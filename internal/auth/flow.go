package auth

import (
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/session"
)

const (
	// DefaultLoginPath is where unauthenticated requests are sent
	DefaultLoginPath = "/login"

	// DefaultLandingPath is where users land after login (without a return url) and logout
	DefaultLandingPath = "/"

	// RedirectURLParam is the query/form parameter carrying the return url
	RedirectURLParam = "redirectURL"
)

// keep the return url readable: /login?redirectURL=/members/add
var returnURLEscaper = strings.NewReplacer("%2F", "/")

// LoginRedirect builds the login url carrying path as the return url
func LoginRedirect(loginPath, path string) string {
	return loginPath + "?" + RedirectURLParam + "=" + returnURLEscaper.Replace(url.QueryEscape(path))
}

// MemberLookup finds members by login id
type MemberLookup interface {
	FindByLoginID(loginID string) (*members.Member, bool)
}

// Flow drives login and logout
type Flow struct {
	lookup      MemberLookup
	sm          *session.Manager
	landingPath string
}

// NewFlow ...
func NewFlow(lookup MemberLookup, sm *session.Manager, landingPath string) *Flow {
	if landingPath == "" {
		landingPath = DefaultLandingPath
	}
	return &Flow{lookup: lookup, sm: sm, landingPath: landingPath}
}

// Authenticate returns the member whose login id and password match. An
// unknown login id and a wrong password are deliberately indistinguishable.
func (f *Flow) Authenticate(loginID, password string) (*members.Member, bool) {
	m, ok := f.lookup.FindByLoginID(loginID)
	if !ok || m.Password != password {
		return nil, false
	}
	return m, true
}

// OnSuccess starts a session for m, binds it to the response and returns
// the session token and where to redirect to
func (f *Flow) OnSuccess(w http.ResponseWriter, m *members.Member, redirectURL string) (string, string, error) {
	token, err := f.sm.Create(w, m)
	if err != nil {
		return "", "", err
	}

	log.Infof("login successful: %s", m.LoginID)

	return token, f.SafeRedirect(redirectURL), nil
}

// OnLogout ends the request's session, if any, and returns where to redirect to
func (f *Flow) OnLogout(w http.ResponseWriter, r *http.Request) string {
	f.sm.Delete(w, r)
	return f.landingPath
}

// SafeRedirect returns target if it is a local absolute path, the landing
// path otherwise
func (f *Flow) SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return f.landingPath
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		log.Warnf("ignoring unsafe redirect url %q", target)
		return f.landingPath
	}

	return target
}
