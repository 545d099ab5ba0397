// Package auth gates protected routes behind a session, resolves the
// logged-in member for handlers and drives login and logout.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/pathmatch"
	"github.com/jointwt/logingate/internal/session"
)

var (
	// ErrLoginPathNotExempt is returned when the whitelist would gate the
	// login page itself (which would redirect forever)
	ErrLoginPathNotExempt = errors.New("error: login path is not whitelisted")
)

// LoginCheck rejects requests for protected paths that carry no live
// session, redirecting them to the login page with a return url
type LoginCheck struct {
	gate.Base

	sm        *session.Manager
	whitelist *pathmatch.Whitelist
	loginPath string
}

// NewLoginCheck ...
func NewLoginCheck(sm *session.Manager, whitelist *pathmatch.Whitelist, loginPath string) (*LoginCheck, error) {
	if !whitelist.Exempt(loginPath) {
		return nil, fmt.Errorf("%w: %s", ErrLoginPathNotExempt, loginPath)
	}
	return &LoginCheck{sm: sm, whitelist: whitelist, loginPath: loginPath}, nil
}

// Pre ...
func (lc *LoginCheck) Pre(ex *gate.Exchange) gate.Decision {
	path := ex.Request.URL.Path

	if lc.whitelist.Exempt(path) {
		return gate.Proceed
	}

	log.Debugf("login check [%s][%s]", ex.RequestID, path)

	if _, ok := lc.sm.Lookup(ex.Request); ok {
		return gate.Proceed
	}

	log.Infof("unauthenticated request [%s][%s]", ex.RequestID, path)
	http.Redirect(ex.Writer, ex.Request, LoginRedirect(lc.loginPath, path), http.StatusFound)

	return gate.Reject
}
