package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rickb777/accept"
	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/session"
)

const (
	loginFailedMessage     = "ID or password mismatch"
	notFoundMessage        = "The page you are looking for does not exist."
	internalErrMessage     = "Sorry, something went wrong. Please try again later."
	forbiddenMessage       = "You are not allowed to do that."
	invalidMemberMessage   = "Login ID and password are required."
	duplicateMemberMessage = "That Login ID is already taken."
	missingTokenMessage    = "A valid session id is required."
)

func wantsJSON(r *http.Request) bool {
	if r.Header.Get("Accept") == "" {
		return false
	}
	return accept.PreferredContentTypeLike(r.Header, "application/json") == "application/json"
}

// HomeHandler renders the home page, or the member's home page when logged in
func (s *Server) HomeHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		ctx := NewContext(s.config, ex)
		ctx.Title = "Home"

		if ctx.Authenticated {
			return s.render("loginHome", ex.Writer, ctx)
		}
		return s.render("home", ex.Writer, ctx)
	}
}

// LoginHandler renders the login form (GET) and authenticates (POST)
func (s *Server) LoginHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		r := ex.Request
		ctx := NewContext(s.config, ex)
		ctx.Title = "Login"

		if r.Method == http.MethodGet {
			ctx.RedirectURL = r.URL.Query().Get(auth.RedirectURLParam)
			return s.render("login", ex.Writer, ctx)
		}

		loginID := strings.TrimSpace(r.FormValue("loginId"))
		password := r.FormValue("password")
		redirectURL := r.FormValue(auth.RedirectURLParam)

		m, ok := s.flow.Authenticate(loginID, password)
		if !ok {
			log.Warnf("failed login attempt for %q", loginID)

			ctx.Error = true
			ctx.Message = loginFailedMessage
			ctx.LoginID = loginID
			ctx.RedirectURL = redirectURL
			return s.render("login", ex.Writer, ctx)
		}

		// Drop the previous session so a login never reuses a token
		if token, ok := s.sm.Token(r); ok {
			s.sm.Expire(token)
		}

		_, target, err := s.flow.OnSuccess(ex.Writer, m, redirectURL)
		if err != nil {
			return fmt.Errorf("error creating session for %s: %w", m.LoginID, err)
		}

		http.Redirect(ex.Writer, r, target, http.StatusFound)
		return nil
	}
}

// LogoutHandler ends the session and redirects to the landing page
func (s *Server) LogoutHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		target := s.flow.OnLogout(ex.Writer, ex.Request)
		http.Redirect(ex.Writer, ex.Request, target, http.StatusFound)
		return nil
	}
}

// AddMemberHandler renders the sign up form (GET) and saves a new member (POST)
func (s *Server) AddMemberHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		r := ex.Request
		ctx := NewContext(s.config, ex)
		ctx.Title = "Sign up"

		if r.Method == http.MethodGet {
			return s.render("addMember", ex.Writer, ctx)
		}

		loginID := strings.TrimSpace(r.FormValue("loginId"))

		// The admin user only comes from the members file
		if loginID != "" && loginID == s.config.AdminUser {
			ctx.Error = true
			ctx.Message = duplicateMemberMessage
			return s.render("addMember", ex.Writer, ctx)
		}

		m, err := s.repo.Save(&members.Member{
			LoginID:  loginID,
			Name:     strings.TrimSpace(r.FormValue("name")),
			Password: r.FormValue("password"),
		})
		if err != nil {
			ctx.Error = true
			ctx.LoginID = loginID
			switch {
			case errors.Is(err, members.ErrDuplicateLoginID):
				ctx.Message = duplicateMemberMessage
			case errors.Is(err, members.ErrInvalidMember):
				ctx.Message = invalidMemberMessage
			default:
				return err
			}
			log.WithError(err).Warn("error adding member")
			return s.render("addMember", ex.Writer, ctx)
		}

		log.Infof("member added: %s", m.LoginID)

		http.Redirect(ex.Writer, r, s.config.LandingPath, http.StatusFound)
		return nil
	}
}

// MembersHandler lists all members
func (s *Server) MembersHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		ctx := NewContext(s.config, ex)
		ctx.Title = "Members"
		ctx.Members = s.repo.FindAll()

		return s.render("members", ex.Writer, ctx)
	}
}

// SessionInfoHandler shows the current session, as JSON if asked for
func (s *Server) SessionInfoHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		r := ex.Request

		token, ok := s.sm.Token(r)
		if !ok {
			http.Redirect(ex.Writer, r, auth.LoginRedirect(s.config.LoginPath, r.URL.Path), http.StatusFound)
			return nil
		}
		sess, ok := s.sm.Store().Get(token)
		if !ok {
			http.Redirect(ex.Writer, r, auth.LoginRedirect(s.config.LoginPath, r.URL.Path), http.StatusFound)
			return nil
		}

		info := &SessionInfo{
			Token:          token,
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt(),
			Policy:         s.store.Policy().String(),
		}
		if s.store.Policy() != session.ExpireNever {
			info.TTL = s.store.TTL()
		}

		ctx := NewContext(s.config, ex)
		ctx.Title = "Session"
		ctx.Session = info
		if ctx.Member != nil {
			info.LoginID = ctx.Member.LoginID
			info.Name = ctx.Member.Name
		}

		if wantsJSON(r) {
			ex.Writer.Header().Set("Content-Type", "application/json")
			return json.NewEncoder(ex.Writer).Encode(info)
		}

		return s.render("sessionInfo", ex.Writer, ctx)
	}
}

// ExpireSessionHandler lets the admin user remove any session by its id
func (s *Server) ExpireSessionHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		r := ex.Request
		ctx := NewContext(s.config, ex)

		if !s.config.IsAdminUser(ctx.Member) {
			log.Warnf("non-admin %s attempted to expire a session", ctx.Member)

			ctx.Title = "Forbidden"
			ctx.Error = true
			ctx.Message = forbiddenMessage
			return s.renderStatus(http.StatusForbidden, "error", ex.Writer, ctx)
		}

		token := strings.TrimSpace(r.FormValue("token"))
		if _, err := session.ParseSessionID(token); err != nil {
			ctx.Title = "Bad Request"
			ctx.Error = true
			ctx.Message = missingTokenMessage
			return s.renderStatus(http.StatusBadRequest, "error", ex.Writer, ctx)
		}

		s.sm.Expire(token)

		http.Redirect(ex.Writer, r, "/session-info", http.StatusFound)
		return nil
	}
}

// ErrorHandler renders the generic error page
func (s *Server) ErrorHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		ctx := NewContext(s.config, ex)
		ctx.Title = "Error"
		ctx.Error = true
		ctx.Message = internalErrMessage

		return s.renderStatus(http.StatusInternalServerError, "error", ex.Writer, ctx)
	}
}

// NotFoundHandler renders the not found page
func (s *Server) NotFoundHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		ctx := NewContext(s.config, ex)
		ctx.Title = "Not Found"
		ctx.Error = true
		ctx.Message = notFoundMessage

		return s.renderStatus(http.StatusNotFound, "error", ex.Writer, ctx)
	}
}

// FaviconHandler serves the embedded favicon
func (s *Server) FaviconHandler() gate.Handler {
	return func(ex *gate.Exchange) error {
		buf, err := fs.ReadFile(StaticFS(), "favicon.ico")
		if err != nil {
			return fmt.Errorf("error reading favicon: %w", err)
		}

		w := ex.Writer
		w.Header().Set("Content-Type", "image/x-icon")
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Cache-Control", "public, max-age=7776000")

		n, err := w.Write(buf)
		if err != nil {
			log.Errorf("error writing response for favicon: %s", err)
		} else if n != len(buf) {
			log.Warnf(
				"not all bytes of favicon response were written: %d/%d",
				n, len(buf),
			)
		}
		return nil
	}
}
