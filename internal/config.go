package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/pathmatch"
	"github.com/jointwt/logingate/internal/session"
)

var (
	ErrMissingCookieSecret = errors.New("error: cookie secret is required")
	ErrInvalidLoginPath    = errors.New("error: login path must be an absolute path")
)

// Config contains the server configuration parameters
type Config struct {
	// Debug shows error details on the error page
	Debug bool

	Name      string
	BaseURL   string
	AdminUser string

	CookieName   string
	CookieSecret string

	SessionPolicy string
	SessionTTL    time.Duration

	Whitelist   []string
	LoginPath   string
	LandingPath string

	MembersFile string

	Metrics bool

	baseURL   *url.URL
	policy    session.ExpiryPolicy
	whitelist *pathmatch.Whitelist
}

// Validate checks the configuration and prepares the parsed forms of the
// base url, session policy and whitelist. A whitelist that does not exempt
// the login path is rejected as it would redirect forever.
func (c *Config) Validate() error {
	if c.CookieSecret == "" {
		return ErrMissingCookieSecret
	}
	if c.CookieSecret == DefaultCookieSecret {
		log.Warn("using the default cookie secret, please change it with --cookie-secret")
	}

	if c.baseURL == nil {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("error parsing base url %q: %w", c.BaseURL, err)
		}
		c.baseURL = u
	}

	policy, err := session.ParseExpiryPolicy(c.SessionPolicy)
	if err != nil {
		return err
	}
	c.policy = policy

	if !strings.HasPrefix(c.LoginPath, "/") {
		return ErrInvalidLoginPath
	}

	patterns := c.Whitelist
	if c.Metrics {
		patterns = append(patterns[:len(patterns):len(patterns)], DefaultMetricsPath)
	}

	whitelist, err := pathmatch.NewWhitelist(patterns...)
	if err != nil {
		return err
	}
	if !whitelist.Exempt(c.LoginPath) {
		return auth.ErrLoginPathNotExempt
	}
	c.whitelist = whitelist

	return nil
}

// SecureCookie reports whether session cookies are marked Secure
func (c *Config) SecureCookie() bool {
	return c.baseURL != nil && c.baseURL.Scheme == "https"
}

// IsAdminUser reports whether m is the configured admin user
func (c *Config) IsAdminUser(m *members.Member) bool {
	return m != nil && c.AdminUser != "" && m.LoginID == c.AdminUser
}
