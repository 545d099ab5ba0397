package internal

import (
	"net/url"
	"time"

	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/session"
)

const (
	// DefaultName is the default instance name
	DefaultName = "logingate"

	// DefaultBaseURL is the default Base URL for the app
	DefaultBaseURL = "http://0.0.0.0:8000"

	// DefaultAdminUser is the default admin user allowed to expire sessions
	DefaultAdminUser = "admin"

	// DefaultCookieName is the default session cookie name
	DefaultCookieName = session.DefaultCookieName

	// DefaultCookieSecret is the server's default cookie secret
	DefaultCookieSecret = "PLEASE_CHANGE_ME!!!"

	// DefaultSessionPolicy is the default session expiry policy (never expire)
	DefaultSessionPolicy = "none"

	// DefaultSessionTTL is the session ttl used by the fixed and sliding policies
	DefaultSessionTTL = session.DefaultSessionTTL

	// DefaultLoginPath is where unauthenticated requests are redirected to
	DefaultLoginPath = auth.DefaultLoginPath

	// DefaultLandingPath is where members land after login and logout
	DefaultLandingPath = auth.DefaultLandingPath

	// DefaultMetrics is the default for exposing prometheus metrics on /metrics
	DefaultMetrics = true

	// DefaultMetricsPath is where prometheus metrics are exposed
	DefaultMetricsPath = "/metrics"

	// DefaultTestMemberXXX is the member seeded when no members file is configured
	DefaultTestMemberLoginID  = "test"
	DefaultTestMemberName     = "Tester"
	DefaultTestMemberPassword = "test!"
)

// DefaultWhitelist is the default set of path patterns exempt from the login check
var DefaultWhitelist = []string{
	"/",
	"/members/add",
	"/login",
	"/logout",
	"/css/*",
	"/*.ico",
	"/error",
}

// unloggedPaths are path patterns the logging interceptor skips
var unloggedPaths = []string{
	"/css/**",
	"/*.ico",
	"/error",
}

// NewConfig returns a configuration populated with defaults
func NewConfig() *Config {
	whitelist := make([]string, len(DefaultWhitelist))
	copy(whitelist, DefaultWhitelist)

	return &Config{
		Name:          DefaultName,
		BaseURL:       DefaultBaseURL,
		AdminUser:     DefaultAdminUser,
		CookieName:    DefaultCookieName,
		CookieSecret:  DefaultCookieSecret,
		SessionPolicy: DefaultSessionPolicy,
		SessionTTL:    DefaultSessionTTL,
		Whitelist:     whitelist,
		LoginPath:     DefaultLoginPath,
		LandingPath:   DefaultLandingPath,
		Metrics:       DefaultMetrics,
	}
}

// Option is a function that takes a config struct and modifies it
type Option func(*Config) error

// WithDebug sets the debug mode which shows error details on the error page
func WithDebug(debug bool) Option {
	return func(cfg *Config) error {
		cfg.Debug = debug
		return nil
	}
}

// WithName sets the instance's name
func WithName(name string) Option {
	return func(cfg *Config) error {
		cfg.Name = name
		return nil
	}
}

// WithBaseURL sets the Base URL of the app. An https url marks the
// session cookie Secure.
func WithBaseURL(baseURL string) Option {
	return func(cfg *Config) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return err
		}
		cfg.BaseURL = baseURL
		cfg.baseURL = u
		return nil
	}
}

// WithAdminUser sets the login id of the member allowed to expire sessions
func WithAdminUser(adminUser string) Option {
	return func(cfg *Config) error {
		cfg.AdminUser = adminUser
		return nil
	}
}

// WithCookieName sets the session cookie's name
func WithCookieName(name string) Option {
	return func(cfg *Config) error {
		cfg.CookieName = name
		return nil
	}
}

// WithCookieSecret sets the secret used to sign session cookies
func WithCookieSecret(secret string) Option {
	return func(cfg *Config) error {
		cfg.CookieSecret = secret
		return nil
	}
}

// WithSessionPolicy sets the session expiry policy (none, fixed or sliding)
func WithSessionPolicy(policy string) Option {
	return func(cfg *Config) error {
		p, err := session.ParseExpiryPolicy(policy)
		if err != nil {
			return err
		}
		cfg.SessionPolicy = p.String()
		cfg.policy = p
		return nil
	}
}

// WithSessionTTL sets the session ttl used by the fixed and sliding policies
func WithSessionTTL(ttl time.Duration) Option {
	return func(cfg *Config) error {
		cfg.SessionTTL = ttl
		return nil
	}
}

// WithWhitelist replaces the path patterns exempt from the login check
func WithWhitelist(patterns []string) Option {
	return func(cfg *Config) error {
		cfg.Whitelist = patterns
		return nil
	}
}

// WithLoginPath sets where unauthenticated requests are redirected to
func WithLoginPath(loginPath string) Option {
	return func(cfg *Config) error {
		cfg.LoginPath = loginPath
		return nil
	}
}

// WithMembersFile sets the YAML file members are seeded from
func WithMembersFile(path string) Option {
	return func(cfg *Config) error {
		cfg.MembersFile = path
		return nil
	}
}

// WithMetrics enables or disables the metrics interceptor and /metrics
func WithMetrics(metrics bool) Option {
	return func(cfg *Config) error {
		cfg.Metrics = metrics
		return nil
	}
}
