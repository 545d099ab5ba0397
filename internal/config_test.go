package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/pathmatch"
	"github.com/jointwt/logingate/internal/session"
)

func newValidConfig(t *testing.T, options ...Option) (*Config, error) {
	t.Helper()

	config := NewConfig()
	for _, opt := range options {
		require.NoError(t, opt(config))
	}
	return config, config.Validate()
}

func TestConfig_Defaults(t *testing.T) {
	config, err := newValidConfig(t)
	require.NoError(t, err)

	assert.Equal(t, session.ExpireNever, config.policy)
	assert.False(t, config.SecureCookie())
	assert.Equal(t, DefaultCookieName, config.CookieName)

	for _, path := range []string{"/", "/members/add", "/login", "/logout", "/css/site.css", "/favicon.ico", "/error", "/metrics"} {
		assert.True(t, config.whitelist.Exempt(path), path)
	}
	for _, path := range []string{"/members", "/session-info", "/admin/sessions/expire", "/css/a/b.css"} {
		assert.False(t, config.whitelist.Exempt(path), path)
	}

	// Validating must not alter the configured whitelist
	assert.Equal(t, DefaultWhitelist, config.Whitelist)
}

func TestConfig_MetricsDisabled(t *testing.T) {
	config, err := newValidConfig(t, WithMetrics(false))
	require.NoError(t, err)
	assert.False(t, config.whitelist.Exempt(DefaultMetricsPath))
}

func TestConfig_SecureCookie(t *testing.T) {
	config, err := newValidConfig(t, WithBaseURL("https://example.com"))
	require.NoError(t, err)
	assert.True(t, config.SecureCookie())
}

func TestConfig_Invalid(t *testing.T) {
	_, err := newValidConfig(t, WithWhitelist([]string{"/", "/css/*"}))
	assert.ErrorIs(t, err, auth.ErrLoginPathNotExempt)

	_, err = newValidConfig(t, WithWhitelist([]string{"/login", "css/*"}))
	assert.ErrorIs(t, err, pathmatch.ErrInvalidPattern)

	_, err = newValidConfig(t, WithCookieSecret(""))
	assert.ErrorIs(t, err, ErrMissingCookieSecret)

	_, err = newValidConfig(t, WithLoginPath("login"))
	assert.ErrorIs(t, err, ErrInvalidLoginPath)

	config := NewConfig()
	assert.ErrorIs(t, WithSessionPolicy("forever")(config), session.ErrInvalidExpiryPolicy)
}

func TestConfig_IsAdminUser(t *testing.T) {
	config := NewConfig()

	assert.True(t, config.IsAdminUser(&members.Member{LoginID: DefaultAdminUser}))
	assert.False(t, config.IsAdminUser(&members.Member{LoginID: "test"}))
	assert.False(t, config.IsAdminUser(nil))
}
