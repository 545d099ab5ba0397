package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/session"
)

const membersSeed = `
members:
  - login_id: test
    name: Tester
    password: test!
  - login_id: admin
    name: Administrator
    password: admin!
`

type testServer struct {
	*Server
	ts *httptest.Server
}

func newTestServer(t *testing.T, options ...Option) *testServer {
	t.Helper()

	opts := append([]Option{WithCookieSecret("s3cr3t")}, options...)
	s, err := NewServer(":0", opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.cron.Stop()
	})

	return &testServer{Server: s, ts: ts}
}

func withMembersFile(t *testing.T) Option {
	t.Helper()

	dir, err := ioutil.TempDir("", "members")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "members.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(membersSeed), 0600))

	return WithMembersFile(path)
}

// newBrowser returns a client that keeps cookies and does not follow redirects
func newBrowser(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testServer) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()

	res, err := c.Get(s.ts.URL + path)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (s *testServer) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	res, err := c.PostForm(s.ts.URL+path, form)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (s *testServer) login(t *testing.T, c *http.Client, loginID, password string) {
	t.Helper()

	res, _ := s.post(t, c, "/login", url.Values{"loginId": {loginID}, "password": {password}})
	require.Equal(t, http.StatusFound, res.StatusCode)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func assertLoginRedirect(t *testing.T, res *http.Response, path string) {
	t.Helper()

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/login?redirectURL="+path, res.Header.Get("Location"))
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return cookie
		}
	}
	return nil
}

func testLoginFlow(t *testing.T, s *testServer, protected string) {
	c := newBrowser(t)

	// 1. anonymous access is redirected to the login form
	res, _ := s.get(t, c, protected)
	assertLoginRedirect(t, res, protected)

	// 2. login sends the member back where they came from
	res, _ = s.post(t, c, "/login", url.Values{
		"loginId":     {"test"},
		"password":    {"test!"},
		"redirectURL": {protected},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, protected, res.Header.Get("Location"))

	cookie := sessionCookie(res)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Zero(t, cookie.MaxAge)
	assert.True(t, cookie.Expires.IsZero())
	assert.Equal(t, 1, s.store.Count())

	// 3. the session cookie now grants access and resolves the member
	res, body := s.get(t, c, protected)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Logout Tester")

	// 4. logout always lands on the home page
	res, _ = s.post(t, c, "/logout", nil)
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))
	assert.Equal(t, 0, s.store.Count())

	// 5. and access is denied again
	res, _ = s.get(t, c, protected)
	assertLoginRedirect(t, res, protected)
}

func TestServer_LoginFlow(t *testing.T) {
	// /members/add is protected here, unlike in the default whitelist
	s := newTestServer(t, WithWhitelist([]string{"/", "/login", "/logout", "/css/*", "/*.ico", "/error"}))
	testLoginFlow(t, s, "/members/add")
}

func TestServer_LoginFlowDefaultWhitelist(t *testing.T) {
	s := newTestServer(t)
	testLoginFlow(t, s, "/members")
}

func TestServer_DefaultWhitelist(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	for _, path := range []string{"/", "/login", "/members/add", "/css/site.css", "/favicon.ico", "/metrics"} {
		res, _ := s.get(t, c, path)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}

	res, _ := s.get(t, c, "/error")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	for _, path := range []string{"/members", "/session-info", "/nope"} {
		res, _ := s.get(t, c, path)
		assertLoginRedirect(t, res, path)
	}
}

func TestServer_LoginFailure(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	for _, form := range []url.Values{
		{"loginId": {"test"}, "password": {"wrong"}},
		{"loginId": {"nobody"}, "password": {"test!"}},
		{"loginId": {""}, "password": {""}},
	} {
		res, body := s.post(t, c, "/login", form)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, loginFailedMessage)
		assert.Nil(t, sessionCookie(res))
	}

	assert.Equal(t, 0, s.store.Count())
}

func TestServer_LoginIgnoresForeignRedirect(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	res, _ := s.post(t, c, "/login", url.Values{
		"loginId":     {"test"},
		"password":    {"test!"},
		"redirectURL": {"https://evil.example.com/"},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))
}

func TestServer_ReloginReplacesSession(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	s.login(t, c, "test", "test!")
	s.login(t, c, "test", "test!")

	assert.Equal(t, 1, s.store.Count())
}

func TestServer_Home(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	res, body := s.get(t, c, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, body, "Welcome back")

	s.login(t, c, "test", "test!")

	res, body = s.get(t, c, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Welcome back, Tester!")
	assert.NotEmpty(t, res.Header.Get(gate.RequestIDHeader))
}

func TestServer_AddMember(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	res, _ := s.post(t, c, "/members/add", url.Values{
		"loginId":  {"alice"},
		"name":     {"Alice"},
		"password": {"alice!"},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))

	res, body := s.post(t, c, "/members/add", url.Values{
		"loginId":  {"alice"},
		"name":     {"Alice Again"},
		"password": {"other"},
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, duplicateMemberMessage)

	res, body = s.post(t, c, "/members/add", url.Values{"loginId": {"bob"}})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, invalidMemberMessage)

	res, body = s.post(t, c, "/members/add", url.Values{
		"loginId":  {DefaultAdminUser},
		"password": {"hijack"},
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, duplicateMemberMessage)

	s.login(t, c, "alice", "alice!")

	res, body = s.get(t, c, "/members")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Tester")
	assert.Equal(t, 2, s.repo.Len())
}

func TestServer_SessionInfo(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)
	s.login(t, c, "test", "test!")

	req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/session-info", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var info SessionInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	assert.Equal(t, "test", info.LoginID)
	assert.Equal(t, "Tester", info.Name)
	assert.Equal(t, "none", info.Policy)
	assert.Zero(t, info.TTL)
	assert.False(t, info.CreatedAt.IsZero())
	assert.False(t, info.LastAccessedAt.Before(info.CreatedAt))

	_, ok := s.store.Get(info.Token)
	assert.True(t, ok)

	res2, body := s.get(t, c, "/session-info")
	assert.Equal(t, http.StatusOK, res2.StatusCode)
	assert.Contains(t, body, info.Token)
	assert.Contains(t, body, "Last accessed")
}

func TestServer_SessionInfoNegotiation(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)
	s.login(t, c, "test", "test!")

	testCases := []struct {
		accept      string
		contentType string
	}{
		{"application/json", "application/json"},
		{"text/html, application/json;q=0", "text/html"},
		{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", "text/html"},
		{"", "text/html"},
	}

	for _, testCase := range testCases {
		req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/session-info", nil)
		require.NoError(t, err)
		if testCase.accept != "" {
			req.Header.Set("Accept", testCase.accept)
		}

		res, err := c.Do(req)
		require.NoError(t, err)
		readBody(t, res)

		assert.Equal(t, http.StatusOK, res.StatusCode, testCase.accept)
		assert.Contains(t, res.Header.Get("Content-Type"), testCase.contentType, testCase.accept)
	}
}

func TestServer_SlidingSessionPolicy(t *testing.T) {
	s := newTestServer(t, WithSessionPolicy("sliding"))
	assert.Equal(t, session.ExpireSliding, s.store.Policy())
	assert.Equal(t, DefaultSessionTTL, s.store.TTL())
}

func TestServer_ExpireSession(t *testing.T) {
	s := newTestServer(t, withMembersFile(t))

	member := newBrowser(t)
	s.login(t, member, "test", "test!")

	u, err := url.Parse(s.ts.URL)
	require.NoError(t, err)
	var token string
	for _, cookie := range member.Jar.Cookies(u) {
		if cookie.Name == session.DefaultCookieName {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	stored, found := s.sm.Token(withCookie(&http.Cookie{Name: session.DefaultCookieName, Value: token}))
	require.True(t, found)

	// Non admins may not expire sessions
	res, _ := s.post(t, member, "/admin/sessions/expire", url.Values{"token": {stored}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	admin := newBrowser(t)
	s.login(t, admin, "admin", "admin!")

	res, _ = s.post(t, admin, "/admin/sessions/expire", url.Values{"token": {"garbage"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = s.post(t, admin, "/admin/sessions/expire", url.Values{"token": {stored}})
	assert.Equal(t, http.StatusFound, res.StatusCode)

	res, _ = s.get(t, member, "/members")
	assertLoginRedirect(t, res, "/members")

	res, _ = s.get(t, admin, "/members")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func withCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	return r
}

func TestServer_NotFound(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	res, _ := s.get(t, c, "/nope")
	assertLoginRedirect(t, res, "/nope")

	s.login(t, c, "test", "test!")

	res, body := s.get(t, c, "/nope")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, notFoundMessage)
}

func TestServer_Static(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	res, body := s.get(t, c, "/css/site.css")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "public, max-age=7776000", res.Header.Get("Cache-Control"))
	assert.Contains(t, body, "font-family")

	res, _ = s.get(t, c, "/favicon.ico")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/x-icon", res.Header.Get("Content-Type"))
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	s.get(t, c, "/")
	s.get(t, c, "/members")
	s.login(t, c, "test", "test!")

	res, body := s.get(t, c, "/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `logingate_requests_total{result="ok"}`)
	assert.Contains(t, body, `logingate_requests_total{result="rejected"} 1`)
	assert.Contains(t, body, "logingate_sessions_active 1")
	assert.Contains(t, body, "logingate_members_total 1")
}

func TestServer_MetricsDisabled(t *testing.T) {
	s := newTestServer(t, WithMetrics(false))
	c := newBrowser(t)

	// No longer exempt, so it is gated like any unknown path
	res, _ := s.get(t, c, "/metrics")
	assertLoginRedirect(t, res, "/metrics")
}

func TestServer_HandlerError(t *testing.T) {
	s := newTestServer(t)

	handlers := map[string]gate.Handler{
		"error": func(ex *gate.Exchange) error { return errors.New("boom") },
		"panic": func(ex *gate.Exchange) error { panic("boom") },
	}

	for name, h := range handlers {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		s.chain.Handler(h).ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code, name)
		assert.True(t, strings.Contains(w.Body.String(), internalErrMessage), name)
		assert.NotContains(t, w.Body.String(), "boom", name)
	}
}

func TestServer_HandlerErrorDebug(t *testing.T) {
	s := newTestServer(t, WithDebug(true))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s.chain.Handler(func(ex *gate.Exchange) error {
		return errors.New("boom")
	}).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), internalErrMessage+" (boom)")
}

func TestServer_UnloggedPaths(t *testing.T) {
	s := newTestServer(t)
	c := newBrowser(t)

	hook := test.NewGlobal()
	defer hook.Reset()

	requests := func() []string {
		var logged []string
		for _, entry := range hook.AllEntries() {
			if strings.HasPrefix(entry.Message, "REQUEST ") {
				logged = append(logged, entry.Message)
			}
		}
		return logged
	}

	for _, path := range []string{"/css/site.css", "/favicon.ico", "/error"} {
		res, _ := s.get(t, c, path)
		assert.Empty(t, res.Header.Get(gate.RequestIDHeader), path)
	}
	assert.Empty(t, requests())

	res, _ := s.get(t, c, "/login")
	requestID := res.Header.Get(gate.RequestIDHeader)
	require.NotEmpty(t, requestID)
	assert.Equal(t, []string{fmt.Sprintf("REQUEST [%s][/login]", requestID)}, requests())
}

func TestNewServer_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name    string
		options []Option
	}{
		{"login path not exempt", []Option{WithWhitelist([]string{"/", "/css/*"})}},
		{"invalid pattern", []Option{WithWhitelist([]string{"/login", "/css/["})}},
		{"empty whitelist", []Option{WithWhitelist(nil)}},
		{"relative login path", []Option{WithLoginPath("login")}},
		{"missing cookie secret", []Option{WithCookieSecret("")}},
		{"missing members file", []Option{WithMembersFile("/nonexistent/members.yaml")}},
	}

	for _, testCase := range testCases {
		_, err := NewServer(":0", testCase.options...)
		assert.Error(t, err, testCase.name)
	}

	_, err := NewServer(":0", WithSessionPolicy("forever"))
	assert.ErrorIs(t, err, session.ErrInvalidExpiryPolicy)
}
