package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate"
)

var (
	// DefaultUserAgent ...
	DefaultUserAgent = fmt.Sprintf("lg/%s", logingate.FullVersion())

	// ErrUnauthorized is returned when the server asks for a login
	ErrUnauthorized = errors.New("error: authorization failed")

	// ErrLoginFailed is returned for a wrong login id or password
	ErrLoginFailed = errors.New("error: login id or password mismatch")

	// ErrServerError ...
	ErrServerError = errors.New("error: server error")
)

// SessionInfo describes the client's session on the server
type SessionInfo struct {
	Token          string        `json:"token"`
	LoginID        string        `json:"login_id"`
	Name           string        `json:"name"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	Policy         string        `json:"policy"`
	TTL            time.Duration `json:"ttl"`
}

// Client talks to a logingate server, carrying the session cookie
type Client struct {
	BaseURL   *url.URL
	Config    *Config
	UserAgent string

	httpClient *http.Client
}

// NewClient ...
func NewClient(options ...Option) (*Client, error) {
	config := NewConfig()

	for _, opt := range options {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(config.URI)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	cli := &Client{
		BaseURL:   u,
		Config:    config,
		UserAgent: DefaultUserAgent,

		// Redirects carry the result of login and logout
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	return cli, nil
}

func (c *Client) newRequest(method, path string, form url.Values) (*http.Request, error) {
	path = strings.TrimPrefix(path, "/")
	rel := &url.URL{Path: path}
	u := c.BaseURL.ResolveReference(rel)

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Config.Session != "" {
		req.AddCookie(&http.Cookie{Name: c.Config.CookieName, Value: c.Config.Session})
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= http.StatusInternalServerError {
		res.Body.Close()
		return nil, ErrServerError
	}

	return res, nil
}

func (c *Client) sessionCookie(res *http.Response) (*http.Cookie, bool) {
	for _, cookie := range res.Cookies() {
		if cookie.Name == c.Config.CookieName {
			return cookie, true
		}
	}
	return nil, false
}

// Login authenticates and keeps the session cookie in the client's config
func (c *Client) Login(loginID, password string) error {
	req, err := c.newRequest(http.MethodPost, "/login", url.Values{
		"loginId":  {strings.TrimSpace(loginID)},
		"password": {password},
	})
	if err != nil {
		return err
	}

	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusFound {
		return ErrLoginFailed
	}

	cookie, ok := c.sessionCookie(res)
	if !ok {
		log.Warnf("login response has no %s cookie", c.Config.CookieName)
		return ErrLoginFailed
	}
	c.Config.Session = cookie.Value

	return nil
}

// SessionInfo returns the current session
func (c *Client) SessionInfo() (*SessionInfo, error) {
	req, err := c.newRequest(http.MethodGet, "/session-info", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, ErrUnauthorized
	}

	info := &SessionInfo{}
	if err := json.NewDecoder(res.Body).Decode(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Logout ends the session and forgets the session cookie
func (c *Client) Logout() error {
	req, err := c.newRequest(http.MethodPost, "/logout", url.Values{})
	if err != nil {
		return err
	}

	res, err := c.do(req)
	if err != nil {
		return err
	}
	res.Body.Close()

	c.Config.Session = ""

	return nil
}
