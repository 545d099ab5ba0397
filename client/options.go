package client

import (
	"strings"

	"github.com/goware/urlx"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultURI is the default base URI of the logingate server
	DefaultURI = "http://localhost:8000"

	// DefaultCookieName is the default session cookie name
	DefaultCookieName = "mySessionId"
)

// NormalizeURI normalizes a server base URI, dropping default ports,
// credentials and trailing slashes
func NormalizeURI(uri string) (string, error) {
	u, err := urlx.Parse(uri)
	if err != nil {
		log.WithError(err).Errorf("error parsing uri %s", uri)
		return "", err
	}
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.User = nil
	u.Path = strings.TrimSuffix(u.Path, "/")
	return urlx.Normalize(u)
}

// Option is a function that takes a config struct and modifies it
type Option func(*Config) error

// WithURI sets the base URI of the logingate server
func WithURI(uri string) Option {
	return func(cfg *Config) error {
		norm, err := NormalizeURI(uri)
		if err != nil {
			return err
		}
		cfg.URI = norm
		return nil
	}
}

// WithCookieName sets the name of the server's session cookie
func WithCookieName(name string) Option {
	return func(cfg *Config) error {
		cfg.CookieName = name
		return nil
	}
}

// WithSession sets the session cookie value from a previous login
func WithSession(session string) Option {
	return func(cfg *Config) error {
		cfg.Session = session
		return nil
	}
}
