package main

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/jointwt/logingate"
	"github.com/jointwt/logingate/internal"
)

var (
	bind    string
	debug   bool
	version bool

	name         string
	baseURL      string
	adminUser    string
	membersFile  string
	cookieName   string
	cookieSecret string

	sessionPolicy string
	sessionTTL    time.Duration

	loginPath string
	whitelist []string

	metrics bool
)

func init() {
	flag.BoolVarP(&version, "version", "v", false, "display version information")
	flag.BoolVarP(&debug, "debug", "D", false, "enable debug logging")
	flag.StringVarP(&bind, "bind", "b", "0.0.0.0:8000", "[int]:<port> to bind to")

	flag.StringVarP(&name, "name", "n", internal.DefaultName, "set the instance's name")
	flag.StringVarP(&baseURL, "base-url", "u", internal.DefaultBaseURL, "base url to use")
	flag.StringVarP(&adminUser, "admin-user", "A", internal.DefaultAdminUser, "admin user allowed to expire sessions")
	flag.StringVarP(&membersFile, "members-file", "m", "", "YAML file to load members from")
	flag.StringVarP(&cookieName, "cookie-name", "C", internal.DefaultCookieName, "session cookie name to use")
	flag.StringVarP(&cookieSecret, "cookie-secret", "S", internal.DefaultCookieSecret, "cookie secret to use")

	flag.StringVarP(&sessionPolicy, "session-policy", "P", internal.DefaultSessionPolicy, "session expiry policy (none, fixed or sliding)")
	flag.DurationVarP(&sessionTTL, "session-ttl", "E", internal.DefaultSessionTTL, "session ttl for the fixed and sliding policies")

	flag.StringVarP(&loginPath, "login-path", "l", internal.DefaultLoginPath, "path unauthenticated requests are redirected to")
	flag.StringSliceVarP(&whitelist, "whitelist", "W", internal.DefaultWhitelist, "path patterns exempt from the login check")

	flag.BoolVarP(&metrics, "metrics", "M", internal.DefaultMetrics, "expose prometheus metrics on /metrics")
}

func flagNameFromEnvironmentName(s string) string {
	s = strings.ToLower(s)
	s = strings.Replace(s, "_", "-", -1)
	return s
}

func ParseArgs() error {
	for _, v := range os.Environ() {
		vals := strings.SplitN(v, "=", 2)
		flagName := flagNameFromEnvironmentName(vals[0])
		fn := flag.CommandLine.Lookup(flagName)
		if fn == nil || fn.Changed {
			continue
		}
		if err := fn.Value.Set(vals[1]); err != nil {
			return err
		}
	}
	flag.Parse()
	return nil
}

func main() {
	if err := ParseArgs(); err != nil {
		log.WithError(err).Fatal("error parsing arguments")
	}

	if version {
		fmt.Printf("logingate v%s\n", logingate.FullVersion())
		os.Exit(0)
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	svr, err := internal.NewServer(bind,
		internal.WithDebug(debug),
		internal.WithName(name),
		internal.WithBaseURL(baseURL),
		internal.WithAdminUser(adminUser),
		internal.WithMembersFile(membersFile),
		internal.WithCookieName(cookieName),
		internal.WithCookieSecret(cookieSecret),

		internal.WithSessionPolicy(sessionPolicy),
		internal.WithSessionTTL(sessionTTL),

		internal.WithLoginPath(loginPath),
		internal.WithWhitelist(whitelist),

		internal.WithMetrics(metrics),
	)
	if err != nil {
		log.WithError(err).Fatal("error creating server")
	}

	log.Infof("%s listening on http://%s", path.Base(os.Args[0]), bind)
	if err := svr.Run(); err != nil {
		log.WithError(err).Fatal("error running or shutting down server")
	}
}
