package internal

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"github.com/unrolled/logger"

	"github.com/jointwt/logingate"
	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/pathmatch"
	"github.com/jointwt/logingate/internal/session"
)

// Interceptor orders, lowest runs first
const (
	metricsOrder = iota
	loggingOrder
	loginCheckOrder
)

// Server ...
type Server struct {
	bind    string
	config  *Config
	tmplman *TemplateManager
	router  *logingate.Router
	server  *http.Server

	// Interceptors
	chain *gate.Chain

	// Metrics
	registry *prometheus.Registry

	// Scheduler
	cron *cron.Cron

	// Members
	repo *members.Repository

	// Sessions
	store *session.MemoryStore
	sm    *session.Manager

	// Login / Logout
	flow *auth.Flow
}

func (s *Server) render(name string, w http.ResponseWriter, ctx *Context) error {
	return s.renderStatus(http.StatusOK, name, w, ctx)
}

func (s *Server) renderStatus(status int, name string, w http.ResponseWriter, ctx *Context) error {
	buf, err := s.tmplman.Exec(name, ctx)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	return err
}

// handle registers h behind the interceptor chain with the logged-in
// member bound for the view
func (s *Server) handle(method, path string, h gate.Handler) {
	s.router.Handle(method, path, s.chain.Handle(h, auth.LoginMember(memberArg)))
}

// Handler returns the server's full handler stack
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Shutdown ...
func (s *Server) Shutdown(ctx context.Context) error {
	s.cron.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error shutting down server")
		return err
	}

	return nil
}

// Run ...
func (s *Server) Run() (err error) {
	idleConnsClosed := make(chan struct{})
	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		log.Infof("Received signal %s", sig)

		log.Info("Shutting down...")

		if err = s.Shutdown(context.Background()); err != nil {
			log.WithError(err).Fatal("Error shutting down HTTP server")
		}
		close(idleConnsClosed)
	}()

	if err = s.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("HTTP server ListenAndServe")
	}

	<-idleConnsClosed

	return
}

// ListenAndServe ...
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

func (s *Server) setupCronJobs() error {
	for name, jobSpec := range Jobs {
		job := jobSpec.Factory(s.config, s.store, s.repo)
		if err := s.cron.AddJob(jobSpec.Schedule, job); err != nil {
			return err
		}
		log.Infof("Started background job %s (%s)", name, jobSpec.Schedule)
	}

	return nil
}

func (s *Server) setupMetrics() {
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "logingate",
			Name:      "sessions_active",
			Help:      "Number of sessions held by the session store",
		}, func() float64 { return float64(s.store.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "logingate",
			Name:      "members_total",
			Help:      "Number of registered members",
		}, func() float64 { return float64(s.repo.Len()) }),
	)
}

func (s *Server) initRoutes() error {
	css, err := fs.Sub(StaticFS(), "css")
	if err != nil {
		return fmt.Errorf("error opening stylesheets: %w", err)
	}

	// Plain handles still run behind the chain
	plain := s.router.Group("", s.chain.Wrap)
	plain.ServeFilesWithCacheControl("/css/*filepath", http.FS(css))

	if s.config.Metrics {
		plain.Handler(http.MethodGet, DefaultMetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			// gziphandler compresses responses
			DisableCompression: true,
		}))
	}

	s.router.NotFound(s.chain.Handler(s.NotFoundHandler(), auth.LoginMember(memberArg)))

	s.handle(http.MethodGet, "/favicon.ico", s.FaviconHandler())

	s.handle(http.MethodGet, "/", s.HomeHandler())
	s.handle(http.MethodHead, "/", s.HomeHandler())

	s.handle(http.MethodGet, s.config.LoginPath, s.LoginHandler())
	s.handle(http.MethodPost, s.config.LoginPath, s.LoginHandler())

	s.handle(http.MethodGet, "/logout", s.LogoutHandler())
	s.handle(http.MethodPost, "/logout", s.LogoutHandler())

	s.handle(http.MethodGet, "/members", s.MembersHandler())
	s.handle(http.MethodGet, "/members/add", s.AddMemberHandler())
	s.handle(http.MethodPost, "/members/add", s.AddMemberHandler())

	s.handle(http.MethodGet, "/session-info", s.SessionInfoHandler())

	s.handle(http.MethodPost, "/admin/sessions/expire", s.ExpireSessionHandler())

	s.handle(http.MethodGet, "/error", s.ErrorHandler())

	return nil
}

func loadMembers(conf *Config) (*members.Repository, error) {
	repo := members.NewRepository()

	if conf.MembersFile != "" {
		if err := repo.LoadSeed(conf.MembersFile); err != nil {
			return nil, err
		}
		return repo, nil
	}

	log.Warnf("no members file configured, adding test member %q", DefaultTestMemberLoginID)
	if _, err := repo.Save(&members.Member{
		LoginID:  DefaultTestMemberLoginID,
		Name:     DefaultTestMemberName,
		Password: DefaultTestMemberPassword,
	}); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewServer ...
func NewServer(bind string, options ...Option) (*Server, error) {
	config := NewConfig()

	for _, opt := range options {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		log.WithError(err).Error("error validating config")
		return nil, err
	}

	tmplman, err := NewTemplateManager(config)
	if err != nil {
		log.WithError(err).Error("error loading templates")
		return nil, err
	}

	repo, err := loadMembers(config)
	if err != nil {
		log.WithError(err).Error("error loading members")
		return nil, err
	}

	store := session.NewMemoryStore(config.policy, config.SessionTTL)

	sm := session.NewManager(
		session.NewOptions(
			config.CookieName,
			config.CookieSecret,
			config.SecureCookie(),
		),
		store,
	)

	check, err := auth.NewLoginCheck(sm, config.whitelist, config.LoginPath)
	if err != nil {
		log.WithError(err).Error("error creating login check")
		return nil, err
	}

	unlogged, err := pathmatch.NewWhitelist(unloggedPaths...)
	if err != nil {
		log.WithError(err).Error("error creating logging exclusions")
		return nil, err
	}

	registry := prometheus.NewRegistry()

	chain := gate.NewChain().
		UseFor(loggingOrder, gate.NewLogging(), nil, unlogged).
		Use(loginCheckOrder, check).
		Resolve(auth.NewPrincipalResolver(sm))

	if config.Metrics {
		chain.Use(metricsOrder, gate.NewMetrics(gate.WithRegistry(registry)))
	}

	router := logingate.NewRouter()

	server := &Server{
		bind:    bind,
		config:  config,
		router:  router,
		tmplman: tmplman,

		server: &http.Server{
			Addr: bind,
			Handler: logger.New(logger.Options{
				Prefix:               "logingate",
				RemoteAddressHeaders: []string{"X-Forwarded-For"},
			}).Handler(
				gziphandler.GzipHandler(router),
			),
		},

		// Interceptors
		chain: chain,

		// Metrics
		registry: registry,

		// Schedular
		cron: cron.New(),

		// Members
		repo: repo,

		// Sessions
		store: store,
		sm:    sm,

		// Login / Logout
		flow: auth.NewFlow(repo, sm, config.LandingPath),
	}

	chain.OnError(server.errorHandler)

	if config.Metrics {
		server.setupMetrics()
	}

	if err := server.setupCronJobs(); err != nil {
		log.WithError(err).Error("error setting up background jobs")
		return nil, err
	}
	server.cron.Start()
	log.Infof("started background jobs")

	if err := server.initRoutes(); err != nil {
		log.WithError(err).Error("error setting up routes")
		return nil, err
	}

	// Log interesting configuration options
	log.Infof("Instance Name: %s", server.config.Name)
	log.Infof("Base URL: %s", server.config.BaseURL)
	log.Infof("Admin User: %s", server.config.AdminUser)
	log.Infof("Session Cookie: %s (secure: %t)", sm.CookieName(), server.config.SecureCookie())
	log.Infof("Session Policy: %s", store.Policy())
	if store.Policy() != session.ExpireNever {
		log.Infof("Session TTL: %s", store.TTL())
	}
	log.Infof("Login Path: %s", server.config.LoginPath)
	log.Infof("Whitelist: %v", server.config.whitelist.Patterns())
	log.Infof("Members: %d", repo.Len())
	log.Infof("Metrics: %t", server.config.Metrics)

	return server, nil
}
