// Package gate implements an ordered chain of request interceptors that runs
// in front of route handlers.
//
// Every interceptor has three hooks. Pre runs in ascending order and may
// reject the request, in which case it must write the terminal response
// itself (e.g. a redirect). Post runs in descending order after a successful
// handler. Completed runs in descending order for every interceptor whose Pre
// ran, whatever happened afterwards, and receives the handler's error if any.
//
// On success the observed order for interceptors A(1) and B(2) is:
//
//	A.Pre, B.Pre, handler, B.Post, A.Post, B.Completed, A.Completed
package gate

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/pathmatch"
)

// Decision is the result of an interceptor's Pre hook
type Decision int

const (
	// Proceed lets the request continue down the chain
	Proceed Decision = iota

	// Reject stops the chain; the interceptor has written the response
	Reject
)

func (d Decision) String() string {
	if d == Reject {
		return "reject"
	}
	return "proceed"
}

// Interceptor ...
type Interceptor interface {
	Pre(ex *Exchange) Decision
	Post(ex *Exchange, outcome Outcome)
	Completed(ex *Exchange, err error)
}

// Base provides no-op hooks. Embed it and override what you need.
type Base struct{}

// Pre ...
func (Base) Pre(*Exchange) Decision { return Proceed }

// Post ...
func (Base) Post(*Exchange, Outcome) {}

// Completed ...
func (Base) Completed(*Exchange, error) {}

// Handler handles a request that made it through the chain
type Handler func(ex *Exchange) error

// ErrorHandler deals with an error returned (or panicked) by a Handler
type ErrorHandler func(ex *Exchange, err error)

// PanicError wraps a value recovered from a panicking handler
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("error: handler panic: %v", e.Value)
}

// Unwrap ...
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type entry struct {
	order       int
	interceptor Interceptor
	include     *pathmatch.Whitelist
	exclude     *pathmatch.Whitelist
}

func (e entry) appliesTo(path string) bool {
	if e.include != nil && !e.include.Exempt(path) {
		return false
	}
	if e.exclude != nil && e.exclude.Exempt(path) {
		return false
	}
	return true
}

// Chain ...
type Chain struct {
	entries   []entry
	resolvers []ArgumentResolver
	onError   ErrorHandler
}

// NewChain ...
func NewChain() *Chain {
	return &Chain{onError: DefaultErrorHandler}
}

// Use registers an interceptor. Interceptors run their Pre hooks in
// ascending order; equal orders keep registration order.
func (c *Chain) Use(order int, interceptor Interceptor) *Chain {
	return c.UseFor(order, interceptor, nil, nil)
}

// UseFor registers an interceptor that only sees requests whose path matches
// include (nil matches every path) and does not match exclude.
func (c *Chain) UseFor(order int, interceptor Interceptor, include, exclude *pathmatch.Whitelist) *Chain {
	c.entries = append(c.entries, entry{order, interceptor, include, exclude})
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].order < c.entries[j].order
	})
	return c
}

// Resolve registers an argument resolver. Resolvers are consulted in
// registration order.
func (c *Chain) Resolve(resolver ArgumentResolver) *Chain {
	c.resolvers = append(c.resolvers, resolver)
	return c
}

// OnError sets the handler for errors returned by route handlers
func (c *Chain) OnError(h ErrorHandler) *Chain {
	c.onError = h
	return c
}

// Handle wraps h so that it runs behind the chain. Bindings are resolved
// before h is called and are available through Exchange.Arg.
func (c *Chain) Handle(h Handler, bindings ...Binding) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		c.Serve(w, r, p, h, bindings...)
	}
}

// Handler is like Handle for use with plain net/http
func (c *Chain) Handler(h Handler, bindings ...Binding) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Serve(w, r, nil, h, bindings...)
	})
}

// Wrap runs a plain route handle behind the chain
func (c *Chain) Wrap(next httprouter.Handle) httprouter.Handle {
	return c.Handle(func(ex *Exchange) error {
		next(ex.Writer, ex.Request, ex.Params)
		return nil
	})
}

// Serve runs one request through the chain
func (c *Chain) Serve(w http.ResponseWriter, r *http.Request, p httprouter.Params, h Handler, bindings ...Binding) {
	ex := newExchange(w, r, p)

	var active []Interceptor
	for _, e := range c.entries {
		if e.appliesTo(ex.Path) {
			active = append(active, e.interceptor)
		}
	}

	var (
		entered int
		err     error
	)

	defer func() {
		ex.phase = Completed
		for i := entered - 1; i >= 0; i-- {
			active[i].Completed(ex, err)
		}
		if err != nil && c.onError != nil {
			c.onError(ex, err)
		}
	}()

	for _, interceptor := range active {
		entered++
		if interceptor.Pre(ex) == Reject {
			ex.phase = ShortCircuited
			ex.rejected = true
			return
		}
	}

	ex.phase = Dispatched
	c.resolveArguments(ex, bindings)

	if err = dispatch(ex, h); err != nil {
		return
	}

	ex.phase = PostPhase
	outcome := ex.outcome()
	for i := len(active) - 1; i >= 0; i-- {
		active[i].Post(ex, outcome)
	}
}

func (c *Chain) resolveArguments(ex *Exchange, bindings []Binding) {
	for _, b := range bindings {
		ex.args[b.Name] = c.resolve(ex, b)
	}
}

func (c *Chain) resolve(ex *Exchange, b Binding) Resolution {
	for _, resolver := range c.resolvers {
		if resolver.Supports(b) {
			return resolver.Resolve(ex, b)
		}
	}
	log.Warnf("no resolver supports binding %s", b)
	return Absent
}

func dispatch(ex *Exchange, h Handler) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return h(ex)
}

// DefaultErrorHandler logs the error and, if nothing was written yet,
// responds with 500 Internal Server Error
func DefaultErrorHandler(ex *Exchange, err error) {
	log.WithError(err).Errorf("error handling %s %s", ex.Request.Method, ex.Path)
	if ex.Written() {
		return
	}
	http.Error(ex.Writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
