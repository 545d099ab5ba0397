package gate

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Phase is where a request currently is in the chain
type Phase int

const (
	// Entered: Pre hooks are running
	Entered Phase = iota
	// Dispatched: the handler is running
	Dispatched
	// PostPhase: Post hooks are running
	PostPhase
	// ShortCircuited: an interceptor rejected the request
	ShortCircuited
	// Completed: Completed hooks are running
	Completed
)

func (p Phase) String() string {
	switch p {
	case Entered:
		return "entered"
	case Dispatched:
		return "dispatched"
	case PostPhase:
		return "post"
	case ShortCircuited:
		return "short-circuited"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Outcome describes what the handler produced
type Outcome struct {
	Status   int
	Bytes    int
	Duration time.Duration
}

// Exchange is the per-request state threaded through the chain
type Exchange struct {
	Writer  http.ResponseWriter
	Request *http.Request
	Params  httprouter.Params

	// Path is the request path as it entered the chain
	Path string

	// RequestID correlates log lines of one request. Set by Logging.
	RequestID string

	// Started is when the request entered the chain
	Started time.Time

	rec      *responseRecorder
	phase    Phase
	rejected bool
	args     map[string]Resolution
}

func newExchange(w http.ResponseWriter, r *http.Request, p httprouter.Params) *Exchange {
	rec := &responseRecorder{ResponseWriter: w}
	return &Exchange{
		Writer:  rec,
		Request: r,
		Params:  p,
		Path:    r.URL.Path,
		Started: time.Now(),
		rec:     rec,
		phase:   Entered,
		args:    make(map[string]Resolution),
	}
}

// Phase ...
func (ex *Exchange) Phase() Phase {
	return ex.phase
}

// Rejected reports whether an interceptor short-circuited the request
func (ex *Exchange) Rejected() bool {
	return ex.rejected
}

// Written reports whether a response status has been sent
func (ex *Exchange) Written() bool {
	return ex.rec.status != 0
}

// Arg returns the resolved value for the binding called name
func (ex *Exchange) Arg(name string) Resolution {
	if res, ok := ex.args[name]; ok {
		return res
	}
	return Absent
}

func (ex *Exchange) outcome() Outcome {
	status := ex.rec.status
	if status == 0 {
		status = http.StatusOK
	}
	return Outcome{
		Status:   status,
		Bytes:    ex.rec.bytes,
		Duration: time.Since(ex.Started),
	}
}

type responseRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(status int) {
	if rr.status == 0 {
		rr.status = status
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

func (rr *responseRecorder) Flush() {
	if f, ok := rr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}
