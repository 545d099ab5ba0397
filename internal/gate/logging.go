package gate

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader is the response header carrying the request id
const RequestIDHeader = "X-Request-Id"

// Logging assigns each request a correlation id and logs its entry, outcome
// and completion
type Logging struct {
	Base
}

// NewLogging ...
func NewLogging() *Logging {
	return &Logging{}
}

// Pre ...
func (l *Logging) Pre(ex *Exchange) Decision {
	ex.RequestID = uuid.New().String()
	ex.Writer.Header().Set(RequestIDHeader, ex.RequestID)

	log.WithField("method", ex.Request.Method).
		Infof("REQUEST [%s][%s]", ex.RequestID, ex.Path)

	return Proceed
}

// Post ...
func (l *Logging) Post(ex *Exchange, outcome Outcome) {
	log.WithFields(log.Fields{
		"status":   outcome.Status,
		"bytes":    outcome.Bytes,
		"duration": outcome.Duration,
	}).Debugf("handled [%s]", ex.RequestID)
}

// Completed ...
func (l *Logging) Completed(ex *Exchange, err error) {
	log.Infof("RESPONSE [%s][%s]", ex.RequestID, ex.Path)
	if err != nil {
		log.WithError(err).Errorf("request [%s] failed", ex.RequestID)
	}
}
