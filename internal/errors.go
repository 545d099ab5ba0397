package internal

import (
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/gate"
)

// errorHandler handles errors and panics escaping route handlers. It runs
// after the interceptors' completion hooks and renders the error page unless
// the handler already started a response.
func (s *Server) errorHandler(ex *gate.Exchange, err error) {
	logger := log.WithFields(log.Fields{
		"method":     ex.Request.Method,
		"path":       ex.Path,
		"request_id": ex.RequestID,
	})

	var perr *gate.PanicError
	if errors.As(err, &perr) {
		logger.Errorf("panic handling request: %v", perr.Value)
	} else {
		logger.WithError(err).Error("error handling request")
	}

	if ex.Written() {
		return
	}

	ctx := NewContext(s.config, ex)
	ctx.Title = "Internal Server Error"
	ctx.Error = true
	ctx.Message = internalErrMessage
	if s.config.Debug {
		ctx.Message = fmt.Sprintf("%s (%s)", internalErrMessage, err)
	}

	if err := s.renderStatus(http.StatusInternalServerError, "error", ex.Writer, ctx); err != nil {
		logger.WithError(err).Error("error rendering error page")
		if !ex.Written() {
			http.Error(ex.Writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
