package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"confd/internal/logs"
	"confd/internal/metrics"
	"confd/internal/models"
)

// Recoverer turns a handler panic into a logged stack trace, a panic count
// for the route and a problem+json 500. http.ErrAbortHandler is passed on.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			reqid := GetRequestID(r)
			metrics.HTTPPanics.WithLabelValues(routeTemplate(r)).Inc()
			logs.Logger.WithFields(logrus.Fields{
				"reqid":  reqid,
				"method": r.Method,
				"uri":    r.RequestURI,
				"panic":  rec,
			}).Errorf("handler panic\n%s", debug.Stack())
			models.Problem{
				Type:      models.ProblemInternal,
				Status:    http.StatusInternalServerError,
				Detail:    "unexpected server error (see logs by reqid)",
				Instance:  r.URL.Path,
				RequestID: reqid,
			}.Write(w)
		}()
		next.ServeHTTP(w, r)
	})
}
