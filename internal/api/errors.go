package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"confd/internal/association"
	"confd/internal/devicecfg"
	"confd/internal/logs"
	"confd/internal/middleware"
	"confd/internal/models"
	"confd/internal/provd"
	"confd/internal/repo"
)

// writeError maps service errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, models.ProblemNotFound, err.Error())
	case errors.Is(err, association.ErrMissingAssociation),
		errors.Is(err, association.ErrPositionTaken),
		errors.Is(err, association.ErrAlreadyAssociated):
		writeProblem(w, r, http.StatusBadRequest, models.ProblemAssociation, err.Error())
	case devicecfg.IsInconsistent(err):
		writeProblem(w, r, http.StatusBadRequest, models.ProblemInconsistent, err.Error())
	case provd.IsRetryable(err):
		writeProblem(w, r, http.StatusServiceUnavailable, models.ProblemProvdDown, err.Error())
	default:
		logs.Logger.WithFields(logrus.Fields{
			"reqid": middleware.GetRequestID(r),
			"uri":   r.RequestURI,
			"error": err,
		}).Error("request failed")
		writeProblem(w, r, http.StatusInternalServerError, models.ProblemInternal, "unexpected server error (see logs by reqid)")
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, typ, detail string) {
	models.Problem{
		Type:      typ,
		Status:    status,
		Detail:    detail,
		Instance:  r.URL.Path,
		RequestID: middleware.GetRequestID(r),
	}.Write(w)
}
