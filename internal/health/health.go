package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"confd/internal/models"
)

const pingTimeout = 2 * time.Second

// RegisterRoutes mounts the liveness probe.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
}

// RegisterRoutesWithDB adds a readiness probe that pings the database.
func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB) {
	RegisterRoutes(r)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if db == nil {
			notReady(w, "db not configured")
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			notReady(w, "db handle error")
			return
		}
		ctx, cancel := context.WithTimeout(req.Context(), pingTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			notReady(w, "db unreachable")
			return
		}
		models.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

func notReady(w http.ResponseWriter, detail string) {
	models.Problem{Type: models.ProblemNotReady, Title: "Not Ready", Status: http.StatusServiceUnavailable, Detail: detail}.Write(w)
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
