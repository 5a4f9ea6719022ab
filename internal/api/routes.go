package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the API under /1.1. token guards every route when set.
func RegisterRoutes(r *mux.Router, h *Handler, token string) {
	sub := r.PathPrefix("/1.1").Subrouter()
	sub.Use(TokenAuth(token))

	sub.HandleFunc("/lines/{line_id:[0-9]+}/devices/{device_id}", h.AssociateLine).Methods(http.MethodPut)
	sub.HandleFunc("/lines/{line_id:[0-9]+}/devices/{device_id}", h.DissociateLine).Methods(http.MethodDelete)
	sub.HandleFunc("/lines/{line_id:[0-9]+}/devices", h.GetLineDevice).Methods(http.MethodGet)
	sub.HandleFunc("/devices/resync", h.Resync).Methods(http.MethodPost)
	sub.HandleFunc("/devices/{device_id}/lines", h.ListDeviceLines).Methods(http.MethodGet)
	sub.HandleFunc("/devices/{device_id}/config", h.GetDeviceConfig).Methods(http.MethodGet)
	sub.HandleFunc("/devices/{device_id}/synchronize", h.SynchronizeDevice).Methods(http.MethodPost)
}
