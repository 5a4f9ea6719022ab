// Package api exposes line/device associations and device config
// reconciliation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"confd/internal/association"
	"confd/internal/controller"
	"confd/internal/devicecfg"
	"confd/internal/models"
)

type Associations interface {
	Associate(ctx context.Context, lineID uint, deviceID string) error
	Dissociate(ctx context.Context, lineID uint, deviceID string) error
	DeviceForLine(ctx context.Context, lineID uint) (*association.Association, error)
	LinesForDevice(ctx context.Context, deviceID string) ([]association.Association, error)
}

type Reconciler interface {
	Preview(ctx context.Context, deviceID string) (*devicecfg.Envelope, error)
	Reconcile(ctx context.Context, deviceID string) (string, bool, error)
	Synchronize(ctx context.Context, deviceID string) (string, error)
	ReconcileAll(ctx context.Context, ids []string) (*controller.Report, error)
	ReconcileRegistrar(ctx context.Context, registrarID string) (*controller.Report, error)
}

type Handler struct {
	assoc    Associations
	rec      Reconciler
	validate *validator.Validate
}

func NewHandler(a Associations, rec Reconciler) *Handler {
	return &Handler{assoc: a, rec: rec, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type listResponse struct {
	Total int                       `json:"total"`
	Items []association.Association `json:"items"`
}

type syncResponse struct {
	Checksum string `json:"checksum"`
	Updated  bool   `json:"updated"`
}

type resyncRequest struct {
	DeviceIDs   []string `json:"device_ids" validate:"omitempty,dive,required,max=64"`
	RegistrarID string   `json:"registrar_id" validate:"omitempty,max=128,excluded_with=DeviceIDs"`
}

func (h *Handler) AssociateLine(w http.ResponseWriter, r *http.Request) {
	lineID, deviceID, ok := lineAndDevice(w, r)
	if !ok {
		return
	}
	if err := h.assoc.Associate(r.Context(), lineID, deviceID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DissociateLine(w http.ResponseWriter, r *http.Request) {
	lineID, deviceID, ok := lineAndDevice(w, r)
	if !ok {
		return
	}
	if err := h.assoc.Dissociate(r.Context(), lineID, deviceID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetLineDevice(w http.ResponseWriter, r *http.Request) {
	lineID, ok := parseLineID(w, r)
	if !ok {
		return
	}
	a, err := h.assoc.DeviceForLine(r.Context(), lineID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a == nil {
		writeProblem(w, r, http.StatusNotFound, models.ProblemNotFound, "line has no device")
		return
	}
	models.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListDeviceLines(w http.ResponseWriter, r *http.Request) {
	items, err := h.assoc.LinesForDevice(r.Context(), mux.Vars(r)["device_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, listResponse{Total: len(items), Items: items})
}

func (h *Handler) GetDeviceConfig(w http.ResponseWriter, r *http.Request) {
	env, err := h.rec.Preview(r.Context(), mux.Vars(r)["device_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, env)
}

// SynchronizeDevice reconciles one device; ?force=true pushes even an
// unchanged config.
func (h *Handler) SynchronizeDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["device_id"]
	var (
		resp syncResponse
		err  error
	)
	if force, _ := strconv.ParseBool(r.URL.Query().Get("force")); force {
		resp.Checksum, err = h.rec.Synchronize(r.Context(), id)
		resp.Updated = err == nil
	} else {
		resp.Checksum, resp.Updated, err = h.rec.Reconcile(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	var req resyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, r, http.StatusBadRequest, models.ProblemInvalidInput, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, models.ProblemInvalidInput, err.Error())
		return
	}

	var (
		rep *controller.Report
		err error
	)
	if req.RegistrarID != "" {
		rep, err = h.rec.ReconcileRegistrar(r.Context(), req.RegistrarID)
	} else {
		rep, err = h.rec.ReconcileAll(r.Context(), req.DeviceIDs)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rep)
}

func parseLineID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["line_id"], 10, 32)
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, models.ProblemInvalidInput, "invalid line id")
		return 0, false
	}
	return uint(id), true
}

func lineAndDevice(w http.ResponseWriter, r *http.Request) (uint, string, bool) {
	lineID, ok := parseLineID(w, r)
	if !ok {
		return 0, "", false
	}
	return lineID, mux.Vars(r)["device_id"], true
}
