package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/waste-hotspot-service/internal/dashboard"
	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/render"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	"github.com/couchcryptid/waste-hotspot-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxRequestBody = 64 << 10

var validate = validator.New()

type selectRequest struct {
	Area   string `json:"area" validate:"required"`
	Source string `json:"source" validate:"required,oneof=map table"`
}

type insightsRequest struct {
	Festival string `json:"festival"`
}

type insightsResponse struct {
	Insights *domain.InsightsPayload `json:"insights"`
	Loading  bool                    `json:"loading"`
	Started  *bool                   `json:"started,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	dashboard Dashboard
	logger    *slog.Logger
}

func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Load(r.Context(), chi.URLParam(r, "festival"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.View(r.Context()))
}

func (h *handlers) geoJSON(w http.ResponseWriter, r *http.Request) {
	layer := h.dashboard.Layer(r.Context())
	if layer.Placeholder {
		h.writeError(w, render.ErrEngineUnavailable)
		return
	}
	data, err := layer.GeoJSON().MarshalJSON()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handlers) table(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Table())
}

func (h *handlers) selection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Selection())
}

func (h *handlers) selectArea(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	t, err := h.dashboard.Select(r.Context(), req.Area, selection.Source(req.Source))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) insights(w http.ResponseWriter, _ *http.Request) {
	p, loading := h.dashboard.Insights()
	writeJSON(w, http.StatusOK, insightsResponse{Insights: p, Loading: loading})
}

func (h *handlers) requestInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	started, err := h.dashboard.RequestInsights(r.Context(), req.Festival)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, loading := h.dashboard.Insights()
	writeJSON(w, http.StatusAccepted, insightsResponse{Insights: p, Loading: loading, Started: &started})
}

// writeError maps domain errors to status codes.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownArea):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrFestivalRequired), errors.Is(err, dashboard.ErrInvalidSource):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotLoaded), errors.Is(err, store.ErrFestivalMismatch):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPayload):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, render.ErrEngineUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody unmarshals the request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeJSON mirrors sharedobs.WriteJSON but encodes with goccy/go-json, like
// the rest of the API. The shared helper stays on the health endpoints.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
