// Package api exposes the gateway HTTP surface: incident intake, outbox
// inspection, and health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/autorescue/autorescue/internal/auth"
	"github.com/autorescue/autorescue/internal/decision"
	"github.com/autorescue/autorescue/internal/ingest"
	"github.com/autorescue/autorescue/internal/outbox"
	"github.com/autorescue/autorescue/internal/workflow"
	"github.com/autorescue/autorescue/pkg/types"
)

// Runner processes one incident end to end.
type Runner interface {
	Run(ctx context.Context, incident types.Incident) (*types.RunResult, error)
}

type Handler struct {
	Auth          auth.Authenticator
	Runner        Runner
	Outbox        *outbox.Store
	MinDelayHours float64
	Logger        *slog.Logger
}

// Incidents accepts one raw delay-signal item, normalizes it, and runs the
// workflow. Items that do not qualify as actionable incidents are rejected
// with 422 rather than silently dropped.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Runner == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "workflow engine not configured"})
		return
	}

	var item map[string]any
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	incident, ok := ingest.FromItem(item, ingest.Options{
		MinDelayHours: h.MinDelayHours,
		Source:        "api",
	})
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "item is not an actionable delay incident",
		})
		return
	}

	result, err := h.Runner.Run(r.Context(), incident)
	if err != nil {
		h.writeRunError(w, incident, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// OutboxRead returns the most recent archived records for one topic.
func (h *Handler) OutboxRead(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Outbox == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "outbox not configured"})
		return
	}

	topic := r.PathValue("topic")
	if topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing topic"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	result, err := h.Outbox.Read(topic, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeRunError(w http.ResponseWriter, incident types.Incident, err error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("incident run failed", "incident_id", incident.IncidentID, "error", err)

	var notFound *workflow.NotFoundError
	var valErr *workflow.ValidationError
	var decErr *decision.DecisionError
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "decision validation failed",
			"violations": valErr.Violations,
		})
	case errors.As(err, &decErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.Auth.Authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
